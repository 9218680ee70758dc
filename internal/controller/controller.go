// Package controller keeps the client-side copy of the todo list and the
// selection set in sync with the server.
//
// Local state only changes after the server acknowledged a write; the list is
// patched with exactly the fields the request changed and is never re-fetched
// after a write. Every mutation runs as a task keyed by record id, so a newer
// action on the same record cancels the older one, whose response is then
// dropped.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/ytakahashi/todo-app/internal/models"
)

// DefaultMinDraftLength rejects drafts of three characters or fewer.
const DefaultMinDraftLength = 4

var (
	ErrDraftTooShort   = errors.New("todo text is too short")
	ErrSuperseded      = errors.New("superseded by a newer action")
	ErrNotFound        = errors.New("todo is not in the list")
	ErrNotEditing      = errors.New("no todo is being edited")
	ErrNotAcknowledged = errors.New("server did not acknowledge the change")
)

// API is the subset of the REST API the controller needs.
type API interface {
	List(ctx context.Context) ([]models.Todo, error)
	Create(ctx context.Context, text string) (*models.Todo, error)
	SetStatus(ctx context.Context, id string, current bool) (*models.UpdateResult, error)
	SetText(ctx context.Context, id, text string) (*models.UpdateResult, error)
	Delete(ctx context.Context, id string) (*models.DeleteResult, error)
	UpdateMany(ctx context.Context, ids []string, status bool) (*models.UpdateManyResponse, error)
	DeleteMany(ctx context.Context, ids []string) (*models.DeleteManyResponse, error)
}

type Options struct {
	// MinDraftLength is the minimum number of characters a draft needs
	// before Create calls the server. Zero means DefaultMinDraftLength.
	MinDraftLength int
	Logger         *log.Logger
}

// Edit is the pending text of the todo being edited.
type Edit struct {
	ID   string
	Text string
}

// Item is a todo as the UI sees it.
type Item struct {
	models.Todo
	Selected bool
}

// State is a consistent snapshot of the controller.
type State struct {
	Items       []Item
	Draft       string
	Editing     *Edit
	AllDone     bool
	AllSelected bool
}

type Controller struct {
	api      API
	logger   *log.Logger
	minDraft int
	tasks    *taskSet

	mu        sync.Mutex
	todos     []models.Todo
	selection map[string]struct{}
	draft     string
	editing   *Edit
}

func New(api API, opts Options) *Controller {
	if opts.MinDraftLength <= 0 {
		opts.MinDraftLength = DefaultMinDraftLength
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Controller{
		api:       api,
		logger:    opts.Logger,
		minDraft:  opts.MinDraftLength,
		tasks:     newTaskSet(),
		selection: make(map[string]struct{}),
	}
}

// Close cancels every in-flight task.
func (c *Controller) Close() {
	c.tasks.cancelAll()
}

// Load replaces the list with the server's and clears the selection. On
// failure the previous list is kept and the error is logged and returned.
func (c *Controller) Load(parent context.Context) error {
	ctx, done := c.tasks.start(parent, keyLoad)
	defer done()

	todos, err := c.api.List(ctx)
	if err := settle(parent, ctx, err); err != nil {
		if !errors.Is(err, ErrSuperseded) {
			c.logger.Error("Error fetching todos", "err", err)
		}
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.todos = append(make([]models.Todo, 0, len(todos)), todos...)
	c.selection = make(map[string]struct{})
	if c.editing != nil && c.index(c.editing.ID) < 0 {
		c.editing = nil
	}
	return nil
}

func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = text
}

// Create sends the current draft. Drafts shorter than the minimum length are
// rejected without a request.
func (c *Controller) Create(ctx context.Context) error {
	c.mu.Lock()
	draft := c.draft
	c.mu.Unlock()

	if utf8.RuneCountInString(draft) < c.minDraft {
		return ErrDraftTooShort
	}

	todo, err := c.api.Create(ctx, draft)
	if err != nil {
		return c.writeFailed("create", "", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.todos = append(c.todos, *todo)
	c.draft = ""
	return nil
}

// Toggle asks the server to flip the status of id. The local status flips only
// once the server acknowledged.
func (c *Controller) Toggle(parent context.Context, id string) error {
	c.mu.Lock()
	i := c.index(id)
	if i < 0 {
		c.mu.Unlock()
		return ErrNotFound
	}
	current := c.todos[i].Done
	c.mu.Unlock()

	ctx, done := c.tasks.start(parent, id)
	defer done()

	res, err := c.api.SetStatus(ctx, id, current)
	if err := settle(parent, ctx, err); err != nil {
		return c.writeFailed("toggle", id, err)
	}
	if !res.Acknowledged {
		return c.writeFailed("toggle", id, ErrNotAcknowledged)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(id); i >= 0 {
		c.todos[i].Done = !current
	}
	return nil
}

// BeginEdit enters editing mode for id, seeded with its current text.
func (c *Controller) BeginEdit(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(id)
	if i < 0 {
		return ErrNotFound
	}
	c.editing = &Edit{ID: id, Text: c.todos[i].Text}
	return nil
}

func (c *Controller) SetEditText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editing != nil {
		c.editing.Text = text
	}
}

// CancelEdit leaves editing mode and drops the pending text.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editing = nil
}

// SubmitEdit sends the pending text. On acknowledgement the todo's text is
// patched and editing mode ends; on failure editing mode stays on.
func (c *Controller) SubmitEdit(parent context.Context) error {
	c.mu.Lock()
	if c.editing == nil {
		c.mu.Unlock()
		return ErrNotEditing
	}
	edit := *c.editing
	c.mu.Unlock()

	ctx, done := c.tasks.start(parent, edit.ID)
	defer done()

	res, err := c.api.SetText(ctx, edit.ID, edit.Text)
	if err := settle(parent, ctx, err); err != nil {
		return c.writeFailed("edit", edit.ID, err)
	}
	if !res.Acknowledged {
		return c.writeFailed("edit", edit.ID, ErrNotAcknowledged)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(edit.ID); i >= 0 {
		c.todos[i].Text = strings.TrimSpace(edit.Text)
	}
	if c.editing != nil && c.editing.ID == edit.ID {
		c.editing = nil
	}
	return nil
}

// Delete removes id on the server and then locally, including from the
// selection.
func (c *Controller) Delete(parent context.Context, id string) error {
	ctx, done := c.tasks.start(parent, id)
	defer done()

	res, err := c.api.Delete(ctx, id)
	if err := settle(parent, ctx, err); err != nil {
		return c.writeFailed("delete", id, err)
	}
	if !res.Acknowledged {
		return c.writeFailed("delete", id, ErrNotAcknowledged)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(map[string]struct{}{id: {}})
	return nil
}

// ToggleSelection flips the selection of id and reports whether it is now
// selected. Ids that are not in the list are ignored.
func (c *Controller) ToggleSelection(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index(id) < 0 {
		return false
	}
	if _, ok := c.selection[id]; ok {
		delete(c.selection, id)
		return false
	}
	c.selection[id] = struct{}{}
	return true
}

// ToggleSelectAll unselects everything and marks every todo not done when all
// todos are selected; otherwise it selects everything and marks every todo
// done. Local done flags follow once the server reports at least one
// modification.
func (c *Controller) ToggleSelectAll(parent context.Context) error {
	c.mu.Lock()
	if len(c.todos) == 0 {
		c.mu.Unlock()
		return nil
	}
	ids := c.ids()
	status := !c.allSelected()
	previous := c.selection
	c.selection = make(map[string]struct{}, len(ids))
	if status {
		for _, id := range ids {
			c.selection[id] = struct{}{}
		}
	}
	c.mu.Unlock()

	ctx, done := c.tasks.start(parent, keyBulkStatus)
	defer done()

	res, err := c.api.UpdateMany(ctx, ids, status)
	if err := settle(parent, ctx, err); err != nil {
		if !errors.Is(err, ErrSuperseded) {
			c.restoreSelection(previous)
		}
		return c.writeFailed("update all", "", err)
	}
	if res.ModifiedCount == 0 {
		return nil
	}

	sent := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		sent[id] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.todos {
		if _, ok := sent[c.todos[i].ID]; ok {
			c.todos[i].Done = status
		}
	}
	return nil
}

// DeleteSelected deletes every selected todo. It does nothing when the
// selection is empty. A successful delete clears the whole selection,
// including ids selected while the request was in flight.
func (c *Controller) DeleteSelected(parent context.Context) error {
	c.mu.Lock()
	if len(c.selection) == 0 {
		c.mu.Unlock()
		return nil
	}
	ids := c.selectedIDs()
	c.mu.Unlock()

	ctx, done := c.tasks.start(parent, keyBulkDelete)
	defer done()

	res, err := c.api.DeleteMany(ctx, ids)
	if err := settle(parent, ctx, err); err != nil {
		return c.writeFailed("delete selected", "", err)
	}
	if res.DeletedCount == 0 {
		return nil
	}

	deleted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		deleted[id] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(deleted)
	c.selection = make(map[string]struct{})
	return nil
}

// Todos returns a copy of the list.
func (c *Controller) Todos() []models.Todo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Todo(nil), c.todos...)
}

// Selection returns the selected ids in list order.
func (c *Controller) Selection() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedIDs()
}

func (c *Controller) IsSelected(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.selection[id]
	return ok
}

// AllDone reports whether the list is non-empty and every todo is done. It
// does not look at the selection.
func (c *Controller) AllDone() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allDone()
}

// Busy reports whether a write for id is in flight.
func (c *Controller) Busy(id string) bool {
	return c.tasks.inFlight(id)
}

func (c *Controller) Editing() (Edit, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editing == nil {
		return Edit{}, false
	}
	return *c.editing, true
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := State{
		Items:       make([]Item, 0, len(c.todos)),
		Draft:       c.draft,
		AllDone:     c.allDone(),
		AllSelected: c.allSelected(),
	}
	for _, todo := range c.todos {
		_, selected := c.selection[todo.ID]
		st.Items = append(st.Items, Item{Todo: todo, Selected: selected})
	}
	if c.editing != nil {
		edit := *c.editing
		st.Editing = &edit
	}
	return st
}

// writeFailed logs a rejected write and wraps it for the caller. Superseded
// tasks are not logged.
func (c *Controller) writeFailed(op, id string, err error) error {
	if errors.Is(err, ErrSuperseded) {
		return err
	}
	if id != "" {
		c.logger.Warn("Write failed", "op", op, "id", id, "err", err)
	} else {
		c.logger.Warn("Write failed", "op", op, "err", err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// restoreSelection puts back a previous selection, minus ids that have left
// the list since.
func (c *Controller) restoreSelection(previous map[string]struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection = make(map[string]struct{}, len(previous))
	for id := range previous {
		if c.index(id) >= 0 {
			c.selection[id] = struct{}{}
		}
	}
}

// settle turns the outcome of a task into the error the caller sees. A task
// whose context was cancelled while the parent is still live was superseded.
func settle(parent, ctx context.Context, err error) error {
	if ctx.Err() != nil {
		if perr := parent.Err(); perr != nil {
			return perr
		}
		return ErrSuperseded
	}
	return err
}

// The helpers below expect c.mu to be held.

func (c *Controller) index(id string) int {
	for i := range c.todos {
		if c.todos[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) ids() []string {
	ids := make([]string, len(c.todos))
	for i := range c.todos {
		ids[i] = c.todos[i].ID
	}
	return ids
}

func (c *Controller) selectedIDs() []string {
	ids := make([]string, 0, len(c.selection))
	for _, todo := range c.todos {
		if _, ok := c.selection[todo.ID]; ok {
			ids = append(ids, todo.ID)
		}
	}
	return ids
}

func (c *Controller) allSelected() bool {
	if len(c.todos) == 0 {
		return false
	}
	for _, todo := range c.todos {
		if _, ok := c.selection[todo.ID]; !ok {
			return false
		}
	}
	return true
}

func (c *Controller) allDone() bool {
	if len(c.todos) == 0 {
		return false
	}
	for _, todo := range c.todos {
		if !todo.Done {
			return false
		}
	}
	return true
}

func (c *Controller) remove(ids map[string]struct{}) {
	kept := c.todos[:0]
	for _, todo := range c.todos {
		if _, gone := ids[todo.ID]; !gone {
			kept = append(kept, todo)
		}
	}
	c.todos = kept
	for id := range ids {
		delete(c.selection, id)
	}
	if c.editing != nil {
		if _, gone := ids[c.editing.ID]; gone {
			c.editing = nil
		}
	}
}
