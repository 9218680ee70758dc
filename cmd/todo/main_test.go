package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytakahashi/todo-app/internal/controller"
	"github.com/ytakahashi/todo-app/internal/handlers"
	"github.com/ytakahashi/todo-app/internal/logging"
	"github.com/ytakahashi/todo-app/internal/models"
	"github.com/ytakahashi/todo-app/internal/services"
	"github.com/ytakahashi/todo-app/internal/ui"
)

func newTestServer(t *testing.T) (string, services.Store) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	store, err := services.NewSQLiteService(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := httptest.NewServer(handlers.NewServer(store, logging.Discard()))
	t.Cleanup(srv.Close)
	return srv.URL, store
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func list(t *testing.T, store services.Store) []*models.Todo {
	t.Helper()
	todos, err := store.FindAll(context.Background())
	require.NoError(t, err)
	return todos
}

func TestAddAndList(t *testing.T) {
	url, store := newTestServer(t)

	out, err := execute(t, "--api-url", url, "add", "buy", "milk")
	require.NoError(t, err)
	assert.Contains(t, out, "added")

	todos := list(t, store)
	require.Len(t, todos, 1)
	assert.Equal(t, "buy milk", todos[0].Text)

	out, err = execute(t, "--api-url", url, "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "buy milk")
	assert.Contains(t, out, todos[0].ID)
}

func TestAddTooShort(t *testing.T) {
	url, store := newTestServer(t)

	_, err := execute(t, "--api-url", url, "add", "ab")
	assert.ErrorIs(t, err, controller.ErrDraftTooShort)
	assert.Empty(t, list(t, store))
}

func TestToggleByPosition(t *testing.T) {
	url, store := newTestServer(t)
	_, err := execute(t, "--api-url", url, "add", "buy milk")
	require.NoError(t, err)

	_, err = execute(t, "--api-url", url, "toggle", "1")
	require.NoError(t, err)
	assert.True(t, list(t, store)[0].Done)

	_, err = execute(t, "--api-url", url, "toggle", list(t, store)[0].ID)
	require.NoError(t, err)
	assert.False(t, list(t, store)[0].Done)
}

func TestEditAndRemove(t *testing.T) {
	url, store := newTestServer(t)
	_, err := execute(t, "--api-url", url, "add", "buy milk")
	require.NoError(t, err)

	_, err = execute(t, "--api-url", url, "edit", "1", "buy", "oat", "milk")
	require.NoError(t, err)
	assert.Equal(t, "buy oat milk", list(t, store)[0].Text)

	_, err = execute(t, "--api-url", url, "edit", "nope", "text")
	assert.ErrorIs(t, err, controller.ErrNotFound)

	_, err = execute(t, "--api-url", url, "rm", "1")
	require.NoError(t, err)
	assert.Empty(t, list(t, store))
}

func TestSelectAllAndRemoveSelected(t *testing.T) {
	url, store := newTestServer(t)
	for _, text := range []string{"one!", "two!", "three"} {
		_, err := execute(t, "--api-url", url, "add", text)
		require.NoError(t, err)
	}

	_, err := execute(t, "--api-url", url, "select-all")
	require.NoError(t, err)
	for _, todo := range list(t, store) {
		assert.True(t, todo.Done)
	}

	out, err := execute(t, "--api-url", url, "rm-selected", "1", "3", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "2 todos deleted")

	todos := list(t, store)
	require.Len(t, todos, 1)
	assert.Equal(t, "two!", todos[0].Text)

	_, err = execute(t, "--api-url", url, "rm-selected", "missing")
	assert.ErrorIs(t, err, controller.ErrNotFound)
}

func TestConfigFile(t *testing.T) {
	url, store := newTestServer(t)

	path := filepath.Join(t.TempDir(), "todo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: "+url+"\nmin_length: 2\n"), 0o644))

	_, err := execute(t, "--config", path, "add", "ab")
	require.NoError(t, err)
	assert.Len(t, list(t, store), 1)
}

func TestConfigFromXDGAndEnv(t *testing.T) {
	url, store := newTestServer(t)

	dir := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "todo")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("api_url: http://127.0.0.1:1\n"), 0o644))
	t.Setenv("TODO_API_URL", url)

	_, err := execute(t, "add", "from env")
	require.NoError(t, err)
	assert.Len(t, list(t, store), 1)
}

func TestMissingExplicitConfig(t *testing.T) {
	url, _ := newTestServer(t)

	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "--api-url", url, "ls")
	assert.Error(t, err)
}

func TestTUIOpensWhenServerIsDown(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	var view string
	prev := runTUI
	runTUI = func(ctx context.Context, ctrl *controller.Controller) error {
		var m tea.Model = ui.New(ctx, ctrl)
		m, _ = m.Update(m.Init()())
		view = m.View()
		return nil
	}
	t.Cleanup(func() { runTUI = prev })

	_, err := execute(t, "--api-url", url, "tui")
	require.NoError(t, err)
	assert.Contains(t, view, "load:")
	assert.Contains(t, view, "no todos")

	_, err = execute(t, "--api-url", url, "ls")
	assert.Error(t, err)
}
