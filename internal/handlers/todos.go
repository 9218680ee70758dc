package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/ytakahashi/todo-app/internal/models"
	"github.com/ytakahashi/todo-app/internal/services"
	"github.com/ytakahashi/todo-app/internal/validation"
)

const msgInternal = "Internal server error"

// Router is satisfied by both *echo.Echo and *echo.Group.
type Router interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

type TodoHandler struct {
	store  services.Store
	logger *log.Logger
}

func NewTodoHandler(store services.Store, logger *log.Logger) *TodoHandler {
	return &TodoHandler{
		store:  store,
		logger: logger,
	}
}

func (h *TodoHandler) Register(r Router) {
	r.GET("/todos", h.List)
	r.POST("/todos", h.Create)
	r.PUT("/todos", h.UpdateMany)
	r.DELETE("/todos", h.DeleteMany)
	r.PUT("/todos/:id", h.UpdateOne)
	r.DELETE("/todos/:id", h.DeleteOne)
}

func (h *TodoHandler) List(c echo.Context) error {
	todos, err := h.store.FindAll(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, todos)
}

func (h *TodoHandler) Create(c echo.Context) error {
	body, err := validation.DecodeBody(c.Request().Body)
	if err != nil {
		return h.fail(c, err)
	}

	text, err := validation.CreateText(body)
	if err != nil {
		return h.fail(c, err)
	}

	todo := &models.Todo{Text: text, Done: false}
	res, err := h.store.InsertOne(c.Request().Context(), todo)
	if err != nil {
		return h.fail(c, err)
	}
	todo.ID = res.InsertedID

	return c.JSON(http.StatusCreated, todo)
}

// UpdateOne writes exactly the fields present in the body. The stored status
// is the negation of the one sent: clients send what they currently show.
func (h *TodoHandler) UpdateOne(c echo.Context) error {
	body, err := validation.DecodeBody(c.Request().Body)
	if err != nil {
		return h.fail(c, err)
	}

	var fields services.Fields

	if raw, ok := body["status"]; ok {
		status, err := validation.Status(raw)
		if err != nil {
			return h.fail(c, err)
		}
		flipped := !status
		fields.Status = &flipped
	}

	if raw, ok := body["todo"]; ok {
		text, err := validation.UpdateText(raw)
		if err != nil {
			return h.fail(c, err)
		}
		fields.Text = &text
	}

	if fields.Empty() {
		return h.fail(c, &validation.Error{Msg: validation.MsgNoFields})
	}

	res, err := h.store.UpdateOne(c.Request().Context(), c.Param("id"), fields)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, models.UpdateOneResponse{UpdatedTodo: *res})
}

func (h *TodoHandler) DeleteOne(c echo.Context) error {
	res, err := h.store.DeleteOne(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, models.DeleteOneResponse{DeletedTodo: *res})
}

// UpdateMany sets the status of every listed todo to the given value. Unknown
// ids are ignored.
func (h *TodoHandler) UpdateMany(c echo.Context) error {
	body, err := validation.DecodeBody(c.Request().Body)
	if err != nil {
		return h.fail(c, err)
	}

	ids, err := validation.IDs(body)
	if err != nil {
		return h.fail(c, err)
	}

	raw, ok := body["status"]
	if !ok {
		return h.fail(c, &validation.Error{Msg: validation.MsgInvalidStatus})
	}
	status, err := validation.Status(raw)
	if err != nil {
		return h.fail(c, err)
	}

	res, err := h.store.UpdateMany(c.Request().Context(), ids, services.Fields{Status: &status})
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, models.UpdateManyResponse{
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		Message:       fmt.Sprintf("%d of %d todos updated", res.ModifiedCount, res.MatchedCount),
	})
}

func (h *TodoHandler) DeleteMany(c echo.Context) error {
	body, err := validation.DecodeBody(c.Request().Body)
	if err != nil {
		return h.fail(c, err)
	}

	ids, err := validation.IDs(body)
	if err != nil {
		return h.fail(c, err)
	}

	res, err := h.store.DeleteMany(c.Request().Context(), ids)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, models.DeleteManyResponse{
		DeletedCount: res.DeletedCount,
		Msg:          fmt.Sprintf("%d todos deleted", res.DeletedCount),
	})
}

// fail maps validation errors to 400 and everything else to a generic 500.
// Store error detail only goes to the log.
func (h *TodoHandler) fail(c echo.Context, err error) error {
	var verr *validation.Error
	if errors.As(err, &verr) {
		h.logger.Debug("Rejected request", "method", c.Request().Method, "path", c.Path(), "msg", verr.Msg, "cause", verr.Cause)
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Msg: verr.Msg})
	}

	if errors.Is(err, services.ErrStoreUnavailable) {
		h.logger.Error("Store call failed", "method", c.Request().Method, "path", c.Path(), "err", err)
	} else {
		h.logger.Error("Request failed", "method", c.Request().Method, "path", c.Path(), "err", err)
	}
	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Msg: msgInternal})
}
