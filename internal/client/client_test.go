package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytakahashi/todo-app/internal/handlers"
	"github.com/ytakahashi/todo-app/internal/logging"
	"github.com/ytakahashi/todo-app/internal/services"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	store, err := services.NewSQLiteService(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := httptest.NewServer(handlers.NewServer(store, logging.Discard()))
	t.Cleanup(srv.Close)

	return New(srv.URL + "/")
}

func TestCreateListDelete(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	todo, err := c.Create(ctx, "buy milk")
	require.NoError(t, err)
	assert.NotEmpty(t, todo.ID)
	assert.Equal(t, "buy milk", todo.Text)
	assert.False(t, todo.Done)

	todos, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, todo.ID, todos[0].ID)

	res, err := c.Delete(ctx, todo.ID)
	require.NoError(t, err)
	assert.True(t, res.Acknowledged)
	assert.EqualValues(t, 1, res.DeletedCount)

	todos, err = c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, todos)
}

func TestSetStatusFlipsCurrent(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	todo, err := c.Create(ctx, "buy milk")
	require.NoError(t, err)

	res, err := c.SetStatus(ctx, todo.ID, false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.ModifiedCount)

	todos, err := c.List(ctx)
	require.NoError(t, err)
	assert.True(t, todos[0].Done)
}

func TestSetText(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	todo, err := c.Create(ctx, "buy milk")
	require.NoError(t, err)

	_, err = c.SetText(ctx, todo.ID, "  buy oat milk  ")
	require.NoError(t, err)

	todos, err := c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "buy oat milk", todos[0].Text)
}

func TestUpdateManyAndDeleteMany(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	var ids []string
	for _, text := range []string{"one", "two", "three"} {
		todo, err := c.Create(ctx, text)
		require.NoError(t, err)
		ids = append(ids, todo.ID)
	}

	upd, err := c.UpdateMany(ctx, ids[:2], true)
	require.NoError(t, err)
	assert.EqualValues(t, 2, upd.MatchedCount)
	assert.EqualValues(t, 2, upd.ModifiedCount)
	assert.Equal(t, "2 of 2 todos updated", upd.Message)

	del, err := c.DeleteMany(ctx, ids)
	require.NoError(t, err)
	assert.EqualValues(t, 3, del.DeletedCount)
}

func TestAPIError(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	_, err := c.Create(ctx, "   ")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "No Todo found", apiErr.Message)
}

func TestAPIErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).List(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestContextCanceled(t *testing.T) {
	c := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
