package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ytakahashi/todo-app/internal/models"
)

// ErrStoreUnavailable is wrapped by every error a Store returns when the
// backend could not serve the call.
var ErrStoreUnavailable = errors.New("store unavailable")

// Fields selects which todo fields an update writes. Nil fields are left
// untouched.
type Fields struct {
	Status *bool
	Text   *string
}

// Empty reports whether no field is set.
func (f Fields) Empty() bool {
	return f.Status == nil && f.Text == nil
}

// Store is the persistent todo collection. Ids that do not exist are not an
// error for updates and deletes; they are reflected in the returned counts.
type Store interface {
	FindAll(ctx context.Context) ([]*models.Todo, error)
	InsertOne(ctx context.Context, todo *models.Todo) (*models.InsertResult, error)
	UpdateOne(ctx context.Context, id string, fields Fields) (*models.UpdateResult, error)
	UpdateMany(ctx context.Context, ids []string, fields Fields) (*models.UpdateResult, error)
	DeleteOne(ctx context.Context, id string) (*models.DeleteResult, error)
	DeleteMany(ctx context.Context, ids []string) (*models.DeleteResult, error)
	Close() error
}

// changes reports whether applying fields to todo would alter it.
func changes(todo *models.Todo, fields Fields) bool {
	if fields.Status != nil && *fields.Status != todo.Done {
		return true
	}
	if fields.Text != nil && *fields.Text != todo.Text {
		return true
	}
	return false
}

func storeError(op string, err error) error {
	return fmt.Errorf("failed to %s: %w: %w", op, ErrStoreUnavailable, err)
}
