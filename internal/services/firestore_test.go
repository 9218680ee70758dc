package services

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against the Firestore emulator only.
func newTestFirestore(t *testing.T) *FirestoreService {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	fs, err := NewFirestoreService(context.Background(), "todo-app-test", "todos-"+uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() { fs.Close() })
	return fs
}

func TestFirestoreLifecycle(t *testing.T) {
	fs := newTestFirestore(t)
	ctx := context.Background()

	a, b := insert(t, fs, "buy milk"), insert(t, fs, "walk dog")

	todos, err := fs.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, todos, 2)
	assert.Equal(t, a, todos[0].ID)
	assert.Equal(t, "buy milk", todos[0].Text)

	res, err := fs.UpdateMany(ctx, []string{a, b, "missing"}, Fields{Status: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.MatchedCount)
	assert.Equal(t, int64(2), res.ModifiedCount)

	res, err = fs.UpdateOne(ctx, a, Fields{Status: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.MatchedCount)
	assert.Equal(t, int64(0), res.ModifiedCount)

	del, err := fs.DeleteMany(ctx, []string{a, b, "missing"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), del.DeletedCount)

	del, err = fs.DeleteOne(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, int64(0), del.DeletedCount)
}

func TestValidDocID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{id: uuid.NewString(), want: true},
		{id: "missing", want: true},
		{id: "_a_", want: true},
		{id: "", want: false},
		{id: ".", want: false},
		{id: "..", want: false},
		{id: "a/b", want: false},
		{id: "__name__", want: false},
		{id: strings.Repeat("a", 1501), want: false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, validDocID(tt.id), tt.id)
	}
}

func TestFirestoreMalformedIDsAreNotFound(t *testing.T) {
	fs := newTestFirestore(t)
	ctx := context.Background()
	a := insert(t, fs, "buy milk")

	res, err := fs.UpdateMany(ctx, []string{"a/b", "__reserved__", a}, Fields{Status: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.MatchedCount)

	res, err = fs.UpdateOne(ctx, "x/y/z", Fields{Status: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.MatchedCount)

	del, err := fs.DeleteMany(ctx, []string{"a/b", "__reserved__"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), del.DeletedCount)
}
