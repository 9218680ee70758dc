package services

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ytakahashi/todo-app/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteService keeps todos in a single SQLite table. Each multi-document call
// runs in one transaction.
type SQLiteService struct {
	db *sql.DB
}

// NewSQLiteService opens (or creates) the database at path. ":memory:" gives
// a throwaway store.
func NewSQLiteService(ctx context.Context, path string) (*SQLiteService, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// One connection: an in-memory database is per connection, and SQLite
	// serializes writers anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteService{db: db}, nil
}

func (s *SQLiteService) Close() error {
	return s.db.Close()
}

func (s *SQLiteService) FindAll(ctx context.Context) ([]*models.Todo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, todo, status, created_at FROM todos ORDER BY created_at, rowid`)
	if err != nil {
		return nil, storeError("query todos", err)
	}
	defer rows.Close()

	todos := make([]*models.Todo, 0)
	for rows.Next() {
		var (
			todo      models.Todo
			createdAt int64
		)
		if err := rows.Scan(&todo.ID, &todo.Text, &todo.Done, &createdAt); err != nil {
			return nil, storeError("scan todo", err)
		}
		todo.CreatedAt = time.Unix(0, createdAt)
		todos = append(todos, &todo)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate todos", err)
	}

	return todos, nil
}

func (s *SQLiteService) InsertOne(ctx context.Context, todo *models.Todo) (*models.InsertResult, error) {
	todo.ID = uuid.New().String()
	if todo.CreatedAt.IsZero() {
		todo.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO todos (id, todo, status, created_at) VALUES (?, ?, ?, ?)`,
		todo.ID, todo.Text, todo.Done, todo.CreatedAt.UnixNano())
	if err != nil {
		return nil, storeError("create todo", err)
	}

	return &models.InsertResult{Acknowledged: true, InsertedID: todo.ID}, nil
}

func (s *SQLiteService) UpdateOne(ctx context.Context, id string, fields Fields) (*models.UpdateResult, error) {
	return s.update(ctx, []string{id}, fields)
}

func (s *SQLiteService) UpdateMany(ctx context.Context, ids []string, fields Fields) (*models.UpdateResult, error) {
	return s.update(ctx, ids, fields)
}

func (s *SQLiteService) DeleteOne(ctx context.Context, id string) (*models.DeleteResult, error) {
	return s.delete(ctx, []string{id})
}

func (s *SQLiteService) DeleteMany(ctx context.Context, ids []string) (*models.DeleteResult, error) {
	return s.delete(ctx, ids)
}

func (s *SQLiteService) update(ctx context.Context, ids []string, fields Fields) (*models.UpdateResult, error) {
	if fields.Empty() {
		return nil, fmt.Errorf("update without fields")
	}

	in, inArgs := inClause(ids)

	var (
		sets    []string
		diffs   []string
		setArgs []any
		diffArg []any
	)
	if fields.Status != nil {
		sets = append(sets, "status = ?")
		diffs = append(diffs, "status != ?")
		setArgs = append(setArgs, *fields.Status)
		diffArg = append(diffArg, *fields.Status)
	}
	if fields.Text != nil {
		sets = append(sets, "todo = ?")
		diffs = append(diffs, "todo != ?")
		setArgs = append(setArgs, *fields.Text)
		diffArg = append(diffArg, *fields.Text)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeError("begin update", err)
	}
	defer tx.Rollback()

	result := &models.UpdateResult{Acknowledged: true}
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM todos WHERE id IN `+in, inArgs...).Scan(&result.MatchedCount)
	if err != nil {
		return nil, storeError("count todos", err)
	}

	query := fmt.Sprintf(`UPDATE todos SET %s WHERE id IN %s AND (%s)`,
		strings.Join(sets, ", "), in, strings.Join(diffs, " OR "))
	args := append(append(setArgs, inArgs...), diffArg...)
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, storeError("update todos", err)
	}
	if result.ModifiedCount, err = res.RowsAffected(); err != nil {
		return nil, storeError("update todos", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storeError("commit update", err)
	}
	return result, nil
}

func (s *SQLiteService) delete(ctx context.Context, ids []string) (*models.DeleteResult, error) {
	in, args := inClause(ids)
	res, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id IN `+in, args...)
	if err != nil {
		return nil, storeError("delete todos", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return nil, storeError("delete todos", err)
	}
	return &models.DeleteResult{Acknowledged: true, DeletedCount: deleted}, nil
}

// inClause binds ids as one JSON array parameter, so the number of ids is not
// limited by SQLite's host parameter cap.
func inClause(ids []string) (string, []any) {
	data, _ := json.Marshal(ids)
	return "(SELECT value FROM json_each(?))", []any{string(data)}
}
