package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/ytakahashi/todo-app/internal/models"
	"google.golang.org/api/iterator"
)

const DefaultCollection = "todos"

type FirestoreService struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreService(ctx context.Context, projectID, collection string) (*FirestoreService, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	if collection == "" {
		collection = DefaultCollection
	}

	return &FirestoreService{
		client:     client,
		collection: collection,
	}, nil
}

func (fs *FirestoreService) Close() error {
	return fs.client.Close()
}

func (fs *FirestoreService) todos() *firestore.CollectionRef {
	return fs.client.Collection(fs.collection)
}

func (fs *FirestoreService) FindAll(ctx context.Context) ([]*models.Todo, error) {
	iter := fs.todos().
		OrderBy("createdAt", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	todos := make([]*models.Todo, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, storeError("iterate todos", err)
		}

		var todo models.Todo
		if err := doc.DataTo(&todo); err != nil {
			return nil, storeError("unmarshal todo", err)
		}
		todo.ID = doc.Ref.ID

		todos = append(todos, &todo)
	}

	return todos, nil
}

func (fs *FirestoreService) InsertOne(ctx context.Context, todo *models.Todo) (*models.InsertResult, error) {
	todo.ID = uuid.New().String()
	if todo.CreatedAt.IsZero() {
		todo.CreatedAt = time.Now()
	}

	if _, err := fs.todos().Doc(todo.ID).Create(ctx, todo); err != nil {
		return nil, storeError("create todo", err)
	}

	return &models.InsertResult{Acknowledged: true, InsertedID: todo.ID}, nil
}

func (fs *FirestoreService) UpdateOne(ctx context.Context, id string, fields Fields) (*models.UpdateResult, error) {
	return fs.update(ctx, []string{id}, fields)
}

func (fs *FirestoreService) UpdateMany(ctx context.Context, ids []string, fields Fields) (*models.UpdateResult, error) {
	return fs.update(ctx, ids, fields)
}

func (fs *FirestoreService) DeleteOne(ctx context.Context, id string) (*models.DeleteResult, error) {
	return fs.delete(ctx, []string{id})
}

func (fs *FirestoreService) DeleteMany(ctx context.Context, ids []string) (*models.DeleteResult, error) {
	return fs.delete(ctx, ids)
}

// existing fetches the documents for ids in one round trip and drops the ones
// that do not exist.
func (fs *FirestoreService) existing(ctx context.Context, ids []string) ([]*firestore.DocumentSnapshot, error) {
	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		if validDocID(id) {
			refs = append(refs, fs.todos().Doc(id))
		}
	}
	if len(refs) == 0 {
		return nil, nil
	}

	snaps, err := fs.client.GetAll(ctx, refs)
	if err != nil {
		return nil, err
	}

	found := snaps[:0]
	for _, snap := range snaps {
		if snap.Exists() {
			found = append(found, snap)
		}
	}
	return found, nil
}

func (fs *FirestoreService) update(ctx context.Context, ids []string, fields Fields) (*models.UpdateResult, error) {
	snaps, err := fs.existing(ctx, ids)
	if err != nil {
		return nil, storeError("fetch todos for update", err)
	}

	result := &models.UpdateResult{Acknowledged: true, MatchedCount: int64(len(snaps))}

	var changed []*firestore.DocumentRef
	for _, snap := range snaps {
		var todo models.Todo
		if err := snap.DataTo(&todo); err != nil {
			return nil, storeError("unmarshal todo", err)
		}
		if changes(&todo, fields) {
			changed = append(changed, snap.Ref)
		}
	}
	if len(changed) == 0 {
		return result, nil
	}

	var updates []firestore.Update
	if fields.Status != nil {
		updates = append(updates, firestore.Update{Path: "status", Value: *fields.Status})
	}
	if fields.Text != nil {
		updates = append(updates, firestore.Update{Path: "todo", Value: *fields.Text})
	}

	bw := fs.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(changed))
	for _, ref := range changed {
		job, err := bw.Update(ref, updates)
		if err != nil {
			bw.End()
			return nil, storeError("enqueue todo update", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return nil, storeError("update todo", err)
		}
		result.ModifiedCount++
	}

	return result, nil
}

func (fs *FirestoreService) delete(ctx context.Context, ids []string) (*models.DeleteResult, error) {
	snaps, err := fs.existing(ctx, ids)
	if err != nil {
		return nil, storeError("fetch todos for deletion", err)
	}

	result := &models.DeleteResult{Acknowledged: true}
	if len(snaps) == 0 {
		return result, nil
	}

	bw := fs.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(snaps))
	for _, snap := range snaps {
		job, err := bw.Delete(snap.Ref)
		if err != nil {
			bw.End()
			return nil, storeError("enqueue todo deletion", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return nil, storeError("delete todo", err)
		}
		result.DeletedCount++
	}

	return result, nil
}

// validDocID reports whether id can name a document directly under the
// collection. Ids that cannot are treated as not found.
func validDocID(id string) bool {
	if id == "" || id == "." || id == ".." || len(id) > 1500 || strings.Contains(id, "/") {
		return false
	}
	return !(len(id) >= 4 && strings.HasPrefix(id, "__") && strings.HasSuffix(id, "__"))
}
