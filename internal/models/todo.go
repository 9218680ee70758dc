package models

import (
	"time"
)

// Todo represents a todo item
type Todo struct {
	ID        string    `firestore:"id" json:"_id"`
	Text      string    `firestore:"todo" json:"todo"`
	Done      bool      `firestore:"status" json:"status"`
	CreatedAt time.Time `firestore:"createdAt" json:"-"`
}

// InsertResult acknowledges a single insert.
type InsertResult struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

// UpdateResult acknowledges an update of one or more documents.
// ModifiedCount only counts documents whose stored value changed.
type UpdateResult struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

// DeleteResult acknowledges a delete of one or more documents.
type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}
