package models

// Wire shapes of the REST API responses.

type UpdateOneResponse struct {
	UpdatedTodo UpdateResult `json:"updatedTodo"`
}

type DeleteOneResponse struct {
	DeletedTodo DeleteResult `json:"deletedTodo"`
}

type UpdateManyResponse struct {
	MatchedCount  int64  `json:"matchedCount"`
	ModifiedCount int64  `json:"modifiedCount"`
	Message       string `json:"message"`
}

type DeleteManyResponse struct {
	DeletedCount int64  `json:"deletedCount"`
	Msg          string `json:"msg"`
}

// ErrorResponse is the body of every 4xx/5xx reply.
type ErrorResponse struct {
	Msg string `json:"msg"`
}
