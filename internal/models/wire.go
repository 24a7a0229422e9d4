package models

// CreatePostInput is the body of POST /posts.
type CreatePostInput struct {
	Title   string `json:"title" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// AddCommentInput is the body of POST /posts/:id/comments. An empty
// ParentID attaches the comment at the top level.
type AddCommentInput struct {
	Message  string `json:"message" binding:"required"`
	ParentID string `json:"parentId,omitempty"`
	Author   string `json:"author,omitempty"`
}

// DeleteResult reports how many entries a delete removed (0 or 1).
type DeleteResult struct {
	Deleted int `json:"deleted"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}
