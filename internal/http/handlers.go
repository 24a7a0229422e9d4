package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sujalbistaa/threadline/internal/logging"
	"github.com/sujalbistaa/threadline/internal/models"
	"github.com/sujalbistaa/threadline/internal/store"
	"github.com/sujalbistaa/threadline/internal/ws"
)

// Publisher receives change events after successful mutations.
type Publisher interface {
	Publish(eventType string, data interface{})
}

// --- Handlers ---
type Env struct {
	Store  *store.PostStore
	Events Publisher
	Logger *zap.Logger
}

func (e *Env) GetPosts(c *gin.Context) {
	c.JSON(http.StatusOK, e.Store.ListPosts(c.Request.Context()))
}

func (e *Env) CreatePost(c *gin.Context) {
	var input models.CreatePostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and message required"})
		return
	}

	post, err := e.Store.CreatePost(c.Request.Context(), input.Title, input.Message)
	if err != nil {
		e.respondError(c, "create post", err)
		return
	}

	e.publish(ws.EventPostCreated, post)
	c.JSON(http.StatusCreated, post)
}

func (e *Env) DeletePost(c *gin.Context) {
	id := c.Param("id")

	deleted, err := e.Store.DeletePost(c.Request.Context(), id)
	if err != nil {
		e.respondError(c, "delete post", err)
		return
	}

	if deleted > 0 {
		e.publish(ws.EventPostDeleted, gin.H{"id": id})
	}
	c.JSON(http.StatusOK, models.DeleteResult{Deleted: deleted})
}

func (e *Env) AddComment(c *gin.Context) {
	postID := c.Param("id")

	var input models.AddCommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message required"})
		return
	}

	comment, err := e.Store.AddComment(c.Request.Context(), postID, input.Message, input.ParentID, input.Author)
	if err != nil {
		e.respondError(c, "add comment", err)
		return
	}

	e.publish(ws.EventCommentAdded, gin.H{"postId": postID, "parentId": input.ParentID, "comment": comment})
	c.JSON(http.StatusCreated, comment)
}

func (e *Env) DeleteComment(c *gin.Context) {
	postID := c.Param("id")
	commentID := c.Param("commentId")

	deleted, err := e.Store.DeleteComment(c.Request.Context(), postID, commentID)
	if err != nil {
		e.respondError(c, "delete comment", err)
		return
	}

	if deleted > 0 {
		e.publish(ws.EventCommentDeleted, gin.H{"postId": postID, "id": commentID})
	}
	c.JSON(http.StatusOK, models.DeleteResult{Deleted: deleted})
}

func (e *Env) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError maps store errors onto status codes.
func (e *Env) respondError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, store.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrPostNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
	default:
		logging.OrNop(e.Logger).Error("request failed", zap.String("op", op), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + op})
	}
}

func (e *Env) publish(eventType string, data interface{}) {
	if e.Events != nil {
		e.Events.Publish(eventType, data)
	}
}
