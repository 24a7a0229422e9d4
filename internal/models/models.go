package models

import (
	"time"
)

// AnonymousAuthor is used when a comment is submitted without an author.
const AnonymousAuthor = "Anon"

// Post is a top-level entry carrying its own comment tree.
type Post struct {
	ID        string    `json:"id"`
	CreatedAt int64     `json:"ts"` // milliseconds since epoch
	Title     string    `json:"title"`
	Body      string    `json:"message"`
	Comments  []Comment `json:"comments"`
}

// Comment is a node in a post's comment tree. A reply is a Comment whose
// parent is another Comment.
type Comment struct {
	ID        string    `json:"id"`
	CreatedAt int64     `json:"ts"`
	Author    string    `json:"author"`
	Body      string    `json:"message"`
	Replies   []Comment `json:"replies"`
}

// Document is a single serialized post collection stored under a key.
// SQL backends keep one row per key.
type Document struct {
	Key       string    `gorm:"primarykey;size:191" json:"key"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of the post.
func (p Post) Clone() Post {
	p.Comments = cloneComments(p.Comments)
	return p
}

// Clone returns a deep copy of the comment and its replies.
func (c Comment) Clone() Comment {
	c.Replies = cloneComments(c.Replies)
	return c
}

func cloneComments(src []Comment) []Comment {
	out := make([]Comment, len(src))
	for i := range src {
		out[i] = src[i].Clone()
	}
	return out
}

// Normalize replaces absent comment and reply lists with empty ones so
// every node in the tree can be handled the same way.
func (p *Post) Normalize() {
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
	for i := range p.Comments {
		p.Comments[i].Normalize()
	}
}

func (c *Comment) Normalize() {
	if c.Author == "" {
		c.Author = AnonymousAuthor
	}
	if c.Replies == nil {
		c.Replies = []Comment{}
	}
	for i := range c.Replies {
		c.Replies[i].Normalize()
	}
}
