// Package tree implements id-addressed operations over a post's comment
// forest. All functions are pure: they touch only the slices passed in.
package tree

import "github.com/sujalbistaa/threadline/internal/models"

// Root is the parent id that addresses a post's top-level comment list.
const Root = ""

// Find searches the forest depth-first and returns the first comment whose
// id matches. The returned pointer aliases the forest.
func Find(forest []models.Comment, id string) (*models.Comment, bool) {
	for i := range forest {
		if forest[i].ID == id {
			return &forest[i], true
		}
		if found, ok := Find(forest[i].Replies, id); ok {
			return found, true
		}
	}
	return nil, false
}

// InsertUnder appends node to the replies of the comment with parentID, or
// to the forest itself when parentID is Root. It reports whether a parent
// was found; when it was not, node is dropped.
func InsertUnder(forest *[]models.Comment, parentID string, node models.Comment) bool {
	if parentID == Root {
		*forest = append(*forest, node)
		return true
	}
	parent, ok := Find(*forest, parentID)
	if !ok {
		return false
	}
	parent.Replies = append(parent.Replies, node)
	return true
}

// Delete removes the comment with id, together with its replies, from
// whichever list holds it. It reports whether anything was removed.
func Delete(forest *[]models.Comment, id string) bool {
	list := *forest
	for i := range list {
		if list[i].ID == id {
			*forest = append(list[:i:i], list[i+1:]...)
			return true
		}
		if Delete(&list[i].Replies, id) {
			return true
		}
	}
	return false
}

// Count returns the number of comments in the forest at any depth.
func Count(forest []models.Comment) int {
	n := len(forest)
	for i := range forest {
		n += Count(forest[i].Replies)
	}
	return n
}

// Walk visits every comment depth-first in insertion order. depth is 0 for
// top-level comments.
func Walk(forest []models.Comment, fn func(c models.Comment, depth int)) {
	walk(forest, 0, fn)
}

func walk(forest []models.Comment, depth int, fn func(models.Comment, int)) {
	for _, c := range forest {
		fn(c, depth)
		walk(c.Replies, depth+1, fn)
	}
}
