package recorder

import "github.com/mockforge/mockforge/internal/id"

// NewULID generates a time-sortable, collision-free exchange id.
func NewULID() string {
	return id.ULID()
}
