package course

import "context"

// Repository defines the storage contract for courses.
// Implementations live in infrastructure/persistence.
type Repository interface {
	// Add stores a new course.
	Add(ctx context.Context, c *Course) error

	// GetByID returns the course or ErrCourseNotFound.
	GetByID(ctx context.Context, id string) (*Course, error)

	// Save persists the current state of a course previously added.
	// Returns ErrCourseNotFound if the course is unknown.
	Save(ctx context.Context, c *Course) error

	// List returns all courses ordered by start date, then name.
	List(ctx context.Context) ([]*Course, error)
}
