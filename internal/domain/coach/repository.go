package coach

import "context"

// Repository defines the storage contract for coaches.
// Implementations live in infrastructure/persistence.
type Repository interface {
	// Add stores a new coach.
	Add(ctx context.Context, c *Coach) error

	// GetByID returns the coach or ErrCoachNotFound.
	GetByID(ctx context.Context, id string) (*Coach, error)

	// Save persists the current state of a coach previously added.
	// Returns ErrCoachNotFound if the coach is unknown.
	Save(ctx context.Context, c *Coach) error

	// List returns all coaches ordered by name.
	List(ctx context.Context) ([]*Coach, error)
}
