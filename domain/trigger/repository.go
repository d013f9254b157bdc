package trigger

import "context"

// Repository defines the interface for trigger persistence operations.
type Repository interface {
	// FindAll retrieves all triggers.
	FindAll(ctx context.Context) ([]*Trigger, error)

	// FindByName retrieves a trigger by its unique name.
	// Returns nil if not found.
	FindByName(ctx context.Context, name string) (*Trigger, error)

	// Save inserts the trigger or replaces the one with the same name.
	Save(ctx context.Context, t *Trigger) error

	// Delete removes a trigger by name.
	Delete(ctx context.Context, name string) error
}
