package repository

import (
	"context"

	"github.com/utafrali/ghstore/internal/domain"
)

// CartRepository defines the interface for cart persistence operations.
type CartRepository interface {
	// Get retrieves a cart by its user ID. A missing cart is ErrNotFound.
	Get(ctx context.Context, userID string) (*domain.Cart, error)

	// SaveIfVersion persists cart only if the stored version still equals
	// expectedVersion (0 meaning no stored cart). On success cart.Version is
	// incremented. It reports false when another writer got there first.
	SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int) (bool, error)
}

// AddressRepository defines the interface for address persistence operations.
type AddressRepository interface {
	// Create inserts a new address into the store.
	Create(ctx context.Context, address *domain.Address) error

	// GetByID retrieves an address by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Address, error)

	// ListByUserID returns all addresses for the given user, default first.
	ListByUserID(ctx context.Context, userID string) ([]domain.Address, error)

	// Update modifies an existing address in the store.
	Update(ctx context.Context, address *domain.Address) error

	// Delete removes an address owned by userID.
	Delete(ctx context.Context, userID, id string) error

	// SetDefault marks the specified address as the default for the user,
	// unsetting any previous default.
	SetDefault(ctx context.Context, userID, addressID string) error
}
