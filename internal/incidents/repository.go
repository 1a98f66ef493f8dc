package incidents

import (
	"context"

	"github.com/opspulse/incident-desk/internal/domain"
)

// Repository defines the storage primitives for the incident collection.
// The collection is persisted as a single ordered sequence; every mutation
// is a whole-collection read-modify-write.
//
// Precondition: at most one mutating transaction (GetAll followed by Append
// or ReplaceAll) is in flight at a time. The Service serializes its own
// mutations; deployments with multiple writers need a backing store that
// enforces single-writer semantics per key.
type Repository interface {
	// GetAll returns the full incident collection in insertion order.
	GetAll(ctx context.Context) ([]domain.Incident, error)

	// FindByID returns the incident with the given id, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*domain.Incident, error)

	// Append adds an incident to the end of the collection.
	Append(ctx context.Context, incident domain.Incident) error

	// ReplaceAll persists the given sequence as the new collection.
	ReplaceAll(ctx context.Context, incidents []domain.Incident) error
}
