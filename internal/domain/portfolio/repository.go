package portfolio

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists portfolio membership.  Every method is scoped to one
// owner; entries of other users are invisible and unmodifiable.  Mutations
// that touch weights run in a single transaction so no concurrent reader
// observes a portfolio whose weights do not sum to 100.
type Repository interface {
	// List returns the owner's entries (completed assessments only),
	// newest first.
	List(ctx context.Context, ownerID uuid.UUID) ([]*EntryView, error)

	// Add inserts entries for the given assessment IDs, silently skipping
	// IDs already present, then applies equal redistribution over the
	// resulting set.  Atomic.
	Add(ctx context.Context, ownerID uuid.UUID, assessmentIDs []int64) error

	// Remove deletes one entry then applies equal redistribution over the
	// remainder.  Atomic.  Not-found when the entry is absent or foreign.
	Remove(ctx context.Context, ownerID uuid.UUID, entryID int64) error

	// UpdateWeights applies an explicit weight per entry.  Callers validate
	// the sum beforehand; the repository applies all updates atomically or
	// none.
	UpdateWeights(ctx context.Context, ownerID uuid.UUID, updates []WeightUpdate) error

	// HasEntry reports whether the owner already holds the assessment.
	HasEntry(ctx context.Context, ownerID uuid.UUID, assessmentID int64) (bool, error)
}
