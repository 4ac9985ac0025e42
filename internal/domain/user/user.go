// Package user defines the account entity used for ownership scoping.
// Authentication mechanics beyond token issuance are deliberately thin; the
// system's correctness concern is that every user-partitioned read and write
// filters by the owner ID carried here.
package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is one account.  PasswordHash is a bcrypt digest.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}

// Repository looks accounts up for login and token validation.
type Repository interface {
	// FindByUsername returns (nil, nil) when absent.
	FindByUsername(ctx context.Context, username string) (*User, error)
	// FindByID returns (nil, nil) when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
}
