package repository

import (
	"context"
	"errors"

	"warroom-server/internal/domain"
)

// ErrNotFound is returned by lookups for usernames absent from the table.
var ErrNotFound = errors.New("not found")

// UserRepository defines persistence operations for membership rows.
//
// All never fails: read errors degrade to an empty dataset by policy, so
// callers can distinguish only "dataset empty or unavailable" from data.
// Append propagates the underlying transport error because registration
// is the one write path that surfaces it to the end user.
type UserRepository interface {
	All(ctx context.Context) []domain.User
	Append(ctx context.Context, user domain.User) error
	// ExpiryRow locates a user's row and returns its stored expiry.
	ExpiryRow(ctx context.Context, username string) (row int, expiry string, err error)
	SetExpiry(ctx context.Context, row int, expiry string) error
}
