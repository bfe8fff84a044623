package repository

import (
	"context"

	"warroom-server/internal/domain"
)

// PostRepository defines persistence operations for the append-only post
// log. All returns posts in sheet (insertion) order and degrades to empty
// on read failure.
type PostRepository interface {
	All(ctx context.Context) []domain.Post
	Append(ctx context.Context, post domain.Post) error
}

// LiveRepository reads the live market sheet. The table is consumed
// read-only; failures degrade to an empty table.
type LiveRepository interface {
	Table(ctx context.Context) domain.LiveTable
}
