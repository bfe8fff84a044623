package sheetsrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"warroom-server/internal/cache"
	"warroom-server/internal/domain"
	"warroom-server/internal/repository"
	"warroom-server/internal/sheets"
)

// Column layout of the users worksheet: username, password, expiry.
const expiryColumn = 3

type UserRepository struct {
	opener bookOpener
	book   string
	sheet  string
	ttl    time.Duration
	cache  *cache.Store[[]domain.User]
	log    *logrus.Logger
}

func NewUserRepository(client *sheets.Client, book, sheet string, ttl time.Duration, log *logrus.Logger) repository.UserRepository {
	return &UserRepository{
		opener: clientOpener{client: client},
		book:   book,
		sheet:  sheet,
		ttl:    ttl,
		cache:  cache.NewStore[[]domain.User](),
		log:    log,
	}
}

// All returns the membership table through the slow-TTL cache. Any
// transport or parse failure is logged and degraded to an empty dataset;
// the caller renders a "no data" state instead of an error.
func (r *UserRepository) All(ctx context.Context) []domain.User {
	users, err := r.cache.GetOrFetch(r.sheet, r.ttl, func() ([]domain.User, error) {
		return r.fetch(ctx)
	})
	if err != nil {
		r.log.WithError(err).Warn("users read failed, serving empty dataset")
		return nil
	}
	return users
}

func (r *UserRepository) fetch(ctx context.Context) ([]domain.User, error) {
	book, err := r.opener.OpenBook(ctx, r.book)
	if err != nil {
		return nil, err
	}
	records, err := book.Records(ctx, r.sheet)
	if err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(records))
	for _, rec := range records {
		users = append(users, domain.User{
			Username:   rec["username"],
			Credential: rec["password"],
			Expiry:     rec["expiry"],
		})
	}
	return users, nil
}

// Append writes a new membership row and invalidates the cached dataset.
// Unlike the read path this propagates the transport error: registration
// surfaces it to the end user.
func (r *UserRepository) Append(ctx context.Context, user domain.User) error {
	book, err := r.opener.OpenBook(ctx, r.book)
	if err != nil {
		return fmt.Errorf("open membership book: %w", err)
	}
	if err := book.Append(ctx, r.sheet, []string{user.Username, user.Credential, user.Expiry}); err != nil {
		return fmt.Errorf("append user row: %w", err)
	}
	r.cache.Invalidate(r.sheet)
	return nil
}

// ExpiryRow locates a user's row by username and reads its stored expiry
// straight from the sheet, bypassing the cache: extensions must see the
// current remote value, not a snapshot.
func (r *UserRepository) ExpiryRow(ctx context.Context, username string) (int, string, error) {
	book, err := r.opener.OpenBook(ctx, r.book)
	if err != nil {
		return 0, "", fmt.Errorf("open membership book: %w", err)
	}
	row, err := book.FindRow(ctx, r.sheet, username)
	if err != nil {
		if errors.Is(err, sheets.ErrNotFound) {
			return 0, "", repository.ErrNotFound
		}
		return 0, "", err
	}
	expiry, err := book.Cell(ctx, r.sheet, row, expiryColumn)
	if err != nil {
		return 0, "", err
	}
	return row, expiry, nil
}

func (r *UserRepository) SetExpiry(ctx context.Context, row int, expiry string) error {
	book, err := r.opener.OpenBook(ctx, r.book)
	if err != nil {
		return fmt.Errorf("open membership book: %w", err)
	}
	if err := book.UpdateCell(ctx, r.sheet, row, expiryColumn, expiry); err != nil {
		return err
	}
	r.cache.Invalidate(r.sheet)
	return nil
}
