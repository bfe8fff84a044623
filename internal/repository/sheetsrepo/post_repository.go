package sheetsrepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"warroom-server/internal/cache"
	"warroom-server/internal/domain"
	"warroom-server/internal/repository"
	"warroom-server/internal/sheets"
)

type PostRepository struct {
	opener bookOpener
	book   string
	sheet  string
	ttl    time.Duration
	cache  *cache.Store[[]domain.Post]
	log    *logrus.Logger
}

func NewPostRepository(client *sheets.Client, book, sheet string, ttl time.Duration, log *logrus.Logger) repository.PostRepository {
	return &PostRepository{
		opener: clientOpener{client: client},
		book:   book,
		sheet:  sheet,
		ttl:    ttl,
		cache:  cache.NewStore[[]domain.Post](),
		log:    log,
	}
}

// All returns posts in insertion order through the slow-TTL cache,
// degrading to empty on failure.
func (r *PostRepository) All(ctx context.Context) []domain.Post {
	posts, err := r.cache.GetOrFetch(r.sheet, r.ttl, func() ([]domain.Post, error) {
		return r.fetch(ctx)
	})
	if err != nil {
		r.log.WithError(err).Warn("posts read failed, serving empty dataset")
		return nil
	}
	return posts
}

func (r *PostRepository) fetch(ctx context.Context) ([]domain.Post, error) {
	book, err := r.opener.OpenBook(ctx, r.book)
	if err != nil {
		return nil, err
	}
	records, err := book.Records(ctx, r.sheet)
	if err != nil {
		return nil, err
	}

	posts := make([]domain.Post, 0, len(records))
	for _, rec := range records {
		posts = append(posts, domain.Post{
			Date:    rec["date"],
			Title:   rec["title"],
			Content: rec["content"],
			Images:  splitImages(rec["img"]),
		})
	}
	return posts, nil
}

func (r *PostRepository) Append(ctx context.Context, post domain.Post) error {
	book, err := r.opener.OpenBook(ctx, r.book)
	if err != nil {
		return fmt.Errorf("open membership book: %w", err)
	}
	row := []string{post.Date, post.Title, post.Content, strings.Join(post.Images, ",")}
	if err := book.Append(ctx, r.sheet, row); err != nil {
		return fmt.Errorf("append post row: %w", err)
	}
	r.cache.Invalidate(r.sheet)
	return nil
}

// splitImages unpacks the comma-joined URL cell; an empty cell means no
// images, not one empty URL.
func splitImages(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	parts := strings.Split(cell, ",")
	urls := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			urls = append(urls, p)
		}
	}
	return urls
}
