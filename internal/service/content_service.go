package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"warroom-server/internal/domain"
	"warroom-server/internal/repository"
)

// ErrEmptyTitle rejects posts published without a title.
var ErrEmptyTitle = errors.New("post title is required")

// ContentService owns the post feed and the live market table. Posts are
// an append-only log displayed newest-first; the live table is a
// read-only passthrough refreshed by the caller on its own schedule.
type ContentService interface {
	Publish(ctx context.Context, title, content string, imageURLs []string) error
	ListPosts(ctx context.Context) []domain.Post
	ListPostPreviews(ctx context.Context) []domain.PostPreview
	LiveTable(ctx context.Context) domain.LiveTable
}

type contentService struct {
	posts repository.PostRepository
	live  repository.LiveRepository
	now   func() time.Time
}

func NewContentService(posts repository.PostRepository, live repository.LiveRepository) ContentService {
	return &contentService{
		posts: posts,
		live:  live,
		now:   time.Now,
	}
}

// Publish appends a post stamped with the current UTC+8 time at minute
// precision. Image URLs arrive pre-resolved; this service never uploads.
func (s *contentService) Publish(ctx context.Context, title, content string, imageURLs []string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}

	post := domain.Post{
		Date:    s.now().In(domain.TaipeiZone).Format(domain.PostDateLayout),
		Title:   title,
		Content: content,
		Images:  imageURLs,
	}
	if err := s.posts.Append(ctx, post); err != nil {
		return fmt.Errorf("publish post: %w", err)
	}
	return nil
}

// ListPosts returns the feed in reverse insertion order, most recent
// first. Ordering follows row position, not timestamp parsing.
func (s *contentService) ListPosts(ctx context.Context) []domain.Post {
	posts := s.posts.All(ctx)
	out := make([]domain.Post, len(posts))
	for i, p := range posts {
		out[len(posts)-1-i] = p
	}
	return out
}

// ListPostPreviews returns the locked teaser list shown to members
// without an active subscription: date and title only, newest first.
func (s *contentService) ListPostPreviews(ctx context.Context) []domain.PostPreview {
	posts := s.posts.All(ctx)
	out := make([]domain.PostPreview, len(posts))
	for i, p := range posts {
		out[len(posts)-1-i] = domain.PostPreview{Date: p.Date, Title: p.Title}
	}
	return out
}

func (s *contentService) LiveTable(ctx context.Context) domain.LiveTable {
	return s.live.Table(ctx)
}
