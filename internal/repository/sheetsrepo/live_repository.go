package sheetsrepo

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"warroom-server/internal/cache"
	"warroom-server/internal/domain"
	"warroom-server/internal/repository"
	"warroom-server/internal/sheets"
)

const liveKey = "live"

// LiveRepository reads the fast-changing market sheet. It lives in a
// separate spreadsheet written by an external bot; the first worksheet
// holds a header row followed by data rows. The short TTL here is what
// keeps the remote call rate inside quota when many viewers poll.
type LiveRepository struct {
	opener bookOpener
	book   string
	ttl    time.Duration
	cache  *cache.Store[domain.LiveTable]
	log    *logrus.Logger
	now    func() time.Time
}

func NewLiveRepository(client *sheets.Client, book string, ttl time.Duration, log *logrus.Logger) repository.LiveRepository {
	return &LiveRepository{
		opener: clientOpener{client: client},
		book:   book,
		ttl:    ttl,
		cache:  cache.NewStore[domain.LiveTable](),
		log:    log,
		now:    time.Now,
	}
}

func (r *LiveRepository) Table(ctx context.Context) domain.LiveTable {
	table, err := r.cache.GetOrFetch(liveKey, r.ttl, func() (domain.LiveTable, error) {
		return r.fetch(ctx)
	})
	if err != nil {
		r.log.WithError(err).Warn("live read failed, serving empty table")
		return domain.LiveTable{}
	}
	return table
}

func (r *LiveRepository) fetch(ctx context.Context) (domain.LiveTable, error) {
	book, err := r.opener.OpenBook(ctx, r.book)
	if err != nil {
		return domain.LiveTable{}, err
	}
	sheet, err := book.FirstSheet(ctx)
	if err != nil {
		return domain.LiveTable{}, err
	}
	rows, err := book.Rows(ctx, sheet)
	if err != nil {
		return domain.LiveTable{}, err
	}
	// Header only (or nothing) means the bot has not produced data yet.
	if len(rows) <= 1 {
		return domain.LiveTable{}, nil
	}
	return domain.LiveTable{
		Headers:   rows[0],
		Rows:      rows[1:],
		FetchedAt: r.now().In(domain.TaipeiZone).Format(domain.ClockLayout),
	}, nil
}
