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

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateUsername is returned when attempting to register an existing username.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrUserNotFound is returned by Extend for usernames absent from the table.
	ErrUserNotFound = errors.New("user not found")
	// ErrMissingFields indicates an empty username or password.
	ErrMissingFields = errors.New("username and password are required")
)

// AccountService owns the membership state machine: registration, login,
// subscription checks and extensions. Every user is in one of four
// states: unregistered, registered-expired, registered-active, or admin
// (a config-level override that never appears in the table).
type AccountService interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (domain.Identity, error)
	CheckSubscription(ctx context.Context, username string) domain.Membership
	Extend(ctx context.Context, username string, days int) error
	CountActive(ctx context.Context) int
	ListUsers(ctx context.Context) []domain.User
	IsAdmin(username string) bool
}

type accountService struct {
	users     repository.UserRepository
	verifier  CredentialVerifier
	adminUser string
	adminPass string
	now       func() time.Time
}

func NewAccountService(users repository.UserRepository, verifier CredentialVerifier, adminUser, adminPass string) AccountService {
	return &accountService{
		users:     users,
		verifier:  verifier,
		adminUser: strings.TrimSpace(adminUser),
		adminPass: adminPass,
		now:       time.Now,
	}
}

// Register appends a new membership row with expiry set to yesterday in
// UTC+8, so every account starts in the expired state until an admin
// extends it. Uniqueness is checked by scanning the (cached) table; the
// sheet has no unique constraint of its own.
func (s *accountService) Register(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return ErrMissingFields
	}

	for _, u := range s.users.All(ctx) {
		if u.Username == username {
			return ErrDuplicateUsername
		}
	}

	credential, err := s.verifier.NewCredential(password)
	if err != nil {
		return fmt.Errorf("derive credential: %w", err)
	}

	user := domain.User{
		Username:   username,
		Credential: credential,
		Expiry:     domain.FormatDate(domain.Yesterday(s.now())),
	}
	// Registration is the one write whose transport error reaches the
	// end user, so the cause stays in the message.
	if err := s.users.Append(ctx, user); err != nil {
		return fmt.Errorf("connection error: %w", err)
	}
	return nil
}

// Login authenticates a username/password pair. The configured admin
// override is compared first and bypasses the table entirely; everything
// else is a table lookup plus credential verification. Missing users and
// wrong passwords are indistinguishable to the caller.
func (s *accountService) Login(ctx context.Context, username, password string) (domain.Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.Identity{}, ErrInvalidCredentials
	}

	if s.adminUser != "" && username == s.adminUser && password == s.adminPass {
		return domain.Identity{Username: username, Admin: true}, nil
	}

	for _, u := range s.users.All(ctx) {
		if u.Username == username {
			if s.verifier.Verify(u.Credential, password) {
				return domain.Identity{Username: username}, nil
			}
			return domain.Identity{}, ErrInvalidCredentials
		}
	}
	return domain.Identity{}, ErrInvalidCredentials
}

// CheckSubscription reports whether a username currently has access.
// Admins are permanently active. For regular members the stored expiry
// is compared against today in UTC+8; the expiry day itself still counts
// as active. Failures never propagate, they come back as inactive with a
// descriptive label.
func (s *accountService) CheckSubscription(ctx context.Context, username string) domain.Membership {
	if s.IsAdmin(username) {
		return domain.Membership{Active: true, Label: domain.LabelPermanent}
	}

	users := s.users.All(ctx)
	if len(users) == 0 {
		return domain.Membership{Label: domain.LabelNoDataset}
	}

	for _, u := range users {
		if u.Username != username {
			continue
		}
		expiry, err := domain.ParseDate(u.Expiry)
		if err != nil {
			return domain.Membership{Label: domain.LabelBadDate}
		}
		today := domain.Today(s.now())
		return domain.Membership{Active: !expiry.Before(today), Label: u.Expiry}
	}
	return domain.Membership{Label: domain.LabelNoAccount}
}

// Extend moves a member's expiry forward by the given number of days.
// The new period counts from whichever is later, the stored expiry or
// today: an active account stacks the days onto its remaining time, a
// lapsed account restarts from today instead of wasting days on the
// already-expired stretch. An unparseable stored expiry defaults to
// today.
func (s *accountService) Extend(ctx context.Context, username string, days int) error {
	if days <= 0 {
		return fmt.Errorf("extension days must be positive, got %d", days)
	}
	username = strings.TrimSpace(username)

	row, stored, err := s.users.ExpiryRow(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("locate user: %w", err)
	}

	today := domain.Today(s.now())
	base := today
	if current, err := domain.ParseDate(stored); err == nil && current.After(today) {
		base = current
	}

	newExpiry := base.AddDate(0, 0, days)
	if err := s.users.SetExpiry(ctx, row, domain.FormatDate(newExpiry)); err != nil {
		return fmt.Errorf("write expiry: %w", err)
	}
	return nil
}

// CountActive counts members whose expiry parses and has not passed.
// Rows with unparseable dates are skipped, not counted and not fatal.
func (s *accountService) CountActive(ctx context.Context) int {
	today := domain.Today(s.now())
	count := 0
	for _, u := range s.users.All(ctx) {
		expiry, err := domain.ParseDate(u.Expiry)
		if err != nil {
			continue
		}
		if !expiry.Before(today) {
			count++
		}
	}
	return count
}

// ListUsers exposes the member roster for the admin panel. Credentials
// are blanked before the rows leave the service.
func (s *accountService) ListUsers(ctx context.Context) []domain.User {
	users := s.users.All(ctx)
	out := make([]domain.User, len(users))
	for i, u := range users {
		out[i] = domain.User{Username: u.Username, Expiry: u.Expiry}
	}
	return out
}

func (s *accountService) IsAdmin(username string) bool {
	return s.adminUser != "" && username == s.adminUser
}
