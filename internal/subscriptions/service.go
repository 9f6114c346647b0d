package subscriptions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"podscribe/internal/domain"
	"podscribe/internal/fuzzy"
)

// ErrNotFound reports a subscription name with no registered feed.
var ErrNotFound = errors.New("subscription not found")

// Service manages the named feeds the user has registered.
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Add registers a feed under a name, replacing the feed URL if the name
// already exists.
func (s *Service) Add(ctx context.Context, name, feedURL string) error {
	name = strings.TrimSpace(name)
	feedURL = strings.TrimSpace(feedURL)
	if name == "" {
		return fmt.Errorf("subscription name cannot be empty")
	}
	if feedURL == "" {
		return fmt.Errorf("feed url cannot be empty")
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO subscriptions (name, feed_url, enabled)
VALUES (?, ?, 1)
ON CONFLICT(name) DO UPDATE SET feed_url = excluded.feed_url, enabled = 1`, name, feedURL)
	if err != nil {
		return fmt.Errorf("save subscription %s: %w", name, err)
	}
	return nil
}

// Get looks up one subscription by name.
func (s *Service) Get(ctx context.Context, name string) (domain.Subscription, error) {
	var sub domain.Subscription
	var enabled int
	var lastChecked sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, feed_url, enabled, last_checked FROM subscriptions WHERE name = ?",
		name).Scan(&sub.ID, &sub.Name, &sub.FeedURL, &enabled, &lastChecked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Subscription{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return domain.Subscription{}, err
	}
	sub.Enabled = enabled != 0
	if lastChecked.Valid {
		if parsed, err := time.Parse(time.RFC3339Nano, lastChecked.String); err == nil {
			sub.LastChecked = &parsed
		}
	}
	return sub, nil
}

// Resolve looks up a subscription by exact name first, falling back to
// the closest fuzzy match so small typos still find the feed.
func (s *Service) Resolve(ctx context.Context, name string) (domain.Subscription, error) {
	sub, err := s.Get(ctx, name)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return domain.Subscription{}, err
	}

	subs, err := s.List(ctx)
	if err != nil {
		return domain.Subscription{}, err
	}
	names := make([]string, 0, len(subs))
	for _, candidate := range subs {
		names = append(names, candidate.Name)
	}
	match, ok := fuzzy.BestMatch(names, name)
	if !ok {
		return domain.Subscription{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return s.Get(ctx, match)
}

// List returns all subscriptions ordered by name.
func (s *Service) List(ctx context.Context) ([]domain.Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, feed_url, enabled, last_checked FROM subscriptions ORDER BY LOWER(name)")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := make([]domain.Subscription, 0, 8)
	for rows.Next() {
		var sub domain.Subscription
		var enabled int
		var lastChecked sql.NullString
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.FeedURL, &enabled, &lastChecked); err != nil {
			return nil, err
		}
		sub.Enabled = enabled != 0
		if lastChecked.Valid {
			if parsed, err := time.Parse(time.RFC3339Nano, lastChecked.String); err == nil {
				sub.LastChecked = &parsed
			}
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return subs, nil
}

// TouchChecked records that the subscription's feed was just processed.
func (s *Service) TouchChecked(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE subscriptions SET last_checked = ? WHERE name = ?",
		time.Now().UTC().Format(time.RFC3339Nano), name)
	return err
}
