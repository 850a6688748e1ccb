package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Service resolves the displayName→userID directory. A present,
// unexpired cache record is authoritative; an expired or missing
// record triggers a fresh users.list fetch and a cache rewrite.
type Service struct {
	store  Store
	lister Lister
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates the directory service. ttl is the lifetime of a
// freshly written cache record.
func NewService(log *slog.Logger, store Store, lister Lister, ttl time.Duration) *Service {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		store:  store,
		lister: lister,
		ttl:    ttl,
		now:    time.Now,
		logger: log.With(slog.String("service", "directory")),
	}
}

// Resolve returns the directory mapping. A cache read failure is
// treated as a miss, so the call only fails when the fresh fetch fails
// too.
func (s *Service) Resolve(ctx context.Context) (map[string]string, error) {
	rec, found, err := s.store.Get(ctx)
	if err != nil {
		s.logger.Warn("cache read failed", slog.Any("error", err))
	} else if found {
		if rec.ExpiresAt > s.now().Unix() {
			var dir map[string]string
			if err := json.Unmarshal([]byte(rec.Response), &dir); err == nil {
				s.logger.Debug("cache available", slog.Int("entries", len(dir)))
				return dir, nil
			}
			s.logger.Warn("cache record undecodable, refreshing", slog.Any("error", err))
		} else {
			s.logger.Info("cache record expired", slog.Int64("expired_at", rec.ExpiresAt))
		}
	} else {
		s.logger.Info("cache unavailable")
	}

	return s.Refresh(ctx)
}

// Refresh fetches members from Slack, rewrites the cache record with a
// new expiry, and returns the freshly built mapping. A cache write
// failure is logged but does not discard the fetched directory.
func (s *Service) Refresh(ctx context.Context) (map[string]string, error) {
	members, err := s.lister.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	dir := FromMembers(members)
	encoded, err := json.Marshal(dir)
	if err != nil {
		return nil, fmt.Errorf("encode directory: %w", err)
	}

	rec := Record{
		ExpiresAt: s.now().Add(s.ttl).Unix(),
		Response:  string(encoded),
	}
	if err := s.store.Put(ctx, rec); err != nil {
		s.logger.Warn("cache write failed", slog.Any("error", err))
	}

	s.logger.Info("directory refreshed", slog.Int("entries", len(dir)), slog.Int64("expired_at", rec.ExpiresAt))
	return dir, nil
}
