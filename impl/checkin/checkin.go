// Package checkin credits a user with a fixed point amount at most once
// per calendar day.
package checkin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"communitybot/lib/clock"
	"communitybot/lib/sl"
)

// Store is the subset of state store operations the ledger needs.
// Implemented by internal/store.
type Store interface {
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)
	GetInt64(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// markerTTL keeps per-day markers from accumulating forever. The key
// already contains the date, so correctness never depends on the TTL.
const markerTTL = 24 * time.Hour

// Result reports the outcome of a check-in attempt.
type Result struct {
	Credited   bool
	Points     int64
	DailyCount int64
}

// Ledger hands out daily check-in credit. The per-day marker key is the
// single source of truth for "already checked in today": two concurrent
// attempts race on one atomic set-if-absent, and only the winner mutates
// any counter. There is no stored last-checkin date to read and compare.
type Ledger struct {
	store  Store
	loc    *time.Location
	points int64
	log    *slog.Logger
}

func New(store Store, loc *time.Location, points int64, log *slog.Logger) *Ledger {
	if points <= 0 {
		points = 20
	}
	return &Ledger{
		store:  store,
		loc:    loc,
		points: points,
		log:    log.With(sl.Module("checkin")),
	}
}

func keyMarker(userId int64, day string) string {
	return fmt.Sprintf("checkin:%d:%s", userId, day)
}

func keyPoints(userId int64) string {
	return fmt.Sprintf("points:%d", userId)
}

func keyDayCount(day string) string {
	return fmt.Sprintf("checkin:count:%s", day)
}

// Checkin attempts to credit the user for the calendar day of now.
// Exactly one call per (user, day) observes Credited=true regardless of
// concurrency; all others read the current totals without mutating them.
func (l *Ledger) Checkin(ctx context.Context, userId int64, now time.Time) (Result, error) {
	day := clock.Day(now, l.loc)

	won, err := l.store.SetIfAbsent(ctx, keyMarker(userId, day), "1", markerTTL)
	if err != nil {
		return Result{}, err
	}

	if !won {
		points, err := l.store.GetInt64(ctx, keyPoints(userId))
		if err != nil {
			return Result{}, err
		}
		count, err := l.store.GetInt64(ctx, keyDayCount(day))
		if err != nil {
			return Result{}, err
		}
		return Result{Credited: false, Points: points, DailyCount: count}, nil
	}

	points, err := l.store.IncrBy(ctx, keyPoints(userId), l.points)
	if err != nil {
		return Result{}, err
	}
	count, err := l.store.IncrBy(ctx, keyDayCount(day), 1)
	if err != nil {
		return Result{}, err
	}
	// Daily counter housekeeping only; the key stays correct without it.
	_ = l.store.Expire(ctx, keyDayCount(day), 48*time.Hour)

	l.log.With(
		slog.Int64("user_id", userId),
		slog.String("day", day),
		slog.Int64("points", points),
		slog.Int64("day_count", count),
	).Debug("check-in credited")

	return Result{Credited: true, Points: points, DailyCount: count}, nil
}

// Points reads a user's current point balance without mutating anything.
func (l *Ledger) Points(ctx context.Context, userId int64) (int64, error) {
	return l.store.GetInt64(ctx, keyPoints(userId))
}

// DailyCount reads the number of distinct users who checked in on a day.
func (l *Ledger) DailyCount(ctx context.Context, day string) (int64, error) {
	return l.store.GetInt64(ctx, keyDayCount(day))
}
