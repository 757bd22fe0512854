// Package referral attributes group-invitation credit to an inviter
// exactly once per distinct invitee.
package referral

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"communitybot/lib/sl"
)

// Store is the subset of state store operations the tracker needs.
type Store interface {
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)
	GetInt64(ctx context.Context, key string) (int64, error)
}

// Tracker grants invite credit. The attribution record per invitee is
// write-once: replaying the same deep link, or a second inviter claiming
// the same invitee, never credits anyone again.
type Tracker struct {
	store Store
	log   *slog.Logger
}

func New(store Store, log *slog.Logger) *Tracker {
	return &Tracker{
		store: store,
		log:   log.With(sl.Module("referral")),
	}
}

func keyAttributed(inviteeId int64) string {
	return fmt.Sprintf("referral:attributed:%d", inviteeId)
}

func keyInvites(inviterId int64) string {
	return fmt.Sprintf("invites:%d", inviterId)
}

// Attribute credits inviterId for bringing in inviteeId and reports
// whether credit was granted. Self-referrals are refused silently.
func (t *Tracker) Attribute(ctx context.Context, inviterId, inviteeId int64) (bool, error) {
	if inviterId == inviteeId || inviterId <= 0 {
		return false, nil
	}

	won, err := t.store.SetIfAbsent(ctx, keyAttributed(inviteeId), strconv.FormatInt(inviterId, 10), 0)
	if err != nil {
		return false, err
	}
	if !won {
		return false, nil
	}

	total, err := t.store.IncrBy(ctx, keyInvites(inviterId), 1)
	if err != nil {
		return false, err
	}

	t.log.With(
		slog.Int64("inviter_id", inviterId),
		slog.Int64("invitee_id", inviteeId),
		slog.Int64("total", total),
	).Debug("referral attributed")

	return true, nil
}

// Invites reads an inviter's attributed invite count.
func (t *Tracker) Invites(ctx context.Context, inviterId int64) (int64, error) {
	return t.store.GetInt64(ctx, keyInvites(inviterId))
}
