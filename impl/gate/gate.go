// Package gate mutes new members of the gated group until they prove
// membership in the configured channel.
package gate

import (
	"context"
	"fmt"
	"log/slog"

	"communitybot/entity"
	"communitybot/lib/sl"
)

// Store is the subset of state store operations the gate needs. The
// restriction record is the only persistent state: it exists exactly while
// a user is muted pending verification.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Actions are the outbound operations the gate performs, implemented by
// the bot layer.
type Actions interface {
	SendMessage(ctx context.Context, chatId int64, text string) error
	SetRestriction(ctx context.Context, groupId, userId int64, canPost bool) error
}

// Verifier answers channel membership questions. Implemented by
// impl/verify.Service.
type Verifier interface {
	Check(ctx context.Context, userId int64) (entity.MembershipStatus, error)
}

// Outcome of a verification request.
type Outcome int

const (
	// OutcomeNotNeeded means the user has no pending restriction.
	OutcomeNotNeeded Outcome = iota
	// OutcomeVerified means the restriction was lifted.
	OutcomeVerified
	// OutcomeNotMember means the user has not joined the channel yet;
	// the restriction stays in place.
	OutcomeNotMember
)

// Gate is the restriction state machine for the gated group. A user is in
// one of three states: unrestricted (no record), pending verification
// (record present, muted) and verified (record deleted, unmuted). All
// transitions go through the restriction record in the store, so multiple
// bot instances see the same state.
type Gate struct {
	store       Store
	actions     Actions
	verifier    Verifier
	groupId     int64
	channelName string
	log         *slog.Logger
}

func New(store Store, groupId int64, channelName string, log *slog.Logger) *Gate {
	return &Gate{
		store:       store,
		groupId:     groupId,
		channelName: channelName,
		log:         log.With(sl.Module("gate")),
	}
}

// SetActions connects the outbound action sink. Must be called before the
// first event is dispatched.
func (g *Gate) SetActions(actions Actions) {
	g.actions = actions
}

// SetVerifier connects the membership verifier.
func (g *Gate) SetVerifier(verifier Verifier) {
	g.verifier = verifier
}

func keyRestricted(groupId, userId int64) string {
	return fmt.Sprintf("restricted:%d:%d", groupId, userId)
}

// OnJoin handles a user joining a group. Joins of non-gated groups are
// ignored. The restriction record is written before the mute call: if the
// mute fails the record still lets /verify clean up, whereas a mute
// without a record would leave the user stuck with no way out.
func (g *Gate) OnJoin(ctx context.Context, groupId, userId int64, username string) error {
	if groupId != g.groupId || g.groupId == 0 {
		return nil
	}
	if g.actions == nil {
		return fmt.Errorf("gate: action sink not connected")
	}

	err := g.store.Set(ctx, keyRestricted(groupId, userId), fmt.Sprintf("%d", groupId))
	if err != nil {
		return err
	}
	if err := g.actions.SetRestriction(ctx, groupId, userId, false); err != nil {
		return err
	}

	g.log.With(
		slog.Int64("group_id", groupId),
		slog.Int64("user_id", userId),
	).Info("new member restricted")

	welcome := fmt.Sprintf(
		"Welcome %s! Join %s, then send me /verify in a private chat to unlock posting.",
		displayName(username, userId), g.channelName,
	)
	return g.actions.SendMessage(ctx, groupId, welcome)
}

// OnVerify handles a /verify request. Without a restriction record it
// answers OutcomeNotNeeded and never contacts the verifier. With one, the
// record is deleted and the user unmuted only on a verified membership
// status; an oracle failure propagates and leaves every state untouched.
func (g *Gate) OnVerify(ctx context.Context, userId int64) (Outcome, error) {
	key := keyRestricted(g.groupId, userId)
	_, restricted, err := g.store.Get(ctx, key)
	if err != nil {
		return OutcomeNotNeeded, err
	}
	if !restricted {
		return OutcomeNotNeeded, nil
	}

	if g.verifier == nil {
		return OutcomeNotMember, fmt.Errorf("gate: verifier not connected")
	}
	status, err := g.verifier.Check(ctx, userId)
	if err != nil {
		return OutcomeNotMember, err
	}
	if !status.IsVerified() {
		g.log.With(
			slog.Int64("user_id", userId),
			slog.String("status", status.String()),
		).Debug("verification refused")
		return OutcomeNotMember, nil
	}

	// Unmute before deleting the record: if the unmute fails the record
	// survives and the user can retry /verify. The other order can leave a
	// muted user whom the gate no longer knows about.
	if err := g.actions.SetRestriction(ctx, g.groupId, userId, true); err != nil {
		return OutcomeNotMember, err
	}
	if err := g.store.Delete(ctx, key); err != nil {
		return OutcomeNotMember, err
	}

	g.log.With(
		slog.Int64("user_id", userId),
		slog.String("status", status.String()),
	).Info("member verified and unrestricted")
	return OutcomeVerified, nil
}

// Restricted reports whether a user is currently muted pending
// verification.
func (g *Gate) Restricted(ctx context.Context, userId int64) (bool, error) {
	_, ok, err := g.store.Get(ctx, keyRestricted(g.groupId, userId))
	return ok, err
}

func displayName(username string, userId int64) string {
	if username != "" {
		return "@" + username
	}
	return fmt.Sprintf("user %d", userId)
}
