// Package verify normalizes channel membership checks against the
// Telegram API.
package verify

import (
	"context"
	"fmt"
	"log/slog"

	"communitybot/entity"
	"communitybot/lib/sl"
)

// Oracle is the raw membership capability, implemented by the bot layer
// over getChatMember.
type Oracle interface {
	ChatMemberStatus(ctx context.Context, chatId, userId int64) (string, error)
}

// Service answers "does this user belong to the configured channel".
// A transport failure surfaces as entity.ErrOracleUnavailable so callers
// can distinguish "confirmed absent" from "could not confirm".
type Service struct {
	oracle    Oracle
	channelId int64
	log       *slog.Logger
}

func New(oracle Oracle, channelId int64, log *slog.Logger) *Service {
	return &Service{
		oracle:    oracle,
		channelId: channelId,
		log:       log.With(sl.Module("verify")),
	}
}

// Check queries the channel membership of a user. The returned status is
// meaningful only when err is nil.
func (s *Service) Check(ctx context.Context, userId int64) (entity.MembershipStatus, error) {
	raw, err := s.oracle.ChatMemberStatus(ctx, s.channelId, userId)
	if err != nil {
		s.log.Warn("membership query failed",
			slog.Int64("user_id", userId),
			sl.Err(err),
		)
		return entity.StatusUnknown, fmt.Errorf("%w: %v", entity.ErrOracleUnavailable, err)
	}

	status := entity.ParseMembershipStatus(raw)
	s.log.With(
		slog.Int64("user_id", userId),
		slog.String("status", status.String()),
	).Debug("membership checked")
	return status, nil
}
