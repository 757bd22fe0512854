// Package core dispatches incoming chat events to the check-in ledger,
// the referral tracker and the membership gate, and issues all outbound
// actions through the connected sink.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"communitybot/entity"
	"communitybot/impl/checkin"
	"communitybot/impl/gate"
	"communitybot/impl/referral"
	"communitybot/lib/sl"
)

// Store is the full state store contract the core services share.
// Implemented by internal/store.RedisStore and internal/store.Memory.
type Store interface {
	checkin.Store
	referral.Store
	gate.Store
}

// ActionSink issues outbound chat actions. Implemented by the bot layer.
type ActionSink interface {
	SendMessage(ctx context.Context, chatId int64, text string) error
	SendKeyboard(ctx context.Context, chatId int64, text string, buttons [][]string) error
	SetRestriction(ctx context.Context, groupId, userId int64, canPost bool) error
}

// Registry stores user profiles. Optional; a nil registry disables
// registration and token lookups but never affects the counters.
type Registry interface {
	RegisterUser(user *entity.User) error
	GetUserByToken(token string) (*entity.User, error)
}

// GroupConfig identifies the gated group and the membership channel.
// Read-only at runtime.
type GroupConfig struct {
	GatedGroupId int64
	ChannelId    int64
	ChannelName  string
	BotUsername  string
}

type Core struct {
	cfg      GroupConfig
	store    Store
	registry Registry
	checkin  *checkin.Ledger
	referral *referral.Tracker
	gate     *gate.Gate
	sink     ActionSink
	auth     AuthService
	loc      *time.Location
	points   int64
	log      *slog.Logger
}

func New(store Store, registry Registry, cfg GroupConfig, loc *time.Location, points int64, log *slog.Logger) *Core {
	if store == nil {
		panic("state store is nil")
	}
	if points <= 0 {
		points = 20
	}
	return &Core{
		cfg:      cfg,
		store:    store,
		registry: registry,
		checkin:  checkin.New(store, loc, points, log),
		referral: referral.New(store, log),
		gate:     gate.New(store, cfg.GatedGroupId, cfg.ChannelName, log),
		loc:      loc,
		points:   points,
		log:      log.With(sl.Module("core")),
	}
}

// SetActions connects the outbound action sink. Must be called before the
// first event is dispatched.
func (c *Core) SetActions(sink ActionSink) {
	c.sink = sink
	c.gate.SetActions(sink)
}

// SetVerifier connects the channel membership verifier.
func (c *Core) SetVerifier(verifier gate.Verifier) {
	c.gate.SetVerifier(verifier)
}

// AuthService resolves API tokens. Implemented by impl/auth.
type AuthService interface {
	UserByToken(token string) (*entity.User, error)
}

// SetAuthService connects token authentication for the HTTP API.
func (c *Core) SetAuthService(auth AuthService) {
	c.auth = auth
}

// AuthenticateByToken is used by the HTTP API middleware.
func (c *Core) AuthenticateByToken(token string) (*entity.User, error) {
	if c.auth == nil {
		return nil, fmt.Errorf("auth service not connected")
	}
	return c.auth.UserByToken(token)
}

// Menu vocabulary. The reply keyboard sends these labels back as plain
// message text.
const (
	MenuCheckin  = "Check in"
	MenuInvite   = "Invite friends"
	MenuUsage    = "How to use"
	MenuDownload = "Download"
	MenuBuy      = "Buy"
)

// MenuButtons is the reply keyboard layout sent with /start.
func MenuButtons() [][]string {
	return [][]string{
		{MenuCheckin, MenuDownload},
		{MenuUsage, MenuInvite},
		{MenuBuy},
	}
}

const (
	msgRetryLater  = "Something went wrong, please try again later."
	msgUnknown     = "Unknown command, send /start for the menu."
	msgUsage       = "How to use: /start shows the menu, Check in gives +20 points daily, Invite friends shows your invite link, Buy contacts the admins."
	msgDownload    = "Downloads are not available yet, check back soon!"
	msgBuy         = "To buy, contact the group admins."
	msgVerifyOk    = "Verified! You can post freely now."
	msgNoVerify    = "No verification needed."
	msgVerifyRetry = "Could not check your membership right now, please retry /verify in a moment."
)

func msgJoinFirst(channel string) string {
	return fmt.Sprintf("Please join %s first, then send /verify again.", channel)
}

// HandleStart processes /start. The optional payload carries the inviter
// id from a deep link; anything unparseable means no attribution and is
// never an error. The welcome reply always goes out, even when the store
// is down, so a broken referral path cannot hide the menu.
func (c *Core) HandleStart(ctx context.Context, userId int64, username, payload string) error {
	c.register(userId, username)

	if payload != "" {
		inviterId, err := strconv.ParseInt(payload, 10, 64)
		if err != nil {
			c.log.Debug("ignoring malformed start payload",
				slog.Int64("user_id", userId),
				slog.String("payload", payload),
			)
		} else {
			credited, err := c.referral.Attribute(ctx, inviterId, userId)
			if err != nil {
				c.log.Warn("referral attribution failed", sl.Err(err))
			} else if credited {
				c.notifyInviter(ctx, inviterId)
			}
		}
	}

	return c.sink.SendKeyboard(ctx, userId, "Welcome! Pick an option:", MenuButtons())
}

func (c *Core) notifyInviter(ctx context.Context, inviterId int64) {
	total, err := c.referral.Invites(ctx, inviterId)
	if err != nil {
		return
	}
	text := fmt.Sprintf("A friend joined through your link! Invites so far: %d", total)
	if err := c.sink.SendMessage(ctx, inviterId, text); err != nil {
		c.log.Debug("inviter notification failed", sl.Err(err))
	}
}

// HandleText processes reply keyboard selections and free text.
func (c *Core) HandleText(ctx context.Context, userId, chatId int64, text string) error {
	switch text {
	case MenuCheckin:
		return c.handleCheckin(ctx, userId, chatId)
	case MenuInvite:
		link := fmt.Sprintf("https://t.me/%s?start=%d", c.cfg.BotUsername, userId)
		return c.sink.SendMessage(ctx, chatId,
			fmt.Sprintf("Your invite link: %s\nShare it with friends to earn points!", link))
	case MenuUsage:
		return c.sink.SendMessage(ctx, chatId, msgUsage)
	case MenuDownload:
		return c.sink.SendMessage(ctx, chatId, msgDownload)
	case MenuBuy:
		return c.sink.SendMessage(ctx, chatId, msgBuy)
	}
	return c.sink.SendMessage(ctx, chatId, msgUnknown)
}

func (c *Core) handleCheckin(ctx context.Context, userId, chatId int64) error {
	result, err := c.checkin.Checkin(ctx, userId, time.Now())
	if err != nil {
		c.log.Error("check-in failed", slog.Int64("user_id", userId), sl.Err(err))
		return c.sink.SendMessage(ctx, chatId, msgRetryLater)
	}

	if !result.Credited {
		return c.sink.SendMessage(ctx, chatId,
			fmt.Sprintf("Already checked in today! Your points: %d", result.Points))
	}
	return c.sink.SendMessage(ctx, chatId,
		fmt.Sprintf("+%d points! Your points: %d. Check-ins today: %d", c.points, result.Points, result.DailyCount))
}

// HandleGroupJoin processes a new member joining a group.
func (c *Core) HandleGroupJoin(ctx context.Context, groupId, userId int64, username string) error {
	err := c.gate.OnJoin(ctx, groupId, userId, username)
	if err != nil {
		c.log.Error("gating new member failed",
			slog.Int64("group_id", groupId),
			slog.Int64("user_id", userId),
			sl.Err(err),
		)
	}
	return err
}

// HandleVerify processes a /verify request and replies according to the
// gate outcome. Transient failures answer with a retry message and leave
// the restriction state untouched.
func (c *Core) HandleVerify(ctx context.Context, userId int64) error {
	outcome, err := c.gate.OnVerify(ctx, userId)
	if err != nil {
		if errors.Is(err, entity.ErrOracleUnavailable) || errors.Is(err, entity.ErrStoreUnavailable) {
			return c.sink.SendMessage(ctx, userId, msgVerifyRetry)
		}
		c.log.Error("verify failed", slog.Int64("user_id", userId), sl.Err(err))
		return c.sink.SendMessage(ctx, userId, msgRetryLater)
	}

	switch outcome {
	case OutcomeVerified:
		return c.sink.SendMessage(ctx, userId, msgVerifyOk)
	case OutcomeNotMember:
		return c.sink.SendMessage(ctx, userId, msgJoinFirst(c.cfg.ChannelName))
	}
	return c.sink.SendMessage(ctx, userId, msgNoVerify)
}

// Outcome aliases so transport code does not import impl/gate directly.
const (
	OutcomeNotNeeded = gate.OutcomeNotNeeded
	OutcomeVerified  = gate.OutcomeVerified
	OutcomeNotMember = gate.OutcomeNotMember
)

func (c *Core) register(userId int64, username string) {
	if c.registry == nil {
		return
	}
	user := &entity.User{
		TelegramId:       userId,
		TelegramUsername: username,
		RegisteredAt:     time.Now().UTC(),
	}
	if err := c.registry.RegisterUser(user); err != nil {
		c.log.Warn("registering user", slog.Int64("user_id", userId), sl.Err(err))
	}
}

// DailyCheckins serves the HTTP stats endpoint. Day format: 2006-01-02.
func (c *Core) DailyCheckins(ctx context.Context, day string) (int64, error) {
	if _, err := time.ParseInLocation("2006-01-02", day, c.loc); err != nil {
		return 0, fmt.Errorf("invalid day %q: %w", day, err)
	}
	return c.checkin.DailyCount(ctx, day)
}

// UserStats assembles the counter snapshot for one user.
func (c *Core) UserStats(ctx context.Context, userId int64) (*entity.UserStats, error) {
	points, err := c.checkin.Points(ctx, userId)
	if err != nil {
		return nil, err
	}
	invites, err := c.referral.Invites(ctx, userId)
	if err != nil {
		return nil, err
	}
	restricted, err := c.gate.Restricted(ctx, userId)
	if err != nil {
		return nil, err
	}
	return &entity.UserStats{
		TelegramId: userId,
		Points:     points,
		Invites:    invites,
		Restricted: restricted,
	}, nil
}
