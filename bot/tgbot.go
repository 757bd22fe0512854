// Package bot is the Telegram transport. It parses updates into typed
// calls on the core and implements the outbound actions the core needs
// (messages, restrictions, membership queries).
//
//   - tgbot.go   — TgBot struct, lifecycle (Start/Stop), Core interface
//   - commands.go — /start, /verify, /help and the reply keyboard vocabulary
//   - members.go  — new_chat_members updates → core.HandleGroupJoin
//   - actions.go  — action sink: SendMessage, SendKeyboard, SetRestriction,
//     ChatMemberStatus
//   - menus.go    — bot command menu via SetMyCommands
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"

	"communitybot/lib/sl"
)

// handlerTimeout bounds every update handler, including any membership
// query in flight. Hitting it resolves to a transient-failure reply.
const handlerTimeout = 10 * time.Second

// Core defines the event dispatch operations the bot depends on.
// Implemented by impl/core.
type Core interface {
	HandleStart(ctx context.Context, userId int64, username, payload string) error
	HandleText(ctx context.Context, userId, chatId int64, text string) error
	HandleGroupJoin(ctx context.Context, groupId, userId int64, username string) error
	HandleVerify(ctx context.Context, userId int64) error
}

// TgBot is the Telegram bot instance. It holds no mutable user state:
// everything it reports or decides comes from the core on each update.
type TgBot struct {
	log     *slog.Logger
	api     *tgbotapi.Bot
	core    Core
	updater *ext.Updater
	adminId int64
}

func NewTgBot(apiKey string, adminId int64, log *slog.Logger) (*TgBot, error) {
	tgBot := &TgBot{
		log:     log.With(sl.Module("tgbot")),
		adminId: adminId,
	}

	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	tgBot.api = api

	return tgBot, nil
}

// SetCore connects the event dispatcher. Must be called before Start;
// the bot is constructed first so the admin log handler can wrap the
// logger the core receives.
func (t *TgBot) SetCore(core Core) {
	t.core = core
}

// Username returns the bot's own username, used to build invite links.
func (t *TgBot) Username() string {
	return t.api.User.Username
}

func (t *TgBot) Start() error {
	if t.core == nil {
		return fmt.Errorf("core not connected")
	}
	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			t.log.Error("handling update:", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	t.updater = ext.NewUpdater(dispatcher, nil)

	dispatcher.AddHandler(handlers.NewCommand("start", t.start))
	dispatcher.AddHandler(handlers.NewCommand("verify", t.verify))
	dispatcher.AddHandler(handlers.NewCommand("help", t.help))
	dispatcher.AddHandler(handlers.NewMessage(isNewMembers, t.onNewMembers))
	dispatcher.AddHandler(handlers.NewMessage(isPlainText, t.onText))

	t.setDefaultCommands()

	err := t.updater.StartPolling(t.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}

	t.log.Info("bot started", slog.String("username", t.Username()))
	t.updater.Idle()
	return nil
}

func (t *TgBot) Stop() {
	if t.updater != nil {
		t.log.Info("stopping telegram bot")
		_ = t.updater.Stop()
	}
}
