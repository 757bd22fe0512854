package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

func eventContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), handlerTimeout)
}

// isPlainText matches non-command text messages (the reply keyboard sends
// its labels back as plain text).
func isPlainText(msg *tgbotapi.Message) bool {
	return msg.Text != "" && !strings.HasPrefix(msg.Text, "/")
}

// isNewMembers matches service messages announcing new group members.
func isNewMembers(msg *tgbotapi.Message) bool {
	return len(msg.NewChatMembers) > 0
}

func (t *TgBot) start(_ *tgbotapi.Bot, ctx *ext.Context) error {
	cctx, cancel := eventContext()
	defer cancel()

	userId := ctx.EffectiveUser.Id
	username := ctx.EffectiveUser.Username

	// Deep links arrive as "/start <payload>".
	payload := ""
	args := strings.Fields(ctx.EffectiveMessage.Text)
	if len(args) > 1 {
		payload = args[1]
	}

	return t.core.HandleStart(cctx, userId, username, payload)
}

func (t *TgBot) verify(_ *tgbotapi.Bot, ctx *ext.Context) error {
	cctx, cancel := eventContext()
	defer cancel()

	return t.core.HandleVerify(cctx, ctx.EffectiveUser.Id)
}

func (t *TgBot) help(_ *tgbotapi.Bot, ctx *ext.Context) error {
	cctx, cancel := eventContext()
	defer cancel()

	help := "Commands:\n" +
		"/start - show the menu\n" +
		"/verify - unlock posting after joining the channel\n" +
		"/help - show this help\n\n" +
		"Menu buttons: Check in (+daily points), Invite friends, How to use, Download, Buy."
	return t.SendMessage(cctx, ctx.EffectiveChat.Id, help)
}

func (t *TgBot) onText(_ *tgbotapi.Bot, ctx *ext.Context) error {
	cctx, cancel := eventContext()
	defer cancel()

	return t.core.HandleText(cctx,
		ctx.EffectiveUser.Id,
		ctx.EffectiveChat.Id,
		strings.TrimSpace(ctx.EffectiveMessage.Text),
	)
}
