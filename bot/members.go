package bot

import (
	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

// onNewMembers feeds every joined member to the gate. Bots are skipped;
// restricting another bot is pointless and the verify flow cannot reach
// them anyway.
func (t *TgBot) onNewMembers(_ *tgbotapi.Bot, ctx *ext.Context) error {
	cctx, cancel := eventContext()
	defer cancel()

	chatId := ctx.EffectiveChat.Id
	for _, member := range ctx.EffectiveMessage.NewChatMembers {
		if member.IsBot {
			continue
		}
		if err := t.core.HandleGroupJoin(cctx, chatId, member.Id, member.Username); err != nil {
			return err
		}
	}
	return nil
}
