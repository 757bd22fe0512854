package bot

import (
	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

// Commands shown in Telegram's menu button (the "/" icon in the chat
// input). Pushed once on startup.
var botCommands = []tgbotapi.BotCommand{
	{Command: "start", Description: "Show the menu"},
	{Command: "verify", Description: "Unlock posting after joining the channel"},
	{Command: "help", Description: "Show available commands"},
}

func (t *TgBot) setDefaultCommands() {
	_, err := t.api.SetMyCommands(botCommands, &tgbotapi.SetMyCommandsOpts{
		Scope: tgbotapi.BotCommandScopeDefault{},
	})
	if err != nil {
		t.log.Warn("setting default commands", "error", err)
	}
}
