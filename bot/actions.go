package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"

	"communitybot/lib/sl"
)

// requestOpts carries the event context deadline into the Bot API call;
// gotgbot takes a timeout rather than a context.
func requestOpts(ctx context.Context) *tgbotapi.RequestOpts {
	deadline, ok := ctx.Deadline()
	if !ok {
		return nil
	}
	remaining := time.Until(deadline)
	if remaining <= 0 {
		remaining = time.Millisecond
	}
	return &tgbotapi.RequestOpts{Timeout: remaining}
}

// SendMessage delivers plain text to a chat.
func (t *TgBot) SendMessage(ctx context.Context, chatId int64, text string) error {
	if text == "" {
		t.log.With(slog.Int64("id", chatId)).Debug("empty message")
		return nil
	}
	_, err := t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{
		RequestOpts: requestOpts(ctx),
	})
	if err != nil {
		t.log.With(slog.Int64("id", chatId)).Warn("sending message", sl.Err(err))
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SendKeyboard delivers text with a persistent reply keyboard. Button rows
// come as plain labels; pressing one sends the label back as message text.
func (t *TgBot) SendKeyboard(ctx context.Context, chatId int64, text string, buttons [][]string) error {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(buttons))
	for _, row := range buttons {
		line := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			line = append(line, tgbotapi.KeyboardButton{Text: label})
		}
		rows = append(rows, line)
	}

	_, err := t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{
		ReplyMarkup: tgbotapi.ReplyKeyboardMarkup{
			Keyboard:       rows,
			ResizeKeyboard: true,
		},
		RequestOpts: requestOpts(ctx),
	})
	if err != nil {
		t.log.With(slog.Int64("id", chatId)).Warn("sending keyboard", sl.Err(err))
		return fmt.Errorf("send keyboard: %w", err)
	}
	return nil
}

// SetRestriction toggles a member's permission to post in a group.
func (t *TgBot) SetRestriction(ctx context.Context, groupId, userId int64, canPost bool) error {
	_, err := t.api.RestrictChatMember(groupId, userId, tgbotapi.ChatPermissions{
		CanSendMessages:      canPost,
		CanSendAudios:        canPost,
		CanSendDocuments:     canPost,
		CanSendPhotos:        canPost,
		CanSendVideos:        canPost,
		CanSendOtherMessages: canPost,
	}, &tgbotapi.RestrictChatMemberOpts{
		RequestOpts: requestOpts(ctx),
	})
	if err != nil {
		t.log.With(
			slog.Int64("group_id", groupId),
			slog.Int64("user_id", userId),
			slog.Bool("can_post", canPost),
		).Warn("restricting member", sl.Err(err))
		return fmt.Errorf("restrict member: %w", err)
	}
	return nil
}

// ChatMemberStatus queries the raw membership status of a user in a chat.
// The verify service maps the string to the status enum.
func (t *TgBot) ChatMemberStatus(ctx context.Context, chatId, userId int64) (string, error) {
	member, err := t.api.GetChatMember(chatId, userId, &tgbotapi.GetChatMemberOpts{
		RequestOpts: requestOpts(ctx),
	})
	if err != nil {
		return "", fmt.Errorf("get chat member: %w", err)
	}
	return member.MergeChatMember().Status, nil
}

// NotifyAdmin forwards a message to the configured admin chat, if any.
// Used by the log handler for error reporting.
func (t *TgBot) NotifyAdmin(text string) {
	if t.adminId == 0 || text == "" {
		return
	}
	_, err := t.api.SendMessage(t.adminId, text, nil)
	if err != nil {
		t.log.Warn("notifying admin", sl.Err(err))
	}
}
