package bot

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// TelegramAPI is the part of *tgbotapi.BotAPI the bot uses.
type TelegramAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// RunTelegram long-polls updates until ctx is done. Every message is handled
// in its own goroutine; RunTelegram waits for them before returning.
func (b *Bot) RunTelegram(ctx context.Context, api TelegramAPI) error {
	if _, err := api.Request(tgbotapi.NewSetMyCommands(Commands()...)); err != nil {
		b.logger.Warn("failed to register bot commands", zap.Error(err))
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer wg.Done()
				b.serve(ctx, api, msg)
			}(update.Message)
		}
	}
}

func (b *Bot) serve(ctx context.Context, api TelegramAPI, msg *tgbotapi.Message) {
	reply := b.Handle(ctx, incomingFromMessage(msg))
	for _, c := range replyChattables(msg, reply) {
		if _, err := api.Send(c); err != nil {
			b.logger.Error("failed to send reply", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
			return
		}
	}
}

func incomingFromMessage(msg *tgbotapi.Message) Incoming {
	in := Incoming{Text: msg.Text}
	if msg.From != nil {
		in.UserID = msg.From.ID
	} else if msg.Chat != nil {
		in.UserID = msg.Chat.ID
	}
	if msg.IsCommand() {
		in.Command = msg.Command()
		in.Args = msg.CommandArguments()
		return in
	}
	if len(msg.Photo) > 0 {
		in.Text = msg.Caption
		in.PhotoFileID = msg.Photo[len(msg.Photo)-1].FileID
	} else if in.Text == "" {
		in.Text = msg.Caption
	}
	return in
}

func replyChattables(msg *tgbotapi.Message, reply Reply) []tgbotapi.Chattable {
	if reply.Text == "" {
		return nil
	}
	chatID := msg.Chat.ID
	var out []tgbotapi.Chattable
	if reply.PhotoFileID != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(reply.PhotoFileID))
		photo.Caption = reply.Text
		photo.ReplyToMessageID = msg.MessageID
		out = append(out, photo)
	} else {
		m := tgbotapi.NewMessage(chatID, reply.Text)
		m.ReplyToMessageID = msg.MessageID
		out = append(out, m)
	}
	if reply.Notice != "" {
		out = append(out, tgbotapi.NewMessage(chatID, reply.Notice))
	}
	return out
}
