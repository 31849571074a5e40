// Package bot is an optional Telegram front end over the same conversation
// engine the HTTP API uses. The chat id doubles as the device identity, so
// a Telegram conversation and an API conversation with the same id share
// cart, history and state.
package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	"food-chat/chat"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Bot struct {
	api    *tgbotapi.BotAPI
	engine *chat.Engine
}

func New(token string, engine *chat.Engine) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Bot{api: api, engine: engine}, nil
}

func deviceID(chatID int64) string {
	return fmt.Sprintf("tg:%d", chatID)
}

func (b *Bot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}
		msg := update.Message
		text := strings.TrimSpace(msg.Text)
		ctx := context.Background()

		var reply *chat.Reply
		var err error
		if text == "/start" {
			reply, err = b.engine.Init(ctx, deviceID(msg.Chat.ID))
		} else {
			reply, err = b.engine.HandleMessage(ctx, deviceID(msg.Chat.ID), text)
		}
		if err != nil {
			log.Printf("telegram turn chat=%d: %v", msg.Chat.ID, err)
			b.send(msg.Chat.ID, "Something went wrong. Please try again.")
			continue
		}

		out := reply.Text
		if reply.Payment != nil {
			out += fmt.Sprintf("\n\nOrder #%d awaits payment of ₦%s.",
				reply.Payment.OrderID, chat.FormatAmount(reply.Payment.Amount))
		}
		b.send(msg.Chat.ID, out)
	}
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("send error: %v", err)
	}
}
