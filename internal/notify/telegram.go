package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tele "gopkg.in/telebot.v3"
)

type telegramSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Telegram mirrors events into a chat. Only error events are sent unless
// successes is set.
type Telegram struct {
	bot       telegramSender
	chat      tele.ChatID
	successes bool

	wg sync.WaitGroup
}

// NewTelegram creates an offline bot that only sends messages; it never polls
// for updates.
func NewTelegram(token string, chatID int64, successes bool) (*Telegram, error) {
	b, err := tele.NewBot(tele.Settings{Token: token, Offline: true})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Telegram{bot: b, chat: tele.ChatID(chatID), successes: successes}, nil
}

func (t *Telegram) Notify(_ context.Context, ev Event) {
	if ev.Event == EventSuccess && !t.successes {
		return
	}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		logResult(t.Deliver(ev))
	}()
}

func (t *Telegram) Wait() {
	t.wg.Wait()
}

func (t *Telegram) Deliver(ev Event) Result {
	res := Result{Target: "telegram", Event: ev.Event, Attempts: 1}
	if _, err := t.bot.Send(t.chat, formatTelegram(ev)); err != nil {
		res.Err = fmt.Errorf("send telegram message: %w", err)
	}
	return res
}

func formatTelegram(ev Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\ncoin: %s\ndays: %s", ev.Event, ev.Coin, ev.Days)
	if ev.DataPoints != nil {
		fmt.Fprintf(&b, "\ndata points: %d", *ev.DataPoints)
	}
	if ev.Error != "" {
		fmt.Fprintf(&b, "\nerror: %s", ev.Error)
	}
	fmt.Fprintf(&b, "\nts: %s", ev.TS)
	return b.String()
}
