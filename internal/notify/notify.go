// Package notify delivers "task is due" messages. Delivery is best effort:
// a missing capability is a silent no-op.
package notify

import (
	"context"
	"errors"
	"log/slog"
)

// DefaultIcon is referenced when no icon is configured.
const DefaultIcon = "icon-192.png"

type Message struct {
	Title string
	Body  string
	Icon  string
}

type Notifier interface {
	Notify(ctx context.Context, m Message) error
}

// DueMessage is the reminder sent when a task becomes overdue.
func DueMessage(taskTitle, icon string) Message {
	if icon == "" {
		icon = DefaultIcon
	}
	return Message{Title: "Reminder", Body: "Time to do: " + taskTitle, Icon: icon}
}

// Nop drops every message.
type Nop struct{}

func (Nop) Notify(context.Context, Message) error { return nil }

// Log writes messages to a structured logger.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Notify(ctx context.Context, m Message) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "notification", "title", m.Title, "body", m.Body)
	return nil
}

// Multi fans a message out to every notifier and joins their errors.
type Multi []Notifier

func (mm Multi) Notify(ctx context.Context, m Message) error {
	var errs []error
	for _, n := range mm {
		if err := n.Notify(ctx, m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
