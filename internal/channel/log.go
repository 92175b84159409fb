package channel

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LogSender writes messages to the log instead of delivering them. Used in
// development and by the seeder demo.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log.Named("channel.log")}
}

func (l *LogSender) Send(ctx context.Context, msg Message) (string, error) {
	if msg.ChannelID == "" {
		return "", ErrNoDestination
	}
	id := uuid.NewString()
	l.log.Info("message delivered",
		zap.String("message_id", id),
		zap.Int("contact_id", msg.ContactID),
		zap.Int("account_id", msg.AccountID),
		zap.String("to", msg.ChannelID),
		zap.Int("length", len(msg.Content)),
	)
	return id, nil
}
