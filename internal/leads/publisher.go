package leads

import (
	"context"

	"github.com/unclebandit/dripline/internal/queue"
)

type Publisher struct {
	q     queue.Queue
	topic string
}

func NewPublisher(q queue.Queue, topic string) *Publisher {
	return &Publisher{q: q, topic: topic}
}

func (p *Publisher) Publish(ctx context.Context, req Request) error {
	return p.q.Publish(ctx, p.topic, req)
}
