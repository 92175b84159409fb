package service

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/dripline/internal/errors"
	"github.com/unclebandit/dripline/internal/events"
	"github.com/unclebandit/dripline/internal/queue"
)

// SubscribeReplies feeds reply events from topic into the reply service.
// Malformed events are dropped; anything else that fails is redelivered.
func SubscribeReplies(ctx context.Context, q queue.Queue, topic string, s *ReplyService) error {
	return q.Subscribe(ctx, topic, func(ctx context.Context, body []byte) error {
		var ev events.Reply
		if err := json.Unmarshal(body, &ev); err != nil {
			s.logger().Warn("invalid reply event", zap.Error(err))
			return nil
		}
		if _, err := s.HandleReply(ctx, ev); err != nil {
			return dropPermanent(s.logger(), "reply", err)
		}
		return nil
	})
}

// SubscribeStageChanges feeds stage-change events into the enrollment service.
func SubscribeStageChanges(ctx context.Context, q queue.Queue, topic string, s *EnrollmentService) error {
	return q.Subscribe(ctx, topic, func(ctx context.Context, body []byte) error {
		var ev events.StageChange
		if err := json.Unmarshal(body, &ev); err != nil {
			s.logger().Warn("invalid stage change event", zap.Error(err))
			return nil
		}
		if _, err := s.HandleStageChange(ctx, ev); err != nil {
			return dropPermanent(s.logger(), "stage_change", err)
		}
		return nil
	})
}

// dropPermanent swallows errors a retry cannot fix.
func dropPermanent(log *zap.Logger, kind string, err error) error {
	var ve *appErrors.ValidationError
	if errors.Is(err, appErrors.ErrNotFound) || errors.As(err, &ve) {
		log.Warn("dropping event", zap.String("kind", kind), zap.Error(err))
		return nil
	}
	log.Warn("event failed, will retry", zap.String("kind", kind), zap.Error(err))
	return err
}
