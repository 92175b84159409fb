// Package condition decides whether a sequence step should go out to a
// given contact or be skipped.
package condition

import (
	"context"
	"fmt"
	"strings"

	"github.com/unclebandit/dripline/internal/model"
)

// PipelineLookup resolves where a contact currently sits in a pipeline.
// ok is false when the contact has no record in that pipeline.
type PipelineLookup interface {
	StageOf(ctx context.Context, contactID, pipelineID int) (stageID int, ok bool, err error)
}

type Evaluator struct {
	Pipelines PipelineLookup
}

func NewEvaluator(pipelines PipelineLookup) *Evaluator {
	return &Evaluator{Pipelines: pipelines}
}

// ShouldSend reports whether every condition on the step passes. Only
// lookup failures are returned as errors; a false result means skip.
func (e *Evaluator) ShouldSend(ctx context.Context, spec model.ConditionSpec, contact *model.Contact, status string) (bool, error) {
	if spec.StopIfReplied && status == model.ParticipantReplied {
		return false, nil
	}
	for _, rule := range spec.Rules {
		if !MatchRule(rule, contact) {
			return false, nil
		}
	}
	if spec.InStages != nil {
		in, err := e.inStages(ctx, contact.ID, spec.InStages)
		if err != nil {
			return false, err
		}
		if !in {
			return false, nil
		}
	}
	if spec.NotInStages != nil {
		in, err := e.inStages(ctx, contact.ID, spec.NotInStages)
		if err != nil {
			return false, err
		}
		if in {
			return false, nil
		}
	}
	return true, nil
}

// No stage record counts as "not in any listed stage".
func (e *Evaluator) inStages(ctx context.Context, contactID int, c *model.StageConstraint) (bool, error) {
	if e.Pipelines == nil {
		return false, nil
	}
	stage, ok, err := e.Pipelines.StageOf(ctx, contactID, c.PipelineID)
	if err != nil {
		return false, fmt.Errorf("resolve stage for contact %d in pipeline %d: %w", contactID, c.PipelineID, err)
	}
	if !ok {
		return false, nil
	}
	for _, id := range c.StageIDs {
		if id == stage {
			return true, nil
		}
	}
	return false, nil
}

// MatchRule applies a single contact-field rule. Both sides are trimmed and
// lowercased. Unknown operators pass.
func MatchRule(rule model.FieldRule, contact *model.Contact) bool {
	field := normalize(contact.Field(rule.Field))
	target := normalize(rule.Value)
	switch strings.ToLower(strings.TrimSpace(rule.Operator)) {
	case model.OpEquals:
		return field == target
	case model.OpNotEquals:
		return field != target
	case model.OpContains:
		return target == "" || strings.Contains(field, target)
	case model.OpEmpty:
		return field == ""
	case model.OpNotEmpty:
		return field != ""
	}
	return true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
