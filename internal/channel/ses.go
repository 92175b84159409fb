package channel

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESSender delivers email through Amazon SES. The first line of the rendered
// content becomes the subject when it is followed by a body.
type SESSender struct {
	client         SESService
	from           string
	defaultSubject string
}

func NewSESSender(client SESService, from, defaultSubject string) *SESSender {
	return &SESSender{client: client, from: from, defaultSubject: defaultSubject}
}

func (s *SESSender) Send(ctx context.Context, msg Message) (string, error) {
	if msg.ChannelID == "" {
		return "", ErrNoDestination
	}
	subject, body := splitSubject(msg.Content, s.defaultSubject)

	out, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{msg.ChannelID},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(s.from),
	})
	if err != nil {
		return "", fmt.Errorf("ses send email: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}

func splitSubject(content, fallback string) (string, string) {
	first, rest, ok := strings.Cut(content, "\n")
	if !ok || strings.TrimSpace(rest) == "" {
		return fallback, content
	}
	return strings.TrimSpace(first), strings.TrimLeft(rest, "\r\n")
}
