// internal/notify/notifier.go

// Package notify delivers screening decisions to applicants and reviewers.
// Notification is a side effect of the calling layer; the engine core only
// produces structured data.
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	commonaws "screening-engine/internal/common/aws"
	"screening-engine/internal/common/config"
	"screening-engine/internal/common/errors"
	"screening-engine/internal/common/logger"
	"screening-engine/internal/models"
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// DecisionNotifier emails the applicant their outcome and pages the review
// team by SMS when the classification band is flagged as priority.
type DecisionNotifier struct {
	cfg    config.NotificationConfig
	ses    SESService
	sns    SNSService
	logger logger.Logger
}

// New creates a notifier backed by AWS SES and SNS.
func New(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (*DecisionNotifier, error) {
	sesClient, err := commonaws.NewSESClient(ctx, cfg.AWS.Region)
	if err != nil {
		return nil, fmt.Errorf("init SES client: %w", err)
	}
	snsClient, err := commonaws.NewSNSClient(ctx, cfg.AWS.Region)
	if err != nil {
		return nil, fmt.Errorf("init SNS client: %w", err)
	}
	return NewWithClients(cfg, sesClient, snsClient, log), nil
}

// NewWithClients creates a notifier with injected service clients.
func NewWithClients(cfg config.NotificationConfig, sesClient SESService, snsClient SNSService, log logger.Logger) *DecisionNotifier {
	return &DecisionNotifier{
		cfg:    cfg,
		ses:    sesClient,
		sns:    snsClient,
		logger: log.WithFields(map[string]interface{}{"component": "decision-notifier"}),
	}
}

// NotifyDecision sends the outcome of a terminal application state.
// Non-terminal states are ignored.
func (n *DecisionNotifier) NotifyDecision(ctx context.Context, state models.ApplicationState, contact models.Contact) error {
	if !state.Status.IsTerminal() {
		return nil
	}

	subject, body := n.renderDecision(state)

	if n.cfg.Email.Enabled && contact.Email != "" {
		if err := n.sendEmail(ctx, contact.Email, subject, body); err != nil {
			n.logger.Error("decision email failed", map[string]interface{}{
				"applicationId": state.ID,
				"error":         err,
			})
			return errors.NewNotificationFailedError(err)
		}
	}

	if n.cfg.SMS.Enabled && n.isPriorityBand(state.Classification) {
		message := fmt.Sprintf("Priority applicant %s classified %s (total %d)",
			state.ID, state.Classification, derefOrZero(state.TotalScore))
		if err := n.sendSMS(ctx, n.cfg.SMS.ReviewerPhone, message); err != nil {
			n.logger.Error("reviewer SMS failed", map[string]interface{}{
				"applicationId": state.ID,
				"error":         err,
			})
			return errors.NewNotificationFailedError(err)
		}
	}

	n.logger.Info("decision notified", map[string]interface{}{
		"applicationId":  state.ID,
		"status":         state.Status,
		"classification": state.Classification,
	})

	return nil
}

func (n *DecisionNotifier) renderDecision(state models.ApplicationState) (subject, body string) {
	if state.Status == models.StatusDisqualified {
		subject = "Your application result"
		body = fmt.Sprintf(
			"Thank you for applying. Unfortunately your application %s did not meet the qualification threshold and will not move forward.",
			state.ID)
		return subject, body
	}

	subject = fmt.Sprintf("Your application result: %s", state.Classification)
	body = fmt.Sprintf(
		"Thank you for completing all stages. Your application %s has been classified as %q with a total score of %d (including %d bonus points).",
		state.ID, state.Classification, derefOrZero(state.TotalScore), derefOrZero(state.Bonus))
	return subject, body
}

func (n *DecisionNotifier) isPriorityBand(band string) bool {
	for _, p := range n.cfg.SMS.PriorityBands {
		if p == band {
			return true
		}
	}
	return false
}

func (n *DecisionNotifier) sendEmail(ctx context.Context, to, subject, body string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(n.cfg.Email.FromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
	}
	_, err := n.ses.SendEmail(ctx, input)
	return err
}

func (n *DecisionNotifier) sendSMS(ctx context.Context, phone, message string) error {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(phone),
		Message:     aws.String(message),
	}
	_, err := n.sns.Publish(ctx, input)
	return err
}

func derefOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
