// Package worker sends booking emails queued by the API server.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/brightpath-tutoring/backend/pkg/queue"
)

// Message is one outgoing email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NotificationProcessor turns booking notification jobs into emails.
type NotificationProcessor struct {
	sender      Sender
	adminNotify string
	logger      *zap.Logger
}

// NewNotificationProcessor creates a processor. adminNotify, when set, receives a copy of every email.
func NewNotificationProcessor(sender Sender, adminNotify string, logger *zap.Logger) *NotificationProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationProcessor{sender: sender, adminNotify: adminNotify, logger: logger}
}

// Process executes one notification job.
func (p *NotificationProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeBookingNotification {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.BookingNotification
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	msg, err := Render(payload)
	if err != nil {
		return err
	}
	if err := p.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send to parent: %w", err)
	}
	// A retry after this point resends the parent email too.
	if p.adminNotify != "" {
		copyMsg := msg
		copyMsg.To = p.adminNotify
		copyMsg.Subject = "[copy] " + msg.Subject
		if err := p.sender.Send(ctx, copyMsg); err != nil {
			return fmt.Errorf("send admin copy: %w", err)
		}
	}
	p.logger.Info("notification sent",
		zap.String("job_id", job.ID),
		zap.String("email_type", payload.EmailType),
		zap.String("booking_id", payload.BookingID.String()),
	)
	return nil
}

// Render builds the parent email for a notification.
func Render(n queue.BookingNotification) (Message, error) {
	if n.RecipientEmail == "" {
		return Message{}, fmt.Errorf("notification %s has no recipient", n.BookingID)
	}
	var subject string
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", n.RecipientName)
	switch n.EmailType {
	case queue.EmailBookingCreated:
		subject = "Booking received"
		fmt.Fprintf(&b, "Thank you for booking a place for %s", n.ChildName)
		if n.BlockTitle != "" {
			fmt.Fprintf(&b, " on %s", n.BlockTitle)
		}
		fmt.Fprintf(&b, ".\nThe total due is %s.\n", n.Total)
	case queue.EmailPaymentReceived:
		subject = "Payment received"
		fmt.Fprintf(&b, "We have received your payment. You have paid %s of %s.\n", n.AmountPaid, n.Total)
	case queue.EmailBookingCancelled:
		subject = "Booking cancelled"
		fmt.Fprintf(&b, "The booking for %s has been cancelled.\n", n.ChildName)
	default:
		return Message{}, fmt.Errorf("unknown email type: %s", n.EmailType)
	}
	fmt.Fprintf(&b, "\nBooking reference: %s\n", n.BookingID)
	return Message{To: n.RecipientEmail, Subject: subject, Body: b.String()}, nil
}
