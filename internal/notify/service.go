package notify

import (
	"context"
	"fmt"

	"github.com/sirish76/healthcare-assistant/pkg/logging"
)

// Service sends booking confirmation emails to clients. Every send is
// best-effort: a notification failure is logged but never propagated, so a
// completed booking is never rolled back over email trouble.
type Service struct {
	email     EmailSender
	ccAddress string
	logger    *logging.Logger
}

// NewService creates a notification service. ccAddress, when set, receives a
// copy of every confirmation so the practice has a record of each booking.
func NewService(email EmailSender, ccAddress string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:     email,
		ccAddress: ccAddress,
		logger:    logger,
	}
}

// SendBookingConfirmation emails the client after a free 20-minute
// consultation is booked.
func (s *Service) SendBookingConfirmation(ctx context.Context, recipient, clientName, displayDateTime, service string) {
	if s.email == nil || recipient == "" {
		return
	}
	if clientName == "" {
		clientName = "there"
	}

	subject := fmt.Sprintf("Zumanely Consultation Confirmed - %s", displayDateTime)
	body := fmt.Sprintf(`Hi %s,

Your free 20-minute consultation with Zumanely is confirmed!

When: %s%s

You'll receive a calendar invitation shortly. If you need to reschedule,
just reply to this email.

— The Zumanely Team`, clientName, displayDateTime, formatServiceLine(service))

	html := fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2 style="color: #2563eb;">Consultation Confirmed</h2>
<p>Hi <strong>%s</strong>,</p>
<p>Your free <strong>20-minute consultation</strong> with Zumanely is confirmed!</p>
<table style="border-collapse: collapse; margin: 20px 0;">
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>When:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>
  %s
</table>
<p>You'll receive a calendar invitation shortly. If you need to reschedule, just reply to this email.</p>
<p style="color: #6b7280; font-size: 12px; margin-top: 20px;">— The Zumanely Team</p>
</div>`, clientName, displayDateTime, formatServiceRowHTML(service))

	s.send(ctx, recipient, clientName, subject, body, html)
}

// SendPaidConfirmation emails the client after a paid 1-hour session is
// booked through Stripe checkout.
func (s *Service) SendPaidConfirmation(ctx context.Context, recipient, clientName, displayDateTime, service string) {
	if s.email == nil || recipient == "" {
		return
	}
	if clientName == "" {
		clientName = "there"
	}

	subject := fmt.Sprintf("Zumanely 1-Hour Consultation Confirmed - %s", displayDateTime)
	body := fmt.Sprintf(`Hi %s,

Thank you for your payment! Your 1-hour specialist consultation with
Zumanely is confirmed.

When: %s
Session: Paid 1-hour consultation ($19.99)%s

You'll receive a calendar invitation shortly. If you need to reschedule,
just reply to this email.

— The Zumanely Team`, clientName, displayDateTime, formatServiceLine(service))

	html := fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2 style="color: #10b981;">Payment Received — Consultation Confirmed</h2>
<p>Hi <strong>%s</strong>,</p>
<p>Thank you for your payment! Your <strong>1-hour specialist consultation</strong> with Zumanely is confirmed.</p>
<table style="border-collapse: collapse; margin: 20px 0;">
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>When:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Session:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">Paid 1-hour consultation ($19.99)</td></tr>
  %s
</table>
<p>You'll receive a calendar invitation shortly. If you need to reschedule, just reply to this email.</p>
<p style="color: #6b7280; font-size: 12px; margin-top: 20px;">— The Zumanely Team</p>
</div>`, clientName, displayDateTime, formatServiceRowHTML(service))

	s.send(ctx, recipient, clientName, subject, body, html)
}

func (s *Service) send(ctx context.Context, recipient, clientName, subject, body, html string) {
	msg := EmailMessage{
		To:      recipient,
		ToName:  clientName,
		Cc:      s.ccAddress,
		Subject: subject,
		Body:    body,
		HTML:    html,
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("notify: failed to send confirmation email", "error", err, "to", recipient)
		return
	}
	s.logger.Info("notify: confirmation email sent", "to", recipient, "subject", subject)
}

func formatServiceLine(service string) string {
	if service == "" {
		return ""
	}
	return fmt.Sprintf("\nTopic: %s", service)
}

func formatServiceRowHTML(service string) string {
	if service == "" {
		return ""
	}
	return fmt.Sprintf(`<tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Topic:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>`, service)
}
