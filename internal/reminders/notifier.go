package reminders

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"appointment-app-server/internal/models"
)

// Notifier delivers a reminder notification to a client. Implementations own
// formatting and transport; the scheduling engine needs only this single
// capability.
type Notifier interface {
	Send(ctx context.Context, client *models.Client, appointment *models.Appointment) error
}

// EmailNotifier composes and sends reminder emails over a plain SMTP relay.
// With no relay address configured, the message is logged instead so
// development setups work without a mail server.
type EmailNotifier struct {
	addr string
	from string
	log  *zap.Logger
}

// NewEmailNotifier creates an EmailNotifier. addr is the host:port of the
// SMTP relay and may be empty to disable real delivery.
func NewEmailNotifier(addr, from string, log *zap.Logger) *EmailNotifier {
	return &EmailNotifier{addr: addr, from: from, log: log}
}

// Send delivers the reminder email. Transport failures are returned as-is so
// the dispatcher's retry policy can treat them as transient.
func (n *EmailNotifier) Send(_ context.Context, client *models.Client, appointment *models.Appointment) error {
	subject := "Appointment Reminder: " + appointment.Title
	body := composeReminderBody(client, appointment)

	if n.addr == "" {
		n.log.Info("smtp relay not configured, logging reminder instead",
			zap.String("to", client.Email),
			zap.String("subject", subject))
		return nil
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.from)
	fmt.Fprintf(&msg, "To: %s\r\n", client.Email)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(n.addr, nil, n.from, []string{client.Email}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send reminder mail: %w", err)
	}
	return nil
}

// composeReminderBody renders the plain-text reminder with the appointment
// time shown in the appointment's timezone.
func composeReminderBody(client *models.Client, appointment *models.Appointment) string {
	loc, err := time.LoadLocation(appointment.Timezone)
	if err != nil {
		loc = time.UTC
	}
	localTime := appointment.StartTime.In(loc)

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s!\n\n", client.Name)
	b.WriteString("This is a friendly reminder about your upcoming appointment.\n\n")
	fmt.Fprintf(&b, "Title: %s\n", appointment.Title)
	fmt.Fprintf(&b, "Date: %s\n", localTime.Format("Monday, January 2, 2006"))
	fmt.Fprintf(&b, "Time: %s\n", localTime.Format("3:04 PM MST"))
	if appointment.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", appointment.Description)
	}
	b.WriteString("\nWe look forward to seeing you!\n")
	b.WriteString("If you need to reschedule or cancel, please contact us as soon as possible.\n")
	return b.String()
}
