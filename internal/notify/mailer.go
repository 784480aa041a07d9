package notify

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/crmforge/meeting-scheduler/internal/timezone"
)

// BookingEmail carries everything the confirmation message needs.
type BookingEmail struct {
	ToName  string
	ToEmail string

	MeetingTitle  string
	OrganizerName string
	Start         time.Time
	End           time.Time
	Timezone      string
	MeetingURL    string
}

type Mailer struct{}

func NewMailer() *Mailer {
	return &Mailer{}
}

// SendBookingConfirmation sends the booker's confirmation asynchronously.
// Delivery failures are logged and never surfaced to the booking flow.
func (m *Mailer) SendBookingConfirmation(email BookingEmail) {
	subject := fmt.Sprintf("Confirmed: %s with %s", email.MeetingTitle, email.OrganizerName)
	m.sendAsync(email, subject, "confirmed")
}

func (m *Mailer) SendCancellationNotice(email BookingEmail) {
	subject := fmt.Sprintf("Cancelled: %s with %s", email.MeetingTitle, email.OrganizerName)
	m.sendAsync(email, subject, "cancelled")
}

func (m *Mailer) sendAsync(email BookingEmail, subject, status string) {
	loc := timezone.Location(email.Timezone)

	body := fmt.Sprintf(
		"Hello %s,\n\nYour meeting %q with %s is %s.\n\n"+
			"When: %s - %s (%s)\n",
		email.ToName, email.MeetingTitle, email.OrganizerName, status,
		email.Start.In(loc).Format("02 Jan 2006 15:04"),
		email.End.In(loc).Format("15:04 MST"),
		email.Timezone,
	)
	if email.MeetingURL != "" {
		body += fmt.Sprintf("Join: %s\n", email.MeetingURL)
	}

	go func() {
		if err := sendWithSendGrid(email.ToEmail, email.ToName, subject, body); err != nil {
			log.Printf("notify: failed to send %s email to %s: %v", status, email.ToEmail, err)
		}
	}()
}

func sendWithSendGrid(toEmail, toName, subject, plainText string) error {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("SENDGRID_API_KEY is not configured")
	}

	fromEmail := os.Getenv("SENDGRID_FROM_EMAIL")
	if fromEmail == "" {
		return fmt.Errorf("SENDGRID_FROM_EMAIL is not configured")
	}

	fromName := os.Getenv("SENDGRID_FROM_NAME")
	if fromName == "" {
		fromName = "Scheduling"
	}

	from := mail.NewEmail(fromName, fromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, "")

	client := sendgrid.NewSendClient(apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
}
