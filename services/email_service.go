package services

import (
	"bytes"
	"fmt"
	"html/template"

	log "github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"rightbridge-server/config"
	"rightbridge-server/models"
)

// statusMessages maps each booking status to the sentence shown in customer
// notification emails.
var statusMessages = map[models.BookingStatus]string{
	models.BookingStatusAssigned:   "A provider has been assigned to your booking",
	models.BookingStatusInProgress: "Service is in progress",
	models.BookingStatusCompleted:  "Service has been completed",
	models.BookingStatusCancelled:  "Booking has been cancelled",
}

var statusUpdateTemplate = template.Must(template.New("statusUpdate").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #2c3e50;">Booking Update</h2>
  <p>Hi {{.CustomerName}},</p>
  <p>{{.StatusMessage}}.</p>
  <table style="width: 100%; border-collapse: collapse; margin: 16px 0;">
    <tr><td style="padding: 8px; color: #7f8c8d;">Service</td><td style="padding: 8px;">{{.ServiceTitle}}</td></tr>
    <tr><td style="padding: 8px; color: #7f8c8d;">Booking #</td><td style="padding: 8px;">{{.BookingID}}</td></tr>
    <tr><td style="padding: 8px; color: #7f8c8d;">Date</td><td style="padding: 8px;">{{.Date}}</td></tr>
    <tr><td style="padding: 8px; color: #7f8c8d;">Status</td><td style="padding: 8px;">{{.Status}}</td></tr>
    {{if .ProviderName}}<tr><td style="padding: 8px; color: #7f8c8d;">Provider</td><td style="padding: 8px;">{{.ProviderName}}</td></tr>{{end}}
  </table>
  {{if .WorkNotes}}
  <h3 style="color: #2c3e50;">Completion Notes</h3>
  <p>{{.WorkNotes}}</p>
  {{end}}
  {{if .WorkImages}}
  <h3 style="color: #2c3e50;">Work Photos</h3>
  {{range .WorkImages}}<a href="{{.}}">{{.}}</a><br>{{end}}
  {{end}}
  <p style="color: #7f8c8d; font-size: 12px;">Questions? Contact us at {{.SupportEmail}}.</p>
</div>
`))

var newBookingTemplate = template.Must(template.New("newBooking").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #2c3e50;">Booking Reminder</h2>
  <p>Hi {{.ProviderName}},</p>
  <p>You have a booking scheduled for today.</p>
  <table style="width: 100%; border-collapse: collapse; margin: 16px 0;">
    <tr><td style="padding: 8px; color: #7f8c8d;">Service</td><td style="padding: 8px;">{{.ServiceTitle}}</td></tr>
    <tr><td style="padding: 8px; color: #7f8c8d;">Booking #</td><td style="padding: 8px;">{{.BookingID}}</td></tr>
    <tr><td style="padding: 8px; color: #7f8c8d;">Customer</td><td style="padding: 8px;">{{.CustomerName}}</td></tr>
    <tr><td style="padding: 8px; color: #7f8c8d;">Address</td><td style="padding: 8px;">{{.Address}}</td></tr>
    <tr><td style="padding: 8px; color: #7f8c8d;">Date</td><td style="padding: 8px;">{{.Date}}</td></tr>
  </table>
  <p style="color: #7f8c8d; font-size: 12px;">Questions? Contact us at {{.SupportEmail}}.</p>
</div>
`))

// statusUpdateData feeds the statusUpdate template
type statusUpdateData struct {
	CustomerName  string
	StatusMessage string
	ServiceTitle  string
	BookingID     uint
	Date          string
	Status        models.BookingStatus
	ProviderName  string
	WorkNotes     string
	WorkImages    []string
	SupportEmail  string
}

// newBookingData feeds the newBooking template
type newBookingData struct {
	ProviderName string
	ServiceTitle string
	BookingID    uint
	CustomerName string
	Address      string
	Date         string
	SupportEmail string
}

// EmailService sends transactional booking emails over SMTP.
type EmailService struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailService builds an email service from the loaded config
func NewEmailService() *EmailService {
	cfg := config.AppConfig.Email
	return &EmailService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// enabled reports whether SMTP credentials are configured. Without them all
// sends are skipped with a log line, which keeps local development working.
func (s *EmailService) enabled() bool {
	return config.AppConfig.Email.Username != ""
}

func (s *EmailService) send(to, subject string, tmpl *template.Template, data interface{}) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body.String())

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// RenderStatusUpdate renders the customer-facing status notification body.
// Exposed separately from sending so the output can be verified.
func RenderStatusUpdate(booking *models.Booking) (string, error) {
	data := statusUpdateData{
		CustomerName:  booking.Customer.Name,
		StatusMessage: statusMessages[booking.Status],
		ServiceTitle:  booking.Service.Title,
		BookingID:     booking.ID,
		Date:          booking.Date.Format("Mon, 02 Jan 2006"),
		Status:        booking.Status,
		SupportEmail:  config.AppConfig.Email.SupportEmail,
	}
	if booking.AssignedProvider != nil {
		data.ProviderName = booking.AssignedProvider.Name
	}
	if booking.Status == models.BookingStatusCompleted && booking.WorkCompleted.Completed {
		data.WorkNotes = booking.WorkCompleted.Notes
		data.WorkImages = booking.WorkCompleted.Images
	}

	var body bytes.Buffer
	if err := statusUpdateTemplate.Execute(&body, data); err != nil {
		return "", err
	}
	return body.String(), nil
}

// SendStatusUpdate emails the customer about a booking status change. Runs in
// a goroutine so the triggering request never waits on SMTP; failures are
// logged and dropped.
func (s *EmailService) SendStatusUpdate(booking *models.Booking) {
	if !s.enabled() {
		log.Debugf("email disabled, skipping status update for booking %d", booking.ID)
		return
	}
	if booking.Customer.Email == "" {
		log.Debugf("customer %d has no email, skipping status update", booking.CustomerID)
		return
	}

	go func() {
		subject := fmt.Sprintf("Booking #%d: %s", booking.ID, statusMessages[booking.Status])
		body, err := RenderStatusUpdate(booking)
		if err != nil {
			log.Errorf("failed to render status update for booking %d: %v", booking.ID, err)
			return
		}

		m := gomail.NewMessage()
		m.SetHeader("From", s.from)
		m.SetHeader("To", booking.Customer.Email)
		m.SetHeader("Subject", subject)
		m.SetBody("text/html", body)

		if err := s.dialer.DialAndSend(m); err != nil {
			log.Errorf("failed to send status update for booking %d: %v", booking.ID, err)
		}
	}()
}

// SendBookingReminder emails an assigned provider about a booking scheduled
// for today. Used by the daily reminder job; synchronous since the job runs
// off the request path.
func (s *EmailService) SendBookingReminder(booking *models.Booking) error {
	if !s.enabled() {
		log.Debugf("email disabled, skipping reminder for booking %d", booking.ID)
		return nil
	}
	if booking.AssignedProvider == nil || booking.AssignedProvider.Email == "" {
		return nil
	}

	data := newBookingData{
		ProviderName: booking.AssignedProvider.Name,
		ServiceTitle: booking.Service.Title,
		BookingID:    booking.ID,
		CustomerName: booking.Customer.Name,
		Address:      booking.Address,
		Date:         booking.Date.Format("Mon, 02 Jan 2006 15:04"),
		SupportEmail: config.AppConfig.Email.SupportEmail,
	}

	subject := fmt.Sprintf("Reminder: booking #%d scheduled today", booking.ID)
	return s.send(booking.AssignedProvider.Email, subject, newBookingTemplate, data)
}
