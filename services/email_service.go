package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2/log"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// EmailAttachment is a file attached to an outgoing message.
type EmailAttachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// EmailMessage is a plain-text message with optional attachments.
type EmailMessage struct {
	To          []mail.Address
	Subject     string
	TextBody    string
	Attachments []EmailAttachment
}

// EmailService delivers messages.
type EmailService interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// SendgridEmailService sends through the SendGrid v3 API.
type SendgridEmailService struct {
	key  string
	from *sgmail.Email
}

// NewSendgridEmailService creates a SendGrid sender.
func NewSendgridEmailService(apiKey, fromName, fromAddress string) *SendgridEmailService {
	return &SendgridEmailService{
		key:  apiKey,
		from: sgmail.NewEmail(fromName, fromAddress),
	}
}

func (s *SendgridEmailService) prepare(msg EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail(to.Name, to.Address))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.TextBody))

	for _, a := range msg.Attachments {
		m.AddAttachment(&sgmail.Attachment{
			Content:     base64.StdEncoding.EncodeToString(a.Content),
			Type:        a.ContentType,
			Filename:    a.Filename,
			Disposition: "attachment",
		})
	}
	return m
}

// Send posts the message to SendGrid.
func (s *SendgridEmailService) Send(_ context.Context, msg EmailMessage) error {
	req := sendgrid.GetRequest(s.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// ConsoleEmailService logs messages instead of sending them. Used in
// development and when no SendGrid key is configured.
type ConsoleEmailService struct {
	from mail.Address

	mu   sync.Mutex
	sent []EmailMessage
}

// NewConsoleEmailService creates a console sender.
func NewConsoleEmailService(fromName, fromAddress string) *ConsoleEmailService {
	return &ConsoleEmailService{from: mail.Address{Name: fromName, Address: fromAddress}}
}

// Send logs the message headers and body.
func (s *ConsoleEmailService) Send(_ context.Context, msg EmailMessage) error {
	to := make([]string, len(msg.To))
	for i, addr := range msg.To {
		to[i] = addr.String()
	}
	names := make([]string, len(msg.Attachments))
	for i, a := range msg.Attachments {
		names[i] = fmt.Sprintf("%s (%s, %d bytes)", a.Filename, a.ContentType, len(a.Content))
	}

	log.Infof("email from=%s to=%s subject=%q attachments=[%s]\n%s",
		s.from.String(), strings.Join(to, ", "), msg.Subject, strings.Join(names, ", "), msg.TextBody)

	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()
	return nil
}

// Sent returns the messages logged so far.
func (s *ConsoleEmailService) Sent() []EmailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EmailMessage, len(s.sent))
	copy(out, s.sent)
	return out
}
