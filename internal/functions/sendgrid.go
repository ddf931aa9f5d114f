package functions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/campusevents/campus-events/internal/ticketing"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendGridMailPath = "/v3/mail/send"

// Mail is one ticket email with the QR code attached inline.
type Mail struct {
	To          string
	Subject     string
	HTML        string
	QRPNGBase64 string
}

// Mailer sends a Mail and reports the provider's status code and body.
type Mailer interface {
	Send(ctx context.Context, m Mail) (status int, body string, err error)
}

type SendGrid struct {
	apiKey  string
	from    string
	host    string
	timeout time.Duration
}

func NewSendGrid(apiKey, from, baseURL string) *SendGrid {
	return &SendGrid{
		apiKey:  apiKey,
		from:    from,
		host:    strings.TrimRight(baseURL, "/"),
		timeout: 10 * time.Second,
	}
}

func (s *SendGrid) message(m Mail) *mail.SGMailV3 {
	msg := mail.NewV3Mail()
	msg.SetFrom(mail.NewEmail("", s.from))
	msg.Subject = m.Subject

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", m.To))
	msg.AddPersonalizations(p)

	msg.AddContent(
		mail.NewContent("text/plain", "Your ticket is attached (QR code)."),
		mail.NewContent("text/html", m.HTML),
	)

	qr := mail.NewAttachment()
	qr.SetContent(m.QRPNGBase64)
	qr.SetType("image/png")
	qr.SetFilename("ticket-qr.png")
	qr.SetDisposition("attachment")
	qr.SetContentID(ticketing.InlineQRContentID)
	msg.AddAttachment(qr)

	return msg
}

func (s *SendGrid) Send(ctx context.Context, m Mail) (int, string, error) {
	req := sendgrid.GetRequest(s.apiKey, sendGridMailPath, s.host)
	req.Method = "POST"
	req.Body = mail.GetRequestBody(s.message(m))

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return 0, "", fmt.Errorf("sendgrid request: %w", err)
	}
	return resp.StatusCode, resp.Body, nil
}
