package ticketing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/campusevents/campus-events/config"
)

var ErrNotConfigured = errors.New("ticket function not configured")

// UpstreamError is returned when a ticket function answers with an unexpected status.
type UpstreamError struct {
	Function string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Function, e.Status, e.Body)
}

type endpoint struct {
	url          string
	secretHeader string
	secret       string
}

func (e endpoint) configured() bool {
	return e.url != "" && e.secret != ""
}

type Client struct {
	http    *http.Client
	idToken string

	qr      endpoint
	email   endpoint
	checkin endpoint
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		http:    &http.Client{Timeout: cfg.TicketHTTPTimeout},
		idToken: cfg.FunctionsIDToken,
		qr:      endpoint{url: cfg.QRFunctionURL, secretHeader: HeaderQRSecret, secret: cfg.QRFunctionSecret},
		email:   endpoint{url: cfg.EmailFunctionURL, secretHeader: HeaderEmailSecret, secret: cfg.EmailFunctionSecret},
		checkin: endpoint{url: cfg.CheckinFunctionURL, secretHeader: HeaderCheckinSecret, secret: cfg.CheckinFunctionSecret},
	}
}

// EmailEnabled reports whether both the QR and the email function are configured.
func (c *Client) EmailEnabled() bool {
	return c.qr.configured() && c.email.configured()
}

func (c *Client) CheckinEnabled() bool {
	return c.checkin.configured()
}

// GenerateQR returns the base64 PNG for a ticket code.
func (c *Client) GenerateQR(ctx context.Context, ticketCode string) (string, error) {
	var resp QRResponse
	if err := c.post(ctx, "generate_ticket_qr", c.qr, QRRequest{TicketCode: ticketCode}, &resp); err != nil {
		return "", err
	}
	if resp.PNGBase64 == "" {
		return "", &UpstreamError{Function: "generate_ticket_qr", Status: http.StatusOK, Body: "empty png_base64"}
	}
	return resp.PNGBase64, nil
}

func (c *Client) SendEmail(ctx context.Context, req EmailRequest) error {
	return c.post(ctx, "send_booking_email", c.email, req, nil)
}

func (c *Client) ValidateCheckin(ctx context.Context, ticketCode string, eventID uint) (*CheckinResult, error) {
	var resp CheckinResult
	req := CheckinRequest{TicketCode: ticketCode, EventID: eventID}
	if err := c.post(ctx, "checkin_validate", c.checkin, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, name string, ep endpoint, body, out any) error {
	if !ep.configured() {
		return ErrNotConfigured
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(ep.secretHeader, ep.secret)
	if c.idToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.idToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", name, err)
	}

	if resp.StatusCode != http.StatusOK {
		snippet := string(raw)
		if len(snippet) > 300 {
			snippet = snippet[:300]
		}
		return &UpstreamError{Function: name, Status: resp.StatusCode, Body: snippet}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", name, err)
	}
	return nil
}
