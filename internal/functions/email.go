package functions

import (
	"log"
	"net/http"
	"strings"

	"github.com/campusevents/campus-events/internal/ticketing"
)

const defaultEmailHTML = "<p>Your ticket is attached.</p>"

type sendgridErrorBody struct {
	Error   string `json:"error"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// SendBookingEmail handles POST /send_booking_email
func (s *Server) SendBookingEmail(w http.ResponseWriter, r *http.Request) {
	if !authorized(r, ticketing.HeaderEmailSecret, s.cfg.EmailSecret) {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	var req ticketing.EmailRequest
	decodeJSON(r, &req)

	to := strings.TrimSpace(req.ToEmail)
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = ticketing.DefaultEmailSubject
	}
	html := strings.TrimSpace(req.HTML)
	if html == "" {
		html = defaultEmailHTML
	}
	qr := strings.TrimSpace(req.QRPNGBase64)

	if to == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "to_email is required")
		return
	}
	if qr == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "qr_png_base64 is required")
		return
	}
	if s.cfg.SendGridAPIKey == "" || s.mailer == nil {
		writeError(w, http.StatusInternalServerError, "server_error", "SENDGRID_API_KEY not set")
		return
	}
	if s.cfg.SendGridFromEmail == "" {
		writeError(w, http.StatusInternalServerError, "server_error", "SENDGRID_FROM_EMAIL not set")
		return
	}

	if !strings.Contains(html, "cid:"+ticketing.InlineQRContentID) {
		html += `<p><img alt="Ticket QR" src="cid:` + ticketing.InlineQRContentID + `" /></p>`
	}

	status, body, err := s.mailer.Send(r.Context(), Mail{To: to, Subject: subject, HTML: html, QRPNGBase64: qr})
	if err != nil {
		log.Printf("[Functions] sendgrid: %v", err)
		writeJSON(w, http.StatusBadGateway, sendgridErrorBody{Error: "sendgrid_error", Message: truncate(err.Error(), 300)})
		return
	}
	if status != http.StatusAccepted {
		writeJSON(w, http.StatusBadGateway, sendgridErrorBody{Error: "sendgrid_error", Status: status, Message: truncate(body, 300)})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
