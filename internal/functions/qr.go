package functions

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/campusevents/campus-events/internal/ticketing"
	"github.com/skip2/go-qrcode"
)

// EncodeQR renders code as a base64 PNG.
func EncodeQR(code string) (string, error) {
	png, err := qrcode.Encode(code, qrcode.Medium, 290)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}

// GenerateTicketQR handles POST /generate_ticket_qr
func (s *Server) GenerateTicketQR(w http.ResponseWriter, r *http.Request) {
	if !authorized(r, ticketing.HeaderQRSecret, s.cfg.QRSecret) {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	var req ticketing.QRRequest
	decodeJSON(r, &req)
	code := strings.TrimSpace(req.TicketCode)
	if code == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "ticket_code is required")
		return
	}

	pngB64, err := EncodeQR(code)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", "failed to encode QR code")
		return
	}

	writeJSON(w, http.StatusOK, ticketing.QRResponse{
		TicketCode: code,
		PNGBase64:  pngB64,
		DataURL:    "data:image/png;base64," + pngB64,
	})
}
