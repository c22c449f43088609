package api

import (
	"net/http"
	"strconv"

	"github.com/skip2/go-qrcode"
)

const qrSize = 256

func encodeQR(content string) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Low, qrSize)
}

// handleQR handles GET /qr: a PNG QR code of the service URL
func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if len(s.qrPNG) == 0 {
		http.Error(w, "Service URL unknown", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(s.qrPNG)))
	w.Header().Set("Cache-Control", "no-store")
	w.Write(s.qrPNG)
}
