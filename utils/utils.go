package utils

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	rndm "math/rand"
	"net/http"
	"os"
	"strconv"
	"time"
)

var idLetters = []rune("abcdefghijklmnopqrstuvwxyz0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ")

// GenerateID returns an opaque identifier of n characters. Collisions are
// backstopped by unique indexes on the id fields.
func GenerateID(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = idLetters[rndm.Intn(len(idLetters))]
	}
	return string(b)
}

const ticketNumberCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewTicketNumber issues a ticket number of the form
// TICKET-<unix-ms>-<9 random chars>. Assigned once at purchase and never
// regenerated; the tickets collection carries a unique index on it.
func NewTicketNumber() string {
	suffix := make([]byte, 9)
	if _, err := rand.Read(suffix); err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// fall back to the weaker generator rather than refuse the sale.
		for i := range suffix {
			suffix[i] = ticketNumberCharset[rndm.Intn(len(ticketNumberCharset))]
		}
	} else {
		for i, b := range suffix {
			suffix[i] = ticketNumberCharset[int(b)%len(ticketNumberCharset)]
		}
	}
	return fmt.Sprintf("TICKET-%d-%s", time.Now().UnixMilli(), suffix)
}

// IsProduction reports whether diagnostic detail should be suppressed in
// error responses.
func IsProduction() bool {
	return os.Getenv("APP_ENV") == "production"
}

// SendJSONResponse writes any payload as JSON with the given status.
func SendJSONResponse(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// SendError writes the uniform error body: always a human-readable message,
// plus the underlying error detail outside production.
func SendError(w http.ResponseWriter, status int, message string, err error) {
	body := map[string]any{"message": message}
	if err != nil && !IsProduction() {
		body["error"] = err.Error()
	}
	SendJSONResponse(w, status, body)
}

// ParsePagination reads page/limit query parameters, defaulting to the
// first page of ten.
func ParsePagination(r *http.Request) (skip int64, limit int64, page int) {
	query := r.URL.Query()

	page, err := strconv.Atoi(query.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	l, err := strconv.Atoi(query.Get("limit"))
	if err != nil || l < 1 || l > 100 {
		l = 10
	}
	return int64((page - 1) * l), int64(l), page
}
