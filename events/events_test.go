package events

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventForm(t *testing.T) {
	valid := url.Values{
		"title":       {"Jazz Night"},
		"description": {"An evening of live jazz"},
		"category":    {"music"},
		"location":    {"Blue Note"},
		"date":        {"2026-10-01T19:00:00Z"},
		"time":        {"19:00"},
		"price":       {"25.50"},
		"capacity":    {"120"},
	}

	tests := []struct {
		name    string
		mutate  func(v url.Values)
		wantMsg string
	}{
		{"valid", func(v url.Values) {}, ""},
		{"missing title", func(v url.Values) { v.Set("title", "  ") }, "Title, description, category, and location are required"},
		{"missing location", func(v url.Values) { v.Del("location") }, "Title, description, category, and location are required"},
		{"bad date", func(v url.Values) { v.Set("date", "next tuesday") }, "Invalid date format, expected RFC3339 (YYYY-MM-DDTHH:MM:SSZ)"},
		{"negative price", func(v url.Values) { v.Set("price", "-1") }, "Invalid price value"},
		{"non-numeric price", func(v url.Values) { v.Set("price", "free") }, "Invalid price value"},
		{"zero capacity", func(v url.Values) { v.Set("capacity", "0") }, "Invalid capacity value"},
		{"non-numeric capacity", func(v url.Values) { v.Set("capacity", "lots") }, "Invalid capacity value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := url.Values{}
			for k, vs := range valid {
				values[k] = append([]string(nil), vs...)
			}
			tt.mutate(values)

			req := httptest.NewRequest("POST", "/api/events", strings.NewReader(values.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			form, msg := parseEventForm(req)
			assert.Equal(t, tt.wantMsg, msg)
			if tt.wantMsg == "" {
				require.NotNil(t, form)
				assert.Equal(t, "Jazz Night", form.title)
				assert.Equal(t, 120, form.capacity)
				assert.Equal(t, 25.50, form.price)
				assert.Equal(t, "19:00", form.timeOfDay)
			} else {
				assert.Nil(t, form)
			}
		})
	}
}
