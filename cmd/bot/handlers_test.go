package main

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanProducts(t *testing.T) {
	assert.Equal(t, []string{"iPhone16", "PixelFold"}, cleanProducts([]string{" iPhone16 ", "", "PixelFold", "  "}))
	assert.Nil(t, cleanProducts(nil))
	assert.Nil(t, cleanProducts([]string{"", "  "}))
}

func TestQueryInt(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want int
	}{
		{"valid value", "/comments?limit=25", 25},
		{"missing value", "/comments", 100},
		{"non-numeric", "/comments?limit=lots", 100},
		{"zero rejected", "/comments?limit=0", 100},
		{"negative rejected", "/comments?limit=-5", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			assert.Equal(t, tt.want, queryInt(r, "limit", 100))
		})
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, 400, "bad input")

	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"bad input"}`, w.Body.String())
}
