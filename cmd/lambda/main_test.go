package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/JaimeStill/warden/internal/expirations"
)

func TestHandler(t *testing.T) {
	tests := []struct {
		name        string
		env         expirations.Envelope
		wantStatus  int
		wantSuccess bool
	}{
		{
			name:        "summary",
			env:         expirations.NewEnvelope(&expirations.Summary{Success: true, ExpiredCoupons: []expirations.ExpiredCoupon{}}, nil),
			wantStatus:  http.StatusOK,
			wantSuccess: true,
		},
		{
			name:       "setup failure",
			env:        expirations.NewEnvelope(nil, errors.New("startup failed: connection refused")),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newHandler(func(context.Context) expirations.Envelope { return tt.env })

			resp, err := handler(context.Background(), json.RawMessage(`{}`))
			if err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status: got %d, want %d", resp.StatusCode, tt.wantStatus)
			}

			var body struct {
				Success bool   `json:"success"`
				Details string `json:"details"`
			}
			if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
				t.Fatalf("body is not a JSON string: %v", err)
			}
			if body.Success != tt.wantSuccess {
				t.Errorf("success: got %v, want %v", body.Success, tt.wantSuccess)
			}
		})
	}
}
