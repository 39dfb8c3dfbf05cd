package formatting_test

import (
	"testing"

	"github.com/JaimeStill/warden/pkg/formatting"
)

func TestParseBytes(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{input: "2MB", want: 2 << 20},
		{input: "64KB", want: 64 << 10},
		{input: "64kb", want: 64 << 10},
		{input: "1 KiB", want: 1024},
		{input: "1.5MB", want: 3 << 19},
		{input: "4096", want: 4096},
		{input: "512B", want: 512},
		{input: "  8 MB  ", want: 8 << 20},
		{input: "0", want: 0},
		{input: "", wantErr: true},
		{input: "MB", wantErr: true},
		{input: "2XB", wantErr: true},
		{input: "1.2.3KB", wantErr: true},
		{input: "-1KB", wantErr: true},
		{input: "9999999999TB", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := formatting.ParseBytes(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}
