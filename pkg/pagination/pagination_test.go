package pagination_test

import (
	"encoding/json"
	"net/url"
	"slices"
	"strings"
	"testing"

	"github.com/JaimeStill/warden/pkg/pagination"
)

var couponPages = pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}

func TestConfigFinalize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     pagination.Config
		env     map[string]string
		want    pagination.Config
		wantErr string
	}{
		{name: "defaults", want: couponPages},
		{
			name: "env overrides",
			env:  map[string]string{"WARDEN_TEST_PAGE_SIZE": "50", "WARDEN_TEST_MAX_PAGE": "200"},
			want: pagination.Config{DefaultPageSize: 50, MaxPageSize: 200},
		},
		{
			name: "unparseable env ignored",
			cfg:  pagination.Config{DefaultPageSize: 10, MaxPageSize: 30},
			env:  map[string]string{"WARDEN_TEST_PAGE_SIZE": "ten"},
			want: pagination.Config{DefaultPageSize: 10, MaxPageSize: 30},
		},
		{
			name:    "default above max",
			cfg:     pagination.Config{DefaultPageSize: 200, MaxPageSize: 100},
			wantErr: "exceeds max_page_size",
		},
		{
			name:    "negative env",
			env:     map[string]string{"WARDEN_TEST_MAX_PAGE": "-5"},
			wantErr: "max_page_size must be positive",
		},
	}

	env := &pagination.Env{DefaultPageSize: "WARDEN_TEST_PAGE_SIZE", MaxPageSize: "WARDEN_TEST_MAX_PAGE"}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg := tt.cfg
			err := cfg.Finalize(env)

			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error: got %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Finalize() error = %v", err)
			}
			if cfg != tt.want {
				t.Errorf("got %+v, want %+v", cfg, tt.want)
			}
		})
	}
}

func TestConfigMerge(t *testing.T) {
	cfg := couponPages
	cfg.Merge(&pagination.Config{MaxPageSize: 250})

	if cfg.DefaultPageSize != 20 || cfg.MaxPageSize != 250 {
		t.Errorf("got %+v", cfg)
	}
}

func TestFromQuery(t *testing.T) {
	tests := []struct {
		query string
		want  pagination.Request
	}{
		{"", pagination.Request{Page: 1, PageSize: 20}},
		{"page=3&page_size=10", pagination.Request{Page: 3, PageSize: 10}},
		{"page=-1&page_size=1000", pagination.Request{Page: 1, PageSize: 100}},
		{"page=two&page_size=", pagination.Request{Page: 1, PageSize: 20}},
		{"search=+XYZ+", pagination.Request{Page: 1, PageSize: 20, Search: "XYZ"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("parse query: %v", err)
			}
			if got := pagination.FromQuery(values, couponPages); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewResult(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		pageSize  int
		wantPages int
	}{
		{"no coupons", 0, 20, 1},
		{"one full page", 20, 20, 1},
		{"exact pages", 40, 20, 2},
		{"remainder", 41, 20, 3},
		{"unclamped size", 41, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := pagination.NewResult[string](nil, tt.total, pagination.Request{Page: 1, PageSize: tt.pageSize})
			if result.TotalPages != tt.wantPages {
				t.Errorf("total_pages: got %d, want %d", result.TotalPages, tt.wantPages)
			}
		})
	}
}

func TestResultEncodesEmptyData(t *testing.T) {
	result := pagination.NewResult[string](nil, 0, pagination.Request{Page: 1, PageSize: 20})

	b, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"data":[]`) {
		t.Errorf("data should encode as an empty array: %s", b)
	}
}

func TestSlice(t *testing.T) {
	codes := []string{"A1", "B2", "C3", "D4", "E5"}

	tests := []struct {
		name string
		req  pagination.Request
		want []string
	}{
		{"first page", pagination.Request{Page: 1, PageSize: 2}, []string{"A1", "B2"}},
		{"last partial", pagination.Request{Page: 3, PageSize: 2}, []string{"E5"}},
		{"beyond end", pagination.Request{Page: 4, PageSize: 2}, []string{}},
		{"zero page", pagination.Request{Page: 0, PageSize: 2}, []string{"A1", "B2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := pagination.Slice(codes, tt.req)
			if result.Total != len(codes) {
				t.Errorf("total: got %d, want %d", result.Total, len(codes))
			}
			if !slices.Equal(result.Data, tt.want) {
				t.Errorf("data: got %v, want %v", result.Data, tt.want)
			}
		})
	}
}
