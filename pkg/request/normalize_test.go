package request

import "testing"

func TestNormalizeProvider(t *testing.T) {
	tests := []struct {
		host     string
		expected string
	}{
		{"data.vatsim.net", "vatsim"},
		{"status.vatsim.net", "vatsim"},
		{"vatsim.net", "vatsim"},
		{"api.ivao.aero", "ivao"},
		{"Data.VATSIM.net:443", "vatsim"},
		{"127.0.0.1:8080", "127.0.0.1"},
		{"other.com", "other.com"},
	}

	for _, tt := range tests {
		got := normalizeProvider(tt.host)
		if got != tt.expected {
			t.Errorf("normalizeProvider(%q) = %q; want %q", tt.host, got, tt.expected)
		}
	}
}
