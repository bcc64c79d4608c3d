//go:build unit

package domain

import "testing"

func TestParseGatewayStatus(t *testing.T) {
	cases := []struct {
		value string
		want  GatewayStatus
	}{
		{"Attempting", GatewayAttempting},
		{"Success", GatewaySuccess},
		{"Failed", GatewayFailed},
		{"NotAttempted", GatewayNotAttempted},
		{"", GatewayNotAttempted},
		{"garbage", GatewayNotAttempted},
	}
	for _, tc := range cases {
		if got := ParseGatewayStatus(tc.value); got != tc.want {
			t.Errorf("ParseGatewayStatus(%q) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestGatewayStatus_CanAttempt(t *testing.T) {
	if !GatewayNotAttempted.CanAttempt() {
		t.Error("NotAttempted should allow an attempt")
	}
	for _, s := range []GatewayStatus{GatewayAttempting, GatewaySuccess, GatewayFailed} {
		if s.CanAttempt() {
			t.Errorf("%q should not allow a new attempt", s)
		}
	}
}

func TestGatewayStatus_Resolve(t *testing.T) {
	got, err := GatewayAttempting.Resolve(true)
	if err != nil || got != GatewaySuccess {
		t.Errorf("Resolve(true) = %q, %v; want Success", got, err)
	}
	got, err = GatewayAttempting.Resolve(false)
	if err != nil || got != GatewayFailed {
		t.Errorf("Resolve(false) = %q, %v; want Failed", got, err)
	}
}

func TestGatewayStatus_ResolveWithoutAttempt(t *testing.T) {
	for _, s := range []GatewayStatus{GatewayNotAttempted, GatewaySuccess, GatewayFailed} {
		if _, err := s.Resolve(true); err == nil {
			t.Errorf("Resolve from %q should fail", s)
		}
	}
}
