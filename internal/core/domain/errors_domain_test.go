//go:build unit

package domain

import (
	"errors"
	"net/http"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	rejection := ServerRejectionError(ServerCodeInvalidTicket, "ticket ST-1 not recognized")
	if got := rejection.Error(); got != "INVALID_TICKET: ticket ST-1 not recognized" {
		t.Errorf("Error() = %q", got)
	}

	protocol := ProtocolError("missing cas:user element")
	if got := protocol.Error(); got != "missing cas:user element" {
		t.Errorf("Error() = %q", got)
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := TransportError("validation request failed", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}

	var verr *ValidationError
	if !errors.As(error(err), &verr) {
		t.Fatal("errors.As should match ValidationError")
	}
	if verr.Code != ErrCodeTransport {
		t.Errorf("Code = %q, want %q", verr.Code, ErrCodeTransport)
	}
}

func TestErrorCode_HTTPStatus(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeServerRejection, http.StatusUnauthorized},
		{ErrCodeTransport, http.StatusBadGateway},
		{ErrCodeProtocol, http.StatusBadGateway},
		{ErrCodeConfig, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := tc.code.HTTPStatus(); got != tc.want {
			t.Errorf("%s.HTTPStatus() = %d, want %d", tc.code, got, tc.want)
		}
	}
}
