//go:build unit

package validation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/philiph/go-cas-sp/internal/core/domain"
)

// fixedResponseServer answers every request with the given body and records
// the last request values.
func fixedResponseServer(t *testing.T, status int, body string) (*httptest.Server, *url.Values) {
	t.Helper()
	var last url.Values
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last = r.URL.Query()
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts, &last
}

func TestCAS1Validator_Success(t *testing.T) {
	ts, query := fixedResponseServer(t, http.StatusOK, "yes\njdoe\n")
	v := NewCAS1Validator(ts.URL)

	principal, err := v.Validate(context.Background(), "ST-1", "https://app.example.edu/page")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if principal.Name() != "jdoe" {
		t.Errorf("Name = %q, want jdoe", principal.Name())
	}
	if principal.AuthenticationType() != domain.AuthTypeCAS1 {
		t.Errorf("AuthenticationType = %q", principal.AuthenticationType())
	}
	if got := (*query).Get("ticket"); got != "ST-1" {
		t.Errorf("ticket param = %q", got)
	}
	if got := (*query).Get("service"); got != "https://app.example.edu/page" {
		t.Errorf("service param = %q", got)
	}
}

func TestCAS1Validator_Rejection(t *testing.T) {
	ts, _ := fixedResponseServer(t, http.StatusOK, "no\n\n")
	v := NewCAS1Validator(ts.URL)

	_, err := v.Validate(context.Background(), "ST-1", "svc")
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Code != domain.ErrCodeServerRejection {
		t.Errorf("Code = %q, want server rejection", verr.Code)
	}
}

func TestCAS1Validator_MalformedResponses(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"yes without name", "yes\n"},
		{"unknown first line", "maybe\njdoe\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts, _ := fixedResponseServer(t, http.StatusOK, tc.body)
			v := NewCAS1Validator(ts.URL)

			_, err := v.Validate(context.Background(), "ST-1", "svc")
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Code != domain.ErrCodeProtocol {
				t.Errorf("Code = %q, want protocol failure", verr.Code)
			}
		})
	}
}

func TestCAS1Validator_TransportFailures(t *testing.T) {
	t.Run("non-200", func(t *testing.T) {
		ts, _ := fixedResponseServer(t, http.StatusInternalServerError, "boom")
		v := NewCAS1Validator(ts.URL)

		_, err := v.Validate(context.Background(), "ST-1", "svc")
		var verr *domain.ValidationError
		if !errors.As(err, &verr) || verr.Code != domain.ErrCodeTransport {
			t.Fatalf("expected transport failure, got %v", err)
		}
	})
	t.Run("unreachable", func(t *testing.T) {
		ts, _ := fixedResponseServer(t, http.StatusOK, "")
		ts.Close()
		v := NewCAS1Validator(ts.URL)

		_, err := v.Validate(context.Background(), "ST-1", "svc")
		var verr *domain.ValidationError
		if !errors.As(err, &verr) || verr.Code != domain.ErrCodeTransport {
			t.Fatalf("expected transport failure, got %v", err)
		}
	})
}

func TestCAS1Validator_RenewAndParamOverrides(t *testing.T) {
	ts, query := fixedResponseServer(t, http.StatusOK, "yes\njdoe\n")
	v := NewCAS1Validator(ts.URL,
		WithRenew(),
		WithArtifactParameterName("art"),
		WithServiceParameterName("svc"))

	if v.ArtifactParameterName() != "art" || v.ServiceParameterName() != "svc" {
		t.Fatal("parameter name overrides not applied")
	}

	_, err := v.Validate(context.Background(), "ST-1", "https://app.example.edu/")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := (*query).Get("renew"); got != "true" {
		t.Errorf("renew param = %q, want true", got)
	}
	if got := (*query).Get("art"); got != "ST-1" {
		t.Errorf("art param = %q", got)
	}
}
