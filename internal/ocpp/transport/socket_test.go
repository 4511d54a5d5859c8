package transport

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/seu-repo/ocpp-csms/internal/registry"
)

var errNoSecret = errors.New("no secret configured")

type fakeSecretLookup struct {
	secrets map[string]string
}

func (f *fakeSecretLookup) GetChargerSharedSecret(chargerID string) (string, error) {
	s, ok := f.secrets[chargerID]
	if !ok {
		return "", errNoSecret
	}
	return s, nil
}

func newTestSocket() *Socket {
	return NewSocket(":0", registry.NewLocalRegistry(), zap.NewNop())
}

func TestCheckBasicAuth_CorrectCredentials(t *testing.T) {
	s := newTestSocket()
	s.SetSecretLookup(&fakeSecretLookup{secrets: map[string]string{"CP001": "s3cret"}})

	req := httptest.NewRequest(http.MethodGet, "/ocpp/1.6/CP001", nil)
	req.SetBasicAuth("CP001", "s3cret")

	if !s.checkBasicAuth("CP001", req) {
		t.Fatal("expected matching credentials to authenticate")
	}
}

func TestCheckBasicAuth_WrongPassword(t *testing.T) {
	s := newTestSocket()
	s.SetSecretLookup(&fakeSecretLookup{secrets: map[string]string{"CP001": "s3cret"}})

	req := httptest.NewRequest(http.MethodGet, "/ocpp/1.6/CP001", nil)
	req.SetBasicAuth("CP001", "wrong")

	if s.checkBasicAuth("CP001", req) {
		t.Fatal("expected mismatched password to be rejected")
	}
}

func TestCheckBasicAuth_UsernameMustMatchChargerID(t *testing.T) {
	s := newTestSocket()
	s.SetSecretLookup(&fakeSecretLookup{secrets: map[string]string{"CP001": "s3cret"}})

	req := httptest.NewRequest(http.MethodGet, "/ocpp/1.6/CP001", nil)
	req.SetBasicAuth("CP002", "s3cret")

	if s.checkBasicAuth("CP001", req) {
		t.Fatal("expected username/charger-id mismatch to be rejected")
	}
}

func TestCheckBasicAuth_NoCredentialsSupplied(t *testing.T) {
	s := newTestSocket()
	s.SetSecretLookup(&fakeSecretLookup{secrets: map[string]string{"CP001": "s3cret"}})

	req := httptest.NewRequest(http.MethodGet, "/ocpp/1.6/CP001", nil)

	if s.checkBasicAuth("CP001", req) {
		t.Fatal("expected missing credentials to be rejected")
	}
}

func TestCheckBasicAuth_UnknownCharger(t *testing.T) {
	s := newTestSocket()
	s.SetSecretLookup(&fakeSecretLookup{secrets: map[string]string{}})

	req := httptest.NewRequest(http.MethodGet, "/ocpp/1.6/CP999", nil)
	req.SetBasicAuth("CP999", "whatever")

	if s.checkBasicAuth("CP999", req) {
		t.Fatal("expected a charger with no stored secret to be rejected")
	}
}

func TestChargerIDFromRequest_PathAndQuery(t *testing.T) {
	pathReq := httptest.NewRequest(http.MethodGet, "/ocpp/1.6/CP001", nil)
	if got := chargerIDFromRequest(pathReq); got != "CP001" {
		t.Errorf("expected CP001 from path, got %q", got)
	}

	queryReq := httptest.NewRequest(http.MethodGet, "/ocpp/1.6?id=CP002", nil)
	if got := chargerIDFromRequest(queryReq); got != "CP002" {
		t.Errorf("expected CP002 from query, got %q", got)
	}
}
