package ocpp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/seu-repo/ocpp-csms/internal/domain"
	"github.com/seu-repo/ocpp-csms/internal/history"
	"github.com/seu-repo/ocpp-csms/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/ocpp-csms/internal/mocks"
	"github.com/seu-repo/ocpp-csms/internal/ocpperr"
	"github.com/seu-repo/ocpp-csms/internal/session"
)

func newTestHandlers(t *testing.T, chargerSvc *mocks.MockChargerService, txSvc *mocks.MockTransactionService, userRepo *mocks.MockUserRepository) *Handlers {
	t.Helper()
	log := zap.NewNop()
	recorder := history.NewRecorder(&mocks.MockHeartbeatEventRepository{}, &mocks.MockStatusEventRepository{})
	breaker := circuitbreaker.New(circuitbreaker.Settings{}, log)
	return NewHandlers(chargerSvc, txSvc, userRepo, &mocks.MockOCPPErrorLogRepository{}, recorder, breaker, session.NewStore(), 30, log)
}

func TestHandle_UnknownAction_ReturnsEmptyResultNotError(t *testing.T) {
	h := newTestHandlers(t, &mocks.MockChargerService{}, &mocks.MockTransactionService{}, &mocks.MockUserRepository{})

	result, err := h.Handle(context.Background(), "CP001", "SomeVendorSpecificAction", json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected a non-nil CALLRESULT payload for unknown actions")
	}
}

func TestHandleBootNotification_RegistersChargerAndAccepts(t *testing.T) {
	var registeredVendor string
	chargerSvc := &mocks.MockChargerService{
		EnsureRegisteredFunc: func(ctx context.Context, id, vendor, model, serial, firmware string) (*domain.ChargePoint, error) {
			registeredVendor = vendor
			return &domain.ChargePoint{ID: id}, nil
		},
	}
	h := newTestHandlers(t, chargerSvc, &mocks.MockTransactionService{}, &mocks.MockUserRepository{})

	payload := json.RawMessage(`{"chargePointVendor":"Acme","chargePointModel":"X1"}`)
	result, err := h.Handle(context.Background(), "CP001", "BootNotification", payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, ok := result.(bootNotificationResp)
	if !ok {
		t.Fatalf("expected bootNotificationResp, got %T", result)
	}
	if resp.Status != "Accepted" {
		t.Fatalf("expected Accepted, got %s", resp.Status)
	}
	if registeredVendor != "Acme" {
		t.Fatalf("expected charger registration to receive the vendor name, got %q", registeredVendor)
	}
}

func TestHandleAuthorize_UnknownIdTagIsInvalid(t *testing.T) {
	userRepo := &mocks.MockUserRepository{
		FindByIdTagFunc: func(ctx context.Context, idTag string) (*domain.User, error) { return nil, nil },
	}
	h := newTestHandlers(t, &mocks.MockChargerService{}, &mocks.MockTransactionService{}, userRepo)

	result, err := h.Handle(context.Background(), "CP001", "Authorize", json.RawMessage(`{"idTag":"GHOST"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp := result.(map[string]interface{})
	info := resp["idTagInfo"].(idTagInfo)
	if info.Status != "Invalid" {
		t.Fatalf("expected Invalid for an unknown idTag, got %s", info.Status)
	}
}

func TestHandleAuthorize_KnownIdTagIsAccepted(t *testing.T) {
	userRepo := &mocks.MockUserRepository{
		FindByIdTagFunc: func(ctx context.Context, idTag string) (*domain.User, error) {
			return &domain.User{ID: "u1", IdTag: idTag}, nil
		},
	}
	h := newTestHandlers(t, &mocks.MockChargerService{}, &mocks.MockTransactionService{}, userRepo)

	result, _ := h.Handle(context.Background(), "CP001", "Authorize", json.RawMessage(`{"idTag":"TAG001"}`))
	info := result.(map[string]interface{})["idTagInfo"].(idTagInfo)
	if info.Status != "Accepted" {
		t.Fatalf("expected Accepted for a known idTag, got %s", info.Status)
	}
}

func TestHandleStartTransaction_RejectionReturnsInvalidWithoutError(t *testing.T) {
	txSvc := &mocks.MockTransactionService{
		StartTransactionFunc: func(ctx context.Context, chargerID string, connectorID int, idTag string, transactionID int64, meterStart int) (*domain.Transaction, error) {
			return nil, errors.New("transaction: charger CP001 already has an ongoing transaction")
		},
	}
	h := newTestHandlers(t, &mocks.MockChargerService{}, txSvc, &mocks.MockUserRepository{})

	payload := json.RawMessage(`{"connectorId":1,"idTag":"TAG001","meterStart":0}`)
	result, err := h.Handle(context.Background(), "CP001", "StartTransaction", payload)
	if err != nil {
		t.Fatalf("protocol-level error not expected, rejection is reported in the CALLRESULT: %v", err)
	}

	resp := result.(map[string]interface{})
	if resp["transactionId"] != -1 {
		t.Fatalf("expected transactionId -1 on rejection, got %v", resp["transactionId"])
	}
	if resp["idTagInfo"].(idTagInfo).Status != "Invalid" {
		t.Fatal("expected Invalid idTagInfo on rejection")
	}
}

func TestHandleStartTransaction_ConcurrentTxReturnsDistinctStatus(t *testing.T) {
	txSvc := &mocks.MockTransactionService{
		StartTransactionFunc: func(ctx context.Context, chargerID string, connectorID int, idTag string, transactionID int64, meterStart int) (*domain.Transaction, error) {
			return nil, ocpperr.New(ocpperr.ConcurrentTx, "charger CP001 already has an ongoing transaction")
		},
	}
	h := newTestHandlers(t, &mocks.MockChargerService{}, txSvc, &mocks.MockUserRepository{})

	payload := json.RawMessage(`{"connectorId":1,"idTag":"TAG001","meterStart":0}`)
	result, err := h.Handle(context.Background(), "CP001", "StartTransaction", payload)
	if err != nil {
		t.Fatalf("protocol-level error not expected, rejection is reported in the CALLRESULT: %v", err)
	}

	resp := result.(map[string]interface{})
	if resp["idTagInfo"].(idTagInfo).Status != "ConcurrentTx" {
		t.Fatalf("expected ConcurrentTx idTagInfo, got %v", resp["idTagInfo"].(idTagInfo).Status)
	}
}

func TestHandleStartTransaction_AcceptedReturnsTransactionID(t *testing.T) {
	txSvc := &mocks.MockTransactionService{
		StartTransactionFunc: func(ctx context.Context, chargerID string, connectorID int, idTag string, transactionID int64, meterStart int) (*domain.Transaction, error) {
			return &domain.Transaction{TransactionID: 42}, nil
		},
	}
	h := newTestHandlers(t, &mocks.MockChargerService{}, txSvc, &mocks.MockUserRepository{})

	payload := json.RawMessage(`{"connectorId":1,"idTag":"TAG001","meterStart":0}`)
	result, _ := h.Handle(context.Background(), "CP001", "StartTransaction", payload)

	resp := result.(map[string]interface{})
	if resp["transactionId"] != int64(42) {
		t.Fatalf("expected transactionId 42, got %v", resp["transactionId"])
	}
}

func TestHandleStartTransaction_HonorsCallerSuppliedTransactionIDAndMeterStart(t *testing.T) {
	var gotTxID int64
	var gotMeterStart int
	txSvc := &mocks.MockTransactionService{
		StartTransactionFunc: func(ctx context.Context, chargerID string, connectorID int, idTag string, transactionID int64, meterStart int) (*domain.Transaction, error) {
			gotTxID = transactionID
			gotMeterStart = meterStart
			return &domain.Transaction{TransactionID: transactionID, MeterStart: meterStart}, nil
		},
	}
	h := newTestHandlers(t, &mocks.MockChargerService{}, txSvc, &mocks.MockUserRepository{})

	payload := json.RawMessage(`{"connectorId":1,"idTag":"TAG001","meterStart":500,"transactionId":77}`)
	_, err := h.Handle(context.Background(), "CP001", "StartTransaction", payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotTxID != 77 {
		t.Fatalf("expected caller-supplied transactionId 77 to be honored, got %d", gotTxID)
	}
	if gotMeterStart != 500 {
		t.Fatalf("expected meterStart 500 to be honored, got %d", gotMeterStart)
	}
}

func TestHandleStopTransaction_ReturnsStoppedAndTransactionID(t *testing.T) {
	txSvc := &mocks.MockTransactionService{}
	h := newTestHandlers(t, &mocks.MockChargerService{}, txSvc, &mocks.MockUserRepository{})

	payload := json.RawMessage(`{"transactionId":42,"idTag":"TAG001","meterStop":2000}`)
	result, err := h.Handle(context.Background(), "CP001", "StopTransaction", payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp := result.(map[string]interface{})
	if resp["stopped"] != true {
		t.Fatalf("expected stopped=true, got %v", resp["stopped"])
	}
	if resp["transactionId"] != int64(42) {
		t.Fatalf("expected transactionId 42, got %v", resp["transactionId"])
	}
	if resp["idTagInfo"].(idTagInfo).Status != "Accepted" {
		t.Fatal("expected Accepted idTagInfo")
	}
}

func TestHandleStatusNotification_UnknownStatusMapsToUnknown(t *testing.T) {
	var captured domain.ChargePointStatus
	chargerSvc := &mocks.MockChargerService{
		UpdateStatusFunc: func(ctx context.Context, id string, status domain.ChargePointStatus) error {
			captured = status
			return nil
		},
	}
	h := newTestHandlers(t, chargerSvc, &mocks.MockTransactionService{}, &mocks.MockUserRepository{})

	payload := json.RawMessage(`{"connectorId":1,"errorCode":"NoError","status":"TotallyMadeUp"}`)
	_, err := h.Handle(context.Background(), "CP001", "StatusNotification", payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured != domain.ChargePointStatusUnknown {
		t.Fatalf("expected unrecognized status to map to Unknown, got %s", captured)
	}
}

func TestHandleMeterValues_RecordsEachSampledValue(t *testing.T) {
	var recorded []domain.MeterValue
	txSvc := &mocks.MockTransactionService{
		RecordMeterValueFunc: func(ctx context.Context, chargerID string, transactionID int64, mv domain.MeterValue) error {
			recorded = append(recorded, mv)
			return nil
		},
	}
	h := newTestHandlers(t, &mocks.MockChargerService{}, txSvc, &mocks.MockUserRepository{})

	payload := json.RawMessage(`{
		"connectorId": 1,
		"transactionId": 42,
		"meterValue": [
			{"timestamp":"2026-01-01T00:00:00Z","sampledValue":[{"value":"1000","unit":"Wh"}]}
		]
	}`)
	_, err := h.Handle(context.Background(), "CP001", "MeterValues", payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recorded) != 1 || recorded[0].Value != 1000 {
		t.Fatalf("expected one recorded sample of 1000, got %+v", recorded)
	}
}
