package ocpp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/ocpp-csms/internal/domain"
	"github.com/seu-repo/ocpp-csms/internal/history"
	"github.com/seu-repo/ocpp-csms/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/ocpp-csms/internal/ocpperr"
	"github.com/seu-repo/ocpp-csms/internal/ports"
	"github.com/seu-repo/ocpp-csms/internal/session"
)

// HandlerFunc processes one decoded Call payload and returns the
// CallResult payload, or an *ocpperr.Error on failure.
type HandlerFunc func(ctx context.Context, chargerID string, payload json.RawMessage) (interface{}, error)

// Handlers is the action-name keyed dispatch table for inbound OCPP 1.6J
// messages from charge points.
type Handlers struct {
	chargerSvc        ports.ChargerService
	txSvc             ports.TransactionService
	userRepo          ports.UserRepository
	errorLog          ports.OCPPErrorLogRepository
	recorder          *history.Recorder
	breaker           *circuitbreaker.CircuitBreaker
	sessions          *session.Store
	heartbeatInterval int
	log               *zap.Logger

	table map[string]HandlerFunc
}

func NewHandlers(
	chargerSvc ports.ChargerService,
	txSvc ports.TransactionService,
	userRepo ports.UserRepository,
	errorLog ports.OCPPErrorLogRepository,
	recorder *history.Recorder,
	breaker *circuitbreaker.CircuitBreaker,
	sessions *session.Store,
	heartbeatInterval int,
	log *zap.Logger,
) *Handlers {
	h := &Handlers{
		chargerSvc:        chargerSvc,
		txSvc:             txSvc,
		userRepo:          userRepo,
		errorLog:          errorLog,
		recorder:          recorder,
		breaker:           breaker,
		sessions:          sessions,
		heartbeatInterval: heartbeatInterval,
		log:               log,
	}
	h.table = map[string]HandlerFunc{
		"BootNotification":              h.handleBootNotification,
		"Heartbeat":                     h.handleHeartbeat,
		"StatusNotification":            h.handleStatusNotification,
		"Authorize":                     h.handleAuthorize,
		"StartTransaction":              h.handleStartTransaction,
		"StopTransaction":               h.handleStopTransaction,
		"MeterValues":                   h.handleMeterValues,
		"FirmwareStatusNotification":    h.handleFirmwareStatusNotification,
		"DiagnosticsStatusNotification": h.handleDiagnosticsStatusNotification,
		"DataTransfer":                  h.handleDataTransfer,
	}
	return h
}

// Handle routes an action to its handler, falling back to UnknownAction.
// Persistence failures are logged to OCPPErrorLog but never block the
// protocol response (§7: the CALLRESULT is still returned).
func (h *Handlers) Handle(ctx context.Context, chargerID, action string, payload json.RawMessage) (interface{}, error) {
	fn, ok := h.table[action]
	if !ok {
		h.log.Warn("unknown OCPP action", zap.String("action", action), zap.String("charger_id", chargerID))
		h.logError(ctx, chargerID, action, ocpperr.UnknownAction, fmt.Sprintf("unrecognized action %q", action))
		return map[string]interface{}{}, nil
	}
	return fn(ctx, chargerID, payload)
}

func (h *Handlers) logError(ctx context.Context, chargerID, action string, kind ocpperr.Kind, message string) {
	if h.errorLog == nil {
		return
	}
	entry := &domain.OCPPErrorLog{
		ChargerID: chargerID,
		Action:    action,
		Kind:      domain.OCPPErrorLogKind(kind),
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.errorLog.Append(ctx, entry); err != nil {
		h.log.Warn("failed to append ocpp error log", zap.Error(err))
	}
}

// withPersistence runs fn through the circuit breaker and logs any failure
// as a Transient OCPPErrorLog entry rather than propagating it upward.
func (h *Handlers) withPersistence(ctx context.Context, chargerID, action string, fn func() error) {
	err := circuitbreaker.Execute(h.breaker, fn)
	if err != nil {
		h.log.Warn("persistence failure in ocpp handler",
			zap.String("charger_id", chargerID), zap.String("action", action), zap.Error(err))
		h.logError(ctx, chargerID, action, ocpperr.Transient, err.Error())
	}
}

type bootNotificationReq struct {
	ChargePointVendor string `json:"chargePointVendor"`
	ChargePointModel  string `json:"chargePointModel"`
	ChargePointSerial string `json:"chargePointSerialNumber,omitempty"`
	FirmwareVersion   string `json:"firmwareVersion,omitempty"`
}

type bootNotificationResp struct {
	Status      string `json:"status"`
	CurrentTime string `json:"currentTime"`
	Interval    int    `json:"interval"`
}

// handleBootNotification implements invariant C2: unknown chargers are
// registered rather than rejected.
func (h *Handlers) handleBootNotification(ctx context.Context, chargerID string, payload json.RawMessage) (interface{}, error) {
	var req bootNotificationReq
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, ocpperr.Wrap(ocpperr.ProtocolViolation, "invalid BootNotification", err)
	}

	h.log.Info("BootNotification",
		zap.String("charger_id", chargerID),
		zap.String("vendor", req.ChargePointVendor),
		zap.String("model", req.ChargePointModel),
	)

	h.withPersistence(ctx, chargerID, "BootNotification", func() error {
		_, err := h.chargerSvc.EnsureRegistered(ctx, chargerID, req.ChargePointVendor, req.ChargePointModel, req.ChargePointSerial, req.FirmwareVersion)
		return err
	})

	return bootNotificationResp{
		Status:      "Accepted",
		CurrentTime: time.Now().UTC().Format(time.RFC3339),
		Interval:    h.heartbeatInterval,
	}, nil
}

func (h *Handlers) handleHeartbeat(ctx context.Context, chargerID string, _ json.RawMessage) (interface{}, error) {
	h.withPersistence(ctx, chargerID, "Heartbeat", func() error {
		return h.recorder.RecordHeartbeat(ctx, chargerID)
	})

	return map[string]string{"currentTime": time.Now().UTC().Format(time.RFC3339)}, nil
}

type statusNotificationReq struct {
	ConnectorId     int    `json:"connectorId"`
	ErrorCode       string `json:"errorCode"`
	Status          string `json:"status"`
	Timestamp       string `json:"timestamp,omitempty"`
	VendorErrorCode string `json:"vendorErrorCode,omitempty"`
}

func (h *Handlers) handleStatusNotification(ctx context.Context, chargerID string, payload json.RawMessage) (interface{}, error) {
	var req statusNotificationReq
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, ocpperr.Wrap(ocpperr.ProtocolViolation, "invalid StatusNotification", err)
	}

	status := mapChargePointStatus(req.Status)

	h.log.Info("StatusNotification",
		zap.String("charger_id", chargerID),
		zap.Int("connector_id", req.ConnectorId),
		zap.String("status", req.Status),
	)

	// Repair path: whatever the session store thinks is bound to this
	// charger, a charge point reporting Available is authoritative - clear
	// any stale transaction/order binding rather than leave it live forever.
	if status == domain.ChargePointStatusAvailable && h.sessions.HasActiveTransaction(chargerID) {
		h.log.Warn("clearing stale session on Available status", zap.String("charger_id", chargerID))
		h.sessions.Clear(chargerID)
	}

	h.withPersistence(ctx, chargerID, "StatusNotification", func() error {
		if err := h.chargerSvc.UpdateStatus(ctx, chargerID, status); err != nil {
			return err
		}
		return h.recorder.RecordStatusChange(ctx, chargerID, req.ConnectorId, status, req.ErrorCode)
	})

	return map[string]interface{}{}, nil
}

func mapChargePointStatus(s string) domain.ChargePointStatus {
	switch domain.ChargePointStatus(s) {
	case domain.ChargePointStatusAvailable, domain.ChargePointStatusPreparing,
		domain.ChargePointStatusCharging, domain.ChargePointStatusSuspendedEV,
		domain.ChargePointStatusSuspendedEVSE, domain.ChargePointStatusFinishing,
		domain.ChargePointStatusReserved, domain.ChargePointStatusUnavailable,
		domain.ChargePointStatusFaulted:
		return domain.ChargePointStatus(s)
	default:
		return domain.ChargePointStatusUnknown
	}
}

type authorizeReq struct {
	IdTag string `json:"idTag"`
}

type idTagInfo struct {
	Status string `json:"status"`
}

// handleAuthorize implements invariant C1-adjacent auth: an idTag bound to
// no user is Invalid, never Accepted-by-default.
func (h *Handlers) handleAuthorize(ctx context.Context, chargerID string, payload json.RawMessage) (interface{}, error) {
	var req authorizeReq
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, ocpperr.Wrap(ocpperr.ProtocolViolation, "invalid Authorize", err)
	}

	status := "Accepted"
	user, err := h.userRepo.FindByIdTag(ctx, req.IdTag)
	if err != nil || user == nil {
		status = "Invalid"
		h.logError(ctx, chargerID, "Authorize", ocpperr.AuthorizationFailed, "unknown idTag "+req.IdTag)
	}

	return map[string]interface{}{"idTagInfo": idTagInfo{Status: status}}, nil
}

type startTransactionReq struct {
	ConnectorId   int    `json:"connectorId"`
	IdTag         string `json:"idTag"`
	MeterStart    int    `json:"meterStart"`
	Timestamp     string `json:"timestamp"`
	ReservationId *int   `json:"reservationId,omitempty"`
	TransactionId *int64 `json:"transactionId,omitempty"`
}

// handleStartTransaction implements invariant T1: exactly one ongoing
// Transaction per charger. A second StartTransaction while one is ongoing
// is rejected with ConcurrentTx rather than silently overwriting it. The
// transactionId is caller-supplied if present, otherwise allocated from
// epoch-seconds at start.
func (h *Handlers) handleStartTransaction(ctx context.Context, chargerID string, payload json.RawMessage) (interface{}, error) {
	var req startTransactionReq
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, ocpperr.Wrap(ocpperr.ProtocolViolation, "invalid StartTransaction", err)
	}

	var requestedID int64
	if req.TransactionId != nil {
		requestedID = *req.TransactionId
	}

	tx, err := h.txSvc.StartTransaction(ctx, chargerID, req.ConnectorId, req.IdTag, requestedID, req.MeterStart)
	if err != nil {
		h.log.Warn("StartTransaction rejected", zap.String("charger_id", chargerID), zap.Error(err))
		h.logError(ctx, chargerID, "StartTransaction", ocpperr.KindOf(err), err.Error())
		status := "Invalid"
		if ocpperr.KindOf(err) == ocpperr.ConcurrentTx {
			status = "ConcurrentTx"
		}
		return map[string]interface{}{
			"transactionId": -1,
			"idTagInfo":     idTagInfo{Status: status},
		}, nil
	}

	h.sessions.StartTransaction(chargerID, tx.TransactionID, fmt.Sprintf("order-%d", tx.TransactionID), tx.MeterStart)

	return map[string]interface{}{
		"transactionId": tx.TransactionID,
		"idTagInfo":     idTagInfo{Status: "Accepted"},
	}, nil
}

type stopTransactionReq struct {
	TransactionId int64  `json:"transactionId"`
	MeterStop     int    `json:"meterStop"`
	Timestamp     string `json:"timestamp"`
	IdTag         string `json:"idTag,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// handleStopTransaction implements invariants T2/T3: energy and duration
// are derived from the rate/price snapshot taken at StartTransaction time.
// The response is idempotent: whether or not the underlying transaction
// was already closed, the charge point always sees stopped/Accepted for
// the transactionId it asked to stop.
func (h *Handlers) handleStopTransaction(ctx context.Context, chargerID string, payload json.RawMessage) (interface{}, error) {
	var req stopTransactionReq
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, ocpperr.Wrap(ocpperr.ProtocolViolation, "invalid StopTransaction", err)
	}

	if _, err := h.txSvc.StopTransaction(ctx, chargerID, req.TransactionId, req.MeterStop, req.Reason); err != nil {
		h.log.Warn("StopTransaction failed", zap.String("charger_id", chargerID), zap.Error(err))
		h.logError(ctx, chargerID, "StopTransaction", ocpperr.KindOf(err), err.Error())
	}

	h.sessions.Clear(chargerID)

	return map[string]interface{}{
		"stopped":       true,
		"transactionId": req.TransactionId,
		"idTagInfo":     idTagInfo{Status: "Accepted"},
	}, nil
}

type meterValuesReq struct {
	ConnectorId   int   `json:"connectorId"`
	TransactionId int64 `json:"transactionId,omitempty"`
	MeterValue    []struct {
		Timestamp    string `json:"timestamp"`
		SampledValue []struct {
			Value     string `json:"value"`
			Measurand string `json:"measurand,omitempty"`
			Unit      string `json:"unit,omitempty"`
			Context   string `json:"context,omitempty"`
		} `json:"sampledValue"`
	} `json:"meterValue"`
}

const measurandEnergyActiveImportRegister = "Energy.Active.Import.Register"

// handleMeterValues parses only the nested meterValue[].sampledValue[] form
// (the OCPP-conformant one); the legacy top-level meter field is not
// supported.
func (h *Handlers) handleMeterValues(ctx context.Context, chargerID string, payload json.RawMessage) (interface{}, error) {
	var req meterValuesReq
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, ocpperr.Wrap(ocpperr.ProtocolViolation, "invalid MeterValues", err)
	}

	for _, mv := range req.MeterValue {
		ts, _ := time.Parse(time.RFC3339, mv.Timestamp)
		for _, sv := range mv.SampledValue {
			measurand := sv.Measurand
			if measurand == "" {
				measurand = measurandEnergyActiveImportRegister
			}
			var value float64
			fmt.Sscanf(sv.Value, "%f", &value)

			reading := domain.MeterValue{
				ChargerID:     chargerID,
				TransactionID: req.TransactionId,
				Timestamp:     ts,
				Measurand:     measurand,
				Value:         value,
				Unit:          sv.Unit,
				Context:       sv.Context,
			}
			if measurand == measurandEnergyActiveImportRegister {
				h.sessions.UpdateMeter(chargerID, int(value))
			}
			h.withPersistence(ctx, chargerID, "MeterValues", func() error {
				return h.txSvc.RecordMeterValue(ctx, chargerID, req.TransactionId, reading)
			})
		}
	}

	return map[string]interface{}{}, nil
}

type firmwareStatusReq struct {
	Status string `json:"status"`
}

func (h *Handlers) handleFirmwareStatusNotification(ctx context.Context, chargerID string, payload json.RawMessage) (interface{}, error) {
	var req firmwareStatusReq
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, ocpperr.Wrap(ocpperr.ProtocolViolation, "invalid FirmwareStatusNotification", err)
	}
	h.log.Info("FirmwareStatusNotification", zap.String("charger_id", chargerID), zap.String("status", req.Status))
	return map[string]interface{}{}, nil
}

type diagnosticsStatusReq struct {
	Status string `json:"status"`
}

func (h *Handlers) handleDiagnosticsStatusNotification(ctx context.Context, chargerID string, payload json.RawMessage) (interface{}, error) {
	var req diagnosticsStatusReq
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, ocpperr.Wrap(ocpperr.ProtocolViolation, "invalid DiagnosticsStatusNotification", err)
	}
	h.log.Info("DiagnosticsStatusNotification", zap.String("charger_id", chargerID), zap.String("status", req.Status))
	return map[string]interface{}{}, nil
}

type dataTransferReq struct {
	VendorId  string `json:"vendorId"`
	MessageId string `json:"messageId,omitempty"`
	Data      string `json:"data,omitempty"`
}

func (h *Handlers) handleDataTransfer(ctx context.Context, chargerID string, payload json.RawMessage) (interface{}, error) {
	var req dataTransferReq
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, ocpperr.Wrap(ocpperr.ProtocolViolation, "invalid DataTransfer", err)
	}
	h.log.Debug("DataTransfer", zap.String("charger_id", chargerID), zap.String("vendor_id", req.VendorId))
	return map[string]interface{}{"status": "Accepted", "data": nil}, nil
}
