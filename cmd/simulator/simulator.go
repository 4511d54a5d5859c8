package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// SimulatorConfig holds the simulator configuration.
type SimulatorConfig struct {
	ServerURL       string
	ChargePointID   string
	Vendor          string
	Model           string
	SerialNumber    string
	FirmwareVersion string
	BasicAuthUser   string
	BasicAuthPass   string
	ConnectorCount  int
}

// ConnectorState represents a connector's reported status.
type ConnectorState struct {
	ID         int
	Status     string // Available, Preparing, Charging, Faulted, Unavailable, ...
	MeterWh    int
	IsCharging bool
}

// Simulator simulates an OCPP 1.6J charge point speaking the JSON-over-WS
// wire protocol directly against a CSMS.
type Simulator struct {
	config     *SimulatorConfig
	conn       *websocket.Conn
	log        *zap.Logger
	connectors []ConnectorState

	currentTxID       int
	currentIdTag      string
	isCharging        bool
	heartbeatInterval int

	messageID   int
	pendingMsgs map[string]chan json.RawMessage
	mu          sync.RWMutex

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewSimulator creates a new charge point simulator.
func NewSimulator(config *SimulatorConfig, log *zap.Logger) *Simulator {
	connectors := make([]ConnectorState, config.ConnectorCount)
	for i := 0; i < config.ConnectorCount; i++ {
		connectors[i] = ConnectorState{ID: i + 1, Status: "Available"}
	}

	return &Simulator{
		config:            config,
		log:               log,
		connectors:        connectors,
		pendingMsgs:       make(map[string]chan json.RawMessage),
		stopChan:          make(chan struct{}),
		heartbeatInterval: 300,
	}
}

// Connect dials the CSMS, registers under the ocpp1.6 subprotocol, and
// sends the initial BootNotification.
func (s *Simulator) Connect() error {
	url := fmt.Sprintf("%s/%s", strings.TrimRight(s.config.ServerURL, "/"), s.config.ChargePointID)

	dialer := websocket.Dialer{Subprotocols: []string{"ocpp1.6"}}

	var header http.Header
	if s.config.BasicAuthUser != "" {
		header = http.Header{}
		req := &http.Request{Header: header}
		req.SetBasicAuth(s.config.BasicAuthUser, s.config.BasicAuthPass)
		header = req.Header
	}

	conn, _, err := dialer.Dial(url, header)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	s.conn = conn
	s.log.Info("connected to CSMS", zap.String("url", url), zap.String("chargePointID", s.config.ChargePointID))

	s.wg.Add(1)
	go s.readMessages()

	resp, err := s.sendBootNotification()
	if err != nil {
		s.log.Error("BootNotification failed", zap.Error(err))
	} else {
		s.log.Info("BootNotification accepted", zap.Any("response", resp))
		if interval, ok := resp["interval"].(float64); ok && interval > 0 {
			s.heartbeatInterval = int(interval)
		}
	}

	for _, c := range s.connectors {
		s.sendStatusNotification(c.ID, "Available")
	}

	s.wg.Add(1)
	go s.heartbeatLoop()

	return nil
}

// Stop disconnects and waits for background goroutines to exit.
func (s *Simulator) Stop() {
	close(s.stopChan)
	if s.conn != nil {
		s.conn.Close()
	}
	s.wg.Wait()
}

func (s *Simulator) readMessages() {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopChan:
			return
		default:
			_, message, err := s.conn.ReadMessage()
			if err != nil {
				s.log.Error("read error", zap.Error(err))
				return
			}
			s.handleMessage(message)
		}
	}
}

// handleMessage decodes the OCPP 1.6J four-element array frame.
func (s *Simulator) handleMessage(data []byte) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		s.log.Error("invalid frame", zap.Error(err))
		return
	}
	if len(raw) < 3 {
		return
	}

	var msgType int
	json.Unmarshal(raw[0], &msgType)

	var msgID string
	json.Unmarshal(raw[1], &msgID)

	switch msgType {
	case 2: // CALL - a CSMS-initiated request
		var action string
		json.Unmarshal(raw[2], &action)
		var payload json.RawMessage
		if len(raw) > 3 {
			payload = raw[3]
		}
		s.handleServerRequest(msgID, action, payload)

	case 3: // CALLRESULT
		s.mu.Lock()
		if ch, ok := s.pendingMsgs[msgID]; ok {
			ch <- raw[2]
			delete(s.pendingMsgs, msgID)
		}
		s.mu.Unlock()

	case 4: // CALLERROR
		s.mu.Lock()
		if ch, ok := s.pendingMsgs[msgID]; ok {
			close(ch)
			delete(s.pendingMsgs, msgID)
		}
		s.mu.Unlock()
	}
}

func (s *Simulator) handleServerRequest(msgID, action string, payload json.RawMessage) {
	s.log.Info("received CSMS request", zap.String("action", action))

	var response interface{}

	switch action {
	case "RemoteStartTransaction":
		response = s.handleRemoteStart(payload)
	case "RemoteStopTransaction":
		response = s.handleRemoteStop(payload)
	case "Reset":
		response = s.handleReset(payload)
	case "UnlockConnector":
		response = s.handleUnlockConnector(payload)
	case "ChangeAvailability":
		response = s.handleChangeAvailability(payload)
	case "GetConfiguration":
		response = s.handleGetConfiguration(payload)
	case "ChangeConfiguration":
		response = s.handleChangeConfiguration(payload)
	case "SetChargingProfile":
		response = map[string]interface{}{"status": "Accepted"}
	case "ClearChargingProfile":
		response = map[string]interface{}{"status": "Accepted"}
	case "TriggerMessage":
		response = s.handleTriggerMessage(payload)
	case "UpdateFirmware":
		response = s.handleUpdateFirmware(payload)
	case "GetDiagnostics":
		response = map[string]interface{}{"fileName": fmt.Sprintf("diag-%s.log", s.config.ChargePointID)}
	case "ReserveNow":
		response = map[string]interface{}{"status": "Accepted"}
	case "CancelReservation":
		response = map[string]interface{}{"status": "Accepted"}
	default:
		s.sendCallError(msgID, "NotImplemented", fmt.Sprintf("action %s not implemented", action))
		return
	}

	s.sendCallResult(msgID, response)
}

// --- Request handlers (CSMS -> charge point) ---

func (s *Simulator) handleRemoteStart(payload json.RawMessage) map[string]interface{} {
	var req struct {
		ConnectorID int    `json:"connectorId"`
		IdTag       string `json:"idTag"`
	}
	json.Unmarshal(payload, &req)

	connectorID := req.ConnectorID
	if connectorID == 0 {
		connectorID = 1
	}

	s.currentTxID = int(time.Now().Unix())
	s.currentIdTag = req.IdTag
	s.isCharging = true

	if connectorID <= len(s.connectors) {
		s.connectors[connectorID-1].Status = "Charging"
		s.connectors[connectorID-1].IsCharging = true
	}

	s.log.Info("remote start accepted", zap.Int("transactionId", s.currentTxID), zap.Int("connectorId", connectorID))

	go func() {
		time.Sleep(100 * time.Millisecond)
		s.sendStartTransaction(connectorID, req.IdTag)
	}()

	return map[string]interface{}{"status": "Accepted"}
}

func (s *Simulator) handleRemoteStop(payload json.RawMessage) map[string]interface{} {
	var req struct {
		TransactionID int `json:"transactionId"`
	}
	json.Unmarshal(payload, &req)

	if !s.isCharging {
		return map[string]interface{}{"status": "Rejected"}
	}

	s.log.Info("remote stop accepted", zap.Int("transactionId", req.TransactionID))

	go func() {
		time.Sleep(100 * time.Millisecond)
		s.sendStopTransaction(req.TransactionID)
		s.isCharging = false
		if len(s.connectors) > 0 {
			s.connectors[0].Status = "Available"
			s.connectors[0].IsCharging = false
		}
	}()

	return map[string]interface{}{"status": "Accepted"}
}

func (s *Simulator) handleReset(payload json.RawMessage) map[string]interface{} {
	var req struct {
		Type string `json:"type"` // Hard | Soft
	}
	json.Unmarshal(payload, &req)

	s.log.Info("reset requested", zap.String("type", req.Type))

	go func() {
		if req.Type == "Hard" {
			time.Sleep(500 * time.Millisecond)
		} else {
			time.Sleep(2 * time.Second)
		}

		s.isCharging = false
		for i := range s.connectors {
			s.connectors[i].Status = "Available"
			s.connectors[i].IsCharging = false
		}

		s.sendBootNotification()
	}()

	return map[string]interface{}{"status": "Accepted"}
}

func (s *Simulator) handleUnlockConnector(payload json.RawMessage) map[string]interface{} {
	var req struct {
		ConnectorID int `json:"connectorId"`
	}
	json.Unmarshal(payload, &req)

	s.log.Info("unlock connector", zap.Int("connectorId", req.ConnectorID))
	return map[string]interface{}{"status": "Unlocked"}
}

func (s *Simulator) handleChangeAvailability(payload json.RawMessage) map[string]interface{} {
	var req struct {
		ConnectorID int    `json:"connectorId"`
		Type        string `json:"type"` // Inoperative | Operative
	}
	json.Unmarshal(payload, &req)

	status := "Available"
	if req.Type == "Inoperative" {
		status = "Unavailable"
	}

	if req.ConnectorID > 0 && req.ConnectorID <= len(s.connectors) {
		s.connectors[req.ConnectorID-1].Status = status
	} else {
		for i := range s.connectors {
			s.connectors[i].Status = status
		}
	}

	s.log.Info("change availability", zap.String("type", req.Type))
	return map[string]interface{}{"status": "Accepted"}
}

func (s *Simulator) handleGetConfiguration(payload json.RawMessage) map[string]interface{} {
	configKeys := []map[string]interface{}{
		{"key": "HeartbeatInterval", "readonly": false, "value": strconv.Itoa(s.heartbeatInterval)},
		{"key": "NumberOfConnectors", "readonly": true, "value": strconv.Itoa(len(s.connectors))},
	}
	return map[string]interface{}{"configurationKey": configKeys, "unknownKey": []string{}}
}

func (s *Simulator) handleChangeConfiguration(payload json.RawMessage) map[string]interface{} {
	var req struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	json.Unmarshal(payload, &req)

	if req.Key == "HeartbeatInterval" {
		if v, err := strconv.Atoi(req.Value); err == nil && v > 0 {
			s.heartbeatInterval = v
		}
	}

	s.log.Info("change configuration", zap.String("key", req.Key), zap.String("value", req.Value))
	return map[string]interface{}{"status": "Accepted"}
}

func (s *Simulator) handleTriggerMessage(payload json.RawMessage) map[string]interface{} {
	var req struct {
		RequestedMessage string `json:"requestedMessage"`
		ConnectorID      *int   `json:"connectorId"`
	}
	json.Unmarshal(payload, &req)

	s.log.Info("trigger message", zap.String("message", req.RequestedMessage))

	go func() {
		time.Sleep(100 * time.Millisecond)
		switch req.RequestedMessage {
		case "BootNotification":
			s.sendBootNotification()
		case "Heartbeat":
			s.sendHeartbeat()
		case "StatusNotification":
			for _, c := range s.connectors {
				s.sendStatusNotification(c.ID, c.Status)
			}
		case "MeterValues":
			if s.isCharging && len(s.connectors) > 0 {
				s.sendMeterValues(1, s.connectors[0].MeterWh)
			}
		}
	}()

	return map[string]interface{}{"status": "Accepted"}
}

func (s *Simulator) handleUpdateFirmware(payload json.RawMessage) map[string]interface{} {
	var req struct {
		Location string `json:"location"`
	}
	json.Unmarshal(payload, &req)

	s.log.Info("firmware update requested", zap.String("location", req.Location))

	go func() {
		statuses := []string{"Downloading", "Downloaded", "Installing", "Installed"}
		for _, status := range statuses {
			time.Sleep(1 * time.Second)
			s.sendFirmwareStatus(status)
		}
	}()

	return map[string]interface{}{}
}

// --- Outgoing messages (charge point -> CSMS) ---

func (s *Simulator) sendCall(action string, payload interface{}) (map[string]interface{}, error) {
	s.mu.Lock()
	s.messageID++
	msgID := fmt.Sprintf("%d", s.messageID)
	responseChan := make(chan json.RawMessage, 1)
	s.pendingMsgs[msgID] = responseChan
	s.mu.Unlock()

	msg := []interface{}{2, msgID, action, payload}
	data, _ := json.Marshal(msg)

	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return nil, err
	}

	select {
	case respData, ok := <-responseChan:
		if !ok {
			return nil, fmt.Errorf("%s rejected with CALLERROR", action)
		}
		var result map[string]interface{}
		json.Unmarshal(respData, &result)
		return result, nil
	case <-time.After(30 * time.Second):
		return nil, fmt.Errorf("timeout waiting for %s response", action)
	}
}

func (s *Simulator) sendCallResult(msgID string, payload interface{}) {
	msg := []interface{}{3, msgID, payload}
	data, _ := json.Marshal(msg)
	s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Simulator) sendCallError(msgID, code, desc string) {
	msg := []interface{}{4, msgID, code, desc, map[string]interface{}{}}
	data, _ := json.Marshal(msg)
	s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Simulator) sendBootNotification() (map[string]interface{}, error) {
	payload := map[string]interface{}{
		"chargePointVendor":       s.config.Vendor,
		"chargePointModel":        s.config.Model,
		"chargePointSerialNumber": s.config.SerialNumber,
		"firmwareVersion":         s.config.FirmwareVersion,
	}
	return s.sendCall("BootNotification", payload)
}

func (s *Simulator) sendHeartbeat() {
	s.sendCall("Heartbeat", map[string]interface{}{})
}

func (s *Simulator) sendStatusNotification(connectorID int, status string) {
	payload := map[string]interface{}{
		"connectorId": connectorID,
		"errorCode":   "NoError",
		"status":      status,
		"timestamp":   time.Now().Format(time.RFC3339),
	}
	s.sendCall("StatusNotification", payload)
}

func (s *Simulator) sendAuthorize(idTag string) {
	s.sendCall("Authorize", map[string]interface{}{"idTag": idTag})
}

func (s *Simulator) sendStartTransaction(connectorID int, idTag string) {
	payload := map[string]interface{}{
		"connectorId": connectorID,
		"idTag":       idTag,
		"meterStart":  0,
		"timestamp":   time.Now().Format(time.RFC3339),
	}
	resp, err := s.sendCall("StartTransaction", payload)
	if err != nil {
		s.log.Error("StartTransaction failed", zap.Error(err))
		return
	}
	if txID, ok := resp["transactionId"].(float64); ok {
		s.currentTxID = int(txID)
	}
	s.currentIdTag = idTag
}

func (s *Simulator) sendStopTransaction(transactionID int) {
	meterStop := 0
	if len(s.connectors) > 0 {
		meterStop = s.connectors[0].MeterWh
	}
	payload := map[string]interface{}{
		"transactionId": transactionID,
		"idTag":         s.currentIdTag,
		"meterStop":     meterStop,
		"timestamp":     time.Now().Format(time.RFC3339),
	}
	s.sendCall("StopTransaction", payload)
}

func (s *Simulator) sendMeterValues(connectorID, valueWh int) {
	payload := map[string]interface{}{
		"connectorId":   connectorID,
		"transactionId": s.currentTxID,
		"meterValue": []map[string]interface{}{
			{
				"timestamp": time.Now().Format(time.RFC3339),
				"sampledValue": []map[string]interface{}{
					{
						"value":     strconv.Itoa(valueWh),
						"measurand": "Energy.Active.Import.Register",
						"unit":      "Wh",
					},
				},
			},
		},
	}
	s.sendCall("MeterValues", payload)
}

func (s *Simulator) sendFirmwareStatus(status string) {
	s.sendCall("FirmwareStatusNotification", map[string]interface{}{"status": status})
}

func (s *Simulator) sendDiagnosticsStatus(status string) {
	s.sendCall("DiagnosticsStatusNotification", map[string]interface{}{"status": status})
}

func (s *Simulator) heartbeatLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(time.Duration(s.heartbeatInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sendHeartbeat()
		}
	}
}

// RunInteractive drives the simulator from stdin commands.
func (s *Simulator) RunInteractive() {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		parts := strings.Fields(line)

		if len(parts) == 0 {
			fmt.Print("> ")
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "start":
			connID := 1
			idTag := "USER123"
			if len(args) > 0 {
				connID, _ = strconv.Atoi(args[0])
			}
			if len(args) > 1 {
				idTag = args[1]
			}
			s.sendStartTransaction(connID, idTag)
			s.isCharging = true
			if connID <= len(s.connectors) {
				s.connectors[connID-1].Status = "Charging"
				s.connectors[connID-1].IsCharging = true
			}
			fmt.Printf("started transaction %d on connector %d\n", s.currentTxID, connID)

		case "stop":
			if s.isCharging {
				s.sendStopTransaction(s.currentTxID)
				s.isCharging = false
				if len(s.connectors) > 0 {
					s.connectors[0].Status = "Available"
					s.connectors[0].IsCharging = false
				}
				fmt.Println("stopped charging")
			} else {
				fmt.Println("not currently charging")
			}

		case "status":
			if len(args) < 2 {
				fmt.Println("usage: status <connector> <status>")
			} else {
				connID, _ := strconv.Atoi(args[0])
				s.sendStatusNotification(connID, args[1])
				fmt.Printf("sent status %s for connector %d\n", args[1], connID)
			}

		case "meter":
			if len(args) < 1 {
				fmt.Println("usage: meter <valueWh>")
			} else {
				value, _ := strconv.Atoi(args[0])
				if len(s.connectors) > 0 {
					s.connectors[0].MeterWh = value
				}
				s.sendMeterValues(1, value)
				fmt.Printf("sent meter value: %d Wh\n", value)
			}

		case "authorize":
			if len(args) < 1 {
				fmt.Println("usage: authorize <idTag>")
			} else {
				s.sendAuthorize(args[0])
				fmt.Printf("sent authorize for %s\n", args[0])
			}

		case "heartbeat":
			s.sendHeartbeat()
			fmt.Println("sent heartbeat")

		case "fault":
			connID := 1
			if len(args) > 0 {
				connID, _ = strconv.Atoi(args[0])
			}
			s.sendStatusNotification(connID, "Faulted")
			fmt.Printf("sent fault status for connector %d\n", connID)

		case "firmware":
			status := "Installed"
			if len(args) > 0 {
				status = args[0]
			}
			s.sendFirmwareStatus(status)
			fmt.Printf("sent firmware status: %s\n", status)

		case "diagnostics":
			status := "Uploaded"
			if len(args) > 0 {
				status = args[0]
			}
			s.sendDiagnosticsStatus(status)
			fmt.Printf("sent diagnostics status: %s\n", status)

		case "quit", "exit":
			fmt.Println("goodbye!")
			return

		default:
			fmt.Printf("unknown command: %s\n", cmd)
		}

		fmt.Print("> ")
	}
}
