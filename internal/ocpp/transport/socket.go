package transport

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/seu-repo/ocpp-csms/internal/domain"
	"github.com/seu-repo/ocpp-csms/internal/ocpp"
	"github.com/seu-repo/ocpp-csms/internal/registry"
)

const (
	ocppSubprotocol = "ocpp1.6"
	pingInterval    = 20 * time.Second
	pongWait        = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin:  func(r *http.Request) bool { return true },
	Subprotocols: []string{ocppSubprotocol},
}

// connHandle adapts a *websocket.Conn to registry.Handle.
type connHandle struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (h *connHandle) SendMessage(ctx context.Context, payload []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conn.WriteMessage(websocket.TextMessage, payload)
}

func (h *connHandle) Transport() string { return "socket" }

// SharedSecretLookup resolves the HTTP Basic Auth password configured for a
// charge point under OCPP 1.6 security profile 2/3. Implemented by
// *vault.SecretManager; kept as a narrow interface here so this package
// doesn't import vault directly.
type SharedSecretLookup interface {
	GetChargerSharedSecret(chargerID string) (string, error)
}

// Socket is the persistent bidirectional websocket carrier, mandatory per
// the OCPP 1.6J spec for real charge points.
type Socket struct {
	registry registry.Registry
	inbound  InboundHandler
	log      *zap.Logger
	secrets  SharedSecretLookup

	mu      sync.Mutex
	pending map[string]chan domain.PendingCallResult

	server *http.Server
	addr   string
}

func NewSocket(addr string, reg registry.Registry, log *zap.Logger) *Socket {
	return &Socket{
		registry: reg,
		log:      log,
		pending:  make(map[string]chan domain.PendingCallResult),
		addr:     addr,
	}
}

func (s *Socket) Name() string { return "socket" }

func (s *Socket) SetInboundHandler(h InboundHandler) { s.inbound = h }

// SetSecretLookup enables HTTP Basic Auth enforcement (security profile 2/3)
// on the websocket upgrade. Left unset, the carrier accepts any charger id
// (security profile 0/1, or TLS-terminated-upstream deployments).
func (s *Socket) SetSecretLookup(l SharedSecretLookup) { s.secrets = l }

func (s *Socket) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ocpp/1.6/", s.handleWebSocket)
	mux.HandleFunc("/ocpp/1.6", s.handleWebSocket)

	s.server = &http.Server{Addr: s.addr, Handler: mux}
	s.log.Info("starting OCPP socket transport", zap.String("addr", s.addr))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("socket transport stopped", zap.Error(err))
		}
	}()
	return nil
}

func (s *Socket) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Socket) IsConnected(chargerID string) bool {
	h, ok := s.registry.Lookup(chargerID)
	if !ok {
		return false
	}
	return h.Transport() == "socket"
}

func (s *Socket) SendMessage(ctx context.Context, chargerID string, frame []byte) error {
	h, ok := s.registry.Lookup(chargerID)
	if !ok || h.Transport() != "socket" {
		return fmt.Errorf("transport: charger %s not attached via socket", chargerID)
	}
	return h.SendMessage(ctx, frame)
}

// SendCall sends an outbound CSMS-initiated Call and blocks until the
// matching CALLRESULT/CALLERROR arrives or timeout elapses.
func (s *Socket) SendCall(ctx context.Context, chargerID, uniqueID, action string, payload interface{}, timeout time.Duration) (domain.PendingCallResult, error) {
	frame, err := ocpp.EncodeCall(uniqueID, action, payload)
	if err != nil {
		return domain.PendingCallResult{}, err
	}

	wait := make(chan domain.PendingCallResult, 1)
	s.mu.Lock()
	s.pending[uniqueID] = wait
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pending, uniqueID)
		s.mu.Unlock()
	}()

	if err := s.SendMessage(ctx, chargerID, frame); err != nil {
		return domain.PendingCallResult{}, err
	}

	select {
	case r := <-wait:
		return r, nil
	case <-time.After(timeout):
		return domain.PendingCallResult{TimedOut: true}, nil
	case <-ctx.Done():
		return domain.PendingCallResult{}, ctx.Err()
	}
}

func (s *Socket) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	chargerID := chargerIDFromRequest(r)
	if chargerID == "" {
		http.Error(w, "missing charger id", http.StatusBadRequest)
		return
	}

	if s.secrets != nil {
		if !s.checkBasicAuth(chargerID, r) {
			w.Header().Set("WWW-Authenticate", `Basic realm="ocpp"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	offered := false
	for _, p := range websocket.Subprotocols(r) {
		if p == ocppSubprotocol {
			offered = true
		}
	}
	if !offered {
		http.Error(w, "subprotocol "+ocppSubprotocol+" required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	handle := &connHandle{conn: conn}
	if err := s.registry.Attach(chargerID, handle); err != nil {
		s.log.Error("registry attach failed", zap.Error(err))
		conn.Close()
		return
	}

	s.log.Info("charger connected", zap.String("charger_id", chargerID), zap.String("transport", "socket"))

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	stopPing := make(chan struct{})
	go s.pingLoop(conn, stopPing)

	defer func() {
		close(stopPing)
		conn.Close()
		s.registry.Detach(chargerID)
		s.log.Info("charger disconnected", zap.String("charger_id", chargerID))
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		s.handleFrame(chargerID, message)
	}
}

func (s *Socket) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}

func (s *Socket) handleFrame(chargerID string, raw []byte) {
	msgType, uniqueID, rest, err := ocpp.DecodeFrame(raw)
	if err != nil {
		s.log.Warn("failed to decode OCPP frame", zap.String("charger_id", chargerID), zap.Error(err))
		return
	}

	switch msgType {
	case ocpp.MessageTypeCallResult:
		s.resolvePending(uniqueID, domain.PendingCallResult{Payload: rest[0]})
		return
	case ocpp.MessageTypeCallError:
		var errorCode, errorDesc string
		if len(rest) > 1 {
			_ = jsonString(rest[0], &errorCode)
		}
		if len(rest) > 2 {
			_ = jsonString(rest[1], &errorDesc)
		}
		s.resolvePending(uniqueID, domain.PendingCallResult{ErrorCode: errorCode, ErrorDesc: errorDesc})
		return
	case ocpp.MessageTypeCall:
		if len(rest) < 2 || s.inbound == nil {
			return
		}
		var action string
		if err := jsonString(rest[0], &action); err != nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		result, err := s.inbound(ctx, chargerID, action, rest[1])
		if err != nil {
			frame, _ := ocpp.EncodeCallError(ocpp.CallError{UniqueID: uniqueID, ErrorCode: "InternalError", Description: err.Error()})
			s.SendMessage(ctx, chargerID, frame)
			return
		}
		frame, _ := ocpp.EncodeCallResult(ocpp.CallResult{UniqueID: uniqueID, Payload: result})
		s.SendMessage(ctx, chargerID, frame)
	}
}

func (s *Socket) resolvePending(uniqueID string, result domain.PendingCallResult) {
	s.mu.Lock()
	wait, ok := s.pending[uniqueID]
	s.mu.Unlock()
	if !ok {
		return
	}
	select {
	case wait <- result:
	default:
	}
}

// checkBasicAuth verifies the charger's HTTP Basic Auth credentials against
// its vault-stored shared secret. The username is expected to match the
// charger id; a missing or unreadable secret fails closed.
func (s *Socket) checkBasicAuth(chargerID string, r *http.Request) bool {
	user, pass, ok := r.BasicAuth()
	if !ok || user != chargerID {
		return false
	}

	want, err := s.secrets.GetChargerSharedSecret(chargerID)
	if err != nil {
		s.log.Warn("shared secret lookup failed", zap.String("charger_id", chargerID), zap.Error(err))
		return false
	}

	return subtleConstantTimeEqual(pass, want)
}

func subtleConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func chargerIDFromRequest(r *http.Request) string {
	path := strings.TrimPrefix(r.URL.Path, "/ocpp/1.6/")
	path = strings.Trim(path, "/")
	if path != "" {
		return path
	}
	q, _ := url.ParseQuery(r.URL.RawQuery)
	return q.Get("id")
}

func jsonString(raw []byte, out *string) error {
	return json.Unmarshal(raw, out)
}
