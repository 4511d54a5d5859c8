package transport

import (
	"container/list"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/seu-repo/ocpp-csms/internal/ocpp"
	"github.com/seu-repo/ocpp-csms/internal/registry"
)

// pullQueue is a per-charger FIFO of frames awaiting delivery, used by
// chargers that poll over plain HTTP instead of holding a socket open.
type pullQueue struct {
	mu      sync.Mutex
	frames  *list.List
	handle  *pullHandle
}

type pullHandle struct {
	queue *pullQueue
}

func (h *pullHandle) SendMessage(ctx context.Context, payload []byte) error {
	h.queue.mu.Lock()
	defer h.queue.mu.Unlock()
	h.queue.frames.PushBack(payload)
	return nil
}

func (h *pullHandle) Transport() string { return "pull" }

// Pull is the fallback carrier for chargers behind networks that block
// long-lived websockets: inbound frames arrive as POSTs, outbound frames
// are drained via a GET poll.
type Pull struct {
	registry registry.Registry
	inbound  InboundHandler
	log      *zap.Logger

	mu     sync.Mutex
	queues map[string]*pullQueue
}

func NewPull(reg registry.Registry, log *zap.Logger) *Pull {
	return &Pull{
		registry: reg,
		log:      log,
		queues:   make(map[string]*pullQueue),
	}
}

func (p *Pull) Name() string { return "pull" }

func (p *Pull) SetInboundHandler(h InboundHandler) { p.inbound = h }

// Mount attaches the pull-carrier routes to an existing chi router, since
// it shares the admin HTTP server rather than listening standalone.
func (p *Pull) Mount(r chi.Router) {
	r.Post("/ocpp/1.6/pull/{id}", p.handlePost)
	r.Get("/ocpp/1.6/pull/{id}", p.handlePoll)
}

func (p *Pull) Start(ctx context.Context) error { return nil }

func (p *Pull) Stop(ctx context.Context) error { return nil }

func (p *Pull) IsConnected(chargerID string) bool {
	h, ok := p.registry.Lookup(chargerID)
	if !ok {
		return false
	}
	return h.Transport() == "pull"
}

func (p *Pull) SendMessage(ctx context.Context, chargerID string, frame []byte) error {
	h, ok := p.registry.Lookup(chargerID)
	if !ok || h.Transport() != "pull" {
		return fmt.Errorf("transport: charger %s not attached via pull", chargerID)
	}
	return h.SendMessage(ctx, frame)
}

func (p *Pull) queueFor(chargerID string) *pullQueue {
	p.mu.Lock()
	defer p.mu.Unlock()
	q, ok := p.queues[chargerID]
	if !ok {
		q = &pullQueue{frames: list.New()}
		q.handle = &pullHandle{queue: q}
		p.queues[chargerID] = q
	}
	return q
}

func (p *Pull) handlePost(w http.ResponseWriter, r *http.Request) {
	chargerID := chi.URLParam(r, "id")
	if chargerID == "" {
		http.Error(w, "missing charger id", http.StatusBadRequest)
		return
	}

	q := p.queueFor(chargerID)
	if err := p.registry.Attach(chargerID, q.handle); err != nil {
		http.Error(w, "attach failed", http.StatusInternalServerError)
		return
	}

	var frames []json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&frames); err != nil {
		http.Error(w, "malformed batch", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	for _, raw := range frames {
		p.dispatchRaw(ctx, chargerID, raw)
	}

	w.WriteHeader(http.StatusAccepted)
}

func (p *Pull) dispatchRaw(ctx context.Context, chargerID string, raw json.RawMessage) {
	msgType, uniqueID, rest, err := ocpp.DecodeFrame(raw)
	if err != nil || msgType != ocpp.MessageTypeCall || len(rest) < 2 {
		p.log.Warn("pull: malformed frame", zap.String("charger_id", chargerID))
		return
	}
	var action string
	if err := json.Unmarshal(rest[0], &action); err != nil {
		return
	}
	if p.inbound == nil {
		return
	}
	result, err := p.inbound(ctx, chargerID, action, rest[1])
	if err != nil {
		frame, _ := ocpp.EncodeCallError(ocpp.CallError{UniqueID: uniqueID, ErrorCode: "InternalError", Description: err.Error()})
		p.SendMessage(ctx, chargerID, frame)
		return
	}
	frame, _ := ocpp.EncodeCallResult(ocpp.CallResult{UniqueID: uniqueID, Payload: result})
	p.SendMessage(ctx, chargerID, frame)
}

func (p *Pull) handlePoll(w http.ResponseWriter, r *http.Request) {
	chargerID := chi.URLParam(r, "id")
	q := p.queueFor(chargerID)

	q.mu.Lock()
	out := make([]json.RawMessage, 0, q.frames.Len())
	for e := q.frames.Front(); e != nil; e = e.Next() {
		out = append(out, json.RawMessage(e.Value.([]byte)))
	}
	q.frames.Init()
	q.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}
