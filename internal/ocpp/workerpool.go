package ocpp

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

const defaultMailboxBuffer = 32

// Dispatcher owns one mailbox goroutine per charger (buffer
// defaultMailboxBuffer). Inbound frames for a charger are always processed
// by that charger's mailbox goroutine, in arrival order, while frames for
// different chargers run concurrently; the number of mailbox goroutines is
// not bounded.
type Dispatcher struct {
	handlers *Handlers
	log      *zap.Logger

	mu       sync.Mutex
	mailbox  map[string]*mailbox
	sendFunc func(ctx context.Context, chargerID string, frame []byte) error
}

func NewDispatcher(handlers *Handlers, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: handlers,
		log:      log,
		mailbox:  make(map[string]*mailbox),
	}
}

// Attach creates and starts a mailbox goroutine for chargerID unless one
// already exists. Dispatch calls it on a charger's first frame.
func (d *Dispatcher) Attach(chargerID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.mailbox[chargerID]; ok {
		return
	}
	mb := newMailbox(defaultMailboxBuffer)
	d.mailbox[chargerID] = mb
	go mb.run(d.process)
}

// Detach stops and removes chargerID's mailbox.
func (d *Dispatcher) Detach(chargerID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if mb, ok := d.mailbox[chargerID]; ok {
		mb.close()
		delete(d.mailbox, chargerID)
	}
}

// Dispatch enqueues an inbound Call payload for chargerID and blocks until
// its handler has run, returning the CallResult payload or error.
func (d *Dispatcher) Dispatch(ctx context.Context, chargerID, action string, payload []byte) (interface{}, error) {
	d.mu.Lock()
	mb, ok := d.mailbox[chargerID]
	d.mu.Unlock()
	if !ok {
		d.Attach(chargerID)
		d.mu.Lock()
		mb = d.mailbox[chargerID]
		d.mu.Unlock()
	}

	reply := make(chan inboundResult, 1)
	select {
	case mb.frames <- inboundFrame{ctx: ctx, chargerID: chargerID, action: action, payload: payload, reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-reply:
		return r.payload, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *Dispatcher) process(f inboundFrame) {
	result, err := d.handlers.Handle(f.ctx, f.chargerID, f.action, f.payload)
	if f.reply != nil {
		f.reply <- inboundResult{payload: result, err: err}
	}
}
