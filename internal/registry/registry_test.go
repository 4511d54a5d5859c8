package registry

import (
	"context"
	"testing"
)

type fakeHandle struct {
	transport string
	sent      [][]byte
}

func (f *fakeHandle) SendMessage(ctx context.Context, payload []byte) error {
	f.sent = append(f.sent, payload)
	return nil
}

func (f *fakeHandle) Transport() string { return f.transport }

func TestLocalRegistry_AttachLookupDetach(t *testing.T) {
	// Arrange
	r := NewLocalRegistry()
	h := &fakeHandle{transport: "socket"}

	// Act
	if err := r.Attach("cp-1", h); err != nil {
		t.Fatalf("attach failed: %v", err)
	}

	// Assert
	got, ok := r.Lookup("cp-1")
	if !ok {
		t.Fatal("expected charger to be attached")
	}
	if got.Transport() != "socket" {
		t.Errorf("expected transport 'socket', got %q", got.Transport())
	}
	if r.Count() != 1 {
		t.Errorf("expected count 1, got %d", r.Count())
	}

	r.Detach("cp-1")
	if _, ok := r.Lookup("cp-1"); ok {
		t.Error("expected charger to be detached")
	}
	if r.Count() != 0 {
		t.Errorf("expected count 0 after detach, got %d", r.Count())
	}
}

func TestLocalRegistry_AttachRejectsEmptyID(t *testing.T) {
	r := NewLocalRegistry()
	if err := r.Attach("", &fakeHandle{}); err == nil {
		t.Fatal("expected error for empty charger id")
	}
}

func TestLocalRegistry_List(t *testing.T) {
	r := NewLocalRegistry()
	r.Attach("cp-1", &fakeHandle{transport: "socket"})
	r.Attach("cp-2", &fakeHandle{transport: "pull"})

	ids := r.List()
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}
}

func TestGenerateNodeID_Format(t *testing.T) {
	id := GenerateNodeID()
	if len(id) == 0 {
		t.Fatal("expected non-empty node id")
	}
	// <hostname>-<8 hex>: at least a dash and 8 trailing hex chars.
	if len(id) < 9 || id[len(id)-9] != '-' {
		t.Errorf("expected node id to end with '-<8hex>', got %q", id)
	}
}
