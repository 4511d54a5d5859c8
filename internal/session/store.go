// Package session tracks the live, in-memory state of each charger's
// current transaction: whether it is authorized, which transaction/order
// it is bound to, and the last meter reading seen for it. It is not
// persisted - on restart it rebuilds lazily as charge points report in.
package session

import "sync"

// Session is the per-charger live state the OCPP handlers consult to
// enforce invariants S1-S3:
//   - S1: TransactionID is set if and only if OrderID is set.
//   - S2: a charger reporting Available carries neither.
//   - S3: Meter only ever moves forward within one transaction.
type Session struct {
	Authorized    bool
	TransactionID int64
	OrderID       string
	Meter         int
}

// HasActiveTransaction reports whether the session is currently bound to
// an ongoing transaction/order pair.
func (s Session) HasActiveTransaction() bool {
	return s.TransactionID != 0
}

// Store is a mutex-guarded map of chargerID to Session, the same shape as
// registry.LocalRegistry.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Get returns a copy of the charger's current session, or a zero Session
// if none is tracked yet.
func (s *Store) Get(chargerID string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chargerID]
	if !ok {
		return Session{}
	}
	return *sess
}

// Authorize marks the charger's session as carrying a valid idTag, without
// opening a transaction.
func (s *Store) Authorize(chargerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[chargerID]
	if sess == nil {
		sess = &Session{}
		s.sessions[chargerID] = sess
	}
	sess.Authorized = true
}

// StartTransaction binds transactionID/orderID to the charger's session and
// resets its meter to meterStart.
func (s *Store) StartTransaction(chargerID string, transactionID int64, orderID string, meterStart int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[chargerID] = &Session{
		Authorized:    true,
		TransactionID: transactionID,
		OrderID:       orderID,
		Meter:         meterStart,
	}
}

// UpdateMeter records a new meter reading (Wh) for the charger's ongoing
// transaction. Readings that move backward are dropped to preserve S3.
func (s *Store) UpdateMeter(chargerID string, wh int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chargerID]
	if !ok || !sess.HasActiveTransaction() {
		return
	}
	if wh < sess.Meter {
		return
	}
	sess.Meter = wh
}

// Clear drops the charger's transaction/order binding. Called on a
// successful StopTransaction, and as the repair path whenever a
// StatusNotification reports Available while a binding is still live.
func (s *Store) Clear(chargerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chargerID]
	if !ok {
		return
	}
	sess.TransactionID = 0
	sess.OrderID = ""
	sess.Meter = 0
}

// HasActiveTransaction reports whether the charger currently carries a
// live transaction/order binding.
func (s *Store) HasActiveTransaction(chargerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chargerID]
	if !ok {
		return false
	}
	return sess.HasActiveTransaction()
}
