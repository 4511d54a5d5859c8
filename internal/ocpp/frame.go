// Package ocpp implements the OCPP 1.6J action dispatch table and the
// per-charger concurrency model (worker pool + mailbox) described in the
// design notes.
package ocpp

import "encoding/json"

// OCPP 1.6J message type ids (spec §4.2/§9).
const (
	MessageTypeCall       = 2
	MessageTypeCallResult = 3
	MessageTypeCallError  = 4
)

// Call is an inbound [2, UniqueId, Action, Payload] frame.
type Call struct {
	UniqueID string
	Action   string
	Payload  json.RawMessage
}

// CallResult is an outbound [3, UniqueId, Payload] frame.
type CallResult struct {
	UniqueID string
	Payload  interface{}
}

// CallError is an outbound [4, UniqueId, ErrorCode, ErrorDescription, ErrorDetails] frame.
type CallError struct {
	UniqueID    string
	ErrorCode   string
	Description string
}

// DecodeFrame parses a raw OCPP array frame and returns its message type,
// unique id and remaining elements. Only Call frames (sent by charge points)
// are routed to handlers; a CallResult/CallError correlates against the
// socket carrier's pending table instead (see transport/socket.go).
func DecodeFrame(raw []byte) (msgType int, uniqueID string, rest []json.RawMessage, err error) {
	var msg []json.RawMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return 0, "", nil, err
	}
	if len(msg) < 3 {
		return 0, "", nil, errShortFrame
	}
	if err := json.Unmarshal(msg[0], &msgType); err != nil {
		return 0, "", nil, err
	}
	if err := json.Unmarshal(msg[1], &uniqueID); err != nil {
		return 0, "", nil, err
	}
	return msgType, uniqueID, msg[2:], nil
}

// EncodeCallResult marshals a [3, UniqueId, Payload] frame.
func EncodeCallResult(r CallResult) ([]byte, error) {
	return json.Marshal([]interface{}{MessageTypeCallResult, r.UniqueID, r.Payload})
}

// EncodeCallError marshals a [4, UniqueId, ErrorCode, ErrorDescription, {}] frame.
func EncodeCallError(e CallError) ([]byte, error) {
	return json.Marshal([]interface{}{MessageTypeCallError, e.UniqueID, e.ErrorCode, e.Description, map[string]string{}})
}

// EncodeCall marshals an outbound [2, UniqueId, Action, Payload] frame,
// used by the command dispatcher to send CSMS-initiated requests.
func EncodeCall(uniqueID, action string, payload interface{}) ([]byte, error) {
	return json.Marshal([]interface{}{MessageTypeCall, uniqueID, action, payload})
}

type frameError string

func (e frameError) Error() string { return string(e) }

const errShortFrame = frameError("ocpp: frame too short")
