package command

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/ocpp-csms/internal/ocpperr"
)

// relayEnvelope is published on ocpp:route:<chargerID> by the node that
// wants to reach a charger attached elsewhere in the cluster.
type relayEnvelope struct {
	MessageID string      `json:"messageId"`
	ChargerID string      `json:"chargerId"`
	Action    string      `json:"action"`
	Payload   interface{} `json:"payload"`
	FromNode  string      `json:"fromNode"`
	Deadline  time.Time   `json:"deadline"`
}

// relayResponse is written to ocpp:response:<messageId> by whichever node
// actually holds the charger's socket.
type relayResponse struct {
	OK        bool            `json:"ok"`
	ErrorCode string          `json:"errorCode,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func routeChannel(chargerID string) string { return "ocpp:route:" + chargerID }
func responseKey(messageID string) string  { return "ocpp:response:" + messageID }

// relay publishes action to the node currently holding chargerID and waits
// for its ack, returning only whether the remote CallResult reported
// success.
func (d *Dispatcher) relay(ctx context.Context, chargerID, messageID, action string, payload interface{}) (bool, error) {
	resp, err := d.doRelay(ctx, chargerID, messageID, action, payload)
	if err != nil {
		return false, err
	}
	if !resp.OK {
		return false, ocpperr.New(ocpperr.Kind(resp.ErrorCode), fmt.Sprintf("remote node rejected %s for %s", action, chargerID))
	}
	return true, nil
}

// relayWithResult is the relay() counterpart for commands whose CallResult
// payload the caller needs back (GetConfiguration).
func (d *Dispatcher) relayWithResult(ctx context.Context, chargerID, messageID, action string, payload interface{}) (map[string]interface{}, error) {
	resp, err := d.doRelay(ctx, chargerID, messageID, action, payload)
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, ocpperr.New(ocpperr.Kind(resp.ErrorCode), fmt.Sprintf("remote node rejected %s for %s", action, chargerID))
	}
	var out map[string]interface{}
	if len(resp.Payload) > 0 {
		if err := json.Unmarshal(resp.Payload, &out); err != nil {
			return nil, fmt.Errorf("command: decode relayed %s result: %w", action, err)
		}
	}
	return out, nil
}

func (d *Dispatcher) doRelay(ctx context.Context, chargerID, messageID, action string, payload interface{}) (*relayResponse, error) {
	nodeID, found, err := d.distributedReg.LocateRemote(ctx, chargerID)
	if err != nil {
		return nil, fmt.Errorf("command: locate %s: %w", chargerID, err)
	}
	if !found {
		return nil, ocpperr.New(ocpperr.ChargerNotConnected, fmt.Sprintf("charger %s is not connected to any node", chargerID))
	}

	deadline := time.Now().Add(d.timeout)
	env := relayEnvelope{
		MessageID: messageID,
		ChargerID: chargerID,
		Action:    action,
		Payload:   payload,
		FromNode:  d.nodeID,
		Deadline:  deadline,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("command: marshal relay envelope: %w", err)
	}

	if err := d.redis.Publish(ctx, routeChannel(chargerID), data).Err(); err != nil {
		return nil, fmt.Errorf("command: publish relay for %s: %w", chargerID, err)
	}
	d.log.Debug("relayed command to remote node",
		zap.String("charger_id", chargerID), zap.String("action", action), zap.String("node_id", nodeID))

	return d.awaitRelayResponse(ctx, messageID, deadline)
}

func (d *Dispatcher) awaitRelayResponse(ctx context.Context, messageID string, deadline time.Time) (*relayResponse, error) {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			raw, err := d.redis.GetDel(ctx, responseKey(messageID)).Bytes()
			if err == nil {
				var resp relayResponse
				if err := json.Unmarshal(raw, &resp); err != nil {
					return nil, fmt.Errorf("command: decode relay response: %w", err)
				}
				return &resp, nil
			}
			if time.Now().After(deadline) {
				return nil, ocpperr.New(ocpperr.Timeout, fmt.Sprintf("no relay response for message %s", messageID))
			}
		}
	}
}

// StartRelaySubscriber listens for commands other nodes relay to chargers
// attached locally. It is a no-op when the dispatcher is not running in
// distributed mode.
func (d *Dispatcher) StartRelaySubscriber(ctx context.Context) error {
	if d.distributedReg == nil {
		return nil
	}
	pubsub := d.redis.PSubscribe(ctx, "ocpp:route:*")
	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				d.handleRelayEnvelope(ctx, msg.Payload)
			}
		}
	}()
	d.log.Info("listening for relayed commands", zap.String("node_id", d.nodeID))
	return nil
}

func (d *Dispatcher) handleRelayEnvelope(ctx context.Context, raw string) {
	var env relayEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		d.log.Warn("failed to decode relay envelope", zap.Error(err))
		return
	}
	if !d.transport.IsConnected(env.ChargerID) {
		return
	}

	remaining := time.Until(env.Deadline)
	if remaining <= 0 {
		return
	}

	resp := relayResponse{OK: true}
	result, err := d.transport.SendCallWithResult(ctx, env.ChargerID, env.MessageID, env.Action, env.Payload, remaining)
	if err != nil {
		resp.OK = false
		resp.ErrorCode = string(ocpperr.KindOf(err))
	} else if result != nil {
		payload, merr := json.Marshal(result)
		if merr != nil {
			resp.OK = false
			resp.ErrorCode = string(ocpperr.Transient)
		} else {
			resp.Payload = payload
		}
	}

	data, err := json.Marshal(resp)
	if err != nil {
		d.log.Warn("failed to encode relay response", zap.Error(err))
		return
	}
	if err := d.redis.Set(ctx, responseKey(env.MessageID), data, d.timeout+time.Second).Err(); err != nil {
		d.log.Warn("failed to publish relay response", zap.String("charger_id", env.ChargerID), zap.Error(err))
	}
}
