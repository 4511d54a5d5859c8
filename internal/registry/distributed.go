package registry

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const recordTTL = time.Hour

// connectionRecord is the value stored at ocpp:connection:<chargerID>.
type connectionRecord struct {
	NodeID      string    `json:"node_id"`
	Transport   string    `json:"transport"`
	ConnectedAt time.Time `json:"connected_at"`
	LastSeen    time.Time `json:"last_seen"`
}

// DistributedRegistry wraps a LocalRegistry with Redis-backed bookkeeping
// of which node holds which charger, so a Dispatcher on another node can
// find where to relay a remote command.
type DistributedRegistry struct {
	*LocalRegistry
	redis  *redis.Client
	nodeID string
	log    *zap.Logger
}

// GenerateNodeID mirrors the distributed connection manager's server id
// scheme: <hostname>-<8 hex>.
func GenerateNodeID() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "node"
	}
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return hostname + "-00000000"
	}
	return fmt.Sprintf("%s-%s", hostname, hex.EncodeToString(buf))
}

func NewDistributedRegistry(redisClient *redis.Client, nodeID string, log *zap.Logger) *DistributedRegistry {
	return &DistributedRegistry{
		LocalRegistry: NewLocalRegistry(),
		redis:         redisClient,
		nodeID:        nodeID,
		log:           log,
	}
}

func (r *DistributedRegistry) NodeID() string { return r.nodeID }

// Attach records the charger locally and publishes the ownership record to
// Redis so other nodes can find it.
func (r *DistributedRegistry) Attach(chargerID string, h Handle) error {
	if err := r.LocalRegistry.Attach(chargerID, h); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec := connectionRecord{
		NodeID:      r.nodeID,
		Transport:   h.Transport(),
		ConnectedAt: time.Now().UTC(),
		LastSeen:    time.Now().UTC(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("registry: marshal connection record: %w", err)
	}

	pipe := r.redis.TxPipeline()
	pipe.Set(ctx, connectionKey(chargerID), data, recordTTL)
	pipe.SAdd(ctx, serverKey(r.nodeID), chargerID)
	pipe.Expire(ctx, serverKey(r.nodeID), recordTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		r.log.Warn("registry: failed to publish connection record",
			zap.String("charger_id", chargerID), zap.Error(err))
	}
	return nil
}

// Detach removes the charger locally and clears its Redis record.
func (r *DistributedRegistry) Detach(chargerID string) {
	r.LocalRegistry.Detach(chargerID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pipe := r.redis.TxPipeline()
	pipe.Del(ctx, connectionKey(chargerID))
	pipe.SRem(ctx, serverKey(r.nodeID), chargerID)
	if _, err := pipe.Exec(ctx); err != nil {
		r.log.Warn("registry: failed to clear connection record",
			zap.String("charger_id", chargerID), zap.Error(err))
	}
}

// Touch refreshes the Redis TTL of chargerID's connection record; it does
// not update the record's LastSeen. No transport carrier calls it.
func (r *DistributedRegistry) Touch(chargerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.redis.Expire(ctx, connectionKey(chargerID), recordTTL)
}

// LocateRemote returns the owning nodeID for a charger not attached on this
// node, or false if no node currently holds it.
func (r *DistributedRegistry) LocateRemote(ctx context.Context, chargerID string) (string, bool, error) {
	data, err := r.redis.Get(ctx, connectionKey(chargerID)).Bytes()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	var rec connectionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", false, err
	}
	return rec.NodeID, true, nil
}

func connectionKey(chargerID string) string { return "ocpp:connection:" + chargerID }
func serverKey(nodeID string) string        { return "ocpp:server:" + nodeID }
