package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// presenceTTL keeps stale entries from outliving a crashed edge controller.
const presenceTTL = 24 * time.Hour

// PresenceService mirrors "who is on which machine" into Redis so dashboards
// can read it without hitting the database. 实时在岗缓存。
// The cache is optional: a nil client turns every call into a no-op, which is
// how edge deployments without Redis run.
type PresenceService struct {
	redis *redis.Client
}

// NewPresenceService creates the presence cache. redisClient may be nil.
func NewPresenceService(redisClient *redis.Client) *PresenceService {
	return &PresenceService{redis: redisClient}
}

func presenceKey(machineNo string) string {
	return fmt.Sprintf("facegate:presence:%s", machineNo)
}

// SetActive records operatorID as the active operator on machineNo.
func (s *PresenceService) SetActive(ctx context.Context, machineNo, operatorID string) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Set(ctx, presenceKey(machineNo), operatorID, presenceTTL).Err()
}

// SetOffline clears the active operator for machineNo.
func (s *PresenceService) SetOffline(ctx context.Context, machineNo string) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Del(ctx, presenceKey(machineNo)).Err()
}

// ActiveOperator returns the operator currently on machineNo, or "" if the
// machine is idle or the cache is disabled.
func (s *PresenceService) ActiveOperator(ctx context.Context, machineNo string) (string, error) {
	if s.redis == nil {
		return "", nil
	}
	val, err := s.redis.Get(ctx, presenceKey(machineNo)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}
