package slothold

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// HoldTTL bounds how long a booker can hold a slot between validation and
// persistence. The database unique index remains the authoritative guard;
// the hold only narrows the race window.
const HoldTTL = 15 * time.Second

type Holder struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Holder {
	return &Holder{rdb: rdb}
}

func key(organizerID uint, start time.Time) string {
	return fmt.Sprintf("slothold:%d:%d", organizerID, start.Unix())
}

// Acquire takes a short advisory hold on (organizer, start). Returns false
// when another booker already holds the slot. Redis being unreachable is
// treated as acquired: the lock is an optimization, not the guarantee.
func (h *Holder) Acquire(ctx context.Context, organizerID uint, start time.Time) bool {
	if h == nil || h.rdb == nil {
		return true
	}
	ok, err := h.rdb.SetNX(ctx, key(organizerID, start), 1, HoldTTL).Result()
	if err != nil {
		return true
	}
	return ok
}

func (h *Holder) Release(ctx context.Context, organizerID uint, start time.Time) {
	if h == nil || h.rdb == nil {
		return
	}
	h.rdb.Del(ctx, key(organizerID, start))
}
