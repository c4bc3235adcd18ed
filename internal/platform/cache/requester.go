package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/ledger-archive/internal/ledger"
)

const (
	versionKey = "ledger-archive:cache:version"
	keyPrefix  = "ledger-archive:query"
)

// Requester caches list and record responses of an upstream ledger
// requester in Redis. Byte payloads (attachments, documents) always go
// upstream. Concurrent identical requests share one upstream call.
type Requester struct {
	next   ledger.Requester
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewRequester wraps next. A nil client disables caching.
func NewRequester(next ledger.Requester, client *redis.Client, ttl time.Duration) *Requester {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Requester{next: next, client: client, ttl: ttl}
}

// Request answers req from the cache or the upstream requester.
func (r *Requester) Request(ctx context.Context, req ledger.Request) (ledger.Payload, error) {
	if r.next == nil {
		return ledger.Payload{}, errors.New("cache: upstream requester required")
	}
	if r.client == nil {
		return r.next.Request(ctx, req)
	}
	key, err := r.key(ctx, req)
	if err != nil {
		return r.next.Request(ctx, req)
	}
	raw, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		return decodePayload(raw)
	}
	if !errors.Is(err, redis.Nil) {
		return ledger.Payload{}, fmt.Errorf("cache: get %s: %w", key, err)
	}

	ch := r.group.DoChan(key, func() (any, error) {
		payload, err := r.next.Request(ctx, req)
		if err != nil {
			return nil, err
		}
		if payload.Kind == ledger.PayloadBytes {
			return payload, nil
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
			return nil, fmt.Errorf("cache: set %s: %w", key, err)
		}
		return payload, nil
	})
	select {
	case <-ctx.Done():
		return ledger.Payload{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return ledger.Payload{}, res.Err
		}
		return res.Val.(ledger.Payload), nil
	}
}

// Bump invalidates every cached response by moving to a new key version.
func (r *Requester) Bump(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Incr(ctx, versionKey).Err()
}

func (r *Requester) key(ctx context.Context, req ledger.Request) (string, error) {
	ver, err := r.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		ver = 0
	} else if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d:%s", keyPrefix, ver, req.Key()), nil
}

func decodePayload(raw []byte) (ledger.Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var payload ledger.Payload
	if err := dec.Decode(&payload); err != nil {
		return ledger.Payload{}, fmt.Errorf("cache: decode payload: %w", err)
	}
	return payload, nil
}
