package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"seedflow-backend/internal/domain/oracle"
)

const (
	eventsKey    = "oracle:events"
	inboxPrefix  = "oracle:inbox:"
	unreadPrefix = "oracle:unread:"

	// newest entries kept per lender inbox
	inboxLimit = 100
)

var _ oracle.Inbox = (*OracleInbox)(nil)

// OracleInbox keeps the global event log in a list, oldest first, and each
// lender's inbox newest first with an unread counter.
type OracleInbox struct {
	rdb *goredis.Client
}

func NewOracleInbox(rdb *goredis.Client) *OracleInbox { return &OracleInbox{rdb: rdb} }

func (s *OracleInbox) Append(ctx context.Context, ev oracle.Event, lenders []string) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode oracle event: %w", err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.RPush(ctx, eventsKey, raw)
		for _, l := range lenders {
			p.LPush(ctx, inboxPrefix+l, raw)
			p.LTrim(ctx, inboxPrefix+l, 0, inboxLimit-1)
			p.Incr(ctx, unreadPrefix+l)
		}
		return nil
	})
	return err
}

func (s *OracleInbox) Events(ctx context.Context) ([]oracle.Event, error) {
	raws, err := s.rdb.LRange(ctx, eventsKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return decode(raws)
}

func (s *OracleInbox) Inbox(ctx context.Context, lenderID string) ([]oracle.Event, int64, error) {
	raws, err := s.rdb.LRange(ctx, inboxPrefix+lenderID, 0, -1).Result()
	if err != nil {
		return nil, 0, err
	}
	evs, err := decode(raws)
	if err != nil {
		return nil, 0, err
	}
	unread, err := s.rdb.Get(ctx, unreadPrefix+lenderID).Int64()
	if errors.Is(err, goredis.Nil) {
		return evs, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return evs, unread, nil
}

func (s *OracleInbox) MarkRead(ctx context.Context, lenderID string) error {
	return s.rdb.Del(ctx, unreadPrefix+lenderID).Err()
}

func decode(raws []string) ([]oracle.Event, error) {
	out := make([]oracle.Event, 0, len(raws))
	for _, r := range raws {
		var ev oracle.Event
		if err := json.Unmarshal([]byte(r), &ev); err != nil {
			return nil, fmt.Errorf("decode oracle event: %w", err)
		}
		out = append(out, ev)
	}
	return out, nil
}
