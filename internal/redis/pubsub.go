package redisx

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CatalogPubSub broadcasts lesson-change notifications so interested
// consumers (cache warmers, availability dashboards) can react without
// polling the catalog.
type CatalogPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewCatalogPubSub(rdb *redis.Client) *CatalogPubSub {
	return &CatalogPubSub{
		rdb:     rdb,
		channel: ChannelCatalogChanged(),
	}
}

type lessonChangedMsg struct {
	Type     string `json:"type"`
	LessonID int64  `json:"lesson_id"`
	TsUnix   int64  `json:"ts_unix"`
}

func (p *CatalogPubSub) PublishLessonChanged(ctx context.Context, lessonID int64) error {
	msg := lessonChangedMsg{
		Type:     "lesson_changed",
		LessonID: lessonID,
		TsUnix:   time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

func (p *CatalogPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, lessonID int64)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var ev lessonChangedMsg
			if err := json.Unmarshal([]byte(m.Payload), &ev); err == nil &&
				ev.LessonID != 0 {
				handler(ctx, ev.LessonID)
			}
		}
	}
}
