// Package events publishes user interactions for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	kgo "github.com/segmentio/kafka-go"
)

type Type string

const (
	UserSignedUp   Type = "user.signed_up"
	UserFollowed   Type = "user.followed"
	UserUnfollowed Type = "user.unfollowed"
	PostCreated    Type = "post.created"
	PostViewed     Type = "post.viewed"
	PostLiked      Type = "post.liked"
	PostUnliked    Type = "post.unliked"
	CommentCreated Type = "comment.created"
	PreferenceSet  Type = "preference.updated"
)

type Event struct {
	Type     Type      `json:"type"`
	UserID   string    `json:"userId"`
	PostID   string    `json:"postId,omitempty"`
	TargetID string    `json:"targetId,omitempty"`
	At       time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

type KafkaConfig struct {
	Brokers string `yaml:"brokers"`
	Topic   string `yaml:"topic"`
}

// KafkaPublisher writes events as JSON messages keyed by user id.
type KafkaPublisher struct {
	w *kgo.Writer
}

func NewKafkaPublisher(cfg KafkaConfig) *KafkaPublisher {
	var addrs []string
	for _, b := range strings.Split(cfg.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}
	w := &kgo.Writer{
		Addr:         kgo.TCP(addrs...),
		Topic:        cfg.Topic,
		Balancer:     &kgo.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kgo.RequireOne,
		Async:        true,
		Completion: func(messages []kgo.Message, err error) {
			if err != nil {
				slog.Warn("event delivery failed", "count", len(messages), "error", err)
			}
		},
	}
	return &KafkaPublisher{w: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return p.w.WriteMessages(ctx, kgo.Message{
		Key:   []byte(e.UserID),
		Value: b,
		Time:  e.At,
	})
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }
