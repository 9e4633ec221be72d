package events

import "context"

// NopPublisher discards all events. Used when no brokers are configured.
type NopPublisher struct{}

var _ Publisher = NopPublisher{}

func (NopPublisher) Publish(ctx context.Context, key string, event any) error { return nil }

func (NopPublisher) Close() error { return nil }
