package mqtt

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/teslashibe/go-posture/internal/log"
	"github.com/teslashibe/go-posture/pkg/state"
)

// Topic builds "<prefix>/<parts...>".
func Topic(prefix string, parts ...string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	return strings.Join(append([]string{prefix}, parts...), "/")
}

// StateSink mirrors distributor updates to "<prefix>/state/<kind>".
type StateSink struct {
	pub    Publisher
	prefix string
	logger *slog.Logger
}

// NewStateSink creates a sink publishing through pub.
func NewStateSink(pub Publisher, prefix string) *StateSink {
	return &StateSink{
		pub:    pub,
		prefix: prefix,
		logger: log.With("component", "mqtt-sink"),
	}
}

// Run publishes updates until ctx is done or updates is closed.
func (s *StateSink) Run(ctx context.Context, updates <-chan state.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := s.publish(u); err != nil {
				s.logger.Warn("publish failed", "kind", u.Kind, "error", err)
			}
		}
	}
}

func (s *StateSink) publish(u state.Update) error {
	payload, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return s.pub.Publish(Topic(s.prefix, "state", string(u.Kind)), payload)
}
