package mqtt

import (
	"strconv"
	"strings"

	"github.com/teslashibe/go-posture/pkg/scheduler"
)

// Control topics accepted from other windows:
//
//	<prefix>/control/focus  "true" | "false"
//	<prefix>/control/route  route string
const (
	ControlFocus = "focus"
	ControlRoute = "route"
)

// SubscribeControl forwards control messages as scheduler events.
// Malformed payloads are ignored.
func SubscribeControl(sub Subscriber, prefix string, send func(scheduler.Event)) error {
	return sub.Subscribe(Topic(prefix, "control", "+"), func(topic string, payload []byte) {
		if ev, ok := ParseControl(topic, payload); ok {
			send(ev)
		}
	})
}

// ParseControl maps one control message to a scheduler event.
func ParseControl(topic string, payload []byte) (scheduler.Event, bool) {
	name := topic[strings.LastIndex(topic, "/")+1:]
	value := strings.TrimSpace(string(payload))

	switch name {
	case ControlRoute:
		return scheduler.RouteChanged(value), true
	case ControlFocus:
		focused, err := strconv.ParseBool(value)
		if err != nil {
			return scheduler.Event{}, false
		}
		return scheduler.FocusChanged(focused), true
	}
	return scheduler.Event{}, false
}
