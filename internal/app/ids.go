package app

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dvirla/calendar-agent-backend/internal/domain"
)

// actionIDGenerator issues ids of the form <type>_<seq>_<unixSeconds>, e.g.
// create_3_1700000000. The monotonic counter keeps concurrent proposals in
// the same second from colliding.
type actionIDGenerator struct {
	seq atomic.Uint64
}

func (g *actionIDGenerator) next(t domain.ActionType, now time.Time) string {
	return fmt.Sprintf("%s_%d_%d", idPrefix(t), g.seq.Add(1), now.Unix())
}

func idPrefix(t domain.ActionType) string {
	switch t {
	case domain.ActionCreateEvent:
		return "create"
	case domain.ActionUpdateEvent:
		return "update"
	case domain.ActionDeleteEvent:
		return "delete"
	}
	return "action"
}
