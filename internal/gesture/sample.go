package gesture

import (
	"fmt"
	"time"

	"github.com/Vince095/HeatmapSDK/internal/event"
)

// Action is the phase of a pointer sample within a contact.
type Action int

const (
	// ActionDown starts a contact.
	ActionDown Action = iota + 1
	// ActionMove reports a new position for the active contact.
	ActionMove
	// ActionUp ends the contact normally.
	ActionUp
	// ActionCancel aborts the contact (the host took over the gesture).
	ActionCancel
	// ActionPointerDown reports an additional pointer, a multi-touch conflict.
	ActionPointerDown
)

var actionNames = map[Action]string{
	ActionDown:        "down",
	ActionMove:        "move",
	ActionUp:          "up",
	ActionCancel:      "cancel",
	ActionPointerDown: "pointer_down",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// ParseAction converts a lowercase action name back into an Action.
func ParseAction(s string) (Action, error) {
	for a, name := range actionNames {
		if name == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown pointer action %q", s)
}

// Sample is one low-level pointer observation.
type Sample struct {
	Action   Action
	X        float64
	Y        float64
	Pressure float64 // 0 when the device does not report pressure
	Time     time.Time
}

func (s Sample) finite() bool {
	return event.IsFinite(s.X) && event.IsFinite(s.Y)
}
