package core

// Action represents a semantic action, abstracted from physical key presses.
type Action int

const (
	ActionNone    Action = iota
	ActionLeft           // A, Left arrow - move paddle left
	ActionRight          // D, Right arrow - move paddle right
	ActionRestart        // R key - restart after the session ended
	ActionQuit           // Q, Ctrl+C - exit
	ActionPause          // P, Space - pause/unpause
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionLeft:
		return "Left"
	case ActionRight:
		return "Right"
	case ActionRestart:
		return "Restart"
	case ActionQuit:
		return "Quit"
	case ActionPause:
		return "Pause"
	default:
		return "Unknown"
	}
}

// Direction is the paddle input for one step: -1 left, 0 stay, +1 right.
type Direction int

const (
	DirLeft  Direction = -1
	DirStay  Direction = 0
	DirRight Direction = 1
)

// DirectionFromAction maps the discrete action space used by headless agents
// (0 = stay, 1 = left, 2 = right) to a paddle direction.
func DirectionFromAction(action int) Direction {
	switch action {
	case 1:
		return DirLeft
	case 2:
		return DirRight
	default:
		return DirStay
	}
}

// InputFrame represents the input state during one frame.
type InputFrame struct {
	Actions map[Action]bool
}

// NewInputFrame creates an empty input frame.
func NewInputFrame() InputFrame {
	return InputFrame{
		Actions: make(map[Action]bool),
	}
}

// Set marks an action as triggered for this frame.
func (f *InputFrame) Set(a Action) {
	if f.Actions == nil {
		f.Actions = make(map[Action]bool)
	}
	f.Actions[a] = true
}

// Has returns true if the given action was triggered this frame.
func (f InputFrame) Has(a Action) bool {
	if f.Actions == nil {
		return false
	}
	return f.Actions[a]
}

// Clear resets all actions for the next frame.
func (f *InputFrame) Clear() {
	for k := range f.Actions {
		delete(f.Actions, k)
	}
}

// Direction folds left/right actions into a paddle direction.
// Pressing both cancels out.
func (f InputFrame) Direction() Direction {
	var d Direction
	if f.Has(ActionLeft) {
		d--
	}
	if f.Has(ActionRight) {
		d++
	}
	return d
}
