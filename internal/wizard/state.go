package wizard

import "fmt"

// State is a step of the wizard. States are totally ordered.
type State int

const (
	StateCollectIdentity State = iota
	StateCollectWish
	StateCapturePhoto
	StateGenerate
	StateResults
)

// NumStates is the number of wizard steps.
const NumStates = 5

func (s State) String() string {
	switch s {
	case StateCollectIdentity:
		return "collect_identity"
	case StateCollectWish:
		return "collect_wish"
	case StateCapturePhoto:
		return "capture_photo"
	case StateGenerate:
		return "generate"
	case StateResults:
		return "results"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Number is the 1-based position of the step, for progress display.
func (s State) Number() int {
	return int(s) + 1
}

// Event drives a transition.
type Event int

const (
	EventSubmit Event = iota
	EventBack
	EventSettle
	EventRestart
)

func (e Event) String() string {
	switch e {
	case EventSubmit:
		return "submit"
	case EventBack:
		return "back"
	case EventSettle:
		return "settle"
	case EventRestart:
		return "restart"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// transitions is the complete table of allowed moves. Anything absent is
// rejected with ErrInvalidTransition.
var transitions = map[State]map[Event]State{
	StateCollectIdentity: {
		EventSubmit:  StateCollectWish,
		EventRestart: StateCollectIdentity,
	},
	StateCollectWish: {
		EventSubmit:  StateCapturePhoto,
		EventBack:    StateCollectIdentity,
		EventRestart: StateCollectIdentity,
	},
	StateCapturePhoto: {
		EventSubmit:  StateGenerate,
		EventBack:    StateCollectWish,
		EventRestart: StateCollectIdentity,
	},
	StateGenerate: {
		EventSettle: StateResults,
	},
	StateResults: {
		EventRestart: StateCollectIdentity,
	},
}

// next looks up the target of e in state s.
func next(s State, e Event) (State, bool) {
	to, ok := transitions[s][e]
	return to, ok
}
