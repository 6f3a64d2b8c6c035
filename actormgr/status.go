package actormgr

import "github.com/alephcore/msginfra/ringshm"

// Status is one actor's single-byte, single-writer state (spec §4.7). The
// byte is written only by the manager, under its mutex (Running at build,
// Error on a failed start, Stopped then Terminated during Stop/ForceStop);
// the actor process itself does not write it. Transitions are monotone
// with respect to the terminal states.
type Status byte

const (
	StatusUnknown Status = iota
	StatusRunning
	StatusStopped
	StatusPaused
	StatusTerminated
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "Running"
	case StatusStopped:
		return "Stopped"
	case StatusPaused:
		return "Paused"
	case StatusTerminated:
		return "Terminated"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// statusTable is the shared-memory region of N byte-sized status slots, one
// per actor (spec: "Status table (S)").
type statusTable struct {
	raw *ringshm.RawRegion
}

func (t *statusTable) get(slot int) Status {
	return Status(t.raw.Bytes()[slot])
}

func (t *statusTable) set(slot int, s Status) {
	t.raw.Bytes()[slot] = byte(s)
}
