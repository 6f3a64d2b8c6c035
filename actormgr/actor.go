package actormgr

import "os/exec"

// Actor is a record {pid, status-slot-index, user-closure} (spec §3): a
// child process running a registered closure, plus the bookkeeping needed
// to stop and reap it.
type Actor struct {
	Name string
	PID  int
	slot int
	cmd  *exec.Cmd
}

// Slot returns this actor's index into the manager's status table.
func (a *Actor) Slot() int { return a.slot }
