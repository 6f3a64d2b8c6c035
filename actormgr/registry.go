// Package actormgr implements the actor and process manager (spec §4.7):
// BuildActor forks a user closure into its own process and tracks it via a
// shared-memory status table; the manager supervises and tears down every
// actor, channel, and resource it created.
//
// Go's runtime is not fork-safe once goroutines and threads exist, so
// "fork a closure" is implemented the way production Go process
// supervisors do it (kubernetes' and containerd's reexec packages take the
// same approach): the child re-execs the same binary with an environment
// variable naming a closure registered in this process's entry table, and
// MaybeReexec intercepts that at startup before main's normal logic runs.
package actormgr

import (
	"fmt"
	"os"
)

const reexecEnvVar = "ALEPHCORE_ACTOR_ENTRY"

var entries = map[string]func(){}

// RegisterEntry names fn so a re-exec'd child process can find and run it.
// Call from an init function or before any BuildActor call that references
// name.
func RegisterEntry(name string, fn func()) {
	entries[name] = fn
}

// MaybeReexec checks whether this process was launched to run a registered
// entry. If so it runs the entry and returns true; the caller must exit
// immediately afterward rather than continuing into normal startup.
func MaybeReexec() bool {
	name := os.Getenv(reexecEnvVar)
	if name == "" {
		return false
	}
	fn, ok := entries[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "actormgr: no entry registered for %q\n", name)
		os.Exit(1)
	}
	fn()
	return true
}
