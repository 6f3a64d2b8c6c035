// Package selector implements a first-match-wins wait across multiple
// receive ports (spec §4.8), analogous to the original condition-variable
// broadcast design: every observable port signals a shared condition on
// arrival, and Select scans its case list in order once woken.
package selector

import (
	"sync"

	"github.com/alephcore/msginfra/port"
)

// Case pairs a receive port with the action to run when it is chosen.
type Case struct {
	Port   port.RecvPort
	Action func(port.RecvPort)
}

// Select blocks until at least one case's port is ready, then runs the
// first ready case's Action in declaration order (first-match-wins) and
// returns its index. Spurious wakeups are tolerated: Select simply rescans.
func Select(cases []Case) int {
	var mu sync.Mutex
	cond := sync.NewCond(&mu)
	unsub := make([]func(), len(cases))

	for i, c := range cases {
		obs, ok := c.Port.(port.Observable)
		if !ok {
			continue
		}
		unsub[i] = obs.AddObserver(func() {
			mu.Lock()
			cond.Broadcast()
			mu.Unlock()
		})
	}
	defer func() {
		for _, fn := range unsub {
			if fn != nil {
				fn()
			}
		}
	}()

	mu.Lock()
	defer mu.Unlock()
	for {
		for i, c := range cases {
			if c.Port.Probe() {
				mu.Unlock()
				c.Action(c.Port)
				mu.Lock()
				return i
			}
		}
		cond.Wait()
	}
}

// TrySelect performs one non-blocking scan, returning (index, true) for the
// first ready case, or (-1, false) if none are ready.
func TrySelect(cases []Case) (int, bool) {
	for i, c := range cases {
		if c.Port.Probe() {
			c.Action(c.Port)
			return i, true
		}
	}
	return -1, false
}
