package actormgr

import (
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/alephcore/msginfra/factory"
	"github.com/alephcore/msginfra/msgerr"
	"github.com/alephcore/msginfra/port"
	"github.com/alephcore/msginfra/ringshm"
)

// Manager is the process manager (component I): it builds actors, owns the
// status table they report into, and tears down every channel and shared
// resource the factory allocated on its behalf.
type Manager struct {
	mu       sync.Mutex
	factory  *factory.Factory
	status   *statusTable
	actors   []*Actor
	channels []port.Channel
	cleaned  bool
}

// NewManager allocates a status table sized for up to maxActors actors.
func NewManager(f *factory.Factory, maxActors int) (*Manager, error) {
	if maxActors <= 0 {
		return nil, fmt.Errorf("%w: maxActors must be > 0", msgerr.ErrResourceExhausted)
	}
	raw, err := ringshm.NewRawRegion(fmt.Sprintf("status%d", rand.Int63()), int64(maxActors))
	if err != nil {
		return nil, err
	}
	return &Manager{factory: f, status: &statusTable{raw: raw}}, nil
}

// GetChannel builds a channel through the underlying factory and tracks it
// so Cleanup can join it later.
func (m *Manager) GetChannel(kind port.Kind, capacity, nbytes int, src, dst string) (port.Channel, error) {
	ch, err := m.factory.GetChannel(kind, capacity, nbytes, src, dst)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.channels = append(m.channels, ch)
	m.mu.Unlock()
	return ch, nil
}

// BuildActor reserves a status slot, marks it Running, and re-execs this
// binary to run the closure registered under name in a child process
// (spec §4.7 step 1-4; see registry.go for why re-exec stands in for raw
// fork()). env carries the rendezvous info for whichever ports the entry
// needs to open (spec §2: "opens the send/receive ports assigned to its
// closure") — build it with ringshm.ChannelEnv for SHMEM channels; PUBSUB
// and RPC channels need no such step since a topic or address is already
// dialable directly by the child.
func (m *Manager) BuildActor(name string, env map[string]string) (*Actor, error) {
	if _, ok := entries[name]; !ok {
		return nil, fmt.Errorf("%w: no entry registered for %q", msgerr.ErrResourceExhausted, name)
	}

	m.mu.Lock()
	slot := len(m.actors)
	if slot >= len(m.status.raw.Bytes()) {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: status table full", msgerr.ErrResourceExhausted)
	}
	m.status.set(slot, StatusRunning)
	m.mu.Unlock()

	cmd := exec.Command(os.Args[0])
	cmd.Env = append(os.Environ(), reexecEnvVar+"="+name)
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		m.mu.Lock()
		m.status.set(slot, StatusError)
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: start actor %s: %v", msgerr.ErrResourceExhausted, name, err)
	}

	actor := &Actor{Name: name, PID: cmd.Process.Pid, slot: slot, cmd: cmd}
	m.mu.Lock()
	m.actors = append(m.actors, actor)
	m.mu.Unlock()
	return actor, nil
}

// Status returns the current status of actor.
func (m *Manager) Status(actor *Actor) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status.get(actor.slot)
}

// Stop sends SIGTERM to every actor not yet terminated and waits for each.
func (m *Manager) Stop() error {
	return m.stopAll(syscall.SIGTERM)
}

// ForceStop sends SIGKILL to every actor not yet terminated and waits for
// each, skipping the soft-signal step.
func (m *Manager) ForceStop() error {
	return m.stopAll(syscall.SIGKILL)
}

func (m *Manager) stopAll(sig syscall.Signal) error {
	m.mu.Lock()
	actors := append([]*Actor{}, m.actors...)
	m.mu.Unlock()

	var firstErr error
	for _, a := range actors {
		m.mu.Lock()
		if m.status.get(a.slot) == StatusTerminated {
			m.mu.Unlock()
			continue
		}
		m.status.set(a.slot, StatusStopped)
		m.mu.Unlock()

		if err := a.cmd.Process.Signal(sig); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("signal actor %s: %w", a.Name, err)
		}
		_ = a.cmd.Wait()

		m.mu.Lock()
		m.status.set(a.slot, StatusTerminated)
		m.mu.Unlock()
	}
	return firstErr
}

// Cleanup joins every port this manager's factory created (idempotent),
// then — if full — releases the shared-memory manager's segments and this
// manager's own status table. Must run only in the owning process.
func (m *Manager) Cleanup(full bool) error {
	m.mu.Lock()
	channels := append([]port.Channel{}, m.channels...)
	alreadyCleaned := m.cleaned
	m.cleaned = true
	m.mu.Unlock()

	var firstErr error
	if !alreadyCleaned {
		for _, ch := range channels {
			if err := ch.GetSendPort().Join(); err != nil && firstErr == nil {
				firstErr = err
			}
			if err := ch.GetRecvPort().Join(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}

	if !full {
		return firstErr
	}
	if err := m.factory.ShmManager().DeleteAllSharedMemory(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := m.status.raw.DetachAndUnlink(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
