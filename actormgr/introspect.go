package actormgr

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// diagHost and diagPort place the diagnostics endpoint in a distinct range
// from the RPC channel pool (127.11.2.78:8000+n).
const (
	diagHost = "127.11.2.78"
	diagPort = 7000
)

type statusSnapshot struct {
	Actors []actorStatus `json:"actors"`
}

type actorStatus struct {
	Name   string `json:"name"`
	PID    int    `json:"pid"`
	Status string `json:"status"`
}

// Introspect serves GET /status, upgrading to a WebSocket that streams a
// newline-delimited JSON snapshot of the status table on every poll tick.
// It only reads the table, never mutates it, and runs independently of the
// actor lifecycle it reports on (spec §5 addition).
type Introspect struct {
	mgr    *Manager
	srv    *http.Server
	period time.Duration
}

// NewIntrospect builds (but does not start) the diagnostics server for mgr.
func NewIntrospect(mgr *Manager) *Introspect {
	ix := &Introspect{mgr: mgr, period: 500 * time.Millisecond}
	mux := http.NewServeMux()
	mux.HandleFunc("/status", ix.handleStatus)
	ix.srv = &http.Server{Addr: diagHost + ":" + strconv.Itoa(diagPort), Handler: mux}
	return ix
}

// Serve starts the HTTP listener. It blocks until the server stops.
func (ix *Introspect) Serve() error {
	return ix.srv.ListenAndServe()
}

// Shutdown gracefully stops the HTTP listener.
func (ix *Introspect) Shutdown(ctx context.Context) error {
	return ix.srv.Shutdown(ctx)
}

func (ix *Introspect) handleStatus(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer c.CloseNow()

	ctx := r.Context()
	ticker := time.NewTicker(ix.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = c.Close(websocket.StatusNormalClosure, "")
			return
		case <-ticker.C:
			snap := ix.snapshot()
			wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(wctx, c, snap)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (ix *Introspect) snapshot() statusSnapshot {
	ix.mgr.mu.Lock()
	defer ix.mgr.mu.Unlock()
	snap := statusSnapshot{Actors: make([]actorStatus, 0, len(ix.mgr.actors))}
	for _, a := range ix.mgr.actors {
		snap.Actors = append(snap.Actors, actorStatus{
			Name:   a.Name,
			PID:    a.PID,
			Status: ix.mgr.status.get(a.slot).String(),
		})
	}
	return snap
}
