package rpcchannel

import (
	"fmt"
	"sync"
)

// baseHost and basePort define the address pool RPC channels are allocated
// from, kept in a distinct range from the diagnostics websocket endpoint.
const (
	baseHost = "127.11.2.78"
	basePort = 8000
)

var pool = struct {
	mu   sync.Mutex
	next int
	used map[string]bool
}{used: map[string]bool{}}

// allocAddr returns the next unused address in this process's RPC pool.
func allocAddr() string {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	for {
		addr := fmt.Sprintf("%s:%d", baseHost, basePort+pool.next)
		pool.next++
		if !pool.used[addr] {
			pool.used[addr] = true
			return addr
		}
	}
}

// releaseAddr removes addr from the in-use set. allocAddr only moves
// forward from the last port it handed out, so a released address is not
// handed out again within this process's lifetime.
func releaseAddr(addr string) {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	delete(pool.used, addr)
}
