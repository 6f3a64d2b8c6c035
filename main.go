// Command msginfra wires up actors and channels end to end: a relay actor
// reads off a shmem channel and republishes onto a second one, while the
// main process feeds it messages and watches the reply — the same
// orchestration shape as the original feeder's main, generalised from "one
// goroutine per exchange" to "one actor per stage". The topology is fixed
// in code: main parses the config file if one is present but does not use
// its channels or actors.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/alephcore/msginfra/actormgr"
	"github.com/alephcore/msginfra/config"
	"github.com/alephcore/msginfra/factory"
	"github.com/alephcore/msginfra/logging"
	"github.com/alephcore/msginfra/meta"
	"github.com/alephcore/msginfra/port"
	"github.com/alephcore/msginfra/pubsub"
	"github.com/alephcore/msginfra/ringshm"
)

const (
	toRelayEnvPrefix   = "TORELAY"
	fromRelayEnvPrefix = "FROMRELAY"
)

const relayEntry = "relay"

func init() {
	actormgr.RegisterEntry(relayEntry, runRelay)
}

func main() {
	if actormgr.MaybeReexec() {
		return
	}

	logger := logging.New("msginfra: ", config.StringEnv("ALEPHCORE_LOG_FILE", ""))
	logger.Println("🧩 msginfra starting...")

	cfgPath := config.StringEnv("ALEPHCORE_CONFIG", "config.toml")
	if err := config.LoadEnv(""); err != nil {
		logger.Fatalf("load .env: %v", err)
	}
	_, err := config.Load(cfgPath)
	if err != nil {
		logger.Printf("no config at %s, using built-in defaults: %v", cfgPath, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var nc *nats.Conn
	if url := config.StringEnv("ALEPHCORE_NATS_URL", ""); url != "" {
		conn, err := pubsub.Connect(url)
		if err != nil {
			logger.Printf("nats: %v (pub/sub channels disabled)", err)
		} else {
			nc = conn
			defer conn.Close()
		}
	}

	f := factory.New(nc)
	mgr, err := actormgr.NewManager(f, 8)
	if err != nil {
		logger.Fatalf("actormgr: %v", err)
	}
	defer mgr.Cleanup(true)

	ixServer := actormgr.NewIntrospect(mgr)
	go func() {
		if err := ixServer.Serve(); err != nil {
			logger.Printf("introspect: %v", err)
		}
	}()
	defer ixServer.Shutdown(context.Background())

	toRelay, err := mgr.GetChannel(port.SHMEM, 4, 64, "main", "relay")
	if err != nil {
		logger.Fatalf("toRelay channel: %v", err)
	}
	fromRelay, err := mgr.GetChannel(port.SHMEM, 4, 64, "relay", "main")
	if err != nil {
		logger.Fatalf("fromRelay channel: %v", err)
	}
	logger.Printf("📡 channels ready: %s, %s", toRelay.Name(), fromRelay.Name())

	env := map[string]string{}
	for k, v := range ringshm.ChannelEnv(toRelayEnvPrefix, toRelay.(*ringshm.Channel)) {
		env[k] = v
	}
	for k, v := range ringshm.ChannelEnv(fromRelayEnvPrefix, fromRelay.(*ringshm.Channel)) {
		env[k] = v
	}
	actor, err := mgr.BuildActor(relayEntry, env)
	if err != nil {
		logger.Fatalf("build relay actor: %v", err)
	}
	logger.Printf("🔌 relay actor pid=%d slot=%d", actor.PID, actor.Slot())

	send := toRelay.GetSendPort()
	recv := fromRelay.GetRecvPort()

	m, err := meta.NewMeta(meta.Uint8, 5)
	if err != nil {
		logger.Fatalf("meta: %v", err)
	}

	go func() {
		for i := 0; ctx.Err() == nil; i++ {
			payload := []byte{byte(i), 1, 2, 3, 4}
			if err := send.Send(m, payload); err != nil {
				logger.Printf("send: %v", err)
				return
			}
			time.Sleep(200 * time.Millisecond)
		}
	}()

	go func() {
		for {
			_, payload, err := recv.Recv()
			if err != nil {
				logger.Printf("recv: %v", err)
				return
			}
			logger.Printf("relay replied: %v", payload)
		}
	}()

	<-ctx.Done()
	logger.Println("shutting down...")
	if err := mgr.Stop(); err != nil {
		logger.Printf("stop: %v", err)
	}
	logger.Println("👋 stopped.")
}

// runRelay is the relay actor's entry point: it never runs in the parent
// process, only in the re-exec'd child (see actormgr.MaybeReexec). It
// attaches to the two shmem channels its parent built for it and pumps
// every message it reads off toRelay back out onto fromRelay unchanged. It
// is a single echoing relay; it does not modify payloads or forward to a
// second actor.
func runRelay() {
	log.SetPrefix("relay: ")

	toRelay, err := ringshm.AttachChannelFromEnv(toRelayEnvPrefix)
	if err != nil {
		log.Fatalf("attach toRelay: %v", err)
	}
	fromRelay, err := ringshm.AttachChannelFromEnv(fromRelayEnvPrefix)
	if err != nil {
		log.Fatalf("attach fromRelay: %v", err)
	}

	recv := toRelay.GetRecvPort()
	send := fromRelay.GetSendPort()
	log.Println("relay actor running")
	for {
		m, payload, err := recv.Recv()
		if err != nil {
			log.Printf("recv: %v", err)
			return
		}
		if err := send.Send(m, payload); err != nil {
			log.Printf("send: %v", err)
			return
		}
	}
}
