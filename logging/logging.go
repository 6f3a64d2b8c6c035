// Package logging wires the process's stdlib *log.Logger through a
// rotating file sink, the way the original feeder logged straight to
// stdout but with rotation added for the long-running actor/channel
// infrastructure this module adds.
package logging

import (
	"io"
	"log"
	"os"

	"github.com/agilira/lethe"
)

// New returns a *log.Logger that writes to both stdout and, if path is
// non-empty, a rotating file sink at path. The sink rotates at 100MB and
// keeps 5 compressed backups.
func New(prefix, path string) *log.Logger {
	if path == "" {
		return log.New(os.Stdout, prefix, log.LstdFlags|log.Lmicroseconds)
	}
	sink := &lethe.Logger{
		Filename:   path,
		MaxSizeStr: "100MB",
		MaxBackups: 5,
		Compress:   true,
	}
	return log.New(io.MultiWriter(os.Stdout, sink), prefix, log.LstdFlags|log.Lmicroseconds)
}
