// internal/server/timeouts.go
//
// HTTP server helper with robust timeouts.
//
// The rewriter sits in front of every platform request, so a slow client
// must not pin a goroutine:
//
//   • ReadTimeout   – abort slow-loris headers
//   • WriteTimeout  – cap total response time
//   • IdleTimeout   – close keep-alives on idle clients
//
// Values come from the `http` config block; zero keeps the fallback below.

package server

import (
	"net/http"
	"time"
)

// Timeouts mirrors config.HTTP without importing it.
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
}

// Fallback applies when a Timeouts field is zero.
var Fallback = Timeouts{Read: 10 * time.Second, Write: 15 * time.Second, Idle: 60 * time.Second}

// New constructs an *http.Server with the given timeouts.
func New(addr string, handler http.Handler, t Timeouts) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: pick(t.Read, Fallback.Read),
		ReadTimeout:       pick(t.Read, Fallback.Read),
		WriteTimeout:      pick(t.Write, Fallback.Write),
		IdleTimeout:       pick(t.Idle, Fallback.Idle),
	}
}

func pick(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}
