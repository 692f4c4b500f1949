package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

// serverState bundles the two halves newServer produces so the package-level
// gate below can tear both down together.
type serverState struct {
	srv        *Server
	httpServer *http.Server
}

// Go has no direct equivalent of the original Rust server's single-instance
// OnceLock<Mutex<Option<ServerState>>> gate, so it is realized here as a
// package-level mutex guarding a nilable pointer: nil means "not running".
var (
	stateMu sync.Mutex
	state   *serverState
)

// LaunchServer starts the HTTP/WebSocket server on port. It is non-blocking:
// the HTTP server runs in its own goroutine. Returns an error if a server is
// already running in this process.
func LaunchServer(port int) error {
	stateMu.Lock()
	defer stateMu.Unlock()

	if state != nil {
		return fmt.Errorf("server: already running")
	}

	srv, httpServer := newServer(port)
	state = &serverState{srv: srv, httpServer: httpServer}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("server: listen error: %v", err)
		}
	}()

	return nil
}

// StopServer performs a bounded graceful shutdown of the currently running
// server. Returns an error if no server is running.
func StopServer() error {
	stateMu.Lock()
	current := state
	state = nil
	stateMu.Unlock()

	if current == nil {
		return fmt.Errorf("server: not running")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := current.srv.Shutdown(); err != nil {
		log.Printf("server: error during shutdown: %v", err)
	}
	return current.httpServer.Shutdown(ctx)
}
