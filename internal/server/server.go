package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/Androix777/kanjilab-server/internal/game"
	"github.com/Androix777/kanjilab-server/internal/session"
)

// Server owns the process-wide Game actor and the HTTP/WebSocket accept
// loop. It holds no persistent storage: all state lives in the Game/Room
// actor tree for the lifetime of the process.
type Server struct {
	port             int
	game             *game.Game
	verifier         session.Verifier
	rateLimiter      *RateLimiter      // Rate limiting per client
	connectionHealth *ConnectionHealth // Connection health tracking
}

// newServer creates and initializes the server.
// Returns both the custom Server (for shutdown logic) and http.Server (for serving)
// Why both: Need access to Server methods while http.Server handles HTTP lifecycle
func newServer(port int) (*Server, *http.Server) {
	g := game.New()
	go g.Run()
	go g.Room().Run()

	srv := &Server{
		port:             port,
		game:             g,
		verifier:         session.Ed25519Verifier{},
		rateLimiter:      NewRateLimiter(20, time.Second), // 20 messages per second
		connectionHealth: NewConnectionHealth(),
	}

	go srv.checkInactiveConnections()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", srv.port),
		Handler:      srv.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return srv, httpServer
}

// Shutdown performs graceful shutdown operations.
// Why separate method: Encapsulate all shutdown logic in Server
func (s *Server) Shutdown() error {
	log.Println("server: shutdown complete, in-memory game state is discarded")
	return nil
}
