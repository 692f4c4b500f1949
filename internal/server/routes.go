package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/Androix777/kanjilab-server/internal/session"
	"github.com/Androix777/kanjilab-server/internal/transport"
	"github.com/Androix777/kanjilab-server/internal/wire"
)

// rateLimitedReceiver sits between Transport and Session: it applies the
// per-client rate limit and activity tracking to every decoded inbound
// envelope before handing it to the Session's own mailbox. Why here rather
// than in Session: rate limiting is a connection-level concern, not part of
// the handshake/game state machine.
type rateLimitedReceiver struct {
	next     transport.Receiver
	limiter  *RateLimiter
	health   *ConnectionHealth
	clientID string
}

func (r *rateLimitedReceiver) Deliver(env wire.Envelope) {
	r.health.UpdateActivity(r.clientID)
	if !r.limiter.Allow(r.clientID) {
		log.Printf("rate limit exceeded for client %s, dropping %s", r.clientID, env.MessageType)
		return
	}
	r.next.Deliver(env)
}

func (s *Server) RegisterRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.HelloWorldHandler)
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/websocket", s.websocketHandler)

	return s.corsMiddleware(mux)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Environment-based CORS configuration
		// Why environment-based: Development needs flexible CORS, production should be restrictive
		origin := s.getAllowedOrigin()

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-CSRF-Token")
		w.Header().Set("Access-Control-Allow-Credentials", "false")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getAllowedOrigin returns the CORS origin based on environment
// Why: Centralize CORS logic for easy testing and modification
func (s *Server) getAllowedOrigin() string {
	env := os.Getenv("ENVIRONMENT")

	if env == "production" {
		return os.Getenv("ALLOWED_ORIGIN")
	}

	// Development/Test: Allow all origins
	return "*"
}

func (s *Server) HelloWorldHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"message": "kanjilab-server"}
	jsonResp, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(jsonResp); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := json.Marshal(map[string]string{"status": "up"})
	if err != nil {
		http.Error(w, "Failed to marshal health check response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(resp); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

// websocketHandler accepts a connection and wires up the Session/Transport
// pair that will carry it for its lifetime, then admits the Session into
// the Game as a pending (unregistered) client.
func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	originPatterns := []string{"*"}
	if os.Getenv("ENVIRONMENT") == "production" {
		if origin := os.Getenv("ALLOWED_ORIGIN"); origin != "" {
			originPatterns = []string{origin}
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns,
	})
	if err != nil {
		http.Error(w, "Failed to open websocket", http.StatusInternalServerError)
		return
	}
	defer conn.Close(websocket.StatusGoingAway, "Server closing")

	ctx := r.Context()
	clientID := uuid.New()
	log.Printf("New connection: %s", clientID)

	sess := session.New(clientID, s.game, s.verifier)
	receiver := &rateLimitedReceiver{
		next:     sess,
		limiter:  s.rateLimiter,
		health:   s.connectionHealth,
		clientID: clientID.String(),
	}
	trans := transport.New(conn, receiver)
	sess.AttachTransport(trans)

	s.connectionHealth.UpdateActivity(clientID.String())

	go sess.Run()
	s.game.AdmitPending(clientID, sess)

	done := make(chan struct{})
	go s.heartbeatLoop(ctx, conn, clientID.String(), done)

	trans.Run(ctx, func() {
		close(done)
		sess.Kill()
		s.rateLimiter.RemoveConnection(clientID.String())
		s.connectionHealth.RemoveConnection(clientID.String())
		log.Printf("Connection closed: %s", clientID)
	})
}

// heartbeatLoop sends periodic pings to detect dead connections
// Why separate goroutine: Don't block message processing
func (s *Server) heartbeatLoop(ctx context.Context, conn *websocket.Conn, clientID string, done chan struct{}) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.Ping(ctx); err != nil {
				log.Printf("Heartbeat ping failed for %s: %v", clientID, err)
				return
			}
		}
	}
}

// checkInactiveConnections runs periodically to surface connections that
// haven't sent anything in a while. Detection only: the heartbeat ping
// already tears down connections whose socket is actually dead.
func (s *Server) checkInactiveConnections() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		inactive := s.connectionHealth.GetInactiveConnections(5 * time.Minute)
		if len(inactive) > 0 {
			log.Printf("Found %d inactive connections", len(inactive))
		}
	}
}
