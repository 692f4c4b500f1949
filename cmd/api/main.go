package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/Androix777/kanjilab-server/internal/server"
)

func gracefulShutdown(done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("Shutdown signal received, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	if err := server.StopServer(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	done <- true
}

func main() {
	if err := server.LaunchServer(8080); err != nil {
		log.Fatalf("failed to launch server: %v", err)
	}

	done := make(chan bool, 1)
	go gracefulShutdown(done)

	<-done
	log.Println("Graceful shutdown complete.")
}
