package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

// ListenAndServe starts a dedicated HTTP server for the operator status
// endpoint. It reads the STATUS_PORT env var (default ":9090"); setting
// STATUS_PORT to the empty string disables the server. Shuts down gracefully
// when ctx is cancelled.
func ListenAndServe(ctx context.Context, c *Collector) {
	port := Addr()
	if port == "" {
		log.Println("STATUS_PORT is empty, status server disabled")
		return
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(c.Snapshot(r.Context()))
	})

	srv := &http.Server{
		Addr:         port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("status server shutdown error: %v", err)
		}
	}()

	log.Printf("status server listening on %s", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("status server error: %v", err)
	}
}

// Addr returns the status server address from env, or the default.
func Addr() string {
	port := os.Getenv("STATUS_PORT")
	if port == "" {
		if _, ok := os.LookupEnv("STATUS_PORT"); ok {
			return ""
		}
		return ":9090"
	}
	if port[0] != ':' {
		return fmt.Sprintf(":%s", port)
	}
	return port
}
