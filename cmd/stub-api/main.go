package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gopkg.in/yaml.v3"

	"github.com/ignite/campaign-insights/internal/source"
)

// Stub backend for local runs: serves the brand lookup from a YAML file
// so the server can start without the real brand-management service.
// Point backend.base_url at it.

type fixture struct {
	Brands []source.BrandRow `yaml:"brands"`
}

func loadFixture(path string) (fixture, error) {
	var f fixture
	data, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	err = yaml.Unmarshal(data, &f)
	return f, err
}

func newRouter(f fixture) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"campaign-insights-stub","warning":"THIS IS A STUB"}`))
	})
	r.Get(source.BrandPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		rows := f.Brands
		if rows == nil {
			rows = []source.BrandRow{}
		}
		json.NewEncoder(w).Encode(rows)
	})
	return r
}

func main() {
	log.Println("WARNING: stub backend for local testing only")

	path := "config/brands.yaml"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	f, err := loadFixture(path)
	if err != nil {
		log.Fatalf("Failed to load %s: %v", path, err)
	}
	log.Printf("Serving %d brands from %s", len(f.Brands), path)

	addr := ":9090"
	if port := os.Getenv("STUB_PORT"); port != "" {
		addr = ":" + port
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           newRouter(f),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Stub backend listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(ctx)
	log.Println("Stub stopped")
}
