// clearsite API Server
// HTTP backend for the public marketing site and its admin surface.
package main

import (
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clearsite/clearsite/internal/api"
	"github.com/clearsite/clearsite/internal/version"
	"github.com/clearsite/clearsite/pkg/audit"
	"github.com/clearsite/clearsite/pkg/authority"
	"github.com/clearsite/clearsite/pkg/directory"
	"github.com/clearsite/clearsite/pkg/identity"
	"github.com/clearsite/clearsite/pkg/store"
)

var (
	listenAddr    = flag.String("listen", ":8080", "HTTP listen address")
	dbPath        = flag.String("db", "", "Database path (default: ~/.local/share/clearsite/clearsite.db)")
	directoryURL  = flag.String("directory-url", envOr("CLEARSITE_DIRECTORY_URL", ""), "Credential service base URL")
	serviceKey    = flag.String("service-key", envOr("CLEARSITE_SERVICE_KEY", ""), "Credential service admin key")
	masterHandle  = flag.String("master-handle", envOr("CLEARSITE_MASTER_HANDLE", ""), "Master key contact handle")
	masterSecret  = flag.String("master-secret", envOr("CLEARSITE_MASTER_SECRET", ""), "Master key secret")
	implicitAdmin = flag.Bool("implicit-admin", false, "Grant admin tier to verified subjects without a record (legacy)")
	debug         = flag.Bool("debug", false, "Enable debug logging")
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	flag.CommandLine.SetOutput(os.Stdout)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	log.Printf("clearsite API %s starting...", version.String())

	// Open database
	path := *dbPath
	if path == "" {
		path = store.DefaultPath()
	}

	db, err := store.Open(path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Credential directory. Absent configuration still starts the
	// server: the master key can manage content, but identity lifecycle
	// operations fail cleanly.
	var oracle identity.CredentialOracle
	if *directoryURL != "" {
		client, err := directory.New(*directoryURL, *serviceKey, directory.WithLogger(logger))
		if err != nil {
			log.Fatalf("Failed to configure credential directory: %v", err)
		}
		oracle = client
	} else {
		log.Printf("No credential directory configured; identity lifecycle operations are disabled")
		oracle = directory.Unconfigured{}
	}

	if *masterHandle == "" || *masterSecret == "" {
		log.Printf("Master key not configured; master tier is unreachable")
	}
	recognizer := authority.NewRecognizer(*masterHandle, *masterSecret)

	resolver := authority.NewResolver(recognizer, oracle, db, authority.Config{
		Logger:        logger,
		ImplicitAdmin: *implicitAdmin,
	})

	emitter := audit.NewEmitter(logger, db)
	svc := identity.NewService(resolver, db, oracle, emitter, logger)

	server := api.NewServer(db, svc, resolver)

	mux := http.NewServeMux()
	server.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:    *listenAddr,
		Handler: loggingMiddleware(corsMiddleware(mux)),
	}

	// Handle shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Println("Shutting down...")
		httpServer.Close()
	}()

	log.Printf("HTTP server listening on %s", *listenAddr)
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("HTTP server error: %v", err)
	}

	log.Println("API server stopped")
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusResponseWriter{ResponseWriter: w, statusCode: 200}
		next.ServeHTTP(sw, r)
		log.Printf("%s %s %d %dms", r.Method, r.URL.Path, sw.statusCode, time.Since(start).Milliseconds())
	})
}
