// Command agent-office starts the office simulation server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, the layout directory, office storage, simulation
// speed, debug logging, version output, and optional ngrok tunneling.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/inconshreveable/log15/v3"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/agent-office/api"
	"github.com/wricardo/agent-office/game/clock"
	"github.com/wricardo/agent-office/game/config"
	"github.com/wricardo/agent-office/game/engine"
	"github.com/wricardo/agent-office/game/service"
	"github.com/wricardo/agent-office/game/session"
	"github.com/wricardo/agent-office/transport/mcp"
	"github.com/wricardo/agent-office/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Agent Office Server"
)

var logger = log15.New("module", "main")

// Configuration flags control how the server starts and which services are enabled.
var (
	port         = flag.Int("port", 8080, "HTTP server port")
	host         = flag.String("host", "localhost", "HTTP server host")
	layoutDir    = flag.String("layout-dir", envOr("LAYOUT_DIR", "layouts"), "Directory containing layouts and catalog.json")
	store        = flag.String("store", envOr("STORE", "file"), "Office storage: file, sqlite, postgres or memory")
	dataDir      = flag.String("data-dir", envOr("DATA_DIR", "offices"), "Directory for file storage, or the sqlite database path's directory")
	databaseURL  = flag.String("database-url", os.Getenv("DATABASE_URL"), "Postgres connection string for -store postgres")
	tickRate     = flag.Int("tick-rate", envInt("TICK_RATE", clock.DefaultTickRate), "Simulation ticks per second")
	stepsPerTick = flag.Float64("steps-per-tick", envFloat("STEPS_PER_TICK", engine.DefaultSettings().StepsPerTick), "Tiles a walking character advances per tick")
	stallLimit   = flag.Int("stall-limit", envInt("STALL_LIMIT", engine.DefaultSettings().StallLimit), "Ticks a blocked character waits before detouring")
	officeTTL    = flag.Duration("office-ttl", 24*time.Hour, "Remove offices not accessed for this long")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Available modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http     Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(os.Stderr, "  mcp-stdio        Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "  mcp              Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                          # Run HTTP server on default port 8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -store sqlite            # Keep offices in offices/offices.db\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -tick-rate 60 -debug     # Faster simulation with request logs\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s mcp -port 9090           # Run MCP stdio server with internal HTTP on port 9090\n", os.Args[0])
	}
}

// setupLogging routes structured logs to stderr so stdout stays free for MCP stdio
func setupLogging(debug bool) {
	level := log15.LvlInfo
	if debug {
		level = log15.LvlDebug
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
	log15.Root().SetHandler(log15.LvlFilterHandler(level, log15.StreamHandler(os.Stderr, log15.TerminalFormat())))
}

// main parses flags, initializes services, and starts the selected mode.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	setupLogging(*debug)

	args := flag.Args()
	mode := "server"
	if len(args) > 0 {
		mode = args[0]
	}

	log.Printf("Starting %s v%s (mode: %s)", AppName, Version, mode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	svc, err := initializeServices(ctx, hub)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer svc.Close()

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		runStdioMCPWithInternalServer(svc.offices, hub)

	case "server", "http":
		runHTTPServer(ctx, svc.offices, hub)

	default:
		log.Fatalf("Unknown mode: %s. Use 'server' (default) or 'stdio-mcp'", mode)
	}
}

// services bundles what main wires together and must shut down
type services struct {
	offices  service.OfficeService
	sessions *session.Manager
	configs  *config.Manager
	closer   io.Closer
}

// Close saves and stops every office, then releases the store
func (s *services) Close() {
	if err := s.sessions.SaveAllOffices(); err != nil {
		logger.Warn("failed to save offices", "err", err)
	}
	s.sessions.StopAll()
	if s.closer != nil {
		if err := s.closer.Close(); err != nil {
			logger.Warn("failed to close office store", "err", err)
		}
	}
}

// newPersistence opens the office store selected by -store
func newPersistence(kind, dir, dsn string) (session.OfficePersistence, io.Closer, error) {
	switch kind {
	case "memory":
		return nil, nil, nil
	case "file":
		p, err := session.NewFilePersistence(dir)
		return p, nil, err
	case "sqlite":
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, err
		}
		p, err := session.NewSQLitePersistence(fmt.Sprintf("%s/offices.db", dir))
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	case "postgres":
		if dsn == "" {
			return nil, nil, fmt.Errorf("-store postgres requires -database-url or DATABASE_URL")
		}
		p, err := session.NewPostgresPersistence(dsn)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", kind)
	}
}

// initializeServices wires config/session managers and the office service.
// Offices start ticking immediately and stop when ctx is done.
// It also starts a background cleanup routine to prune stale offices.
func initializeServices(ctx context.Context, hub *websocket.Hub) (*services, error) {
	configManager, err := config.NewManager(*layoutDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	settings := engine.DefaultSettings()
	settings.StepsPerTick = *stepsPerTick
	settings.StallLimit = *stallLimit
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	persistence, closer, err := newPersistence(*store, *dataDir, *databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create office persistence: %w", err)
	}

	opts := []session.Option{
		session.WithCatalog(configManager.Catalog()),
		session.WithSettings(settings),
		session.WithClock(clock.Config{TickRate: *tickRate}),
		session.WithRunContext(ctx),
	}
	if persistence != nil {
		opts = append(opts, session.WithPersistence(persistence))
	}
	if hub != nil {
		opts = append(opts, session.WithPublisher(hub))
	}
	sessionManager := session.NewManager(opts...)

	if err := sessionManager.LoadPersistedOffices(); err != nil {
		logger.Warn("failed to load persisted offices", "err", err)
	}

	go officeCleanupRoutine(ctx, sessionManager, *officeTTL)

	return &services{
		offices:  service.NewOfficeService(sessionManager, configManager),
		sessions: sessionManager,
		configs:  configManager,
		closer:   closer,
	}, nil
}

// officeCleanupRoutine periodically removes offices that have not been
// accessed within the retention window.
func officeCleanupRoutine(ctx context.Context, manager *session.Manager, ttl time.Duration) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredOffices(ttl); removed > 0 {
				logger.Info("cleaned up expired offices", "removed", removed)
			}
		}
	}
}

// newRouter mounts the REST API and the /mcp JSON-RPC endpoint
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) *http.ServeMux {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})
	return mainRouter
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled (via flag or environment), it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, officeService service.OfficeService, hub *websocket.Hub) {
	apiServer := api.NewServer(officeService, hub)

	addr := fmt.Sprintf("%s:%d", *host, *port)
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))
	mainRouter := newRouter(apiServer, mcpClient)

	// no WriteTimeout: WebSocket streams are long-lived
	httpServer := &http.Server{
		Addr:        addr,
		Handler:     mainRouter,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?office=<office_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	ngrokShouldRun := *ngrokEnabled
	if !ngrokShouldRun {
		if envEnabled := os.Getenv("NGROK_ENABLED"); envEnabled == "true" || envEnabled == "1" {
			ngrokShouldRun = true
		}
	}

	if ngrokShouldRun {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, mainRouter)
		}()
	}

	sig := <-stop
	log.Printf("Received signal: %v. Shutting down...", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "err", err)
	}

	wg.Wait()
	log.Println("Server stopped")
}

// runNgrokTunnel serves handler through an ngrok endpoint until ctx is done
func runNgrokTunnel(ctx context.Context, handler http.Handler) {
	// Get auth token from flag or environment (support both naming conventions)
	authToken := *ngrokAuth
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTHTOKEN")
		if authToken == "" {
			authToken = os.Getenv("NGROK_AUTH_TOKEN")
		}
	}

	if authToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	domain := *ngrokDomain
	if domain == "" {
		domain = os.Getenv("NGROK_DOMAIN")
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Printf("Using custom ngrok domain: %s", domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx,
		tunnel,
		ngrok.WithAuthtoken(authToken),
	)
	if err != nil {
		logger.Error("failed to start ngrok tunnel", "err", err)
		return
	}
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn("failed to close ngrok tunnel", "err", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("🚀 Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?office=<office_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed {
		logger.Error("ngrok server error", "err", err)
	}
	log.Println("Ngrok tunnel closed")
}

// externalServerAvailable reports whether an office server answers at baseURL
func externalServerAvailable(baseURL string) bool {
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at the configured port; if unavailable, it
// starts a minimal internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(officeService service.OfficeService, hub *websocket.Hub) {
	var baseURL string

	externalURL := fmt.Sprintf("http://localhost:%d", *port)
	log.Printf("Checking for external API server at %s...", externalURL)

	if externalServerAvailable(externalURL) {
		log.Printf("External API server found at %s, using it for MCP", externalURL)
		baseURL = externalURL
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			log.Fatalf("Failed to get available port: %v", err)
		}
		internalAddr := listener.Addr().String()
		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		httpServer := &http.Server{
			Handler: api.NewServer(officeService, hub),
		}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				logger.Error("internal HTTP server error", "err", err)
			}
		}()

		baseURL = fmt.Sprintf("http://%s", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)

	if baseURL == externalURL {
		log.Println("MCP stdio server ready (using external HTTP server)")
	} else {
		log.Println("MCP stdio server ready (using internal HTTP server)")
	}

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		log.Fatalf("MCP stdio server error: %v", err)
	}
}
