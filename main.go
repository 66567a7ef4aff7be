// Command slpu starts the Snakes and Ladders PowerUp solver.
//
// It supports three commands:
//  1. "server" (default) – runs the HTTP server exposing /slpu, the REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "solve" – solves an SVG board file offline and prints the rolls
//
// Flags control host/port, the profile directory, the run store, debug
// logging and optional ngrok tunneling for external access during development.
// Every flag can also be set from the environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/slpu/api"
	"github.com/wricardo/mcp-training/slpu/game/config"
	"github.com/wricardo/mcp-training/slpu/game/runs"
	"github.com/wricardo/mcp-training/slpu/game/service"
	"github.com/wricardo/mcp-training/slpu/transport/mcp"
	"github.com/wricardo/mcp-training/slpu/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Snakes and Ladders PowerUp Solver"
)

// Run store kinds
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Runs older than runRetention are pruned every cleanupInterval
const (
	runRetention    = 24 * time.Hour
	cleanupInterval = time.Hour
)

// main loads .env, parses flags and runs the selected command.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the command tree. Flags declared on the root are shared by
// every subcommand.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "slpu",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing search profiles", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "default-profile", Value: config.DefaultProfile, Usage: "Profile used when a request names none", Sources: cli.EnvVars("DEFAULT_PROFILE")},
			&cli.StringFlag{Name: "store", Value: StoreMemory, Usage: "Run store: memory, file or sqlite", Sources: cli.EnvVars("RUN_STORE")},
			&cli.StringFlag{Name: "data", Usage: "Run store location (default runs/ for file, runs.db for sqlite)", Sources: cli.EnvVars("RUN_DATA")},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging", Sources: cli.EnvVars("DEBUG")},
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				log.SetFlags(log.LstdFlags | log.Lshortfile)
			} else {
				log.SetFlags(log.LstdFlags)
			}
			return ctx, nil
		},
		Action: runServerCommand,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with /slpu, REST API, WebSocket, and MCP endpoint",
				Action:  runServerCommand,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  runStdioCommand,
			},
			{
				Name:      "solve",
				Usage:     "Solve an SVG board file and print the rolls",
				ArgsUsage: "<board.svg|->",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "profile", Usage: "Search profile name"},
					&cli.Int64Flag{Name: "seed", Usage: "Random seed (0 picks a fresh one)"},
					&cli.BoolFlag{Name: "json", Usage: "Print the full result as JSON"},
				},
				Action: runSolveCommand,
			},
		},
	}
}

// serviceOptions selects the profile directory and run store
type serviceOptions struct {
	ConfigDir      string
	DefaultProfile string
	Store          string
	DataPath       string
}

func serviceOptionsFrom(cmd *cli.Command) serviceOptions {
	return serviceOptions{
		ConfigDir:      cmd.String("config-dir"),
		DefaultProfile: cmd.String("default-profile"),
		Store:          cmd.String("store"),
		DataPath:       cmd.String("data"),
	}
}

// services holds the wired solver and its stores
type services struct {
	solver   *service.Solver
	runs     *runs.Manager
	profiles *config.Manager
	close    func() error
}

// initializeServices wires the profile manager, run store and solver.
func initializeServices(opts serviceOptions) (*services, error) {
	profiles, err := config.NewManager(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile manager: %w", err)
	}
	if opts.DefaultProfile != "" && opts.DefaultProfile != config.DefaultProfile {
		if err := profiles.SetDefault(opts.DefaultProfile); err != nil {
			return nil, fmt.Errorf("failed to set default profile %s: %w", opts.DefaultProfile, err)
		}
	}

	manager, closeStore, err := openRunStore(opts.Store, opts.DataPath)
	if err != nil {
		return nil, err
	}

	return &services{
		solver:   service.NewSolverService(manager, profiles),
		runs:     manager,
		profiles: profiles,
		close:    closeStore,
	}, nil
}

// openRunStore creates the run manager for the selected store and loads
// previously persisted runs.
func openRunStore(store, dataPath string) (*runs.Manager, func() error, error) {
	noop := func() error { return nil }

	var (
		persistence runs.Persistence
		closeStore  = noop
	)
	switch store {
	case "", StoreMemory:
		return runs.NewManager(), noop, nil

	case StoreFile:
		if dataPath == "" {
			dataPath = "runs"
		}
		fp, err := runs.NewFilePersistence(dataPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create run persistence: %w", err)
		}
		persistence = fp

	case StoreSQLite:
		if dataPath == "" {
			dataPath = "runs.db"
		}
		db, err := runs.OpenSQLite(dataPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open run database: %w", err)
		}
		persistence = db
		closeStore = db.Close

	default:
		return nil, nil, fmt.Errorf("unknown run store %q (use memory, file or sqlite)", store)
	}

	manager := runs.NewManagerWithPersistence(persistence)
	if err := manager.LoadPersistedRuns(); err != nil {
		log.Printf("Warning: Failed to load persisted runs: %v", err)
	}
	log.Printf("Run store: %s (%s)", store, dataPath)

	return manager, closeStore, nil
}

// runCleanupRoutine periodically removes runs older than the retention window.
func runCleanupRoutine(ctx context.Context, manager *runs.Manager) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredRuns(runRetention); removed > 0 {
				log.Printf("Cleaned up %d expired runs", removed)
			}
		}
	}
}

// newHTTPHandler combines the API server with the /mcp endpoint.
func newHTTPHandler(solver service.SolverService, hub *websocket.Hub, mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", api.NewServer(solver, hub))

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

func runServerCommand(ctx context.Context, cmd *cli.Command) error {
	log.Printf("Starting %s v%s (mode: server)", AppName, Version)

	svc, err := initializeServices(serviceOptionsFrom(cmd))
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svc.close()

	return runHTTPServer(ctx, cmd, svc)
}

// runHTTPServer starts the HTTP server with /slpu, REST API, WebSocket hub and
// the /mcp endpoint. If ngrok is enabled it also provisions a public tunnel.
// SIGHUP reloads the search profiles.
func runHTTPServer(ctx context.Context, cmd *cli.Command, svc *services) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := websocket.NewHub()
	go hub.Run(ctx)
	svc.solver.OnRun(hub.BroadcastRun)

	go runCleanupRoutine(ctx, svc.runs)

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), int(cmd.Int("port")))
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))
	handler := newHTTPHandler(svc.solver, hub, mcpClient)

	httpServer := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// Searches with large profiles take longer than a plain API call
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	defer signal.Stop(stop)
	defer signal.Stop(reload)

	var wg sync.WaitGroup
	serverErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("Solver: POST http://%s/slpu", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?topic=<profile>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveNgrok(ctx, cmd, handler)
		}()
	}

wait:
	for {
		select {
		case <-reload:
			if err := svc.profiles.RefreshCache(); err != nil {
				log.Printf("Failed to reload profiles: %v", err)
			} else {
				log.Println("Reloaded search profiles")
			}

		case err := <-serverErr:
			cancel()
			wg.Wait()
			return fmt.Errorf("HTTP server failed: %w", err)

		case sig := <-stop:
			log.Printf("Received signal: %v. Shutting down...", sig)
			break wait

		case <-ctx.Done():
			break wait
		}
	}
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")
	return nil
}

// serveNgrok exposes handler through an ngrok tunnel until ctx is done.
func serveNgrok(ctx context.Context, cmd *cli.Command, handler http.Handler) {
	authToken := cmd.String("ngrok-auth")
	if authToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if domain := cmd.String("ngrok-domain"); domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Printf("Using custom ngrok domain: %s", domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  Solver (ngrok): %s/slpu", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

func runStdioCommand(ctx context.Context, cmd *cli.Command) error {
	// stdout carries the MCP protocol
	log.SetOutput(os.Stderr)
	log.Printf("Starting %s v%s (mode: stdio-mcp)", AppName, Version)

	svc, err := initializeServices(serviceOptionsFrom(cmd))
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svc.close()

	return runStdioMCPWithInternalServer(ctx, cmd, svc)
}

// runStdioMCPWithInternalServer runs an MCP stdio server. It reuses an API
// already listening on --host/--port; otherwise it starts an internal HTTP API
// on a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, cmd *cli.Command, svc *services) error {
	externalURL := fmt.Sprintf("http://%s:%d", cmd.String("host"), int(cmd.Int("port")))
	log.Printf("Checking for external API server at %s...", externalURL)

	baseURL := externalURL
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Printf("External API server found at %s, using it for MCP", externalURL)
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		internalAddr := listener.Addr().String()
		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		httpServer := &http.Server{Handler: api.NewServer(svc.solver, nil)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()
		defer httpServer.Close()

		baseURL = fmt.Sprintf("http://%s", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Printf("MCP stdio server ready (API at %s)", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

func runSolveCommand(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return cli.Exit("usage: slpu solve [--profile name] [--seed n] <board.svg|->", 2)
	}

	opts := serviceOptionsFrom(cmd)
	// Offline solves are not worth persisting unless a store was asked for
	if !cmd.IsSet("store") {
		opts.Store = StoreMemory
	}

	svc, err := initializeServices(opts)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svc.close()

	return solveFile(ctx, os.Stdout, svc.solver, cmd.Args().First(), cmd.String("profile"), cmd.Int64("seed"), cmd.Bool("json"))
}

// solveFile reads an SVG board from path ("-" for stdin), solves it and
// prints the rolls or, with asJSON, the full result.
func solveFile(ctx context.Context, w io.Writer, solver service.SolverService, path, profile string, seed int64, asJSON bool) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("failed to read board: %w", err)
	}

	result, err := solver.Solve(ctx, service.SolveRequest{
		SVG:     string(data),
		Profile: profile,
		Seed:    seed,
		Source:  service.SourceCLI,
	})
	if err != nil {
		return fmt.Errorf("board %s rejected: %w", path, err)
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if result.Rolls == "" {
		return cli.Exit(fmt.Sprintf("no winning roll sequence found (%s)", strings.ReplaceAll(result.Run.ErrorKind, "_", " ")), 1)
	}
	fmt.Fprintln(w, result.Rolls)
	return nil
}
