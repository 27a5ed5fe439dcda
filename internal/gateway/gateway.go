// ABOUTME: Gateway orchestrator that coordinates gRPC and HTTP servers
// ABOUTME: Wires providers, retrieval, document index, and session hub into one lifecycle

package gateway

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/keepalive"
	"tailscale.com/ipn/ipnstate"
	"tailscale.com/tsnet"

	"github.com/2389/relay-gateway/internal/agent"
	"github.com/2389/relay-gateway/internal/config"
	"github.com/2389/relay-gateway/internal/docindex"
	"github.com/2389/relay-gateway/internal/provider"
	"github.com/2389/relay-gateway/internal/retrieval"
	"github.com/2389/relay-gateway/internal/router"
	"github.com/2389/relay-gateway/internal/stream"
)

// Gateway orchestrates the relay-gateway server components.
// It serves the chat API over HTTP and WebSocket, and a health service over gRPC.
type Gateway struct {
	config      *config.Config
	registry    *provider.Registry
	retrieval   *retrieval.Coordinator
	index       *docindex.Index
	router      *router.Router
	hub         *stream.Hub
	grpcServer  *grpc.Server
	health      *health.Server
	httpServer  *http.Server
	tsnetServer *tsnet.Server
	upgrader    websocket.Upgrader
	logger      *slog.Logger

	// serverID identifies this gateway instance
	serverID string

	// background stops the index watcher on shutdown
	background   context.CancelFunc
	backgroundWG sync.WaitGroup
}

// Option customizes gateway construction.
type Option func(*options)

type options struct {
	registryOpts []provider.Option
	searcher     retrieval.Searcher
	fetcher      retrieval.Fetcher
	httpClient   *http.Client
}

// WithProviderOptions passes options to the provider registry.
func WithProviderOptions(opts ...provider.Option) Option {
	return func(o *options) { o.registryOpts = append(o.registryOpts, opts...) }
}

// WithSearcher replaces the DuckDuckGo web searcher.
func WithSearcher(s retrieval.Searcher) Option {
	return func(o *options) { o.searcher = s }
}

// WithFetcher replaces the HTTP page fetcher.
func WithFetcher(f retrieval.Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// WithHTTPClient sets the client used for backends, search and fetches.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// New creates a new Gateway instance with the given configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Gateway, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{}
	}

	cat, err := cfg.Catalog()
	if err != nil {
		return nil, fmt.Errorf("loading model catalog: %w", err)
	}
	registryOpts := append([]provider.Option{
		provider.WithCatalog(cat),
		provider.WithHTTPClient(o.httpClient),
		provider.WithLogger(logger),
	}, o.registryOpts...)
	registry, err := provider.NewRegistry(cfg.ProviderConfigs(), provider.ID(cfg.DefaultProvider), registryOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating provider registry: %w", err)
	}

	index, err := docindex.Open(cfg.Documents.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("opening document index: %w", err)
	}

	if o.searcher == nil {
		o.searcher = retrieval.NewDuckDuckGo(o.httpClient, cfg.Retrieval.SearchRate)
	}
	if o.fetcher == nil {
		o.fetcher = retrieval.NewHTTPFetcher(o.httpClient)
	}
	coord, err := retrieval.New(cfg.RetrievalSettings(), o.searcher, o.fetcher, index, logger)
	if err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("creating retrieval coordinator: %w", err)
	}

	hub := stream.NewHub(logger)
	loop := agent.NewLoop(cfg.Agent.MaxRounds, logger)

	gw := &Gateway{
		config:    cfg,
		registry:  registry,
		retrieval: coord,
		index:     index,
		router:    router.New(registry, coord, loop, hub, logger),
		hub:       hub,
		logger:    logger.With("component", "gateway"),
		serverID:  generateServerID(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	gw.grpcServer = grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    15 * time.Second,
			Timeout: 5 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
	)
	gw.health = registerHealthService(gw.grpcServer, registry)

	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("/health", gw.handleHealth)
	mux.HandleFunc("/health/ready", gw.handleReady)

	// Chat API
	mux.HandleFunc("/api/chat/query", gw.handleQuery)
	mux.HandleFunc("/api/chat/models", gw.handleModels)
	mux.HandleFunc("/api/chat/health", gw.handleChatHealth)
	mux.HandleFunc("/ws", gw.handleWebSocket)

	if cfg.Metrics.Enabled {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		mux.Handle(path, promhttp.Handler())
	}

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return gw, nil
}

// Handler returns the HTTP handler, for tests and embedding.
func (g *Gateway) Handler() http.Handler {
	return g.httpServer.Handler
}

// Registry returns the provider registry.
func (g *Gateway) Registry() *provider.Registry {
	return g.registry
}

// setupTCPListeners creates standard TCP listeners for gRPC and HTTP.
// The gRPC listener is nil when no gRPC address is configured.
func (g *Gateway) setupTCPListeners() (grpcLn, httpLn net.Listener, err error) {
	g.logger.Info("starting gateway",
		"grpc_addr", g.config.Server.GRPCAddr,
		"http_addr", g.config.Server.HTTPAddr,
	)

	if g.config.Server.GRPCAddr != "" {
		grpcLn, err = net.Listen("tcp", g.config.Server.GRPCAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("listening on gRPC address: %w", err)
		}
	}

	httpLn, err = net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		if grpcLn != nil {
			_ = grpcLn.Close()
		}
		return nil, nil, fmt.Errorf("listening on HTTP address: %w", err)
	}

	return grpcLn, httpLn, nil
}

// warnIgnoredAddresses logs a warning if server addresses are configured but Tailscale is enabled.
func (g *Gateway) warnIgnoredAddresses() {
	if g.config.Server.GRPCAddr != "" || g.config.Server.HTTPAddr != "" {
		g.logger.Warn("server.grpc_addr and server.http_addr are ignored when tailscale is enabled",
			"grpc_addr", g.config.Server.GRPCAddr,
			"http_addr", g.config.Server.HTTPAddr,
		)
	}
}

// setupListeners creates listeners based on configuration (Tailscale or TCP).
func (g *Gateway) setupListeners(ctx context.Context) (grpcLn, httpLn net.Listener, err error) {
	if g.config.Tailscale.Enabled {
		g.warnIgnoredAddresses()
		return g.setupTailscaleListeners(ctx)
	}
	return g.setupTCPListeners()
}

// startServers starts gRPC and HTTP servers in goroutines, returning error channel.
func (g *Gateway) startServers(grpcLn, httpLn net.Listener) chan error {
	errCh := make(chan error, 2)

	if grpcLn != nil {
		go func() {
			g.logger.Info("gRPC server listening", "addr", grpcLn.Addr().String())
			if err := g.grpcServer.Serve(grpcLn); err != nil {
				errCh <- fmt.Errorf("gRPC server: %w", err)
			}
		}()
	}

	go func() {
		g.logger.Info("HTTP server listening", "addr", httpLn.Addr().String())
		if err := g.httpServer.Serve(httpLn); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	return errCh
}

// startDocuments indexes the documents directory and, when configured,
// watches it for changes. Indexing failures are logged, not fatal.
func (g *Gateway) startDocuments(ctx context.Context) {
	dir := g.config.Documents.Dir
	if dir == "" {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	g.background = cancel

	g.backgroundWG.Add(1)
	go func() {
		defer g.backgroundWG.Done()

		res, err := g.index.IndexDir(ctx, dir)
		if err != nil {
			g.logger.Error("indexing documents failed", "dir", dir, "error", err)
		} else {
			g.logger.Info("documents indexed",
				"dir", dir,
				"indexed", res.Indexed,
				"unchanged", res.Unchanged,
				"removed", res.Removed,
				"chunks", res.Chunks)
			if res.Indexed > 0 || res.Removed > 0 {
				g.retrieval.PurgeDocuments()
			}
		}

		if !g.config.Documents.Watch {
			return
		}
		err = g.index.Watch(ctx, dir, func(res docindex.IndexResult) {
			g.logger.Info("documents reindexed", "indexed", res.Indexed, "removed", res.Removed)
			g.retrieval.PurgeDocuments()
		})
		if err != nil {
			g.logger.Error("document watcher stopped", "dir", dir, "error", err)
		}
	}()
}

// waitForShutdownSignal waits for context cancellation or server error.
func (g *Gateway) waitForShutdownSignal(ctx context.Context, errCh chan error) error {
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
		return nil
	case err := <-errCh:
		g.logger.Error("server error", "error", err)
		g.drainErrors(errCh)
		return err
	}
}

// drainErrors drains any remaining errors from the channel.
func (g *Gateway) drainErrors(errCh chan error) {
	select {
	case additionalErr := <-errCh:
		g.logger.Error("additional server error", "error", additionalErr)
	default:
	}
}

// Run starts the gateway servers and blocks until the context is canceled.
// Returns nil on graceful shutdown (context canceled), or an error if a server fails.
func (g *Gateway) Run(ctx context.Context) error {
	grpcListener, httpListener, err := g.setupListeners(ctx)
	if err != nil {
		return err
	}

	g.logger.Info("providers configured",
		"server_id", g.serverID,
		"default", g.registry.Default(),
		"with_keys", configuredNames(g.registry))

	g.startDocuments(ctx)
	errCh := g.startServers(grpcListener, httpListener)
	serverErr := g.waitForShutdownSignal(ctx, errCh)

	shutdownErr := g.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

func configuredNames(r *provider.Registry) string {
	ids := r.Configured()
	if len(ids) == 0 {
		return "None"
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.DisplayName()
	}
	return strings.Join(names, ", ")
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is already canceled.
func (g *Gateway) gracefulShutdown() error {
	timeout := g.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return g.Shutdown(ctx)
}

// resolveTailscaleStateDir returns the state directory, using default if not configured.
func resolveTailscaleStateDir(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory for tailscale state (set tailscale.state_dir explicitly): %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "relay-gateway", "tailscale"), nil
}

// resolveTailscaleAuthKey returns the auth key from config or environment.
func resolveTailscaleAuthKey(configured string) (string, error) {
	authKey := configured
	if authKey == "" {
		authKey = os.Getenv("TS_AUTHKEY")
	}
	if authKey == "" {
		return "", errors.New("tailscale auth key required: set auth_key in config or TS_AUTHKEY environment variable (get one at https://login.tailscale.com/admin/settings/keys)")
	}
	return authKey, nil
}

// setupTailscaleListeners creates a tsnet server and returns listeners for gRPC and HTTP.
func (g *Gateway) setupTailscaleListeners(ctx context.Context) (grpcLn, httpLn net.Listener, err error) {
	tsCfg := g.config.Tailscale

	stateDir, err := resolveTailscaleStateDir(tsCfg.StateDir)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return nil, nil, fmt.Errorf("creating tailscale state dir: %w", err)
	}

	authKey, err := resolveTailscaleAuthKey(tsCfg.AuthKey)
	if err != nil {
		return nil, nil, err
	}

	g.tsnetServer = &tsnet.Server{
		Hostname:  tsCfg.Hostname,
		Dir:       stateDir,
		Ephemeral: tsCfg.Ephemeral,
		AuthKey:   authKey,
	}

	g.logger.Info("starting tailscale node", "hostname", tsCfg.Hostname, "state_dir", stateDir, "ephemeral", tsCfg.Ephemeral)
	status, err := g.tsnetServer.Up(ctx)
	if err != nil {
		_ = g.tsnetServer.Close()
		return nil, nil, fmt.Errorf("starting tailscale: %w", err)
	}

	g.logTailscaleStatus(tsCfg.Hostname, status)

	grpcLn, err = g.tsnetServer.Listen("tcp", ":50051")
	if err != nil {
		_ = g.tsnetServer.Close()
		return nil, nil, fmt.Errorf("listening on tailscale gRPC port: %w", err)
	}

	httpLn, err = g.createTailscaleHTTPListener(tsCfg, grpcLn)
	if err != nil {
		return nil, nil, err
	}
	return grpcLn, httpLn, nil
}

// logTailscaleStatus logs info about the tailscale node status.
func (g *Gateway) logTailscaleStatus(hostname string, status *ipnstate.Status) {
	var tsAddr, dnsName string
	if len(status.TailscaleIPs) > 0 {
		tsAddr = status.TailscaleIPs[0].String()
	} else {
		g.logger.Warn("tailscale node has no IP addresses assigned")
	}
	if status.Self != nil {
		dnsName = strings.TrimSuffix(status.Self.DNSName, ".")
	}
	g.logger.Info("tailscale node ready", "hostname", hostname, "tailscale_ip", tsAddr, "dns_name", dnsName)
}

// createTailscaleHTTPListener creates the appropriate HTTP listener based on config.
func (g *Gateway) createTailscaleHTTPListener(tsCfg config.TailscaleConfig, grpcLn net.Listener) (net.Listener, error) {
	switch {
	case tsCfg.Funnel:
		g.logger.Info("enabling tailscale funnel (public HTTPS) on :443")
		ln, err := g.tsnetServer.ListenFunnel("tcp", ":443")
		if err != nil {
			_ = grpcLn.Close()
			_ = g.tsnetServer.Close()
			return nil, fmt.Errorf("listening on tailscale HTTP port: %w", err)
		}
		return ln, nil
	case tsCfg.HTTPS:
		return g.createTailscaleTLSListener(grpcLn)
	default:
		ln, err := g.tsnetServer.Listen("tcp", ":80")
		if err != nil {
			_ = grpcLn.Close()
			_ = g.tsnetServer.Close()
			return nil, fmt.Errorf("listening on tailscale HTTP port: %w", err)
		}
		return ln, nil
	}
}

// createTailscaleTLSListener creates a TLS listener using Tailscale's auto-provisioned certs.
func (g *Gateway) createTailscaleTLSListener(grpcLn net.Listener) (net.Listener, error) {
	g.logger.Info("enabling HTTPS with Tailscale certs on :443")
	ln, err := g.tsnetServer.Listen("tcp", ":443")
	if err != nil {
		_ = grpcLn.Close()
		_ = g.tsnetServer.Close()
		return nil, fmt.Errorf("listening on tailscale HTTPS port: %w", err)
	}
	lc, err := g.tsnetServer.LocalClient()
	if err != nil {
		_ = ln.Close()
		_ = grpcLn.Close()
		_ = g.tsnetServer.Close()
		return nil, fmt.Errorf("getting tailscale local client: %w", err)
	}
	return tls.NewListener(ln, &tls.Config{
		GetCertificate: lc.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}), nil
}

// shutdownGRPCServer gracefully stops the gRPC server or force-stops on context cancel.
func (g *Gateway) shutdownGRPCServer(ctx context.Context) {
	stopped := make(chan struct{})
	go func() {
		g.grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-ctx.Done():
		g.grpcServer.Stop()
	}
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown gracefully stops all gateway servers and releases resources.
// Open sessions are closed, which cancels their in-flight requests.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	g.health.Shutdown()
	g.hub.Close()
	errs = appendCloseError(errs, "HTTP shutdown", g.httpServer.Shutdown(ctx))

	g.shutdownGRPCServer(ctx)

	if g.background != nil {
		g.background()
	}
	g.backgroundWG.Wait()

	if g.tsnetServer != nil {
		errs = appendCloseError(errs, "tailscale shutdown", g.tsnetServer.Close())
	}
	errs = appendCloseError(errs, "index close", g.index.Close())

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// handleHealth returns 200 OK if the server is alive.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK if the default provider has a credential.
func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	def := g.registry.Default()
	if !g.registry.Ready(def) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = fmt.Fprintf(w, "default provider %s has no API key", def)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "ready (%d providers)", len(g.registry.Configured()))
}

// generateServerID creates a unique identifier for this gateway instance.
func generateServerID() string {
	return fmt.Sprintf("relay-gateway-%d", time.Now().UnixNano()%1000000)
}
