package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mockforge/mockforge/pkg/cli/internal/ports"
	"github.com/mockforge/mockforge/pkg/config"
	"github.com/mockforge/mockforge/pkg/dispatch"
	"github.com/mockforge/mockforge/pkg/logging"
	"github.com/mockforge/mockforge/pkg/mock"
	"github.com/mockforge/mockforge/pkg/openapi"
	"github.com/mockforge/mockforge/pkg/priority"
	"github.com/mockforge/mockforge/pkg/proxy"
	"github.com/mockforge/mockforge/pkg/recorder"
	"github.com/mockforge/mockforge/pkg/requestlog"
	"github.com/mockforge/mockforge/pkg/stateful"
	"github.com/mockforge/mockforge/pkg/template"
)

// serveFlags holds the flags bound to the serve command.
type serveFlags struct {
	configPath string
	host       string
	port       int
	logLevel   string
	logFormat  string
	printURL   bool
}

var serveFlagVals serveFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the mockforge dispatch server",
	Long: `Run the mockforge server: load a config file and serve every request
through the fixture -> recorded replay -> proxy -> stateful -> mock/OpenAPI
priority chain until SIGINT/SIGTERM.`,
	Example: `  mockforge serve --config mockforge.yaml
  mockforge serve --config mockforge.yaml --port 0 --print-url
  mockforge serve --config mockforge.yaml --log-format json`,
	RunE: runServe,
}

func init() {
	f := &serveFlagVals

	serveCmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Path to mockforge config file (YAML or JSON) [required]")
	serveCmd.Flags().StringVar(&f.host, "host", "0.0.0.0", "Bind address")
	serveCmd.Flags().IntVarP(&f.port, "port", "p", 0, "HTTP server port (0 = use config, auto-assign if config is also 0)")
	serveCmd.Flags().StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&f.logFormat, "log-format", "text", "Log format (text, json)")
	serveCmd.Flags().BoolVar(&f.printURL, "print-url", false, "Print the server URL to stdout on startup")

	_ = serveCmd.MarkFlagRequired("config")

	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	f := &serveFlagVals

	if _, err := os.Stat(f.configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", f.configPath)
	}

	cfg, err := config.LoadRootConfig(f.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(f.logLevel),
		Format: logging.ParseFormat(f.logFormat),
	})

	baseDir := config.GetMockFileBaseDir(f.configPath)

	mocks, err := loadMocks(cfg, baseDir)
	if err != nil {
		return fmt.Errorf("failed to load mocks: %w", err)
	}

	tmpl := template.New()
	fixtureSrc := dispatch.NewFixtureSource(mocks, tmpl, baseDir)

	rec, err := recorder.New(cfg.Recorder)
	if err != nil {
		return fmt.Errorf("failed to start recorder: %w", err)
	}
	rec.SetLogger(log.With("component", "recorder"))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = rec.Close(ctx)
	}()
	replaySrc := dispatch.NewRecordedReplaySource(rec.Store())

	proxyMatcher, err := proxy.NewMatcher(cfg.Proxy)
	if err != nil {
		return fmt.Errorf("invalid proxy rules: %w", err)
	}
	proxySrc := dispatch.NewProxySource(proxyMatcher)

	statefulRegistry, err := stateful.NewRegistry(cfg.Stateful)
	if err != nil {
		return fmt.Errorf("invalid stateful config: %w", err)
	}
	statefulSrc := dispatch.NewStatefulSource(statefulRegistry)

	openapiCfg := cfg.OpenAPI
	if openapiCfg == nil {
		openapiCfg = &openapi.ValidationConfig{}
	}
	openapiRegistry, err := openapi.NewRegistry(openapiCfg, tmpl)
	if err != nil {
		return fmt.Errorf("invalid openapi config: %w", err)
	}

	ph := priority.NewHandler(fixtureSrc, replaySrc, proxySrc, statefulSrc, openapiRegistry)
	routeChaos := config.NewRouteChaosTable(cfg.Routes)

	disp := dispatch.New(ph, routeChaos, rec)
	disp.SetLogger(log.With("component", "dispatch"))
	if cfg.Server.LogRequests {
		disp.SetRequestLog(requestlog.NewMemoryStore(cfg.Server.MaxLogEntries))
	}

	var handler http.Handler = disp
	handler = dispatch.NewCORSMiddleware(handler, cfg.Server.CORS)

	port := resolvePort(f.port, cfg.Server.HTTPPort)
	if port != 0 && !ports.IsAvailable(port) {
		return fmt.Errorf("port %d is already in use — try --port 0 for auto-assign", port)
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", f.host, port))
	if err != nil {
		if isAddrInUseError(err) {
			return fmt.Errorf("port %d is already in use — try --port 0 for auto-assign", port)
		}
		return fmt.Errorf("failed to bind: %w", err)
	}

	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  timeoutSeconds(cfg.Server.ReadTimeout),
		WriteTimeout: timeoutSeconds(cfg.Server.WriteTimeout),
	}

	actualPort := ln.Addr().(*net.TCPAddr).Port
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	if f.printURL {
		fmt.Printf("http://%s:%d\n", displayHost(f.host), actualPort)
	}
	log.Info("mockforge started", "port", actualPort, "mocks", len(mocks), "config", f.configPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// loadMocks expands file/glob mock entries relative to baseDir and converts
// every resulting inline entry into a runtime mock.Mock.
func loadMocks(cfg *config.RootConfig, baseDir string) ([]*mock.Mock, error) {
	entries, err := config.LoadAllMocks(cfg.Mocks, baseDir)
	if err != nil {
		return nil, err
	}

	mocks := make([]*mock.Mock, 0, len(entries))
	for _, entry := range entries {
		m, err := config.ConvertMockEntry(entry)
		if err != nil {
			return nil, err
		}
		mocks = append(mocks, m)
	}
	return mocks, nil
}

// resolvePort prefers an explicit --port flag over the config file's port;
// a flag value of 0 falls back to the config, and a config port of 0 means
// auto-assign.
func resolvePort(flagPort, configPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return configPort
}

func timeoutSeconds(seconds int) time.Duration {
	if seconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(seconds) * time.Second
}

func displayHost(host string) string {
	if host == "0.0.0.0" || host == "" {
		return "localhost"
	}
	return host
}

// isAddrInUseError reports whether err is a TCP bind failure caused by the
// port already being in use.
func isAddrInUseError(err error) bool {
	if errors.Is(err, syscall.EADDRINUSE) {
		return true
	}
	return strings.Contains(err.Error(), "address already in use")
}
