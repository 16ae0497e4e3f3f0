package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/sleigh-balancer/internal/application"
	"github.com/eugenenazirov/sleigh-balancer/internal/balancer"
	"github.com/eugenenazirov/sleigh-balancer/internal/config"
	"github.com/eugenenazirov/sleigh-balancer/internal/logging"
	"github.com/eugenenazirov/sleigh-balancer/internal/storage"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("balancer", "Sleigh Balancer - splits a manifest into compartments of equal weight")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	logLevel := kingpinApp.Flag("log-level", "Minimum log level (debug, info, warn, error)").String()
	maxItems := kingpinApp.Flag("max-items", "Largest manifest a search accepts (set 0 to disable)").Default("-1").Int()
	searchTimeout := kingpinApp.Flag("search-timeout", "Wall time allowed per search (set 0 to disable)").Default("-1s").Duration()
	exhaustive := kingpinApp.Flag("exhaustive", "Score every balanced partition instead of pruning").Bool()

	serveCmd := kingpinApp.Command("serve", "Run the HTTP API").Default()
	port := serveCmd.Flag("port", "HTTP port exposed by the service").String()
	weightsStr := serveCmd.Flag("weights", "Comma-separated initial item weights").String()
	rateLimitRPSFlag := serveCmd.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := serveCmd.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	solveCmd := kingpinApp.Command("solve", "Balance a manifest with one weight per line")
	inputFile := solveCmd.Flag("file", "Manifest path (reads stdin when omitted)").Short('f').String()
	compartments := solveCmd.Flag("compartments", "Compartments to fill: 3, 4 or all").Default("all").Enum("3", "4", "all")

	command := kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
	}

	if *logLevel != "" {
		overrides.LogLevel = logLevel
	}

	if *maxItems >= 0 {
		overrides.MaxItems = maxItems
	}

	if *searchTimeout >= 0 {
		overrides.SearchTimeout = searchTimeout
	}

	if *exhaustive {
		overrides.Exhaustive = exhaustive
	}

	if *port != "" {
		overrides.Port = port
	}

	if *weightsStr != "" {
		overrides.WeightsStr = weightsStr
	}

	if *rateLimitRPSFlag >= 0 {
		overrides.RateLimitRPS = rateLimitRPSFlag
	}

	if *rateLimitBurstFlag >= 0 {
		overrides.RateLimitBurst = rateLimitBurstFlag
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	switch command {
	case solveCmd.FullCommand():
		if err := solve(cfg, logger, *inputFile, *compartments); err != nil {
			fmt.Fprintf(os.Stderr, "balancer: %v\n", err)
			_ = logger.Sync()
			os.Exit(1)
		}
	case serveCmd.FullCommand():
		serve(cfg, logger)
	}
}

func serve(cfg config.Config, logger *zap.Logger) {
	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

func solve(cfg config.Config, logger *zap.Logger, path, selection string) error {
	in, err := openManifest(path)
	if err != nil {
		return err
	}
	defer in.Close()

	weights, err := storage.ReadWeights(in)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := balancer.New(
		balancer.WithLogger(logger.Named("balancer")),
		balancer.WithMaxItems(cfg.MaxItems),
		balancer.WithTimeout(cfg.SearchTimeout),
		balancer.WithExhaustive(cfg.Exhaustive),
	)
	return runSolve(ctx, b, weights, selection, os.Stdout)
}

func openManifest(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	return f, nil
}

// runSolve balances weights for the selected modes and prints a summary for
// each. It fails only when no mode produced a result.
func runSolve(ctx context.Context, b balancer.Balancer, weights []int, selection string, out io.Writer) error {
	var outcomes []balancer.Outcome
	if selection == "all" {
		report, err := b.BalanceAll(ctx, weights)
		if err != nil {
			return err
		}
		outcomes = report.Outcomes
	} else {
		n, err := strconv.Atoi(selection)
		if err != nil {
			return fmt.Errorf("invalid compartments %q", selection)
		}
		mode, err := balancer.ParseMode(n)
		if err != nil {
			return err
		}
		result, err := b.Balance(ctx, weights, mode)
		outcomes = []balancer.Outcome{{Mode: mode, Result: result, Err: err}}
	}

	var failures []error
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintf(out, "%d compartments: %v\n", int(o.Mode), o.Err)
			failures = append(failures, o.Err)
			continue
		}
		printResult(out, o.Result)
	}

	if len(failures) == len(outcomes) {
		return errors.Join(failures...)
	}
	return nil
}

func printResult(out io.Writer, r balancer.Result) {
	fmt.Fprintf(out, "%d compartments: target %d, footwell %v, entanglement %d",
		int(r.Mode), r.Target, r.Groups[0].Items, r.Entanglement)
	if r.Partitions > 0 {
		fmt.Fprintf(out, " (%d balanced partitions)", r.Partitions)
	}
	fmt.Fprintln(out)
	for _, g := range r.Groups[1:] {
		fmt.Fprintf(out, "  %s %v\n", g.Compartment, g.Items)
	}
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
