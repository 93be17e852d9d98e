package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/openalpha/share-vault/api"
	"github.com/openalpha/share-vault/api/chain"
	"github.com/openalpha/share-vault/api/types"
	strategytypes "github.com/openalpha/share-vault/x/strategy/types"
)

func main() {
	host := flag.String("host", "0.0.0.0", "Server host")
	port := flag.IntP("port", "p", 8080, "Server port")
	denom := flag.String("denom", "stake", "Underlying denom of the sandbox pool")
	authority := flag.String("authority", "", "Pauser and TVL authority of the sandbox (default: gov module address)")
	maxPerDeposit := flag.String("max-per-deposit", "0", "Sandbox max per deposit, 0 for unlimited")
	maxTotal := flag.String("max-total-deposits", "0", "Sandbox max total deposits, 0 for unlimited")
	chainGRPC := flag.String("chain-grpc", "", "Serve read-only views from a vaultd gRPC endpoint instead of the sandbox")
	rps := flag.Float64("rate-limit", 50, "Requests per second per IP")
	noRateLimit := flag.Bool("no-rate-limit", false, "Disable rate limiting")
	debug := flag.BoolP("debug", "d", false, "Enable debug logging")
	flag.Parse()

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	logger := log.NewLogger(os.Stdout, log.LevelOption(level))

	config := api.DefaultConfig()
	config.Host = *host
	config.Port = *port
	config.DisableRateLimit = *noRateLimit
	config.RateLimit.RequestsPerSecond = *rps
	config.RateLimit.Burst = 2 * *rps

	var (
		reader types.StrategyReader
		writer types.StrategyWriter
		cleanup func()
	)

	if *chainGRPC != "" {
		config.Mode = api.ModeChain
		config.ChainGRPC = *chainGRPC
		r, err := chain.NewReader(&chain.Config{GRPCAddr: *chainGRPC, Timeout: 5 * time.Second})
		if err != nil {
			logger.Error("failed to connect to chain", "grpc", *chainGRPC, "error", err)
			os.Exit(1)
		}
		reader = r
		cleanup = func() { _ = r.Close() }
	} else {
		params, err := parseParams(*maxPerDeposit, *maxTotal)
		if err != nil {
			logger.Error("invalid tvl limits", "error", err)
			os.Exit(1)
		}
		config.Mode = api.ModeSandbox
		config.Sandbox = api.SandboxConfig{Denom: *denom, Authority: *authority, Params: params}

		sandbox, err := api.NewSandbox(config.Sandbox, logger)
		if err != nil {
			logger.Error("failed to create sandbox", "error", err)
			os.Exit(1)
		}
		reader, writer = sandbox, sandbox
		cleanup = func() {}
		logger.Info("sandbox ready", "denom", sandbox.Denom(), "pool", sandbox.PoolAddress().String())
	}
	defer cleanup()

	server := api.NewServer(config, reader, writer, logger)
	if sandbox, ok := writer.(*api.Sandbox); ok {
		sandbox.SetPublisher(server.Hub())
	}

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("server error", "error", err)
		}
	}()

	logger.Info("share vault API started",
		"http", fmt.Sprintf("http://%s:%d", *host, *port),
		"ws", fmt.Sprintf("ws://%s:%d/ws", *host, *port),
		"mode", config.Mode,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server exited")
}

func parseParams(maxPerDeposit, maxTotal string) (strategytypes.Params, error) {
	perDeposit, ok := math.NewIntFromString(maxPerDeposit)
	if !ok {
		return strategytypes.Params{}, fmt.Errorf("invalid max per deposit %q", maxPerDeposit)
	}
	total, ok := math.NewIntFromString(maxTotal)
	if !ok {
		return strategytypes.Params{}, fmt.Errorf("invalid max total deposits %q", maxTotal)
	}
	params := strategytypes.NewParams(perDeposit, total)
	return params, params.Validate()
}
