package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/ironsheep/image-transform-mcp/internal/config"
	"github.com/ironsheep/image-transform-mcp/internal/logging"
	"github.com/ironsheep/image-transform-mcp/internal/server"
	"github.com/ironsheep/image-transform-mcp/internal/storage"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("image-transform-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		}
	}

	flags := pflag.NewFlagSet("image-mcp", pflag.ContinueOnError)
	configFile := flags.String("config", "", "path to a YAML config file")
	config.RegisterFlags(flags)
	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "image-mcp: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load(*configFile, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "image-mcp: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr (stdout is for MCP protocol)
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "image-mcp: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Debug("starting",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("commit", GitCommit))

	engine, err := cfg.NewEngine(storage.NewOSStorage(), logger)
	if err != nil {
		logger.Fatal("failed to build engine", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(engine, server.WithLogger(logger), server.WithVersion(Version))
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func printHelp() {
	fmt.Println("image-transform-mcp - MCP server for image transformations")
	fmt.Println()
	fmt.Println("Usage: image-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println("  --config FILE    Read settings from a YAML file")
	fmt.Println("  --format, --quality, --background, --filter, --base-dir,")
	fmt.Println("  --create-dirs, --auto-orient, --cache-marks, --log-level, --log-format")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  IMAGE_MCP_LOG_LEVEL=debug         Enable debug logging")
	fmt.Println("  IMAGE_MCP_OUTPUT_FORMAT=png       Encode results as PNG")
	fmt.Println("  IMAGE_MCP_BASE_DIR=/srv/images    Resolve relative paths here")
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client.")
}
