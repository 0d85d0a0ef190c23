package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/mcpsh/mcpsh/internal/config"
	"github.com/mcpsh/mcpsh/internal/core"
	"github.com/mcpsh/mcpsh/internal/history"
	"github.com/mcpsh/mcpsh/internal/session"
)

var BUILD_VERSION = "dev"

var serverFlag = flag.String("server", "", "MCP server URL (overrides config)")
var configFlag = flag.String("config", "", "use a custom config file instead of ~/.config/mcpsh/config.yaml")

var helpFlag = flag.Bool("h", false, "display help information")
var versionFlag = flag.Bool("ver", false, "display build version")

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Println(BUILD_VERSION)
		return
	}

	if *helpFlag {
		fmt.Println("Usage of mcpsh:")
		flag.PrintDefaults()
		return
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "mcpsh is an interactive shell and requires a terminal")
		os.Exit(1)
	}

	configPath := *configFlag
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mcpsh: %v\n", err)
		os.Exit(1)
	}
	if *serverFlag != "" {
		cfg.ServerURL = *serverFlag
	}

	logger, err := initializeLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync() // Flush any buffered log entries
	}()

	logger.Info("-------- new mcpsh session --------", zap.Any("args", os.Args))

	historyManager, err := initializeHistoryManager(cfg)
	if err != nil {
		logger.Error("failed to initialize history manager", zap.Error(err))
		panic("failed to initialize history manager")
	}
	defer func() {
		_ = historyManager.Close()
	}()

	if err := run(cfg, historyManager, logger); err != nil {
		logger.Error("unhandled error", zap.Error(err))
		fmt.Fprintf(os.Stderr, "mcpsh: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, historyManager *history.Manager, logger *zap.Logger) error {
	ctx := context.Background()

	manager := session.NewManager(cfg.ServerURL, core.Commands, logger)
	if err := manager.Connect(ctx); err != nil {
		// The shell still works for help/history; completion degrades to
		// builtins until a refresh succeeds.
		logger.Warn("could not connect to MCP server", zap.Error(err))
		fmt.Fprintf(os.Stderr, "warning: could not connect to %s: %v\n", cfg.ServerURL, err)
	}
	defer func() {
		_ = manager.Close()
	}()

	shell := core.NewShell(manager, historyManager, logger, cfg.HistoryLimit)
	return shell.RunInteractiveShell(ctx)
}

func initializeLogger(cfg *config.Config) (*zap.Logger, error) {
	logLevel, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		logLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	if BUILD_VERSION == "dev" {
		logLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	logFile := cfg.LogFile
	if logFile == "" {
		logFile = core.LogFile()
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = logLevel
	loggerConfig.OutputPaths = []string{
		logFile,
	}
	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, err
	}

	return logger, nil
}

func initializeHistoryManager(cfg *config.Config) (*history.Manager, error) {
	historyFile := cfg.HistoryFile
	if historyFile == "" {
		historyFile = core.HistoryFile()
	}

	historyManager, err := history.NewManager(historyFile)
	if err != nil {
		return nil, err
	}

	return historyManager, nil
}
