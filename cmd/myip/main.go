package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"myip/internal/config"
	"myip/internal/logger"
	"myip/internal/lookup"
	"myip/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run performs a single lookup and reports the result. A failed lookup
// still exits 0; only setup errors are reflected in the exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet(config.AppName, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	config.RegisterFlags(fs)
	showVersion := fs.BoolP("version", "v", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *showVersion {
		_, _ = fmt.Fprintln(stdout, version.GetInfo().String())
		return 0
	}

	configPath, _ := fs.GetString("config")
	cfg, err := config.LoadConfig(configPath, fs)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	// Keep stdout clean for the JSON result
	logOut := stdout
	if cfg.Output.Format == config.OutputJSON {
		logOut = stderr
	}

	log, err := logger.NewWithOutput(&cfg.Log, logOut)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	defer func(log *zap.Logger) {
		_ = log.Sync()
	}(log)

	client, err := lookup.New(cfg.Endpoint.LookupConfig(), lookup.WithLogger(log))
	if err != nil {
		log.Error("Failed to create lookup client", zap.Error(err))
		return 1
	}

	log.Debug("Looking up IP address",
		zap.String("url", client.URL()),
		zap.String("version", version.Version))

	result := client.GetMyIP(ctx)
	if err := report(log, stdout, cfg.Output.Format, result); err != nil {
		log.Error("Failed to write result", zap.Error(err))
	}

	return 0
}

// report logs the result, absent or not, and writes it as JSON when asked
func report(log *zap.Logger, w io.Writer, format string, result any) error {
	fields := []zap.Field{zap.Any("result", result)}
	if addr, ok := lookup.IPFromResult(result); ok {
		fields = append(fields, zap.Stringer("ip", addr))
	}
	// Raise the entry to the configured minimum so it is never filtered out
	level := zapcore.InfoLevel
	if floor := log.Level(); floor > level && floor <= zapcore.ErrorLevel {
		level = floor
	}
	log.Log(level, "IP lookup result", fields...)

	if format != config.OutputJSON {
		return nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
