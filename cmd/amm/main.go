package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	root := &cobra.Command{
		Use:          "amm",
		Short:        "Oracle-priced liquidity engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-file", "", "optional rotating log file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the engine over HTTP",
		RunE:  runServe,
	}
	addEngineFlags(serveCmd.Flags())
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().String("jwt-secret", "", "HMAC secret for bearer tokens")
	serveCmd.Flags().Float64("rate-limit", 20, "requests per second per caller")
	serveCmd.Flags().Int("rate-burst", 40, "burst size per caller")
	serveCmd.Flags().Duration("snapshot-interval", time.Minute, "how often to flush events and save a snapshot")
	root.AddCommand(serveCmd)

	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Replay a JSONL operation file against the engine",
		RunE:  runApply,
	}
	addEngineFlags(applyCmd.Flags())
	applyCmd.Flags().String("in", "", "input operations JSONL")
	applyCmd.Flags().String("results", "./data/results.jsonl", "output results JSONL")
	applyCmd.Flags().Uint64("batch-size", 500, "operations per batch")
	applyCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	applyCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	applyCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	applyCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	root.AddCommand(applyCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Preview a swap against the latest snapshot",
		RunE:  runQuote,
	}
	addEngineFlags(quoteCmd.Flags())
	quoteCmd.Flags().String("token-in", "", "input token principal")
	quoteCmd.Flags().String("token-out", "", "output token principal")
	quoteCmd.Flags().String("amount", "", "input amount in base units")
	root.AddCommand(quoteCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addEngineFlags(fs *pflag.FlagSet) {
	fs.String("owner", "", "contract owner principal")
	fs.String("treasury", "", "protocol fee recipient, defaults to owner")
	fs.String("account", "oracle-amm", "principal holding pooled tokens")
	fs.Uint64("lp-fee-bps", 25, "liquidity provider fee in basis points")
	fs.Uint64("protocol-fee-bps", 5, "protocol fee in basis points")
	fs.Uint64("minimum-liquidity", 1000, "liquidity locked by the first deposit")
	fs.String("pricing", "oracle", "pricing mode (oracle, legacy-parity)")
	fs.String("oracle", "memory", "price source (memory, evm)")
	fs.String("rpc", "", "EVM RPC URL")
	fs.String("oracle-contract", "", "price feed contract address")
	fs.String("oracle-key", "", "hex private key used to submit price updates")
	fs.StringSlice("price", nil, "static memory prices (feed:price:expo, comma-separated)")
	fs.Duration("oracle-max-age", 0, "reject quotes older than this, 0 disables")
	fs.Uint64("oracle-max-conf-bps", 0, "reject quotes with wider confidence, 0 disables")
	fs.String("journal", "./data/events.jsonl", "event journal JSONL path")
	fs.String("snapshot", "./data/snapshot.json", "snapshot file path")
	fs.String("pg-dsn", "", "Postgres DSN, replaces the file journal and snapshot")
	fs.String("state-name", "default", "snapshot name in Postgres")
}

func newLogger(level, file string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil || file == "" {
		return logger, err
	}

	rotating := zapcore.AddSync(&lumberjack.Logger{
		Filename:   file,
		MaxSize:    64, // megabytes
		MaxBackups: 10,
		MaxAge:     14, // days
		Compress:   true,
	})
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(cfg.EncoderConfig), rotating, cfg.Level)
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	})), nil
}
