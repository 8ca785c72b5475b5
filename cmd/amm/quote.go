package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"oracleAMM/internal/config"
	"oracleAMM/internal/model"
)

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel, "")
	if err != nil {
		return err
	}
	defer logger.Sync()

	amount, err := uint256.FromDecimal(cfg.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", cfg.Amount, err)
	}

	ctx := context.Background()
	rt, err := buildRuntime(ctx, cfg.Engine, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	amounts, err := rt.engine.GetSwapAmounts(ctx, model.Principal(cfg.TokenIn), model.Principal(cfg.TokenOut), amount)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(amounts)
}
