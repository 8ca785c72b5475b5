package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

// chdir isolates the test from any config file in the working directory.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadApplyDefaultsAndFlags(t *testing.T) {
	chdir(t, t.TempDir())
	flags := pflag.NewFlagSet("apply", pflag.ContinueOnError)
	flags.String("in", "", "")
	flags.String("owner", "", "")
	flags.Uint64("batch-size", 0, "")
	if err := flags.Parse([]string{"--in", "ops.jsonl", "--owner", "deployer", "--batch-size", "50"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadApply("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Input != "ops.jsonl" || cfg.Engine.Owner != "deployer" {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if cfg.BatchSize != 50 {
		t.Fatalf("batch size %d, want 50", cfg.BatchSize)
	}
	if cfg.Engine.LPFeeBps != 25 || cfg.Engine.ProtocolFeeBps != 5 || cfg.Engine.MinimumLiquidity != 1000 {
		t.Fatalf("unexpected engine defaults: %+v", cfg.Engine)
	}
	if cfg.Engine.Pricing != "oracle" || cfg.Engine.Oracle.Backend != "memory" {
		t.Fatalf("unexpected pricing defaults: %+v", cfg.Engine)
	}
	if cfg.RetryBackoff != 500*time.Millisecond || !cfg.CheckpointEnabled {
		t.Fatalf("unexpected retry defaults: %+v", cfg)
	}
}

func TestLoadApplyRequiresInput(t *testing.T) {
	chdir(t, t.TempDir())
	if _, err := LoadApply("", nil); err == nil {
		t.Fatalf("expected error without input")
	}
}

func TestLoadServeFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "amm.yaml")
	content := "owner: deployer\njwt-secret: s3cret\npricing: legacy-parity\nprice:\n  - \"0xaa:6000000000000:-8\"\n  - \"0xbb:300000000000:-8\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("AMM_LISTEN", ":9999")

	cfg, err := LoadServe(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":9999" {
		t.Fatalf("env override ignored: %s", cfg.Listen)
	}
	if cfg.Engine.Pricing != "legacy-parity" {
		t.Fatalf("pricing %q", cfg.Engine.Pricing)
	}
	want := []string{"0xaa:6000000000000:-8", "0xbb:300000000000:-8"}
	if !reflect.DeepEqual(cfg.Engine.Oracle.Prices, want) {
		t.Fatalf("prices %v, want %v", cfg.Engine.Oracle.Prices, want)
	}
	if cfg.RateBurst != 40 {
		t.Fatalf("rate burst %d", cfg.RateBurst)
	}
}

func TestLoadServeRequiresSecret(t *testing.T) {
	chdir(t, t.TempDir())
	if _, err := LoadServe("", nil); err == nil {
		t.Fatalf("expected error without jwt secret")
	}
}

func TestParsePriceSpecs(t *testing.T) {
	got, err := ParsePriceSpecs([]string{"0xaa:6000000000000:-8"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []PriceSpec{{Feed: "0xaa", Price: 6_000_000_000_000, Expo: -8}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v", got)
	}

	for _, bad := range []string{"0xaa", "0xaa:x:-8", "0xaa:1:y"} {
		if _, err := ParsePriceSpecs([]string{bad}); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
