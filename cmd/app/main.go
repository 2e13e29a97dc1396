package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/protweight/internal"
	"github.com/starford/protweight/internal/queryservice"
	pkgconfig "github.com/starford/protweight/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// stdout carries the protocol.
	return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
}

func accessionArg(cmd *cli.Command) (string, error) {
	if cmd.Args().Len() != 1 {
		return "", errors.New("expected exactly one accession argument")
	}
	return cmd.Args().First(), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runBounds(ctx context.Context, cmd *cli.Command) error {
	acc, err := accessionArg(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	view, err := internal.Precompute(ctx, acc, int(cmd.Int("k")),
		internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	return printJSON(view)
}

func runQuery(ctx context.Context, cmd *cli.Command) error {
	acc, err := accessionArg(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	weight := cmd.Float("weight")
	tolerance := cmd.Float("tolerance")
	req := queryservice.Request{
		MonoWeight:    &weight,
		MassTolerance: &tolerance,
		Unit:          cmd.String("unit"),
		Algorithm:     cmd.String("algorithm"),
		VariantType:   cmd.String("variant-type"),
	}
	if cmd.IsSet("k") {
		k := int(cmd.Int("k"))
		req.K = &k
	}
	if cmd.IsSet("timeout") {
		t := cmd.Float("timeout")
		req.Timeout = &t
	}
	if cmd.IsSet("variant-limit") {
		n := int(cmd.Int("variant-limit"))
		req.VariantLimit = &n
	}

	resp, err := internal.Query(ctx, acc, req,
		internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func main() {
	cmd := &cli.Command{
		Name:   "protweight",
		Usage:  "Find peptides of a protein graph whose mass matches a query weight",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (default)",
				Action: run,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools over stdio",
				Action: runMCP,
			},
			{
				Name:      "bounds",
				Usage:     "Precompute and persist the bounds of a graph",
				ArgsUsage: "<accession>",
				Action:    runBounds,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "k", Usage: "Maximum intervals per node (0 uses the configured default)"},
				},
			},
			{
				Name:      "query",
				Usage:     "Run one weight query and print the result as JSON",
				ArgsUsage: "<accession>",
				Action:    runQuery,
				Flags: []cli.Flag{
					&cli.FloatFlag{Name: "weight", Aliases: []string{"w"}, Usage: "Monoisotopic weight in Da", Required: true},
					&cli.FloatFlag{Name: "tolerance", Aliases: []string{"t"}, Usage: "Mass tolerance", Value: 5},
					&cli.StringFlag{Name: "unit", Usage: "Tolerance unit (ppm or Da)", Value: queryservice.UnitPPM},
					&cli.IntFlag{Name: "k", Usage: "Maximum intervals per node"},
					&cli.FloatFlag{Name: "timeout", Usage: "Search timeout in seconds"},
					&cli.StringFlag{Name: "algorithm", Aliases: []string{"a"}, Usage: "Search strategy"},
					&cli.StringFlag{Name: "variant-type", Usage: "Qualifier type counted by the variant limit"},
					&cli.IntFlag{Name: "variant-limit", Usage: "Maximum variant edges per path"},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
