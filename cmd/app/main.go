package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"InOut/internal/di"
	internalrepo "InOut/internal/repository"
	"InOut/pkg/config"
	"InOut/pkg/logger"

	"github.com/spf13/cobra"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "inout",
		Short: "In & Out tactical allocation signal engine",
		Long: `inout holds a growth ETF while cross-asset stress is low and rotates into
bonds when enough indicators turn extreme.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (defaults only when empty)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the live service: ingestion, daily scheduler and HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadWithEnv(configPath)
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			app, err := di.InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("app initialization failed: %w", err)
			}
			return app.Run(cmd.Context())
		},
	}

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a CSV of daily closes through the strategy on a paper broker",
		RunE: func(cmd *cobra.Command, _ []string) error {
			csvPath, _ := cmd.Flags().GetString("csv")
			outPath, _ := cmd.Flags().GetString("out")
			cash, _ := cmd.Flags().GetFloat64("cash")
			return runReplay(cmd.Context(), configPath, csvPath, outPath, cash)
		},
	}
	replayCmd.Flags().String("csv", "", "CSV with date,symbol,close columns")
	replayCmd.Flags().String("out", "", "write the replay result as JSON to this file")
	replayCmd.Flags().Float64("cash", 0, "initial cash (overrides execution.initial_cash)")
	_ = replayCmd.MarkFlagRequired("csv")

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Load a CSV of daily closes into the ClickHouse archive",
		RunE: func(cmd *cobra.Command, _ []string) error {
			csvPath, _ := cmd.Flags().GetString("csv")
			return runImport(cmd.Context(), configPath, csvPath)
		},
	}
	importCmd.Flags().String("csv", "", "CSV with date,symbol,close columns")
	_ = importCmd.MarkFlagRequired("csv")

	rootCmd.AddCommand(serveCmd, replayCmd, importCmd)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadWithLogger(configPath string) (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("config load failed: %w", err)
	}
	l, err := di.ProvideLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, l, nil
}

func runReplay(ctx context.Context, configPath, csvPath, outPath string, cash float64) error {
	cfg, l, err := loadWithLogger(configPath)
	if err != nil {
		return err
	}
	if cash > 0 {
		cfg.Execution.InitialCash = cash
	}

	bars, err := internalrepo.ReadBarsCSVFile(csvPath)
	if err != nil {
		return err
	}
	replayer, broker := di.InitializeReplay(cfg, l)

	start := time.Now()
	res, err := replayer.Run(ctx, bars)
	if err != nil {
		return err
	}
	fmt.Printf("days=%d cycles=%d skipped=%d trades=%d fills=%d final=%.2f (%s)\n",
		res.Days, res.Cycles, res.Skipped, res.Trades, len(broker.Fills()), res.FinalValue, time.Since(start).Round(time.Millisecond))

	if outPath == "" {
		return nil
	}
	out := struct {
		Result interface{}         `json:"result"`
		Fills  []internalrepo.Fill `json:"fills"`
	}{Result: res, Fills: broker.Fills()}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, data, 0o644)
}

func runImport(ctx context.Context, configPath, csvPath string) error {
	cfg, l, err := loadWithLogger(configPath)
	if err != nil {
		return err
	}
	cfg.ClickHouse.Enabled = true

	bars, err := internalrepo.ReadBarsCSVFile(csvPath)
	if err != nil {
		return err
	}
	ch, err := di.ProvideClickHouseClient(cfg)
	if err != nil {
		return err
	}
	defer ch.Close()

	store, err := di.ProvideBarStore(ch, cfg, l)
	if err != nil {
		return err
	}
	if err := store.StoreBars(ctx, bars); err != nil {
		return err
	}
	l.Info("import complete", logger.Int("bars", len(bars)), logger.String("database", cfg.ClickHouse.Database))
	return nil
}
