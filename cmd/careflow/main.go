// Command careflow runs the hospital patient-flow simulation, either as a
// long-running service with the HTTP API or as a batch run that prints a
// report.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/talgya/careflow/internal/api"
	"github.com/talgya/careflow/internal/config"
	"github.com/talgya/careflow/internal/entropy"
	"github.com/talgya/careflow/internal/narrative"
	"github.com/talgya/careflow/internal/patients"
	"github.com/talgya/careflow/internal/persistence"
	"github.com/talgya/careflow/internal/sim"
)

var (
	flagConfig    string
	flagSeed      int64
	flagPatients  int
	flagDataDir   string
	flagFrequency string

	flagDBPath string
	flagPort   int
	flagSpeed  float64

	flagTicks  int
	flagReport bool
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	root := &cobra.Command{
		Use:           "careflow",
		Short:         "Hospital patient-flow simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "scenario YAML (defaults built in)")
	root.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "override the scenario seed")
	root.PersistentFlags().IntVar(&flagPatients, "patients", 30, "synthetic patient population size")
	root.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "load patients from CSV files in this directory instead of generating them")
	root.PersistentFlags().StringVar(&flagFrequency, "frequency", "normal", "emergency frequency: low, normal, high")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation service with the HTTP API",
		RunE:  runService,
	}
	runCmd.Flags().StringVar(&flagDBPath, "db", "data/careflow.db", "SQLite database path")
	runCmd.Flags().IntVar(&flagPort, "port", 8080, "HTTP API port")
	runCmd.Flags().Float64Var(&flagSpeed, "speed", 1, "initial speed multiplier")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a fixed number of ticks and exit",
		RunE:  runBatch,
	}
	simulateCmd.Flags().IntVar(&flagTicks, "ticks", 288, "ticks to simulate")
	simulateCmd.Flags().BoolVar(&flagReport, "report", true, "print the simulation report")

	root.AddCommand(runCmd, simulateCmd)

	if err := root.Execute(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if flagConfig != "" {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if flagSeed != 0 {
		cfg.Seed = flagSeed
	}
	return cfg, nil
}

func buildSource(cfg *config.Config) (patients.Source, error) {
	if flagDataDir != "" {
		src, err := patients.NewCSVSource(flagDataDir)
		if err != nil {
			return nil, fmt.Errorf("load patient data: %w", err)
		}
		slog.Info("patient data loaded", "dir", flagDataDir, "patients", len(src.ActivePatients()))
		return src, nil
	}
	slog.Info("generating synthetic patients", "count", flagPatients, "seed", cfg.Seed)
	return patients.NewSyntheticSource(cfg.Seed, flagPatients), nil
}

func buildGenerator() *narrative.Generator {
	client := narrative.NewClient(
		os.Getenv("CAREFLOW_LLM_URL"),
		os.Getenv("CAREFLOW_LLM_KEY"),
		os.Getenv("CAREFLOW_LLM_MODEL"),
	)
	if client != nil {
		slog.Info("narrative client enabled")
	} else {
		slog.Info("CAREFLOW_LLM_URL not set, using template narration")
	}
	return narrative.NewGenerator(client)
}

func buildSim(cfg *config.Config) (*sim.Simulation, error) {
	source, err := buildSource(cfg)
	if err != nil {
		return nil, err
	}
	s, err := sim.New(cfg, source, buildGenerator(), entropy.Seeded(cfg.Seed), time.Now().Truncate(time.Minute))
	if err != nil {
		return nil, err
	}
	if err := s.SetFrequency(sim.EmergencyFrequency(flagFrequency)); err != nil {
		return nil, err
	}
	return s, nil
}

func runService(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(flagDBPath); dir != "." {
		os.MkdirAll(dir, 0755)
	}
	db, err := persistence.Open(flagDBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	slog.Info("database opened", "path", flagDBPath)

	s, err := buildSim(cfg)
	if err != nil {
		return err
	}
	eng := sim.NewEngine(s, func() (*sim.Simulation, error) { return buildSim(cfg) })
	eng.SetSpeed(flagSpeed)

	adminKey := os.Getenv("CAREFLOW_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("CAREFLOW_ADMIN_KEY not set, admin POST endpoints disabled")
	}
	server := &api.Server{Eng: eng, DB: db, Port: flagPort, AdminKey: adminKey}
	server.Start()

	// Periodic snapshots while the service runs.
	snapshotDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-snapshotDone:
				return
			case <-ticker.C:
				if err := db.SaveSnapshot(eng.Sim()); err != nil {
					slog.Error("periodic snapshot failed", "error", err)
				}
			}
		}
	}()

	eng.Start()
	fmt.Printf("careflow is running: %d staff, %d patients admitted.\n",
		len(s.Roster.Agents()), s.Registry.Count())
	fmt.Printf("API: http://localhost:%d/api/v1/status (Ctrl+C to stop)\n", flagPort)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	close(snapshotDone)
	eng.Stop()

	if err := db.SaveSnapshot(eng.Sim()); err != nil {
		slog.Error("final snapshot failed", "error", err)
	}
	fmt.Println("Simulation stopped. State saved.")
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := buildSim(cfg)
	if err != nil {
		return err
	}

	slog.Info("batch run starting", "ticks", flagTicks, "seed", cfg.Seed, "frequency", flagFrequency)
	for i := 0; i < flagTicks; i++ {
		s.Step()
	}
	stats := s.CollectStats()
	slog.Info("batch run complete",
		"ticks", stats.Tick,
		"events", stats.TotalEvents,
		"patients", stats.ActivePatients,
		"avg_fatigue", fmt.Sprintf("%.2f", stats.AvgFatigue),
	)

	if flagReport {
		fmt.Println(s.Report())
	}
	return nil
}
