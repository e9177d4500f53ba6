// Command worldsim runs the Willow Creek resident simulation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/talgya/willow-creek/internal/config"
	"github.com/talgya/willow-creek/internal/engine"
	"github.com/talgya/willow-creek/internal/persistence"
	"github.com/talgya/willow-creek/internal/roster"
	"github.com/talgya/willow-creek/internal/tuning"
)

const (
	autosaveName  = "autosave"
	finalName     = "last_session"
	milestoneFile = "milestones.json"
)

func main() {
	configPath := flag.String("config", "", "path to worldsim.yaml (default ./worldsim.yaml)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})))

	slog.Info("Willow Creek resident simulation",
		"seed", cfg.Seed,
		"hours_per_tick", cfg.HoursPerTick,
		"steps", cfg.Steps,
	)

	// ── Tuning and roster ─────────────────────────────────────────────
	tune := tuning.Default()
	if cfg.TuningPath != "" {
		tune, err = tuning.Load(cfg.TuningPath)
		if err != nil {
			slog.Error("failed to load tuning", "path", cfg.TuningPath, "error", err)
			os.Exit(1)
		}
	}

	residents, err := roster.Load(cfg.RosterPath)
	if err != nil {
		slog.Error("failed to load roster", "error", err)
		os.Exit(1)
	}

	// ── World ─────────────────────────────────────────────────────────
	w, err := engine.New(engine.Options{
		Seed:         cfg.Seed,
		Start:        cfg.Start.Date(),
		StartHour:    cfg.Start.Hour,
		DaysPerMonth: cfg.DaysPerMonth,
		Tuning:       tune,
	}, residents)
	if err != nil {
		slog.Error("failed to build world", "error", err)
		os.Exit(1)
	}

	// ── Checkpoints ───────────────────────────────────────────────────
	mgr, err := persistence.NewManager(cfg.CheckpointDir)
	if err != nil {
		slog.Error("failed to open checkpoint directory", "path", cfg.CheckpointDir, "error", err)
		os.Exit(1)
	}
	defer mgr.Close()

	if cfg.ResumeFrom != "" {
		meta, err := mgr.Load(cfg.ResumeFrom, w)
		if err != nil {
			slog.Error("failed to resume", "checkpoint", cfg.ResumeFrom, "error", err)
			os.Exit(1)
		}
		fmt.Printf("Resuming %q from %s (tick %d)\n", meta.Name, meta.SimTime, meta.Tick)
	}

	runner := engine.NewRunner(w)
	runner.HoursPerStep = cfg.HoursPerTick
	runner.OnStep = func(sum engine.StepSummary) {
		for _, m := range sum.Milestones {
			slog.Info("milestone",
				"type", m.Type,
				"importance", m.Importance,
				"time", m.Time,
				"description", m.Description,
			)
		}
	}
	runner.OnDay = func(day int, _ engine.StepSummary) error {
		if cfg.AutosaveEveryDays == 0 || day%cfg.AutosaveEveryDays != 0 {
			return nil
		}
		if _, err := mgr.Save(w, autosaveName, fmt.Sprintf("automatic save, day %d", day)); err != nil {
			slog.Error("autosave failed", "error", err)
		}
		return nil
	}

	// ── Start ─────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := w.Clock()
	fmt.Printf("\nWillow Creek is alive: %d residents, %s.\n", len(w.Agents()), c.Label())
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	steps, runErr := runner.Run(ctx, cfg.Steps)
	if runErr != nil {
		slog.Error("simulation failed", "steps", steps, "error", runErr)
	}

	// Final save on shutdown.
	slog.Info("final save...")
	if _, err := mgr.Save(w, finalName, fmt.Sprintf("end of session after %d steps", steps)); err != nil {
		slog.Error("final save failed", "error", err)
		os.Exit(1)
	}

	if err := persistence.ExportMilestonesFile(w, filepath.Join(cfg.CheckpointDir, milestoneFile)); err != nil {
		slog.Error("milestone export failed", "error", err)
	}

	st := w.MilestoneStats()
	gs := w.GraphStats()
	fmt.Printf("Simulation stopped after %d steps. %d milestones, %d relationships, %d friend groups. World state saved.\n",
		steps, st.Total, gs.Relationships, gs.FriendGroups)
	if runErr != nil {
		os.Exit(1)
	}
}
