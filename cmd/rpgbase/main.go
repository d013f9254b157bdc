// Package main is the entry point for rpgbase: it builds a world from the
// configured triggers and plays a demo battle on the event bus.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"rpgbase-go/application"
	"rpgbase-go/core/command"
	"rpgbase-go/core/eventbus"
	"rpgbase-go/domain/trigger"
	"rpgbase-go/infrastructure/config"
	"rpgbase-go/infrastructure/logging"
	"rpgbase-go/infrastructure/repository"
	"rpgbase-go/infrastructure/script"
	"rpgbase-go/resources"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	rounds := flag.Int("rounds", 20, "maximum rounds of the demo battle")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("Failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Initialize logging (dev: console only, prod: rotating file)
	logger, closeLog, err := logging.Setup(cfg.LoggingConfig())
	if err != nil {
		// Fallback to stderr if logging setup fails
		os.Stderr.WriteString("Failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg, *rounds, logger); err != nil {
		logger.Error("rpgbase failed", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config, rounds int, logger *slog.Logger) error {
	logger.Info("Starting rpgbase", "triggers", cfg.Triggers.Source)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	worldCfg := &application.WorldConfig{
		BusOptions: []eventbus.Option{
			eventbus.WithDrainLimit(cfg.Bus.DrainLimit),
			eventbus.WithTraceDelivery(cfg.Bus.TraceDelivery),
		},
		LogEvents: cfg.Bus.LogEvents,
		LogLevel:  slog.LevelInfo,
		Logger:    logger,
	}

	switch cfg.Triggers.Source {
	case config.SourceEmbedded:
		worldCfg.TriggerFS = resources.TriggerFiles
	case config.SourceFile:
		worldCfg.TriggerFS = os.DirFS(cfg.Triggers.Root)
		if cfg.Triggers.Watch {
			worldCfg.WatchDir = filepath.Join(cfg.Triggers.Root, trigger.Dir)
		}
	case config.SourceMongo:
		mongoDB, err := repository.NewMongoDB(ctx, cfg.MongoDBConfig(), logger)
		if err != nil {
			return err
		}
		defer mongoDB.Close(context.Background())

		repo := repository.NewMongoTriggerRepository(mongoDB, logger)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return err
		}
		if err := seedTriggers(ctx, repo, resources.TriggerFiles, logger); err != nil {
			return err
		}
		worldCfg.TriggerRepository = repo
	}

	if cfg.Lua.Enabled {
		runtime := script.NewRuntime(
			script.WithTimeout(cfg.Lua.Timeout),
			script.WithCallLimit(cfg.Lua.CallLimit),
			script.WithLogger(logger),
		)
		defer runtime.Close()
		worldCfg.ScriptRunner = runtime
	}

	world, err := application.NewWorld(worldCfg)
	if err != nil {
		return err
	}
	defer world.Close()

	if err := world.Start(); err != nil {
		return err
	}

	if err := playDemo(world, rounds); err != nil {
		return err
	}

	outcome := world.LastOutcome()
	fmt.Printf("winner: %q after %d rounds, knocked out: %v\n", outcome.Winner, outcome.Rounds, outcome.KnockedOut)
	for _, b := range world.Battlers() {
		fmt.Printf("  %-8s %-9s hp=%d/%d state=%s\n", b.Name(), b.Side(), b.HP(), b.Stats().MaxHP, b.State())
	}

	if cfg.Triggers.Watch {
		logger.Info("Watching triggers, press Ctrl+C to exit")
		<-ctx.Done()
	}

	logger.Info("Application shutdown complete")
	return nil
}

// playDemo spawns two parties, sets a guard and runs a battle.
func playDemo(world *application.World, rounds int) error {
	cmds := []command.Command{
		&command.SpawnBattler{Name: "zaan", Side: "heroes", MaxHP: 60, Attack: 6, Defense: 4},
		&command.SpawnBattler{Name: "mira", Side: "heroes", MaxHP: 24, Attack: 9, Defense: 1},
		&command.SpawnBattler{Name: "orc", Side: "monsters", MaxHP: 45, Attack: 8, Defense: 2},
		&command.SpawnBattler{Name: "slime", Side: "monsters", MaxHP: 18, Attack: 4},
		command.NewGuard("zaan", "mira"),
		&command.RunBattle{MaxRounds: rounds},
	}
	for _, cmd := range cmds {
		if err := world.Dispatch(cmd); err != nil {
			return fmt.Errorf("%s: %w", cmd.CommandName(), err)
		}
	}
	return nil
}

// seedTriggers stores the embedded triggers when the repository is empty.
func seedTriggers(ctx context.Context, repo trigger.Repository, fsys fs.FS, logger *slog.Logger) error {
	existing, err := repo.FindAll(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	triggers, err := trigger.ParseFS(fsys)
	if err != nil {
		return err
	}
	for _, t := range triggers {
		if err := repo.Save(ctx, t); err != nil {
			return err
		}
	}
	logger.Info("Seeded trigger repository", "count", len(triggers))
	return nil
}
