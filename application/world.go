// Package application provides the application layer that wires the event
// bus, triggers and combat together and handles commands.
package application

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"rpgbase-go/core/command"
	"rpgbase-go/core/eventbus"
	"rpgbase-go/domain/battle"
	"rpgbase-go/domain/trigger"
	"rpgbase-go/infrastructure/logging"
	"rpgbase-go/infrastructure/watch"
)

// Common errors for world commands.
var (
	ErrBattlerExists   = errors.New("battler already exists")
	ErrBattlerNotFound = errors.New("battler not found")
	ErrUnknownCommand  = errors.New("unknown command")
)

// World owns the event bus and everything attached to it.
type World struct {
	bus         *eventbus.Bus
	resolver    *battle.Resolver
	triggers    *trigger.Set
	loader      *trigger.Loader
	eventLogger *logging.EventLogger
	logger      *slog.Logger

	triggerFS   fs.FS
	triggerRepo trigger.Repository
	watchDir    string
	watcher     *watch.Watcher

	// Battlers
	battlers   map[string]*battle.Battler
	order      []string
	battlersMu sync.RWMutex

	outcomeMu   sync.Mutex
	lastOutcome *battle.Outcome

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
}

// WorldConfig holds configuration for the World.
type WorldConfig struct {
	// Bus is created with BusOptions when nil.
	Bus        *eventbus.Bus
	BusOptions []eventbus.Option

	// TriggerFS holds a triggers directory. Ignored when TriggerRepository is set.
	TriggerFS         fs.FS
	TriggerRepository trigger.Repository
	ScriptRunner      trigger.ScriptRunner

	// WatchDir is reloaded from on change once Start is called. Empty disables watching.
	WatchDir string

	// LogEvents are written by the event logger at LogLevel.
	LogEvents []string
	LogLevel  slog.Level

	Logger *slog.Logger
}

// NewWorld creates a world and loads its triggers.
func NewWorld(cfg *WorldConfig) (*World, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	bus := cfg.Bus
	if bus == nil {
		bus = eventbus.New(append([]eventbus.Option{eventbus.WithLogger(cfg.Logger)}, cfg.BusOptions...)...)
	}

	ctx, cancel := context.WithCancel(context.Background())

	registry := trigger.NewRegistry()
	w := &World{
		bus:         bus,
		resolver:    battle.NewResolver(bus, cfg.Logger),
		loader:      trigger.NewLoader(registry),
		logger:      cfg.Logger.With("component", "world"),
		triggerFS:   cfg.TriggerFS,
		triggerRepo: cfg.TriggerRepository,
		watchDir:    cfg.WatchDir,
		battlers:    make(map[string]*battle.Battler),
		ctx:         ctx,
		cancel:      cancel,
	}
	w.triggers = trigger.NewSet(&trigger.SetConfig{
		Bus:      bus,
		Registry: registry,
		Runner:   cfg.ScriptRunner,
		Logger:   cfg.Logger,
	})

	if err := w.resolver.Install(); err != nil {
		cancel()
		return nil, err
	}

	if len(cfg.LogEvents) > 0 {
		w.eventLogger = logging.NewEventLogger(cfg.Logger, cfg.LogLevel, bus)
		if err := w.eventLogger.Attach(bus, cfg.LogEvents...); err != nil {
			w.Close()
			return nil, err
		}
	}

	if err := w.Reload(ctx); err != nil {
		w.Close()
		return nil, err
	}

	return w, nil
}

// Start begins watching the trigger directory when one is configured.
func (w *World) Start() error {
	if w.watchDir == "" {
		w.logger.Info("World started")
		return nil
	}

	w.watcher = watch.New(&watch.Config{
		Dir:    w.watchDir,
		Match:  trigger.IsTriggerFile,
		Logger: w.logger,
		OnChange: func() {
			if err := w.Reload(w.ctx); err != nil {
				w.logger.Error("Failed to reload triggers", "error", err)
			}
		},
	})
	if err := w.watcher.Start(w.ctx); err != nil {
		return fmt.Errorf("failed to watch triggers: %w", err)
	}

	w.logger.Info("World started", "watch", w.watchDir)
	return nil
}

// Close detaches every receiver from the bus and stops the watcher.
func (w *World) Close() {
	w.cancel()
	if w.watcher != nil {
		select {
		case <-w.watcher.Done():
		case <-time.After(5 * time.Second):
			w.logger.Warn("Watcher stop timeout")
		}
	}

	w.triggers.Close()
	if w.eventLogger != nil {
		w.eventLogger.Detach(w.bus)
	}

	w.battlersMu.Lock()
	for _, b := range w.battlers {
		b.Detach(w.bus)
	}
	w.battlers = make(map[string]*battle.Battler)
	w.order = nil
	w.battlersMu.Unlock()

	w.resolver.Uninstall()
	w.logger.Info("World closed")
}

// Bus returns the world's event bus.
func (w *World) Bus() *eventbus.Bus {
	return w.bus
}

// Triggers returns the trigger set.
func (w *World) Triggers() *trigger.Set {
	return w.triggers
}

// Step drains the event queue.
func (w *World) Step() error {
	return w.bus.DrainAll()
}

// Reload reloads the triggers from the repository or filesystem and
// resubscribes the trigger set.
func (w *World) Reload(ctx context.Context) error {
	switch {
	case w.triggerRepo != nil:
		if err := w.loader.LoadFromRepository(ctx, w.triggerRepo); err != nil {
			return err
		}
	case w.triggerFS != nil:
		if err := w.loader.LoadFromFS(w.triggerFS); err != nil {
			return err
		}
	}
	return w.triggers.Sync()
}

// Battler returns the named battler or nil.
func (w *World) Battler(name string) *battle.Battler {
	w.battlersMu.RLock()
	defer w.battlersMu.RUnlock()
	return w.battlers[name]
}

// Battlers returns all battlers in spawn order.
func (w *World) Battlers() []*battle.Battler {
	w.battlersMu.RLock()
	defer w.battlersMu.RUnlock()

	out := make([]*battle.Battler, 0, len(w.order))
	for _, name := range w.order {
		out = append(out, w.battlers[name])
	}
	return out
}

// LastOutcome returns the outcome of the last RunBattle command, or nil.
func (w *World) LastOutcome() *battle.Outcome {
	w.outcomeMu.Lock()
	defer w.outcomeMu.Unlock()
	return w.lastOutcome
}

// Dispatch sends a command to the appropriate handler.
func (w *World) Dispatch(cmd command.Command) error {
	w.logger.Debug("Dispatching command", "command", cmd.CommandName())

	switch cmd := cmd.(type) {
	// Event queue
	case *command.Publish:
		return w.handlePublish(cmd)
	case *command.Step:
		return w.Step()
	case *command.ReloadTriggers:
		return w.Reload(w.ctx)

	// Combat
	case *command.SpawnBattler:
		return w.handleSpawnBattler(cmd)
	case *command.Attack:
		return w.handleAttack(cmd)
	case *command.Guard:
		return w.handleGuard(cmd)
	case *command.Heal:
		return w.handleHeal(cmd)
	case *command.RunBattle:
		return w.handleRunBattle(cmd)

	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.CommandName())
	}
}
