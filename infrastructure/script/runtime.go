// Package script runs Lua trigger actions in a sandboxed gopher-lua state.
//
// A script sees a global event table with name and data fields and a bus
// module with enqueue(name, data) and prioritize(name, data). Returning
// false from the script stops propagation for the receiver running it.
package script

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"rpgbase-go/core/event"
	"rpgbase-go/core/eventbus"
)

// Default limits for a Runtime.
const (
	DefaultTimeout   = time.Second
	DefaultCallLimit = 1000
)

// Runtime is a single sandboxed Lua state. gopher-lua states are not
// goroutine-safe, so every Run holds the runtime lock.
type Runtime struct {
	L *lua.LState

	mu        sync.Mutex
	bridge    *bridge
	logger    *slog.Logger
	timeout   time.Duration
	callLimit int

	cache map[string]*lua.FunctionProto

	// set for the duration of Run
	pub   eventbus.Publisher
	calls int

	closed bool
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithTimeout bounds the wall time of one Run. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(r *Runtime) {
		r.timeout = d
	}
}

// WithCallLimit bounds the bus calls a single Run may make. Zero disables the bound.
func WithCallLimit(n int) Option {
	return func(r *Runtime) {
		if n >= 0 {
			r.callLimit = n
		}
	}
}

// WithLogger sets the logger used by the script log function.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRuntime creates a sandboxed Lua runtime.
func NewRuntime(opts ...Option) *Runtime {
	r := &Runtime{
		logger:    slog.Default(),
		timeout:   DefaultTimeout,
		callLimit: DefaultCallLimit,
		cache:     make(map[string]*lua.FunctionProto),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "lua")

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)
	r.L = L
	r.bridge = newBridge(L)

	L.SetGlobal("bus", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"enqueue":    r.publish(false),
		"prioritize": r.publish(true),
	}))
	L.SetGlobal("log", L.NewFunction(r.log))
	L.SetGlobal("print", L.NewFunction(r.log))

	return r
}

// openSafeLibraries opens only the base, table, string and math libraries
// and removes the base functions that load code from outside the script.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// Run executes source for e. Bus calls made by the script go to pub.
func (r *Runtime) Run(source string, e event.Event, pub eventbus.Publisher) (eventbus.Propagation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return eventbus.Continue, ErrRuntimeClosed
	}

	proto, err := r.compile(source)
	if err != nil {
		return eventbus.Continue, &Error{Event: e.Name, Stage: "compile", Err: err}
	}

	r.pub = pub
	r.calls = 0
	defer func() { r.pub = nil }()

	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	r.L.SetContext(ctx)
	defer r.L.RemoveContext()

	r.L.SetGlobal("event", r.bridge.eventTable(e))

	top := r.L.GetTop()
	defer r.L.SetTop(top)

	r.L.Push(r.L.NewFunctionFromProto(proto))
	if err := r.L.PCall(0, 1, nil); err != nil {
		switch {
		case ctx.Err() != nil:
			err = ErrTimeout
		case r.callLimit > 0 && r.calls > r.callLimit:
			err = ErrCallLimit
		}
		return eventbus.Continue, &Error{Event: e.Name, Stage: "run", Err: err}
	}

	if r.L.Get(-1) == lua.LFalse {
		return eventbus.StopPropagation, nil
	}
	return eventbus.Continue, nil
}

// compile returns the cached prototype for source, compiling it on first use.
func (r *Runtime) compile(source string) (*lua.FunctionProto, error) {
	if proto, ok := r.cache[source]; ok {
		return proto, nil
	}

	chunk, err := parse.Parse(strings.NewReader(source), "trigger")
	if err != nil {
		return nil, err
	}
	proto, err := lua.Compile(chunk, "trigger")
	if err != nil {
		return nil, err
	}
	r.cache[source] = proto
	return proto, nil
}

// Compile checks source for syntax errors without running it.
func (r *Runtime) Compile(source string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRuntimeClosed
	}
	_, err := r.compile(source)
	return err
}

// CacheSize returns the number of compiled scripts held by the runtime.
func (r *Runtime) CacheSize() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

func (r *Runtime) publish(prioritize bool) lua.LGFunction {
	return func(L *lua.LState) int {
		name := L.CheckString(1)
		var data event.Data
		if tbl, ok := L.Get(2).(*lua.LTable); ok {
			data = r.bridge.tableToData(tbl)
		}

		r.calls++
		if r.callLimit > 0 && r.calls > r.callLimit {
			L.RaiseError("%v", ErrCallLimit)
			return 0
		}
		if r.pub == nil {
			L.RaiseError("bus is not available outside an event")
			return 0
		}

		if prioritize {
			r.pub.Prioritize(name, data)
		} else {
			r.pub.Enqueue(name, data)
		}
		return 0
	}
}

func (r *Runtime) log(L *lua.LState) int {
	parts := make([]string, 0, L.GetTop())
	for i := 1; i <= L.GetTop(); i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	r.logger.Info(strings.Join(parts, " "))
	return 0
}

// Close releases the Lua state. Later calls to Run return ErrRuntimeClosed.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.L.Close()
	r.closed = true
	return nil
}
