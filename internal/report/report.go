// Package report owns user-facing messages and the halt-with-message
// discipline: every exit path, including fatal signals, runs the registered
// shutdown hooks (sensitive-memory wipe, terminal echo restore) before the
// process terminates.
package report

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/pwmkit/pwm/internal/debug"
)

var (
	mu    sync.Mutex
	hooks []func()
)

// OnShutdown registers f to run on every process exit path. Hooks run in
// registration order and must be safe to call more than once.
func OnShutdown(f func()) {
	mu.Lock()
	defer mu.Unlock()
	hooks = append(hooks, f)
}

func runHooks() {
	mu.Lock()
	fs := make([]func(), len(hooks))
	copy(fs, hooks)
	mu.Unlock()

	for _, f := range fs {
		f()
	}
}

// CatchSignals arranges for every catchable fatal signal to run the
// shutdown hooks and terminate with a non-zero status. The Go runtime owns
// the synchronous fault signals (SIGSEGV and friends); this covers the set
// that can be intercepted.
func CatchSignals() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGHUP,
		syscall.SIGQUIT,
		syscall.SIGPIPE,
		syscall.SIGABRT,
	)

	go func() {
		sig := <-ch
		debug.Logf("caught signal %v", sig)
		runHooks()
		os.Exit(1)
	}()
}

// Shutdown runs the shutdown hooks and exits with the given status.
func Shutdown(code int) {
	runHooks()
	os.Exit(code)
}

// Halt prints a one-line message to stderr, runs the shutdown hooks, and
// exits with a non-zero status.
func Halt(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	Shutdown(1)
}

// Internal reports an internal error. The cause goes to the debug log only;
// the user sees the canonical message.
func Internal(err error) {
	debug.Errf(err, "internal error")
	Halt("Internal error")
}

// Corrupt reports unreadable or tampered vault data.
func Corrupt(err error) {
	debug.Errf(err, "data corrupted")
	Halt("Data corrupted")
}
