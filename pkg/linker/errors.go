package linker

import (
	"fmt"
	"sync"
)

// ErrorList accumulates fatal errors discovered during the pipeline
// instead of aborting on the first one, so a single invocation can
// report every problem it finds (undefined symbols, version-script
// glob failures, inconsistent GNU property flags) in one pass.
// HasErrors is checked at a handful of checkpoints between passes;
// finding even one error skips the remaining passes since later
// passes assume a consistent symbol table.
type ErrorList struct {
	mu   sync.Mutex
	msgs []string
}

func (e *ErrorList) Add(msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.msgs = append(e.msgs, msg)
}

func (e *ErrorList) Addf(format string, args ...any) {
	e.Add(fmt.Sprintf(format, args...))
}

func (e *ErrorList) HasErrors() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.msgs) > 0
}

func (e *ErrorList) Messages() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.msgs))
	copy(out, e.msgs)
	return out
}
