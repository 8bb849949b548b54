// Package goroutine starts background work that must never take the server
// down: a panic inside the goroutine is logged with its stack and swallowed.
package goroutine

import (
	"runtime/debug"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/logger"
)

// SafeGo runs fn on its own goroutine with panic recovery.
func SafeGo(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Log.Errorf("goroutine: recovered panic: %v\n%s", r, debug.Stack())
			}
		}()
		fn()
	}()
}
