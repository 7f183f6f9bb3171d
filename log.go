// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weft

import "fmt"

// debugLog is nil by default; SetDebugLog installs a sink. Call sites
// are nil-checked, matching the pattern recera-vango's scheduler and
// debug packages use rather than pulling in a logging library for a
// handful of diagnostic call sites.
var debugLog func(args ...any)

// SetDebugLog installs fn as the sink for internal diagnostics: fiber
// lifecycle transitions, scheduler dispatch, and the debug-mode
// goroutine-affinity assertion in [ProductionScheduler]. Pass nil to
// silence diagnostics again (the default).
func SetDebugLog(fn func(args ...any)) {
	debugLog = fn
}

func debugLogf(format string, args ...any) {
	if debugLog == nil {
		return
	}
	debugLog(fmt.Sprintf(format, args...))
}
