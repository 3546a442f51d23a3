// SPDX-License-Identifier: MIT
package audio

import "bass/internal/effect"

// SetBypass routes input straight to output while keeping the meters running.
// Gate state is left untouched and resumes when bypass is turned off.
func (e *Engine) SetBypass(bypass bool) {
	if e.bypass.Swap(bypass) != bypass {
		logger.Infof("Bypass %v", bypass)
	}
}

// Bypassed reports whether the effect is bypassed.
func (e *Engine) Bypassed() bool {
	return e.bypass.Load()
}

// GateScope returns how channels share gate state.
func (e *Engine) GateScope() effect.GateScope {
	return e.processor.Scope()
}
