// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

// VisibilityHook is invoked when the host's page (or tab) visibility changes.
// It is the seam for expiry driven behavior like a silent Refresh.
type VisibilityHook interface {
	TabLostFocus(m *Manager)
	TabRegainedFocus(m *Manager)
}

// NoopVisibilityHook ignores visibility changes. It is the default hook.
type NoopVisibilityHook struct{}

func (NoopVisibilityHook) TabLostFocus(*Manager)     {}
func (NoopVisibilityHook) TabRegainedFocus(*Manager) {}

// VisibilityHookFuncs adapts a pair of funcs to a VisibilityHook. A nil func
// is a no-op.
type VisibilityHookFuncs struct {
	LostFocus     func(m *Manager)
	RegainedFocus func(m *Manager)
}

func (h VisibilityHookFuncs) TabLostFocus(m *Manager) {
	if h.LostFocus != nil {
		h.LostFocus(m)
	}
}

func (h VisibilityHookFuncs) TabRegainedFocus(m *Manager) {
	if h.RegainedFocus != nil {
		h.RegainedFocus(m)
	}
}

// TabLostFocus notifies the Manager's VisibilityHook that the tab was hidden.
func (m *Manager) TabLostFocus() { m.hook.TabLostFocus(m) }

// TabRegainedFocus notifies the Manager's VisibilityHook that the tab is
// visible again.
func (m *Manager) TabRegainedFocus() { m.hook.TabRegainedFocus(m) }

// VisibilityChanged dispatches a host visibility event.
func (m *Manager) VisibilityChanged(hidden bool) {
	if hidden {
		m.TabLostFocus()
		return
	}
	m.TabRegainedFocus()
}
