// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_VisibilityChanged(t *testing.T) {
	t.Parallel()
	t.Run("dispatch", func(t *testing.T) {
		assert := assert.New(t)
		var lost, regained int
		env := newTestEnv(t, "")
		m := env.manager(t, WithVisibilityHook(VisibilityHookFuncs{
			LostFocus:     func(*Manager) { lost++ },
			RegainedFocus: func(*Manager) { regained++ },
		}))
		m.VisibilityChanged(true)
		m.VisibilityChanged(false)
		m.VisibilityChanged(false)
		assert.Equal(1, lost)
		assert.Equal(2, regained)
	})
	t.Run("default-is-noop", func(t *testing.T) {
		env := newTestEnv(t, "")
		m := env.manager(t, WithVisibilityHook(nil))
		assert.NotPanics(t, func() {
			m.TabLostFocus()
			m.TabRegainedFocus()
		})
	})
	t.Run("nil-funcs", func(t *testing.T) {
		env := newTestEnv(t, "")
		m := env.manager(t, WithVisibilityHook(VisibilityHookFuncs{}))
		assert.NotPanics(t, func() { m.VisibilityChanged(true) })
	})
	t.Run("refresh-on-regained-focus", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		var refreshErr error
		m := testProviderManager(t, tp, NewMemoryStorage(), WithVisibilityHook(VisibilityHookFuncs{
			RegainedFocus: func(m *Manager) {
				if !m.Authenticated() {
					refreshErr = m.Refresh(context.Background())
				}
			},
		}))
		m.VisibilityChanged(true)
		require.False(m.Authenticated())
		m.VisibilityChanged(false)
		require.NoError(refreshErr)
		assert.True(m.Authenticated())
	})
}
