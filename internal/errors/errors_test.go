package errors

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// UserError Tests
// =============================================================================

func TestUserErrorError(t *testing.T) {
	t.Run("without_field", func(t *testing.T) {
		err := NewUserError("invalid input", "")
		assert.Equal(t, "invalid input", err.Error())
	})

	t.Run("with_field", func(t *testing.T) {
		err := NewUserErrorWithField("radius", "abc", "invalid radius", "")
		assert.Equal(t, "invalid radius: 'abc'", err.Error())
		assert.Equal(t, "radius", err.Field)
	})
}

func TestIsUserError(t *testing.T) {
	t.Run("wrapped_user_error", func(t *testing.T) {
		wrapped := fmt.Errorf("context: %w", NewUserError("test", ""))
		assert.True(t, IsUserError(wrapped))
	})

	t.Run("plain_error", func(t *testing.T) {
		assert.False(t, IsUserError(errors.New("plain")))
	})

	t.Run("nil_error", func(t *testing.T) {
		assert.False(t, IsUserError(nil))
	})
}

// =============================================================================
// SystemError / RecoverableError Tests
// =============================================================================

func TestSystemError(t *testing.T) {
	cause := errors.New("io")
	err := NewSystemErrorWithOp("save config", "storage failure", cause)

	assert.Equal(t, "storage failure during save config", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsSystemError(fmt.Errorf("x: %w", err)))
}

func TestRecoverableErrorIncrementRetry(t *testing.T) {
	err := NewRecoverableError("database busy", ErrLockHeld, 2)
	assert.True(t, err.CanRetry)
	assert.Equal(t, "database busy", err.Error())

	err.IncrementRetry()
	assert.True(t, err.CanRetry)
	assert.Equal(t, "database busy (attempt 1/2)", err.Error())

	err.IncrementRetry()
	assert.False(t, err.CanRetry)
	assert.ErrorIs(t, err, ErrLockHeld)
}

// =============================================================================
// Geofence Error Tests
// =============================================================================

func TestPermissionDeniedError(t *testing.T) {
	t.Run("foreground_message", func(t *testing.T) {
		err := NewPermissionDenied(ScopeForeground)
		assert.Equal(t, "需要位置权限才能使用地理围栏打卡", err.Error())
	})

	t.Run("background_message", func(t *testing.T) {
		err := NewPermissionDenied(ScopeBackground)
		assert.Equal(t, "需要后台位置权限才能在离开应用时接收打卡提醒", err.Error())
	})

	t.Run("matches_sentinel_through_wrap", func(t *testing.T) {
		err := fmt.Errorf("enable: %w", NewPermissionDenied(ScopeBackground))
		assert.ErrorIs(t, err, ErrPermissionDenied)

		pe, ok := AsPermissionDenied(err)
		require.True(t, ok)
		assert.Equal(t, ScopeBackground, pe.Scope)
	})
}

func TestRegistrationError(t *testing.T) {
	t.Run("register_with_cause", func(t *testing.T) {
		cause := errors.New("registry write failed")
		err := NewRegistrationError(OpRegister, cause)

		assert.Equal(t, "启动地理围栏失败: registry write failed", err.Error())
		assert.ErrorIs(t, err, cause)
		assert.ErrorIs(t, err, ErrRegistrationFailed)
	})

	t.Run("deregister_without_cause", func(t *testing.T) {
		err := &RegistrationError{Op: OpDeregister}
		assert.Equal(t, "关闭地理围栏失败", err.Error())
	})
}

func TestInvalidRadiusError(t *testing.T) {
	nan := &InvalidRadiusError{Input: "abc", Kind: RadiusNotANumber}
	low := &InvalidRadiusError{Input: "50", Kind: RadiusBelowMinimum}

	assert.Equal(t, "请输入有效的数字", nan.Error())
	assert.Equal(t, "半径不能小于 100 米", low.Error())
	assert.ErrorIs(t, low, ErrInvalidRadius)

	ie, ok := AsInvalidRadius(fmt.Errorf("save: %w", nan))
	require.True(t, ok)
	assert.Equal(t, "abc", ie.Input)
}

// =============================================================================
// Classification Tests
// =============================================================================

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"nil", nil, CategoryUnknown},
		{"plain", errors.New("x"), CategoryUnknown},
		{"user_error", NewUserError("x", ""), CategoryUser},
		{"permission_denied", NewPermissionDenied(ScopeForeground), CategoryUser},
		{"invalid_radius", &InvalidRadiusError{Kind: RadiusBelowMinimum}, CategoryUser},
		{"registration", NewRegistrationError(OpRegister, nil), CategorySystem},
		{"system_error", NewSystemError("x", nil), CategorySystem},
		{"recoverable", NewRecoverableError("x", nil, 1), CategoryRecoverable},
		{"lock_held_sentinel", Wrap(ErrLockHeld, "open"), CategoryRecoverable},
		{"disk_full_errno", fmt.Errorf("write: %w", syscall.ENOSPC), CategorySystem},
		{"eagain_errno", fmt.Errorf("read: %w", syscall.EAGAIN), CategoryRecoverable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestFormatByCategory(t *testing.T) {
	t.Run("user_with_suggestion", func(t *testing.T) {
		msg := FormatByCategory(&InvalidRadiusError{Kind: RadiusBelowMinimum})
		assert.Contains(t, msg, "半径不能小于 100 米")
		assert.Contains(t, msg, "Try: ")
	})

	t.Run("system_prefix", func(t *testing.T) {
		msg := FormatByCategory(NewRegistrationError(OpDeregister, errors.New("boom")))
		assert.Contains(t, msg, "System error: 关闭地理围栏失败: boom")
	})

	t.Run("recoverable_suffix", func(t *testing.T) {
		msg := FormatByCategory(NewRecoverableError("busy", nil, 3))
		assert.Equal(t, "busy (will retry automatically)", msg)
	})
}

func TestGetSuggestion(t *testing.T) {
	t.Run("user_error_suggestion_wins", func(t *testing.T) {
		err := &UserError{Message: "bad", Suggestion: "do this"}
		assert.Equal(t, "do this", GetSuggestion(err))
	})

	t.Run("sentinel_lookup", func(t *testing.T) {
		err := fmt.Errorf("x: %w", ErrTodoNotFound)
		assert.Contains(t, GetSuggestion(err), "violet todo list")
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Empty(t, GetSuggestion(errors.New("x")))
	})
}

// =============================================================================
// Wrap Tests
// =============================================================================

func TestChainAndRootCause(t *testing.T) {
	root := errors.New("root")
	err := WithContext(Wrap(root, "middle"), "outer")

	assert.Equal(t, []string{"outer: middle: root", "middle: root", "root"}, Chain(err))
	assert.Equal(t, root, RootCause(err))
	assert.Nil(t, WithContext(nil, "x"))
}

func TestFormatDebugError(t *testing.T) {
	err := WithContextf(NewPermissionDenied(ScopeForeground), "enable %s", "geofence")
	out := FormatDebugError(err)

	assert.Contains(t, out, "Error chain:")
	assert.Contains(t, out, "Category: user")
	assert.Contains(t, out, "Suggestion: ")
}
