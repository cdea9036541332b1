package errors

import "fmt"

// PermissionScope names the permission a request was refused for.
type PermissionScope string

const (
	ScopeForeground   PermissionScope = "foreground"
	ScopeBackground   PermissionScope = "background"
	ScopeNotification PermissionScope = "notification"
)

// PermissionDeniedError is returned when the user refuses a location or
// notification permission. No registration happens after it.
type PermissionDeniedError struct {
	Scope PermissionScope
}

func (e *PermissionDeniedError) Error() string {
	switch e.Scope {
	case ScopeForeground:
		return "需要位置权限才能使用地理围栏打卡"
	case ScopeBackground:
		return "需要后台位置权限才能在离开应用时接收打卡提醒"
	case ScopeNotification:
		return "需要通知权限才能接收打卡提醒"
	default:
		return fmt.Sprintf("%s permission denied", e.Scope)
	}
}

// Is matches ErrPermissionDenied.
func (e *PermissionDeniedError) Is(target error) bool {
	return target == ErrPermissionDenied
}

// NewPermissionDenied creates a PermissionDeniedError for scope.
func NewPermissionDenied(scope PermissionScope) *PermissionDeniedError {
	return &PermissionDeniedError{Scope: scope}
}

// AsPermissionDenied extracts a PermissionDeniedError from an error chain.
func AsPermissionDenied(err error) (*PermissionDeniedError, bool) {
	var pe *PermissionDeniedError
	ok := As(err, &pe)
	return pe, ok
}

// RegistrationOp is the monitoring operation that failed.
type RegistrationOp string

const (
	OpRegister   RegistrationOp = "register"
	OpDeregister RegistrationOp = "deregister"
)

// RegistrationError is returned when the platform monitor refuses to start
// or stop geofence monitoring.
type RegistrationError struct {
	Op     RegistrationOp
	Reason string
	Cause  error
}

func (e *RegistrationError) Error() string {
	what := "启动地理围栏失败"
	if e.Op == OpDeregister {
		what = "关闭地理围栏失败"
	}
	switch {
	case e.Reason != "":
		return what + ": " + e.Reason
	case e.Cause != nil:
		return what + ": " + e.Cause.Error()
	default:
		return what
	}
}

func (e *RegistrationError) Unwrap() error {
	return e.Cause
}

// Is matches ErrRegistrationFailed.
func (e *RegistrationError) Is(target error) bool {
	return target == ErrRegistrationFailed
}

// NewRegistrationError creates a RegistrationError for op.
func NewRegistrationError(op RegistrationOp, cause error) *RegistrationError {
	re := &RegistrationError{Op: op, Cause: cause}
	if cause != nil {
		re.Reason = cause.Error()
	}
	return re
}

// AsRegistrationError extracts a RegistrationError from an error chain.
func AsRegistrationError(err error) (*RegistrationError, bool) {
	var re *RegistrationError
	ok := As(err, &re)
	return re, ok
}

// RadiusErrorKind distinguishes unparsable input from an out-of-range value.
type RadiusErrorKind int

const (
	RadiusNotANumber RadiusErrorKind = iota
	RadiusBelowMinimum
)

// InvalidRadiusError is returned when radius input is rejected before saving.
type InvalidRadiusError struct {
	Input string
	Kind  RadiusErrorKind
}

func (e *InvalidRadiusError) Error() string {
	if e.Kind == RadiusBelowMinimum {
		return "半径不能小于 100 米"
	}
	return "请输入有效的数字"
}

// Is matches ErrInvalidRadius.
func (e *InvalidRadiusError) Is(target error) bool {
	return target == ErrInvalidRadius
}

// AsInvalidRadius extracts an InvalidRadiusError from an error chain.
func AsInvalidRadius(err error) (*InvalidRadiusError, bool) {
	var ie *InvalidRadiusError
	ok := As(err, &ie)
	return ie, ok
}
