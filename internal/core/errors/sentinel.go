package errors

// 预定义哨兵错误（用于 errors.Is 比较）
var (
	ErrUnauthorized = New(CodeUnauthorized, "unauthorized or session expired, please log in again")
	ErrForbidden    = New(CodeForbidden, "access forbidden")

	ErrInvalidParam = New(CodeInvalidParam, "invalid parameter")
	ErrInvalidData  = New(CodeInvalidData, "invalid data")
	ErrNotFound     = New(CodeNotFound, "resource not found")

	ErrNetwork = New(CodeNetworkError, "network error")
	ErrRemote  = New(CodeRemoteError, "remote error")

	ErrTimeout   = New(CodeTimeout, "operation timeout")
	ErrCancelled = New(CodeCancelled, "operation cancelled")

	ErrStorage  = New(CodeStorageError, "storage error")
	ErrInternal = New(CodeInternal, "internal error")
)

// IsTimeout 检查是否为超时错误
func IsTimeout(err error) bool {
	return IsCode(err, CodeTimeout)
}

// IsCancelled 检查是否为取消错误
func IsCancelled(err error) bool {
	return IsCode(err, CodeCancelled)
}

// IsUnauthorized 检查是否为认证失效错误
func IsUnauthorized(err error) bool {
	return IsCode(err, CodeUnauthorized)
}

// IsRemote 检查是否为远端显式错误
func IsRemote(err error) bool {
	return IsCode(err, CodeRemoteError)
}
