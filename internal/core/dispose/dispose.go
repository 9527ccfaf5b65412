// Package dispose 按注册的相反顺序释放资源
package dispose

import (
	"fmt"
	"strings"
)

// DisposeError 单个资源释放失败
type DisposeError struct {
	ResourceName string
	Err          error
}

func (e *DisposeError) Error() string {
	return fmt.Sprintf("dispose resource[%s] failed: %v", e.ResourceName, e.Err)
}

func (e *DisposeError) Unwrap() error { return e.Err }

// DisposeResult 释放结果
type DisposeResult struct {
	Errors []*DisposeError
}

func (r *DisposeResult) HasErrors() bool {
	return r != nil && len(r.Errors) > 0
}

func (r *DisposeResult) Error() string {
	if !r.HasErrors() {
		return ""
	}
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

// Err 无错误时返回 nil
func (r *DisposeResult) Err() error {
	if !r.HasErrors() {
		return nil
	}
	return r
}

// Disposable 统一的资源释放接口
type Disposable interface {
	Dispose() error
}

// Func 函数适配器
type Func func() error

func (f Func) Dispose() error { return f() }
