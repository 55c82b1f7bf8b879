package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind 错误类别
// 核心层只携带类别和结构化上下文,不携带面向用户的文案
type Kind int

const (
	// KindInternal 内部错误(未分类)
	KindInternal Kind = iota
	// KindValidation 必填字段缺失或字段值无效
	KindValidation
	// KindForbidden 调用者无权执行该操作
	KindForbidden
	// KindNotFound 资源不存在或不在调用者可见范围内
	KindNotFound
	// KindConflict 当前状态不允许该操作(如存在未完结的子任务)
	KindConflict
)

// String 返回类别名称
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error 带类别和结构化上下文的领域错误
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(": ")
	b.WriteString(e.Message)
	for k, v := range e.Fields {
		fmt.Fprintf(&b, " %s=%s", k, v)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap 支持 errors.Is/As 链
func (e *Error) Unwrap() error {
	return e.Err
}

// With 附加结构化上下文(键值对),返回自身便于链式调用
func (e *Error) With(key, value string) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[key] = value
	return e
}

// Validation 创建校验错误
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Forbidden 创建权限错误
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// NotFound 创建资源不存在错误
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Conflict 创建状态冲突错误
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Internal 包装内部错误
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf 返回错误的类别,非领域错误归为 KindInternal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind 判断错误是否属于指定类别
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
