package service

import (
	"errors"
	"fmt"

	"github.com/yeisme/worksheethub/pkg/rule"
)

var (
	// ErrValidation 请求字段或上传文件不合法，未产生任何副作用.
	ErrValidation = errors.New("validation failed")
	// ErrConflict 唯一键冲突（用户名、分类名）.
	ErrConflict = errors.New("already exists")
	// ErrNotFound 目标记录不存在.
	ErrNotFound = errors.New("not found")
	// ErrBadCredentials 用户名或密码不匹配.
	ErrBadCredentials = errors.New("invalid username or password")
)

// ValidationError 带字段名的校验错误，errors.Is(err, ErrValidation) 为 true.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// validate 运行 rule 标签校验并转换为 ValidationError.
func validate(v any) error {
	err := rule.ValidateStruct(v)
	if err == nil {
		return nil
	}

	if field, msg, ok := rule.First(err); ok {
		return invalid(field, msg)
	}

	return err
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}
