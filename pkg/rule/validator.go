// Package rule 提供结构体和字段验证功能的封装，基于 go-playground/validator 实现.
// gin 的 binding 与配置校验共用同一个引擎，标签名统一为 rule.
package rule

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	inst *validator.Validate
	once sync.Once
)

// initValidator 尝试复用 gin 的 validator 引擎；若不可用则新建.
func initValidator() {
	if engine := binding.Validator.Engine(); engine != nil {
		if v, ok := engine.(*validator.Validate); ok {
			inst = v
		}
	}

	if inst == nil {
		inst = validator.New()
	}

	inst.SetTagName("rule")
	inst.RegisterTagNameFunc(fieldName)

	// notblank: 去掉空白后非空
	_ = inst.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	// csvnotblank: 逗号分隔的列表里至少有一个非空项，例如分类 "Math, Art"
	_ = inst.RegisterValidation("csvnotblank", func(fl validator.FieldLevel) bool {
		return len(SplitList(fl.Field().String())) > 0
	})
}

// fieldName 优先使用 json/form 标签作为错误中的字段名.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form", "mapstructure"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name != "" && name != "-" {
			return name
		}
	}

	return f.Name
}

func lazyInit() {
	once.Do(initValidator)
}

// Engine 返回全局 *validator.Validate，若未初始化则先初始化.
func Engine() *validator.Validate {
	lazyInit()

	return inst
}

// RegisterValidation 代理 RegisterValidation，确保已初始化.
func RegisterValidation(tag string, fn validator.Func, opts ...bool) error {
	lazyInit()

	return inst.RegisterValidation(tag, fn, opts...)
}

// ValidationErrors 是格式化后的验证错误字典，键为字段名，值为可读错误信息.
type ValidationErrors map[string]string

// Errors 把 validator 返回的错误整理为字段 -> 信息；不是校验错误时返回 nil.
func Errors(err error) ValidationErrors {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return nil
	}

	out := make(ValidationErrors, len(ves))
	for _, fe := range ves {
		out[fe.Field()] = describe(fe)
	}

	return out
}

// First 返回第一条校验错误的字段与信息，便于直接回写给客户端.
func First(err error) (field, msg string, ok bool) {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return "", "", false
	}

	return ves[0].Field(), describe(ves[0]), true
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fe.Field() + " is required"
	case "csvnotblank":
		return fe.Field() + " must list at least one value"
	case "oneof":
		return fe.Field() + " must be one of [" + fe.Param() + "]"
	case "max":
		return fe.Field() + " must be at most " + fe.Param()
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	default:
		return fe.Field() + " failed " + fe.Tag()
	}
}

// SplitList 按逗号拆分并去掉每项两端空白，丢弃空项，保持原有顺序与重复项.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}

// ValidateStruct 对结构体执行完整校验，返回原始 error（可用 Errors 解析）.
func ValidateStruct(s any) error {
	lazyInit()

	return inst.Struct(s)
}

// ValidateVar 按规则对单个变量校验，例如: ValidateVar("abc", "required,notblank").
func ValidateVar(field any, tag string) error {
	lazyInit()

	return inst.Var(field, tag)
}

// RegisterAlias 包装 RegisterAlias，便于注册别名规则.
func RegisterAlias(alias, rules string) {
	lazyInit()

	inst.RegisterAlias(alias, rules)
}
