package rule_test

import (
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/yeisme/worksheethub/pkg/rule"
)

type loginForm struct {
	Username string `json:"username" rule:"required,notblank"`
	Password string `json:"password" rule:"required"`
}

type worksheetForm struct {
	Title    string `form:"title"    rule:"notblank"`
	Category string `form:"category" rule:"csvnotblank"`
}

// TestEngine 测试 Engine 函数返回非 nil 实例.
func TestEngine(t *testing.T) {
	if rule.Engine() == nil {
		t.Error("Engine() returned nil")
	}
}

// TestValidateStruct 测试 ValidateStruct 对有效和无效结构体的验证.
func TestValidateStruct(t *testing.T) {
	if err := rule.ValidateStruct(loginForm{Username: "mia", Password: "pw"}); err != nil {
		t.Errorf("Expected no error for valid struct, got %v", err)
	}

	err := rule.ValidateStruct(loginForm{Username: "   ", Password: "pw"})
	if err == nil {
		t.Fatal("Expected error for blank username, got nil")
	}

	errs := rule.Errors(err)
	if errs["username"] == "" {
		t.Errorf("Expected error keyed by json name, got %v", errs)
	}
}

// TestCSVNotBlank 分类列表至少包含一个非空项.
func TestCSVNotBlank(t *testing.T) {
	cases := map[string]bool{
		"Math":      true,
		"Math, Art": true,
		" , ,Art":   true,
		"":          false,
		" , ":       false,
		",,,":       false,
	}

	for in, ok := range cases {
		err := rule.ValidateStruct(worksheetForm{Title: "t", Category: in})
		if ok && err != nil {
			t.Errorf("category %q: unexpected error %v", in, err)
		}

		if !ok && err == nil {
			t.Errorf("category %q: expected error", in)
		}
	}
}

func TestFirst(t *testing.T) {
	err := rule.ValidateStruct(worksheetForm{Title: "", Category: "Math"})

	field, msg, ok := rule.First(err)
	if !ok || field != "title" || msg != "title is required" {
		t.Errorf("unexpected first error: %q %q %v", field, msg, ok)
	}

	if _, _, ok := rule.First(nil); ok {
		t.Error("First(nil) should report ok=false")
	}
}

func TestSplitList(t *testing.T) {
	got := rule.SplitList(" Math ,Art,,Math ")
	want := []string{"Math", "Art", "Math"}

	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %q, want %q", i, got[i], want[i])
		}
	}

	if rule.SplitList("") != nil {
		t.Error("empty input should yield nil")
	}
}

// TestRegisterValidation 测试注册自定义验证.
func TestRegisterValidation(t *testing.T) {
	err := rule.RegisterValidation("even_length", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}

		return len(str)%2 == 0
	})
	if err != nil {
		t.Fatalf("Failed to register validation: %v", err)
	}

	if err := rule.ValidateVar("test", "even_length"); err != nil {
		t.Errorf("Expected no error for even length string, got %v", err)
	}

	if err := rule.ValidateVar("test1", "even_length"); err == nil {
		t.Error("Expected error for odd length string, got nil")
	}
}

// TestRegisterAlias 测试注册别名.
func TestRegisterAlias(t *testing.T) {
	rule.RegisterAlias("age_label", "required,max=8")

	if err := rule.ValidateVar("3-4", "age_label"); err != nil {
		t.Errorf("Expected no error for valid label, got %v", err)
	}

	if err := rule.ValidateVar("", "age_label"); err == nil {
		t.Error("Expected error for empty label, got nil")
	}
}
