// Package assets 保存上传的资源文件（练习题 PDF、预览图、年龄段 logo 与封面、分类图标）.
//
// 所有资源对外都用以 /uploads/ 开头的相对路径表示，按种类分目录：
//
//	/uploads/<ts>.pdf                      练习题主体与预览图
//	/uploads/age-logos/age_3_<ts>.png      年龄段 logo
//	/uploads/age-cate-covers/cate_3_<ts>.jpg
//	/uploads/category-icons/cat_7_<ts>.png
//
// 后端可以是本地目录或 S3 兼容的对象存储，二者使用相同的相对路径作为键.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// URLPrefix 资源相对路径的公共前缀.
const URLPrefix = "/uploads/"

// Kind 资源种类，决定子目录.
type Kind string

const (
	KindWorksheet    Kind = "worksheet"
	KindAgeLogo      Kind = "age-logos"
	KindAgeCateCover Kind = "age-cate-covers"
	KindCategoryIcon Kind = "category-icons"
)

var (
	// ErrExists 目标路径已存在，写入不会覆盖.
	ErrExists = errors.New("asset already exists")
	// ErrNotFound 资源不存在.
	ErrNotFound = errors.New("asset not found")
	// ErrInvalidPath 路径不在 /uploads/ 下或包含 ..
	ErrInvalidPath = errors.New("invalid asset path")
)

// Dir 返回种类对应的子目录，练习题位于根目录.
func (k Kind) Dir() string {
	if k == KindWorksheet {
		return ""
	}

	return string(k)
}

// RelPath 拼出资源的相对路径.
func RelPath(k Kind, name string) string {
	if d := k.Dir(); d != "" {
		return URLPrefix + d + "/" + name
	}

	return URLPrefix + name
}

// Under 判断相对路径是否位于某种类的目录下.
// 练习题目录是根目录，因此只匹配直接位于 /uploads/ 下的文件.
func Under(k Kind, rel string) bool {
	key, err := Key(rel)
	if err != nil {
		return false
	}

	dir, _ := path.Split(key)
	if k == KindWorksheet {
		return dir == ""
	}

	return dir == k.Dir()+"/"
}

// Key 把 /uploads/a/b.png 转为存储键 a/b.png，拒绝越界路径.
func Key(rel string) (string, error) {
	key, ok := strings.CutPrefix(rel, URLPrefix)
	if !ok || key == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, rel)
	}

	clean := path.Clean(key)
	if clean != key || strings.HasPrefix(clean, "../") || clean == ".." || strings.HasPrefix(clean, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, rel)
	}

	return clean, nil
}

// Info 资源元数据.
type Info struct {
	Path        string // 相对路径，/uploads/...
	Size        int64
	ContentType string
	ModTime     time.Time
}

// Store 资源存储后端.
type Store interface {
	// Put 以独占方式写入，路径已存在时返回 ErrExists.
	Put(ctx context.Context, rel string, r io.Reader, size int64, contentType string) error
	// Open 打开资源，调用方负责关闭.
	Open(ctx context.Context, rel string) (io.ReadCloser, Info, error)
	// Remove 删除资源，不存在时不报错.
	Remove(ctx context.Context, rel string) error
	// Walk 遍历所有资源.
	Walk(ctx context.Context, fn func(Info) error) error
	HealthCheck(ctx context.Context) error
	Name() string
}
