package service

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/oklog/ulid"

	"github.com/yeisme/worksheethub/pkg/internal/storage/assets"
	"github.com/yeisme/worksheethub/pkg/metrics"
)

var (
	ulidMu      sync.Mutex
	ulidEntropy = ulid.Monotonic(crand.Reader, 0)
)

func newULID(t time.Time) string {
	ulidMu.Lock()
	defer ulidMu.Unlock()

	return strings.ToLower(ulid.MustNew(ulid.Timestamp(t), ulidEntropy).String())
}

// Upload 一个待写入的上传文件.
type Upload struct {
	Filename    string // 客户端原始文件名
	ContentType string // 客户端声明的类型，可为空
	Size        int64
	open        func() (io.ReadCloser, error)
}

// FromFileHeader 由 multipart 文件头构造 Upload.
func FromFileHeader(fh *multipart.FileHeader) *Upload {
	if fh == nil {
		return nil
	}

	return &Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		open:        func() (io.ReadCloser, error) { return fh.Open() },
	}
}

// NewUpload 由内存数据构造 Upload.
func NewUpload(filename, contentType string, data []byte) *Upload {
	return &Upload{
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		open:        func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// Ext 原始扩展名，保留大小写.
func (u *Upload) Ext() string { return filepath.Ext(u.Filename) }

// Stem 去掉扩展名的文件名，用作批量上传的标题.
func (u *Upload) Stem() string {
	base := filepath.Base(strings.ReplaceAll(u.Filename, `\`, "/"))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// assetPolicy 某类资源的校验规则.
type assetPolicy struct {
	kind     assets.Kind
	field    string
	maxBytes int64
	allow    func(string) bool
	prefix   string // 实体资源文件名前缀，练习题为空
}

func (s *CatalogService) policy(kind assets.Kind, field string) assetPolicy {
	switch kind {
	case assets.KindAgeLogo:
		return assetPolicy{kind, field, s.upload.MaxIconBytes, s.upload.AllowsImage, "age"}
	case assets.KindAgeCateCover:
		return assetPolicy{kind, field, s.upload.MaxCoverBytes, s.upload.AllowsImage, "cate"}
	case assets.KindCategoryIcon:
		return assetPolicy{kind, field, s.upload.MaxIconBytes, s.upload.AllowsImage, "cat"}
	default:
		if field == "image" || field == "cover" {
			return assetPolicy{kind, field, s.upload.MaxWorksheetBytes, s.upload.AllowsImage, ""}
		}

		return assetPolicy{kind, field, s.upload.MaxWorksheetBytes, s.upload.AllowsDocument, ""}
	}
}

// checked 已通过校验的上传.
type checked struct {
	*Upload
	policy   assetPolicy
	mimeType string
}

// check 校验类型与大小，不写任何数据.
// 声明类型为空或 octet-stream 时按内容探测.
func (s *CatalogService) check(u *Upload, p assetPolicy) (*checked, error) {
	if u == nil {
		return nil, invalid(p.field, p.field+" is required")
	}

	if u.Size > p.maxBytes {
		metrics.UploadRejected.WithLabelValues(string(p.kind), "size").Inc()
		return nil, invalid(p.field, fmt.Sprintf("%s exceeds %d bytes", p.field, p.maxBytes))
	}

	mt := strings.TrimSpace(u.ContentType)
	if mt == "" || strings.HasPrefix(mt, "application/octet-stream") {
		sniffed, err := sniff(u)
		if err != nil {
			return nil, err
		}

		mt = sniffed
	}

	if !p.allow(mt) {
		metrics.UploadRejected.WithLabelValues(string(p.kind), "type").Inc()
		return nil, invalid(p.field, fmt.Sprintf("%s type %s is not allowed", p.field, mt))
	}

	return &checked{Upload: u, policy: p, mimeType: mt}, nil
}

func sniff(u *Upload) (string, error) {
	rc, err := u.open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer rc.Close()

	m, err := mimetype.DetectReader(rc)
	if err != nil {
		return "", fmt.Errorf("detect content type: %w", err)
	}

	return m.String(), nil
}

// fileName 生成存储文件名：练习题为 <ts><ext>，实体资源为 <prefix>_<id>_<ts><ext>（扩展名小写）.
func (s *CatalogService) fileName(c *checked, entityID uint, unique bool) string {
	now := s.now()
	ts := now.UnixMilli()
	ext := c.Ext()

	var base string
	if c.policy.prefix == "" {
		base = fmt.Sprintf("%d", ts)
	} else {
		base = fmt.Sprintf("%s_%d_%d", c.policy.prefix, entityID, ts)
		ext = strings.ToLower(ext)
	}

	if unique {
		base += "_" + newULID(now)
	}

	return base + ext
}

// write 写入资源存储并返回 /uploads/... 相对路径.
// 目标已存在时追加 ULID 后缀重试一次.
func (s *CatalogService) write(ctx context.Context, c *checked, entityID uint) (string, error) {
	unique := s.upload.UniqueSuffix

	for attempt := 0; attempt < 2; attempt++ {
		rel := assets.RelPath(c.policy.kind, s.fileName(c, entityID, unique))

		rc, err := c.open()
		if err != nil {
			return "", fmt.Errorf("open upload: %w", err)
		}

		err = s.store.Put(ctx, rel, rc, c.Size, c.mimeType)
		_ = rc.Close()

		switch {
		case err == nil:
			metrics.AssetBytesStored.WithLabelValues(string(c.policy.kind)).Add(float64(c.Size))
			return rel, nil
		case errors.Is(err, assets.ErrExists) && !unique:
			unique = true
		default:
			return "", fmt.Errorf("store %s: %w", c.policy.field, err)
		}
	}

	return "", fmt.Errorf("store %s: %w", c.policy.field, assets.ErrExists)
}

// discard 尽力删除已写入的文件，用于后续步骤失败时回收.
func (s *CatalogService) discard(ctx context.Context, paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}

		if err := s.store.Remove(context.WithoutCancel(ctx), p); err != nil {
			s.logger.Warn().Err(err).Str("path", p).Msg("remove asset failed")
		}
	}
}
