package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
)

// Local 本地目录实现，子目录按需创建.
type Local struct {
	root string
}

// NewLocal 创建本地存储，root 不存在时创建.
func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create asset root %s: %w", root, err)
	}

	return &Local{root: root}, nil
}

// Root 返回根目录.
func (l *Local) Root() string {
	return l.root
}

func (l *Local) Name() string { return "local" }

func (l *Local) abs(rel string) (string, error) {
	key, err := Key(rel)
	if err != nil {
		return "", err
	}

	return filepath.Join(l.root, filepath.FromSlash(key)), nil
}

func (l *Local) Put(ctx context.Context, rel string, r io.Reader, _ int64, _ string) error {
	p, err := l.abs(rel)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create asset dir: %w", err)
	}

	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrExists
		}

		return fmt.Errorf("create asset %s: %w", rel, err)
	}

	if _, err := io.Copy(f, readerWithContext(ctx, r)); err != nil {
		_ = f.Close()
		_ = os.Remove(p)

		return fmt.Errorf("write asset %s: %w", rel, err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(p)

		return fmt.Errorf("close asset %s: %w", rel, err)
	}

	return nil
}

func (l *Local) Open(_ context.Context, rel string) (io.ReadCloser, Info, error) {
	p, err := l.abs(rel)
	if err != nil {
		return nil, Info{}, err
	}

	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, Info{}, ErrNotFound
		}

		return nil, Info{}, err
	}

	st, err := f.Stat()
	if err != nil || st.IsDir() {
		_ = f.Close()

		return nil, Info{}, ErrNotFound
	}

	return f, Info{
		Path:        rel,
		Size:        st.Size(),
		ContentType: mime.TypeByExtension(path.Ext(rel)),
		ModTime:     st.ModTime(),
	}, nil
}

func (l *Local) Remove(_ context.Context, rel string) error {
	p, err := l.abs(rel)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove asset %s: %w", rel, err)
	}

	return nil
}

func (l *Local) Walk(ctx context.Context, fn func(Info) error) error {
	return filepath.WalkDir(l.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if d.IsDir() {
			return nil
		}

		relKey, err := filepath.Rel(l.root, p)
		if err != nil {
			return err
		}

		st, err := d.Info()
		if err != nil {
			return err
		}

		return fn(Info{
			Path:    URLPrefix + filepath.ToSlash(relKey),
			Size:    st.Size(),
			ModTime: st.ModTime(),
		})
	})
}

func (l *Local) HealthCheck(_ context.Context) error {
	st, err := os.Stat(l.root)
	if err != nil {
		return err
	}

	if !st.IsDir() {
		return fmt.Errorf("asset root %s is not a directory", l.root)
	}

	return nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}

	return c.r.Read(p)
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
