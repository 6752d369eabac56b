package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/worksheethub/pkg/configs"
	"github.com/yeisme/worksheethub/pkg/internal/model"
	"github.com/yeisme/worksheethub/pkg/internal/storage"
	"github.com/yeisme/worksheethub/pkg/internal/storage/assets"
	"github.com/yeisme/worksheethub/pkg/internal/storage/db"
)

const testOrigin = "https://kids.example"

var (
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
)

type fixture struct {
	cfg   configs.AppConfig
	mgr   *storage.Manager
	store *assets.Local
	svc   *CatalogService
}

// newFixture 使用临时目录中的 sqlite 与本地资源目录.
func newFixture(t *testing.T, mutate ...func(*configs.AppConfig)) *fixture {
	t.Helper()

	base, err := configs.LoadDefaults()
	require.NoError(t, err)

	cfg := *base
	cfg.Server.PublicOrigin = testOrigin

	for _, m := range mutate {
		m(&cfg)
	}

	dir := t.TempDir()

	client, err := db.Open(sqlite.Open(filepath.Join(dir, "catalog.db")))
	require.NoError(t, err)
	require.NoError(t, client.Migrate(context.Background(), model.All()...))
	t.Cleanup(func() { _ = client.Close() })

	store, err := assets.NewLocal(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	mgr := &storage.Manager{DB: client, Assets: store}

	return &fixture{cfg: cfg, mgr: mgr, store: store, svc: NewCatalogServiceWith(mgr, &cfg)}
}

func (f *fixture) worksheets() *WorksheetService { return &WorksheetService{f.svc} }

func (f *fixture) registry() *RegistryService { return &RegistryService{f.svc} }

func (f *fixture) users() *UserService { return &UserService{f.svc} }

func (f *fixture) sweeper() *SweepService { return &SweepService{f.svc} }

// stored 返回资源存储中的全部路径.
func (f *fixture) stored(t *testing.T) []string {
	t.Helper()

	var out []string

	require.NoError(t, f.store.Walk(context.Background(), func(i assets.Info) error {
		out = append(out, i.Path)
		return nil
	}))

	return out
}

// fixedClock 让文件名可预测.
func (f *fixture) fixedClock(ts time.Time) {
	f.svc.now = func() time.Time { return ts }
}

func (f *fixture) rows(t *testing.T) []model.Worksheet {
	t.Helper()

	var rows []model.Worksheet
	require.NoError(t, f.mgr.DB.Order("id").Find(&rows).Error)

	return rows
}
