package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/worksheethub/pkg/configs"
	"github.com/yeisme/worksheethub/pkg/internal/types"
)

func TestSweepFindsAndRemovesOrphans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.worksheets().Create(ctx, types.CreateWorksheetForm{Title: "A", AgeRange: "3-4", Category: "Math"},
		WorksheetFiles{PDF: NewUpload("a.pdf", "application/pdf", pdfBytes)})
	require.NoError(t, err)

	kept := f.rows(t)[0].PDFURL

	const orphan = "/uploads/category-icons/cat_9_1.png"
	require.NoError(t, f.store.Put(ctx, orphan, bytes.NewReader(pngBytes), int64(len(pngBytes)), "image/png"))

	report, err := f.sweeper().Sweep(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, []string{orphan}, report.Orphans)
	assert.Zero(t, report.Removed)
	assert.Len(t, f.stored(t), 2)

	// 删除行后原文件也成为孤儿
	require.NoError(t, f.worksheets().Delete(ctx, res.IDs[0]))

	f.fixedClock(time.Now().Add(2 * time.Hour))

	report, err = f.sweeper().Sweep(ctx, true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{orphan, kept}, report.Orphans)
	assert.Equal(t, 2, report.Removed)
	assert.Zero(t, report.Skipped)
	assert.Empty(t, f.stored(t))
}

func TestSweepKeepsRecentOrphans(t *testing.T) {
	f := newFixture(t, func(c *configs.AppConfig) { c.Jobs.OrphanSweep.MinAge = time.Hour })
	ctx := context.Background()

	// 文件已写入，记录还没提交
	const pending = "/uploads/1700000000000.pdf"
	require.NoError(t, f.store.Put(ctx, pending, bytes.NewReader(pdfBytes), int64(len(pdfBytes)), "application/pdf"))

	report, err := f.sweeper().Sweep(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{pending}, report.Orphans)
	assert.Zero(t, report.Removed)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, []string{pending}, f.stored(t))

	f.fixedClock(time.Now().Add(61 * time.Minute))

	report, err = f.sweeper().Sweep(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Removed)
	assert.Empty(t, f.stored(t))
}
