package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/yeisme/worksheethub/pkg/internal/model"
	"github.com/yeisme/worksheethub/pkg/internal/storage/assets"
	"github.com/yeisme/worksheethub/pkg/metrics"
)

// SweepReport 一次孤儿文件对账的结果.
type SweepReport struct {
	Scanned    int      `json:"scanned"`
	Referenced int      `json:"referenced"`
	Orphans    []string `json:"orphans"`
	Removed    int      `json:"removed"`
	// Skipped 因为太新而未删除的孤儿文件数.
	Skipped int `json:"skipped"`
}

// SweepService 对比资源存储与数据库引用，找出无人引用的文件.
type SweepService struct{ *CatalogService }

func NewSweepService(c context.Context) *SweepService {
	return &SweepService{NewCatalogService(c)}
}

// Sweep 列出孤儿文件；remove 为 true 时删除它们.
func (s *SweepService) Sweep(ctx context.Context, remove bool) (SweepReport, error) {
	refs, err := s.references(ctx)
	if err != nil {
		return SweepReport{}, err
	}

	report := SweepReport{Referenced: len(refs), Orphans: []string{}}
	cutoff := s.now().Add(-s.orphanAge)
	young := make(map[string]bool)

	err = s.store.Walk(ctx, func(info assets.Info) error {
		report.Scanned++

		if !refs[info.Path] {
			report.Orphans = append(report.Orphans, info.Path)

			if info.ModTime.After(cutoff) {
				young[info.Path] = true
			}
		}

		return nil
	})
	if err != nil {
		return SweepReport{}, fmt.Errorf("walk assets: %w", err)
	}

	sort.Strings(report.Orphans)
	metrics.OrphanAssets.Set(float64(len(report.Orphans)))

	if remove {
		for _, p := range report.Orphans {
			// 上传写入文件与提交记录之间的文件也像孤儿
			if young[p] {
				report.Skipped++
				continue
			}

			if err := s.store.Remove(ctx, p); err != nil {
				s.logger.Warn().Err(err).Str("path", p).Msg("remove orphan failed")
				continue
			}

			report.Removed++
		}
	}

	s.logger.Info().
		Int("scanned", report.Scanned).
		Int("orphans", len(report.Orphans)).
		Int("removed", report.Removed).
		Int("skipped", report.Skipped).
		Msg("orphan sweep finished")

	return report, nil
}

// references 收集所有被引用的 /uploads/... 路径.
func (s *SweepService) references(ctx context.Context) (map[string]bool, error) {
	refs := make(map[string]bool)
	add := func(vals ...string) {
		for _, v := range vals {
			if v = CleanURL(v); v != "" {
				refs[v] = true
			}
		}
	}

	dbx := s.dbClient.WithContext(ctx)

	var sheets []model.Worksheet
	if err := dbx.Select("image_url", "pdf_url").Find(&sheets).Error; err != nil {
		return nil, fmt.Errorf("load worksheet refs: %w", err)
	}

	for _, w := range sheets {
		add(w.ImageURL, w.PDFURL)
	}

	var groups []model.AgeGroup
	if err := dbx.Select("logo_url", "cate_cover_url").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("load age group refs: %w", err)
	}

	for _, g := range groups {
		add(deref(g.LogoURL), deref(g.CateCoverURL))
	}

	var cats []model.Category
	if err := dbx.Select("icon_url").Find(&cats).Error; err != nil {
		return nil, fmt.Errorf("load category refs: %w", err)
	}

	for _, c := range cats {
		add(c.IconURL)
	}

	return refs, nil
}
