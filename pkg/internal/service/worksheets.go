package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yeisme/worksheethub/pkg/internal/model"
	"github.com/yeisme/worksheethub/pkg/internal/storage/assets"
	"github.com/yeisme/worksheethub/pkg/internal/types"
	"github.com/yeisme/worksheethub/pkg/metrics"
	"github.com/yeisme/worksheethub/pkg/queue"
	"github.com/yeisme/worksheethub/pkg/rule"
	"github.com/yeisme/worksheethub/pkg/tracing"
)

// WorksheetService 练习题的扇出写入、编辑与读取.
type WorksheetService struct{ *CatalogService }

func NewWorksheetService(c context.Context) *WorksheetService {
	return &WorksheetService{NewCatalogService(c)}
}

// WorksheetFiles 单个上传附带的文件，均可为空.
type WorksheetFiles struct {
	Image *Upload
	PDF   *Upload
}

// List 按创建时间倒序列出练习题.
// 年龄段按包含关系匹配逗号拼接的标签串，分类精确匹配其一.
func (s *WorksheetService) List(ctx context.Context, f types.WorksheetFilter) ([]types.WorksheetView, error) {
	q := s.dbClient.WithContext(ctx).Order("created_at DESC").Order("id DESC")

	if cats := trimAll(f.Categories); len(cats) > 0 {
		q = q.Where("category IN ?", cats)
	}

	var rows []model.Worksheet
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list worksheets: %w", err)
	}

	age := strings.TrimSpace(f.Age)
	out := make([]types.WorksheetView, 0, len(rows))

	for i := range rows {
		if age != "" && !strings.Contains(strings.TrimSpace(rows[i].AgeRange), age) {
			continue
		}

		out = append(out, WorksheetView(s.origin, &rows[i]))
	}

	return out, nil
}

// Create 单个上传：每个分类写入一行，共享标题、年龄段与文件路径.
// 所有校验在写文件之前完成.
func (s *WorksheetService) Create(ctx context.Context, form types.CreateWorksheetForm, files WorksheetFiles) (types.FanOutResult, error) {
	ctx, span := tracing.StartSpan(ctx, "worksheet.create")
	defer span.End()

	if err := validate(&form); err != nil {
		return types.FanOutResult{}, err
	}

	ages, cats, err := fanOutTargets(form.AgeRange, form.Category)
	if err != nil {
		return types.FanOutResult{}, err
	}

	var image, pdf *checked

	if files.Image != nil {
		if image, err = s.check(files.Image, s.policy(assets.KindWorksheet, "image")); err != nil {
			return types.FanOutResult{}, err
		}
	}

	if files.PDF != nil {
		if pdf, err = s.check(files.PDF, s.policy(assets.KindWorksheet, "pdf")); err != nil {
			return types.FanOutResult{}, err
		}
	}

	s.warnUnknownCategories(ctx, cats)

	written := make([]string, 0, 2)

	imageURL, err := s.writeOptional(ctx, image)
	if err != nil {
		tracing.RecordError(span, err)
		return types.FanOutResult{}, err
	}

	written = append(written, imageURL)

	pdfURL, err := s.writeOptional(ctx, pdf)
	if err != nil {
		s.discard(ctx, written...)
		tracing.RecordError(span, err)

		return types.FanOutResult{}, err
	}

	written = append(written, pdfURL)

	title := strings.TrimSpace(form.Title)
	rows := make([]model.Worksheet, 0, len(cats))

	for _, cat := range cats {
		rows = append(rows, model.Worksheet{
			Title:    title,
			AgeRange: ages,
			Category: cat,
			ImageURL: imageURL,
			PDFURL:   pdfURL,
		})
	}

	if err := s.insert(ctx, rows); err != nil {
		s.discard(ctx, written...)
		tracing.RecordError(span, err)

		return types.FanOutResult{}, err
	}

	ids := rowIDs(rows)
	metrics.WorksheetRowsCreated.WithLabelValues("single").Add(float64(len(rows)))

	s.logger.Info().Str("title", title).Strs("categories", cats).Int("rows", len(rows)).Msg("worksheet created")

	s.publishStored(ctx, image, imageURL)
	s.publishStored(ctx, pdf, pdfURL)
	publish(ctx, s.CatalogService, s.events.Worksheet.Created, queue.TopicWorksheetCreated, queue.WorksheetCreatedPayload{
		IDs: ids, Title: title, AgeRange: ages, Categories: cats, Mode: "single", Files: 1,
	})

	return types.FanOutResult{
		Message: fmt.Sprintf("Success! Added to %d categories.", len(rows)),
		Count:   len(rows),
		IDs:     ids,
	}, nil
}

// CreateBulk 批量上传：每个文件成为一份练习题，标题取自原文件名（去掉扩展名）.
// 未提供封面时预览图使用文件自身.
func (s *WorksheetService) CreateBulk(ctx context.Context, form types.BulkWorksheetForm, cover *Upload, files []*Upload) (types.FanOutResult, error) {
	ctx, span := tracing.StartSpan(ctx, "worksheet.bulk")
	defer span.End()

	if err := validate(&form); err != nil {
		return types.FanOutResult{}, err
	}

	ages, cats, err := fanOutTargets(form.AgeRange, form.Category)
	if err != nil {
		return types.FanOutResult{}, err
	}

	files = compact(files)
	if len(files) == 0 {
		return types.FanOutResult{}, invalid("files", "at least one worksheet file is required")
	}

	if len(files) > s.upload.MaxBulkFiles {
		return types.FanOutResult{}, invalid("files", fmt.Sprintf("at most %d files per upload", s.upload.MaxBulkFiles))
	}

	var coverChecked *checked

	if cover != nil {
		if coverChecked, err = s.check(cover, s.policy(assets.KindWorksheet, "cover")); err != nil {
			return types.FanOutResult{}, err
		}
	}

	bodies := make([]*checked, 0, len(files))

	for _, f := range files {
		c, err := s.check(f, s.policy(assets.KindWorksheet, "files"))
		if err != nil {
			return types.FanOutResult{}, err
		}

		bodies = append(bodies, c)
	}

	s.warnUnknownCategories(ctx, cats)

	written := make([]string, 0, len(bodies)+1)

	coverURL, err := s.writeOptional(ctx, coverChecked)
	if err != nil {
		tracing.RecordError(span, err)
		return types.FanOutResult{}, err
	}

	written = append(written, coverURL)

	rows := make([]model.Worksheet, 0, len(bodies)*len(cats))

	for _, b := range bodies {
		fileURL, err := s.write(ctx, b, 0)
		if err != nil {
			s.discard(ctx, written...)
			tracing.RecordError(span, err)

			return types.FanOutResult{}, err
		}

		written = append(written, fileURL)

		imageURL := coverURL
		if imageURL == "" {
			imageURL = fileURL
		}

		for _, cat := range cats {
			rows = append(rows, model.Worksheet{
				Title:    b.Stem(),
				AgeRange: ages,
				Category: cat,
				ImageURL: imageURL,
				PDFURL:   fileURL,
			})
		}
	}

	if err := s.insert(ctx, rows); err != nil {
		s.discard(ctx, written...)
		tracing.RecordError(span, err)

		return types.FanOutResult{}, err
	}

	ids := rowIDs(rows)
	metrics.WorksheetRowsCreated.WithLabelValues("bulk").Add(float64(len(rows)))

	s.logger.Info().Int("files", len(bodies)).Strs("categories", cats).Int("rows", len(rows)).Msg("bulk worksheets created")

	s.publishStored(ctx, coverChecked, coverURL)

	for i, b := range bodies {
		s.publishStored(ctx, b, written[i+1])
	}

	publish(ctx, s.CatalogService, s.events.Worksheet.Created, queue.TopicWorksheetCreated, queue.WorksheetCreatedPayload{
		IDs: ids, AgeRange: ages, Categories: cats, Mode: "bulk", Files: len(bodies),
	})

	return types.FanOutResult{
		Message: fmt.Sprintf("Added %d worksheets", len(rows)),
		Count:   len(rows),
		IDs:     ids,
	}, nil
}

// Update 编辑单行. 未上传新文件时沿用 existing* 字段（去掉主机部分），旧文件不删除.
func (s *WorksheetService) Update(ctx context.Context, id uint, form types.UpdateWorksheetForm, files WorksheetFiles) error {
	ctx, span := tracing.StartSpan(ctx, "worksheet.update")
	defer span.End()

	if err := validate(&form); err != nil {
		return err
	}

	ages := strings.Join(rule.SplitList(form.AgeRange), ",")
	if ages == "" {
		return invalid("ageRange", "ageRange is required")
	}

	var image, pdf *checked

	var err error

	if files.Image != nil {
		if image, err = s.check(files.Image, s.policy(assets.KindWorksheet, "image")); err != nil {
			return err
		}
	}

	if files.PDF != nil {
		if pdf, err = s.check(files.PDF, s.policy(assets.KindWorksheet, "pdf")); err != nil {
			return err
		}
	}

	var row model.Worksheet
	if err := s.dbClient.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("worksheet %d", id)
		}

		return fmt.Errorf("load worksheet: %w", err)
	}

	imageURL := CleanURL(form.ExistingImage)
	pdfURL := CleanURL(form.ExistingPDF)
	written := make([]string, 0, 2)

	if image != nil {
		if imageURL, err = s.write(ctx, image, 0); err != nil {
			tracing.RecordError(span, err)
			return err
		}

		written = append(written, imageURL)
	}

	if pdf != nil {
		if pdfURL, err = s.write(ctx, pdf, 0); err != nil {
			s.discard(ctx, written...)
			tracing.RecordError(span, err)

			return err
		}

		written = append(written, pdfURL)
	}

	title := strings.TrimSpace(form.Title)
	category := strings.TrimSpace(form.Category)

	err = s.dbClient.WithContext(ctx).Model(&row).Updates(map[string]any{
		"title":     title,
		"age_range": ages,
		"category":  category,
		"image_url": imageURL,
		"pdf_url":   pdfURL,
	}).Error
	if err != nil {
		s.discard(ctx, written...)
		tracing.RecordError(span, err)

		return fmt.Errorf("update worksheet: %w", err)
	}

	s.publishStored(ctx, image, imageURL)
	s.publishStored(ctx, pdf, pdfURL)
	publish(ctx, s.CatalogService, s.events.Worksheet.Updated, queue.TopicWorksheetUpdated, queue.WorksheetUpdatedPayload{
		ID: id, Title: title, AgeRange: ages, Category: category, ImageURL: imageURL, PDFURL: pdfURL,
	})

	return nil
}

// Delete 删除单行，文件保留.
func (s *WorksheetService) Delete(ctx context.Context, id uint) error {
	res := s.dbClient.WithContext(ctx).Delete(&model.Worksheet{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete worksheet: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return notFound("worksheet %d", id)
	}

	publish(ctx, s.CatalogService, s.events.Worksheet.Deleted, queue.TopicWorksheetDeleted, queue.WorksheetDeletedPayload{ID: id})

	return nil
}

// insert 在一个事务中批量写入.
func (s *WorksheetService) insert(ctx context.Context, rows []model.Worksheet) error {
	err := s.dbClient.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("insert worksheets: %w", err)
	}

	return nil
}

func (s *WorksheetService) writeOptional(ctx context.Context, c *checked) (string, error) {
	if c == nil {
		return "", nil
	}

	return s.write(ctx, c, 0)
}

func (s *CatalogService) publishStored(ctx context.Context, c *checked, path string) {
	if c == nil || path == "" {
		return
	}

	publish(ctx, s, s.events.Asset.Stored, queue.TopicAssetStored, queue.AssetStoredPayload{
		Asset: queue.AssetRef{Path: path, Kind: string(c.policy.kind), Size: c.Size, ContentType: c.mimeType},
	})
}

// fanOutTargets 返回拼接后的年龄段串与去空白后的分类列表.
// 年龄段保持选择顺序并保留重复项.
func fanOutTargets(ageRange, category string) (string, []string, error) {
	ages := rule.SplitList(ageRange)
	if len(ages) == 0 {
		return "", nil, invalid("ageRange", "ageRange is required")
	}

	cats := rule.SplitList(category)
	if len(cats) == 0 {
		return "", nil, invalid("category", "Category is required")
	}

	return strings.Join(ages, ","), cats, nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))

	for _, v := range in {
		out = append(out, rule.SplitList(v)...)
	}

	return out
}

func compact(files []*Upload) []*Upload {
	out := files[:0:0]

	for _, f := range files {
		if f != nil {
			out = append(out, f)
		}
	}

	return out
}

func rowIDs(rows []model.Worksheet) []uint {
	ids := make([]uint, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}

	return ids
}
