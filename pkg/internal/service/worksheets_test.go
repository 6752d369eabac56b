package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/worksheethub/pkg/configs"
	"github.com/yeisme/worksheethub/pkg/internal/storage/mq"
	"github.com/yeisme/worksheethub/pkg/internal/types"
	"github.com/yeisme/worksheethub/pkg/queue"
)

func TestCreateFansOutOneRowPerCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.worksheets().Create(ctx, types.CreateWorksheetForm{
		Title:    "Numbers 1-10",
		AgeRange: "3-4,4-5",
		Category: "Math, Logic",
	}, WorksheetFiles{
		Image: NewUpload("cover.png", "image/png", pngBytes),
		PDF:   NewUpload("numbers.pdf", "application/pdf", pdfBytes),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Len(t, res.IDs, 2)

	rows := f.rows(t)
	require.Len(t, rows, 2)

	for i, cat := range []string{"Math", "Logic"} {
		assert.Equal(t, "Numbers 1-10", rows[i].Title)
		assert.Equal(t, "3-4,4-5", rows[i].AgeRange)
		assert.Equal(t, cat, rows[i].Category)
		assert.Equal(t, rows[0].ImageURL, rows[i].ImageURL)
		assert.Equal(t, rows[0].PDFURL, rows[i].PDFURL)
	}

	assert.Regexp(t, `^/uploads/\d+\.png$`, rows[0].ImageURL)
	assert.Regexp(t, `^/uploads/\d+\.pdf$`, rows[0].PDFURL)
	assert.ElementsMatch(t, []string{rows[0].ImageURL, rows[0].PDFURL}, f.stored(t))
}

func TestCreateKeepsAgeTagOrderAndDuplicates(t *testing.T) {
	f := newFixture(t)

	_, err := f.worksheets().Create(context.Background(), types.CreateWorksheetForm{
		Title: "Shapes", AgeRange: " 4-5, 3-4,4-5", Category: "Art",
	}, WorksheetFiles{})
	require.NoError(t, err)

	rows := f.rows(t)
	require.Len(t, rows, 1)
	assert.Equal(t, "4-5,3-4,4-5", rows[0].AgeRange)
	assert.Empty(t, rows[0].ImageURL)
	assert.Empty(t, rows[0].PDFURL)
}

func TestCreateRejectsBeforeWritingFiles(t *testing.T) {
	cases := []struct {
		name  string
		form  types.CreateWorksheetForm
		files WorksheetFiles
		field string
	}{
		{
			name:  "blank categories",
			form:  types.CreateWorksheetForm{Title: "A", AgeRange: "3-4", Category: " , "},
			files: WorksheetFiles{PDF: NewUpload("a.pdf", "application/pdf", pdfBytes)},
			field: "category",
		},
		{
			name:  "missing title",
			form:  types.CreateWorksheetForm{Title: "  ", AgeRange: "3-4", Category: "Math"},
			files: WorksheetFiles{PDF: NewUpload("a.pdf", "application/pdf", pdfBytes)},
			field: "title",
		},
		{
			name: "pdf of wrong type",
			form: types.CreateWorksheetForm{Title: "A", AgeRange: "3-4", Category: "Math"},
			files: WorksheetFiles{
				Image: NewUpload("a.png", "image/png", pngBytes),
				PDF:   NewUpload("a.txt", "text/plain", []byte("hello")),
			},
			field: "pdf",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.worksheets().Create(context.Background(), tc.form, tc.files)
			require.ErrorIs(t, err, ErrValidation)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tc.field, ve.Field)

			assert.Empty(t, f.stored(t))
			assert.Empty(t, f.rows(t))
		})
	}
}

func TestCreateRejectsOversizedImage(t *testing.T) {
	f := newFixture(t, func(c *configs.AppConfig) { c.Upload.MaxWorksheetBytes = 8 })

	_, err := f.worksheets().Create(context.Background(), types.CreateWorksheetForm{
		Title: "A", AgeRange: "3-4", Category: "Math",
	}, WorksheetFiles{Image: NewUpload("a.png", "image/png", pngBytes)})
	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, f.stored(t))
}

func TestCreateRetriesOnNameCollision(t *testing.T) {
	f := newFixture(t)
	f.fixedClock(time.UnixMilli(1700000000000))

	form := types.CreateWorksheetForm{Title: "A", AgeRange: "3-4", Category: "Math"}

	for range 2 {
		_, err := f.worksheets().Create(context.Background(), form,
			WorksheetFiles{PDF: NewUpload("a.pdf", "application/pdf", pdfBytes)})
		require.NoError(t, err)
	}

	rows := f.rows(t)
	require.Len(t, rows, 2)
	assert.Equal(t, "/uploads/1700000000000.pdf", rows[0].PDFURL)
	assert.Regexp(t, `^/uploads/1700000000000_[0-9a-z]{26}\.pdf$`, rows[1].PDFURL)
}

func TestBulkFallsBackToSelfCover(t *testing.T) {
	f := newFixture(t)

	files := []*Upload{
		NewUpload("Counting.pdf", "application/pdf", pdfBytes),
		NewUpload("Colors.PDF", "application/pdf", pdfBytes),
		NewUpload("Tracing Lines.pdf", "", pdfBytes),
	}

	res, err := f.worksheets().CreateBulk(context.Background(),
		types.BulkWorksheetForm{AgeRange: "2-3", Category: "Art"}, nil, files)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Count)

	rows := f.rows(t)
	require.Len(t, rows, 3)

	titles := make([]string, 0, len(rows))
	for _, r := range rows {
		assert.Equal(t, r.PDFURL, r.ImageURL)
		assert.Equal(t, "2-3", r.AgeRange)
		assert.Equal(t, "Art", r.Category)
		titles = append(titles, r.Title)
	}

	assert.Equal(t, []string{"Counting", "Colors", "Tracing Lines"}, titles)
}

func TestBulkSharedCoverAcrossCategories(t *testing.T) {
	f := newFixture(t)

	files := []*Upload{
		NewUpload("a.pdf", "application/pdf", pdfBytes),
		NewUpload("b.pdf", "application/pdf", pdfBytes),
	}

	res, err := f.worksheets().CreateBulk(context.Background(),
		types.BulkWorksheetForm{AgeRange: "2-3", Category: "Art,Math"},
		NewUpload("cover.png", "image/png", pngBytes), files)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Count)

	rows := f.rows(t)
	for _, r := range rows {
		assert.Equal(t, rows[0].ImageURL, r.ImageURL)
		assert.NotEqual(t, r.PDFURL, r.ImageURL)
	}
}

func TestBulkLimits(t *testing.T) {
	f := newFixture(t, func(c *configs.AppConfig) { c.Upload.MaxBulkFiles = 2 })
	form := types.BulkWorksheetForm{AgeRange: "2-3", Category: "Art"}

	_, err := f.worksheets().CreateBulk(context.Background(), form, nil, nil)
	require.ErrorIs(t, err, ErrValidation)

	files := make([]*Upload, 3)
	for i := range files {
		files[i] = NewUpload(fmt.Sprintf("%d.pdf", i), "application/pdf", pdfBytes)
	}

	_, err = f.worksheets().CreateBulk(context.Background(), form, nil, files)
	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, f.stored(t))
}

func TestUpdateKeepsHostStrippedExistingPaths(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ws := f.worksheets()

	res, err := ws.Create(ctx, types.CreateWorksheetForm{Title: "A", AgeRange: "3-4", Category: "Math"},
		WorksheetFiles{
			Image: NewUpload("a.png", "image/png", pngBytes),
			PDF:   NewUpload("a.pdf", "application/pdf", pdfBytes),
		})
	require.NoError(t, err)

	before := f.rows(t)[0]
	id := res.IDs[0]

	err = ws.Update(ctx, id, types.UpdateWorksheetForm{
		Title:         "A2",
		AgeRange:      "3-4,5-6",
		Category:      "Logic",
		ExistingImage: AbsoluteURL(testOrigin, before.ImageURL),
		ExistingPDF:   "http://old-tunnel.example" + before.PDFURL,
	}, WorksheetFiles{})
	require.NoError(t, err)

	after := f.rows(t)[0]
	assert.Equal(t, "A2", after.Title)
	assert.Equal(t, "3-4,5-6", after.AgeRange)
	assert.Equal(t, "Logic", after.Category)
	assert.Equal(t, before.ImageURL, after.ImageURL)
	assert.Equal(t, before.PDFURL, after.PDFURL)

	f.fixedClock(time.Now().Add(time.Hour))

	err = ws.Update(ctx, id, types.UpdateWorksheetForm{
		Title: "A2", AgeRange: "3-4", Category: "Logic",
		ExistingImage: before.ImageURL, ExistingPDF: before.PDFURL,
	}, WorksheetFiles{Image: NewUpload("new.png", "image/png", pngBytes)})
	require.NoError(t, err)

	replaced := f.rows(t)[0]
	assert.NotEqual(t, before.ImageURL, replaced.ImageURL)
	assert.Equal(t, before.PDFURL, replaced.PDFURL)
	assert.Contains(t, f.stored(t), before.ImageURL)
}

func TestUpdateAndDeleteMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.worksheets().Update(ctx, 42, types.UpdateWorksheetForm{Title: "A", AgeRange: "3-4", Category: "Math"},
		WorksheetFiles{Image: NewUpload("a.png", "image/png", pngBytes)})
	require.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.stored(t))

	require.ErrorIs(t, f.worksheets().Delete(ctx, 42), ErrNotFound)
}

func TestDeleteRemovesRowButKeepsFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.worksheets().Create(ctx, types.CreateWorksheetForm{Title: "A", AgeRange: "3-4", Category: "Math"},
		WorksheetFiles{PDF: NewUpload("a.pdf", "application/pdf", pdfBytes)})
	require.NoError(t, err)

	require.NoError(t, f.worksheets().Delete(ctx, res.IDs[0]))
	assert.Empty(t, f.rows(t))
	assert.Len(t, f.stored(t), 1)
}

func TestListFiltersAndAbsolutises(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ws := f.worksheets()

	_, err := ws.Create(ctx, types.CreateWorksheetForm{Title: "A", AgeRange: "2-3,3-4", Category: "Math,Art"},
		WorksheetFiles{PDF: NewUpload("a.pdf", "application/pdf", pdfBytes)})
	require.NoError(t, err)

	_, err = ws.Create(ctx, types.CreateWorksheetForm{Title: "B", AgeRange: "5-6", Category: "Math"}, WorksheetFiles{})
	require.NoError(t, err)

	all, err := ws.List(ctx, types.WorksheetFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	for _, v := range all {
		if v.Title == "A" {
			assert.Regexp(t, `^https://kids\.example/uploads/\d+\.pdf$`, v.PDFURL)
		} else {
			assert.Empty(t, v.PDFURL)
		}
	}

	got, err := ws.List(ctx, types.WorksheetFilter{Age: "3-4", Categories: []string{"Art"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Title)
	assert.Equal(t, "Art", got[0].Category)

	got, err = ws.List(ctx, types.WorksheetFilter{Categories: []string{"Math"}})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCreatePublishesEvent(t *testing.T) {
	f := newFixture(t, func(c *configs.AppConfig) { c.Events.Enabled = true })

	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 8}, mq.NewLoggerAdapter(zerolog.Nop()))
	client := mq.NewClient(ch, ch)
	t.Cleanup(func() { _ = client.Close() })

	f.svc.mqClient = client

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	in, err := client.Subscribe(ctx, queue.TopicWorksheetCreated)
	require.NoError(t, err)

	res, err := f.worksheets().Create(ctx, types.CreateWorksheetForm{Title: "A", AgeRange: "3-4", Category: "Math,Art"},
		WorksheetFiles{})
	require.NoError(t, err)

	select {
	case m := <-in:
		env, err := queue.ParseWatermillMessage[queue.WorksheetCreatedPayload](m)
		require.NoError(t, err)
		m.Ack()

		assert.Equal(t, res.IDs, env.Payload.IDs)
		assert.Equal(t, []string{"Math", "Art"}, env.Payload.Categories)
		assert.Equal(t, "single", env.Payload.Mode)
		assert.Equal(t, configs.AppName, env.Header.Producer)
	case <-ctx.Done():
		t.Fatal("worksheet.created not published")
	}
}

// rejectCategory 让数据库拒绝写入指定分类的行.
func (f *fixture) rejectCategory(t *testing.T, category string) {
	t.Helper()

	require.NoError(t, f.mgr.DB.Exec(fmt.Sprintf(`CREATE TRIGGER reject_category BEFORE INSERT ON worksheets
		WHEN NEW.category = '%s' BEGIN SELECT RAISE(ABORT, 'category rejected'); END`, category)).Error)
}

func TestCreateFanOutIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	f.rejectCategory(t, "Logic")

	_, err := f.worksheets().Create(context.Background(), types.CreateWorksheetForm{
		Title: "Shapes", AgeRange: "3-4", Category: "Math,Logic,Art",
	}, WorksheetFiles{
		Image: NewUpload("a.png", "image/png", pngBytes),
		PDF:   NewUpload("a.pdf", "application/pdf", pdfBytes),
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)

	assert.Empty(t, f.rows(t))
	assert.Empty(t, f.stored(t))
}

func TestBulkFanOutIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	f.rejectCategory(t, "Logic")

	files := []*Upload{
		NewUpload("a.pdf", "application/pdf", pdfBytes),
		NewUpload("b.pdf", "application/pdf", pdfBytes),
	}

	_, err := f.worksheets().CreateBulk(context.Background(),
		types.BulkWorksheetForm{AgeRange: "2-3", Category: "Art,Logic"},
		NewUpload("cover.png", "image/png", pngBytes), files)
	require.Error(t, err)

	assert.Empty(t, f.rows(t))
	assert.Empty(t, f.stored(t))
}

func TestFanOutTargetsNormalisesAgeTags(t *testing.T) {
	ages, cats, err := fanOutTargets(" 3-4 , ,4-5,3-4", " Math ,,Art ")
	require.NoError(t, err)
	assert.Equal(t, "3-4,4-5,3-4", ages)
	assert.Equal(t, []string{"Math", "Art"}, cats)

	_, _, err = fanOutTargets(" , ", "Math")
	require.ErrorIs(t, err, ErrValidation)
}
