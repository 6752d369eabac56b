package handle_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/worksheethub/pkg/configs"
	"github.com/yeisme/worksheethub/pkg/internal/handle"
	"github.com/yeisme/worksheethub/pkg/internal/model"
	"github.com/yeisme/worksheethub/pkg/internal/storage"
	"github.com/yeisme/worksheethub/pkg/internal/storage/assets"
	"github.com/yeisme/worksheethub/pkg/internal/storage/db"
	"github.com/yeisme/worksheethub/pkg/internal/types"
	"github.com/yeisme/worksheethub/pkg/middleware"
)

const testOrigin = "https://kids.example"

var (
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
)

func init() {
	gin.SetMode(gin.TestMode)
}

type server struct {
	engine *gin.Engine
	mgr    *storage.Manager
}

func newServer(t *testing.T) *server {
	t.Helper()

	cfg, err := configs.LoadDefaults()
	require.NoError(t, err)

	cfg.Server.PublicOrigin = testOrigin

	dir := t.TempDir()

	client, err := db.Open(sqlite.Open(filepath.Join(dir, "catalog.db")))
	require.NoError(t, err)
	require.NoError(t, client.Migrate(context.Background(), model.All()...))
	t.Cleanup(func() { _ = client.Close() })

	store, err := assets.NewLocal(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	mgr := &storage.Manager{DB: client, Assets: store}

	e := gin.New()
	e.Use(middleware.StorageMiddleware(mgr))

	api := e.Group("/api")
	api.POST("/login", handle.Login)
	api.POST("/register", handle.Register)
	api.GET("/age-groups", handle.ListAgeGroups)
	api.GET("/age-groups/:id", handle.GetAgeGroup)
	api.POST("/age-groups", handle.CreateAgeGroup)
	api.PUT("/age-groups/:id", handle.UpdateAgeGroup)
	api.DELETE("/age-groups/:id", handle.DeleteAgeGroup)
	api.POST("/age-groups/:id/logo", handle.UploadAgeGroupLogo)
	api.POST("/age-groups/:id/cate-cover", handle.UploadAgeGroupCover)
	api.DELETE("/age-groups/:id/cate-cover", handle.DeleteAgeGroupCover)
	api.GET("/worksheets", handle.ListWorksheets)
	api.POST("/worksheets", handle.CreateWorksheet)
	api.POST("/worksheets/bulk", handle.BulkCreateWorksheets)
	api.PUT("/worksheets/:id", handle.UpdateWorksheet)
	api.DELETE("/worksheets/:id", handle.DeleteWorksheet)
	api.GET("/categories", handle.ListCategories)
	api.POST("/categories", handle.CreateCategory)
	api.DELETE("/categories/:id", handle.DeleteCategory)
	api.POST("/categories/:id/icon", handle.UploadCategoryIcon)
	api.GET("/admin/assets/orphans", handle.OrphanAssets)
	e.GET("/uploads/*filepath", handle.ServeAsset)
	e.GET("/health", handle.Health)
	e.GET("/health/db", handle.HealthDB)
	e.GET("/health/assets", handle.HealthAssets)
	e.GET("/health/mq", handle.HealthMQ)

	return &server{engine: e, mgr: mgr}
}

func (s *server) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	return w
}

func (s *server) json(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	return s.do(req)
}

type part struct {
	field, filename, contentType string
	data                         []byte
}

func (s *server) multipart(t *testing.T, method, path string, fields map[string]string, files ...part) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.filename+`"`)
		h.Set("Content-Type", f.contentType)

		w, err := mw.CreatePart(h)
		require.NoError(t, err)

		_, err = w.Write(f.data)
		require.NoError(t, err)
	}

	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return s.do(req)
}

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &out), w.Body.String())

	return out
}

func TestLoginAndRegister(t *testing.T) {
	s := newServer(t)

	w := s.json(http.MethodPost, "/api/register", `{"username":"kru_a","password":"pw","name":"Kru A"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[types.AuthResponse](t, w).Success)

	w = s.json(http.MethodPost, "/api/register", `{"username":"kru_a","password":"other","name":"B"}`)
	require.Equal(t, http.StatusOK, w.Code)

	dup := decode[types.AuthResponse](t, w)
	assert.False(t, dup.Success)
	assert.Equal(t, "username taken", dup.Message)

	w = s.json(http.MethodPost, "/api/register", `{"username":"  ","password":"pw"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.json(http.MethodPost, "/api/login", `{"username":"kru_a","password":"pw"}`)
	require.Equal(t, http.StatusOK, w.Code)

	ok := decode[types.AuthResponse](t, w)
	require.True(t, ok.Success)
	require.NotNil(t, ok.User)
	assert.Equal(t, "kru_a", ok.User.Username)
	assert.Equal(t, "user", ok.User.Role)
	assert.NotContains(t, w.Body.String(), `"password"`)

	w = s.json(http.MethodPost, "/api/login", `{"username":"kru_a","password":"nope"}`)
	require.Equal(t, http.StatusOK, w.Code)

	bad := decode[types.AuthResponse](t, w)
	assert.False(t, bad.Success)
	assert.NotEmpty(t, bad.Message)
}

func TestCreateWorksheetFansOutAndAbsolutizes(t *testing.T) {
	s := newServer(t)

	w := s.multipart(t, http.MethodPost, "/api/worksheets",
		map[string]string{"title": "Numbers 1-10", "ageRange": "3-4,4-5", "category": "Math, Logic"},
		part{"image", "img1.png", "image/png", pngBytes},
		part{"pdf", "doc1.pdf", "application/pdf", pdfBytes},
	)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decode[types.FanOutResult](t, w)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, "Success! Added to 2 categories.", res.Message)

	list := decode[[]types.WorksheetView](t, s.do(httptest.NewRequest(http.MethodGet, "/api/worksheets", nil)))
	require.Len(t, list, 2)

	cats := []string{list[0].Category, list[1].Category}
	assert.ElementsMatch(t, []string{"Math", "Logic"}, cats)

	for _, v := range list {
		assert.Equal(t, "Numbers 1-10", v.Title)
		assert.Equal(t, "3-4,4-5", v.AgeRange)
		assert.True(t, strings.HasPrefix(v.ImageURL, testOrigin+"/uploads/"), v.ImageURL)
		assert.True(t, strings.HasPrefix(v.PDFURL, testOrigin+"/uploads/"), v.PDFURL)
		assert.Equal(t, list[0].ImageURL, v.ImageURL)
	}

	filtered := decode[[]types.WorksheetView](t,
		s.do(httptest.NewRequest(http.MethodGet, "/api/worksheets?age=4-5&category=Logic", nil)))
	require.Len(t, filtered, 1)
	assert.Equal(t, "Logic", filtered[0].Category)

	// 返回的地址可以直接读取
	rel := strings.TrimPrefix(list[0].PDFURL, testOrigin)
	file := s.do(httptest.NewRequest(http.MethodGet, rel, nil))
	require.Equal(t, http.StatusOK, file.Code)
	assert.Equal(t, pdfBytes, file.Body.Bytes())
}

func TestCreateWorksheetRejectsEmptyCategory(t *testing.T) {
	s := newServer(t)

	w := s.multipart(t, http.MethodPost, "/api/worksheets",
		map[string]string{"title": "Shapes", "ageRange": "3-4", "category": " , "},
		part{"image", "img.png", "image/png", pngBytes},
	)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, decode[types.ErrorResponse](t, w).Message)

	var walked int
	require.NoError(t, s.mgr.Assets.Walk(context.Background(), func(assets.Info) error {
		walked++
		return nil
	}))
	assert.Zero(t, walked)
}

func TestCreateWorksheetRejectsWrongType(t *testing.T) {
	s := newServer(t)

	w := s.multipart(t, http.MethodPost, "/api/worksheets",
		map[string]string{"title": "Shapes", "ageRange": "3-4", "category": "Art"},
		part{"image", "notes.pdf", "application/pdf", pdfBytes},
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBulkUploadSelfCover(t *testing.T) {
	s := newServer(t)

	w := s.multipart(t, http.MethodPost, "/api/worksheets/bulk",
		map[string]string{"ageRange": "2-3", "category": "Art"},
		part{"files", "Colors.pdf", "application/pdf", pdfBytes},
		part{"files", "Lines.pdf", "application/pdf", pdfBytes},
		part{"files", "Dots.pdf", "application/pdf", pdfBytes},
	)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 3, decode[types.FanOutResult](t, w).Count)

	list := decode[[]types.WorksheetView](t, s.do(httptest.NewRequest(http.MethodGet, "/api/worksheets", nil)))
	require.Len(t, list, 3)

	titles := make([]string, 0, 3)
	for _, v := range list {
		titles = append(titles, v.Title)
		assert.Equal(t, v.PDFURL, v.ImageURL)
	}

	assert.ElementsMatch(t, []string{"Colors", "Lines", "Dots"}, titles)
}

func TestUpdateAndDeleteWorksheet(t *testing.T) {
	s := newServer(t)

	w := s.multipart(t, http.MethodPost, "/api/worksheets",
		map[string]string{"title": "Old", "ageRange": "3-4", "category": "Math"},
		part{"image", "a.png", "image/png", pngBytes},
	)
	require.Equal(t, http.StatusOK, w.Code)

	id := decode[types.FanOutResult](t, w).IDs[0]
	list := decode[[]types.WorksheetView](t, s.do(httptest.NewRequest(http.MethodGet, "/api/worksheets", nil)))
	oldImage := list[0].ImageURL

	path := "/api/worksheets/" + itoa(id)
	w = s.multipart(t, http.MethodPut, path,
		map[string]string{"title": "New", "ageRange": "4-5", "category": "Math", "existingImage": oldImage},
	)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	list = decode[[]types.WorksheetView](t, s.do(httptest.NewRequest(http.MethodGet, "/api/worksheets", nil)))
	require.Len(t, list, 1)
	assert.Equal(t, "New", list[0].Title)
	assert.Equal(t, oldImage, list[0].ImageURL)

	assert.Equal(t, http.StatusOK, s.do(httptest.NewRequest(http.MethodDelete, path, nil)).Code)
	assert.Equal(t, http.StatusNotFound, s.do(httptest.NewRequest(http.MethodDelete, path, nil)).Code)
	assert.Equal(t, http.StatusBadRequest,
		s.do(httptest.NewRequest(http.MethodDelete, "/api/worksheets/abc", nil)).Code)

	w = s.multipart(t, http.MethodPut, "/api/worksheets/999",
		map[string]string{"title": "X", "ageRange": "3-4", "category": "Math"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCategoriesConflictAndIcon(t *testing.T) {
	s := newServer(t)

	w := s.json(http.MethodPost, "/api/categories", `{"name":"Math","age_group":"3-4","sort_order":"2"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	id := decode[types.MessageResponse](t, w).ID
	require.NotZero(t, id)

	w = s.json(http.MethodPost, "/api/categories", `{"name":"Math","age_group":"4-5"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	list := decode[[]types.CategoryView](t, s.do(httptest.NewRequest(http.MethodGet, "/api/categories", nil)))
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].SortOrder)

	w = s.multipart(t, http.MethodPost, "/api/categories/"+itoa(id)+"/icon", nil,
		part{"icon", "math.png", "image/png", pngBytes})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	icon := decode[types.AssetResponse](t, w).IconURL
	assert.True(t, strings.HasPrefix(icon, "/uploads/category-icons/cat_"+itoa(id)+"_"), icon)

	w = s.multipart(t, http.MethodPost, "/api/categories/999/icon", nil,
		part{"icon", "math.png", "image/png", pngBytes})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.multipart(t, http.MethodPost, "/api/categories/"+itoa(id)+"/icon", map[string]string{"x": "y"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusOK,
		s.do(httptest.NewRequest(http.MethodDelete, "/api/categories/"+itoa(id), nil)).Code)
	assert.Equal(t, http.StatusNotFound,
		s.do(httptest.NewRequest(http.MethodDelete, "/api/categories/"+itoa(id), nil)).Code)
}

func TestAgeGroupLifecycle(t *testing.T) {
	s := newServer(t)

	w := s.json(http.MethodPost, "/api/age-groups", `{"label":"3-4 years","sortOrder":"1x","color":"#ff0"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	id := decode[types.MessageResponse](t, w).ID

	got := decode[types.AgeGroupView](t, s.do(httptest.NewRequest(http.MethodGet, "/api/age-groups/"+itoa(id), nil)))
	assert.Equal(t, "3-4 years", got.AgeValue)
	assert.Equal(t, 1, got.SortOrder)
	assert.Empty(t, got.LogoURL)

	w = s.multipart(t, http.MethodPost, "/api/age-groups/"+itoa(id)+"/cate-cover", nil,
		part{"cover", "cover.png", "image/png", pngBytes})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	cover := decode[types.AssetResponse](t, w).CateCoverURL
	require.NotEmpty(t, cover)

	got = decode[types.AgeGroupView](t, s.do(httptest.NewRequest(http.MethodGet, "/api/age-groups/"+itoa(id), nil)))
	assert.Equal(t, testOrigin+cover, got.CateCoverURL)

	assert.Equal(t, http.StatusOK,
		s.do(httptest.NewRequest(http.MethodDelete, "/api/age-groups/"+itoa(id)+"/cate-cover", nil)).Code)
	assert.Equal(t, http.StatusNotFound, s.do(httptest.NewRequest(http.MethodGet, cover, nil)).Code)

	w = s.json(http.MethodPut, "/api/age-groups/"+itoa(id), `{"ageValue":"3-4","label":"Toddlers","sortOrder":3}`)
	require.Equal(t, http.StatusOK, w.Code)

	list := decode[[]types.AgeGroupView](t, s.do(httptest.NewRequest(http.MethodGet, "/api/age-groups", nil)))
	require.Len(t, list, 1)
	assert.Equal(t, "Toddlers", list[0].Label)

	assert.Equal(t, http.StatusNotFound,
		s.json(http.MethodPut, "/api/age-groups/999", `{"label":"x"}`).Code)
	assert.Equal(t, http.StatusOK,
		s.do(httptest.NewRequest(http.MethodDelete, "/api/age-groups/"+itoa(id), nil)).Code)
	assert.Equal(t, http.StatusNotFound,
		s.do(httptest.NewRequest(http.MethodGet, "/api/age-groups/"+itoa(id), nil)).Code)
}

func TestServeAssetRejectsTraversal(t *testing.T) {
	s := newServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/uploads/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/uploads/x", nil)
	req.URL.Path = "/uploads/../catalog.db"
	assert.Equal(t, http.StatusNotFound, s.do(req).Code)
}

func TestHealthAndOrphans(t *testing.T) {
	s := newServer(t)

	assert.Equal(t, http.StatusOK, s.do(httptest.NewRequest(http.MethodGet, "/health/db", nil)).Code)
	assert.Equal(t, http.StatusOK, s.do(httptest.NewRequest(http.MethodGet, "/health/assets", nil)).Code)

	mq := decode[types.HealthResponse](t, s.do(httptest.NewRequest(http.MethodGet, "/health/mq", nil)))
	assert.Equal(t, "disabled", mq.Status)

	sum := decode[types.HealthSummary](t, s.do(httptest.NewRequest(http.MethodGet, "/health", nil)))
	assert.Equal(t, "ok", sum.Status)
	assert.Equal(t, "local", sum.Checks["assets"].Backend)
	assert.Equal(t, "disabled", sum.Checks["mq"].Status)

	require.NoError(t, s.mgr.Assets.Put(context.Background(), "/uploads/stray.png",
		io.NopCloser(bytes.NewReader(pngBytes)), int64(len(pngBytes)), "image/png"))

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/admin/assets/orphans", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/uploads/stray.png")
}
