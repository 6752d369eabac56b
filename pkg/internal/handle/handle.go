// Package handle 提供请求处理器的实现，用于处理HTTP请求.
package handle

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/worksheethub/pkg/context"
	"github.com/yeisme/worksheethub/pkg/internal/service"
	"github.com/yeisme/worksheethub/pkg/internal/types"
	"github.com/yeisme/worksheethub/pkg/log"
	"github.com/yeisme/worksheethub/pkg/rule"
)

func DefaultHandler(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, types.ErrorResponse{Message: "Not Implemented"})
}

// statusOf 把 service 错误映射为 HTTP 状态码.
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError 4xx 返回原始错误信息并记 warn，5xx 只返回通用信息并记 error.
func respondError(c *gin.Context, op string, err error) {
	status := statusOf(err)
	l := ctxPkg.WithTraceContext(c.Request.Context(), *log.Logger())

	if status >= http.StatusInternalServerError {
		l.Error().Err(err).Str("op", op).Str("path", c.FullPath()).Msg("request failed")
		_ = c.Error(err)
		c.JSON(status, types.ErrorResponse{Message: "internal server error"})

		return
	}

	l.Warn().Err(err).Str("op", op).Int("status", status).Msg("request rejected")
	c.JSON(status, types.ErrorResponse{Message: err.Error()})
}

// bindMessage 把绑定错误转为一句可读的信息.
func bindMessage(err error) string {
	if _, msg, ok := rule.First(err); ok {
		return msg
	}

	return err.Error()
}

// bind 绑定请求体，失败时写出 400 并返回 false.
func bind(c *gin.Context, op string, obj any) bool {
	if err := c.ShouldBind(obj); err != nil {
		l := log.Logger()
		l.Warn().Err(err).Str("op", op).Msg("invalid request")
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Message: bindMessage(err)})

		return false
	}

	return true
}

// parseID 解析 :id 路径参数，失败时写出 400 并返回 false.
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Message: "invalid id"})
		return 0, false
	}

	return uint(id), true
}

// formUpload 读取单个 multipart 文件字段，字段缺失时返回 nil.
func formUpload(c *gin.Context, field string) *service.Upload {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil
	}

	return service.FromFileHeader(fh)
}

// formUploads 读取同名字段下的所有文件.
func formUploads(form *multipart.Form, field string) []*service.Upload {
	if form == nil {
		return nil
	}

	out := make([]*service.Upload, 0, len(form.File[field]))
	for _, fh := range form.File[field] {
		out = append(out, service.FromFileHeader(fh))
	}

	return out
}
