package handle

import (
	"errors"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/worksheethub/pkg/context"
	"github.com/yeisme/worksheethub/pkg/internal/storage/assets"
	"github.com/yeisme/worksheethub/pkg/internal/types"
)

// assetMaxAge 文件名带时间戳，同一路径内容不会变化.
const assetMaxAge = 7 * 24 * 3600

// ServeAsset 从资源存储读取 /uploads/* 下的文件.
//
//	@Summary		读取上传文件
//	@Tags			资源
//	@Produce		octet-stream
//	@Param			filepath	path	string	true	"uploads 下的相对路径"
//	@Success		200
//	@Failure		404	{object}	types.ErrorResponse
//	@Router			/uploads/{filepath} [get]
func ServeAsset(c *gin.Context) {
	store := ctxPkg.GetAssetStore(c.Request.Context())
	if store == nil {
		respondError(c, "assets.serve", errors.New("asset store not initialized"))
		return
	}

	rel := assets.URLPrefix + strings.TrimLeft(c.Param("filepath"), "/")

	rc, info, err := store.Open(c.Request.Context(), rel)
	if err != nil {
		if errors.Is(err, assets.ErrNotFound) || errors.Is(err, assets.ErrInvalidPath) {
			c.JSON(http.StatusNotFound, types.ErrorResponse{Message: "file not found"})
			return
		}

		respondError(c, "assets.serve", err)

		return
	}
	defer rc.Close()

	c.Header("Cache-Control", "public, max-age="+strconv.Itoa(assetMaxAge))

	if rs, ok := rc.(io.ReadSeeker); ok {
		if info.ContentType != "" {
			c.Header("Content-Type", info.ContentType)
		}

		http.ServeContent(c.Writer, c.Request, path.Base(rel), info.ModTime, rs)

		return
	}

	ct := info.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}

	c.DataFromReader(http.StatusOK, info.Size, ct, rc, nil)
}
