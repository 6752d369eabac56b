package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/worksheethub/pkg/internal/service"
	"github.com/yeisme/worksheethub/pkg/internal/types"
)

// ListAgeGroups 年龄段列表，按 sortOrder、id 排序.
//
//	@Summary		年龄段列表
//	@Tags			年龄段
//	@Produce		json
//	@Success		200	{array}		types.AgeGroupView
//	@Failure		500	{object}	types.ErrorResponse
//	@Router			/api/age-groups [get]
func ListAgeGroups(c *gin.Context) {
	list, err := service.NewRegistryService(c.Request.Context()).ListAgeGroups(c.Request.Context())
	if err != nil {
		respondError(c, "age_groups.list", err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// GetAgeGroup 单个年龄段.
//
//	@Summary		年龄段详情
//	@Tags			年龄段
//	@Produce		json
//	@Param			id	path		int	true	"年龄段 ID"
//	@Success		200	{object}	types.AgeGroupView
//	@Failure		404	{object}	types.ErrorResponse
//	@Router			/api/age-groups/{id} [get]
func GetAgeGroup(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	view, err := service.NewRegistryService(c.Request.Context()).GetAgeGroup(c.Request.Context(), id)
	if err != nil {
		respondError(c, "age_groups.get", err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// CreateAgeGroup 新增年龄段，ageValue 为空时取 label.
//
//	@Summary		新增年龄段
//	@Tags			年龄段
//	@Accept			json
//	@Produce		json
//	@Param			body	body		types.AgeGroupRequest	true	"年龄段"
//	@Success		200		{object}	types.MessageResponse
//	@Failure		400		{object}	types.ErrorResponse
//	@Router			/api/age-groups [post]
func CreateAgeGroup(c *gin.Context) {
	var req types.AgeGroupRequest
	if !bind(c, "age_groups.create", &req) {
		return
	}

	id, err := service.NewRegistryService(c.Request.Context()).CreateAgeGroup(c.Request.Context(), req)
	if err != nil {
		respondError(c, "age_groups.create", err)
		return
	}

	c.JSON(http.StatusOK, types.MessageResponse{Message: "Added", ID: id})
}

// UpdateAgeGroup 更新年龄段.
//
//	@Summary		更新年龄段
//	@Tags			年龄段
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"年龄段 ID"
//	@Param			body	body		types.AgeGroupRequest	true	"年龄段"
//	@Success		200		{object}	types.MessageResponse
//	@Failure		404		{object}	types.ErrorResponse
//	@Router			/api/age-groups/{id} [put]
func UpdateAgeGroup(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req types.AgeGroupRequest
	if !bind(c, "age_groups.update", &req) {
		return
	}

	if err := service.NewRegistryService(c.Request.Context()).UpdateAgeGroup(c.Request.Context(), id, req); err != nil {
		respondError(c, "age_groups.update", err)
		return
	}

	c.JSON(http.StatusOK, types.MessageResponse{Message: "Updated"})
}

// DeleteAgeGroup 删除年龄段，不级联.
//
//	@Summary		删除年龄段
//	@Tags			年龄段
//	@Produce		json
//	@Param			id	path		int	true	"年龄段 ID"
//	@Success		200	{object}	types.MessageResponse
//	@Failure		404	{object}	types.ErrorResponse
//	@Router			/api/age-groups/{id} [delete]
func DeleteAgeGroup(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := service.NewRegistryService(c.Request.Context()).DeleteAgeGroup(c.Request.Context(), id); err != nil {
		respondError(c, "age_groups.delete", err)
		return
	}

	c.JSON(http.StatusOK, types.MessageResponse{Message: "Deleted"})
}

// UploadAgeGroupLogo 替换年龄段 logo.
//
//	@Summary		上传年龄段 logo
//	@Tags			年龄段
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id		path		int		true	"年龄段 ID"
//	@Param			logo	formData	file	true	"图片，最大 2MB"
//	@Success		200		{object}	types.AssetResponse
//	@Failure		400		{object}	types.ErrorResponse
//	@Failure		404		{object}	types.ErrorResponse
//	@Router			/api/age-groups/{id}/logo [post]
func UploadAgeGroupLogo(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	rel, err := service.NewRegistryService(c.Request.Context()).
		SetAgeGroupLogo(c.Request.Context(), id, formUpload(c, "logo"))
	if err != nil {
		respondError(c, "age_groups.logo", err)
		return
	}

	c.JSON(http.StatusOK, types.AssetResponse{Message: "Logo uploaded", LogoURL: rel})
}

// UploadAgeGroupCover 替换年龄段分类页封面.
//
//	@Summary		上传分类页封面
//	@Tags			年龄段
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id		path		int		true	"年龄段 ID"
//	@Param			cover	formData	file	true	"图片，最大 4MB"
//	@Success		200		{object}	types.AssetResponse
//	@Failure		400		{object}	types.ErrorResponse
//	@Failure		404		{object}	types.ErrorResponse
//	@Router			/api/age-groups/{id}/cate-cover [post]
func UploadAgeGroupCover(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	rel, err := service.NewRegistryService(c.Request.Context()).
		SetAgeGroupCover(c.Request.Context(), id, formUpload(c, "cover"))
	if err != nil {
		respondError(c, "age_groups.cover", err)
		return
	}

	c.JSON(http.StatusOK, types.AssetResponse{Message: "Cover uploaded", CateCoverURL: rel})
}

// DeleteAgeGroupCover 清空封面.
//
//	@Summary		删除分类页封面
//	@Tags			年龄段
//	@Produce		json
//	@Param			id	path		int	true	"年龄段 ID"
//	@Success		200	{object}	types.MessageResponse
//	@Failure		404	{object}	types.ErrorResponse
//	@Router			/api/age-groups/{id}/cate-cover [delete]
func DeleteAgeGroupCover(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := service.NewRegistryService(c.Request.Context()).ClearAgeGroupCover(c.Request.Context(), id); err != nil {
		respondError(c, "age_groups.cover.delete", err)
		return
	}

	c.JSON(http.StatusOK, types.MessageResponse{Message: "Cover removed"})
}

// ListCategories 分类列表.
//
//	@Summary		分类列表
//	@Tags			分类
//	@Produce		json
//	@Success		200	{array}		types.CategoryView
//	@Failure		500	{object}	types.ErrorResponse
//	@Router			/api/categories [get]
func ListCategories(c *gin.Context) {
	list, err := service.NewRegistryService(c.Request.Context()).ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, "categories.list", err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// CreateCategory 新增分类，重名返回 409.
//
//	@Summary		新增分类
//	@Tags			分类
//	@Accept			json
//	@Produce		json
//	@Param			body	body		types.CategoryRequest	true	"分类"
//	@Success		200		{object}	types.MessageResponse
//	@Failure		400		{object}	types.ErrorResponse
//	@Failure		409		{object}	types.ErrorResponse
//	@Router			/api/categories [post]
func CreateCategory(c *gin.Context) {
	var req types.CategoryRequest
	if !bind(c, "categories.create", &req) {
		return
	}

	id, err := service.NewRegistryService(c.Request.Context()).CreateCategory(c.Request.Context(), req)
	if err != nil {
		respondError(c, "categories.create", err)
		return
	}

	c.JSON(http.StatusOK, types.MessageResponse{Message: "Added", ID: id})
}

// DeleteCategory 删除分类，引用它的练习题保持不变.
//
//	@Summary		删除分类
//	@Tags			分类
//	@Produce		json
//	@Param			id	path		int	true	"分类 ID"
//	@Success		200	{object}	types.MessageResponse
//	@Failure		404	{object}	types.ErrorResponse
//	@Router			/api/categories/{id} [delete]
func DeleteCategory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := service.NewRegistryService(c.Request.Context()).DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, "categories.delete", err)
		return
	}

	c.JSON(http.StatusOK, types.MessageResponse{Message: "Deleted"})
}

// UploadCategoryIcon 替换分类图标.
//
//	@Summary		上传分类图标
//	@Tags			分类
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id		path		int		true	"分类 ID"
//	@Param			icon	formData	file	true	"图片，最大 2MB"
//	@Success		200		{object}	types.AssetResponse
//	@Failure		400		{object}	types.ErrorResponse
//	@Failure		404		{object}	types.ErrorResponse
//	@Router			/api/categories/{id}/icon [post]
func UploadCategoryIcon(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	rel, err := service.NewRegistryService(c.Request.Context()).
		SetCategoryIcon(c.Request.Context(), id, formUpload(c, "icon"))
	if err != nil {
		respondError(c, "categories.icon", err)
		return
	}

	c.JSON(http.StatusOK, types.AssetResponse{Message: "Icon uploaded", IconURL: rel})
}
