package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/worksheethub/pkg/internal/service"
	"github.com/yeisme/worksheethub/pkg/internal/types"
)

// ListWorksheets 列出练习题，资源地址补全为绝对地址.
//
//	@Summary		练习题列表
//	@Description	按创建时间倒序；age 按年龄段子串匹配，category 可重复，按分类精确匹配
//	@Tags			练习题
//	@Produce		json
//	@Param			age			query		string		false	"年龄段"
//	@Param			category	query		[]string	false	"分类"	collectionFormat(multi)
//	@Success		200			{array}		types.WorksheetView
//	@Failure		500			{object}	types.ErrorResponse
//	@Router			/api/worksheets [get]
func ListWorksheets(c *gin.Context) {
	var filter types.WorksheetFilter
	if !bind(c, "worksheets.list", &filter) {
		return
	}

	list, err := service.NewWorksheetService(c.Request.Context()).List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "worksheets.list", err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// CreateWorksheet 单个上传，按分类扇出为多行.
//
//	@Summary		上传练习题
//	@Description	ageRange 与 category 为逗号分隔字符串，每个分类写入一行
//	@Tags			练习题
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			title		formData	string	true	"标题"
//	@Param			ageRange	formData	string	true	"年龄段，逗号分隔"
//	@Param			category	formData	string	true	"分类，逗号分隔"
//	@Param			image		formData	file	false	"预览图"
//	@Param			pdf			formData	file	false	"练习题文件"
//	@Success		200			{object}	types.FanOutResult
//	@Failure		400			{object}	types.ErrorResponse
//	@Failure		500			{object}	types.ErrorResponse
//	@Router			/api/worksheets [post]
func CreateWorksheet(c *gin.Context) {
	var form types.CreateWorksheetForm
	if !bind(c, "worksheets.create", &form) {
		return
	}

	files := service.WorksheetFiles{Image: formUpload(c, "image"), PDF: formUpload(c, "pdf")}

	res, err := service.NewWorksheetService(c.Request.Context()).Create(c.Request.Context(), form, files)
	if err != nil {
		respondError(c, "worksheets.create", err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// BulkCreateWorksheets 批量上传，每个文件一份练习题.
//
//	@Summary		批量上传练习题
//	@Description	标题取自文件名；未提供封面时预览图使用文件自身
//	@Tags			练习题
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			ageRange	formData	string	true	"年龄段，逗号分隔"
//	@Param			category	formData	string	true	"分类，逗号分隔"
//	@Param			cover		formData	file	false	"共享封面"
//	@Param			files		formData	[]file	true	"练习题文件，最多 20 个"
//	@Success		200			{object}	types.FanOutResult
//	@Failure		400			{object}	types.ErrorResponse
//	@Failure		500			{object}	types.ErrorResponse
//	@Router			/api/worksheets/bulk [post]
func BulkCreateWorksheets(c *gin.Context) {
	var form types.BulkWorksheetForm
	if !bind(c, "worksheets.bulk", &form) {
		return
	}

	mf, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Message: "multipart form required"})
		return
	}

	var cover *service.Upload
	if covers := formUploads(mf, "cover"); len(covers) > 0 {
		cover = covers[0]
	}

	res, err := service.NewWorksheetService(c.Request.Context()).
		CreateBulk(c.Request.Context(), form, cover, formUploads(mf, "files"))
	if err != nil {
		respondError(c, "worksheets.bulk", err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// UpdateWorksheet 编辑练习题，未上传新文件时沿用 existingImage/existingPdf.
//
//	@Summary		编辑练习题
//	@Tags			练习题
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id				path		int		true	"练习题 ID"
//	@Param			title			formData	string	true	"标题"
//	@Param			ageRange		formData	string	true	"年龄段，逗号分隔"
//	@Param			category		formData	string	true	"分类"
//	@Param			existingImage	formData	string	false	"原预览图地址"
//	@Param			existingPdf		formData	string	false	"原文件地址"
//	@Param			image			formData	file	false	"新预览图"
//	@Param			pdf				formData	file	false	"新文件"
//	@Success		200				{object}	types.MessageResponse
//	@Failure		400				{object}	types.ErrorResponse
//	@Failure		404				{object}	types.ErrorResponse
//	@Router			/api/worksheets/{id} [put]
func UpdateWorksheet(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var form types.UpdateWorksheetForm
	if !bind(c, "worksheets.update", &form) {
		return
	}

	files := service.WorksheetFiles{Image: formUpload(c, "image"), PDF: formUpload(c, "pdf")}

	if err := service.NewWorksheetService(c.Request.Context()).Update(c.Request.Context(), id, form, files); err != nil {
		respondError(c, "worksheets.update", err)
		return
	}

	c.JSON(http.StatusOK, types.MessageResponse{Message: "Updated"})
}

// DeleteWorksheet 删除一行记录，文件保留给对账任务处理.
//
//	@Summary		删除练习题
//	@Tags			练习题
//	@Produce		json
//	@Param			id	path		int	true	"练习题 ID"
//	@Success		200	{object}	types.MessageResponse
//	@Failure		404	{object}	types.ErrorResponse
//	@Router			/api/worksheets/{id} [delete]
func DeleteWorksheet(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := service.NewWorksheetService(c.Request.Context()).Delete(c.Request.Context(), id); err != nil {
		respondError(c, "worksheets.delete", err)
		return
	}

	c.JSON(http.StatusOK, types.MessageResponse{Message: "Deleted"})
}
