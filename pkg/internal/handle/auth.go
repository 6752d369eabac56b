package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/worksheethub/pkg/internal/service"
	"github.com/yeisme/worksheethub/pkg/internal/types"
	"github.com/yeisme/worksheethub/pkg/log"
)

// Login 用户名密码登录，失败时仍返回 200 与 success=false.
//
//	@Summary		登录
//	@Description	明文比对用户名与密码，成功时返回用户记录（不含密码）
//	@Tags			用户
//	@Accept			json
//	@Produce		json
//	@Param			body	body		types.LoginRequest	true	"登录信息"
//	@Success		200		{object}	types.AuthResponse
//	@Failure		500		{object}	types.ErrorResponse
//	@Router			/api/login [post]
func Login(c *gin.Context) {
	var req types.LoginRequest
	if !bind(c, "login", &req) {
		return
	}

	user, err := service.NewUserService(c.Request.Context()).Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrBadCredentials) {
			l := log.Logger()
			l.Warn().Str("username", req.Username).Msg("login failed")
			c.JSON(http.StatusOK, types.AuthResponse{Success: false, Message: err.Error()})

			return
		}

		respondError(c, "login", err)

		return
	}

	c.JSON(http.StatusOK, types.AuthResponse{Success: true, User: user})
}

// Register 注册普通用户，用户名重复时返回 200 与 success=false.
//
//	@Summary		注册
//	@Description	以 user 角色创建账号
//	@Tags			用户
//	@Accept			json
//	@Produce		json
//	@Param			body	body		types.RegisterRequest	true	"注册信息"
//	@Success		200		{object}	types.AuthResponse
//	@Failure		400		{object}	types.AuthResponse
//	@Failure		500		{object}	types.ErrorResponse
//	@Router			/api/register [post]
func Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.AuthResponse{Success: false, Message: bindMessage(err)})
		return
	}

	_, err := service.NewUserService(c.Request.Context()).Register(c.Request.Context(), req)

	switch {
	case err == nil:
		c.JSON(http.StatusOK, types.AuthResponse{Success: true})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusOK, types.AuthResponse{Success: false, Message: "username taken"})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, types.AuthResponse{Success: false, Message: err.Error()})
	default:
		respondError(c, "register", err)
	}
}
