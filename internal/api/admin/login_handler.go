package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"adwall/internal/api/handler"
	"adwall/internal/constants"
	"adwall/internal/service"
	"adwall/pkg/logger"
)

// LoginHandler 管理员登录处理器
type LoginHandler struct {
	authService service.AdminAuthService
	logger      *logger.Logger
}

// NewLoginHandler 创建管理员登录处理器实例
func NewLoginHandler(authService service.AdminAuthService, logger *logger.Logger) *LoginHandler {
	return &LoginHandler{authService: authService, logger: logger}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// Login 管理员登录
// @Summary 管理员登录
// @Tags 管理员
// @Accept json
// @Produce json
// @Param body body LoginRequest true "密码"
// @Router /api/admin/login [post]
func (h *LoginHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.Fail(c, http.StatusBadRequest, constants.ErrInvalidParams, nil)
		return
	}
	token, err := h.authService.Login(c.Request.Context(), req.Password)
	if err != nil {
		handler.Error(c, h.logger, err, constants.ErrUnauthorized, constants.ErrInternalServer)
		return
	}
	handler.Success(c, constants.SuccessLogin, gin.H{"token": token})
}
