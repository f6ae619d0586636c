package handler

import (
	"github.com/gin-gonic/gin"

	"adwall/internal/constants"
	"adwall/internal/service"
	"adwall/pkg/logger"
)

// AdTypeHandler 广告类型处理器
type AdTypeHandler struct {
	adTypeService service.AdTypeService
	logger        *logger.Logger
}

// NewAdTypeHandler 创建广告类型处理器实例
func NewAdTypeHandler(adTypeService service.AdTypeService, logger *logger.Logger) *AdTypeHandler {
	return &AdTypeHandler{adTypeService: adTypeService, logger: logger}
}

// ListAdTypes 启用中的广告类型
// @Summary 获取广告类型
// @Tags 广告类型
// @Produce json
// @Router /api/ad-types [get]
func (h *AdTypeHandler) ListAdTypes(c *gin.Context) {
	types, err := h.adTypeService.List(c.Request.Context())
	if err != nil {
		Error(c, h.logger, err, constants.ErrAdTypeNotFound, constants.ErrListAdTypes)
		return
	}
	Success(c, constants.SuccessGet, types)
}
