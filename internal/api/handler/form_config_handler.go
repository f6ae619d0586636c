package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"adwall/internal/constants"
	"adwall/internal/service"
	"adwall/pkg/logger"
)

// FormConfigHandler 表单配置处理器
type FormConfigHandler struct {
	formConfigService service.FormConfigService
	logger            *logger.Logger
}

// NewFormConfigHandler 创建表单配置处理器实例
func NewFormConfigHandler(formConfigService service.FormConfigService, logger *logger.Logger) *FormConfigHandler {
	return &FormConfigHandler{formConfigService: formConfigService, logger: logger}
}

// GetFormConfig 获取广告类型的创建表单
// @Summary 获取表单配置
// @Description 未保存配置时返回内置默认表单，类型不存在时返回空表单
// @Tags 表单配置
// @Produce json
// @Param type_code query string true "广告类型编码"
// @Param config_key query string false "配置键，默认 ad_create_form"
// @Router /api/form-config [get]
func (h *FormConfigHandler) GetFormConfig(c *gin.Context) {
	typeCode := c.Query("type_code")
	if typeCode == "" {
		Fail(c, http.StatusBadRequest, constants.ErrTypeCodeRequired, nil)
		return
	}
	schema, err := h.formConfigService.Get(c.Request.Context(), typeCode, c.Query("config_key"))
	if err != nil {
		Error(c, h.logger, err, constants.ErrAdTypeNotFound, constants.ErrGetFormConfig)
		return
	}
	Success(c, constants.SuccessGet, schema)
}
