package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"adwall/internal/api/handler"
	"adwall/internal/constants"
	"adwall/internal/formschema"
	"adwall/internal/service"
	"adwall/pkg/logger"
)

// FormConfigAdminHandler 表单配置管理处理器
type FormConfigAdminHandler struct {
	formConfigService service.FormConfigService
	logger            *logger.Logger
}

// NewFormConfigAdminHandler 创建表单配置管理处理器实例
func NewFormConfigAdminHandler(formConfigService service.FormConfigService, logger *logger.Logger) *FormConfigAdminHandler {
	return &FormConfigAdminHandler{formConfigService: formConfigService, logger: logger}
}

// SaveFormConfigRequest 保存表单配置的请求
type SaveFormConfigRequest struct {
	TypeCode  string                 `json:"type_code" binding:"required"`
	ConfigKey string                 `json:"config_key"`
	FormTitle string                 `json:"formTitle"`
	Fields    []formschema.FieldSpec `json:"fields" binding:"dive"`
}

// SaveFormConfig 保存表单配置，缺失的基础字段会被补齐
// @Summary 保存表单配置
// @Tags 表单配置管理
// @Accept json
// @Produce json
// @Param body body SaveFormConfigRequest true "表单配置"
// @Router /api/admin/form-config [put]
func (h *FormConfigAdminHandler) SaveFormConfig(c *gin.Context) {
	var req SaveFormConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.Fail(c, http.StatusBadRequest, constants.ErrInvalidParams+"："+err.Error(), nil)
		return
	}
	schema := formschema.NewSchema(req.FormTitle, req.Fields)
	saved, err := h.formConfigService.Save(c.Request.Context(), req.TypeCode, req.ConfigKey, schema)
	if err != nil {
		handler.Error(c, h.logger, err, constants.ErrAdTypeNotFound, constants.ErrSaveFormConfig)
		return
	}
	handler.Success(c, constants.SuccessUpdate, saved)
}
