package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"adwall/internal/api/handler"
	"adwall/internal/constants"
	"adwall/internal/model"
	"adwall/internal/service"
	"adwall/pkg/logger"
)

// AdTypeAdminHandler 广告类型管理处理器
type AdTypeAdminHandler struct {
	adTypeService service.AdTypeService
	logger        *logger.Logger
}

// NewAdTypeAdminHandler 创建广告类型管理处理器实例
func NewAdTypeAdminHandler(adTypeService service.AdTypeService, logger *logger.Logger) *AdTypeAdminHandler {
	return &AdTypeAdminHandler{adTypeService: adTypeService, logger: logger}
}

// AdTypeRequest 创建或更新广告类型的请求，更新时 type_code 被忽略
type AdTypeRequest struct {
	TypeCode string          `json:"type_code"`
	TypeName string          `json:"type_name"`
	Status   int             `json:"status" binding:"omitempty,oneof=1 2"`
	SortRule *model.SortRule `json:"sort_rule"`
}

// CreateAdType 创建广告类型
// @Summary 创建广告类型
// @Tags 广告类型管理
// @Accept json
// @Produce json
// @Param body body AdTypeRequest true "类型信息"
// @Router /api/admin/ad-types [post]
func (h *AdTypeAdminHandler) CreateAdType(c *gin.Context) {
	var req AdTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.Fail(c, http.StatusBadRequest, constants.ErrInvalidParams+"："+err.Error(), nil)
		return
	}
	t := &model.AdType{TypeCode: req.TypeCode, TypeName: req.TypeName, Status: req.Status, SortRule: req.SortRule}
	if err := h.adTypeService.Create(c.Request.Context(), t); err != nil {
		if errors.Is(err, constants.ErrConflict) {
			handler.Fail(c, http.StatusConflict, constants.ErrAdTypeExists, nil)
			return
		}
		handler.Error(c, h.logger, err, constants.ErrAdTypeNotFound, constants.ErrInternalServer)
		return
	}
	handler.Success(c, constants.SuccessCreate, t)
}

// UpdateAdType 更新广告类型
// @Summary 更新广告类型
// @Tags 广告类型管理
// @Accept json
// @Produce json
// @Param id path int true "类型ID"
// @Router /api/admin/ad-types/{id} [put]
func (h *AdTypeAdminHandler) UpdateAdType(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req AdTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.Fail(c, http.StatusBadRequest, constants.ErrInvalidParams+"："+err.Error(), nil)
		return
	}
	t, err := h.adTypeService.Update(c.Request.Context(), &model.AdType{
		ID: id, TypeName: req.TypeName, Status: req.Status, SortRule: req.SortRule,
	})
	if err != nil {
		handler.Error(c, h.logger, err, constants.ErrAdTypeNotFound, constants.ErrInternalServer)
		return
	}
	handler.Success(c, constants.SuccessUpdate, t)
}

// DeleteAdType 删除广告类型，表单配置一并删除
// @Summary 删除广告类型
// @Tags 广告类型管理
// @Produce json
// @Param id path int true "类型ID"
// @Router /api/admin/ad-types/{id} [delete]
func (h *AdTypeAdminHandler) DeleteAdType(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.adTypeService.Delete(c.Request.Context(), id); err != nil {
		handler.Error(c, h.logger, err, constants.ErrAdTypeNotFound, constants.ErrInternalServer)
		return
	}
	handler.Success(c, constants.SuccessDelete, nil)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		handler.Fail(c, http.StatusBadRequest, constants.ErrInvalidParams, nil)
		return 0, false
	}
	return id, true
}
