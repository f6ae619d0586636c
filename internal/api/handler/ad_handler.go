package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"adwall/internal/constants"
	"adwall/internal/service"
	"adwall/pkg/logger"
)

// AdHandler 广告处理器
type AdHandler struct {
	adService service.AdService
	logger    *logger.Logger
}

// NewAdHandler 创建广告处理器实例
func NewAdHandler(adService service.AdService, logger *logger.Logger) *AdHandler {
	return &AdHandler{
		adService: adService,
		logger:    logger,
	}
}

// ListAds 获取广告列表
// @Summary 获取广告列表
// @Description 按 price + price*heat*0.42 降序、创建时间降序分页
// @Tags 广告
// @Produce json
// @Param page query int false "页码，默认 1"
// @Param size query int false "每页数量，默认 10"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/ads [get]
func (h *AdHandler) ListAds(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	result, err := h.adService.List(c.Request.Context(), page, size)
	if err != nil {
		Error(c, h.logger, err, constants.ErrAdNotFound, constants.ErrListAds)
		return
	}
	Success(c, constants.SuccessGet, result)
}

// CreateAd 创建广告
// @Summary 创建广告
// @Description 校验基础字段和广告类型的表单配置
// @Tags 广告
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/ads [post]
func (h *AdHandler) CreateAd(c *gin.Context) {
	body, ok := h.bindBody(c)
	if !ok {
		return
	}
	ad, err := h.adService.Create(c.Request.Context(), body)
	if err != nil {
		Error(c, h.logger, err, constants.ErrAdTypeNotFound, constants.ErrCreateAd)
		return
	}
	Success(c, constants.SuccessCreate, ad)
}

// UpdateAd 部分更新广告
// @Summary 更新广告
// @Tags 广告
// @Accept json
// @Produce json
// @Param id path string true "广告ID"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/ads/{id} [put]
func (h *AdHandler) UpdateAd(c *gin.Context) {
	body, ok := h.bindBody(c)
	if !ok {
		return
	}
	ad, err := h.adService.Update(c.Request.Context(), c.Param("id"), body)
	if err != nil {
		Error(c, h.logger, err, constants.ErrAdNotFound, constants.ErrUpdateAd)
		return
	}
	Success(c, constants.SuccessUpdate, ad)
}

// IncrementHeat 热度加一
// @Summary 增加热度
// @Tags 广告
// @Produce json
// @Param id path string true "广告ID"
// @Router /api/ads/{id}/increment-heat [post]
func (h *AdHandler) IncrementHeat(c *gin.Context) {
	ad, err := h.adService.IncrementHeat(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, h.logger, err, constants.ErrAdNotFound, constants.ErrIncrementHeat)
		return
	}
	Success(c, constants.SuccessHeat, ad)
}

// CopyAd 复制广告
// @Summary 复制广告
// @Tags 广告
// @Produce json
// @Param id path string true "广告ID"
// @Router /api/ads/{id}/copy [post]
func (h *AdHandler) CopyAd(c *gin.Context) {
	ad, err := h.adService.Copy(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, h.logger, err, constants.ErrAdNotFound, constants.ErrCreateAd)
		return
	}
	Success(c, constants.SuccessCopy, ad)
}

// DeleteAd 删除广告
// @Summary 删除广告
// @Tags 广告
// @Produce json
// @Param id path string true "广告ID"
// @Router /api/ads/{id} [delete]
func (h *AdHandler) DeleteAd(c *gin.Context) {
	if err := h.adService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		Error(c, h.logger, err, constants.ErrAdNotFound, constants.ErrDeleteAd)
		return
	}
	Success(c, constants.SuccessDelete, nil)
}

func (h *AdHandler) bindBody(c *gin.Context) (map[string]interface{}, bool) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil || body == nil {
		h.logger.Debug("请求体绑定失败", "path", c.Request.URL.Path, "error", err)
		Fail(c, http.StatusBadRequest, constants.ErrInvalidRequest, nil)
		return nil, false
	}
	return body, true
}
