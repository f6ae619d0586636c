package handler

import "github.com/gin-gonic/gin"

// Health 健康检查
// @Summary 健康检查
// @Tags 系统
// @Router /api/health [get]
func Health(c *gin.Context) {
	Success(c, "success", "ok")
}
