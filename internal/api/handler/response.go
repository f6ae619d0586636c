package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"adwall/internal/constants"
	"adwall/internal/formschema"
	"adwall/pkg/logger"
)

// Success 成功响应
func Success(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code": http.StatusOK,
		"msg":  msg,
		"data": data,
	})
}

// Fail 错误响应，code 与 HTTP 状态码一致
func Fail(c *gin.Context, status int, msg string, data interface{}) {
	c.JSON(status, gin.H{
		"code": status,
		"msg":  msg,
		"data": data,
	})
}

// Error 把服务层错误映射为响应，notFound 为记录不存在时的提示，fallback 为内部错误时的提示
func Error(c *gin.Context, log *logger.Logger, err error, notFound, fallback string) {
	var verr *formschema.ValidationError
	switch {
	case errors.As(err, &verr):
		Fail(c, http.StatusBadRequest, constants.ErrFormInvalid, gin.H{"errors": verr.Errors})
	case errors.Is(err, constants.ErrBadRequest):
		Fail(c, http.StatusBadRequest, detail(err, constants.ErrBadRequest), nil)
	case errors.Is(err, constants.ErrNotFound):
		Fail(c, http.StatusNotFound, notFound, nil)
	case errors.Is(err, constants.ErrConflict):
		Fail(c, http.StatusConflict, detail(err, constants.ErrConflict), nil)
	case errors.Is(err, constants.ErrAuthFailed):
		Fail(c, http.StatusUnauthorized, constants.ErrPasswordIncorrect, nil)
	case errors.Is(err, constants.ErrAuthNotEnabled):
		Fail(c, http.StatusForbidden, constants.ErrAdminDisabled, nil)
	default:
		log.Error(fallback, "path", c.Request.URL.Path, "error", err)
		Fail(c, http.StatusInternalServerError, fallback, nil)
	}
}

// detail 去掉哨兵错误前缀，只保留面向用户的说明
func detail(err, sentinel error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
		return rest
	}
	return msg
}
