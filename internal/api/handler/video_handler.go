package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"adwall/internal/constants"
	"adwall/internal/service"
	"adwall/pkg/logger"
)

// VideoHandler 视频上传处理器
type VideoHandler struct {
	videoService  service.VideoService
	publicBaseURL string
	maxSize       int64
	logger        *logger.Logger
}

// NewVideoHandler publicBaseURL 为空时使用请求的 scheme 和 host 拼接地址，maxSize 为全局上传上限
func NewVideoHandler(videoService service.VideoService, publicBaseURL string, maxSize int64, logger *logger.Logger) *VideoHandler {
	return &VideoHandler{videoService: videoService, publicBaseURL: publicBaseURL, maxSize: maxSize, logger: logger}
}

// UploadVideo 上传视频
// @Summary 上传视频
// @Description multipart 字段 video 为文件，type_id 决定大小、格式和时长限制
// @Tags 视频
// @Accept multipart/form-data
// @Produce json
// @Router /api/videos/upload [post]
func (h *VideoHandler) UploadVideo(c *gin.Context) {
	fh, err := c.FormFile("video")
	if err != nil {
		Fail(c, http.StatusBadRequest, constants.ErrVideoMissing, nil)
		return
	}
	if h.maxSize > 0 && fh.Size > h.maxSize {
		Fail(c, http.StatusBadRequest, fmt.Sprintf("文件过大，最大允许 %d 字节", h.maxSize), nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.logger.Error("打开上传文件失败", "error", err)
		Fail(c, http.StatusInternalServerError, constants.ErrInternalServer, nil)
		return
	}
	defer f.Close()

	typeID, _ := strconv.ParseInt(c.PostForm("type_id"), 10, 64)
	duration, _ := strconv.Atoi(c.PostForm("duration"))

	in := service.UploadInput{
		TypeID:      typeID,
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Duration:    duration,
		Resolution:  c.PostForm("resolution"),
		Body:        f,
	}
	video, err := h.videoService.Upload(c.Request.Context(), in, h.baseURL(c))
	if err != nil {
		Error(c, h.logger, err, constants.ErrVideoNotFound, constants.ErrSaveVideo)
		return
	}
	Success(c, constants.SuccessGet, video)
}

func (h *VideoHandler) baseURL(c *gin.Context) string {
	if h.publicBaseURL != "" {
		return h.publicBaseURL
	}
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}
