package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adwall/internal/constants"
	"adwall/internal/model"
	"adwall/pkg/logger"
)

func TestVideoRuleCheck(t *testing.T) {
	rule := VideoRules["short_video"]
	assert.NoError(t, rule.Check(10*mb, ".mp4", 30))
	assert.NoError(t, rule.Check(10*mb, ".mp4", 0), "时长未知时不检查")

	err := rule.Check(101*mb, ".mp4", 30)
	require.ErrorIs(t, err, constants.ErrBadRequest)
	assert.Contains(t, err.Error(), "文件过大")

	err = rule.Check(mb, ".avi", 30)
	require.ErrorIs(t, err, constants.ErrBadRequest)
	assert.Contains(t, err.Error(), "不支持的文件格式")

	err = rule.Check(mb, ".mp4", 61)
	require.ErrorIs(t, err, constants.ErrBadRequest)
	assert.Contains(t, err.Error(), "5-60")

	assert.NoError(t, VideoRules["brand"].Check(mb, ".avi", 120))
}

func newVideoFixture() (*fakeVideoRepo, *fakeStorage, VideoService) {
	types := newFakeTypeRepo(&model.AdType{ID: 1, TypeCode: "short_video", Status: 1})
	videos := newFakeVideoRepo()
	store := newFakeStorage()
	return videos, store, NewVideoService(types, videos, store, logger.NewNop())
}

func TestVideoServiceUpload(t *testing.T) {
	videos, store, svc := newVideoFixture()

	out, err := svc.Upload(context.Background(), UploadInput{
		TypeID:     1,
		FileName:   "Clip.MP4",
		Size:       4,
		Duration:   12,
		Resolution: "1080x1920",
		Body:       strings.NewReader("data"),
	}, "http://localhost:3000/")
	require.NoError(t, err)

	assert.NotEmpty(t, out.VideoID)
	assert.Equal(t, "http://localhost:3000/uploads/videos/"+out.VideoID+".mp4", out.URL)
	assert.Equal(t, 12, out.Duration)
	assert.Nil(t, out.PreviewURL)

	v, err := videos.GetByID(context.Background(), out.VideoID)
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", v.FileType)
	assert.False(t, v.AdID.Valid)
	assert.Equal(t, []byte("data"), store.files["/uploads/videos/"+out.VideoID+".mp4"])
}

func TestVideoServiceUploadRejectsByTypeRule(t *testing.T) {
	_, store, svc := newVideoFixture()
	_, err := svc.Upload(context.Background(), UploadInput{
		TypeID: 1, FileName: "clip.mov", Size: 4, Body: strings.NewReader("data"),
	}, "")
	assert.ErrorIs(t, err, constants.ErrBadRequest)
	assert.Empty(t, store.files)

	// 未知类型不做限制
	_, err = svc.Upload(context.Background(), UploadInput{
		TypeID: 77, FileName: "clip.mov", Size: 4, Body: strings.NewReader("data"),
	}, "")
	assert.NoError(t, err)
}

func TestVideoServiceUploadRemovesFileWhenRecordFails(t *testing.T) {
	videos, store, svc := newVideoFixture()
	videos.failNext = errBoom

	_, err := svc.Upload(context.Background(), UploadInput{FileName: "a.mp4", Size: 1, Body: strings.NewReader("x")}, "")
	require.ErrorIs(t, err, errBoom)
	assert.Empty(t, store.files)
	assert.Len(t, store.deleted, 1)
}

func TestVideoServiceCleanupOrphans(t *testing.T) {
	videos, store, svc := newVideoFixture()
	orphan := &model.Video{ID: "o1", FilePath: "/uploads/videos/o1.mp4"}
	gone := &model.Video{ID: "o2", FilePath: "/uploads/videos/o2.mp4"}
	videos.videos["o1"] = orphan
	videos.orphans = []*model.Video{orphan, gone}

	n, err := svc.CleanupOrphans(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "记录已不存在的视频也计为已清理")
	assert.Equal(t, []string{orphan.FilePath, gone.FilePath}, store.deleted)
	_, err = videos.GetByID(context.Background(), "o1")
	assert.ErrorIs(t, err, constants.ErrNotFound)
}

func TestAbsoluteURL(t *testing.T) {
	assert.Equal(t, "https://cdn.test/a.mp4", absoluteURL("http://host", "https://cdn.test/a.mp4"))
	assert.Equal(t, "/uploads/a.mp4", absoluteURL("", "/uploads/a.mp4"))
	assert.Equal(t, "http://host/uploads/a.mp4", absoluteURL("http://host/", "/uploads/a.mp4"))
}
