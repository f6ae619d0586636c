package model

import (
	"database/sql"
	"time"
)

// Video 已上传的视频素材，AdID 为空表示尚未关联到广告
type Video struct {
	ID         string         `db:"id" json:"id"`
	AdID       sql.NullString `db:"ad_id" json:"-"`
	FileName   string         `db:"file_name" json:"file_name"`
	FilePath   string         `db:"file_path" json:"file_path"`
	FileSize   int64          `db:"file_size" json:"file_size"`
	FileType   string         `db:"file_type" json:"file_type"`
	Duration   int            `db:"duration" json:"duration"`
	Resolution string         `db:"resolution" json:"resolution"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// UploadedVideo 视频上传接口的返回数据
type UploadedVideo struct {
	VideoID    string  `json:"videoId"`
	URL        string  `json:"url"`
	Duration   int     `json:"duration"`
	Resolution string  `json:"resolution"`
	PreviewURL *string `json:"previewUrl"`
}
