package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config 应用程序配置
type Config struct {
	APIPort        int
	LogLevel       string
	LogFile        LogFileConfig
	FrontendOrigin string
	PublicBaseURL  string
	Database       DatabaseConfig
	Redis          RedisConfig
	Admin          AdminConfig
	Upload         UploadConfig
	S3             S3Config
	Kafka          KafkaConfig
}

// LogFileConfig 日志文件配置
type LogFileConfig struct {
	Enabled    bool
	Path       string
	MaxSize    int // 单个文件最大大小，单位MB
	MaxBackups int
	MaxAge     int // 最大保留天数
	Compress   bool
}

// DatabaseConfig MySQL数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// RedisConfig Redis配置，Host 为空时不启用缓存
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Enabled 是否配置了Redis
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

// AdminConfig 管理员认证配置，PasswordHash 为 bcrypt 哈希，为空时管理接口不校验
type AdminConfig struct {
	PasswordHash string
	TokenTTLHour int
}

// UploadConfig 视频上传配置
type UploadConfig struct {
	Dir         string
	MaxMB       int64
	CleanupCron string // 孤儿视频清理的 cron 表达式
}

// S3Config 对象存储配置，Bucket 为空时使用本地磁盘
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// KafkaConfig 广告变更事件配置，Brokers 为空时不发送事件
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Load 从 .env 文件和环境变量加载配置
func Load() (*Config, error) {
	// .env 文件是可选的，环境变量始终优先
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}
	return FromEnv(), nil
}

// FromEnv 仅从环境变量构建配置
func FromEnv() *Config {
	return &Config{
		APIPort:        intEnv("API_PORT", 3000),
		LogLevel:       os.Getenv("LOG_LEVEL"),
		FrontendOrigin: stringEnv("FRONTEND_ORIGIN", "https://mini-ad-wall-web.vercel.app"),
		PublicBaseURL:  strings.TrimRight(os.Getenv("PUBLIC_BASE_URL"), "/"),
		LogFile: LogFileConfig{
			Enabled:    boolEnv("LOG_FILE_ENABLED", false),
			Path:       stringEnv("LOG_FILE_PATH", "logs/adwall.log"),
			MaxSize:    intEnv("LOG_FILE_MAX_SIZE", 100),
			MaxBackups: intEnv("LOG_FILE_MAX_BACKUPS", 7),
			MaxAge:     intEnv("LOG_FILE_MAX_AGE", 30),
			Compress:   boolEnv("LOG_FILE_COMPRESS", false),
		},
		Database: DatabaseConfig{
			Host:     stringEnv("DB_HOST", "127.0.0.1"),
			Port:     intEnv("DB_PORT", 3306),
			User:     stringEnv("DB_USER", "root"),
			Password: firstEnv("DB_PASSWORD", "DB_PASS"),
			DBName:   stringEnv("DB_NAME", "adwall"),
		},
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     intEnv("REDIS_PORT", 6379),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       intEnv("REDIS_DB", 0),
		},
		Admin: AdminConfig{
			PasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
			TokenTTLHour: intEnv("ADMIN_TOKEN_TTL_HOUR", 24),
		},
		Upload: UploadConfig{
			Dir:         stringEnv("UPLOAD_DIR", "uploads"),
			MaxMB:       int64(intEnv("MAX_UPLOAD_MB", 1024)),
			CleanupCron: stringEnv("VIDEO_CLEANUP_CRON", "30 3 * * *"),
		},
		S3: S3Config{
			Region:          stringEnv("S3_REGION", "us-east-1"),
			Bucket:          os.Getenv("S3_BUCKET"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		},
		Kafka: KafkaConfig{
			Brokers: splitEnv("KAFKA_BROKERS"),
			Topic:   stringEnv("KAFKA_TOPIC", "adwall.ad-events"),
		},
	}
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func intEnv(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func boolEnv(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func splitEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
