package service

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"k8s.io/apimachinery/pkg/util/rand"

	"adwall/internal/constants"
	"adwall/pkg/logger"
)

const adminTokenPrefix = "admin:token:"

// AdminAuthService 管理员认证接口
type AdminAuthService interface {
	// Enabled 未配置密码哈希时管理接口不做认证
	Enabled() bool
	Login(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, token string) error
}

type adminAuthService struct {
	passwordHash []byte
	ttl          time.Duration
	redisClient  *redis.Client
	logger       *logger.Logger

	// 未配置 Redis 时令牌保存在进程内
	mu     sync.Mutex
	tokens map[string]time.Time
	now    func() time.Time
}

// NewAdminAuthService 创建管理员认证服务
func NewAdminAuthService(passwordHash string, ttl time.Duration, redisClient *redis.Client, logger *logger.Logger) AdminAuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &adminAuthService{
		passwordHash: []byte(passwordHash),
		ttl:          ttl,
		redisClient:  redisClient,
		logger:       logger,
		tokens:       make(map[string]time.Time),
		now:          time.Now,
	}
}

func (s *adminAuthService) Enabled() bool {
	return len(s.passwordHash) > 0
}

func (s *adminAuthService) Login(ctx context.Context, password string) (string, error) {
	if !s.Enabled() {
		return "", constants.ErrAuthNotEnabled
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		s.logger.Warn("管理员登录失败")
		return "", constants.ErrAuthFailed
	}

	token := rand.String(32)
	if s.redisClient != nil {
		if err := s.redisClient.Set(ctx, adminTokenPrefix+token, "1", s.ttl).Err(); err != nil {
			s.logger.Error("保存管理员令牌失败", "error", err)
			return "", err
		}
	} else {
		s.mu.Lock()
		s.tokens[token] = s.now().Add(s.ttl)
		s.mu.Unlock()
	}
	s.logger.Info("管理员登录成功")
	return token, nil
}

func (s *adminAuthService) Verify(ctx context.Context, token string) error {
	if !s.Enabled() {
		return nil
	}
	if token == "" {
		return constants.ErrAuthFailed
	}
	if s.redisClient != nil {
		n, err := s.redisClient.Exists(ctx, adminTokenPrefix+token).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return constants.ErrAuthFailed
		}
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.tokens[token]
	if !ok {
		return constants.ErrAuthFailed
	}
	if s.now().After(exp) {
		delete(s.tokens, token)
		return constants.ErrAuthFailed
	}
	return nil
}
