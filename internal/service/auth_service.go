package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"guardpost/backend/config"
	"guardpost/backend/internal/dto"
	"guardpost/backend/internal/repository"
	"guardpost/backend/pkg/jwt"
	"guardpost/backend/pkg/redis"
)

var (
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrAccountDisabled    = errors.New("账号已停用")
	ErrInvalidRefresh     = errors.New("refresh token 无效")
)

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.LoginResponse, error)
	// Logout 将当前 Access Token 的 jti 加入黑名单
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	Me(ctx context.Context, workerID string) (*dto.WorkerProfileResponse, error)
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	rdb    *redis.Client
	logger *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:    cfg,
		repo:   repo,
		jwtMgr: jwtMgr,
		rdb:    rdb,
		logger: logger,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	// 1. 查询队员
	worker, err := s.repo.Worker.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询队员失败", zap.Error(err))
		return nil, err
	}
	if !worker.IsActive {
		return nil, ErrAccountDisabled
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(worker.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 生成 Token 对
	accessToken, err := s.jwtMgr.GenerateAccessToken(worker.WorkerID, worker.Role)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}
	refreshToken, err := s.jwtMgr.GenerateRefreshToken(worker.WorkerID, worker.Role)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("队员登录成功", zap.String("worker_id", worker.WorkerID))

	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.cfg.Auth.AccessTokenTTL.Seconds()),
		Worker: &dto.WorkerBrief{
			ID:    worker.WorkerID,
			Name:  worker.Name,
			Phone: worker.Phone,
			Role:  worker.Role,
		},
	}, nil
}

func (s *authService) Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.LoginResponse, error) {
	claims, err := s.jwtMgr.ParseToken(req.RefreshToken)
	if err != nil {
		return nil, ErrInvalidRefresh
	}
	if claims.TokenType != "refresh" {
		return nil, ErrInvalidRefresh
	}

	// 黑名单校验：注销后的 refresh token 不可再用
	if s.rdb != nil {
		blacklisted, err := s.rdb.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("黑名单查询失败，降级放行", zap.Error(err))
		} else if blacklisted {
			return nil, ErrInvalidRefresh
		}
	}

	worker, err := s.repo.Worker.GetByID(ctx, claims.WorkerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefresh
		}
		s.logger.Error("查询队员失败", zap.Error(err))
		return nil, err
	}
	if !worker.IsActive {
		return nil, ErrAccountDisabled
	}

	accessToken, err := s.jwtMgr.GenerateAccessToken(worker.WorkerID, worker.Role)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}
	refreshToken, err := s.jwtMgr.GenerateRefreshToken(worker.WorkerID, worker.Role)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.cfg.Auth.AccessTokenTTL.Seconds()),
		Worker: &dto.WorkerBrief{
			ID:    worker.WorkerID,
			Name:  worker.Name,
			Phone: worker.Phone,
			Role:  worker.Role,
		},
	}, nil
}

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.rdb == nil {
		return nil // Redis 不可用时注销降级为客户端丢弃
	}
	ttl := time.Until(expiresAt)
	if err := s.rdb.BlacklistToken(ctx, jti, ttl); err != nil {
		s.logger.Error("Token 加入黑名单失败", zap.Error(err))
		return err
	}
	return nil
}

func (s *authService) Me(ctx context.Context, workerID string) (*dto.WorkerProfileResponse, error) {
	worker, err := s.repo.Worker.GetByID(ctx, workerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkerNotFound
		}
		s.logger.Error("查询队员失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.WorkerProfileResponse{
		ID:               worker.WorkerID,
		Name:             worker.Name,
		Email:            worker.Email,
		Phone:            worker.Phone,
		Role:             worker.Role,
		Active:           worker.IsActive,
		HasWeaponLicense: worker.WeaponLicensed,
		HasVehicle:       worker.VehicleCapable,
		CreatedAt:        worker.CreatedAt.Format(time.RFC3339),
	}
	if worker.WeaponLicenseExpiry != nil {
		t := worker.WeaponLicenseExpiry.Format("2006-01-02")
		resp.WeaponLicenseValid = &t
	}
	return resp, nil
}
