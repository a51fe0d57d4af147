package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/crm/internal"
	"github.com/frahmantamala/crm/internal/core/session"
)

type ServiceAPI interface {
	Login(ctx context.Context, dto LoginDTO) (*LoginResponse, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*session.Detail, error)
}

// RepositoryAPI loads login data. GetCredentials returns ErrAccountNotFound
// when no non-deleted manager uses the account.
type RepositoryAPI interface {
	GetCredentials(ctx context.Context, account string) (*Credentials, error)
	GetPermissions(ctx context.Context, managerID int64) ([]string, error)
}

type TokenGeneratorAPI interface {
	GenerateAccessToken(managerID int64, account string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
	TTL() time.Duration
}

var ErrAccountNotFound = errors.New("account not found")

type Service struct {
	repo   RepositoryAPI
	tokens TokenGeneratorAPI
	store  TokenStore
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, tokens TokenGeneratorAPI, store TokenStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, tokens: tokens, store: store, logger: logger}
}

func (s *Service) Login(ctx context.Context, dto LoginDTO) (*LoginResponse, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	creds, err := s.repo.GetCredentials(ctx, dto.Account)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			s.logger.Warn("login failed: unknown account", "account", dto.Account)
			return nil, internal.ErrInvalidCredentials
		}
		return nil, internal.NewInternalError("failed to load account", err)
	}

	if err := VerifyPassword(creds.PasswordHash, dto.Password); err != nil {
		s.logger.Warn("login failed: wrong password", "account", dto.Account)
		return nil, internal.ErrInvalidCredentials
	}
	if creds.Status == ManagerStatusDisabled {
		s.logger.Warn("login refused: account disabled", "account", dto.Account)
		return nil, internal.ErrAccountDisabled
	}
	if !creds.HasDepartment {
		s.logger.Warn("login refused: no department", "account", dto.Account, "depart_id", creds.DepartID)
		return nil, ErrDepartmentUnassigned
	}

	permissions, err := s.repo.GetPermissions(ctx, creds.ManagerID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load permissions", err)
	}

	token, err := s.tokens.GenerateAccessToken(creds.ManagerID, creds.Account)
	if err != nil {
		return nil, internal.NewInternalError("failed to issue token", err)
	}

	detail := &session.Detail{
		ManagerID:   creds.ManagerID,
		Account:     creds.Account,
		Name:        creds.Name,
		Email:       creds.Email,
		DepartID:    creds.DepartID,
		DepartName:  creds.DepartName,
		ParentIDs:   creds.ParentIDs,
		Permissions: permissions,
		LoginAt:     time.Now(),
	}
	if err := s.store.Save(ctx, token, detail, s.tokens.TTL()); err != nil {
		return nil, internal.NewInternalError("failed to store session", err)
	}

	s.logger.Info("manager logged in", "manager_id", creds.ManagerID, "account", creds.Account)
	return &LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
		DepartID:    creds.DepartID,
		DepartName:  creds.DepartName,
	}, nil
}

// Logout removes the session. The token itself stays cryptographically valid
// until expiry but no longer authenticates.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return internal.ErrInvalidToken
	}
	if err := s.store.Delete(ctx, token); err != nil {
		return internal.NewInternalError("failed to end session", err)
	}
	return nil
}

func (s *Service) Authenticate(ctx context.Context, token string) (*session.Detail, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	detail, err := s.store.Get(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, internal.ErrSessionExpired
		}
		return nil, internal.NewInternalError("failed to load session", err)
	}
	if detail.ManagerID != claims.ManagerID {
		return nil, internal.ErrInvalidToken
	}
	return detail, nil
}
