package manager

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/crm/internal"
	"github.com/frahmantamala/crm/internal/core/database"
	"github.com/frahmantamala/crm/internal/department"
	"github.com/frahmantamala/crm/pkg/pagination"
)

type Repository interface {
	Page(ctx context.Context, q PageQuery, p pagination.Params) ([]*Manager, int64, error)
	GetByID(ctx context.Context, id int64) (*Manager, error)
	ExistsByAccount(ctx context.Context, account string) (bool, error)
	DepartmentExists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, m *Manager, passwordHash string) error
	Update(ctx context.Context, m *Manager) error
	UpdateStatus(ctx context.Context, id int64, status int) error
	ReplacePermissions(ctx context.Context, id int64, names []string) error
}

type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type ServiceAPI interface {
	Page(ctx context.Context, q PageQuery, p pagination.Params) (pagination.Page[*Manager], error)
	GetByID(ctx context.Context, id int64) (*Manager, error)
	Me(ctx context.Context, managerID int64) (*Manager, error)
	Create(ctx context.Context, dto CreateManagerDTO) (*Manager, error)
	Update(ctx context.Context, id int64, dto UpdateManagerDTO) (*Manager, error)
	ChangeStatus(ctx context.Context, actorID, id int64, dto ChangeStatusDTO) error
	GrantPermissions(ctx context.Context, id int64, dto GrantPermissionsDTO) (*Manager, error)
}

type Service struct {
	repo      Repository
	hasher    PasswordHasher
	txManager database.TransactionManager
	logger    *slog.Logger
}

func NewService(repo Repository, hasher PasswordHasher, txManager database.TransactionManager, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, hasher: hasher, txManager: txManager, logger: logger}
}

func (s *Service) Page(ctx context.Context, q PageQuery, p pagination.Params) (pagination.Page[*Manager], error) {
	if q.Status != nil && *q.Status != StatusDisabled && *q.Status != StatusEnabled {
		return pagination.Page[*Manager]{}, ErrInvalidStatus
	}
	list, total, err := s.repo.Page(ctx, q, p)
	if err != nil {
		return pagination.Page[*Manager]{}, internal.NewInternalError("failed to list managers", err)
	}
	return pagination.NewPage(list, total, p), nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Manager, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapErr(err, "failed to load manager")
	}
	return m, nil
}

// Me returns the profile of the manager behind the current session.
func (s *Service) Me(ctx context.Context, managerID int64) (*Manager, error) {
	return s.GetByID(ctx, managerID)
}

func (s *Service) Create(ctx context.Context, dto CreateManagerDTO) (*Manager, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.HashPassword(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	m := &Manager{
		Account:  dto.Account,
		Name:     dto.Name,
		Email:    dto.Email,
		Phone:    dto.Phone,
		Status:   StatusEnabled,
		DepartID: dto.DepartID,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		exists, err := s.repo.ExistsByAccount(txCtx, dto.Account)
		if err != nil {
			return internal.NewInternalError("failed to check account", err)
		}
		if exists {
			return ErrAccountExists
		}
		if err := s.checkDepartment(txCtx, dto.DepartID); err != nil {
			return err
		}
		if err := s.repo.Create(txCtx, m, hash); err != nil {
			return internal.NewInternalError("failed to create manager", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("manager created", "manager_id", m.ID, "account", m.Account)
	return m, nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateManagerDTO) (*Manager, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var updated *Manager
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		m, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return wrapErr(err, "failed to load manager")
		}
		if m.DepartID != dto.DepartID {
			if err := s.checkDepartment(txCtx, dto.DepartID); err != nil {
				return err
			}
		}

		m.Name = dto.Name
		m.Email = dto.Email
		m.Phone = dto.Phone
		m.DepartID = dto.DepartID
		if err := s.repo.Update(txCtx, m); err != nil {
			return internal.NewInternalError("failed to update manager", err)
		}
		updated = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, updated.ID)
}

func (s *Service) ChangeStatus(ctx context.Context, actorID, id int64, dto ChangeStatusDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}
	if actorID == id && dto.Status == StatusDisabled {
		return ErrCannotDisableSelf
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return wrapErr(err, "failed to load manager")
	}
	if err := s.repo.UpdateStatus(ctx, id, dto.Status); err != nil {
		return internal.NewInternalError("failed to update manager status", err)
	}

	s.logger.Info("manager status changed", "manager_id", id, "status", dto.Status, "actor_id", actorID)
	return nil
}

// GrantPermissions replaces the manager's permission set.
func (s *Service) GrantPermissions(ctx context.Context, id int64, dto GrantPermissionsDTO) (*Manager, error) {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetByID(txCtx, id); err != nil {
			return wrapErr(err, "failed to load manager")
		}
		if err := s.repo.ReplacePermissions(txCtx, id, dedupe(dto.Permissions)); err != nil {
			return wrapErr(err, "failed to grant permissions")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("manager permissions replaced", "manager_id", id, "permissions", dto.Permissions)
	return s.GetByID(ctx, id)
}

func (s *Service) checkDepartment(ctx context.Context, id int64) error {
	ok, err := s.repo.DepartmentExists(ctx, id)
	if err != nil {
		return internal.NewInternalError("failed to check department", err)
	}
	if !ok {
		return department.ErrDepartmentNotFound
	}
	return nil
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok || n == "" {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func wrapErr(err error, message string) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	return internal.NewInternalError(message, err)
}
