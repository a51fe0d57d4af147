package customer

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"

	"github.com/frahmantamala/crm/internal"
	"github.com/frahmantamala/crm/internal/core/database"
	"github.com/frahmantamala/crm/pkg/pagination"
)

type Repository interface {
	Page(ctx context.Context, ownerID int64, q PageQuery, p pagination.Params) ([]*Customer, int64, error)
	List(ctx context.Context, ownerID int64, q PageQuery) ([]*Customer, error)
	GetByID(ctx context.Context, id int64) (*Customer, error)
	ExistsByPhone(ctx context.Context, phone string, excludeID int64) (bool, error)
	Create(ctx context.Context, c *Customer) error
	Update(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, id int64) error
	HasContracts(ctx context.Context, id int64) (bool, error)
}

type ServiceAPI interface {
	GetPage(ctx context.Context, managerID int64, q PageQuery, p pagination.Params) (pagination.Page[*Customer], error)
	Get(ctx context.Context, managerID, id int64) (*Customer, error)
	SaveOrUpdate(ctx context.Context, managerID int64, dto SaveCustomerDTO) (*Customer, error)
	Delete(ctx context.Context, managerID, id int64) error
	Export(ctx context.Context, managerID int64, q PageQuery, w io.Writer) error
}

type Service struct {
	repo      Repository
	txManager database.TransactionManager
	logger    *slog.Logger
}

func NewService(repo Repository, txManager database.TransactionManager, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, txManager: txManager, logger: logger}
}

func (s *Service) GetPage(ctx context.Context, managerID int64, q PageQuery, p pagination.Params) (pagination.Page[*Customer], error) {
	list, total, err := s.repo.Page(ctx, managerID, q, p)
	if err != nil {
		return pagination.Page[*Customer]{}, internal.NewInternalError("failed to list customers", err)
	}
	return pagination.NewPage(list, total, p), nil
}

func (s *Service) Get(ctx context.Context, managerID, id int64) (*Customer, error) {
	return s.owned(ctx, managerID, id)
}

func (s *Service) owned(ctx context.Context, managerID, id int64) (*Customer, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return nil, err
		}
		return nil, internal.NewInternalError("failed to load customer", err)
	}
	if c.OwnerID != managerID {
		return nil, internal.ErrUnauthorizedAccess
	}
	return c, nil
}

func (s *Service) SaveOrUpdate(ctx context.Context, managerID int64, dto SaveCustomerDTO) (*Customer, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var saved *Customer
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var current *Customer
		if dto.ID != 0 {
			c, err := s.owned(txCtx, managerID, dto.ID)
			if err != nil {
				return err
			}
			current = c
		}

		exists, err := s.repo.ExistsByPhone(txCtx, dto.Phone, dto.ID)
		if err != nil {
			return internal.NewInternalError("failed to check customer phone", err)
		}
		if exists {
			return ErrPhoneExists
		}

		if current == nil {
			saved = &Customer{OwnerID: managerID, CreaterID: managerID}
			apply(saved, dto)
			if err := s.repo.Create(txCtx, saved); err != nil {
				return internal.NewInternalError("failed to create customer", err)
			}
			return nil
		}

		apply(current, dto)
		if err := s.repo.Update(txCtx, current); err != nil {
			return internal.NewInternalError("failed to update customer", err)
		}
		saved = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("customer saved", "customer_id", saved.ID, "manager_id", managerID)
	return saved, nil
}

func apply(c *Customer, dto SaveCustomerDTO) {
	c.Name = dto.Name
	c.Phone = dto.Phone
	c.Email = dto.Email
	c.Level = dto.Level
	c.Source = dto.Source
	c.Address = dto.Address
	c.FollowStatus = dto.FollowStatus
}

// Delete soft deletes a customer unless a live contract still references it.
func (s *Service) Delete(ctx context.Context, managerID, id int64) error {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.owned(txCtx, managerID, id); err != nil {
			return err
		}
		inUse, err := s.repo.HasContracts(txCtx, id)
		if err != nil {
			return internal.NewInternalError("failed to check customer contracts", err)
		}
		if inUse {
			return ErrCustomerInUse
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return internal.NewInternalError("failed to delete customer", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("customer deleted", "customer_id", id, "manager_id", managerID)
	return nil
}

// Export writes every customer matching q as CSV, header row first.
func (s *Service) Export(ctx context.Context, managerID int64, q PageQuery, w io.Writer) error {
	list, err := s.repo.List(ctx, managerID, q)
	if err != nil {
		return internal.NewInternalError("failed to list customers", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return internal.NewInternalError("failed to write export", err)
	}
	for _, c := range list {
		if err := cw.Write(c.Record()); err != nil {
			return internal.NewInternalError("failed to write export", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return internal.NewInternalError("failed to write export", err)
	}

	s.logger.Info("customers exported", "manager_id", managerID, "rows", len(list))
	return nil
}
