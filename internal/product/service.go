package product

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/crm/internal"
	"github.com/frahmantamala/crm/internal/core/database"
	"github.com/frahmantamala/crm/pkg/pagination"
)

type Repository interface {
	Page(ctx context.Context, q PageQuery, p pagination.Params) ([]*Product, int64, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
	UpdateStatus(ctx context.Context, ids []int64, status int) (int64, error)
}

type ServiceAPI interface {
	GetPage(ctx context.Context, q PageQuery, p pagination.Params) (pagination.Page[*Product], error)
	Get(ctx context.Context, id int64) (*Product, error)
	SaveOrEdit(ctx context.Context, dto SaveProductDTO) (*Product, error)
	Delete(ctx context.Context, id int64) error
	BatchUpdateStatus(ctx context.Context, dto BatchStatusDTO) (int64, error)
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

func (s *Service) GetPage(ctx context.Context, q PageQuery, p pagination.Params) (pagination.Page[*Product], error) {
	if q.Status != nil && !ValidStatus(*q.Status) {
		return pagination.Page[*Product]{}, ErrInvalidStatus
	}
	list, total, err := s.repo.Page(ctx, q, p)
	if err != nil {
		return pagination.Page[*Product]{}, internal.NewInternalError("failed to list products", err)
	}
	return pagination.NewPage(list, total, p), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapErr(err, "failed to load product")
	}
	return p, nil
}

func (s *Service) SaveOrEdit(ctx context.Context, dto SaveProductDTO) (*Product, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var saved *Product
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		exists, err := s.repo.ExistsByName(txCtx, dto.Name, dto.ID)
		if err != nil {
			return internal.NewInternalError("failed to check product name", err)
		}
		if exists {
			return ErrNameExists
		}

		if dto.ID == 0 {
			saved = &Product{}
			apply(saved, dto)
			if err := s.repo.Create(txCtx, saved); err != nil {
				return internal.NewInternalError("failed to create product", err)
			}
			return nil
		}

		current, err := s.repo.GetByID(txCtx, dto.ID)
		if err != nil {
			return wrapErr(err, "failed to load product")
		}
		apply(current, dto)
		if err := s.repo.Update(txCtx, current); err != nil {
			return internal.NewInternalError("failed to update product", err)
		}
		saved = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("product saved", "product_id", saved.ID, "status", saved.Status)
	return saved, nil
}

func apply(p *Product, dto SaveProductDTO) {
	p.Name = dto.Name
	p.Price = dto.Price
	p.Stock = dto.Stock
	p.Status = dto.Status
	p.Description = dto.Description
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return wrapErr(err, "failed to load product")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return internal.NewInternalError("failed to delete product", err)
	}
	s.logger.Info("product deleted", "product_id", id)
	return nil
}

// BatchUpdateStatus puts many products on or off the shelf at once and
// reports how many rows changed. Unknown ids are ignored.
func (s *Service) BatchUpdateStatus(ctx context.Context, dto BatchStatusDTO) (int64, error) {
	if err := dto.Validate(); err != nil {
		return 0, err
	}

	updated, err := s.repo.UpdateStatus(ctx, dto.IDs, dto.Status)
	if err != nil {
		return 0, internal.NewInternalError("failed to update product status", err)
	}

	s.logger.Info("product status updated", "requested", len(dto.IDs), "updated", updated, "status", dto.Status)
	return updated, nil
}

func wrapErr(err error, message string) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	return internal.NewInternalError(message, err)
}
