package department

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/crm/internal"
	"github.com/frahmantamala/crm/internal/core/database"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Department, error)
	List(ctx context.Context) ([]*Department, error)
	Descendants(ctx context.Context, d *Department) ([]*Department, error)
	Create(ctx context.Context, d *Department) error
	Update(ctx context.Context, d *Department) error
	UpdateChain(ctx context.Context, id int64, parentIDs string) error
	Delete(ctx context.Context, id int64) error
	CountChildren(ctx context.Context, id int64) (int64, error)
	CountManagers(ctx context.Context, id int64) (int64, error)
}

type ServiceAPI interface {
	Create(ctx context.Context, dto SaveDepartmentDTO) (*Department, error)
	Update(ctx context.Context, id int64, dto SaveDepartmentDTO) (*Department, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*Department, error)
	Tree(ctx context.Context) ([]*Department, error)
	Info(ctx context.Context, departID int64) (*Info, error)
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

func (s *Service) Get(ctx context.Context, id int64) (*Department, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapErr(err, "failed to load department")
	}
	return d, nil
}

func (s *Service) Tree(ctx context.Context) ([]*Department, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to list departments", err)
	}
	return BuildTree(list), nil
}

// chainFor returns the parent_ids value for a department placed under parentID.
func (s *Service) chainFor(ctx context.Context, parentID int64) (*Department, string, error) {
	if parentID == RootID {
		return nil, "0", nil
	}
	parent, err := s.repo.GetByID(ctx, parentID)
	if err != nil {
		if err == ErrDepartmentNotFound {
			return nil, "", ErrParentNotFound
		}
		return nil, "", internal.NewInternalError("failed to load parent department", err)
	}
	return parent, parent.ChildChain(), nil
}

func (s *Service) Create(ctx context.Context, dto SaveDepartmentDTO) (*Department, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var created *Department
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		_, chain, err := s.chainFor(txCtx, dto.ParentID)
		if err != nil {
			return err
		}
		created = &Department{Name: dto.Name, ParentID: dto.ParentID, ParentIDs: chain, Sort: dto.Sort}
		if err := s.repo.Create(txCtx, created); err != nil {
			return internal.NewInternalError("failed to create department", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("department created", "department_id", created.ID, "parent_id", created.ParentID)
	return created, nil
}

// Update renames or moves a department. Moving rewrites the chain of every
// descendant in the same transaction.
func (s *Service) Update(ctx context.Context, id int64, dto SaveDepartmentDTO) (*Department, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var updated *Department
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return wrapErr(err, "failed to load department")
		}

		if dto.ParentID == id {
			return ErrInvalidParent
		}
		parent, chain, err := s.chainFor(txCtx, dto.ParentID)
		if err != nil {
			return err
		}
		if parent != nil && parent.IsDescendantOf(id) {
			return ErrInvalidParent
		}

		previous := &Department{ID: current.ID, ParentIDs: current.ParentIDs}
		moved := chain != current.ParentIDs

		current.Name = dto.Name
		current.Sort = dto.Sort
		current.ParentID = dto.ParentID
		current.ParentIDs = chain
		if err := s.repo.Update(txCtx, current); err != nil {
			return internal.NewInternalError("failed to update department", err)
		}

		if moved {
			if err := s.rewriteDescendants(txCtx, previous, current); err != nil {
				return err
			}
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("department updated", "department_id", id, "parent_id", updated.ParentID)
	return updated, nil
}

func (s *Service) rewriteDescendants(ctx context.Context, previous, moved *Department) error {
	descendants, err := s.repo.Descendants(ctx, previous)
	if err != nil {
		return internal.NewInternalError("failed to load sub-departments", err)
	}

	oldChildChain := previous.ChildChain()
	newChildChain := moved.ChildChain()
	for _, d := range descendants {
		chain := newChildChain + d.ParentIDs[len(oldChildChain):]
		if err := s.repo.UpdateChain(ctx, d.ID, chain); err != nil {
			return internal.NewInternalError("failed to update sub-department", err)
		}
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetByID(txCtx, id); err != nil {
			return wrapErr(err, "failed to load department")
		}

		children, err := s.repo.CountChildren(txCtx, id)
		if err != nil {
			return internal.NewInternalError("failed to check sub-departments", err)
		}
		if children > 0 {
			return ErrHasChildren
		}

		managers, err := s.repo.CountManagers(txCtx, id)
		if err != nil {
			return internal.NewInternalError("failed to check department managers", err)
		}
		if managers > 0 {
			return ErrHasManagers
		}

		if err := s.repo.Delete(txCtx, id); err != nil {
			return internal.NewInternalError("failed to delete department", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("department delete refused", "error", err, "department_id", id)
		return err
	}

	s.logger.Info("department deleted", "department_id", id)
	return nil
}

// Info resolves the manager's department and every department below it.
func (s *Service) Info(ctx context.Context, departID int64) (*Info, error) {
	d, err := s.repo.GetByID(ctx, departID)
	if err != nil {
		return nil, wrapErr(err, "failed to load department")
	}

	descendants, err := s.repo.Descendants(ctx, d)
	if err != nil {
		return nil, internal.NewInternalError("failed to load sub-departments", err)
	}

	ids := make([]int64, 0, len(descendants)+1)
	ids = append(ids, d.ID)
	for _, child := range descendants {
		ids = append(ids, child.ID)
	}

	return &Info{
		DepartID:      d.ID,
		DepartName:    d.Name,
		ParentIDs:     d.ParentIDs,
		AccessibleIDs: ids,
	}, nil
}

func wrapErr(err error, message string) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	return internal.NewInternalError(message, err)
}
