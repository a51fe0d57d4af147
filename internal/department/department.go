package department

import (
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/crm/internal"
	departmentDatamodel "github.com/frahmantamala/crm/internal/core/datamodel/department"
)

// RootID is the virtual parent of top-level departments.
const RootID int64 = 0

type Department struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	ParentID  int64         `json:"parent_id"`
	ParentIDs string        `json:"parent_ids"`
	Sort      int           `json:"sort"`
	Children  []*Department `json:"children,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Info describes the current manager's department and what it can see.
type Info struct {
	DepartID      int64   `json:"dept_id"`
	DepartName    string  `json:"dept_name"`
	ParentIDs     string  `json:"parent_ids"`
	AccessibleIDs []int64 `json:"accessible_ids"`
}

// ChildChain is the parent_ids value of this department's direct children.
func (d *Department) ChildChain() string {
	return d.ParentIDs + "," + strconv.FormatInt(d.ID, 10)
}

// Ancestors parses the parent_ids chain, skipping the virtual root.
func (d *Department) Ancestors() []int64 {
	var ids []int64
	for _, part := range strings.Split(d.ParentIDs, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id == RootID {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// IsDescendantOf reports whether ancestorID appears in the chain.
func (d *Department) IsDescendantOf(ancestorID int64) bool {
	for _, id := range d.Ancestors() {
		if id == ancestorID {
			return true
		}
	}
	return false
}

// BuildTree nests a flat list by parent id, keeping the input order among siblings.
func BuildTree(list []*Department) []*Department {
	byID := make(map[int64]*Department, len(list))
	for _, d := range list {
		d.Children = nil
		byID[d.ID] = d
	}

	roots := make([]*Department, 0)
	for _, d := range list {
		if parent, ok := byID[d.ParentID]; ok && d.ParentID != RootID {
			parent.Children = append(parent.Children, d)
			continue
		}
		roots = append(roots, d)
	}
	return roots
}

var (
	ErrDepartmentNotFound = internal.NewNotFoundError("department not found", internal.ErrCodeDepartmentNotFound)
	ErrParentNotFound     = internal.NewValidationError("parent department not found", internal.ErrCodeInvalidParent)
	ErrInvalidParent      = internal.NewValidationError("a department cannot be moved under itself or its descendants", internal.ErrCodeInvalidParent)
	ErrHasChildren        = internal.NewConflictError("department has child departments", internal.ErrCodeDepartmentNotEmpty)
	ErrHasManagers        = internal.NewConflictError("department still has managers", internal.ErrCodeDepartmentNotEmpty)
)

func ToDataModel(d *Department) *departmentDatamodel.Department {
	return &departmentDatamodel.Department{
		ID:        d.ID,
		Name:      d.Name,
		ParentID:  d.ParentID,
		ParentIDs: d.ParentIDs,
		Sort:      d.Sort,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func FromDataModel(m *departmentDatamodel.Department) *Department {
	return &Department{
		ID:        m.ID,
		Name:      m.Name,
		ParentID:  m.ParentID,
		ParentIDs: m.ParentIDs,
		Sort:      m.Sort,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
