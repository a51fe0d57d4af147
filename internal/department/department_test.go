package department_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/crm/internal/department"
)

var _ = Describe("Department chain", func() {
	It("parses ancestors without the virtual root", func() {
		d := &department.Department{ID: 7, ParentIDs: "0,1,4"}
		Expect(d.Ancestors()).To(Equal([]int64{1, 4}))
		Expect(d.IsDescendantOf(4)).To(BeTrue())
		Expect(d.IsDescendantOf(7)).To(BeFalse())
		Expect(d.ChildChain()).To(Equal("0,1,4,7"))
	})

	It("builds a forest from a flat list", func() {
		list := []*department.Department{
			{ID: 1, ParentID: 0, ParentIDs: "0"},
			{ID: 2, ParentID: 1, ParentIDs: "0,1"},
			{ID: 3, ParentID: 0, ParentIDs: "0"},
			{ID: 4, ParentID: 9, ParentIDs: "0,9"},
		}
		roots := department.BuildTree(list)
		Expect(roots).To(HaveLen(3))
		Expect(roots[0].Children).To(HaveLen(1))
		Expect(roots[2].ID).To(Equal(int64(4)))
	})
})
