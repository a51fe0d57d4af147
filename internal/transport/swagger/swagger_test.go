package swagger_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/crm/internal/transport/swagger"
)

var _ = Describe("Load", func() {
	ctx := context.Background()

	It("accepts the bundled API document", func() {
		doc, err := swagger.Load(ctx, filepath.Join("..", "..", "..", "api", "openapi.yml"))
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Info.Title).To(Equal("CRM API"))
		Expect(doc.Paths.Find("/contracts/{id}/approval")).NotTo(BeNil())
		Expect(doc.Paths.Find("/customers/export")).NotTo(BeNil())
	})

	It("rejects an invalid document", func() {
		path := filepath.Join(GinkgoT().TempDir(), "broken.yml")
		Expect(os.WriteFile(path, []byte("openapi: 3.0.3\ninfo:\n  title: broken\npaths: {}\n"), 0o600)).To(Succeed())

		_, err := swagger.Load(ctx, path)
		Expect(err).To(MatchError(ContainSubstring("validate openapi document")))
	})

	It("reports a missing file", func() {
		_, err := swagger.Load(ctx, "does-not-exist.yml")
		Expect(err).To(MatchError(ContainSubstring("load openapi document")))
	})
})
