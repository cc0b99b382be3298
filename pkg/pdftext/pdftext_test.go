package pdftext_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studai/pkg/pdftext"
	testutils "github.com/papercomputeco/studai/pkg/utils/test"
)

var _ = Describe("Extract", func() {
	It("returns one entry per page in order", func() {
		raw := testutils.BuildPDF("Photosynthesis", "Mitochondria", "Ribosomes")

		pages, err := pdftext.Extract(raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(pages).To(HaveLen(3))

		Expect(pages[0].Number).To(Equal(1))
		Expect(pages[0].Text).To(ContainSubstring("Photosynthesis"))
		Expect(pages[1].Number).To(Equal(2))
		Expect(pages[1].Text).To(ContainSubstring("Mitochondria"))
		Expect(pages[2].Number).To(Equal(3))
		Expect(pages[2].Text).To(ContainSubstring("Ribosomes"))
	})

	It("keeps blank pages so numbering stays aligned", func() {
		raw := testutils.BuildPDF("First", "", "Third")

		pages, err := pdftext.Extract(raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(pages).To(HaveLen(3))
		Expect(pages[1].Number).To(Equal(2))
		Expect(pages[1].Text).To(BeEmpty())
		Expect(pages[2].Text).To(ContainSubstring("Third"))
	})

	It("rejects empty input", func() {
		_, err := pdftext.Extract(nil)
		Expect(err).To(MatchError(pdftext.ErrInvalidPDF))
	})

	It("rejects bytes that are not a PDF", func() {
		_, err := pdftext.Extract([]byte("definitely not a pdf document"))
		Expect(err).To(MatchError(pdftext.ErrInvalidPDF))
	})

	It("rejects a truncated PDF", func() {
		raw := testutils.BuildPDF("Complete page")
		_, err := pdftext.Extract(raw[:len(raw)/2])
		Expect(err).To(MatchError(pdftext.ErrInvalidPDF))
	})
})
