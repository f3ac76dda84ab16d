package render_test

import (
	"bytes"
	"errors"

	"github.com/charmbracelet/lipgloss"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/lookbook/pkg/metadata"
	"github.com/papercomputeco/lookbook/pkg/render"
	"github.com/papercomputeco/lookbook/pkg/upload"
)

var _ = Describe("Tracker", func() {
	var buf *bytes.Buffer

	BeforeEach(func() {
		buf = &bytes.Buffer{}
	})

	It("writes each result as it finishes and the summary on close", func() {
		t := render.New(buf).Track(2, nil)

		t.Started(upload.File{Name: "a.png"})
		t.Finished(upload.Result{Name: "a.png", Record: &metadata.Record{ID: "a", Link: "https://i.imgur.com/a.png"}})
		Expect(buf.String()).To(ContainSubstring("Public URL: https://i.imgur.com/a.png"))
		Expect(buf.String()).NotTo(ContainSubstring("Uploaded"))

		t.Finished(upload.Result{Name: "b.png", Err: errors.New("read b.png: no such file")})
		Expect(t.Close()).To(Succeed())

		Expect(buf.String()).To(ContainSubstring("Error: read b.png: no such file"))
		Expect(buf.String()).To(HaveSuffix("Uploaded 1 of 2 images\n"))
	})

	It("reports the planned total even when fewer files finish", func() {
		t := render.New(buf).Track(3, nil)
		t.Finished(upload.Result{Name: "a.png", Record: &metadata.Record{ID: "a"}})
		Expect(t.Close()).To(Succeed())

		Expect(buf.String()).To(ContainSubstring("Uploaded 1 of 3 images"))
	})

	It("counts finished files when the total is open-ended", func() {
		t := render.New(buf).Track(0, nil)
		t.Finished(upload.Result{Name: "a.png", Record: &metadata.Record{ID: "a"}})
		t.Finished(upload.Result{Name: "b.png", Record: &metadata.Record{ID: "b"}})
		Expect(t.Close()).To(Succeed())

		Expect(buf.String()).To(ContainSubstring("Uploaded 2 of 2 images"))
	})
})

var _ = Describe("Renderer color profile", func() {
	It("leaves the default lipgloss renderer untouched", func() {
		before := lipgloss.ColorProfile()

		render.New(&bytes.Buffer{})

		Expect(lipgloss.ColorProfile()).To(Equal(before))
	})
})
