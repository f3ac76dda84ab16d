// Package storagetest holds shared Ginkgo specs that every metadata.Storer
// driver must pass.
package storagetest

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/lookbook/pkg/metadata"
)

// Record returns a minimal record with the given id and link.
func Record(id, link string) *metadata.Record {
	return &metadata.Record{
		ID:         id,
		DeleteHash: "dh-" + id,
		Title:      id,
		Type:       "image/jpeg",
		Width:      640,
		Height:     480,
		Size:       1024,
		Link:       link,
	}
}

// DescribeStorer registers the common Storer behaviors. newStorer is called
// before each spec; the returned storer is closed after it.
func DescribeStorer(newStorer func() metadata.Storer) {
	Describe("metadata.Storer behavior", func() {
		var (
			ctx    context.Context
			storer metadata.Storer
		)

		BeforeEach(func() {
			ctx = context.Background()
			storer = newStorer()
		})

		AfterEach(func() {
			Expect(storer.Close()).To(Succeed())
		})

		It("round-trips a record's link under its id", func() {
			rec := Record("4b1c", "https://i.imgur.com/a.jpeg")
			Expect(storer.Put(ctx, rec)).To(Succeed())

			entry, err := storer.Get(ctx, rec.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(entry.ID).To(Equal(rec.ID))
			Expect(entry.Link).To(Equal(rec.Link))
		})

		It("overwrites an existing entry with the same id", func() {
			Expect(storer.Put(ctx, Record("x", "https://i.imgur.com/old.png"))).To(Succeed())
			Expect(storer.Put(ctx, Record("x", "https://i.imgur.com/new.png"))).To(Succeed())

			entry, err := storer.Get(ctx, "x")
			Expect(err).NotTo(HaveOccurred())
			Expect(entry.Link).To(Equal("https://i.imgur.com/new.png"))

			entries, err := storer.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
		})

		It("keeps distinct ids as separate entries", func() {
			Expect(storer.Put(ctx, Record("b", "https://i.imgur.com/b.png"))).To(Succeed())
			Expect(storer.Put(ctx, Record("a", "https://i.imgur.com/a.png"))).To(Succeed())

			entries, err := storer.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(2))
			Expect(entries[0].ID).To(Equal("a"))
			Expect(entries[1].ID).To(Equal("b"))
		})

		It("returns ErrNotFound for unknown ids", func() {
			_, err := storer.Get(ctx, "missing")
			Expect(err).To(HaveOccurred())

			var notFoundErr metadata.ErrNotFound
			Expect(err).To(BeAssignableToTypeOf(notFoundErr))
		})

		It("returns an empty list for an empty store", func() {
			entries, err := storer.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})

		It("rejects nil records and empty ids", func() {
			Expect(storer.Put(ctx, nil)).To(MatchError(metadata.ErrNilRecord))
			Expect(storer.Put(ctx, Record("", "https://i.imgur.com/a.png"))).To(MatchError(metadata.ErrNilRecord))
		})
	})
}
