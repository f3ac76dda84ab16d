package prompt_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/lookbook/pkg/llm"
	"github.com/papercomputeco/lookbook/pkg/prompt"
)

const userTemplate = "## Clothing Items :\n```\nitems_list\n```\n"

var _ = Describe("Composer", func() {
	var composer *prompt.Composer

	BeforeEach(func() {
		composer = prompt.NewComposer(prompt.ModeLiteral)
	})

	Describe("Compose", func() {
		Context("without an image reference", func() {
			It("returns a system and a plain text user message", func() {
				msgs, err := composer.Compose("You are a stylist.", "hello", nil, "")
				Expect(err).NotTo(HaveOccurred())
				Expect(msgs).To(HaveLen(2))

				Expect(msgs[0].Role).To(Equal(llm.RoleSystem))
				Expect(msgs[0].Content).To(Equal("You are a stylist."))
				Expect(msgs[1].Role).To(Equal(llm.RoleUser))

				text, ok := msgs[1].Text()
				Expect(ok).To(BeTrue())
				Expect(text).To(Equal("hello"))
			})

			It("substitutes a bare placeholder", func() {
				msgs, err := composer.Compose("sys", "items_list", prompt.Vars("items_list", "red dress"), "")
				Expect(err).NotTo(HaveOccurred())

				text, _ := msgs[1].Text()
				Expect(text).To(Equal("red dress"))
			})

			It("keeps the substituted text verbatim inside the template", func() {
				vars := prompt.Vars("items_list", "A stylish red dress")
				msgs, err := composer.Compose("sys", userTemplate, vars, "")
				Expect(err).NotTo(HaveOccurred())

				text, _ := msgs[1].Text()
				Expect(text).To(ContainSubstring("A stylish red dress"))
				Expect(text).NotTo(ContainSubstring("items_list"))
			})
		})

		Context("with an image reference", func() {
			const imageURL = "https://i.imgur.com/eAfpeBY.jpeg"

			It("returns a two part user content list", func() {
				msgs, err := composer.Compose("sys", "describe items_list", prompt.Vars("items_list", "shoes"), imageURL)
				Expect(err).NotTo(HaveOccurred())
				Expect(msgs).To(HaveLen(2))

				parts, ok := msgs[1].Parts()
				Expect(ok).To(BeTrue())
				Expect(parts).To(HaveLen(2))

				Expect(parts[0].Type).To(Equal(llm.PartText))
				Expect(parts[0].Text).To(Equal("describe shoes"))

				Expect(parts[1].Type).To(Equal(llm.PartImageURL))
				Expect(parts[1].ImageURL.URL).To(Equal(imageURL))
				Expect(parts[1].ImageURL.Detail).To(Equal("high"))
			})

			It("encodes to the provider's wire shape", func() {
				msgs, err := composer.Compose("sys", "look", nil, imageURL)
				Expect(err).NotTo(HaveOccurred())

				data, err := json.Marshal(msgs[1])
				Expect(err).NotTo(HaveOccurred())
				Expect(data).To(MatchJSON(`{
					"role": "user",
					"content": [
						{"type": "text", "text": "look"},
						{"type": "image_url", "image_url": {"url": "https://i.imgur.com/eAfpeBY.jpeg", "detail": "high"}}
					]
				}`))
			})

			It("accepts data URLs", func() {
				_, err := composer.Compose("sys", "look", nil, "data:image/png;base64,iVBORw0KGgo=")
				Expect(err).NotTo(HaveOccurred())
			})

			It("rejects references that are not absolute URLs", func() {
				_, err := composer.Compose("sys", "look", nil, "not a url")
				Expect(err).To(MatchError(prompt.ErrInvalidImageURL))

				_, err = composer.Compose("sys", "look", nil, "ftp://example.com/a.png")
				Expect(err).To(MatchError(prompt.ErrInvalidImageURL))
			})
		})
	})

	Describe("template mode", func() {
		BeforeEach(func() {
			composer = prompt.NewComposer(prompt.ModeTemplate)
		})

		It("renders delimited placeholders", func() {
			out, err := composer.Render("Items: {{.items_list}}", prompt.Vars("items_list", "red dress"))
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("Items: red dress"))
		})

		It("does not touch undelimited text that looks like a key", func() {
			out, err := composer.Render("items_list: {{.items_list}}", prompt.Vars("items_list", "hat"))
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("items_list: hat"))
		})

		It("fails on unknown keys", func() {
			_, err := composer.Render("{{.missing}}", prompt.Vars("items_list", "hat"))
			Expect(err).To(HaveOccurred())
		})

		It("fails on malformed templates", func() {
			_, err := composer.Compose("sys", "{{.items_list", prompt.Vars("items_list", "hat"), "")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("parse user prompt template"))
		})
	})

	Describe("ParseMode", func() {
		It("defaults to literal", func() {
			m, err := prompt.ParseMode("")
			Expect(err).NotTo(HaveOccurred())
			Expect(m).To(Equal(prompt.ModeLiteral))
		})

		It("rejects unknown modes", func() {
			_, err := prompt.ParseMode("jinja")
			Expect(err).To(HaveOccurred())
		})
	})
})
