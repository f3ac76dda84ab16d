package uploadcmder

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/lookbook/cmd/lookbook/setup"
	"github.com/papercomputeco/lookbook/cmd/lookbook/setup/setuptest"
	"github.com/papercomputeco/lookbook/pkg/storage/jsonfile"
)

var _ = Describe("Upload Command", func() {
	var (
		ctx       context.Context
		tmpDir    string
		storePath string
		host      *setuptest.Imgur
		opts      *setup.Options
		out       *bytes.Buffer
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		tmpDir, err = os.MkdirTemp("", "lookbook-upload-test-*")
		Expect(err).NotTo(HaveOccurred())
		storePath = filepath.Join(tmpDir, "public_image_url", "public_url.json")

		host = setuptest.NewImgur()

		cfgPath, err := setuptest.WriteConfig(tmpDir, setuptest.Fixture{
			ImgurURL:  host.URL,
			StorePath: storePath,
		})
		Expect(err).NotTo(HaveOccurred())

		opts = &setup.Options{ConfigPath: cfgPath}
		out = &bytes.Buffer{}
	})

	AfterEach(func() {
		host.Close()
		os.RemoveAll(tmpDir)
	})

	execute := func(args ...string) error {
		cmd := NewUploadCmd(opts)
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs(args)
		return cmd.ExecuteContext(ctx)
	}

	It("uploads every file and records each link under its title", func() {
		a, err := setuptest.WritePNG(tmpDir, "a.png")
		Expect(err).NotTo(HaveOccurred())
		b, err := setuptest.WritePNG(tmpDir, "b.png")
		Expect(err).NotTo(HaveOccurred())

		Expect(execute(a, b)).To(Succeed())

		titles := host.Titles()
		Expect(titles).To(HaveLen(2))
		Expect(titles[0]).NotTo(Equal(titles[1]))

		store := jsonfile.NewDriver(storePath, zap.NewNop())
		entries, err := store.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))

		for _, title := range titles {
			entry, err := store.Get(ctx, title)
			Expect(err).NotTo(HaveOccurred())
			Expect(entry.Link).To(Equal(setuptest.Link(title)))
		}

		Expect(out.String()).To(ContainSubstring("Uploaded 2 of 2 images"))
		Expect(out.String()).To(ContainSubstring(setuptest.Link(titles[0])))
	})

	It("reports unsupported files inline without uploading them", func() {
		notes := filepath.Join(tmpDir, "notes.txt")
		Expect(os.WriteFile(notes, []byte("not an image"), 0o644)).To(Succeed())
		good, err := setuptest.WritePNG(tmpDir, "good.png")
		Expect(err).NotTo(HaveOccurred())

		Expect(execute(notes, good)).To(Succeed())

		Expect(host.Titles()).To(HaveLen(1))
		Expect(out.String()).To(ContainSubstring("unsupported image notes.txt"))
		Expect(out.String()).To(ContainSubstring("Uploaded 1 of 2 images"))
	})

	It("records nothing when the host rejects the upload", func() {
		host.SetStatus(http.StatusNotFound)
		img, err := setuptest.WritePNG(tmpDir, "look.png")
		Expect(err).NotTo(HaveOccurred())

		Expect(execute(img)).To(Succeed())

		Expect(out.String()).To(ContainSubstring("failed to upload image: status code 404"))
		_, err = os.Stat(storePath)
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("reports missing files inline", func() {
		Expect(execute(filepath.Join(tmpDir, "missing.png"))).To(Succeed())

		Expect(out.String()).To(ContainSubstring("missing.png"))
		Expect(out.String()).To(ContainSubstring("Uploaded 0 of 1 images"))
		Expect(host.Titles()).To(BeEmpty())
	})

	It("counts unreadable files in the total next to uploaded ones", func() {
		img, err := setuptest.WritePNG(tmpDir, "look.png")
		Expect(err).NotTo(HaveOccurred())

		Expect(execute(filepath.Join(tmpDir, "missing.png"), img)).To(Succeed())

		Expect(out.String()).To(ContainSubstring("Uploaded 1 of 2 images"))
		Expect(host.Titles()).To(HaveLen(1))
	})

	It("requires an Imgur client ID", func() {
		cfgPath, err := setuptest.WriteConfig(tmpDir, setuptest.Fixture{StorePath: storePath})
		Expect(err).NotTo(HaveOccurred())
		opts.ConfigPath = cfgPath
		img, err := setuptest.WritePNG(tmpDir, "look.png")
		Expect(err).NotTo(HaveOccurred())

		err = execute(img)
		Expect(err).To(MatchError(ContainSubstring("IMGUR_CLIENT_ID")))
	})

	Describe("expandPaths", func() {
		It("expands directories to their image files in name order", func() {
			dir := filepath.Join(tmpDir, "outfits")
			Expect(os.Mkdir(dir, 0o755)).To(Succeed())
			for _, name := range []string{"b.jpg", "a.png", "readme.md", "c.JPEG"} {
				Expect(os.WriteFile(filepath.Join(dir, name), nil, 0o644)).To(Succeed())
			}

			paths, err := expandPaths([]string{"first.png", dir})
			Expect(err).NotTo(HaveOccurred())
			Expect(paths).To(Equal([]string{
				"first.png",
				filepath.Join(dir, "a.png"),
				filepath.Join(dir, "b.jpg"),
				filepath.Join(dir, "c.JPEG"),
			}))
		})
	})
})
