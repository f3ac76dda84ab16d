package upload_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/lookbook/pkg/imgur"
	"github.com/papercomputeco/lookbook/pkg/metadata"
	"github.com/papercomputeco/lookbook/pkg/storage/inmemory"
	"github.com/papercomputeco/lookbook/pkg/storage/jsonfile"
	"github.com/papercomputeco/lookbook/pkg/upload"
)

func pngBytes() []byte {
	var buf bytes.Buffer
	Expect(png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 2)))).To(Succeed())
	return buf.Bytes()
}

// fakeUploader hands out links derived from the title and fails for names in failFor.
type fakeUploader struct {
	calls   []string
	failFor map[string]error
}

func (f *fakeUploader) Upload(_ context.Context, img imgur.Image, title string) (*metadata.Record, error) {
	f.calls = append(f.calls, img.Name)
	if err, ok := f.failFor[img.Name]; ok {
		return nil, err
	}
	return &metadata.Record{ID: title, Title: title, Type: img.ContentType, Link: "https://i.imgur.com/" + title + ".png"}, nil
}

type failingStorer struct {
	*inmemory.Driver
}

func (failingStorer) Put(context.Context, *metadata.Record) error {
	return errors.New("disk full")
}

// recordingObserver logs workflow notifications in order.
type recordingObserver struct {
	events []string
}

func (o *recordingObserver) Started(f upload.File) {
	o.events = append(o.events, "start "+f.Name)
}

func (o *recordingObserver) Finished(res upload.Result) {
	o.events = append(o.events, fmt.Sprintf("done %s ok=%t", res.Name, res.OK()))
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

var _ = Describe("Workflow", func() {
	var (
		ctx      context.Context
		uploader *fakeUploader
		store    *inmemory.Driver
	)

	BeforeEach(func() {
		ctx = context.Background()
		uploader = &fakeUploader{failFor: map[string]error{}}
		store = inmemory.NewDriver()
	})

	It("uploads files in order and records each link under its generated id", func() {
		w := upload.NewWorkflow(uploader, store, zap.NewNop(), upload.WithIDGenerator(sequentialIDs()))

		results := w.Run(ctx, []upload.File{
			{Name: "a.png", Data: pngBytes()},
			{Name: "b.png", Data: pngBytes()},
		})

		Expect(uploader.calls).To(Equal([]string{"a.png", "b.png"}))
		Expect(results).To(HaveLen(2))
		for _, r := range results {
			Expect(r.OK()).To(BeTrue())
		}

		entries, err := store.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
		Expect(entries[0]).To(Equal(&metadata.Entry{ID: "id-1", Link: "https://i.imgur.com/id-1.png"}))
		Expect(entries[1]).To(Equal(&metadata.Entry{ID: "id-2", Link: "https://i.imgur.com/id-2.png"}))
	})

	It("uses random UUIDs by default", func() {
		w := upload.NewWorkflow(uploader, store, zap.NewNop())

		results := w.Run(ctx, []upload.File{{Name: "a.png", Data: pngBytes()}, {Name: "b.png", Data: pngBytes()}})
		Expect(results[0].ID).To(MatchRegexp(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`))
		Expect(results[0].ID).NotTo(Equal(results[1].ID))
	})

	It("continues after a failed upload and skips the store write for it", func() {
		uploader.failFor["bad.png"] = &imgur.StatusError{StatusCode: 404}
		w := upload.NewWorkflow(uploader, store, zap.NewNop(), upload.WithIDGenerator(sequentialIDs()))

		results := w.Run(ctx, []upload.File{
			{Name: "bad.png", Data: pngBytes()},
			{Name: "good.png", Data: pngBytes()},
		})

		Expect(results[0].OK()).To(BeFalse())
		Expect(results[0].Record).To(BeNil())
		Expect(results[0].Err).To(HaveOccurred())
		Expect(results[1].OK()).To(BeTrue())

		entries, _ := store.List(ctx)
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].ID).To(Equal("id-2"))
	})

	It("rejects files that are not images without uploading them", func() {
		w := upload.NewWorkflow(uploader, store, zap.NewNop())

		results := w.Run(ctx, []upload.File{{Name: "notes.txt", Data: []byte("hello")}})
		Expect(results[0].Err).To(HaveOccurred())
		Expect(uploader.calls).To(BeEmpty())
	})

	It("keeps the record when the store write fails", func() {
		w := upload.NewWorkflow(uploader, failingStorer{inmemory.NewDriver()}, zap.NewNop())

		results := w.Run(ctx, []upload.File{{Name: "a.png", Data: pngBytes()}})
		Expect(results[0].Err).NotTo(HaveOccurred())
		Expect(results[0].Record).NotTo(BeNil())
		Expect(results[0].StoreErr).To(MatchError("disk full"))
		Expect(results[0].OK()).To(BeFalse())
	})

	It("stops starting new files once the context is cancelled", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		w := upload.NewWorkflow(uploader, store, zap.NewNop())

		results := w.Run(cctx, []upload.File{{Name: "a.png", Data: pngBytes()}})
		Expect(results[0].Err).To(MatchError(context.Canceled))
		Expect(uploader.calls).To(BeEmpty())
	})

	It("notifies the observer as each file starts and finishes", func() {
		uploader.failFor["bad.png"] = &imgur.StatusError{StatusCode: 404}
		obs := &recordingObserver{}
		w := upload.NewWorkflow(uploader, store, zap.NewNop(), upload.WithObserver(obs))

		w.Run(ctx, []upload.File{
			{Name: "bad.png", Data: pngBytes()},
			{Name: "good.png", Data: pngBytes()},
		})

		Expect(obs.events).To(Equal([]string{
			"start bad.png", "done bad.png ok=false",
			"start good.png", "done good.png ok=true",
		}))
	})

	It("reports files skipped after cancellation as finished", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		obs := &recordingObserver{}
		w := upload.NewWorkflow(uploader, store, zap.NewNop(), upload.WithObserver(obs))

		w.Run(cctx, []upload.File{{Name: "a.png", Data: pngBytes()}})
		Expect(obs.events).To(Equal([]string{"done a.png ok=false"}))
	})

	Context("against an image host and a JSON file store", func() {
		var (
			server *httptest.Server
			status int
			path   string
		)

		BeforeEach(func() {
			status = http.StatusOK
			path = filepath.Join(GinkgoT().TempDir(), "public_url.json")
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if status != http.StatusOK {
					w.WriteHeader(status)
					return
				}
				title := r.FormValue("title")
				fmt.Fprintf(w, `{"data":{"id":"h-%s","title":%q,"type":"image/png","width":3,"height":2,"size":70,"deletehash":"dh","link":"https://i.imgur.com/%s.png"},"success":true,"status":200}`, title, title, title)
			}))
		})

		AfterEach(func() {
			server.Close()
		})

		newWorkflow := func() *upload.Workflow {
			client := imgur.New(imgur.Config{ClientID: "cid", BaseURL: server.URL}, zap.NewNop())
			return upload.NewWorkflow(client, jsonfile.NewDriver(path, zap.NewNop()), zap.NewNop(), upload.WithIDGenerator(sequentialIDs()))
		}

		It("writes both sequential uploads as separate keys", func() {
			results := newWorkflow().Run(ctx, []upload.File{{Name: "a.png", Data: pngBytes()}, {Name: "b.png", Data: pngBytes()}})
			Expect(results[0].OK()).To(BeTrue())
			Expect(results[1].OK()).To(BeTrue())

			raw, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			var data map[string]map[string]string
			Expect(json.Unmarshal(raw, &data)).To(Succeed())
			Expect(data).To(Equal(map[string]map[string]string{
				"id-1": {"link": "https://i.imgur.com/id-1.png"},
				"id-2": {"link": "https://i.imgur.com/id-2.png"},
			}))
		})

		It("does not touch the store when the host answers 404", func() {
			status = http.StatusNotFound

			results := newWorkflow().Run(ctx, []upload.File{{Name: "a.png", Data: pngBytes()}})
			Expect(results[0].Record).To(BeNil())

			var statusErr *imgur.StatusError
			Expect(errors.As(results[0].Err, &statusErr)).To(BeTrue())
			Expect(statusErr.StatusCode).To(Equal(http.StatusNotFound))

			_, err := os.Stat(path)
			Expect(os.IsNotExist(err)).To(BeTrue())
		})
	})
})
