package completion_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/lookbook/pkg/completion"
	"github.com/papercomputeco/lookbook/pkg/llm"
	"github.com/papercomputeco/lookbook/pkg/prompt"
)

const okResponse = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "gpt-4o",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": "Pair it with white sneakers."}, "finish_reason": "stop"}],
	"usage": {"prompt_tokens": 10, "completion_tokens": 6, "total_tokens": 16}
}`

var _ = Describe("Client", func() {
	var (
		ctx      context.Context
		server   *httptest.Server
		received map[string]any
		header   http.Header
		status   int
		reply    string
	)

	newClient := func(apiKey string) *completion.Client {
		return completion.New(completion.Config{
			APIKey:  apiKey,
			Model:   "gpt-4o",
			BaseURL: server.URL + "/v1/",
		}, zap.NewNop())
	}

	BeforeEach(func() {
		ctx = context.Background()
		received = nil
		status = http.StatusOK
		reply = okResponse

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(r.URL.Path).To(Equal("/v1/chat/completions"))
			header = r.Header.Clone()

			body, err := io.ReadAll(r.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(json.Unmarshal(body, &received)).To(Succeed())

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(reply))
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("sends the configured model, composed messages and a 0.1 temperature", func() {
		client := newClient("sk-test")

		resp, err := client.Generate(ctx, completion.Request{
			SystemPrompt: "You are a stylist.",
			UserPrompt:   "items_list",
			Variables:    prompt.Vars("items_list", "red dress"),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Text()).To(Equal("Pair it with white sneakers."))
		Expect(resp.Usage.TotalTokens).To(Equal(16))

		Expect(header.Get("Authorization")).To(Equal("Bearer sk-test"))
		Expect(received["model"]).To(Equal("gpt-4o"))
		Expect(received["temperature"]).To(BeNumerically("~", 0.1))
		Expect(received).NotTo(HaveKey("response_format"))

		messages := received["messages"].([]any)
		Expect(messages).To(HaveLen(2))
		Expect(messages[1].(map[string]any)["content"]).To(Equal("red dress"))
	})

	It("sends an image part with the high detail hint", func() {
		client := newClient("sk-test")

		_, err := client.Generate(ctx, completion.Request{
			SystemPrompt: "sys",
			UserPrompt:   "what is this?",
			ImageURL:     "https://i.imgur.com/eAfpeBY.jpeg",
		})
		Expect(err).NotTo(HaveOccurred())

		user := received["messages"].([]any)[1].(map[string]any)
		parts := user["content"].([]any)
		Expect(parts).To(HaveLen(2))
		image := parts[1].(map[string]any)["image_url"].(map[string]any)
		Expect(image["url"]).To(Equal("https://i.imgur.com/eAfpeBY.jpeg"))
		Expect(image["detail"]).To(Equal("high"))
	})

	It("applies explicit overrides only", func() {
		client := newClient("sk-test")
		temp := 0.7

		_, err := client.Generate(ctx, completion.Request{
			SystemPrompt: "sys",
			UserPrompt:   "hi",
			Options: &llm.Options{
				Model:          "gpt-4o-mini",
				Temperature:    &temp,
				ResponseFormat: &llm.ResponseFormat{Type: "json_object"},
			},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(received["model"]).To(Equal("gpt-4o-mini"))
		Expect(received["temperature"]).To(BeNumerically("~", 0.7))
		Expect(received["response_format"]).To(Equal(map[string]any{"type": "json_object"}))
		Expect(received).NotTo(HaveKey("max_tokens"))
	})

	It("returns an APIError carrying the provider message", func() {
		status = http.StatusUnauthorized
		reply = `{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`
		client := newClient("sk-bad")

		resp, err := client.Generate(ctx, completion.Request{SystemPrompt: "sys", UserPrompt: "hi"})
		Expect(resp).To(BeNil())

		var apiErr *completion.APIError
		Expect(errors.As(err, &apiErr)).To(BeTrue())
		Expect(apiErr.StatusCode).To(Equal(http.StatusUnauthorized))
		Expect(apiErr.Message).To(Equal("Incorrect API key provided"))
	})

	It("fails without contacting the provider when the key is missing", func() {
		client := newClient("")

		_, err := client.Generate(ctx, completion.Request{SystemPrompt: "sys", UserPrompt: "hi"})
		Expect(err).To(MatchError(completion.ErrMissingAPIKey))
		Expect(received).To(BeNil())
	})

	It("surfaces composition failures as errors", func() {
		client := newClient("sk-test")

		_, err := client.Generate(ctx, completion.Request{SystemPrompt: "sys", UserPrompt: "hi", ImageURL: "nope"})
		Expect(err).To(MatchError(prompt.ErrInvalidImageURL))
		Expect(err).To(MatchError(completion.ErrCompose))
		Expect(received).To(BeNil())
	})

	It("keeps provider fields it does not model when re-encoded", func() {
		reply = `{
			"id": "chatcmpl-2",
			"object": "chat.completion",
			"model": "gpt-4o",
			"system_fingerprint": "fp_abc",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "hi", "refusal": null}, "logprobs": null, "finish_reason": "stop"}]
		}`
		client := newClient("sk-test")

		resp, err := client.Generate(ctx, completion.Request{SystemPrompt: "sys", UserPrompt: "hi"})
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Text()).To(Equal("hi"))

		out, err := json.Marshal(resp)
		Expect(err).NotTo(HaveOccurred())

		var decoded map[string]any
		Expect(json.Unmarshal(out, &decoded)).To(Succeed())
		Expect(decoded["system_fingerprint"]).To(Equal("fp_abc"))
		choice := decoded["choices"].([]any)[0].(map[string]any)
		Expect(choice).To(HaveKey("logprobs"))
		Expect(choice["message"].(map[string]any)).To(HaveKey("refusal"))
	})

	It("fails on a malformed response body", func() {
		reply = `not json`
		client := newClient("sk-test")

		_, err := client.Generate(ctx, completion.Request{SystemPrompt: "sys", UserPrompt: "hi"})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("unmarshal response"))
	})
})
