package logger_test

import (
	"bytes"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/lookbook/pkg/logger"
)

var _ = Describe("New", func() {
	It("writes JSON lines when the json format is selected", func() {
		var buf bytes.Buffer
		log := logger.New(logger.Options{Format: "json", Output: &buf})

		log.Info("uploaded", zap.String("id", "abc"))
		Expect(log.Sync()).To(Succeed())

		var line map[string]any
		Expect(json.Unmarshal(buf.Bytes(), &line)).To(Succeed())
		Expect(line["msg"]).To(Equal("uploaded"))
		Expect(line["id"]).To(Equal("abc"))
		Expect(line["level"]).To(Equal("info"))
	})

	It("drops debug entries unless debug is enabled", func() {
		var buf bytes.Buffer
		log := logger.New(logger.Options{Output: &buf})
		log.Debug("hidden")
		Expect(buf.String()).To(BeEmpty())

		buf.Reset()
		log = logger.New(logger.Options{Debug: true, Output: &buf})
		log.Debug("shown")
		Expect(buf.String()).To(ContainSubstring("shown"))
	})
})
