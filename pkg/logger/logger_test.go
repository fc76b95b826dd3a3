package logger_test

import (
	"bytes"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/lmstream/pkg/logger"
)

var _ = Describe("Logger", func() {
	It("writes JSON lines with fields", func() {
		var buf bytes.Buffer
		log := logger.New(&buf, logger.FormatJSON, false)

		log.Info("stream complete", zap.Int("chunks", 3))
		Expect(log.Sync()).To(Succeed())

		var line map[string]any
		Expect(json.Unmarshal(buf.Bytes(), &line)).To(Succeed())
		Expect(line["msg"]).To(Equal("stream complete"))
		Expect(line["level"]).To(Equal("info"))
		Expect(line["chunks"]).To(BeNumerically("==", 3))
		Expect(line).To(HaveKey("time"))
	})

	It("drops debug lines unless debugging", func() {
		var quiet, verbose bytes.Buffer
		logger.New(&quiet, logger.FormatConsole, false).Debug("hidden")
		logger.New(&verbose, logger.FormatConsole, true).Debug("shown")

		Expect(quiet.String()).To(BeEmpty())
		Expect(verbose.String()).To(ContainSubstring("shown"))
	})

	It("parses formats", func() {
		Expect(logger.ParseFormat("")).To(Equal(logger.FormatConsole))
		Expect(logger.ParseFormat("json")).To(Equal(logger.FormatJSON))

		_, err := logger.ParseFormat("xml")
		Expect(err).To(HaveOccurred())
	})
})
