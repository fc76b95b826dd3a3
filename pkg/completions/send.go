package completions

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/papercomputeco/lmstream/pkg/decode"
	"github.com/papercomputeco/lmstream/pkg/llm"
)

// maxErrorBody caps how much of a failed response body is read.
const maxErrorBody = 64 * 1024

// Send trims the conversation to the token budget, sends the request and
// returns the stream of normalized chunks.
//
// Trimming mutates Messages and TokensCount. Send fails with
// llm.ErrIncorrectContext, before any network call, when the trimmed
// conversation does not end on a user turn. A non-2xx answer is returned as
// an *llm.APIError.
func (r *Request) Send(ctx context.Context) (*Stream, error) {
	if err := r.trim(); err != nil {
		return nil, err
	}

	body, err := r.compose()
	if err != nil {
		return nil, err
	}

	url := r.Provider.CompletionsURL(r.Server)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	httpReq.Header = r.headers()

	r.logger.Debug("sending completions request",
		zap.String("provider", string(r.Provider)),
		zap.String("url", url),
		zap.String("model", r.Model),
		zap.Int("message_count", len(r.Messages)),
		zap.Int("tokens", r.TokensCount),
		zap.Int("body_size", len(body)),
	)

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg, _ := llm.ErrorMessage(raw)

		r.logger.Error("provider returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(string(raw), 200)),
		)
		return nil, &llm.APIError{StatusCode: resp.StatusCode, Message: msg, Raw: raw}
	}

	return Open(resp.Body, decode.New(r.Provider.Family(), r.logger), r.DonePolicy, r.logger), nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
