// Package dispatch opens one streaming webhook call per question and folds
// the response body into cumulative content updates.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Query is the webhook request body. Field names match the AI backend contract.
type Query struct {
	Question       string   `json:"question"`
	CompanyId      string   `json:"company_id"`
	SelectedDocIds []string `json:"selected_doc_ids"`
}

// Update is one step of a dispatch stream. Content always carries the
// CUMULATIVE answer text so far, never a delta. Exactly one terminal update
// is emitted: Done on success, Err on failure. The channel is closed after it.
type Update struct {
	Content string
	Done    bool
	Err     error
}

// Dispatcher turns one question into one streamed answer.
type Dispatcher interface {
	Dispatch(ctx context.Context, query Query) <-chan Update
}

const (
	// DefaultTimeout bounds a whole dispatch, including streaming. The
	// pending assistant message resolves to failed instead of hanging.
	DefaultTimeout = 120 * time.Second

	readChunkSize = 4 * 1024
)

// WebhookDispatcher posts questions to the configured AI webhook and consumes
// the response as an incremental text stream.
type WebhookDispatcher struct {
	webhookURL string
	client     *http.Client
	timeout    time.Duration
}

var _ Dispatcher = &WebhookDispatcher{}

func NewWebhookDispatcher(webhookURL string, timeout time.Duration) *WebhookDispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &WebhookDispatcher{
		webhookURL: webhookURL,
		// No client-level timeout: the per-dispatch context bounds the
		// whole call, streaming reads included.
		client:  &http.Client{},
		timeout: timeout,
	}
}

// Dispatch opens the webhook call and returns the update stream. Updates are
// emitted in arrival order; cancellation of ctx or the bounded timeout
// terminates the stream with Err.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, query Query) <-chan Update {
	updates := make(chan Update, 1)

	go func() {
		defer close(updates)

		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		payload, err := json.Marshal(query)
		if err != nil {
			updates <- Update{Err: fmt.Errorf("marshal query: %w", err)}
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(payload))
		if err != nil {
			updates <- Update{Err: fmt.Errorf("create request: %w", err)}
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := d.client.Do(req)
		if err != nil {
			updates <- Update{Err: fmt.Errorf("webhook request failed: %w", err)}
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			updates <- Update{Err: fmt.Errorf("webhook error: status %d, body: %s", resp.StatusCode, string(body))}
			return
		}

		var acc strings.Builder
		buf := make([]byte, readChunkSize)
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
				acc.Write(buf[:n])
				updates <- Update{Content: acc.String()}
			}
			if err == io.EOF {
				updates <- Update{Content: acc.String(), Done: true}
				return
			}
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					err = ctxErr
				}
				updates <- Update{Err: fmt.Errorf("stream read failed: %w", err)}
				return
			}
		}
	}()

	return updates
}
