package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/foxseedlab/hatsuon/internal/webhook"
)

const (
	sendTimeout        = 10 * time.Second
	eventRunFinished   = "run.finished"
	errorBodySnippet   = 512
	headerEvent        = "X-Hatsuon-Event"
	headerDeliveryID   = "X-Hatsuon-Delivery"
	webhookContentType = "application/json"
)

// RunNotifier posts one JSON document per finished conversion run.
type RunNotifier struct {
	endpoint string
	client   *http.Client
}

// NewRunNotifier returns a sender that does nothing when endpoint is empty.
func NewRunNotifier(endpoint string) webhook.Sender {
	return &RunNotifier{
		endpoint: strings.TrimSpace(endpoint),
		client:   &http.Client{Timeout: sendTimeout},
	}
}

func (n *RunNotifier) SendRun(ctx context.Context, payload webhook.RunWebhookPayload) error {
	if n.endpoint == "" {
		return nil
	}

	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(payload); err != nil {
		return fmt.Errorf("encode run %s: %w", payload.RunID, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, &body)
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", webhookContentType)
	req.Header.Set(headerEvent, eventRunFinished)
	req.Header.Set(headerDeliveryID, payload.RunID)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver run %s: %w", payload.RunID, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodySnippet))
		return fmt.Errorf("run webhook answered %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}
