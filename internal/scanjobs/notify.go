package scanjobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/classgraph/classgraph/pkg/config"
	"github.com/classgraph/classgraph/pkg/model"
	"github.com/classgraph/classgraph/pkg/utils"
)

// Notifier posts a scan job's completion (or failure) to the webhook URL
// named in pkg/config.NotifyConfig, the scan-domain analogue of the
// teacher's result-upload callback.
type Notifier struct {
	cfg    config.NotifyConfig
	client *http.Client
	logger utils.Logger
}

// NewNotifier creates a Notifier. A disabled or empty-URL config makes
// NotifyCompletion a no-op.
func NewNotifier(cfg config.NotifyConfig, logger utils.Logger) *Notifier {
	if logger == nil {
		logger = &utils.NullLogger{}
	}
	return &Notifier{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// completionPayload is the JSON body posted to the webhook.
type completionPayload struct {
	JobUUID string           `json:"job_uuid"`
	Result  *model.ScanResult `json:"result,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// NotifyCompletion posts result to the webhook, including scanErr's
// message when the job failed. Delivery failures are logged, never
// returned: a webhook outage must not fail an otherwise-successful scan.
func (n *Notifier) NotifyCompletion(ctx context.Context, result *model.ScanResult, scanErr error) {
	if !n.cfg.Enabled || n.cfg.URL == "" {
		return
	}

	payload := completionPayload{JobUUID: result.JobUUID, Result: result}
	if scanErr != nil {
		payload.Error = scanErr.Error()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("marshal webhook payload for job %s: %v", result.JobUUID, err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.URL, bytes.NewReader(body))
	if err != nil {
		n.logger.Error("build webhook request for job %s: %v", result.JobUUID, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("webhook delivery failed for job %s: %v", result.JobUUID, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.logger.Warn("webhook for job %s returned %s", result.JobUUID, fmt.Sprintf("%d %s", resp.StatusCode, resp.Status))
	}
}
