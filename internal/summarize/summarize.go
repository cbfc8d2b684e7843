// Package summarize calls the optional text-analysis service that produces
// a short summary, action, and urgency for selected items. It is strictly
// best-effort: any failure leaves the classifier's baseline labels intact.
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/brieflab/mailbrief/internal/types"
)

// Analysis criteria deciding which items are worth a service call.
const (
	CriteriaFlaggedHigh  = "flagged_high"
	CriteriaTopPriority  = "top_priority"
	CriteriaFlaggedOrVIP = "flagged_or_vip"
	CriteriaAll          = "all"
)

// Request is the summarization service input for one item.
type Request struct {
	SenderName  string `json:"sender_name"`
	SenderEmail string `json:"sender_email"`
	Subject     string `json:"subject"`
	BodyPreview string `json:"body_preview"`
	Importance  string `json:"importance"`
	Flagged     bool   `json:"flagged"`
}

// Result is the service output: a summary of at most 15 words, an action of
// at most 8 words, and an urgency of Critical, High, or Medium.
type Result struct {
	Summary string `json:"summary"`
	Action  string `json:"recommended_action"`
	Urgency string `json:"urgency"`
}

// Client talks to the summarization service over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	criteria   string
	httpClient *http.Client
	log        *zap.Logger
}

// New builds a Client. apiKeyEnv names the environment variable holding the
// service key; an empty variable disables authentication, not the client.
func New(baseURL, apiKeyEnv, criteria string, log *zap.Logger) *Client {
	if criteria == "" {
		criteria = CriteriaFlaggedHigh
	}
	return &Client{
		baseURL:  baseURL,
		apiKey:   os.Getenv(apiKeyEnv),
		criteria: criteria,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

// ShouldAnalyze applies the configured criteria gate to one item.
func (c *Client) ShouldAnalyze(item *types.MailItem) bool {
	if item.IsError() {
		return false
	}
	switch c.criteria {
	case CriteriaFlaggedHigh:
		return item.IsFlagged && item.Importance == types.ImportanceHigh
	case CriteriaTopPriority:
		return item.IsFlagged
	case CriteriaFlaggedOrVIP:
		return item.IsFlagged || item.IsVIPSender
	case CriteriaAll:
		return true
	}
	return false
}

// Analyze requests a summary for one item.
func (c *Client) Analyze(ctx context.Context, item *types.MailItem) (*Result, error) {
	req := Request{
		SenderName:  item.SenderName,
		SenderEmail: item.SenderEmail,
		Subject:     item.Subject,
		BodyPreview: item.BodyPreview,
		Importance:  importanceLabel(item.Importance),
		Flagged:     item.IsFlagged,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analysis service status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode analysis response: %w", err)
	}
	return &result, nil
}

// Apply analyzes eligible items in place. A successful result fills the AI
// summary and overwrites the recommended action; failures log and skip the
// item, leaving its classifier baseline untouched.
func (c *Client) Apply(ctx context.Context, items []types.MailItem) int {
	analyzed := 0
	for i := range items {
		if !c.ShouldAnalyze(&items[i]) {
			continue
		}
		result, err := c.Analyze(ctx, &items[i])
		if err != nil {
			c.log.Warn("summarization skipped",
				zap.String("entry_id", items[i].EntryID),
				zap.Error(err))
			continue
		}
		items[i].Derived.AISummary = result.Summary
		if result.Action != "" {
			items[i].Derived.RecommendedAction = result.Action
		}
		analyzed++
	}
	c.log.Info("summarization complete", zap.Int("analyzed", analyzed))
	return analyzed
}

func importanceLabel(importance int) string {
	switch importance {
	case types.ImportanceHigh:
		return "High"
	case types.ImportanceLow:
		return "Low"
	default:
		return "Normal"
	}
}
