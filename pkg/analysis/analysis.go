// Package analysis inspects listing photos for condition, brand and
// authenticity signals.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var ErrNoImage = errors.New("item has no images to analyze")

type Result struct {
	Condition         string   `json:"condition"`
	Brand             string   `json:"brand"`
	Fabric            string   `json:"fabric,omitempty"`
	Defects           []string `json:"defects"`
	AuthenticityScore float64  `json:"authenticity_score"`
	Verified          bool     `json:"verified"`
	AnalyzedAt        string   `json:"analyzed_at"`
}

type Analyzer interface {
	Analyze(ctx context.Context, imageURL string) (*Result, error)
}

// Unverified is the result recorded when no analysis could be obtained.
func Unverified() *Result {
	return &Result{
		Condition:  "Unknown",
		Brand:      "Unknown",
		Defects:    []string{},
		Verified:   false,
		AnalyzedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// HTTPAnalyzer posts {"image_url": ...} to an analysis service and expects
// a Result back.
type HTTPAnalyzer struct {
	endpoint string
	client   *http.Client
}

func NewHTTPAnalyzer(endpoint string, timeout time.Duration) *HTTPAnalyzer {
	return &HTTPAnalyzer{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (a *HTTPAnalyzer) Analyze(ctx context.Context, imageURL string) (*Result, error) {
	body, err := json.Marshal(map[string]string{"image_url": imageURL})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build analysis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call analysis service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("analysis service returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode analysis result: %w", err)
	}
	if result.Defects == nil {
		result.Defects = []string{}
	}
	if result.AnalyzedAt == "" {
		result.AnalyzedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return &result, nil
}
