package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// WatsonxAdapter implements ports.LLMService against the IBM Watsonx
// text-generation REST API.
type WatsonxAdapter struct {
	url       string
	apiKey    string
	projectID string
	model     string
	client    *http.Client
}

// NewWatsonxAdapter creates a Watsonx adapter. Credentials are required at
// construction so a misconfigured deployment fails at startup, not on the
// first farmer query.
func NewWatsonxAdapter(url, apiKey, projectID, model string) (*WatsonxAdapter, error) {
	if apiKey == "" || projectID == "" {
		return nil, fmt.Errorf("watsonx adapter: API key and project ID are required")
	}
	if url == "" {
		url = "https://us-south.ml.cloud.ibm.com/ml/v1/text/generation"
	}
	if model == "" {
		model = "ibm/granite-3-8b-instruct"
	}
	// The generation endpoint requires an API version.
	if !strings.Contains(url, "version=") {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url += sep + "version=2024-05-31"
	}
	return &WatsonxAdapter{
		url:       url,
		apiKey:    apiKey,
		projectID: projectID,
		model:     model,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// watsonxRequest is the text-generation request payload.
type watsonxRequest struct {
	ModelID    string         `json:"model_id"`
	Input      string         `json:"input"`
	Parameters map[string]any `json:"parameters"`
	ProjectID  string         `json:"project_id"`
}

// watsonxResponse is the text-generation response payload.
type watsonxResponse struct {
	Results []struct {
		GeneratedText string `json:"generated_text"`
	} `json:"results"`
}

// Generate produces a response for the prompt.
func (a *WatsonxAdapter) Generate(ctx context.Context, prompt string) (string, error) {
	payload := watsonxRequest{
		ModelID: a.model,
		Input:   prompt,
		Parameters: map[string]any{
			"max_new_tokens":  512,
			"temperature":     0.2,
			"decoding_method": "greedy",
		},
		ProjectID: a.projectID,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling Watsonx: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Watsonx returned status %d", resp.StatusCode)
	}

	var genResp watsonxResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(genResp.Results) == 0 {
		return "", fmt.Errorf("Watsonx returned no results")
	}
	return strings.TrimSpace(genResp.Results[0].GeneratedText), nil
}
