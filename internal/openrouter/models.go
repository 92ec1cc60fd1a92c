package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

// ModelInfo represents information about an available model
type ModelInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ContextLength int    `json:"context_length"`
}

// ListModelsResponse represents the response from listing models
type ListModelsResponse struct {
	Data []ModelInfo `json:"data"`
}

// ModelSelector handles model selection logic
type ModelSelector struct {
	client *Client
}

// NewModelSelector creates a new model selector
func NewModelSelector(client *Client) *ModelSelector {
	return &ModelSelector{client: client}
}

// ListModels lists the models the endpoint offers
func (ms *ModelSelector) ListModels(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ms.client.cfg.BaseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	ms.client.setHeaders(req)

	resp, err := ms.client.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil {
			apiErr.Message = eb.Error.Message
		}
		return nil, apiErr
	}

	var result ListModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Data, nil
}

// priorityModels are preferred for tutoring, best first.
var priorityModels = []string{
	"google/gemini-2.0-flash",
	"anthropic/claude",
	"openai/gpt-4o",
	"meta-llama/llama-3.3",
	"mistralai/mistral",
}

// SelectBestModel picks the first available model from the priority
// list, falling back to the one with the largest context window.
func (ms *ModelSelector) SelectBestModel(ctx context.Context) (string, error) {
	models, err := ms.ListModels(ctx)
	if err != nil {
		return "", err
	}
	return Recommend(models, "")
}

func selectBest(models []ModelInfo) (string, error) {
	if len(models) == 0 {
		return "", fmt.Errorf("no models available")
	}

	for _, priority := range priorityModels {
		for _, model := range models {
			if strings.HasPrefix(strings.ToLower(model.ID), priority) {
				return model.ID, nil
			}
		}
	}

	sorted := make([]ModelInfo, len(models))
	copy(sorted, models)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ContextLength > sorted[j].ContextLength
	})
	return sorted[0].ID, nil
}

// Recommend returns preferred if models offers it, otherwise the best
// available model.
func Recommend(models []ModelInfo, preferred string) (string, error) {
	if preferred != "" {
		for _, model := range models {
			if model.ID == preferred {
				return preferred, nil
			}
		}
	}
	return selectBest(models)
}
