package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"glucotrack/internal/model"
)

// DefaultBaseURL is the public Generative Language endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

const (
	DefaultModel = "gemini-2.5-flash"

	maxBodyBytes = 1 << 20
)

var (
	ErrNoAPIKey      = errors.New("gemini api key not set")
	ErrEmptyResponse = errors.New("gemini returned no text")
)

// Gemini calls generateContent with a JSON response schema. It returns
// errors as-is; wrap it in Supportive to get fallback text instead.
type Gemini struct {
	BaseURL string
	Model   string
	apiKey  string
	client  *http.Client
}

func NewGemini(apiKey, modelName string, timeout time.Duration) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Gemini{
		BaseURL: DefaultBaseURL,
		Model:   modelName,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type schema struct {
	Type       string            `json:"type"`
	Items      *schema           `json:"items,omitempty"`
	Properties map[string]schema `json:"properties,omitempty"`
	Required   []string          `json:"required,omitempty"`
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content `json:"contents"`
	GenerationConfig struct {
		ResponseMimeType string  `json:"responseMimeType"`
		ResponseSchema   *schema `json:"responseSchema"`
	} `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GenerateCopy asks for five supportive reminder texts for label.
func (g *Gemini) GenerateCopy(ctx context.Context, label model.RoutineLabel) ([]string, error) {
	prompt := fmt.Sprintf(`Generate 5 variations of supportive, non-judgmental notification text for a blood glucose reading for the routine time: %q.
Avoid words like 'forgot', 'failed', or 'required'. Use warm, clinical-yet-caring tone.
Examples: 'Time for your post-lunch check', 'Let's see how your body is feeling after breakfast'.`, label)

	text, err := g.generate(ctx, prompt, &schema{Type: "ARRAY", Items: &schema{Type: "STRING"}})
	if err != nil {
		return nil, err
	}
	var out []string
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("parsing copy JSON (%s): %w", truncate(text, 200), err)
	}
	return out, nil
}

// GenerateInsight asks for a short supportive review of the summary.
func (g *Gemini) GenerateInsight(ctx context.Context, s model.WeeklySummary) (model.Insight, error) {
	prompt := fmt.Sprintf(`Analyze these blood glucose stats for a patient's weekly review:
- Time in Range: %d%%
- Average Reading: %d mg/dL
- Logs Completed: %d

Provide a 2-sentence supportive summary and one specific non-medical piece of encouragement.`,
		s.TimeInRange, s.Average, s.TotalLogs)

	text, err := g.generate(ctx, prompt, &schema{
		Type: "OBJECT",
		Properties: map[string]schema{
			"summary":       {Type: "STRING"},
			"encouragement": {Type: "STRING"},
		},
		Required: []string{"summary", "encouragement"},
	})
	if err != nil {
		return model.Insight{}, err
	}
	var out model.Insight
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return model.Insight{}, fmt.Errorf("parsing insight JSON (%s): %w", truncate(text, 200), err)
	}
	return out, nil
}

func (g *Gemini) generate(ctx context.Context, prompt string, responseSchema *schema) (string, error) {
	var body generateRequest
	body.Contents = []content{{Role: "user", Parts: []part{{Text: prompt}}}}
	body.GenerationConfig.ResponseMimeType = "application/json"
	body.GenerationConfig.ResponseSchema = responseSchema

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(g.BaseURL, "/"), g.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}
	respStr := string(respBytes)

	var gr generateResponse
	if err := json.Unmarshal(respBytes, &gr); err != nil {
		return "", fmt.Errorf("parsing response JSON (HTTP %d, body: %s): %w", resp.StatusCode, truncate(respStr, 200), err)
	}
	if resp.StatusCode != http.StatusOK {
		if gr.Error != nil {
			return "", fmt.Errorf("gemini: %s: %s", gr.Error.Status, gr.Error.Message)
		}
		return "", fmt.Errorf("gemini: HTTP %d: %s", resp.StatusCode, truncate(respStr, 200))
	}

	var text strings.Builder
	for _, c := range gr.Candidates {
		for _, p := range c.Content.Parts {
			text.WriteString(p.Text)
		}
		if text.Len() > 0 {
			break
		}
	}
	if text.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return text.String(), nil
}

// truncate limits a string to maxLen runes, appending "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
