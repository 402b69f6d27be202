package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/candidai/interview-gateway/internal/model"
	"github.com/candidai/interview-gateway/internal/resilience"
)

// DefaultBaseURL is the default Gemini API endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Client calls the Gemini generateContent API: streamed suggestion and
// practice turns over SSE, non-streamed summary and company briefing calls.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	briefings  *gocache.Cache
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (used by tests).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(url, "/") }
}

// WithModel overrides the generation model.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCircuitBreaker overrides the breaker guarding backend calls.
func WithCircuitBreaker(cb *resilience.CircuitBreaker) Option {
	return func(c *Client) { c.breaker = cb }
}

// WithBriefingTTL sets how long company briefings are memoized.
func WithBriefingTTL(ttl time.Duration) Option {
	return func(c *Client) { c.briefings = gocache.New(ttl, 10*time.Minute) }
}

// NewClient creates a Gemini client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		httpClient: &http.Client{},
		breaker:    resilience.NewCircuitBreaker("gemini", 5, 30*time.Second),
		briefings:  gocache.New(time.Hour, 10*time.Minute),
		logger:     log.With().Str("component", "llm").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StreamCopilot requests talking points plus an example answer for one
// transcribed interviewer question. The prior conversation is replayed as
// chat history so follow-up questions keep their context.
func (c *Client) StreamCopilot(ctx context.Context, sc SessionContext, question string, conversation []model.ConversationItem) (*Stream, error) {
	req := geminiRequest{
		SystemInstruction: systemInstruction(copilotSystemInstruction(sc)),
		Contents: append(
			HistoryFromConversation(conversation, model.ModeCopilot, sc.Lang),
			textContent("user", copilotUserMessage(question, sc.Lang)),
		),
		GenerationConfig: noThinking(),
	}
	return c.doStream(ctx, req)
}

// StreamPractice requests the next practice turn. With an empty latestAnswer
// the model asks its opening question; otherwise it returns feedback, a
// rating, and the next question.
func (c *Client) StreamPractice(ctx context.Context, sc SessionContext, conversation []model.ConversationItem, latestAnswer string) (*Stream, error) {
	req := geminiRequest{
		SystemInstruction: systemInstruction(practiceSystemInstruction(sc)),
		Contents: append(
			HistoryFromConversation(conversation, model.ModePractice, sc.Lang),
			textContent("user", practiceUserMessage(latestAnswer, sc.Lang)),
		),
		GenerationConfig: noThinking(),
	}
	return c.doStream(ctx, req)
}

// StreamExampleAnswer requests a model answer for a practice question.
func (c *Client) StreamExampleAnswer(ctx context.Context, sc SessionContext, question string) (*Stream, error) {
	req := geminiRequest{
		SystemInstruction: systemInstruction(exampleAnswerSystemInstruction(sc)),
		Contents:          []geminiContent{textContent("user", exampleAnswerUserMessage(question, sc.Lang))},
		GenerationConfig:  noThinking(),
	}
	return c.doStream(ctx, req)
}

// Summary evaluates the whole conversation log and returns the final
// performance review as markdown.
func (c *Client) Summary(ctx context.Context, sc SessionContext, mode model.Mode, conversation []model.ConversationItem) (string, error) {
	schema := json.RawMessage(`{"type":"OBJECT","properties":{"summary":{"type":"STRING"}}}`)
	req := geminiRequest{
		Contents: []geminiContent{textContent("user", summaryPrompt(sc, mode, conversation))},
		GenerationConfig: &geminiGenConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   schema,
		},
	}

	resp, err := c.doGenerate(ctx, req)
	if err != nil {
		return "", err
	}

	text := stripJSONFence(resp.candidateText())
	var parsed struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return "", fmt.Errorf("failed to parse summary response: %w", err)
	}
	return parsed.Summary, nil
}

// Source is a web reference the briefing was grounded on.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Briefing is a pre-interview company research report.
type Briefing struct {
	Report  string   `json:"briefing"`
	Sources []Source `json:"sources"`
}

// CompanyBriefing builds a research report for the target company using
// search grounding. Results are memoized per company and language.
func (c *Client) CompanyBriefing(ctx context.Context, companyName, lang string) (*Briefing, error) {
	cacheKey := companyName + "|" + lang
	if cached, ok := c.briefings.Get(cacheKey); ok {
		return cached.(*Briefing), nil
	}

	req := geminiRequest{
		Contents: []geminiContent{textContent("user", briefingPrompt(companyName, lang))},
		Tools:    []geminiTool{{GoogleSearch: &geminiGoogleSearch{}}},
	}

	resp, err := c.doGenerate(ctx, req)
	if err != nil {
		return nil, err
	}

	briefing := &Briefing{
		Report:  resp.candidateText(),
		Sources: extractSources(resp),
	}
	c.briefings.SetDefault(cacheKey, briefing)
	return briefing, nil
}

// extractSources deduplicates grounding sources by URI, keeping order.
func extractSources(resp *geminiResponse) []Source {
	sources := []Source{}
	if len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return sources
	}
	seen := make(map[string]bool)
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk.Web == nil || chunk.Web.URI == "" || chunk.Web.Title == "" {
			continue
		}
		if seen[chunk.Web.URI] {
			continue
		}
		seen[chunk.Web.URI] = true
		sources = append(sources, Source{URI: chunk.Web.URI, Title: chunk.Web.Title})
	}
	return sources
}

func (c *Client) doStream(ctx context.Context, req geminiRequest) (*Stream, error) {
	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", c.baseURL, c.model)

	var resp *http.Response
	err := c.breaker.Call(func() error {
		r, err := c.do(ctx, url, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newStream(resp.Body), nil
}

func (c *Client) doGenerate(ctx context.Context, req geminiRequest) (*geminiResponse, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)

	var parsed geminiResponse
	err := c.breaker.Call(func() error {
		resp, err := c.do(ctx, url, req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		return json.NewDecoder(resp.Body).Decode(&parsed)
	})
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// do issues one request. Non-2xx responses become an *APIError.
func (c *Client) do(ctx context.Context, url string, req geminiRequest) (*http.Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		apiErr := parseError(resp)
		c.logger.Warn().Err(apiErr).Str("url", url).Msg("Gemini API call failed")
		return nil, apiErr
	}
	return resp, nil
}

func stripJSONFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
