package mlmodel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/medcamp/medcamp/internal/platform/metrics"
)

const (
	DefaultBaseURL          = "https://api-inference.huggingface.co"
	DefaultChatbotModel     = "gpt2"
	DefaultTranslationModel = "facebook/nllb-200-distilled-600M"

	defaultTimeout      = 30 * time.Second
	defaultMaxNewTokens = 150

	// Rough proxy for the context window of small hosted models; prompts
	// beyond this are rejected before spending an API call.
	maxPromptBytes = 4096

	maxResponseBytes = 1 << 20
)

// HFConfig configures the Hugging Face Inference API client.
type HFConfig struct {
	BaseURL            string
	Token              string
	ChatbotModelID     string
	TranslationModelID string
	Timeout            time.Duration
	MaxNewTokens       int
}

// HFClient implements Translator and TextGenerator against the Hugging
// Face Inference API. Each model initializes on first use with a probe
// request; a failed probe marks the model failed for the process
// lifetime and subsequent calls degrade instead of erroring.
type HFClient struct {
	cfg        HFConfig
	httpClient *http.Client
	languages  *LanguageMap
	logger     zerolog.Logger

	mu                sync.Mutex
	chatbotStatus     Status
	translationStatus Status
}

// NewHFClient creates a client with defaults filled in. A nil language
// map falls back to the built-in table.
func NewHFClient(cfg HFConfig, languages *LanguageMap, logger zerolog.Logger) *HFClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ChatbotModelID == "" {
		cfg.ChatbotModelID = DefaultChatbotModel
	}
	if cfg.TranslationModelID == "" {
		cfg.TranslationModelID = DefaultTranslationModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxNewTokens <= 0 {
		cfg.MaxNewTokens = defaultMaxNewTokens
	}
	if languages == nil {
		languages = DefaultLanguageMap()
	}
	return &HFClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		languages:  languages,
		logger:     logger.With().Str("component", "mlmodel").Logger(),
	}
}

// Warmup initializes both models so the first patient request does not
// pay the model loading cost. Failures are logged, not returned; the
// server starts degraded rather than not at all.
func (c *HFClient) Warmup(ctx context.Context) {
	c.ensureChatbot(ctx)
	c.ensureTranslation(ctx)
}

// ChatbotStatus returns the chatbot model lifecycle state.
func (c *HFClient) ChatbotStatus() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chatbotStatus
}

// TranslationStatus returns the translation model lifecycle state.
func (c *HFClient) TranslationStatus() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.translationStatus
}

// ---------------------------------------------------------------------------
// Wire types
// ---------------------------------------------------------------------------

type generationRequest struct {
	Inputs     string           `json:"inputs"`
	Parameters generationParams `json:"parameters"`
	Options    requestOptions   `json:"options,omitempty"`
}

type generationParams struct {
	MaxNewTokens       int `json:"max_new_tokens"`
	NumReturnSequences int `json:"num_return_sequences"`
}

type translationRequest struct {
	Inputs     string            `json:"inputs"`
	Parameters translationParams `json:"parameters"`
	Options    requestOptions    `json:"options,omitempty"`
}

type translationParams struct {
	SrcLang string `json:"src_lang"`
	TgtLang string `json:"tgt_lang"`
}

type requestOptions struct {
	WaitForModel bool `json:"wait_for_model,omitempty"`
}

type generationResult struct {
	GeneratedText string `json:"generated_text"`
}

type translationResult struct {
	TranslationText string `json:"translation_text"`
}

// ---------------------------------------------------------------------------
// TextGenerator
// ---------------------------------------------------------------------------

// Generate produces a chatbot completion for the prompt. Every failure
// path returns one of the fixed internal messages with a nil error, so
// the assistant layer can relay the reply verbatim.
func (c *HFClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.ensureChatbot(ctx) != StatusReady {
		return MsgBotUnavailable, nil
	}

	if len(prompt) > maxPromptBytes {
		c.logger.Warn().Int("prompt_bytes", len(prompt)).Msg("prompt exceeds model context budget")
		return MsgInputTooLong, nil
	}

	start := time.Now()
	payload := generationRequest{
		Inputs: prompt,
		Parameters: generationParams{
			MaxNewTokens:       c.cfg.MaxNewTokens,
			NumReturnSequences: 1,
		},
	}

	body, status, err := c.post(ctx, c.cfg.ChatbotModelID, payload)
	if err != nil {
		metrics.ObserveInference(metrics.ModelChatbot, metrics.ResultError, time.Since(start))
		c.logger.Error().Err(err).Str("model", c.cfg.ChatbotModelID).Msg("chatbot request failed")
		return MsgBotCommunicationFail, nil
	}
	if status != http.StatusOK {
		metrics.ObserveInference(metrics.ModelChatbot, metrics.ResultError, time.Since(start))
		// The API reports context overflows as a validation error
		// mentioning the token budget.
		if isTooLongError(body) {
			return MsgInputTooLong, nil
		}
		c.logger.Error().Int("status", status).Str("model", c.cfg.ChatbotModelID).
			Str("body", truncate(string(body), 200)).Msg("chatbot request rejected")
		return MsgBotCommunicationFail, nil
	}

	var results []generationResult
	if err := json.Unmarshal(body, &results); err != nil || len(results) == 0 || results[0].GeneratedText == "" {
		metrics.ObserveInference(metrics.ModelChatbot, metrics.ResultError, time.Since(start))
		c.logger.Error().Str("model", c.cfg.ChatbotModelID).
			Str("body", truncate(string(body), 200)).Msg("unexpected chatbot response shape")
		return MsgUnexpectedResponse, nil
	}

	metrics.ObserveInference(metrics.ModelChatbot, metrics.ResultSuccess, time.Since(start))
	return stripPrompt(results[0].GeneratedText, prompt), nil
}

// stripPrompt removes the echoed prompt from a completion. Generation
// models return the prompt followed by the continuation; when the echo
// does not match exactly, fall back to splitting on the final
// "Assistant:" marker the prompt ends with.
func stripPrompt(generated, prompt string) string {
	if strings.HasPrefix(generated, prompt) {
		return strings.TrimSpace(generated[len(prompt):])
	}
	if _, after, ok := strings.Cut(generated, "Assistant:"); ok {
		return strings.TrimSpace(after)
	}
	return generated
}

func isTooLongError(body []byte) bool {
	lower := strings.ToLower(string(body))
	return strings.Contains(lower, "too long") || strings.Contains(lower, "tokens")
}

// ---------------------------------------------------------------------------
// Translator
// ---------------------------------------------------------------------------

// Translate converts text between two supported languages. It returns
// the input unchanged when the model is unavailable, a language is
// unsupported, the pair is degenerate, or the API call fails; callers
// always get usable text back.
//
// A sourceLang of "auto" is handled asymmetrically: translating to
// English is refused (the model needs an explicit source), while any
// other target assumes an English source.
func (c *HFClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if c.ensureTranslation(ctx) != StatusReady {
		return text, nil
	}

	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	tgtCode, tgtOK := c.languages.Code(targetLang)

	var srcCode string
	var srcOK bool
	if sourceLang == "auto" {
		if strings.EqualFold(targetLang, "en") {
			c.logger.Warn().Msg("auto source with English target: explicit source required, returning input")
			return text, nil
		}
		srcCode, srcOK = c.languages.Code("en")
	} else {
		srcCode, srcOK = c.languages.Code(sourceLang)
	}

	if !tgtOK {
		c.logger.Error().Str("target_lang", targetLang).Msg("unsupported target language")
		return text, nil
	}
	if !srcOK {
		c.logger.Error().Str("source_lang", sourceLang).Msg("unsupported source language")
		return text, nil
	}
	if srcCode == tgtCode {
		return text, nil
	}

	start := time.Now()
	payload := translationRequest{
		Inputs:     text,
		Parameters: translationParams{SrcLang: srcCode, TgtLang: tgtCode},
	}

	body, status, err := c.post(ctx, c.cfg.TranslationModelID, payload)
	if err != nil {
		metrics.ObserveInference(metrics.ModelTranslation, metrics.ResultError, time.Since(start))
		c.logger.Error().Err(err).Str("model", c.cfg.TranslationModelID).Msg("translation request failed")
		return text, nil
	}
	if status != http.StatusOK {
		metrics.ObserveInference(metrics.ModelTranslation, metrics.ResultError, time.Since(start))
		c.logger.Error().Int("status", status).Str("model", c.cfg.TranslationModelID).
			Str("body", truncate(string(body), 200)).Msg("translation request rejected")
		return text, nil
	}

	var results []translationResult
	if err := json.Unmarshal(body, &results); err != nil || len(results) == 0 || results[0].TranslationText == "" {
		metrics.ObserveInference(metrics.ModelTranslation, metrics.ResultError, time.Since(start))
		c.logger.Error().Str("model", c.cfg.TranslationModelID).
			Str("body", truncate(string(body), 200)).Msg("unexpected translation response shape")
		return text, nil
	}

	metrics.ObserveInference(metrics.ModelTranslation, metrics.ResultSuccess, time.Since(start))
	return results[0].TranslationText, nil
}

// ---------------------------------------------------------------------------
// Initialization probes
// ---------------------------------------------------------------------------

func (c *HFClient) ensureChatbot(ctx context.Context) Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.chatbotStatus == StatusUninitialized {
		probe := generationRequest{
			Inputs:     "Hello",
			Parameters: generationParams{MaxNewTokens: 1, NumReturnSequences: 1},
			Options:    requestOptions{WaitForModel: true},
		}
		if err := c.probe(ctx, c.cfg.ChatbotModelID, probe); err != nil {
			c.logger.Error().Err(err).Str("model", c.cfg.ChatbotModelID).
				Msg("chatbot model failed to initialize, chatbot functionality will be impaired")
			c.chatbotStatus = StatusFailed
		} else {
			c.logger.Info().Str("model", c.cfg.ChatbotModelID).Msg("chatbot model ready")
			c.chatbotStatus = StatusReady
		}
	}
	return c.chatbotStatus
}

func (c *HFClient) ensureTranslation(ctx context.Context) Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.translationStatus == StatusUninitialized {
		probe := translationRequest{
			Inputs:     "Hello",
			Parameters: translationParams{SrcLang: "eng_Latn", TgtLang: "hin_Deva"},
			Options:    requestOptions{WaitForModel: true},
		}
		if err := c.probe(ctx, c.cfg.TranslationModelID, probe); err != nil {
			c.logger.Error().Err(err).Str("model", c.cfg.TranslationModelID).
				Msg("translation model failed to initialize, translation functionality will be impaired")
			c.translationStatus = StatusFailed
		} else {
			c.logger.Info().Str("model", c.cfg.TranslationModelID).Msg("translation model ready")
			c.translationStatus = StatusReady
		}
	}
	return c.translationStatus
}

func (c *HFClient) probe(ctx context.Context, modelID string, payload interface{}) error {
	body, status, err := c.post(ctx, modelID, payload)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("model %s probe returned status %d: %s", modelID, status, truncate(string(body), 200))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

func (c *HFClient) post(ctx context.Context, modelID string, payload interface{}) ([]byte, int, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/models/" + modelID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("inference call failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return data, resp.StatusCode, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
