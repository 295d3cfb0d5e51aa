package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmaraujo/finpipe/internal/common"
	"github.com/dmaraujo/finpipe/internal/entity"
	"github.com/dmaraujo/finpipe/internal/llm"
)

// Client calls an OpenAI-compatible chat/completions endpoint. It implements
// llm.Extractor.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

var _ llm.Extractor = (*Client)(nil)

func NewClient(cfg Config, logger *slog.Logger) *Client {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float32       `json:"temperature"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// ExtractTransactions asks the model to parse OCR text into a statement
// result and validates the response against the statement schema.
func (c *Client) ExtractTransactions(ctx context.Context, req llm.ExtractRequest) (*llm.StatementResult, error) {
	c.logger.Info("llm.extract.start",
		"model", c.cfg.Model,
		"doc_type_hint", req.DocTypeHint,
		"text_len", len(req.OCRText))

	raw, err := c.chat(ctx, statementSystem, llm.BuildStatementPrompt(req))
	if err != nil {
		return nil, err
	}

	var result llm.StatementResult
	if err := llm.Decode(raw, &result); err != nil {
		c.logger.Warn("llm.extract.decode_failed", "error", err)
		return nil, common.NewAppError("LLM_BAD_OUTPUT", "model returned unparseable JSON", err)
	}
	var generic any
	if err := llm.Decode(raw, &generic); err == nil {
		if err := llm.ValidateAgainstSchema(llm.StatementSchema(), generic); err != nil {
			c.logger.Warn("llm.extract.schema_failed", "error", err)
			return nil, common.NewAppError("LLM_BAD_OUTPUT", "model output failed schema validation", err)
		}
	}

	c.logger.Info("llm.extract.done",
		"doc_type", result.DocType,
		"transactions", len(result.Transactions))
	return &result, nil
}

// CleanupReceiptItems sends garbled receipt items back through the model and
// returns the cleaned list. On any model or decode failure the original
// items are NOT returned; the caller decides whether to fall back.
func (c *Client) CleanupReceiptItems(ctx context.Context, items []entity.ReceiptItem, merchant string, total *float64) ([]entity.ReceiptItem, error) {
	c.logger.Info("llm.receipt_cleanup.start", "model", c.cfg.Model, "items", len(items))

	raw, err := c.chat(ctx, receiptSystem, llm.BuildReceiptPrompt(items, merchant, total))
	if err != nil {
		return nil, err
	}

	var cleaned []llm.ReceiptItemJSON
	if err := llm.Decode(raw, &cleaned); err != nil {
		c.logger.Warn("llm.receipt_cleanup.decode_failed", "error", err)
		return nil, common.NewAppError("LLM_BAD_OUTPUT", "model returned unparseable JSON", err)
	}
	var generic any
	if err := llm.Decode(raw, &generic); err == nil {
		if err := llm.ValidateAgainstSchema(llm.ReceiptItemsSchema(), generic); err != nil {
			c.logger.Warn("llm.receipt_cleanup.schema_failed", "error", err)
			return nil, common.NewAppError("LLM_BAD_OUTPUT", "model output failed schema validation", err)
		}
	}

	out := make([]entity.ReceiptItem, 0, len(cleaned))
	for _, it := range cleaned {
		if it.Description == "" {
			continue
		}
		out = append(out, entity.ReceiptItem{
			Code:        it.Code,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Total:       it.Total,
		})
	}
	c.logger.Info("llm.receipt_cleanup.done", "items_in", len(items), "items_out", len(out))
	return out, nil
}

const (
	statementSystem = "statement"
	receiptSystem   = "receipt"
)

func (c *Client) systemPrompt(kind string) string {
	if kind == receiptSystem {
		return llm.ReceiptSystemPrompt
	}
	return llm.StatementSystemPrompt
}

// chat posts one chat/completions request and returns the first choice's
// content. Retries on 429 and 5xx with linear backoff.
func (c *Client) chat(ctx context.Context, kind, userPrompt string) (string, error) {
	body := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: c.systemPrompt(kind)},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    c.cfg.Temperature,
		ResponseFormat: &respFormat{Type: "json_object"},
	}
	if kind == receiptSystem {
		// the cleanup response is a bare array, which json_object mode rejects
		body.ResponseFormat = nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
			c.logger.Warn("llm.chat.retry", "attempt", attempt, "error", lastErr)
		}

		content, retryable, err := c.doChat(ctx, payload)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return "", common.NewAppError("LLM_UNAVAILABLE", "chat completion failed", lastErr)
}

func (c *Client) doChat(ctx context.Context, payload []byte) (content string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", true, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", true, err
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", true, fmt.Errorf("chat completions: status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("chat completions: status %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", false, fmt.Errorf("decode chat response: %w", err)
	}
	if parsed.Error != nil {
		return "", false, fmt.Errorf("chat completions: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", false, fmt.Errorf("chat completions: empty choices")
	}
	return parsed.Choices[0].Message.Content, false, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
