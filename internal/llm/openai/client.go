package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/toladipo/docbrief/internal/common"
	"github.com/toladipo/docbrief/internal/llm"
)

// CompleteJSON implements llm.Completer using text-only chat/completions
// with response_format json_object. The answer is schema-validated before
// it is returned; callers never see unvalidated model output.
func (c *Client) CompleteJSON(ctx context.Context, req llm.Request) ([]byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.complete.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"user_len", len(req.User),
	)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": req.System},
			{"role": "user", "content": req.User + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(req.Schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, status, httpErr := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.log)
	if httpErr != nil {
		c.log.Error("llm.complete.http_error",
			"req_id", rid, "status", status, "error", httpErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.WrapError(common.ErrLLMRequestFailed, "chat completion", httpErr)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.complete.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.WrapError(common.ErrLLMRequestFailed, "decode openai response", err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.complete.no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.WrapError(common.ErrLLMRequestFailed, "openai response", fmt.Errorf("no choices"))
	}

	content := []byte(llm.StripCodeFence(cc.Choices[0].Message.Content))

	if err := llm.ValidateJSONAgainstSchema(req.Schema, content); err != nil {
		c.log.Error("llm.complete.schema_validation_failed",
			"req_id", rid, "error", err, "content", string(content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.WrapError(common.ErrSchemaValidationFailed, "model answer", err)
	}

	c.log.Info("llm.complete.ok",
		"req_id", rid,
		"content_bytes", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
