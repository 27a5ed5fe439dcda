// ABOUTME: Request and response wire formats for each backend family
// ABOUTME: OpenAI-compatible, Anthropic Messages, Cohere v2 chat, HuggingFace inference

package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// wireFormat translates between the adapter contract and one family's HTTP API.
type wireFormat interface {
	endpoint(baseURL, model string) string
	setHeaders(h http.Header, apiKey string)
	requestBody(model, prompt string, temperature float64, stop []string, stream bool) any
	parseResponse(data []byte) (string, error)
	// parseChunk decodes one SSE data payload. done reports end of stream.
	parseChunk(data []byte) (text string, done bool, err error)
}

func wireFor(id ID) wireFormat {
	switch providerTable[id].family {
	case familyAnthropic:
		return anthropicWire{}
	case familyCohere:
		return cohereWire{}
	case familyHuggingFace:
		return huggingFaceWire{}
	default:
		return openAIWire{}
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func userMessage(prompt string) []chatMessage {
	return []chatMessage{{Role: "user", Content: prompt}}
}

// maxErrorMessage bounds the runes of a raw body quoted in a diagnostic.
const maxErrorMessage = 200

// errorMessage pulls a human-readable message out of a failed response body.
func errorMessage(body []byte) string {
	var env struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		if len(env.Error) > 0 {
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(env.Error, &nested) == nil && nested.Message != "" {
				return nested.Message
			}
			var s string
			if json.Unmarshal(env.Error, &s) == nil && s != "" {
				return s
			}
		}
		if env.Message != "" {
			return env.Message
		}
	}
	msg := []rune(strings.TrimSpace(string(body)))
	if len(msg) > maxErrorMessage {
		msg = msg[:maxErrorMessage]
	}
	return string(msg)
}

// --- OpenAI-compatible ---

// openAIWire ignores reasoning_content deltas; only the answer is returned.
type openAIWire struct{}

type openAIRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stop        []string      `json:"stop,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Delta struct {
			Content *string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (openAIWire) endpoint(baseURL, _ string) string {
	return strings.TrimRight(baseURL, "/") + "/chat/completions"
}

func (openAIWire) setHeaders(h http.Header, apiKey string) {
	h.Set("Authorization", "Bearer "+apiKey)
}

func (openAIWire) requestBody(model, prompt string, temperature float64, stop []string, stream bool) any {
	return openAIRequest{
		Model:       model,
		Messages:    userMessage(prompt),
		Temperature: temperature,
		Stop:        stop,
		Stream:      stream,
	}
}

func (openAIWire) parseResponse(data []byte) (string, error) {
	var resp openAIResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("decoding completion: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("backend error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func (openAIWire) parseChunk(data []byte) (string, bool, error) {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("[DONE]")) {
		return "", true, nil
	}
	var chunk openAIResponse
	if err := json.Unmarshal(data, &chunk); err != nil {
		return "", false, fmt.Errorf("decoding stream chunk: %w", err)
	}
	if chunk.Error != nil {
		return "", false, fmt.Errorf("backend error: %s", chunk.Error.Message)
	}
	if len(chunk.Choices) == 0 {
		return "", false, nil
	}
	if c := chunk.Choices[0].Delta.Content; c != nil {
		return *c, false, nil
	}
	return "", false, nil
}

// --- Anthropic Messages ---

const anthropicVersion = "2023-06-01"

type anthropicWire struct{}

type anthropicRequest struct {
	Model         string        `json:"model"`
	MaxTokens     int           `json:"max_tokens"`
	Messages      []chatMessage `json:"messages"`
	Temperature   float64       `json:"temperature"`
	StopSequences []string      `json:"stop_sequences,omitempty"`
	Stream        bool          `json:"stream,omitempty"`
}

func (anthropicWire) endpoint(baseURL, _ string) string {
	return strings.TrimRight(baseURL, "/") + "/messages"
}

func (anthropicWire) setHeaders(h http.Header, apiKey string) {
	h.Set("x-api-key", apiKey)
	h.Set("anthropic-version", anthropicVersion)
}

func (anthropicWire) requestBody(model, prompt string, temperature float64, stop []string, stream bool) any {
	return anthropicRequest{
		Model:         model,
		MaxTokens:     1024,
		Messages:      userMessage(prompt),
		Temperature:   temperature,
		StopSequences: stop,
		Stream:        stream,
	}
}

func (anthropicWire) parseResponse(data []byte) (string, error) {
	var resp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("decoding message: %w", err)
	}
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

func (anthropicWire) parseChunk(data []byte) (string, bool, error) {
	var ev struct {
		Type  string `json:"type"`
		Delta struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"delta"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		return "", false, fmt.Errorf("decoding stream event: %w", err)
	}
	switch ev.Type {
	case "content_block_delta":
		if ev.Delta.Type == "text_delta" {
			return ev.Delta.Text, false, nil
		}
	case "message_stop":
		return "", true, nil
	case "error":
		return "", false, fmt.Errorf("backend error: %s", ev.Error.Message)
	}
	return "", false, nil
}

// --- Cohere v2 ---

type cohereWire struct{}

type cohereRequest struct {
	Model         string        `json:"model"`
	Messages      []chatMessage `json:"messages"`
	Temperature   float64       `json:"temperature"`
	StopSequences []string      `json:"stop_sequences,omitempty"`
	Stream        bool          `json:"stream,omitempty"`
}

func (cohereWire) endpoint(baseURL, _ string) string {
	return strings.TrimRight(baseURL, "/") + "/chat"
}

func (cohereWire) setHeaders(h http.Header, apiKey string) {
	h.Set("Authorization", "Bearer "+apiKey)
}

func (cohereWire) requestBody(model, prompt string, temperature float64, stop []string, stream bool) any {
	return cohereRequest{
		Model:         model,
		Messages:      userMessage(prompt),
		Temperature:   temperature,
		StopSequences: stop,
		Stream:        stream,
	}
}

func (cohereWire) parseResponse(data []byte) (string, error) {
	var resp struct {
		Message struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	if len(resp.Message.Content) == 0 {
		return "", nil
	}
	return resp.Message.Content[0].Text, nil
}

func (cohereWire) parseChunk(data []byte) (string, bool, error) {
	var ev struct {
		Type  string `json:"type"`
		Delta struct {
			Message struct {
				Content struct {
					Text string `json:"text"`
				} `json:"content"`
			} `json:"message"`
		} `json:"delta"`
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		return "", false, fmt.Errorf("decoding stream event: %w", err)
	}
	switch ev.Type {
	case "content-delta":
		return ev.Delta.Message.Content.Text, false, nil
	case "message-end":
		return "", true, nil
	}
	return "", false, nil
}

// --- HuggingFace Inference API ---

type huggingFaceWire struct{}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Options    struct {
		WaitForModel bool `json:"wait_for_model"`
	} `json:"options"`
}

type hfParameters struct {
	Temperature    float64  `json:"temperature"`
	ReturnFullText bool     `json:"return_full_text"`
	MaxNewTokens   int      `json:"max_new_tokens"`
	Stop           []string `json:"stop,omitempty"`
}

func (huggingFaceWire) endpoint(baseURL, model string) string {
	return strings.TrimRight(baseURL, "/") + "/" + model
}

func (huggingFaceWire) setHeaders(h http.Header, apiKey string) {
	h.Set("Authorization", "Bearer "+apiKey)
}

func (huggingFaceWire) requestBody(_, prompt string, temperature float64, stop []string, _ bool) any {
	req := hfRequest{
		Inputs: prompt,
		Parameters: hfParameters{
			Temperature:  temperature,
			MaxNewTokens: 512,
			Stop:         stop,
		},
	}
	req.Options.WaitForModel = true
	return req
}

func (huggingFaceWire) parseResponse(data []byte) (string, error) {
	var out []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		var single struct {
			GeneratedText string `json:"generated_text"`
			Error         string `json:"error"`
		}
		if err2 := json.Unmarshal(data, &single); err2 != nil {
			return "", fmt.Errorf("decoding generation: %w", err)
		}
		if single.Error != "" {
			return "", fmt.Errorf("backend error: %s", single.Error)
		}
		return single.GeneratedText, nil
	}
	if len(out) == 0 {
		return "", nil
	}
	return out[0].GeneratedText, nil
}

func (huggingFaceWire) parseChunk([]byte) (string, bool, error) {
	return "", true, nil
}
