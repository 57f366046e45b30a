package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Client: обёртка над genai.Client: список моделей и один multimodal-вызов.
// Создаётся один раз на старте и шарится между запросами.
type Client struct {
	cl *genai.Client
}

func New(ctx context.Context, apiKey string) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("GOOGLE_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &Client{cl: cl}, nil
}

func (c *Client) Close() error { return c.cl.Close() }

// ListModels возвращает имена как есть ("models/gemini-...").
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	var names []string
	it := c.cl.ListModels(ctx)
	for {
		m, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gemini list models: %w", err)
		}
		names = append(names, m.Name)
	}
	return names, nil
}

// GenerateContent отправляет промпт + картинку, возвращает первый текстовый part.
func (c *Client) GenerateContent(ctx context.Context, model, prompt string, image []byte, mime string) (string, error) {
	m := c.cl.GenerativeModel(strings.TrimSpace(model))
	if m == nil {
		return "", fmt.Errorf("gemini: model is nil")
	}
	m.GenerationConfig = generationConfig()

	resp, err := m.GenerateContent(ctx,
		genai.Text(prompt),
		genai.Blob{MIMEType: mime, Data: image},
	)
	if err != nil {
		return "", fmt.Errorf("gemini %s: %w", model, err)
	}
	txt := firstText(resp)
	if strings.TrimSpace(txt) == "" {
		return "", fmt.Errorf("gemini %s: empty response", model)
	}
	return txt, nil
}

// generationConfig: детерминированный ответ строго в JSON.
func generationConfig() genai.GenerationConfig {
	return genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
