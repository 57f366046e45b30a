package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresKey(t *testing.T) {
	c, err := New(context.Background(), "   ")
	require.Error(t, err)
	assert.Nil(t, c)
}

func TestFirstText(t *testing.T) {
	assert.Equal(t, "", firstText(nil))
	assert.Equal(t, "", firstText(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: nil},
			{Content: &genai.Content{Parts: []genai.Part{
				genai.Blob{MIMEType: "image/png"},
				genai.Text(`{"damages":[]}`),
				genai.Text("second"),
			}}},
		},
	}
	assert.Equal(t, `{"damages":[]}`, firstText(resp))
}

func TestGenerationConfig(t *testing.T) {
	gc := generationConfig()
	assert.Equal(t, "application/json", gc.ResponseMIMEType)
	require.NotNil(t, gc.Temperature)
	assert.Equal(t, float32(0), *gc.Temperature)
}
