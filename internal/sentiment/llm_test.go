package sentiment

import (
	"context"
	"errors"
	"testing"

	"github.com/openai/openai-go"
	"google.golang.org/genai"
)

type stubChatClient struct {
	response *openai.ChatCompletion
	err      error
	params   openai.ChatCompletionNewParams
}

func (s *stubChatClient) CreateChatCompletion(_ context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	s.params = params
	return s.response, s.err
}

func TestOpenAIClientComplete(t *testing.T) {
	stub := &stubChatClient{response: &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: `{"direction":"up","strength":40}`}},
		},
	}}
	c := &OpenAIClient{client: stub, model: "gpt-4o-mini"}

	out, err := c.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"direction":"up","strength":40}` {
		t.Fatalf("unexpected reply %q", out)
	}
	if len(stub.params.Messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(stub.params.Messages))
	}
	if c.Model() != "llm:gpt-4o-mini" {
		t.Fatalf("unexpected model %s", c.Model())
	}
}

func TestOpenAIClientEmptyChoices(t *testing.T) {
	c := &OpenAIClient{client: &stubChatClient{response: &openai.ChatCompletion{}}, model: "m"}
	if _, err := c.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error for empty completion")
	}
}

func TestNewOpenAIClientWithoutKey(t *testing.T) {
	if c := NewOpenAIClient("  ", ""); c != nil {
		t.Fatal("expected nil client without api key")
	}
}

type stubGenerator struct {
	text   string
	err    error
	model  string
	config *genai.GenerateContentConfig
}

func (s *stubGenerator) GenerateContent(_ context.Context, model string, _ []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	s.model = model
	s.config = config
	if s.err != nil {
		return nil, s.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: s.text}}}},
		},
	}, nil
}

func TestGeminiClientComplete(t *testing.T) {
	stub := &stubGenerator{text: `{"direction":"down","strength":20}`}
	c := &GeminiClient{models: stub, model: defaultGeminiModel}

	out, err := c.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"direction":"down","strength":20}` {
		t.Fatalf("unexpected reply %q", out)
	}
	if stub.model != defaultGeminiModel || stub.config == nil || stub.config.SystemInstruction == nil {
		t.Fatalf("expected model and system instruction to be passed, got %s %+v", stub.model, stub.config)
	}
}

func TestGeminiClientError(t *testing.T) {
	c := &GeminiClient{models: &stubGenerator{err: errors.New("quota")}, model: "m"}
	if _, err := c.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewGeminiClientWithoutKey(t *testing.T) {
	c, err := NewGeminiClient(context.Background(), "", "")
	if err != nil || c != nil {
		t.Fatalf("expected nil client and nil error, got %v %v", c, err)
	}
}
