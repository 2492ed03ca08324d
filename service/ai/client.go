package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
)

const (
	groqChatURL = "https://api.groq.com/openai/v1/chat/completions"
	groqModel   = "llama3-70b-8192"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client produces a chat completion for a message list. Handlers depend on
// this interface so tests can swap in a counting stub.
type Client interface {
	ChatCompletion(messages []Message, maxTokens int, temperature float64) (string, error)
}

type GroqClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewGroqClient() *GroqClient {
	return &GroqClient{
		apiKey:     os.Getenv("GROQ_API_KEY"),
		baseURL:    groqChatURL,
		httpClient: &http.Client{},
	}
}

// ChatCompletion sends the message list to the Groq chat-completions API
// and returns the first choice's text. Calls are synchronous and never
// retried; a failed call fails the whole request.
func (c *GroqClient) ChatCompletion(messages []Message, maxTokens int, temperature float64) (string, error) {
	payload := map[string]interface{}{
		"model":       groqModel,
		"messages":    messages,
		"max_tokens":  maxTokens,
		"temperature": temperature,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest("POST", c.baseURL, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("groq API returned status %d", resp.StatusCode)
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("groq API returned no choices")
	}

	return completion.Choices[0].Message.Content, nil
}
