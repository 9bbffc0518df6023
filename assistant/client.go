// Package assistant proxies the conversational and transcription APIs.
package assistant

import (
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

const defaultSystemPrompt = "You are a helpful assistant. Keep your answers short and concrete."

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Client struct {
	api          *openai.Client
	model        string
	systemPrompt string
	language     string
}

// NewClient builds a client for the given API key. Empty model, system
// prompt, and transcription language fall back to defaults.
func NewClient(apiKey, model, systemPrompt, language string) *Client {
	if model == "" {
		model = openai.GPT4
	}
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	return &Client{
		api:          openai.NewClient(apiKey),
		model:        model,
		systemPrompt: systemPrompt,
		language:     language,
	}
}

// Chat runs the conversation through the chat-completion API. A system
// message is prepended when the caller did not supply one.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	hasSystem := false
	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	for _, msg := range messages {
		if msg.Role == openai.ChatMessageRoleSystem {
			hasSystem = true
		}
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	if !hasSystem {
		chatMessages = append([]openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleSystem,
			Content: c.systemPrompt,
		}}, chatMessages...)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: chatMessages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Transcribe sends an audio stream to the transcription API and returns
// the recognized text.
func (c *Client) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: filename,
		Reader:   audio,
		Language: c.language,
	})
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	return resp.Text, nil
}
