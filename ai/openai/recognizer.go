// Copyright 2026 Feedscope Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/feedscope/feedscope/ai"
)

// transcriptionPrompt asks the vision model for a plain transcription of the
// post text, not a description of the image.
const transcriptionPrompt = `Transcribe all text visible in this social media screenshot.
Return only the transcribed text, in reading order from top to bottom.
Do not describe the image. Do not add commentary.
If no text is visible, return an empty response.`

// Recognizer implements ai.Recognizer using an OpenAI-compatible vision chat API.
type Recognizer struct {
	client llms.Model
	logger *slog.Logger
}

// NewRecognizer creates a screenshot transcription service from the provided
// configuration.
//
// Returns ai.Recognizer interface to enforce abstraction.
func NewRecognizer(config *ai.Config) (ai.Recognizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local services that don't require authentication.
	client, err := openai.New(
		openai.WithBaseURL(config.RecognizerHost),
		openai.WithToken("none"),
		openai.WithModel(config.RecognizerModel),
	)
	if err != nil {
		return nil, err
	}

	return &Recognizer{
		client: client,
		logger: slog.Default().With("component", "openai-recognizer"),
	}, nil
}

// RecognizeText sends the image to the vision model and returns the
// transcribed text. An image with no recognizable text yields an empty
// string.
func (r *Recognizer) RecognizeText(ctx context.Context, image []byte) (string, error) {
	mimeType := http.DetectContentType(image)

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.BinaryPart(mimeType, image),
				llms.TextPart(transcriptionPrompt),
			},
		},
	}

	response, err := r.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		if isConnectionErr(err) {
			return "", fmt.Errorf("%w: %w", ai.ErrModelUnavailable, err)
		}
		return "", fmt.Errorf("generating transcription: %w", err)
	}

	if len(response.Choices) < 1 {
		r.logger.Debug("no choices returned from vision model")
		return "", nil
	}

	return strings.TrimSpace(response.Choices[0].Content), nil
}

// isConnectionErr reports whether err looks like the service itself is down
// rather than the request being rejected.
func isConnectionErr(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "connection reset")
}
