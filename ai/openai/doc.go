// Package openai implements the ai.Recognizer interface on top of
// OpenAI-compatible chat APIs with vision support, such as a local Ollama
// server running a multimodal model.
package openai
