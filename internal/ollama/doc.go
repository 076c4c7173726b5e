// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
//
// Only the two calls the chat session needs are implemented: the model
// listing used for discovery and the non-streaming chat completion.
//
// # Key Types
//
//   - Client: HTTP client; the endpoint is passed per call
//   - Message: Chat message with role and content
//   - ChatRequest: Request body for /api/chat
//   - ChatResponse: Response with the assistant message and timing
//   - ClientError: Failure classified as transport, status or parse
//
// # Usage
//
//	client := ollama.NewClient()
//	names, err := client.ListModelNames(ctx, "http://localhost:11434")
//	resp, err := client.Chat(ctx, "http://localhost:11434", ollama.ChatRequest{
//	    Model:    names[0],
//	    Messages: []ollama.Message{ollama.NewUserMessage("Hello")},
//	})
//
// # Errors
//
// Every failure is a *ClientError. Use KindOf or the Is* helpers to branch
// on it and Detail for the short text shown to the user:
//
//	if ollama.IsStatus(err) {
//	    fmt.Println("API Error: " + ollama.DetailOf(err))
//	}
package ollama
