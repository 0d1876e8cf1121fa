// Copyright (C) 2025 Didimdol Team
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/didimdol/didimdol-server/datatypes"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var answerTracer = otel.Tracer("didimdol.services.answer")

// AnswerClient talks to the Python RAG backend over plain HTTP.
//
// The backend is stateless: each call carries the message plus the full
// prior history. No retries and no timeout beyond the request context;
// failures map to datatypes.ErrUpstream.
type AnswerClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ AnswerService = (*AnswerClient)(nil)

func NewAnswerClient(baseURL string) *AnswerClient {
	return &AnswerClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
}

type chatPayload struct {
	Message     string              `json:"message"`
	ChatHistory []datatypes.Message `json:"chat_history"`
}

type chatResult struct {
	Answer string `json:"answer"`
}

type analyzePayload struct {
	ChatHistory []datatypes.Message `json:"chat_history"`
}

// Chat sends the user's message and prior turns to POST /api/chat and
// returns the generated answer.
func (c *AnswerClient) Chat(ctx context.Context, message string, history []datatypes.Message) (string, error) {
	ctx, span := answerTracer.Start(ctx, "AnswerClient.Chat")
	defer span.End()
	span.SetAttributes(attribute.Int("chat.history_turns", len(history)))

	if history == nil {
		history = []datatypes.Message{}
	}

	body, err := c.post(ctx, "/api/chat", chatPayload{Message: message, ChatHistory: history})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	var result chatResult
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parse answer response: %w", datatypes.ErrUpstream)
	}
	return result.Answer, nil
}

// Analyze submits the full conversation to POST /api/analyze and
// returns the backend's classification.
func (c *AnswerClient) Analyze(ctx context.Context, history []datatypes.Message) (*datatypes.AnalysisResult, error) {
	ctx, span := answerTracer.Start(ctx, "AnswerClient.Analyze")
	defer span.End()
	span.SetAttributes(attribute.Int("analyze.history_turns", len(history)))

	if history == nil {
		history = []datatypes.Message{}
	}

	body, err := c.post(ctx, "/api/analyze", analyzePayload{ChatHistory: history})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var result datatypes.AnalysisResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse analyze response: %w", datatypes.ErrUpstream)
	}
	return &result, nil
}

func (c *AnswerClient) post(ctx context.Context, path string, payload any) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request for %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("answer service unreachable: %w", datatypes.ErrUpstream)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read answer service response: %w", datatypes.ErrUpstream)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("answer service returned status %d: %w", resp.StatusCode, datatypes.ErrUpstream)
	}
	return body, nil
}
