// Copyright (C) 2025 Didimdol Team
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package services holds the business logic of the chat server,
// separated from the HTTP and WebSocket boundaries.
//
// Services receive their collaborators through constructors so tests
// can substitute mocks, and every method takes a context for
// cancellation and tracing.
package services

import (
	"context"

	"github.com/didimdol/didimdol-server/datatypes"
)

// ChatStore is the persistence contract the services depend on. The
// production implementation is store.Postgres.
type ChatStore interface {
	CreateChat(ctx context.Context, rec *datatypes.ChatRecord) error
	GetChat(ctx context.Context, chatID, userID string) (*datatypes.ChatRecord, error)
	AppendTurns(ctx context.Context, chatID, userID string, turns []datatypes.Turn) error
	ListChats(ctx context.Context, userID string) ([]datatypes.ChatSummary, error)
	CreateAnalysis(ctx context.Context, a *datatypes.Analysis) error
	GetAnalysis(ctx context.Context, chatID string) (*datatypes.Analysis, error)
	MarkAnalyzed(ctx context.Context, chatID string) error
}

// AnswerService is the contract for the external Python backend that
// generates answers and analyzes conversations.
type AnswerService interface {
	// Chat returns the assistant's answer for a new user message given
	// the full prior history (role+content only, storage order).
	Chat(ctx context.Context, message string, history []datatypes.Message) (string, error)

	// Analyze classifies a finished conversation.
	Analyze(ctx context.Context, history []datatypes.Message) (*datatypes.AnalysisResult, error)
}
