// Copyright (C) 2025 Didimdol Team
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/didimdol/didimdol-server/datatypes"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var analyzeTracer = otel.Tracer("didimdol.services.analyze")

// AnalysisService triggers post-hoc analysis of a finished chat and
// serves stored results.
type AnalysisService struct {
	store  ChatStore
	answer AnswerService
}

func NewAnalysisService(store ChatStore, answer AnswerService) *AnalysisService {
	return &AnalysisService{store: store, answer: answer}
}

// Analyze loads the chat, submits its history to the analysis agent,
// stores the result, and flips the analyzed flag.
//
// The flag flips only after the content write succeeds; a failure at
// the agent or the store surfaces directly with no partial flag flip.
func (a *AnalysisService) Analyze(ctx context.Context, chatID, userID string) (string, error) {
	ctx, span := analyzeTracer.Start(ctx, "AnalysisService.Analyze")
	defer span.End()

	rec, err := a.store.GetChat(ctx, chatID, userID)
	if err != nil {
		return "", err
	}
	if len(rec.History) == 0 {
		return "", fmt.Errorf("chat %s has no history: %w", chatID, datatypes.ErrNotFound)
	}

	result, err := a.answer.Analyze(ctx, datatypes.StripTimestamps(rec.History))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	content, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encode analysis result: %w", err)
	}

	analysis := &datatypes.Analysis{
		ChatID:  chatID,
		UserID:  userID,
		Content: string(content),
	}
	if err := a.store.CreateAnalysis(ctx, analysis); err != nil {
		return "", err
	}
	if err := a.store.MarkAnalyzed(ctx, chatID); err != nil {
		return "", err
	}

	slog.Info("chat analyzed", "chatId", chatID, "userId", userID)
	return analysis.Content, nil
}

// Get returns the stored analysis for a chat. Analyses of other users'
// chats fail with ErrForbidden regardless of content.
func (a *AnalysisService) Get(ctx context.Context, chatID, userID string) (*datatypes.Analysis, error) {
	ctx, span := analyzeTracer.Start(ctx, "AnalysisService.Get")
	defer span.End()

	analysis, err := a.store.GetAnalysis(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if analysis.UserID != userID {
		return nil, datatypes.ErrForbidden
	}
	return analysis, nil
}
