// Copyright (C) 2025 Didimdol Team
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/didimdol/didimdol-server/datatypes"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var chatTracer = otel.Tracer("didimdol.services.chat")

// ChatService is the chat turn orchestrator. Both the REST handler and
// the realtime bridge submit turns through it, so the two delivery
// paths cannot drift apart.
type ChatService struct {
	store  ChatStore
	answer AnswerService
}

func NewChatService(store ChatStore, answer AnswerService) *ChatService {
	return &ChatService{store: store, answer: answer}
}

// Initialize resolves a chat identity for a new or resumed session.
//
// With a chatID it returns the existing owner-scoped record's history,
// failing with ErrNotFound when the chat is absent, empty, or owned by
// someone else; resumption never reveals whether a foreign chat exists.
// Without a chatID it mints a fresh identifier and touches no storage;
// the record is created only when the first turn completes.
func (s *ChatService) Initialize(ctx context.Context, userID, chatID string) (string, []datatypes.Turn, error) {
	ctx, span := chatTracer.Start(ctx, "ChatService.Initialize")
	defer span.End()

	if strings.TrimSpace(chatID) == "" {
		id := uuid.New().String()
		span.SetAttributes(attribute.Bool("chat.new", true))
		return id, nil, nil
	}

	rec, err := s.store.GetChat(ctx, chatID, userID)
	if err != nil {
		if errors.Is(err, datatypes.ErrForbidden) {
			return "", nil, fmt.Errorf("chat %s: %w", chatID, datatypes.ErrNotFound)
		}
		return "", nil, err
	}
	if len(rec.History) == 0 {
		return "", nil, fmt.Errorf("chat %s has no history: %w", chatID, datatypes.ErrNotFound)
	}
	return rec.ID, rec.History, nil
}

// SubmitTurn runs one full conversation turn: resolve the chat
// identity, load prior history, call the answer service with the full
// prior sequence, then persist the user/assistant pair.
//
// Persistence is all-or-nothing: any failure from the answer service or
// the store aborts the operation with nothing written, so storage never
// holds a user turn without its paired assistant turn.
func (s *ChatService) SubmitTurn(ctx context.Context, userID, chatID, message string) (string, string, error) {
	ctx, span := chatTracer.Start(ctx, "ChatService.SubmitTurn")
	defer span.End()

	if strings.TrimSpace(message) == "" {
		return "", "", fmt.Errorf("message is required: %w", datatypes.ErrBadRequest)
	}
	if strings.TrimSpace(chatID) == "" {
		chatID = uuid.New().String()
	}
	span.SetAttributes(attribute.String("chat.id", chatID))

	var history []datatypes.Turn
	rec, err := s.store.GetChat(ctx, chatID, userID)
	switch {
	case err == nil:
		history = rec.History
	case errors.Is(err, datatypes.ErrNotFound):
		// First turn for this identity; proceed with empty history.
	default:
		return "", "", err
	}

	answer, err := s.answer.Chat(ctx, message, datatypes.StripTimestamps(history))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", "", err
	}

	now := time.Now().UTC()
	pair := []datatypes.Turn{
		{Role: datatypes.RoleUser, Content: message, Timestamp: now},
		{Role: datatypes.RoleAssistant, Content: answer, Timestamp: now},
	}

	if len(history) == 0 {
		newRec := &datatypes.ChatRecord{
			ID:      chatID,
			UserID:  userID,
			History: pair,
		}
		if err := s.store.CreateChat(ctx, newRec); err != nil {
			return "", "", err
		}
		slog.Info("created chat", "chatId", chatID, "userId", userID)
	} else {
		if err := s.store.AppendTurns(ctx, chatID, userID, pair); err != nil {
			return "", "", err
		}
	}

	return answer, chatID, nil
}

// ListChats returns the caller's chat summaries with display titles
// applied.
func (s *ChatService) ListChats(ctx context.Context, userID string) ([]datatypes.ChatSummary, error) {
	ctx, span := chatTracer.Start(ctx, "ChatService.ListChats")
	defer span.End()

	chats, err := s.store.ListChats(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range chats {
		if strings.TrimSpace(chats[i].Title) == "" {
			chats[i].Title = chats[i].CreatedAt.Format("2006. 1. 2. 15:04:05")
		}
	}
	return chats, nil
}

// History returns the full owner-scoped chat record.
func (s *ChatService) History(ctx context.Context, userID, chatID string) (*datatypes.ChatRecord, error) {
	ctx, span := chatTracer.Start(ctx, "ChatService.History")
	defer span.End()

	return s.store.GetChat(ctx, chatID, userID)
}
