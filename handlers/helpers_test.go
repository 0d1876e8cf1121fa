// Copyright (C) 2025 Didimdol Team
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/didimdol/didimdol-server/auth"
	"github.com/didimdol/didimdol-server/datatypes"
	"github.com/didimdol/didimdol-server/middleware"
	"github.com/didimdol/didimdol-server/realtime"
	"github.com/didimdol/didimdol-server/services"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memStore is an in-memory services.ChatStore for handler testing.
type memStore struct {
	mu       sync.Mutex
	chats    map[string]*datatypes.ChatRecord
	analyses map[string]*datatypes.Analysis
}

func newMemStore() *memStore {
	return &memStore{
		chats:    make(map[string]*datatypes.ChatRecord),
		analyses: make(map[string]*datatypes.Analysis),
	}
}

func (m *memStore) CreateChat(_ context.Context, rec *datatypes.ChatRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	cp := *rec
	cp.History = append([]datatypes.Turn(nil), rec.History...)
	cp.CreatedAt = now
	cp.UpdatedAt = now
	m.chats[rec.ID] = &cp
	return nil
}

func (m *memStore) GetChat(_ context.Context, chatID, userID string) (*datatypes.ChatRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.chats[chatID]
	if !ok {
		return nil, fmt.Errorf("chat %s: %w", chatID, datatypes.ErrNotFound)
	}
	if rec.UserID != userID {
		return nil, fmt.Errorf("chat %s: %w", chatID, datatypes.ErrForbidden)
	}
	cp := *rec
	cp.History = append([]datatypes.Turn(nil), rec.History...)
	return &cp, nil
}

func (m *memStore) AppendTurns(_ context.Context, chatID, userID string, turns []datatypes.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.chats[chatID]
	if !ok || rec.UserID != userID {
		return fmt.Errorf("chat %s: %w", chatID, datatypes.ErrNotFound)
	}
	rec.History = append(rec.History, turns...)
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memStore) ListChats(_ context.Context, userID string) ([]datatypes.ChatSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []datatypes.ChatSummary
	for _, rec := range m.chats {
		if rec.UserID != userID {
			continue
		}
		first := ""
		if len(rec.History) > 0 {
			first = rec.History[0].Content
		}
		out = append(out, datatypes.ChatSummary{
			ChatID:     rec.ID,
			CreatedAt:  rec.CreatedAt,
			UpdatedAt:  rec.UpdatedAt,
			FirstChat:  first,
			Title:      rec.Title,
			IsAnalyzed: rec.IsAnalyzed,
		})
	}
	return out, nil
}

func (m *memStore) CreateAnalysis(_ context.Context, a *datatypes.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	cp.CreatedAt = time.Now().UTC()
	m.analyses[a.ChatID] = &cp
	return nil
}

func (m *memStore) GetAnalysis(_ context.Context, chatID string) (*datatypes.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.analyses[chatID]
	if !ok {
		return nil, fmt.Errorf("analysis %s: %w", chatID, datatypes.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) MarkAnalyzed(_ context.Context, chatID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.chats[chatID]
	if !ok {
		return fmt.Errorf("chat %s: %w", chatID, datatypes.ErrNotFound)
	}
	rec.IsAnalyzed = true
	return nil
}

// stubAnswer implements services.AnswerService with canned responses.
type stubAnswer struct {
	answer   string
	chatErr  error
	analysis *datatypes.AnalysisResult
}

func (s *stubAnswer) Chat(_ context.Context, message string, history []datatypes.Message) (string, error) {
	if s.chatErr != nil {
		return "", s.chatErr
	}
	return s.answer, nil
}

func (s *stubAnswer) Analyze(_ context.Context, history []datatypes.Message) (*datatypes.AnalysisResult, error) {
	if s.analysis == nil {
		return &datatypes.AnalysisResult{Type: "기타"}, nil
	}
	return s.analysis, nil
}

// asUser injects a resolved identity, standing in for the auth
// middleware.
func asUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetAuthInfo(c, &auth.AuthInfo{UserID: userID, Email: userID + "@example.com"})
		c.Next()
	}
}

// newTestRouter mirrors the production route layout with the identity
// fixed and metrics disabled.
func newTestRouter(userID string, store *memStore, answer *stubAnswer) *gin.Engine {
	chatSvc := services.NewChatService(store, answer)
	analysisSvc := services.NewAnalysisService(store, answer)
	hub := realtime.NewHub()

	router := gin.New()
	authed := router.Group("/", asUser(userID))
	{
		chat := authed.Group("/chat")
		{
			chat.GET("/initialize", InitializeChat(chatSvc))
			chat.POST("", SubmitChatTurn(chatSvc, nil))
			chat.GET("", ListChats(chatSvc))
			chat.GET("/chatHistory/:id", ChatHistory(chatSvc))
		}
		authed.POST("/analyze", TriggerAnalysis(analysisSvc, nil))
		authed.GET("/analyze/:chatId", GetAnalysis(analysisSvc))
		authed.GET("/ws", HandleChatWebSocket(hub, chatSvc, nil))
	}
	return router
}
