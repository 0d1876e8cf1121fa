// Copyright (C) 2025 Didimdol Team
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/didimdol/didimdol-server/datatypes"
)

// memStore implements ChatStore in memory for service testing.
type memStore struct {
	mu       sync.Mutex
	chats    map[string]*datatypes.ChatRecord
	analyses map[string]*datatypes.Analysis

	createErr error
	appendErr error
	getErr    error
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
	if m.createErr != nil {
		return m.createErr
	}
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
	if m.getErr != nil {
		return nil, m.getErr
	}
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
	if m.appendErr != nil {
		return m.appendErr
	}
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

// stubAnswer implements AnswerService with canned responses and records
// the history it was handed.
type stubAnswer struct {
	answer      string
	chatErr     error
	analysis    *datatypes.AnalysisResult
	analyzeErr  error
	lastMessage string
	lastHistory []datatypes.Message
	chatCalls   int
}

func (s *stubAnswer) Chat(_ context.Context, message string, history []datatypes.Message) (string, error) {
	s.chatCalls++
	s.lastMessage = message
	s.lastHistory = history
	if s.chatErr != nil {
		return "", s.chatErr
	}
	return s.answer, nil
}

func (s *stubAnswer) Analyze(_ context.Context, history []datatypes.Message) (*datatypes.AnalysisResult, error) {
	s.lastHistory = history
	if s.analyzeErr != nil {
		return nil, s.analyzeErr
	}
	return s.analysis, nil
}
