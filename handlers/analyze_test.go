// Copyright (C) 2025 Didimdol Team
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/didimdol/didimdol-server/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedChat(t *testing.T, store *memStore, chatID, userID string) {
	t.Helper()
	require.NoError(t, store.CreateChat(context.Background(), &datatypes.ChatRecord{
		ID:     chatID,
		UserID: userID,
		History: []datatypes.Turn{
			{Role: datatypes.RoleUser, Content: "요즘 잠이 안 와요", Timestamp: time.Now().UTC()},
			{Role: datatypes.RoleAssistant, Content: "언제부터 그러셨나요?", Timestamp: time.Now().UTC()},
		},
	}))
}

func TestTriggerAnalysis_FullCycle(t *testing.T) {
	store := newMemStore()
	seedChat(t, store, "chat-1", "user-1")
	answer := &stubAnswer{analysis: &datatypes.AnalysisResult{
		Type:     "불면",
		Solution: "수면 위생 개선",
		Reason:   "수면 곤란 호소",
	}}
	router := newTestRouter("user-1", store, answer)

	w, body := doJSON(t, router, http.MethodPost, "/analyze", `{"chatId":"chat-1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "분석이 완료되었습니다.", str(t, body["message"]))

	content := str(t, body["analyzed_data"])
	var result datatypes.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(content), &result))
	assert.Equal(t, "불면", result.Type)

	// Stored analysis is retrievable and the chat is flagged.
	w, _ = doJSON(t, router, http.MethodGet, "/analyze/chat-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stored datatypes.Analysis
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stored))
	assert.Equal(t, content, stored.Content)

	w, _ = doJSON(t, router, http.MethodGet, "/chat/chatHistory/chat-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var rec datatypes.ChatRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.True(t, rec.IsAnalyzed)
}

func TestTriggerAnalysis_MissingChatID(t *testing.T) {
	router := newTestRouter("user-1", newMemStore(), &stubAnswer{})

	w, body := doJSON(t, router, http.MethodPost, "/analyze", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "잘못된 요청입니다.", str(t, body["message"]))
}

func TestTriggerAnalysis_UnknownChat(t *testing.T) {
	router := newTestRouter("user-1", newMemStore(), &stubAnswer{})

	w, _ := doJSON(t, router, http.MethodPost, "/analyze", `{"chatId":"missing"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTriggerAnalysis_ForeignChat(t *testing.T) {
	store := newMemStore()
	seedChat(t, store, "chat-1", "user-2")
	router := newTestRouter("user-1", store, &stubAnswer{})

	w, _ := doJSON(t, router, http.MethodPost, "/analyze", `{"chatId":"chat-1"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetAnalysis_Missing(t *testing.T) {
	router := newTestRouter("user-1", newMemStore(), &stubAnswer{})

	w, body := doJSON(t, router, http.MethodGet, "/analyze/never-analyzed", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "분석 데이터가 없습니다.", str(t, body["message"]))
}

func TestGetAnalysis_ForeignChat(t *testing.T) {
	store := newMemStore()
	seedChat(t, store, "chat-1", "user-2")
	otherRouter := newTestRouter("user-2", store, &stubAnswer{})
	w, _ := doJSON(t, otherRouter, http.MethodPost, "/analyze", `{"chatId":"chat-1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	router := newTestRouter("user-1", store, &stubAnswer{})
	w, _ = doJSON(t, router, http.MethodGet, "/analyze/chat-1", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}
