// Copyright (C) 2025 Didimdol Team
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes holds the domain and wire types shared by the
// store, services, and handlers.
package datatypes

import (
	"strings"
	"time"
)

// Turn roles. History only ever contains these two.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one role-tagged message inside a chat history. Array position
// is the ordering key; Timestamp is informational only.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Message is the role+content pair sent to the answer service.
// Timestamps are stripped before the history leaves this process.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRecord is one persisted conversation. History is append-only:
// every successful turn adds exactly one user Turn followed by one
// assistant Turn.
type ChatRecord struct {
	ID         string    `json:"chatId"`
	UserID     string    `json:"userId"`
	Title      string    `json:"title,omitempty"`
	History    []Turn    `json:"chat_history"`
	IsAnalyzed bool      `json:"isAnalyzed"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// DisplayTitle returns the stored title, falling back to a
// timestamp-derived label for chats that were never titled.
func (c *ChatRecord) DisplayTitle() string {
	if strings.TrimSpace(c.Title) != "" {
		return c.Title
	}
	return c.CreatedAt.Format("2006. 1. 2. 15:04:05")
}

// ChatSummary is the list-view projection of a ChatRecord.
type ChatSummary struct {
	ChatID     string    `json:"chatId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	FirstChat  string    `json:"firstChat"`
	Title      string    `json:"title"`
	IsAnalyzed bool      `json:"isAnalyzed"`
}

// Analysis is the stored result of analyzing one chat. A chat has at
// most one analysis; re-analysis overwrites it.
type Analysis struct {
	ChatID    string    `json:"chatId"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// AnalysisResult is the answer service's classification of a chat.
type AnalysisResult struct {
	Type     string `json:"type"`
	Solution string `json:"solution"`
	Reason   string `json:"reason"`
}

// StripTimestamps converts stored turns into the role+content pairs the
// answer service expects.
func StripTimestamps(history []Turn) []Message {
	if len(history) == 0 {
		return nil
	}
	msgs := make([]Message, len(history))
	for i, t := range history {
		msgs[i] = Message{Role: t.Role, Content: t.Content}
	}
	return msgs
}
