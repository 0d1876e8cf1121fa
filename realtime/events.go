// Copyright (C) 2025 Didimdol Team
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package realtime implements the fan-out bridge that mirrors chat
// turns to connected viewers. Each event is a single JSON frame over a
// gorilla/websocket connection.
package realtime

import "time"

// Event names. Client to server: join-chat, send-message. Server to
// client: receive-message, error.
const (
	EventJoinChat       = "join-chat"
	EventSendMessage    = "send-message"
	EventReceiveMessage = "receive-message"
	EventError          = "error"
)

// ClientEvent is the envelope for every client-to-server frame.
type ClientEvent struct {
	Event   string `json:"event"`
	UserID  string `json:"userId,omitempty"`
	ChatID  string `json:"chatId,omitempty"`
	Message string `json:"message,omitempty"`
}

// MessageEvent is a receive-message frame. The typing placeholder uses
// Role=assistant, empty Content and IsTyping=true; it is view-only and
// never persisted. ChatID is set on the terminal assistant frame so a
// client that started without a chat learns its identity.
type MessageEvent struct {
	Event     string    `json:"event"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	IsTyping  bool      `json:"isTyping"`
	ChatID    string    `json:"chatId,omitempty"`
}

// ErrorEvent is delivered to the originating connection only, never
// broadcast to a room.
type ErrorEvent struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

// UserRoom names the per-user broadcast group.
func UserRoom(userID string) string { return "user-" + userID }

// ChatRoom names the per-chat broadcast group.
func ChatRoom(chatID string) string { return "chat-" + chatID }
