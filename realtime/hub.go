// Copyright (C) 2025 Didimdol Team
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package realtime

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub tracks which websocket connections belong to which broadcast
// rooms. A connection typically sits in one user room and zero or more
// chat rooms.
//
// All writes to connections go through the hub so a broadcast and a
// direct send can never interleave on the same connection. A failed
// write drops the connection from every room.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*websocket.Conn]struct{}
	conns map[*websocket.Conn]map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms: map[string]map[*websocket.Conn]struct{}{},
		conns: map[*websocket.Conn]map[string]struct{}{},
	}
}

// Join adds the connection to a room. Joining twice is a no-op.
func (h *Hub) Join(room string, conn *websocket.Conn) {
	if conn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[room] == nil {
		h.rooms[room] = map[*websocket.Conn]struct{}{}
	}
	h.rooms[room][conn] = struct{}{}

	if h.conns[conn] == nil {
		h.conns[conn] = map[string]struct{}{}
	}
	h.conns[conn][room] = struct{}{}
}

// Leave removes the connection from every room it joined. Called on
// disconnect; safe to call for unknown connections.
func (h *Hub) Leave(conn *websocket.Conn) {
	if conn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(conn)
}

// Broadcast sends the event to every connection in the room.
func (h *Hub) Broadcast(room string, v any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.rooms[room] {
		if err := conn.WriteJSON(v); err != nil {
			slog.Warn("websocket broadcast failed, dropping connection", "room", room, "error", err)
			h.dropLocked(conn)
			_ = conn.Close()
		}
	}
}

// SendTo sends the event to a single connection.
func (h *Hub) SendTo(conn *websocket.Conn, v any) {
	if conn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := conn.WriteJSON(v); err != nil {
		slog.Warn("websocket send failed, dropping connection", "error", err)
		h.dropLocked(conn)
		_ = conn.Close()
	}
}

// RoomSize reports how many connections are in the room.
func (h *Hub) RoomSize(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}

func (h *Hub) dropLocked(conn *websocket.Conn) {
	for room := range h.conns[conn] {
		delete(h.rooms[room], conn)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(h.conns, conn)
}
