// Copyright (C) 2025 Didimdol Team
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/didimdol/didimdol-server/datatypes"
	"github.com/didimdol/didimdol-server/middleware"
	"github.com/didimdol/didimdol-server/observability"
	"github.com/didimdol/didimdol-server/realtime"
	"github.com/didimdol/didimdol-server/services"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,
}

// HandleChatWebSocket upgrades GET /ws and runs the realtime bridge
// for one connection.
//
// The auth middleware has already resolved the caller's identity; the
// userId carried in event payloads must match it. Events on a
// connection are handled sequentially, so the echo, typing placeholder
// and terminal assistant frames of one turn keep their order.
func HandleChatWebSocket(hub *realtime.Hub, chatSvc *services.ChatService, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		authInfo := middleware.GetAuthInfo(c)

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade the websocket", "error", err)
			return
		}
		defer func() {
			hub.Leave(ws)
			_ = ws.Close()
		}()

		if metrics != nil {
			metrics.ActiveWebsockets.Inc()
			defer metrics.ActiveWebsockets.Dec()
		}
		slog.Info("websocket client connected", "userId", authInfo.UserID)

		for {
			var ev realtime.ClientEvent
			if err := ws.ReadJSON(&ev); err != nil {
				slog.Info("websocket client disconnected", "userId", authInfo.UserID, "error", err.Error())
				return
			}

			ctx := c.Request.Context()

			switch ev.Event {
			case realtime.EventJoinChat:
				hub.Join(realtime.UserRoom(authInfo.UserID), ws)
				if ev.ChatID != "" {
					hub.Join(realtime.ChatRoom(ev.ChatID), ws)
				}
				slog.Info("websocket client joined", "userId", authInfo.UserID, "chatId", ev.ChatID)

			case realtime.EventSendMessage:
				handleSendMessage(ctx, hub, chatSvc, metrics, ws, authInfo.UserID, ev)

			default:
				hub.SendTo(ws, realtime.ErrorEvent{
					Event:   realtime.EventError,
					Message: "지원하지 않는 이벤트입니다.",
				})
			}
		}
	}
}

// handleSendMessage runs the optimistic pre-broadcast steps, submits
// the turn through the orchestrator, and fans the result out.
//
// The user echo and typing placeholder are view-only: they go out
// before the durable write and are never persisted. On failure only
// the sender gets an error frame; the typing placeholder clears on the
// client when either a receive-message or an error arrives.
func handleSendMessage(ctx context.Context, hub *realtime.Hub, chatSvc *services.ChatService,
	metrics *observability.Metrics, ws *websocket.Conn, userID string, ev realtime.ClientEvent) {

	if ev.UserID != "" && ev.UserID != userID {
		hub.SendTo(ws, realtime.ErrorEvent{
			Event:   realtime.EventError,
			Message: "권한이 없습니다.",
		})
		return
	}

	emit := func(msg realtime.MessageEvent) {
		if ev.ChatID != "" {
			hub.Broadcast(realtime.ChatRoom(ev.ChatID), msg)
		} else {
			hub.SendTo(ws, msg)
		}
	}

	emit(realtime.MessageEvent{
		Event:     realtime.EventReceiveMessage,
		Role:      datatypes.RoleUser,
		Content:   ev.Message,
		Timestamp: time.Now().UTC(),
		IsTyping:  false,
	})
	emit(realtime.MessageEvent{
		Event:     realtime.EventReceiveMessage,
		Role:      datatypes.RoleAssistant,
		Content:   "",
		Timestamp: time.Now().UTC(),
		IsTyping:  true,
	})

	start := time.Now()
	answer, chatID, err := chatSvc.SubmitTurn(ctx, userID, ev.ChatID, ev.Message)
	metrics.ObserveTurn("realtime", start, err)
	if err != nil {
		slog.Error("realtime turn submission failed", "chatId", ev.ChatID, "userId", userID, "error", err)
		hub.SendTo(ws, realtime.ErrorEvent{
			Event:   realtime.EventError,
			Message: "메시지 처리 중 오류가 발생했습니다.",
		})
		return
	}

	// A chat created by this turn gets its room now, with the sender as
	// the first member.
	if ev.ChatID == "" {
		hub.Join(realtime.ChatRoom(chatID), ws)
	}

	hub.Broadcast(realtime.ChatRoom(chatID), realtime.MessageEvent{
		Event:     realtime.EventReceiveMessage,
		Role:      datatypes.RoleAssistant,
		Content:   answer,
		Timestamp: time.Now().UTC(),
		IsTyping:  false,
		ChatID:    chatID,
	})
}
