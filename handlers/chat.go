// Copyright (C) 2025 Didimdol Team
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/didimdol/didimdol-server/middleware"
	"github.com/didimdol/didimdol-server/observability"
	"github.com/didimdol/didimdol-server/services"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var chatTracer = otel.Tracer("didimdol.handlers")

type ChatRequest struct {
	ChatID  string `json:"chatId"`
	Message string `json:"message"`
}

// InitializeChat handles GET /chat/initialize[?chatId=].
//
// With a chatId it resumes the session, returning the id and history;
// without one it mints a fresh identifier with no storage side effect.
func InitializeChat(chatSvc *services.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := chatTracer.Start(c.Request.Context(), "InitializeChat")
		defer span.End()

		authInfo := middleware.GetAuthInfo(c)
		chatID := c.Query("chatId")

		resolvedID, history, err := chatSvc.Initialize(ctx, authInfo.UserID, chatID)
		if err != nil {
			span.RecordError(err)
			abortWithError(c, err)
			return
		}

		if history == nil {
			c.JSON(http.StatusOK, gin.H{"chatId": resolvedID})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"chatId":       resolvedID,
			"chat_history": history,
		})
	}
}

// SubmitChatTurn handles POST /chat: one full conversation turn
// through the orchestrator.
func SubmitChatTurn(chatSvc *services.ChatService, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := chatTracer.Start(c.Request.Context(), "SubmitChatTurn")
		defer span.End()

		var req ChatRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "메시지가 필요합니다."})
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "메시지가 필요합니다."})
			return
		}

		authInfo := middleware.GetAuthInfo(c)
		start := time.Now()
		answer, chatID, err := chatSvc.SubmitTurn(ctx, authInfo.UserID, req.ChatID, req.Message)
		metrics.ObserveTurn("rest", start, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("turn submission failed", "chatId", req.ChatID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "발화 중 오류가 발생했습니다. 다시 시도해주십시오.",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":   "발화 성공",
			"utterance": answer,
			"chatId":    chatID,
		})
	}
}

// ListChats handles GET /chat: summaries of the caller's chats, newest
// first.
func ListChats(chatSvc *services.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := chatTracer.Start(c.Request.Context(), "ListChats")
		defer span.End()

		authInfo := middleware.GetAuthInfo(c)
		chats, err := chatSvc.ListChats(ctx, authInfo.UserID)
		if err != nil {
			span.RecordError(err)
			slog.Error("chat listing failed", "userId", authInfo.UserID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "채팅 내역 조회 중 오류가 발생했습니다.",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "채팅 내역 조회 성공",
			"chats":   chats,
		})
	}
}

// ChatHistory handles GET /chat/chatHistory/:id, returning the full
// owner-scoped record.
func ChatHistory(chatSvc *services.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := chatTracer.Start(c.Request.Context(), "ChatHistory")
		defer span.End()

		authInfo := middleware.GetAuthInfo(c)
		rec, err := chatSvc.History(ctx, authInfo.UserID, c.Param("id"))
		if err != nil {
			span.RecordError(err)
			abortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, rec)
	}
}
