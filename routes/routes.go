// Copyright (C) 2025 Didimdol Team
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/didimdol/didimdol-server/auth"
	"github.com/didimdol/didimdol-server/handlers"
	"github.com/didimdol/didimdol-server/middleware"
	"github.com/didimdol/didimdol-server/observability"
	"github.com/didimdol/didimdol-server/realtime"
	"github.com/didimdol/didimdol-server/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(router *gin.Engine, provider auth.AuthProvider, chatSvc *services.ChatService,
	analysisSvc *services.AnalysisService, hub *realtime.Hub, metrics *observability.Metrics) {

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := router.Group("/", middleware.AuthRequired(provider))
	{
		chat := authed.Group("/chat")
		{
			chat.GET("/initialize", handlers.InitializeChat(chatSvc))
			chat.POST("", handlers.SubmitChatTurn(chatSvc, metrics))
			chat.GET("", handlers.ListChats(chatSvc))
			chat.GET("/chatHistory/:id", handlers.ChatHistory(chatSvc))
		}

		authed.POST("/analyze", handlers.TriggerAnalysis(analysisSvc, metrics))
		authed.GET("/analyze/:chatId", handlers.GetAnalysis(analysisSvc))

		authed.GET("/ws", handlers.HandleChatWebSocket(hub, chatSvc, metrics))
	}
}
