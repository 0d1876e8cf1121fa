// Copyright (C) 2025 Didimdol Team
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/didimdol/didimdol-server/datatypes"
	"github.com/didimdol/didimdol-server/middleware"
	"github.com/didimdol/didimdol-server/observability"
	"github.com/didimdol/didimdol-server/services"
	"github.com/gin-gonic/gin"
)

type AnalyzeRequest struct {
	ChatID string `json:"chatId"`
}

// TriggerAnalysis handles POST /analyze: runs the analysis agent over
// the chat's full history, stores the result, and flips the analyzed
// flag.
func TriggerAnalysis(analysisSvc *services.AnalysisService, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := chatTracer.Start(c.Request.Context(), "TriggerAnalysis")
		defer span.End()

		var req AnalyzeRequest
		if err := c.BindJSON(&req); err != nil || req.ChatID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "잘못된 요청입니다."})
			return
		}

		authInfo := middleware.GetAuthInfo(c)
		content, err := analysisSvc.Analyze(ctx, req.ChatID, authInfo.UserID)
		if metrics != nil {
			status := "success"
			if err != nil {
				status = "error"
			}
			metrics.AnalysesTotal.WithLabelValues(status).Inc()
		}
		if err != nil {
			span.RecordError(err)
			slog.Error("analysis failed", "chatId", req.ChatID, "error", err)
			abortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":       "분석이 완료되었습니다.",
			"analyzed_data": content,
		})
	}
}

// GetAnalysis handles GET /analyze/:chatId, returning the stored
// analysis record for the chat's owner.
func GetAnalysis(analysisSvc *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := chatTracer.Start(c.Request.Context(), "GetAnalysis")
		defer span.End()

		authInfo := middleware.GetAuthInfo(c)
		analysis, err := analysisSvc.Get(ctx, c.Param("chatId"), authInfo.UserID)
		if err != nil {
			span.RecordError(err)
			if errors.Is(err, datatypes.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"message": "분석 데이터가 없습니다."})
				return
			}
			abortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, analysis)
	}
}
