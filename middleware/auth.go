// Copyright (C) 2025 Didimdol Team
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package middleware provides HTTP middleware for the chat server.
//
// The auth middleware extracts the Supabase access token from the
// request (cookie first, Authorization header as a fallback), validates
// it through the configured AuthProvider, and stores the resulting
// AuthInfo in the Gin context for downstream handlers. Requests without
// a valid identity never reach a handler.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/didimdol/didimdol-server/auth"
	"github.com/didimdol/didimdol-server/datatypes"
	"github.com/gin-gonic/gin"
)

// accessTokenCookie is the cookie set by the Supabase client on login.
const accessTokenCookie = "sb-access-token"

// authInfoKey is the gin context key for the authenticated identity.
const authInfoKey = "didimdol_auth_info"

// SetAuthInfo stores the authenticated user info in the Gin context.
// Called by AuthRequired after successful validation; exposed for
// handler tests.
func SetAuthInfo(c *gin.Context, info *auth.AuthInfo) {
	c.Set(authInfoKey, info)
}

// GetAuthInfo retrieves the authenticated user info from the Gin
// context, or nil if the request was not authenticated.
func GetAuthInfo(c *gin.Context) *auth.AuthInfo {
	if info, exists := c.Get(authInfoKey); exists {
		if authInfo, ok := info.(*auth.AuthInfo); ok {
			return authInfo
		}
	}
	return nil
}

// AuthRequired authenticates every request passing through it.
//
// Responses:
//   - 401 {"message": "..."} when no token is present or the provider
//     rejects it
//   - 401 with a generic message when the provider itself fails
func AuthRequired(provider auth.AuthProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "인증이 필요합니다.",
			})
			return
		}

		authInfo, err := provider.Validate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, datatypes.ErrInvalidCredential) || errors.Is(err, datatypes.ErrUnauthenticated) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"message": "유효하지 않은 인증입니다.",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "인증 처리 중 오류가 발생했습니다.",
			})
			return
		}

		SetAuthInfo(c, authInfo)
		c.Next()
	}
}

// extractToken pulls the access token from the session cookie, falling
// back to "Authorization: Bearer <token>".
func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(accessTokenCookie); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
