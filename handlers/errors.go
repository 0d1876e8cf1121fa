// Copyright (C) 2025 Didimdol Team
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers implements the HTTP and WebSocket boundary of the
// chat server. Handlers receive their collaborators as arguments and
// return gin closures; business logic lives in the services package.
package handlers

import (
	"errors"
	"net/http"

	"github.com/didimdol/didimdol-server/datatypes"
	"github.com/gin-gonic/gin"
)

// statusForError maps the error taxonomy to an HTTP status. Anything
// unrecognized becomes a 500; internal detail never leaks to clients.
func statusForError(err error) int {
	switch {
	case errors.Is(err, datatypes.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, datatypes.ErrUnauthenticated), errors.Is(err, datatypes.ErrInvalidCredential):
		return http.StatusUnauthorized
	case errors.Is(err, datatypes.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, datatypes.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// messageForStatus picks the user-facing message for a status. Specific
// handlers override where the client expects different wording.
func messageForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "잘못된 요청입니다."
	case http.StatusUnauthorized:
		return "인증이 필요합니다."
	case http.StatusForbidden:
		return "권한이 없습니다."
	case http.StatusNotFound:
		return "채팅 히스토리를 찾을 수 없습니다."
	default:
		return "알 수 없는 오류입니다. 다시 시도해주십시오."
	}
}

func abortWithError(c *gin.Context, err error) {
	status := statusForError(err)
	c.JSON(status, gin.H{"message": messageForStatus(status)})
}
