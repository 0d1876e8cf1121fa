// Copyright (C) 2025 Didimdol Team
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/didimdol/didimdol-server/datatypes"
	"go.opentelemetry.io/otel"
)

var authTracer = otel.Tracer("didimdol.auth")

// SupabaseProvider validates access tokens against the Supabase auth
// API (GET /auth/v1/user).
type SupabaseProvider struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

var _ AuthProvider = (*SupabaseProvider)(nil)

func NewSupabaseProvider(baseURL, anonKey string) *SupabaseProvider {
	return &SupabaseProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		anonKey: anonKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// supabaseUser is the subset of the Supabase user object we consume.
type supabaseUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Validate resolves the token to a user identity.
//
// An empty token fails with ErrUnauthenticated before any network call.
// A 401/403 from Supabase maps to ErrInvalidCredential; transport
// failures and other statuses map to ErrUpstream.
func (p *SupabaseProvider) Validate(ctx context.Context, token string) (*AuthInfo, error) {
	ctx, span := authTracer.Start(ctx, "SupabaseProvider.Validate")
	defer span.End()

	if strings.TrimSpace(token) == "" {
		return nil, datatypes.ErrUnauthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("apikey", p.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider unreachable: %w", datatypes.ErrUpstream)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("token rejected by identity provider: %w", datatypes.ErrInvalidCredential)
	default:
		return nil, fmt.Errorf("identity provider returned status %d: %w", resp.StatusCode, datatypes.ErrUpstream)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read identity response: %w", datatypes.ErrUpstream)
	}

	var user supabaseUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("parse identity response: %w", datatypes.ErrUpstream)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("identity response missing user id: %w", datatypes.ErrInvalidCredential)
	}

	return &AuthInfo{UserID: user.ID, Email: user.Email}, nil
}
