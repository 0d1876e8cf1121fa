// Copyright (C) 2025 Didimdol Team
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package auth resolves bearer credentials to user identities.
//
// The only production implementation validates tokens against the
// Supabase auth endpoint. Tests substitute their own AuthProvider.
package auth

import "context"

// AuthInfo is the identity returned after successful validation.
type AuthInfo struct {
	// UserID is the stable identifier for the authenticated user.
	// Never empty on a successful Validate.
	UserID string

	// Email may be empty if the provider does not expose it.
	Email string
}

// AuthProvider validates a bearer token and returns the user's
// identity.
//
// Implementations must be safe for concurrent use. On failure they
// return an error wrapping datatypes.ErrUnauthenticated (no token),
// datatypes.ErrInvalidCredential (rejected token), or
// datatypes.ErrUpstream (provider unreachable).
type AuthProvider interface {
	Validate(ctx context.Context, token string) (*AuthInfo, error)
}
