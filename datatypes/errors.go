// Copyright (C) 2025 Didimdol Team
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "errors"

// Error taxonomy for the whole service. Collaborators return (or wrap)
// one of these sentinels; boundary handlers classify with errors.Is and
// map to an HTTP status. Nothing in the codebase inspects error message
// text.
var (
	// ErrUnauthenticated means no credential was presented.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrInvalidCredential means a credential was presented but the
	// identity provider rejected it.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrForbidden means the caller is authenticated but does not own
	// the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound means the chat or analysis does not exist (or is not
	// visible to the caller).
	ErrNotFound = errors.New("not found")

	// ErrBadRequest means a required field is missing or malformed.
	ErrBadRequest = errors.New("bad request")

	// ErrUpstream means the answer service or identity provider was
	// unreachable or returned a failure.
	ErrUpstream = errors.New("upstream failure")
)
