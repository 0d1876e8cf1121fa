// Copyright (C) 2025 Didimdol Team
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/didimdol/didimdol-server/datatypes"
	"github.com/jackc/pgx/v5"
)

// CreateAnalysis stores the analysis content for a chat. Writing twice
// for the same chat overwrites the content, keeping the operation
// idempotent for retried triggers.
func (p *Postgres) CreateAnalysis(ctx context.Context, a *datatypes.Analysis) error {
	ctx, span := storeTracer.Start(ctx, "Postgres.CreateAnalysis")
	defer span.End()

	err := p.pool.QueryRow(ctx,
		`INSERT INTO chat_analyses (chat_id, user_id, content)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (chat_id)
		 DO UPDATE SET content = EXCLUDED.content, created_at = now()
		 RETURNING created_at`,
		a.ChatID, a.UserID, a.Content,
	).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// GetAnalysis returns the stored analysis for a chat, or ErrNotFound.
// Ownership is checked by the caller against the returned UserID.
func (p *Postgres) GetAnalysis(ctx context.Context, chatID string) (*datatypes.Analysis, error) {
	ctx, span := storeTracer.Start(ctx, "Postgres.GetAnalysis")
	defer span.End()

	var a datatypes.Analysis
	err := p.pool.QueryRow(ctx,
		`SELECT chat_id, user_id, content, created_at
		 FROM chat_analyses WHERE chat_id = $1`,
		chatID,
	).Scan(&a.ChatID, &a.UserID, &a.Content, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, datatypes.ErrNotFound
		}
		return nil, fmt.Errorf("select analysis: %w", err)
	}
	return &a, nil
}

// MarkAnalyzed flips the chat's analyzed flag. Called only after the
// analysis content is durably stored.
func (p *Postgres) MarkAnalyzed(ctx context.Context, chatID string) error {
	ctx, span := storeTracer.Start(ctx, "Postgres.MarkAnalyzed")
	defer span.End()

	tag, err := p.pool.Exec(ctx,
		`UPDATE chats SET is_analyzed = TRUE WHERE id = $1`,
		chatID,
	)
	if err != nil {
		return fmt.Errorf("mark analyzed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return datatypes.ErrNotFound
	}
	return nil
}
