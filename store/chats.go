// Copyright (C) 2025 Didimdol Team
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/didimdol/didimdol-server/datatypes"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
)

var storeTracer = otel.Tracer("didimdol.store")

// Postgres is the chat store gateway backed by a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// CreateChat inserts a new chat record with its initial history (the
// first user/assistant pair). The record's CreatedAt and UpdatedAt are
// filled from the database.
func (p *Postgres) CreateChat(ctx context.Context, rec *datatypes.ChatRecord) error {
	ctx, span := storeTracer.Start(ctx, "Postgres.CreateChat")
	defer span.End()

	historyJSON, err := json.Marshal(rec.History)
	if err != nil {
		return fmt.Errorf("encode chat history: %w", err)
	}

	err = p.pool.QueryRow(ctx,
		`INSERT INTO chats (id, user_id, title, chat_history)
		 VALUES ($1, $2, NULLIF($3, ''), $4::jsonb)
		 RETURNING created_at, updated_at`,
		rec.ID, rec.UserID, rec.Title, historyJSON,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert chat: %w", err)
	}
	return nil
}

// GetChat loads a chat by id, scoped to its owner. A missing row maps
// to ErrNotFound; an existing row owned by someone else maps to
// ErrForbidden.
func (p *Postgres) GetChat(ctx context.Context, chatID, userID string) (*datatypes.ChatRecord, error) {
	ctx, span := storeTracer.Start(ctx, "Postgres.GetChat")
	defer span.End()

	var (
		rec         datatypes.ChatRecord
		title       *string
		historyJSON []byte
	)
	err := p.pool.QueryRow(ctx,
		`SELECT id, user_id, title, chat_history, is_analyzed, created_at, updated_at
		 FROM chats WHERE id = $1`,
		chatID,
	).Scan(&rec.ID, &rec.UserID, &title, &historyJSON, &rec.IsAnalyzed, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, datatypes.ErrNotFound
		}
		return nil, fmt.Errorf("select chat: %w", err)
	}

	if rec.UserID != userID {
		return nil, datatypes.ErrForbidden
	}

	if title != nil {
		rec.Title = *title
	}
	if err := json.Unmarshal(historyJSON, &rec.History); err != nil {
		return nil, fmt.Errorf("decode chat history: %w", err)
	}
	return &rec, nil
}

// AppendTurns appends turns to an existing chat's history in a single
// statement, so a user/assistant pair can never be half-written.
// updated_at advances with the append.
func (p *Postgres) AppendTurns(ctx context.Context, chatID, userID string, turns []datatypes.Turn) error {
	ctx, span := storeTracer.Start(ctx, "Postgres.AppendTurns")
	defer span.End()

	turnsJSON, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("encode turns: %w", err)
	}

	tag, err := p.pool.Exec(ctx,
		`UPDATE chats
		 SET chat_history = chat_history || $3::jsonb, updated_at = now()
		 WHERE id = $1 AND user_id = $2`,
		chatID, userID, turnsJSON,
	)
	if err != nil {
		return fmt.Errorf("append turns: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return datatypes.ErrNotFound
	}
	return nil
}

// ListChats returns summaries of all chats owned by the user, most
// recently updated first. Title is returned as stored; callers apply
// the display fallback.
func (p *Postgres) ListChats(ctx context.Context, userID string) ([]datatypes.ChatSummary, error) {
	ctx, span := storeTracer.Start(ctx, "Postgres.ListChats")
	defer span.End()

	rows, err := p.pool.Query(ctx,
		`SELECT id, created_at, updated_at,
		        COALESCE(chat_history -> 0 ->> 'content', ''),
		        COALESCE(title, ''), is_analyzed
		 FROM chats
		 WHERE user_id = $1
		 ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var chats []datatypes.ChatSummary
	for rows.Next() {
		var s datatypes.ChatSummary
		if err := rows.Scan(&s.ChatID, &s.CreatedAt, &s.UpdatedAt, &s.FirstChat, &s.Title, &s.IsAnalyzed); err != nil {
			return nil, fmt.Errorf("scan chat summary: %w", err)
		}
		chats = append(chats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}
	return chats, nil
}
