package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ChainRow is one event_chains row as stored.
type ChainRow struct {
	ID          int64
	Title       string
	Description string
	CreatedAt   string
}

// LinkRow is one event_links row as stored. Stamp is the raw timestamp
// text copied from the source record at attach time.
type LinkRow struct {
	ID       int64
	ChainID  int64
	Kind     string
	RecordID int64
	Stamp    string
}

// InsertChain persists a new event chain and returns its id.
func (s *Store) InsertChain(ctx context.Context, title, description, createdAt string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO event_chains (title, description, created_at)
		VALUES (?, ?, ?)
	`, title, description, createdAt)
	if err != nil {
		return 0, fmt.Errorf("insert chain: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert chain: last insert id: %w", err)
	}
	return id, nil
}

// UpdateChain sets the title and description of an existing chain.
// Returns the number of rows affected; 0 means the chain does not exist.
func (s *Store) UpdateChain(ctx context.Context, id int64, title, description string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE event_chains
		SET title = ?, description = ?
		WHERE id = ?
	`, title, description, id)
	if err != nil {
		return 0, fmt.Errorf("update chain %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update chain %d: rows affected: %w", id, err)
	}
	return affected, nil
}

// GetChain returns one chain by id. The second return value is false when
// no such chain exists.
func (s *Store) GetChain(ctx context.Context, id int64) (ChainRow, bool, error) {
	var row ChainRow
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, created_at
		FROM event_chains
		WHERE id = ?
	`, id).Scan(&row.ID, &row.Title, &row.Description, &row.CreatedAt)
	if err == sql.ErrNoRows {
		return ChainRow{}, false, nil
	}
	if err != nil {
		return ChainRow{}, false, fmt.Errorf("get chain %d: %w", id, err)
	}
	return row, true, nil
}

// ListChains returns all chains, most recent first. Ties on created_at are
// broken by id descending so output is deterministic.
//
// Returns an empty slice (not nil) if no chains exist.
func (s *Store) ListChains(ctx context.Context) ([]ChainRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, created_at
		FROM event_chains
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query chains: %w", err)
	}
	defer rows.Close()

	var chains []ChainRow
	for rows.Next() {
		var row ChainRow
		if err := rows.Scan(&row.ID, &row.Title, &row.Description, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chain: %w", err)
		}
		chains = append(chains, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chains: %w", err)
	}

	if chains == nil {
		chains = []ChainRow{}
	}
	return chains, nil
}

// InsertLink persists a link between a chain and one record reference,
// returning the new link id. Uniqueness of (chain, kind, record) is the
// caller's responsibility via CountLinks; see the link manager.
func (s *Store) InsertLink(ctx context.Context, chainID int64, kind string, recordID int64, stamp string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO event_links (chain_id, source_kind, source_id, timestamp)
		VALUES (?, ?, ?, ?)
	`, chainID, kind, recordID, stamp)
	if err != nil {
		return 0, fmt.Errorf("insert link: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert link: last insert id: %w", err)
	}
	return id, nil
}

// CountLinks returns how many links a chain holds for one (kind, record)
// pair. Used as the pre-insert existence check for attach.
func (s *Store) CountLinks(ctx context.Context, chainID int64, kind string, recordID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM event_links
		WHERE chain_id = ? AND source_kind = ? AND source_id = ?
	`, chainID, kind, recordID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count links: %w", err)
	}
	return count, nil
}

// ListLinks returns all links of a chain in insertion order. Display
// ordering by parsed timestamp (malformed last) is the link manager's job;
// the store cannot sort text stamps correctly once malformed values exist.
//
// Returns an empty slice (not nil) if the chain has no links.
func (s *Store) ListLinks(ctx context.Context, chainID int64) ([]LinkRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chain_id, source_kind, source_id, timestamp
		FROM event_links
		WHERE chain_id = ?
		ORDER BY id ASC
	`, chainID)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	var links []LinkRow
	for rows.Next() {
		var row LinkRow
		var stamp sql.NullString
		if err := rows.Scan(&row.ID, &row.ChainID, &row.Kind, &row.RecordID, &stamp); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		row.Stamp = stamp.String
		links = append(links, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}

	if links == nil {
		links = []LinkRow{}
	}
	return links, nil
}

// DeleteLink removes one link from a chain. Returns the number of rows
// affected; 0 means no such link under that chain.
func (s *Store) DeleteLink(ctx context.Context, chainID, linkID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM event_links
		WHERE chain_id = ? AND id = ?
	`, chainID, linkID)
	if err != nil {
		return 0, fmt.Errorf("delete link %d: %w", linkID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete link %d: rows affected: %w", linkID, err)
	}
	return affected, nil
}
