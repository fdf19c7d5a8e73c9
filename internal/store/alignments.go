package store

import (
	"database/sql/driver"
	"fmt"

	"github.com/hivseq/polyscan/internal/align"
)

// WriteAlignments batch-inserts alignment hits. ref_pos is stored
// 1-based, matching the results CSV.
func (s *Store) WriteAlignments(hits []align.Hit) error {
	return s.appendRows("alignments", len(hits), func(i int) []driver.Value {
		h := hits[i]
		return []driver.Value{
			h.ReadID, h.RefName, int64(h.Pos + 1), int64(h.MapQ), h.Cigar, h.Sequence,
		}
	})
}

// Alignments returns all stored hits in insertion order.
func (s *Store) Alignments() ([]align.Hit, error) {
	rows, err := s.db.Query(`SELECT read_id, ref_name, ref_pos, mapq, cigar, sequence
		FROM alignments ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query alignments: %w", err)
	}
	defer rows.Close()

	var hits []align.Hit
	for rows.Next() {
		var h align.Hit
		var pos, mapq int64
		if err := rows.Scan(&h.ReadID, &h.RefName, &pos, &mapq, &h.Cigar, &h.Sequence); err != nil {
			return nil, fmt.Errorf("scan alignment: %w", err)
		}
		h.Pos, h.MapQ = int(pos)-1, int(mapq)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alignments: %w", err)
	}
	return hits, nil
}

// CountAlignments returns the number of stored hits.
func (s *Store) CountAlignments() (int, error) {
	var n int64
	if err := s.db.QueryRow("SELECT count(*) FROM alignments").Scan(&n); err != nil {
		return 0, fmt.Errorf("count alignments: %w", err)
	}
	return int(n), nil
}

// ClearAlignments removes all stored hits.
func (s *Store) ClearAlignments() error {
	_, err := s.db.Exec("DELETE FROM alignments")
	return err
}
