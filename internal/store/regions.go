package store

import (
	"database/sql/driver"
	"fmt"

	"github.com/hivseq/polyscan/internal/region"
)

// WriteRegions batch-inserts scanned regions.
func (s *Store) WriteRegions(regions []region.Region) error {
	return s.appendRows("regions", len(regions), func(i int) []driver.Value {
		r := regions[i]
		return []driver.Value{
			r.Name, int64(r.Start), int64(r.End), r.Sequence, int64(r.Count), int64(r.Windows),
		}
	})
}

// Regions returns stored regions for a sequence ordered by start, or all
// regions when name is empty.
func (s *Store) Regions(name string) ([]region.Region, error) {
	query := `SELECT seq_name, start_pos, end_pos, sequence, symbol_count, windows
		FROM regions`
	var args []any
	if name != "" {
		query += ` WHERE seq_name=?`
		args = append(args, name)
	}
	query += ` ORDER BY seq_name, start_pos`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query regions: %w", err)
	}
	defer rows.Close()

	var out []region.Region
	for rows.Next() {
		var r region.Region
		var start, end, count, windows int64
		if err := rows.Scan(&r.Name, &start, &end, &r.Sequence, &count, &windows); err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		r.Start, r.End, r.Count, r.Windows = int(start), int(end), int(count), int(windows)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate regions: %w", err)
	}
	return out, nil
}

// ClearRegions removes all stored regions.
func (s *Store) ClearRegions() error {
	_, err := s.db.Exec("DELETE FROM regions")
	return err
}
