// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/danielhkuo/staff-directory/models"
)

const (
	DefaultSearchLimit = 100
	MaxSearchLimit     = 500
)

// Relevance scores assigned by Search.
const (
	RelevanceExactName      = 100
	RelevanceExactExtension = 90
	RelevanceNamePrefix     = 80
	RelevanceTitlePrefix    = 70
	RelevanceOther          = 10
)

// Search ranks staff matching q in any of name, title, email, extension,
// room or department name. Results are ordered by relevance, then
// department, then name.
func (s *Store) Search(ctx context.Context, q string, limit int) ([]models.SearchResult, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []models.SearchResult{}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+staffColumns+`,
			d.extension, d.building, d.room_number,
			CASE
				WHEN LOWER(s.name) = $1 THEN 100
				WHEN s.extension = $2 THEN 90
				WHEN LOWER(s.name) LIKE $3 ESCAPE '\' THEN 80
				WHEN LOWER(s.title) LIKE $3 ESCAPE '\' THEN 70
				ELSE 10
			END AS relevance
		FROM staff s
		JOIN departments d ON d.id = s.department_id
		WHERE LOWER(s.name) LIKE $4 ESCAPE '\'
			OR LOWER(s.title) LIKE $4 ESCAPE '\'
			OR LOWER(s.email) LIKE $4 ESCAPE '\'
			OR LOWER(s.extension) LIKE $4 ESCAPE '\'
			OR LOWER(s.room_number) LIKE $4 ESCAPE '\'
			OR LOWER(d.department_name) LIKE $4 ESCAPE '\'
		ORDER BY relevance DESC, d.department_name, s.name
		LIMIT $5
	`, strings.ToLower(q), q, likePrefix(q), likeContains(q), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search staff: %w", err)
	}
	defer rows.Close()

	results := []models.SearchResult{}
	for rows.Next() {
		var r models.SearchResult
		st, err := scanStaff(rows, &r.DepartmentExtension, &r.DepartmentBuilding, &r.DepartmentRoom, &r.Relevance)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		r.Staff = st
		results = append(results, r)
	}
	return results, rows.Err()
}
