package team

import (
	"fmt"
	"strings"
)

// Team maps a human-friendly club name to the abbreviation used in
// upstream URLs (e.g. "Boston Bruins" -> "BOS").
type Team struct {
	Name         string `json:"team_name" db:"team_name"`
	Abbreviation string `json:"team_abbreviation" db:"team_abbreviation"`
}

func (t Team) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("team name is required")
	}
	if strings.TrimSpace(t.Abbreviation) == "" {
		return fmt.Errorf("team abbreviation is required")
	}

	return nil
}

// Matches reports whether query is a case-insensitive substring of the team
// name or abbreviation. An empty query matches every team.
func (t Team) Matches(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(t.Name), q) ||
		strings.Contains(strings.ToLower(t.Abbreviation), q)
}

// ValidateDirectory checks that every entry is complete and that
// abbreviations are unique. Names may repeat.
func ValidateDirectory(teams []Team) error {
	seen := make(map[string]struct{}, len(teams))
	for i, item := range teams {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("directory entry %d: %w", i, err)
		}
		key := strings.ToUpper(item.Abbreviation)
		if _, ok := seen[key]; ok {
			return fmt.Errorf("directory entry %d: duplicate abbreviation %q", i, item.Abbreviation)
		}
		seen[key] = struct{}{}
	}
	return nil
}
