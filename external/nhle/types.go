package nhle

// localizedString is the {"default": "...", "fr": "..."} shape used for
// every display name in the stats API.
type localizedString struct {
	Default string `json:"default"`
}

type standingsEnvelope struct {
	Standings []standingRow `json:"standings"`
}

type standingRow struct {
	TeamName   localizedString `json:"teamName"`
	TeamAbbrev localizedString `json:"teamAbbrev"`
}
