package models

import "time"

// ResultCode is the full-time (or half-time) outcome as published in the source sheets.
type ResultCode string

const (
	ResultHome ResultCode = "H"
	ResultDraw ResultCode = "D"
	ResultAway ResultCode = "A"
)

// MatchRecord is one played fixture as stored in the matches table.
// Nullable columns are pointers; a nil value means the source sheet had no data.
type MatchRecord struct {
	ID       int64   `json:"id" db:"id"`
	Div      string  `json:"div" db:"div"`
	Date     *string `json:"date,omitempty" db:"date"`
	Time     *string `json:"time,omitempty" db:"time"`
	HomeTeam string  `json:"home_team" db:"home_team"`
	AwayTeam string  `json:"away_team" db:"away_team"`

	FTHG *int        `json:"fthg,omitempty" db:"fthg"`
	FTAG *int        `json:"ftag,omitempty" db:"ftag"`
	FTR  *ResultCode `json:"ftr,omitempty" db:"ftr"`
	HTHG *int        `json:"hthg,omitempty" db:"hthg"`
	HTAG *int        `json:"htag,omitempty" db:"htag"`
	HTR  *ResultCode `json:"htr,omitempty" db:"htr"`

	HomeShots         *int `json:"hs,omitempty" db:"hs"`
	AwayShots         *int `json:"as_team,omitempty" db:"as_team"`
	HomeShotsOnTarget *int `json:"hst,omitempty" db:"hst"`
	AwayShotsOnTarget *int `json:"ast,omitempty" db:"ast"`
	HomeFouls         *int `json:"hf,omitempty" db:"hf"`
	AwayFouls         *int `json:"af,omitempty" db:"af"`
	HomeCorners       *int `json:"hc,omitempty" db:"hc"`
	AwayCorners       *int `json:"ac,omitempty" db:"ac"`
	HomeYellow        *int `json:"hy,omitempty" db:"hy"`
	AwayYellow        *int `json:"ay,omitempty" db:"ay"`
	HomeRed           *int `json:"hr,omitempty" db:"hr"`
	AwayRed           *int `json:"ar,omitempty" db:"ar"`

	Season    *string   `json:"season,omitempty" db:"season"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// HasFullTimeScore reports whether both full-time goal counts are known.
func (m MatchRecord) HasFullTimeScore() bool {
	return m.FTHG != nil && m.FTAG != nil
}

// ImportMode controls how a batch is written to the store.
type ImportMode string

const (
	ImportModeNormal    ImportMode = "normal"
	ImportModeOverwrite ImportMode = "overwrite"
)

func (m ImportMode) Valid() bool {
	return m == ImportModeNormal || m == ImportModeOverwrite
}

// MatchFilter selects matches by equality on league and season, or by season membership.
// Empty fields are ignored.
type MatchFilter struct {
	Div     string
	Season  string
	Seasons []string
}

// SeasonSummary is the number of stored matches per season.
type SeasonSummary struct {
	Season  string `json:"season"`
	Matches int    `json:"matches"`
}
