package statsbomb

// indexEntry is one season/competition row in matches/index.json.
type indexEntry struct {
	CompetitionID int64  `json:"competition_id"`
	SeasonID      int64  `json:"season_id"`
	MatchesFile   string `json:"matches"`
}

type matchItem struct {
	MatchID   int64        `json:"match_id"`
	MatchDate string       `json:"match_date"`
	HomeTeam  homeTeamItem `json:"home_team"`
	AwayTeam  awayTeamItem `json:"away_team"`
}

// Home and away sides carry differently prefixed field names in the open
// data, hence the two mirror structs.
type homeTeamItem struct {
	ID   int64  `json:"home_team_id"`
	Name string `json:"home_team_name"`
}

type awayTeamItem struct {
	ID   int64  `json:"away_team_id"`
	Name string `json:"away_team_name"`
}

type lineupTeamBlock struct {
	TeamID   int64          `json:"team_id"`
	TeamName string         `json:"team_name"`
	Lineup   []lineupPlayer `json:"lineup"`
}

type lineupPlayer struct {
	PlayerID  int64            `json:"player_id"`
	Name      string           `json:"player_name"`
	Country   *lineupCountry   `json:"country"`
	Positions []lineupPosition `json:"positions"`
}

type lineupCountry struct {
	Name string `json:"name"`
}

type lineupPosition struct {
	Position    string `json:"position"`
	From        string `json:"from"`
	StartReason string `json:"start_reason"`
}
