package appearance

// Appearance records one player's participation in one match. Identity is the
// (MatchID, PlayerID) pair; TeamID is the side the player represented, which
// is allowed to differ from both the home and away team of the match.
type Appearance struct {
	MatchID   int64
	PlayerID  int64
	TeamID    int64
	IsStarter bool
	Minutes   *int64
	Position  *string
}

// Record is the upsert input. All three mutable fields are overwritten on
// re-ingest.
type Record struct {
	IsStarter bool
	Minutes   *int64
	Position  *string
}
