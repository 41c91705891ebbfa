package player

// Player is a persisted player, natural-keyed by (Source, SourcePlayerID).
type Player struct {
	ID             int64
	Name           string
	BirthDate      *string
	Nationality    *string
	Source         string
	SourcePlayerID string
}

// Record is the upsert input. Name is overwritten on re-ingest; BirthDate and
// Nationality are filled only when the stored value is null.
type Record struct {
	Source         string
	SourcePlayerID string
	Name           string
	BirthDate      *string
	Nationality    *string
}
