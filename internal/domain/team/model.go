package team

// Team is a persisted club. Identity across ingestion runs is the natural key
// (Source, SourceTeamID); the surrogate ID is local to one store.
type Team struct {
	ID           int64
	Name         string
	Country      *string
	Source       string
	SourceTeamID string
}

// Record is the upsert input carried by provider output. Name is overwritten
// on re-ingest; Country is filled only when the stored value is null.
type Record struct {
	Source       string
	SourceTeamID string
	Name         string
	Country      *string
}
