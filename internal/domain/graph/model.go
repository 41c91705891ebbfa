package graph

// Edge is a weighted undirected co-occurrence relation between two players.
// U < V always holds (canonical pair order), so each unordered pair yields
// exactly one edge.
type Edge struct {
	U      int64 `db:"u"`
	V      int64 `db:"v"`
	Weight int   `db:"w"`
}

// Node is an exported graph vertex. Only players that survive edge filtering
// become nodes.
type Node struct {
	ID    int64
	Label string
}

// Filter restricts which appearances contribute to edge weights. All active
// predicates combine conjunctively and the result is deterministic: the same
// filter over the same store always yields the same edge set.
type Filter struct {
	MatchIDs      []int64
	Competitions  []string
	MinEdgeWeight int `validate:"min=1"`
	MinMinutes    *int64
	StartersOnly  bool
	Positions     []string
	Nationalities []string
	NameQuery     string
	SameTeamOnly  bool
}

// DefaultFilter returns a filter that keeps every appearance and every edge.
func DefaultFilter() Filter {
	return Filter{MinEdgeWeight: 1}
}

// Graph is a built co-occurrence graph. Nodes are sorted by id and edges by
// (U, V), so serializing the same graph twice yields identical output.
type Graph struct {
	Nodes []Node
	Edges []Edge
}
