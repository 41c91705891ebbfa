package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/mvallerand/footgraph/internal/domain/graph"
	qb "github.com/mvallerand/footgraph/internal/platform/querybuilder"
)

// CoOccurrenceEdges counts, per unordered player pair, the filtered matches in
// which both players appear. The self-join keeps a1.player_id < a2.player_id
// so each pair is counted once, in canonical order. Edges come back ordered by
// (u, v), which is the ordering golden files rely on.
func (s *Store) CoOccurrenceEdges(ctx context.Context, filter graph.Filter) ([]graph.Edge, error) {
	conds := make([]qb.Condition, 0, 8)
	if len(filter.MatchIDs) > 0 {
		conds = append(conds, qb.In("a.match_id", int64Args(filter.MatchIDs)))
	}
	if len(filter.Competitions) > 0 {
		conds = append(conds, qb.In("m.competition", stringArgs(filter.Competitions)))
	}
	if filter.MinMinutes != nil {
		conds = append(conds, qb.Expr("a.minutes >= ?", *filter.MinMinutes))
	}
	if filter.StartersOnly {
		conds = append(conds, qb.Expr("a.is_starter = 1"))
	}
	if len(filter.Positions) > 0 {
		conds = append(conds, qb.In("a.position", stringArgs(filter.Positions)))
	}
	if len(filter.Nationalities) > 0 {
		conds = append(conds, qb.In("p.nationality", stringArgs(filter.Nationalities)))
	}
	if q := strings.TrimSpace(filter.NameQuery); q != "" {
		conds = append(conds, qb.Expr("LOWER(p.name) LIKE ?", "%"+strings.ToLower(q)+"%"))
	}

	inner, args, err := qb.Select("a.match_id", "a.player_id", "a.team_id").
		From("appearance a JOIN player p ON p.id = a.player_id JOIN match m ON m.id = a.match_id").
		Where(conds...).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build filtered appearances query: %w", err)
	}

	teamCond := ""
	if filter.SameTeamOnly {
		teamCond = " AND a1.team_id = a2.team_id"
	}

	query := fmt.Sprintf(`WITH filtered AS (%s)
SELECT a1.player_id AS u, a2.player_id AS v, COUNT(*) AS w
FROM filtered a1
JOIN filtered a2 ON a1.match_id = a2.match_id AND a1.player_id < a2.player_id%s
GROUP BY a1.player_id, a2.player_id
HAVING COUNT(*) >= ?
ORDER BY a1.player_id, a2.player_id`, inner, teamCond)
	args = append(args, filter.MinEdgeWeight)

	var edges []graph.Edge
	if err := s.db.SelectContext(ctx, &edges, query, args...); err != nil {
		return nil, fmt.Errorf("select co-occurrence edges: %w", err)
	}
	return edges, nil
}

// PlayerLabels resolves display names for the given player ids. Unknown ids
// are simply absent from the result.
func (s *Store) PlayerLabels(ctx context.Context, ids []int64) (map[int64]string, error) {
	if len(ids) == 0 {
		return map[int64]string{}, nil
	}

	query, args, err := qb.Select("id", "name").
		From("player").
		Where(qb.In("id", int64Args(ids))).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build player labels query: %w", err)
	}

	var rows []struct {
		ID   int64  `db:"id"`
		Name string `db:"name"`
	}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select player labels: %w", err)
	}

	out := make(map[int64]string, len(rows))
	for _, row := range rows {
		out[row.ID] = row.Name
	}
	return out, nil
}

func int64Args(values []int64) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func stringArgs(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
