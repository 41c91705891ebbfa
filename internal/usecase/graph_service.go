package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/mvallerand/footgraph/internal/domain/graph"
	"github.com/mvallerand/footgraph/internal/platform/logging"
)

// graphEdgeReader is the slice of the store the graph builder needs.
type graphEdgeReader interface {
	CoOccurrenceEdges(ctx context.Context, filter graph.Filter) ([]graph.Edge, error)
	PlayerLabels(ctx context.Context, ids []int64) (map[int64]string, error)
}

type GraphService struct {
	store    graphEdgeReader
	log      *logging.Logger
	validate *validator.Validate
}

func NewGraphService(store graphEdgeReader, log *logging.Logger) *GraphService {
	if log == nil {
		log = logging.NewNop()
	}
	return &GraphService{
		store:    store,
		log:      log,
		validate: validator.New(),
	}
}

// Build computes the filtered co-occurrence graph. Only players that survive
// edge filtering become nodes, so an empty edge set yields an empty graph.
func (s *GraphService) Build(ctx context.Context, filter graph.Filter) (graph.Graph, error) {
	ctx, span := startUsecaseSpan(ctx, "GraphService.Build")
	defer span.End()

	if err := s.validate.Struct(filter); err != nil {
		return graph.Graph{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	edges, err := s.store.CoOccurrenceEdges(ctx, filter)
	if err != nil {
		return graph.Graph{}, fmt.Errorf("build co-occurrence edges: %w", err)
	}

	ids := make(map[int64]struct{}, len(edges)*2)
	for _, e := range edges {
		ids[e.U] = struct{}{}
		ids[e.V] = struct{}{}
	}
	sorted := make([]int64, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	labels, err := s.store.PlayerLabels(ctx, sorted)
	if err != nil {
		return graph.Graph{}, fmt.Errorf("resolve player labels: %w", err)
	}

	nodes := make([]graph.Node, 0, len(sorted))
	for _, id := range sorted {
		label, ok := labels[id]
		if !ok {
			label = fmt.Sprintf("player_%d", id)
		}
		nodes = append(nodes, graph.Node{ID: id, Label: label})
	}

	s.log.InfoContext(ctx, "graph built",
		"nodes", len(nodes),
		"edges", len(edges),
		"min_edge_weight", filter.MinEdgeWeight,
	)
	return graph.Graph{Nodes: nodes, Edges: edges}, nil
}
