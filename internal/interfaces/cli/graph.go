package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mvallerand/footgraph/internal/domain/graph"
	"github.com/mvallerand/footgraph/internal/infrastructure/repository/sqlite"
	"github.com/mvallerand/footgraph/internal/interfaces/dgs"
	"github.com/mvallerand/footgraph/internal/usecase"
)

var (
	graphDBPath        string
	graphOutput        string
	graphName          string
	graphMatchIDs      []int64
	graphCompetitions  []string
	graphMinEdgeWeight int
	graphMinMinutes    int64
	graphStartersOnly  bool
	graphPositions     []string
	graphNationalities []string
	graphNameQuery     string
	graphSameTeamOnly  bool
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the player co-occurrence graph as DGS",
	RunE:  runGraph,
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().StringVar(&graphDBPath, "db", "", "Path to the sqlite store")
	graphCmd.Flags().StringVar(&graphOutput, "output", "-", "Output .dgs path, - for stdout")
	graphCmd.Flags().StringVar(&graphName, "name", "", "Graph name in the DGS header, defaults to the output file name")
	graphCmd.Flags().Int64SliceVar(&graphMatchIDs, "match-ids", nil, "Restrict to these match ids")
	graphCmd.Flags().StringSliceVar(&graphCompetitions, "competitions", nil, "Restrict to these competitions")
	graphCmd.Flags().IntVar(&graphMinEdgeWeight, "min-edge-weight", 1, "Drop edges below this shared-match count")
	graphCmd.Flags().Int64Var(&graphMinMinutes, "min-minutes", 0, "Drop appearances below this minute count")
	graphCmd.Flags().BoolVar(&graphStartersOnly, "starters-only", false, "Count only starting appearances")
	graphCmd.Flags().StringSliceVar(&graphPositions, "positions", nil, "Restrict to these positions")
	graphCmd.Flags().StringSliceVar(&graphNationalities, "nationalities", nil, "Restrict to these nationalities")
	graphCmd.Flags().StringVar(&graphNameQuery, "name-query", "", "Restrict to players whose name contains this text")
	graphCmd.Flags().BoolVar(&graphSameTeamOnly, "same-team-only", false, "Count only teammates, not opponents")
	_ = graphCmd.MarkFlagRequired("db")
}

func runGraph(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := sqlite.Open(ctx, graphDBPath, log)
	if err != nil {
		return fmt.Errorf("open store %s: %w", graphDBPath, err)
	}
	defer store.Close()

	filter := graph.Filter{
		MatchIDs:      graphMatchIDs,
		Competitions:  graphCompetitions,
		MinEdgeWeight: graphMinEdgeWeight,
		StartersOnly:  graphStartersOnly,
		Positions:     graphPositions,
		Nationalities: graphNationalities,
		NameQuery:     graphNameQuery,
		SameTeamOnly:  graphSameTeamOnly,
	}
	if cmd.Flags().Changed("min-minutes") {
		minMinutes := graphMinMinutes
		filter.MinMinutes = &minMinutes
	}

	service := usecase.NewGraphService(store, log)
	built, err := service.Build(ctx, filter)
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	name := graphName
	if graphOutput != "-" {
		f, err := os.Create(graphOutput)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
		if name == "" {
			base := filepath.Base(graphOutput)
			name = base[:len(base)-len(filepath.Ext(base))]
		}
	}

	if err := dgs.Write(out, name, built); err != nil {
		return err
	}
	cmd.PrintErrf("wrote %d nodes and %d edges\n", len(built.Nodes), len(built.Edges))
	return nil
}
