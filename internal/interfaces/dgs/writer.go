// Package dgs serializes player graphs in the DGS004 stream format
// understood by GraphStream-based viewers.
package dgs

import (
	"fmt"
	"io"
	"strings"

	"github.com/valyala/bytebufferpool"

	"github.com/mvallerand/footgraph/internal/domain/graph"
)

const header = "DGS004"

// Write streams the graph as a DGS004 document. Node ids are "p<player id>"
// and edge ids are "e_p<u>_p<v>", so output is stable for a given graph.
func Write(w io.Writer, name string, g graph.Graph) error {
	if strings.TrimSpace(name) == "" {
		name = "graph"
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	fmt.Fprintf(buf, "%s\n%s 0 0\n", header, name)
	for _, n := range g.Nodes {
		fmt.Fprintf(buf, "an \"p%d\" label:\"%s\"\n", n.ID, escape(n.Label))
	}
	for _, e := range g.Edges {
		fmt.Fprintf(buf, "ae \"e_p%d_p%d\" \"p%d\" \"p%d\" weight:%d\n", e.U, e.V, e.U, e.V, e.Weight)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write dgs stream: %w", err)
	}
	return nil
}

var escaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escape(s string) string {
	return escaper.Replace(s)
}
