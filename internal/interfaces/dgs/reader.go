package dgs

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mvallerand/footgraph/internal/domain/graph"
)

// Read parses a DGS004 document produced by Write. It understands only the
// subset Write emits: "an" events with a label attribute and "ae" events
// with a weight attribute.
func Read(r io.Reader) (graph.Graph, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		return graph.Graph{}, fmt.Errorf("empty dgs stream")
	}
	if got := strings.TrimSpace(scanner.Text()); got != header {
		return graph.Graph{}, fmt.Errorf("unexpected dgs magic %q", got)
	}
	if !scanner.Scan() {
		return graph.Graph{}, fmt.Errorf("missing dgs graph line")
	}

	var g graph.Graph
	line := 2
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		switch {
		case strings.HasPrefix(text, "an "):
			node, err := parseNode(text)
			if err != nil {
				return graph.Graph{}, fmt.Errorf("line %d: %w", line, err)
			}
			g.Nodes = append(g.Nodes, node)
		case strings.HasPrefix(text, "ae "):
			edge, err := parseEdge(text)
			if err != nil {
				return graph.Graph{}, fmt.Errorf("line %d: %w", line, err)
			}
			g.Edges = append(g.Edges, edge)
		default:
			return graph.Graph{}, fmt.Errorf("line %d: unsupported dgs event %q", line, text)
		}
	}
	if err := scanner.Err(); err != nil {
		return graph.Graph{}, fmt.Errorf("read dgs stream: %w", err)
	}
	return g, nil
}

func parseNode(text string) (graph.Node, error) {
	rest := text[len("an "):]
	nodeID, rest, err := readQuoted(rest)
	if err != nil {
		return graph.Node{}, fmt.Errorf("node id: %w", err)
	}
	id, err := playerID(nodeID)
	if err != nil {
		return graph.Node{}, err
	}

	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "label:") {
		return graph.Node{}, fmt.Errorf("node %s has no label attribute", nodeID)
	}
	label, _, err := readQuoted(rest[len("label:"):])
	if err != nil {
		return graph.Node{}, fmt.Errorf("node label: %w", err)
	}
	return graph.Node{ID: id, Label: label}, nil
}

func parseEdge(text string) (graph.Edge, error) {
	rest := text[len("ae "):]
	if _, r, err := readQuoted(rest); err != nil {
		return graph.Edge{}, fmt.Errorf("edge id: %w", err)
	} else {
		rest = r
	}

	uID, rest, err := readQuoted(strings.TrimSpace(rest))
	if err != nil {
		return graph.Edge{}, fmt.Errorf("edge endpoint: %w", err)
	}
	vID, rest, err := readQuoted(strings.TrimSpace(rest))
	if err != nil {
		return graph.Edge{}, fmt.Errorf("edge endpoint: %w", err)
	}
	u, err := playerID(uID)
	if err != nil {
		return graph.Edge{}, err
	}
	v, err := playerID(vID)
	if err != nil {
		return graph.Edge{}, err
	}

	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "weight:") {
		return graph.Edge{}, fmt.Errorf("edge %s-%s has no weight attribute", uID, vID)
	}
	weight, err := strconv.Atoi(strings.TrimSpace(rest[len("weight:"):]))
	if err != nil {
		return graph.Edge{}, fmt.Errorf("edge weight: %v", err)
	}
	return graph.Edge{U: u, V: v, Weight: weight}, nil
}

func playerID(nodeID string) (int64, error) {
	raw, ok := strings.CutPrefix(nodeID, "p")
	if !ok {
		return 0, fmt.Errorf("node id %q is not a player id", nodeID)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("node id %q is not a player id", nodeID)
	}
	return id, nil
}

// readQuoted consumes one double-quoted string honoring backslash escapes,
// returning the unescaped value and the remaining input.
func readQuoted(s string) (string, string, error) {
	if !strings.HasPrefix(s, `"`) {
		return "", "", fmt.Errorf("expected quoted string in %q", s)
	}
	var b strings.Builder
	escaped := false
	for i := 1; i < len(s); i++ {
		c := s[i]
		if escaped {
			b.WriteByte(c)
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = true
		case '"':
			return b.String(), s[i+1:], nil
		default:
			b.WriteByte(c)
		}
	}
	return "", "", fmt.Errorf("unterminated quoted string in %q", s)
}
