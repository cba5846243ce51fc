package merklizer

import (
	"fmt"
	"io"

	"github.com/emicklei/dot"
)

// NodeState classifies a visited child node for diagnostic rendering.
type NodeState int

const (
	// NodeMissingWitness marks a node whose subtree is entirely absent but
	// whose hash must be supplied for the verifier to reach the root.
	NodeMissingWitness NodeState = iota
	// NodePresentLeaf marks a present chunk at level 0.
	NodePresentLeaf
	// NodePresentInternal marks a present node above level 0, recomputable
	// by the verifier.
	NodePresentInternal
)

// Observer receives the structural trace of the conceptual tree. Attaching
// one switches the estimator to a dense scan so the full static shape is
// visited; it never changes the hash count. A single observer must belong to
// a single estimation, never shared across concurrent ones.
type Observer interface {
	// Edge reports the parent-child relation between parent (on level+1)
	// and child (on level).
	Edge(level int, parent, child uint64)
	// Node reports a child's state within a group that has at least one
	// present member.
	Node(level int, child uint64, state NodeState)
	// Root reports a node of the final level.
	Root(level int, index uint64)
}

// DotObserver renders the conceptual tree as an undirected Graphviz graph,
// in the same shape the analysis draws by hand: node L<level>_<index>, red
// fill for missing witnesses, lawngreen for present leaves, gray70 for
// present internal nodes and the root.
type DotObserver struct {
	graph *dot.Graph
}

func NewDotObserver() *DotObserver {
	return &DotObserver{graph: dot.NewGraph(dot.Undirected)}
}

func (o *DotObserver) Edge(level int, parent, child uint64) {
	p := o.graph.Node(nodeName(level+1, parent))
	c := o.graph.Node(nodeName(level, child))
	o.graph.Edge(p, c)
}

func (o *DotObserver) Node(level int, child uint64, state NodeState) {
	n := o.graph.Node(nodeName(level, child))
	n.Attr("style", "filled")
	switch state {
	case NodeMissingWitness:
		n.Attr("fillcolor", "red")
	case NodePresentLeaf:
		n.Attr("fillcolor", "lawngreen")
	case NodePresentInternal:
		n.Attr("fillcolor", "gray70")
	}
}

func (o *DotObserver) Root(level int, index uint64) {
	o.graph.Node(nodeName(level, index)).Attr("style", "filled").Attr("fillcolor", "gray70")
}

// Render writes the accumulated graph in DOT syntax.
func (o *DotObserver) Render(w io.Writer) error {
	_, err := w.Write([]byte(o.graph.String()))
	return err
}

func nodeName(level int, index uint64) string {
	return fmt.Sprintf("L%d_%d", level, index)
}
