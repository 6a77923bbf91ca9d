package mcts

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"text/template"

	"github.com/awalterschulze/gographviz"
)

type statefulNode struct {
	*Node
	Action string
	Q      float32
}

// State renders the state of the node as a HTML-like label.
func (s *statefulNode) State() string {
	str := html.EscapeString(fmt.Sprintf("%v", s.state))
	return strings.Replace(str, "\n", `<BR ALIGN="LEFT"/>`, -1)
}

func (s *statefulNode) Reward() string {
	if !s.terminal {
		return "-"
	}
	return fmt.Sprintf("%v", s.reward)
}

// ToDot renders the tree as a Graphviz graph. Only visited nodes are drawn.
func (t *Tree) ToDot() string {
	g := gographviz.NewGraph()
	if err := g.SetName("G"); err != nil {
		panic(err)
	}
	if err := g.SetDir(true); err != nil {
		panic(err)
	}

	var buf bytes.Buffer
	root := &statefulNode{Node: t.nodes.Get(t.root), Action: "root"}
	queue := []*statefulNode{root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		if err := tmpl.Execute(&buf, n); err != nil {
			panic(err)
		}
		attrs := map[string]string{
			"fontname": "Monaco",
			"shape":    "none",
			"label":    buf.String(),
		}
		if err := g.AddNode("G", nodeName(n.id), attrs); err != nil {
			panic(err)
		}
		buf.Reset()

		if !n.IsExpanded() {
			continue
		}
		for a, kid := range n.children.All() {
			child := t.nodes.Get(kid)
			if child.visits == 0 {
				continue
			}
			stats := n.stats.At(a)
			sn := &statefulNode{
				Node:   child,
				Action: fmt.Sprintf("%d", a),
			}
			if stats.Count > 0 {
				sn.Q = stats.Quality()
			}
			queue = append(queue, sn)
			edgeAttrs := map[string]string{
				"label": fmt.Sprintf(`"N=%d P=%.3f"`, stats.Count, stats.Prior),
			}
			if err := g.AddEdge(nodeName(n.id), nodeName(kid), true, edgeAttrs); err != nil {
				panic(err)
			}
		}
	}
	return g.String()
}

func nodeName(ref NodeRef) string { return fmt.Sprintf("n%d", ref) }

const tmplRaw = `<
<TABLE BORDER="0" CELLBORDER="1" CELLSPACING="0">
<TR><TD>Node ID</TD><TD>{{.ID}}</TD></TR>
<TR><TD>Action</TD><TD>{{.Action}}</TD></TR>
<TR><TD>Visits</TD><TD>{{.Visits}}</TD></TR>
<TR><TD>Q</TD><TD>{{.Q}}</TD></TR>
<TR><TD>Reward</TD><TD>{{.Reward}}</TD></TR>
<TR><TD>State</TD><TD>{{.State}}</TD></TR>
</TABLE>
>`

var tmpl *template.Template

func init() {
	tmpl = template.Must(template.New("name").Parse(tmplRaw))
}
