package lang

import "github.com/mcdatapack/dpe/internal/text"

// Match is the result of a best-match search.
type Match struct {
	// Before and After are the siblings around pos when it falls into a gap
	// between the children of the innermost container.
	Before Node
	Hit    Node
	After  Node
	// Contained is the path from the root to the innermost node holding pos.
	Contained []Node
}

// Container returns the innermost node holding pos, or nil.
func (m Match) Container() Node {
	if len(m.Contained) == 0 {
		return nil
	}
	return m.Contained[len(m.Contained)-1]
}

// Parent returns the node enclosing the innermost one, or nil.
func (m Match) Parent() Node {
	if len(m.Contained) < 2 {
		return nil
	}
	return m.Contained[len(m.Contained)-2]
}

// BestMatch finds the most specific node holding pos. A node holds pos when
// pos lies in (start, end]; the root also holds its own start. The search
// descends child by child and stops either on a leaf (Hit) or in a gap
// between children (Before/After).
func BestMatch(root Node, pos text.Position) Match {
	var m Match
	if root == nil || !root.Span().ContainsInclusive(pos) {
		return m
	}

	n := root
	for {
		m.Contained = append(m.Contained, n)
		children := n.Children()
		if len(children) == 0 {
			m.Hit = n
			return m
		}

		var next, before, after Node
		for _, c := range children {
			if c == nil {
				continue
			}
			cs := c.Span()
			if holds(cs, pos) {
				next = c
				break
			}
			if !cs.End.After(pos) {
				before = c
			} else if after == nil && !cs.Start.Before(pos) {
				after = c
			}
		}
		if next == nil {
			m.Before, m.After = before, after
			return m
		}
		n = next
	}
}

func holds(s text.Span, pos text.Position) bool {
	return s.Start.Before(pos) && !pos.After(s.End)
}
