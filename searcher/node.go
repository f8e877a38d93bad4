package searcher

import "bowlbot/game"

const rootID = 0

// node is a vertex of the search tree. Nodes hold no game state: the state of
// a node is rebuilt by replaying the actions on its path from the root.
type node struct {
	action   game.Action // Zero for the root
	parent   int         // -1 for the root
	children []int
	visits   int
	rewards  float64
	expanded bool
}

func (n *node) mean() float64 {
	if n.visits == 0 {
		return 0
	}
	return n.rewards / float64(n.visits)
}

// tree is an arena of nodes addressed by index; children slices are the only
// ownership edges.
type tree struct {
	nodes []node
}

func newTree() *tree {
	return &tree{nodes: []node{{parent: -1}}}
}

func (t *tree) size() int {
	return len(t.nodes)
}

// expand appends one unvisited child per action. Only visited nodes expand.
func (t *tree) expand(id int, actions []game.Action) {
	if t.nodes[id].visits == 0 {
		panic("cannot expand an unvisited node")
	}
	if t.nodes[id].expanded {
		panic("node is already expanded")
	}
	children := make([]int, 0, len(actions))
	for _, a := range actions {
		children = append(children, len(t.nodes))
		t.nodes = append(t.nodes, node{action: a, parent: id})
	}
	t.nodes[id].children = children
	t.nodes[id].expanded = true
}

// bestChild returns the child with the highest UCT score among those whose
// action is allowed, the first one on ties. It returns -1 when no child is
// allowed. A nil allowed admits every child.
func (t *tree) bestChild(id int, cSquared float64, allowed func(game.Action) bool) int {
	n := &t.nodes[id]
	if len(n.children) == 0 {
		panic("node has no children")
	}

	policy := newUCT(cSquared, float64(n.visits))
	best := -1
	var bestScore float64
	for _, c := range n.children {
		child := &t.nodes[c]
		if allowed != nil && !allowed(child.action) {
			continue
		}
		score := policy.evaluate(child.rewards, float64(child.visits))
		if best < 0 || score > bestScore {
			best, bestScore = c, score
		}
	}
	return best
}

// backup adds one visit and the outcome to every node from id up to the root.
func (t *tree) backup(id int, outcome float64) {
	for id >= 0 {
		n := &t.nodes[id]
		n.visits++
		n.rewards += outcome
		id = n.parent
	}
}

// mostVisited returns the child with the most visits; ties go to the higher
// mean reward, then to the earlier child.
func (t *tree) mostVisited(id int) int {
	n := &t.nodes[id]
	if len(n.children) == 0 {
		panic("node has no children")
	}

	best := n.children[0]
	for _, c := range n.children[1:] {
		child, leader := &t.nodes[c], &t.nodes[best]
		if child.visits > leader.visits || (child.visits == leader.visits && child.mean() > leader.mean()) {
			best = c
		}
	}
	return best
}
