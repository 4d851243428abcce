package importgraph

import "slices"

// step is one entry of the search queue. prev indexes the step it was reached
// from, or -1 for the target itself.
type step struct {
	module string
	prev   int
}

// FindChain returns a shortest import chain from entry down to target.
//
// The chain is ordered entry first and target last. When target equals entry
// the chain is just [entry]. The second return value is false when target
// cannot be reached from entry, for example because it is dead code or not
// imported at all; this is a normal outcome, not an error.
func FindChain(g Graph, target, entry string) ([]string, bool) {
	visited := make(map[string]struct{})
	queue := []step{{module: target, prev: -1}}

	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		if cur.module == entry {
			return unwind(queue, head), true
		}
		if _, seen := visited[cur.module]; seen {
			continue
		}
		visited[cur.module] = struct{}{}

		for _, importer := range g[cur.module] {
			queue = append(queue, step{module: importer, prev: head})
		}
	}
	return nil, false
}

// unwind follows prev links from queue[i] back to the target. Because the
// search walks from target to entry, the links already yield entry first.
func unwind(queue []step, i int) []string {
	var chain []string
	for ; i >= 0; i = queue[i].prev {
		chain = append(chain, queue[i].module)
	}
	return slices.Clip(chain)
}
