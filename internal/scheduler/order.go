package scheduler

import (
	"fmt"
	"sort"
	"strings"
)

// ResolveOrder topologically sorts model names against their dependency
// edges: edges[m] lists the models m depends on, which must all run before
// m. Ties between independent models break by position in names, which is
// the declaration order in configuration, so the result is deterministic.
// It fails with ErrCyclicDependency naming the cycle when no order exists.
func ResolveOrder(names []string, edges map[string][]string) ([]string, error) {
	pos := make(map[string]int, len(names))
	for i, name := range names {
		pos[name] = i
	}

	indegree := make(map[string]int, len(names))
	dependents := make(map[string][]string, len(names))
	for _, name := range names {
		indegree[name] = 0
	}
	for name, deps := range edges {
		for _, dep := range deps {
			if _, ok := pos[dep]; !ok {
				return nil, fmt.Errorf("scheduler: %q depends on %q which is not scheduled", name, dep)
			}
			indegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	// Kahn's algorithm with a declaration-ordered frontier.
	frontier := make([]string, 0, len(names))
	for _, name := range names {
		if indegree[name] == 0 {
			frontier = append(frontier, name)
		}
	}

	order := make([]string, 0, len(names))
	for len(frontier) > 0 {
		sort.Slice(frontier, func(i, j int) bool { return pos[frontier[i]] < pos[frontier[j]] })
		next := frontier[0]
		frontier = frontier[1:]
		order = append(order, next)

		for _, dep := range dependents[next] {
			indegree[dep]--
			if indegree[dep] == 0 {
				frontier = append(frontier, dep)
			}
		}
	}

	if len(order) != len(names) {
		var cycle []string
		for _, name := range names {
			if indegree[name] > 0 {
				cycle = append(cycle, name)
			}
		}
		return nil, fmt.Errorf("%w: involving %s", ErrCyclicDependency, strings.Join(cycle, ", "))
	}
	return order, nil
}
