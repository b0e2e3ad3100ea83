// SPDX-License-Identifier: MPL-2.0

// Package dag finds cycles in the invoke graph of commands. An invoke cycle would
// nest the same commands forever, so the integrity check reports it up front.
package dag

import (
	"fmt"
	"slices"
	"strings"
)

type (
	// CycleError names the nodes of a cycle, the first node repeated at the end.
	CycleError struct {
		Cycle []string
	}

	// Graph is a directed graph keyed by node name. An edge from A to B means that A
	// invokes B.
	Graph struct {
		adjacency map[string][]string
		// nodes keeps insertion order so that the reported cycle is deterministic.
		nodes   []string
		nodeSet map[string]bool
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("invoke cycle: %s", strings.Join(e.Cycle, " -> "))
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		adjacency: make(map[string][]string),
		nodeSet:   make(map[string]bool),
	}
}

// AddNode adds a node. Adding an existing node is a no-op.
func (g *Graph) AddNode(name string) {
	if g.nodeSet[name] {
		return
	}
	g.nodeSet[name] = true
	g.nodes = append(g.nodes, name)
}

// AddEdge adds the edge from -> to, adding both nodes when missing.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	if !slices.Contains(g.adjacency[from], to) {
		g.adjacency[from] = append(g.adjacency[from], to)
	}
}

// Cycles returns every elementary cycle reachable in a depth-first walk, each one
// reported once, starting from the node first added to the graph.
func (g *Graph) Cycles() []*CycleError {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make(map[string]int, len(g.nodes))
	var (
		path   []string
		cycles []*CycleError
		visit  func(node string)
	)
	visit = func(node string) {
		state[node] = onPath
		path = append(path, node)
		for _, next := range g.adjacency[node] {
			switch state[next] {
			case unvisited:
				visit(next)
			case onPath:
				start := slices.Index(path, next)
				cycle := append(slices.Clone(path[start:]), next)
				cycles = append(cycles, &CycleError{Cycle: cycle})
			}
		}
		path = path[:len(path)-1]
		state[node] = done
	}

	for _, node := range g.nodes {
		if state[node] == unvisited {
			visit(node)
		}
	}
	return cycles
}
