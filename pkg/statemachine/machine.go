// Package statemachine validates status changes against explicit adjacency tables.
package statemachine

import (
	pkgerrors "github.com/angelmondragon/codcrm-backend/pkg/errors"
)

// Machine holds the allowed forward edges for one entity's status enum.
type Machine[S ~string] struct {
	entity  string
	initial S
	edges   map[S][]S
	known   map[S]struct{}
}

// New builds a machine. States with no outgoing edges are terminal.
func New[S ~string](entity string, initial S, edges map[S][]S) *Machine[S] {
	known := map[S]struct{}{initial: {}}
	for from, targets := range edges {
		known[from] = struct{}{}
		for _, to := range targets {
			known[to] = struct{}{}
		}
	}
	return &Machine[S]{
		entity:  entity,
		initial: initial,
		edges:   edges,
		known:   known,
	}
}

// Entity names the aggregate the machine guards.
func (m *Machine[S]) Entity() string {
	return m.entity
}

// Initial returns the status every new entity starts in.
func (m *Machine[S]) Initial() S {
	return m.initial
}

// Allowed lists the statuses reachable in one step from current.
func (m *Machine[S]) Allowed(current S) []S {
	targets := m.edges[current]
	out := make([]S, len(targets))
	copy(out, targets)
	return out
}

// IsTerminal reports whether no transition leaves status.
func (m *Machine[S]) IsTerminal(status S) bool {
	if _, ok := m.known[status]; !ok {
		return false
	}
	return len(m.edges[status]) == 0
}

// CanTransition reports whether current -> target is an allowed edge.
func (m *Machine[S]) CanTransition(current, target S) bool {
	for _, candidate := range m.edges[current] {
		if candidate == target {
			return true
		}
	}
	return false
}

// Transition validates current -> target. A no-op transition is rejected.
func (m *Machine[S]) Transition(current, target S) error {
	if _, ok := m.known[target]; !ok {
		return m.reject(current, target, "unknown target status")
	}
	if current == target {
		return m.reject(current, target, "entity is already in the target status")
	}
	if !m.CanTransition(current, target) {
		return m.reject(current, target, "transition not allowed from current status")
	}
	return nil
}

func (m *Machine[S]) reject(current, target S, message string) error {
	allowed := make([]string, 0, len(m.edges[current]))
	for _, s := range m.edges[current] {
		allowed = append(allowed, string(s))
	}
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, m.entity+": "+message).WithDetails(map[string]any{
		"entity":  m.entity,
		"from":    string(current),
		"to":      string(target),
		"allowed": allowed,
	})
}
