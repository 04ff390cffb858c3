package statemachine

import (
	"strings"

	"restaurant-platform-api/apperr"
)

// Actor is who performs a transition.
type Actor string

const (
	ActorAdmin      Actor = "admin"
	ActorRestaurant Actor = "restaurant"
)

// Transition defines a valid state change and who can perform it
type Transition[S ~string] struct {
	From  S     `json:"from"`
	To    S     `json:"to"`
	Actor Actor `json:"actor"`
}

type transitionKey[S ~string] struct {
	From  S
	To    S
	Actor Actor
}

// Machine is an immutable transition table with O(1) lookup.
type Machine[S ~string] struct {
	name        string
	transitions []Transition[S]
	lookup      map[transitionKey[S]]bool
}

func New[S ~string](name string, transitions []Transition[S]) *Machine[S] {
	m := &Machine[S]{
		name:        name,
		transitions: transitions,
		lookup:      make(map[transitionKey[S]]bool, len(transitions)),
	}
	for _, t := range transitions {
		m.lookup[transitionKey[S]{t.From, t.To, t.Actor}] = true
	}
	return m
}

func (m *Machine[S]) Name() string { return m.name }

// ValidTransitionsFrom returns all valid next states from a given state
func (m *Machine[S]) ValidTransitionsFrom(status S) []S {
	var nexts []S
	seen := map[S]bool{}
	for _, t := range m.transitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks if a given actor can move from one state to another.
// The returned error is an apperr validation error naming the valid next states.
func (m *Machine[S]) CanTransition(from, to S, actor Actor) error {
	if m.lookup[transitionKey[S]{From: from, To: to, Actor: actor}] {
		return nil
	}
	return apperr.Validation("status",
		"invalid transition: "+string(from)+" → "+string(to)+
			" is not allowed for actor '"+string(actor)+"'. "+
			"Valid transitions from "+string(from)+" are: "+m.describeValidFrom(from))
}

func (m *Machine[S]) describeValidFrom(status S) string {
	nexts := m.ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	names := make([]string, len(nexts))
	for i, s := range nexts {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// Transitions returns the full table for documentation
func (m *Machine[S]) Transitions() []Transition[S] {
	out := make([]Transition[S], len(m.transitions))
	copy(out, m.transitions)
	return out
}

// TerminalStates returns the states with no outgoing transition, in table order.
func (m *Machine[S]) TerminalStates() []S {
	var terminal []S
	seen := map[S]bool{}
	for _, t := range m.transitions {
		if !seen[t.To] && len(m.ValidTransitionsFrom(t.To)) == 0 {
			terminal = append(terminal, t.To)
		}
		seen[t.To] = true
	}
	return terminal
}
