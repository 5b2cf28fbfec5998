package graph

import (
	"errors"
	"fmt"
)

// ErrInvalidGraph matches every graph construction failure.
var ErrInvalidGraph = errors.New("invalid graph")

// InvalidGraphError describes why a graph could not be built.
type InvalidGraphError struct {
	Entity string // "node", "edge" or "defaults"
	ID     string // node id or "source->target"
	Field  string
	Cause  error
}

// Error implements the error interface.
func (e *InvalidGraphError) Error() string {
	switch {
	case e.ID != "" && e.Field != "":
		return fmt.Sprintf("invalid graph: %s %s (field %s): %v", e.Entity, e.ID, e.Field, e.Cause)
	case e.ID != "":
		return fmt.Sprintf("invalid graph: %s %s: %v", e.Entity, e.ID, e.Cause)
	case e.Field != "":
		return fmt.Sprintf("invalid graph: %s (field %s): %v", e.Entity, e.Field, e.Cause)
	default:
		return fmt.Sprintf("invalid graph: %s: %v", e.Entity, e.Cause)
	}
}

// Unwrap returns the underlying cause.
func (e *InvalidGraphError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match ErrInvalidGraph.
func (e *InvalidGraphError) Is(target error) bool {
	return target == ErrInvalidGraph
}

func nodeError(id NodeID, field string, cause error) error {
	return &InvalidGraphError{Entity: "node", ID: string(id), Field: field, Cause: cause}
}

func edgeError(source, target NodeID, field string, cause error) error {
	return &InvalidGraphError{
		Entity: "edge",
		ID:     fmt.Sprintf("%s->%s", source, target),
		Field:  field,
		Cause:  cause,
	}
}
