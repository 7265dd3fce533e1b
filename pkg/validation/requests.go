package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Request size limits to prevent resource exhaustion
	MaxNodes          = 100_000
	MaxEdges          = 1_000_000
	MaxIterationLimit = 100_000
	MaxPopulationSize = 10_000
)

func init() {
	validate = validator.New()
}

// NodeInput is one node of a submitted network snapshot. IDs are opaque,
// so zero is a valid identifier.
type NodeInput struct {
	ID   uint64 `json:"id"`
	Role string `json:"role" validate:"required,oneof=Source source Target target Free free"`
}

// EdgeInput is one directed edge of a submitted network snapshot
type EdgeInput struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

// GeneticInput carries the genetic-algorithm parameters of a submission
type GeneticInput struct {
	PopulationSize int     `json:"populationSize" validate:"omitempty,min=2"`
	CrossoverRate  float64 `json:"crossoverRate" validate:"omitempty,min=0,max=1"`
	MutationRate   float64 `json:"mutationRate" validate:"omitempty,min=0,max=1"`
	Seed           int64   `json:"seed"`
}

// SubmitRequest is the full analysis submission payload
type SubmitRequest struct {
	Nodes              []NodeInput   `json:"nodes" validate:"required,min=1,dive"`
	Edges              []EdgeInput   `json:"edges" validate:"dive"`
	Algorithm          string        `json:"algorithm" validate:"required,oneof=Greedy greedy Genetic genetic"`
	IterationLimit     int           `json:"iterationLimit" validate:"omitempty,min=1"`
	NoImprovementLimit int           `json:"noImprovementLimit" validate:"omitempty,min=1"`
	Genetic            *GeneticInput `json:"genetic,omitempty"`
}

// ValidateSubmitRequest validates an analysis submission
func ValidateSubmitRequest(req *SubmitRequest) error {
	if req == nil {
		return errors.New("submit request cannot be nil")
	}

	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}

	if len(req.Nodes) > MaxNodes {
		return fmt.Errorf("Nodes: maximum %d nodes allowed, got %d", MaxNodes, len(req.Nodes))
	}
	if len(req.Edges) > MaxEdges {
		return fmt.Errorf("Edges: maximum %d edges allowed, got %d", MaxEdges, len(req.Edges))
	}
	if req.IterationLimit > MaxIterationLimit {
		return fmt.Errorf("IterationLimit: maximum %d allowed, got %d", MaxIterationLimit, req.IterationLimit)
	}
	if req.Genetic != nil && req.Genetic.PopulationSize > MaxPopulationSize {
		return fmt.Errorf("Genetic.PopulationSize: maximum %d allowed, got %d", MaxPopulationSize, req.Genetic.PopulationSize)
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	for _, e := range validationErrs {
		field := e.Field()
		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, e.Param())
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, e.Param())
		case "oneof":
			return fmt.Errorf("%s: must be one of %s", field, e.Param())
		default:
			return fmt.Errorf("%s: failed %s validation", field, e.Tag())
		}
	}
	return err
}
