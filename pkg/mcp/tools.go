package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/probably/pkg/alg/stats"
	"github.com/Sumatoshi-tech/probably/pkg/improvement"
	"github.com/Sumatoshi-tech/probably/pkg/observability"
	"github.com/Sumatoshi-tech/probably/pkg/report"
)

// Tool name constants.
const (
	ToolNameImprovement = "probably_improvement"
	ToolNameDensity     = "probably_beta_density"
	ToolNameDescribe    = "probably_describe"
)

// Input limits.
const (
	// MaxSampleCount caps the paired draws of one improvement call.
	MaxSampleCount = 1_000_000

	// MaxDescribeValues caps the length of a describe input.
	MaxDescribeValues = 1 << 20

	// MaxDensitySteps caps the grid resolution of a density call.
	MaxDensitySteps = 10_000

	defaultDensitySteps = 10
)

// ErrInvalidArgs indicates a tool argument is out of range.
var ErrInvalidArgs = errors.New("invalid arguments")

// ImprovementInput is the input schema for the probably_improvement tool.
type ImprovementInput struct {
	A1      float64 `json:"a1"                jsonschema:"first shape parameter of distribution A (successes + 1)"`
	B1      float64 `json:"b1"                jsonschema:"second shape parameter of distribution A (failures + 1)"`
	A2      float64 `json:"a2"                jsonschema:"first shape parameter of distribution B"`
	B2      float64 `json:"b2"                jsonschema:"second shape parameter of distribution B"`
	Samples int     `json:"samples,omitempty" jsonschema:"number of paired draws (default: 100000)"`
	Seed    uint64  `json:"seed,omitempty"    jsonschema:"random seed; zero picks one at random"`
	Exact   bool    `json:"exact,omitempty"   jsonschema:"also compute the closed-form probability when a1 is an integer"`
}

// DensityInput is the input schema for the probably_beta_density tool.
type DensityInput struct {
	A      float64   `json:"a"                jsonschema:"first shape parameter"`
	B      float64   `json:"b"                jsonschema:"second shape parameter"`
	Points []float64 `json:"points,omitempty" jsonschema:"points to evaluate; default is an even grid over [0, 1]"`
	Steps  int       `json:"steps,omitempty"  jsonschema:"number of grid intervals when points is empty (default: 10)"`
}

// DescribeInput is the input schema for the probably_describe tool.
type DescribeInput struct {
	Values []float64 `json:"values" jsonschema:"numbers to summarize"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

func validateShape(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fmt.Errorf("%w: %s must be a positive finite number, got %v", ErrInvalidArgs, name, v)
	}

	return nil
}

// ValidateImprovementInput checks the shapes and the sample count.
func ValidateImprovementInput(input ImprovementInput) error {
	for _, p := range []struct {
		name  string
		value float64
	}{{"a1", input.A1}, {"b1", input.B1}, {"a2", input.A2}, {"b2", input.B2}} {
		err := validateShape(p.name, p.value)
		if err != nil {
			return err
		}
	}

	if input.Samples < 0 || input.Samples > MaxSampleCount {
		return fmt.Errorf("%w: samples must be between 1 and %d, got %d", ErrInvalidArgs, MaxSampleCount, input.Samples)
	}

	return nil
}

func handleImprovement(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input ImprovementInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := ValidateImprovementInput(input)
	if err != nil {
		return errorResult(err)
	}

	opts := []improvement.Option{
		improvement.WithSampleCount(input.Samples),
		improvement.WithExact(input.Exact),
	}

	if input.Seed != 0 {
		opts = append(opts, improvement.WithSeed(input.Seed))
	}

	params := improvement.Params{A1: input.A1, B1: input.B1, A2: input.A2, B2: input.B2}
	kinds := params.Kinds()

	rep, err := improvement.NewEstimator(opts...).Estimate(ctx, params)

	observability.NoteRequest(ctx, observability.DensityVariant(kinds[:]...), err)

	if err != nil {
		return errorResult(err)
	}

	return jsonResult(report.NewImprovement(rep))
}

func handleDensity(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input DensityInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := errors.Join(validateShape("a", input.A), validateShape("b", input.B))
	if err != nil {
		return errorResult(err)
	}

	points := input.Points
	if len(points) == 0 {
		steps := input.Steps
		if steps == 0 {
			steps = defaultDensitySteps
		}

		if steps < 1 || steps > MaxDensitySteps {
			return errorResult(fmt.Errorf("%w: steps must be between 1 and %d, got %d", ErrInvalidArgs, MaxDensitySteps, steps))
		}

		points = stats.Range(0, 1, 1/float64(steps))
	}

	table := report.NewDensityTable(input.A, input.B, points)
	observability.NoteRequest(ctx, observability.DensityVariant(table.Kind), nil)

	return jsonResult(table)
}

func handleDescribe(
	_ context.Context, _ *mcpsdk.CallToolRequest, input DescribeInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if len(input.Values) > MaxDescribeValues {
		return errorResult(fmt.Errorf("%w: at most %d values, got %d", ErrInvalidArgs, MaxDescribeValues, len(input.Values)))
	}

	return jsonResult(report.Describe(input.Values))
}
