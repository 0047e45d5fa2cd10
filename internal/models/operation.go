package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Operation names one transformation the processing service can apply.
type Operation string

const (
	OpGrayscale       Operation = "grayscale"
	OpRotateClockwise Operation = "rotate-clockwise"
	OpRotateCounter   Operation = "rotate-counter"
	OpFlipHorizontal  Operation = "flip-horizontal"
	OpFlipVertical    Operation = "flip-vertical"
	OpBrightness      Operation = "brightness"
	OpBlur            Operation = "blur"
)

const valuePlaceholder = "{value}"

// ParameterSpec bounds the single integer an operation takes.
type ParameterSpec struct {
	Title   string `json:"title"`
	Min     int    `json:"min"`
	Max     int    `json:"max"`
	Default int    `json:"default"`
}

func (p ParameterSpec) Contains(v int) bool {
	return v >= p.Min && v <= p.Max
}

// OperationDescriptor is the static routing and parameter policy of an operation.
type OperationDescriptor struct {
	Operation    Operation      `json:"operation"`
	Label        string         `json:"label"`
	PathTemplate string         `json:"path"`
	Parameter    *ParameterSpec `json:"parameter,omitempty"`
}

func (d OperationDescriptor) RequiresParameter() bool {
	return d.Parameter != nil
}

// Path returns the request path, substituting value into parameterized
// templates. value is ignored when the operation takes no parameter.
func (d OperationDescriptor) Path(value int) string {
	if d.Parameter == nil {
		return d.PathTemplate
	}
	return strings.Replace(d.PathTemplate, valuePlaceholder, strconv.Itoa(value), 1)
}

// OperationRequest is built per dispatch and never stored.
type OperationRequest struct {
	Operation Operation `json:"operation"`
	Parameter *int      `json:"parameter,omitempty"`
}

func (r OperationRequest) String() string {
	if r.Parameter == nil {
		return string(r.Operation)
	}
	return fmt.Sprintf("%s(%d)", r.Operation, *r.Parameter)
}

var operationOrder = []Operation{
	OpGrayscale,
	OpRotateClockwise,
	OpRotateCounter,
	OpFlipHorizontal,
	OpFlipVertical,
	OpBrightness,
	OpBlur,
}

var descriptors = map[Operation]OperationDescriptor{
	OpGrayscale: {
		Operation:    OpGrayscale,
		Label:        "Grayscale",
		PathTemplate: "/api/process/grayscale",
	},
	OpRotateClockwise: {
		Operation:    OpRotateClockwise,
		Label:        "Rotate Clockwise",
		PathTemplate: "/api/process/rotate-clockwise",
	},
	OpRotateCounter: {
		Operation:    OpRotateCounter,
		Label:        "Rotate Counter",
		PathTemplate: "/api/process/rotate-counter",
	},
	OpFlipHorizontal: {
		Operation:    OpFlipHorizontal,
		Label:        "Flip Horizontal",
		PathTemplate: "/api/process/flip-horizontal",
	},
	OpFlipVertical: {
		Operation:    OpFlipVertical,
		Label:        "Flip Vertical",
		PathTemplate: "/api/process/flip-vertical",
	},
	OpBrightness: {
		Operation:    OpBrightness,
		Label:        "Brightness",
		PathTemplate: "/api/process/brightness/" + valuePlaceholder,
		Parameter:    &ParameterSpec{Title: "Adjust Brightness", Min: -100, Max: 100, Default: 0},
	},
	OpBlur: {
		Operation:    OpBlur,
		Label:        "Blur",
		PathTemplate: "/api/process/blur/" + valuePlaceholder,
		Parameter:    &ParameterSpec{Title: "Apply Blur", Min: 2, Max: 10, Default: 2},
	},
}

// Describe returns a copy of the descriptor for op; the table itself is
// never handed out.
func Describe(op Operation) (OperationDescriptor, bool) {
	d, ok := descriptors[op]
	return d.clone(), ok
}

func (d OperationDescriptor) clone() OperationDescriptor {
	if d.Parameter != nil {
		spec := *d.Parameter
		d.Parameter = &spec
	}
	return d
}

// ParseOperation accepts the wire name of an operation, case-insensitively.
func ParseOperation(name string) (Operation, bool) {
	op := Operation(strings.ToLower(strings.TrimSpace(name)))
	_, ok := descriptors[op]
	return op, ok
}

// AllOperations lists every operation in menu order.
func AllOperations() []Operation {
	out := make([]Operation, len(operationOrder))
	copy(out, operationOrder)
	return out
}

// Descriptors lists every descriptor in menu order.
func Descriptors() []OperationDescriptor {
	out := make([]OperationDescriptor, 0, len(operationOrder))
	for _, op := range operationOrder {
		out = append(out, descriptors[op].clone())
	}
	return out
}
