package semantics

import "fmt"

// CompilationResult is the rolled-up outcome of a compilation stage.
type CompilationResult int

const (
	ResultPending CompilationResult = iota
	ResultSuccess
	ResultWarning
	ResultFailure
)

func (r CompilationResult) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultWarning:
		return "warning"
	case ResultFailure:
		return "failure"
	default:
		return "pending"
	}
}

// DiagnosticKind classifies a reported problem by the stage that can
// explain it.
type DiagnosticKind int

const (
	DiagLexical DiagnosticKind = iota
	DiagSyntax
	DiagSemantic
	DiagType
	DiagName
)

func (k DiagnosticKind) String() string {
	switch k {
	case DiagLexical:
		return "lexical"
	case DiagSyntax:
		return "syntax"
	case DiagSemantic:
		return "semantic"
	case DiagType:
		return "type"
	case DiagName:
		return "name"
	default:
		return "unknown"
	}
}

// Diagnostic is one reported problem with a source line. Line numbers
// are zero-based internally and printed one-based.
type Diagnostic struct {
	Kind    DiagnosticKind
	Message string
	Line    int
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s error on line %d: %s", d.Kind, d.Line+1, d.Message)
}
