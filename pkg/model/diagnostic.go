package model

import "fmt"

// DiagnosticCode classifies a soft geometric inconsistency.
type DiagnosticCode string

const (
	DiagMissingNode        DiagnosticCode = "missing-node"
	DiagMissingReference   DiagnosticCode = "missing-reference"
	DiagBendRadiusMismatch DiagnosticCode = "bend-radius-mismatch"
	DiagTangentMismatch    DiagnosticCode = "bend-tangent-mismatch"
	DiagBendAngleRange     DiagnosticCode = "bend-angle-range"
	DiagDegenerateBend     DiagnosticCode = "degenerate-bend"
	DiagDegenerateFrame    DiagnosticCode = "degenerate-frame"
	DiagInvalidSection     DiagnosticCode = "invalid-section"
	DiagUndefinedProperty  DiagnosticCode = "undefined-property"
)

// Diagnostic is a non-blocking finding attached to computed geometry. The
// geometry is still produced on a best-effort basis.
type Diagnostic struct {
	Entity  EntityRef
	Code    DiagnosticCode
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Entity, d.Code, d.Message)
}

// diagnostics accumulates findings for one entity during a recomputation.
type diagnostics struct {
	entity EntityRef
	list   []Diagnostic
}

func (d *diagnostics) add(code DiagnosticCode, format string, args ...any) {
	d.list = append(d.list, Diagnostic{
		Entity:  d.entity,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	})
}

// HasDiagnostic reports whether list contains a finding with the given code.
func HasDiagnostic(list []Diagnostic, code DiagnosticCode) bool {
	for _, d := range list {
		if d.Code == code {
			return true
		}
	}
	return false
}
