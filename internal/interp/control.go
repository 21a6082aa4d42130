// Package interp is a tree-walking evaluator for the parsed AWK AST.
package interp

import "github.com/gawkgo/gawkgo/internal/types"

// ctrlKind tags the non-local control-flow result produced by statement
// execution. Rather than unwinding via panics or sentinel errors, every
// exec call returns one of these and the appropriate enclosing construct
// (loop, switch, function call, record loop, file loop, program driver)
// consumes it.
type ctrlKind uint8

const (
	ctrlNone ctrlKind = iota
	ctrlBreak
	ctrlContinue
	ctrlNext
	ctrlNextFile
	ctrlReturn
	ctrlExit
)

// ctrl carries a control-flow signal plus its payload: a return value for
// ctrlReturn, an exit status for ctrlExit.
type ctrl struct {
	kind  ctrlKind
	value types.Value
	code  int
}

var ctrlOK = ctrl{kind: ctrlNone}

func ctrlReturnValue(v types.Value) ctrl { return ctrl{kind: ctrlReturn, value: v} }
func ctrlExitCode(code int) ctrl         { return ctrl{kind: ctrlExit, code: code} }

// isJump reports whether c represents anything other than falling off the
// end of a statement normally.
func (c ctrl) isJump() bool { return c.kind != ctrlNone }
