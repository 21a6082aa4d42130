package interp

import (
	"github.com/gawkgo/gawkgo/internal/ast"
	"github.com/gawkgo/gawkgo/internal/semantic"
	"github.com/gawkgo/gawkgo/internal/types"
)

// maxCallDepth guards against unbounded user-function recursion blowing the
// Go call stack, since each AWK call frame costs one native stack frame
// here (spec.md §7 item 2).
const maxCallDepth = 1000

// callUserFunction invokes fn with argExprs, per spec.md §4.8: scalars are
// passed by value, arrays by reference, and a caller may pass fewer
// arguments than declared params, leaving the rest as fresh locals.
func (ip *Interp) callUserFunction(name string, argExprs []ast.Expr) types.Value {
	fn, ok := ip.funcs[name]
	if !ok {
		ip.warnf("awk: calling undefined function %s", name)
		return types.Null()
	}
	if len(ip.frames) >= maxCallDepth {
		ip.warnf("awk: function call stack too deep in call to %s", name)
		return types.Null()
	}

	frame := newFrame(fn)
	for i, param := range fn.Params {
		if i >= len(argExprs) {
			continue
		}
		argE := argExprs[i]
		if id, isIdent := argE.(*ast.Ident); isIdent {
			switch {
			case ip.isArrayName(id.Name):
				frame.arrays[param] = ip.lookupArray(id.Name)
				continue
			case !ip.scalarBound(id.Name) && ip.paramIsArray(name, fn, param):
				frame.arrays[param] = ip.lookupArray(id.Name)
				continue
			}
		}
		v := ip.eval(argE)
		if ip.pending.kind != ctrlNone {
			return types.Null()
		}
		frame.scalars[param] = v
	}
	// Evaluate (for side effects only) any extra arguments beyond the
	// function's declared parameter count; gawk warns but still runs them.
	for i := len(fn.Params); i < len(argExprs); i++ {
		ip.eval(argExprs[i])
		if ip.pending.kind != ctrlNone {
			return types.Null()
		}
	}

	ip.frames = append(ip.frames, frame)
	c := ip.execBlock(fn.Body)
	ip.frames = ip.frames[:len(ip.frames)-1]

	switch c.kind {
	case ctrlReturn:
		return c.value
	case ctrlNext, ctrlNextFile, ctrlExit:
		ip.pending = c
		return types.Null()
	default:
		return types.Null()
	}
}

// scalarBound reports whether name currently holds a scalar value anywhere
// visible (local param, special variable, or an already-assigned global),
// used to decide whether an unreferenced bare identifier argument should be
// vivified as a fresh array alias instead (spec.md §4.8: an argument that
// is "still untyped" takes on whatever type the callee uses it as).
func (ip *Interp) scalarBound(name string) bool {
	if f := ip.curFrame(); f != nil && f.isParam(name) {
		return f.hasScalar(name)
	}
	if _, ok := ip.getSpecialScalar(name); ok {
		return true
	}
	_, ok := ip.globals[name]
	return ok
}

// paramIsArray decides whether fn's param should bind an unbound bare-ident
// call argument by array reference. When a semantic.ResolveResult is
// available (the normal case: uawk.Compile always resolves before
// building a Program) it answers from the whole-program type inference in
// internal/semantic/resolver.go, which propagates array-ness across
// call chains (f passes its own array param on to g). Without one — an
// Interp built directly against a bare *ast.Program, bypassing Compile —
// it falls back to paramUsedAsArray's single-function static scan.
func (ip *Interp) paramIsArray(funcName string, fn *ast.FuncDecl, param string) bool {
	if ip.resolved != nil {
		if fi, ok := ip.resolved.Functions[funcName]; ok && fi.Symbols != nil {
			if sym, ok := fi.Symbols.LookupLocal(param); ok {
				return sym.Type == semantic.TypeArray
			}
		}
	}
	return paramUsedAsArray(fn, param)
}

// paramUsedAsArray reports whether param is ever subscripted, iterated with
// for-in, or deleted as an array anywhere in fn's body, mirroring how gawk
// infers array-ness for an untyped parameter at the call site. Walks the
// whole function body (not just its top-level statements) via ast.Walk
// rather than a hand-rolled recursive switch, so the one traversal in
// internal/ast/visitor.go stays the single place that knows how to descend
// every statement and expression shape.
func paramUsedAsArray(fn *ast.FuncDecl, param string) bool {
	used := false
	ast.Walk(fn.Body, func(node ast.Node) bool {
		if used {
			return false
		}
		switch n := node.(type) {
		case *ast.IndexExpr:
			if id, ok := n.Array.(*ast.Ident); ok && id.Name == param {
				used = true
			}
		case *ast.InExpr:
			if id, ok := n.Array.(*ast.Ident); ok && id.Name == param {
				used = true
			}
		case *ast.ForInStmt:
			if id, ok := n.Array.(*ast.Ident); ok && id.Name == param {
				used = true
			}
		case *ast.DeleteStmt:
			if id, ok := n.Array.(*ast.Ident); ok && id.Name == param {
				used = true
			}
		}
		return !used
	})
	return used
}
