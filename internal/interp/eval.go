package interp

import (
	"math"
	"strconv"

	"github.com/gawkgo/gawkgo/internal/ast"
	"github.com/gawkgo/gawkgo/internal/token"
	"github.com/gawkgo/gawkgo/internal/types"
)

// eval walks an expression node and produces its Value, per spec.md §4.7.
// If a nested user-function call unwound with next/nextfile/exit rather than
// an ordinary return, ip.pending carries that signal; eval checks it first
// and becomes a no-op, so a control-flow escape started deep inside a
// compound expression (f() + g()) never lets a later subexpression run.
func (ip *Interp) eval(e ast.Expr) types.Value {
	if ip.pending.kind != ctrlNone {
		return types.Null()
	}
	switch n := e.(type) {
	case *ast.NumLit:
		return types.Num(n.Value)
	case *ast.StrLit:
		return types.Str(n.Value)
	case *ast.RegexLit:
		return types.Regex(n.Pattern)
	case *ast.Ident:
		return ip.evalIdent(n.Name)
	case *ast.FieldExpr:
		return ip.getField(ip.fieldIndex(n))
	case *ast.IndexExpr:
		return ip.evalIndex(n)
	case *ast.GroupExpr:
		return ip.eval(n.Expr)
	case *ast.BinaryExpr:
		return ip.evalBinary(n)
	case *ast.UnaryExpr:
		return ip.evalUnary(n)
	case *ast.TernaryExpr:
		if ip.eval(n.Cond).AsBool() {
			if ip.pending.kind != ctrlNone {
				return types.Null()
			}
			return ip.eval(n.Then)
		}
		if ip.pending.kind != ctrlNone {
			return types.Null()
		}
		return ip.eval(n.Else)
	case *ast.AssignExpr:
		return ip.evalAssign(n)
	case *ast.ConcatExpr:
		return ip.evalConcat(n)
	case *ast.CallExpr:
		return ip.callUserFunction(n.Name, n.Args)
	case *ast.BuiltinExpr:
		return ip.callBuiltin(n.Func, n.Args)
	case *ast.GetlineExpr:
		return types.Num(float64(ip.evalGetline(n)))
	case *ast.IndirectCallExpr:
		return ip.evalIndirectCall(n)
	case *ast.InExpr:
		return types.Bool(ip.evalIn(n))
	case *ast.MatchExpr:
		return types.Bool(ip.evalMatch(n))
	case *ast.CommaExpr:
		// Outside of a pattern-range position (handled specially in
		// matchPattern), a bare comma expression evaluates its right side,
		// mirroring C-comma-like "evaluate both, keep the last" semantics.
		ip.eval(n.Left)
		return ip.eval(n.Right)
	default:
		return types.Null()
	}
}

func (ip *Interp) fieldIndex(n *ast.FieldExpr) int {
	if n.Index == nil {
		return 0
	}
	return int(ip.eval(n.Index).AsNum())
}

func (ip *Interp) evalIdent(name string) types.Value {
	if ip.isArrayName(name) {
		ip.warnf("awk: can't read value of %s; it's an array name", name)
		return types.Null()
	}
	return ip.lookupScalar(name)
}

// evalIndex reads arr[i,j,...], auto-vivifying the element (and the array
// itself) on first reference, per spec.md §4.1's array_access contract.
func (ip *Interp) evalIndex(n *ast.IndexExpr) types.Value {
	name := arrayName(n.Array)
	arr := ip.lookupArray(name)
	key := ip.subscript(ip.evalList(n.Index))
	return arr.Access(key)
}

func arrayName(e ast.Expr) string {
	if id, ok := e.(*ast.Ident); ok {
		return id.Name
	}
	return ""
}

func (ip *Interp) evalList(exprs []ast.Expr) []types.Value {
	vals := make([]types.Value, len(exprs))
	for i, e := range exprs {
		vals[i] = ip.eval(e)
		if ip.pending.kind != ctrlNone {
			return vals[:i+1]
		}
	}
	return vals
}

func (ip *Interp) evalIn(n *ast.InExpr) bool {
	name := arrayName(n.Array)
	arr := ip.lookupArray(name)
	key := ip.subscript(ip.evalList(n.Index))
	return arr.Contains(key)
}

// evalMatch implements `expr ~ pattern` / `expr !~ pattern` per spec.md
// §4.7: a regex literal on the RHS is used directly; any other expression
// is compiled as a dynamic pattern, honoring the live IGNORECASE value.
func (ip *Interp) evalMatch(n *ast.MatchExpr) bool {
	s := ip.eval(n.Expr).AsStr(ip.convfmt)
	if ip.pending.kind != ctrlNone {
		return false
	}
	pattern := ip.patternText(n.Pattern)
	re, err := ip.getRegexFolded(pattern)
	matched := false
	if err != nil {
		ip.warnf("awk: bad regex %q: %v", pattern, err)
	} else {
		matched = re.MatchString(s)
	}
	if n.Op == token.NOT_MATCH {
		return !matched
	}
	return matched
}

// patternText extracts the regex source from either a literal or an
// evaluated dynamic string, so callers needn't special-case RegexLit.
func (ip *Interp) patternText(e ast.Expr) string {
	if rl, ok := e.(*ast.RegexLit); ok {
		return rl.Pattern
	}
	return ip.eval(e).AsStr(ip.convfmt)
}

func (ip *Interp) evalConcat(n *ast.ConcatExpr) types.Value {
	var sb []byte
	for _, part := range n.Exprs {
		sb = append(sb, ip.eval(part).AsStr(ip.convfmt)...)
		if ip.pending.kind != ctrlNone {
			return types.Null()
		}
	}
	return types.Str(string(sb))
}

func (ip *Interp) evalUnary(n *ast.UnaryExpr) types.Value {
	switch n.Op {
	case token.NOT:
		return types.Bool(!ip.eval(n.Expr).AsBool())
	case token.SUB:
		return types.Num(-ip.eval(n.Expr).AsNum())
	case token.ADD:
		return types.Num(+ip.eval(n.Expr).AsNum())
	case token.INCR, token.DECR:
		old := ip.eval(n.Expr).AsNum()
		delta := 1.0
		if n.Op == token.DECR {
			delta = -1.0
		}
		newVal := old + delta
		ip.assignTo(n.Expr, types.Num(newVal))
		if n.Post {
			return types.Num(old)
		}
		return types.Num(newVal)
	default:
		return types.Null()
	}
}

func (ip *Interp) evalBinary(n *ast.BinaryExpr) types.Value {
	switch n.Op {
	case token.AND:
		if !ip.eval(n.Left).AsBool() {
			return types.Bool(false)
		}
		if ip.pending.kind != ctrlNone {
			return types.Null()
		}
		return types.Bool(ip.eval(n.Right).AsBool())
	case token.OR:
		if ip.eval(n.Left).AsBool() {
			return types.Bool(true)
		}
		if ip.pending.kind != ctrlNone {
			return types.Null()
		}
		return types.Bool(ip.eval(n.Right).AsBool())
	}

	left := ip.eval(n.Left)
	if ip.pending.kind != ctrlNone {
		return types.Null()
	}
	right := ip.eval(n.Right)
	if ip.pending.kind != ctrlNone {
		return types.Null()
	}

	switch n.Op {
	case token.ADD:
		return types.Num(left.AsNum() + right.AsNum())
	case token.SUB:
		return types.Num(left.AsNum() - right.AsNum())
	case token.MUL:
		return types.Num(left.AsNum() * right.AsNum())
	case token.DIV:
		return types.Num(left.AsNum() / right.AsNum())
	case token.MOD:
		return types.Num(awkMod(left.AsNum(), right.AsNum()))
	case token.POW:
		return types.Num(awkPow(left.AsNum(), right.AsNum()))
	case token.EQUALS:
		return types.Bool(types.Compare(left, right) == 0)
	case token.NOT_EQUALS:
		return types.Bool(types.Compare(left, right) != 0)
	case token.LESS:
		return types.Bool(types.Compare(left, right) < 0)
	case token.LTE:
		return types.Bool(types.Compare(left, right) <= 0)
	case token.GREATER:
		return types.Bool(types.Compare(left, right) > 0)
	case token.GTE:
		return types.Bool(types.Compare(left, right) >= 0)
	default:
		return types.Null()
	}
}

// awkMod implements AWK's `%` using fmod semantics (sign follows the
// dividend), matching spec.md §4.1: modulo by zero yields NaN rather than
// an error.
func awkMod(a, b float64) float64 {
	return math.Mod(a, b)
}

func awkPow(a, b float64) float64 {
	return math.Pow(a, b)
}

// evalAssign implements assignment and compound assignment (spec.md §4.7).
// Assignment is right-associative at the parser level; here the value is
// simply computed and stored, then returned as the expression's result.
func (ip *Interp) evalAssign(n *ast.AssignExpr) types.Value {
	if n.Op == token.ASSIGN {
		v := ip.eval(n.Right)
		if ip.pending.kind != ctrlNone {
			return types.Null()
		}
		ip.assignTo(n.Left, v)
		return v
	}
	cur := ip.eval(n.Left).AsNum()
	if ip.pending.kind != ctrlNone {
		return types.Null()
	}
	rhs := ip.eval(n.Right).AsNum()
	if ip.pending.kind != ctrlNone {
		return types.Null()
	}
	var result float64
	switch n.Op {
	case token.ADD_ASSIGN:
		result = cur + rhs
	case token.SUB_ASSIGN:
		result = cur - rhs
	case token.MUL_ASSIGN:
		result = cur * rhs
	case token.DIV_ASSIGN:
		result = cur / rhs
	case token.MOD_ASSIGN:
		result = awkMod(cur, rhs)
	case token.POW_ASSIGN:
		result = awkPow(cur, rhs)
	}
	v := types.Num(result)
	ip.assignTo(n.Left, v)
	return v
}

// assignTo stores v at the lvalue expr: a bare identifier, $index, or
// arr[index...], per spec.md §4.7's l-value list.
func (ip *Interp) assignTo(expr ast.Expr, v types.Value) {
	switch n := expr.(type) {
	case *ast.Ident:
		ip.setScalar(n.Name, v)
	case *ast.FieldExpr:
		ip.setField(ip.fieldIndex(n), v)
	case *ast.IndexExpr:
		name := arrayName(n.Array)
		key := ip.subscript(ip.evalList(n.Index))
		if name == "SYMTAB" {
			// SYMTAB[name] is an alias for the global variable named name
			// (spec.md §3 — global, regardless of the current call frame),
			// not a real array: buildSymtab snapshots globals fresh on
			// every read, so writing through the snapshot would be
			// silently discarded. Route the write back into the actual
			// global (or special variable) instead.
			if ip.setSpecialScalar(key, v) {
				return
			}
			ip.globals[key] = v
			return
		}
		arr := ip.lookupArray(name)
		arr.Set(key, v)
	case *ast.GroupExpr:
		ip.assignTo(n.Expr, v)
	}
}

// evalIndirectCall resolves @name(args) / @(expr)(args): the callee name is
// computed dynamically, then dispatched exactly as a direct call would be,
// per spec.md §4.7.
func (ip *Interp) evalIndirectCall(n *ast.IndirectCallExpr) types.Value {
	name := ip.eval(n.NameExpr).AsStr(ip.convfmt)
	if ip.pending.kind != ctrlNone {
		return types.Null()
	}
	if tok := token.LookupBuiltin(name); tok != token.ILLEGAL {
		return ip.callBuiltin(tok, n.Args)
	}
	if _, ok := ip.funcs[name]; ok {
		return ip.callUserFunction(name, n.Args)
	}
	ip.warnf("awk: call to undefined function %s", name)
	return types.Null()
}

func (ip *Interp) numToIndex(v types.Value) int {
	n := v.AsNum()
	if n < 0 {
		return 0
	}
	return int(n)
}

func itoaKey(i int) string { return strconv.Itoa(i) }
