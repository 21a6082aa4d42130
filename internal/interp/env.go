package interp

import (
	"github.com/gawkgo/gawkgo/internal/ast"
	"github.com/gawkgo/gawkgo/internal/types"
)

// Frame is one user-function call's local scope: its declared parameters,
// bound either to a scalar value (passed by value) or an array reference
// (passed by reference, aliasing the caller's array). A parameter that is
// never referenced stays absent from both maps and reads as uninitialized.
type Frame struct {
	fn      *ast.FuncDecl
	scalars map[string]types.Value
	arrays  map[string]*types.Array
}

func newFrame(fn *ast.FuncDecl) *Frame {
	return &Frame{fn: fn, scalars: make(map[string]types.Value), arrays: make(map[string]*types.Array)}
}

// isParam reports whether name is one of fn's declared parameters
// (including the trailing ones used as local variables).
func (f *Frame) isParam(name string) bool {
	for _, p := range f.fn.Params {
		if p == name {
			return true
		}
	}
	return false
}

func (f *Frame) hasArray(name string) bool {
	_, ok := f.arrays[name]
	return ok
}

func (f *Frame) hasScalar(name string) bool {
	_, ok := f.scalars[name]
	return ok
}

// curFrame returns the innermost active call frame, or nil at global scope.
func (ip *Interp) curFrame() *Frame {
	if len(ip.frames) == 0 {
		return nil
	}
	return ip.frames[len(ip.frames)-1]
}

// lookupScalar resolves name to a scalar value: local parameter, special
// variable, or global. Arrays referenced in scalar context are a type
// misuse (spec §7 item 4); the caller is responsible for not doing that
// for names it already knows are arrays.
func (ip *Interp) lookupScalar(name string) types.Value {
	if f := ip.curFrame(); f != nil && f.isParam(name) {
		return f.scalars[name]
	}
	if v, ok := ip.getSpecialScalar(name); ok {
		return v
	}
	return ip.globals[name]
}

// setScalar stores a scalar value for name, honoring local-parameter
// shadowing and special-variable side effects (e.g. assigning FS updates
// the cached field separator).
func (ip *Interp) setScalar(name string, v types.Value) {
	if f := ip.curFrame(); f != nil && f.isParam(name) {
		f.scalars[name] = v
		return
	}
	if ip.setSpecialScalar(name, v) {
		return
	}
	ip.globals[name] = v
}

// lookupArray resolves name to an array container, auto-vivifying an empty
// one at global or local scope if this is the first reference. Special
// array variables (ARGV, ENVIRON) and reflection arrays (SYMTAB, FUNCTAB,
// PROCINFO) are resolved here via specialArray, after function parameters
// and before ordinary globals.
func (ip *Interp) lookupArray(name string) *types.Array {
	if f := ip.curFrame(); f != nil && f.isParam(name) {
		if arr, ok := f.arrays[name]; ok {
			return arr
		}
		arr := types.NewArray()
		f.arrays[name] = arr
		return arr
	}
	if arr, ok := ip.specialArray(name); ok {
		return arr
	}
	if arr, ok := ip.arrays[name]; ok {
		return arr
	}
	arr := types.NewArray()
	ip.arrays[name] = arr
	return arr
}

// isArrayName reports whether name is currently bound as an array
// (without vivifying it), for isarray()/typeof().
func (ip *Interp) isArrayName(name string) bool {
	if f := ip.curFrame(); f != nil && f.isParam(name) {
		return f.hasArray(name)
	}
	if _, ok := ip.specialArray(name); ok {
		return true
	}
	_, ok := ip.arrays[name]
	return ok
}

// bindArray aliases the global array name directly to arr; the current
// call frame's parameters are not consulted.
func (ip *Interp) bindArray(name string, arr *types.Array) {
	ip.arrays[name] = arr
}
