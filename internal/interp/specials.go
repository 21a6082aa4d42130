package interp

import (
	"strconv"

	"github.com/gawkgo/gawkgo/internal/types"
)

// specialNames lists every identifier that always resolves globally,
// regardless of the current @namespace, per spec.md §6.
var specialNames = map[string]bool{
	"FS": true, "RS": true, "OFS": true, "ORS": true,
	"NR": true, "NF": true, "FNR": true, "FILENAME": true,
	"SUBSEP": true, "CONVFMT": true, "OFMT": true,
	"RSTART": true, "RLENGTH": true, "IGNORECASE": true, "RT": true,
	"FPAT": true, "TEXTDOMAIN": true, "ARGC": true, "ARGV": true,
	"ENVIRON": true, "SYMTAB": true, "FUNCTAB": true, "PROCINFO": true,
}

// getSpecialScalar reads one of the scalar special variables. The second
// return is false for names that are not special (or are special arrays),
// letting the caller fall through to ordinary local/global lookup.
func (ip *Interp) getSpecialScalar(name string) (types.Value, bool) {
	switch name {
	case "FS":
		return types.Str(ip.fs), true
	case "RS":
		return types.Str(ip.rs), true
	case "OFS":
		return types.Str(ip.ofs), true
	case "ORS":
		return types.Str(ip.ors), true
	case "NR":
		return types.Num(float64(ip.nr)), true
	case "NF":
		return types.Num(float64(ip.nfValue())), true
	case "FNR":
		return types.Num(float64(ip.fnr)), true
	case "FILENAME":
		return types.Str(ip.filename), true
	case "SUBSEP":
		return types.Str(ip.subsep), true
	case "CONVFMT":
		return types.Str(ip.convfmt), true
	case "OFMT":
		return types.Str(ip.ofmt), true
	case "RSTART":
		return types.Num(float64(ip.rstart)), true
	case "RLENGTH":
		return types.Num(float64(ip.rlength)), true
	case "IGNORECASE":
		return types.Bool(ip.ignorecase), true
	case "RT":
		return types.Str(ip.rt), true
	case "FPAT":
		return types.Str(ip.fpat), true
	case "TEXTDOMAIN":
		return types.Str(ip.textdomain), true
	case "ARGC":
		return types.Num(float64(ip.argc)), true
	}
	return types.Null(), false
}

// setSpecialScalar assigns one of the scalar special variables, applying
// the side effect (if any) that keeping the cached field/record machine
// consistent requires. Returns false for non-special names.
func (ip *Interp) setSpecialScalar(name string, v types.Value) bool {
	switch name {
	case "FS":
		ip.fs = v.AsStr(ip.convfmt)
	case "RS":
		ip.rs = v.AsStr(ip.convfmt)
	case "OFS":
		ip.ofs = v.AsStr(ip.convfmt)
	case "ORS":
		ip.ors = v.AsStr(ip.convfmt)
	case "NR":
		ip.nr = int(v.AsNum())
	case "NF":
		ip.setNF(int(v.AsNum()))
	case "FNR":
		ip.fnr = int(v.AsNum())
	case "FILENAME":
		ip.filename = v.AsStr(ip.convfmt)
	case "SUBSEP":
		ip.subsep = v.AsStr(ip.convfmt)
	case "CONVFMT":
		ip.convfmt = v.AsStr(ip.convfmt)
	case "OFMT":
		ip.ofmt = v.AsStr(ip.convfmt)
	case "RSTART":
		ip.rstart = int(v.AsNum())
	case "RLENGTH":
		ip.rlength = int(v.AsNum())
	case "IGNORECASE":
		ip.ignorecase = v.AsBool()
	case "RT":
		ip.rt = v.AsStr(ip.convfmt)
	case "FPAT":
		ip.fpat = v.AsStr(ip.convfmt)
	case "TEXTDOMAIN":
		ip.textdomain = v.AsStr(ip.convfmt)
	case "ARGC":
		ip.argc = int(v.AsNum())
	default:
		return false
	}
	return true
}

// specialArray resolves the handful of array-valued special variables:
// ARGV and ENVIRON are genuine arrays; SYMTAB, FUNCTAB, and PROCINFO are
// reflection hooks synthesized on each access (spec.md §6).
func (ip *Interp) specialArray(name string) (*types.Array, bool) {
	switch name {
	case "ARGV":
		return ip.argv, true
	case "ENVIRON":
		return ip.environ, true
	case "SYMTAB":
		return ip.buildSymtab(), true
	case "FUNCTAB":
		return ip.buildFunctab(), true
	case "PROCINFO":
		return ip.buildProcinfo(), true
	}
	return nil, false
}

// buildSymtab materializes SYMTAB: a live-ish view where SYMTAB["x"] is an
// alias for the global variable x, per spec.md §3. Since Go has no
// first-class aliasing of map entries, reads get a fresh snapshot built on
// every access; writes cannot go through this snapshot (mutating it would
// be silently discarded), so assignTo's *ast.IndexExpr case special-cases
// the SYMTAB array name and routes the write directly into globals/
// specials instead of calling arr.Set on whatever this function returns.
func (ip *Interp) buildSymtab() *types.Array {
	arr := types.NewArray()
	for name, v := range ip.globals {
		arr.Set(name, v)
	}
	for name := range specialNames {
		if v, ok := ip.getSpecialScalar(name); ok {
			arr.Set(name, v)
		}
	}
	return arr
}

// buildFunctab reports function existence: FUNCTAB[name] holds the
// function's own name as a string for every user and built-in function. It is
// read-only; attempts to assign are silently absorbed by the caller.
func (ip *Interp) buildFunctab() *types.Array {
	arr := types.NewArray()
	for name := range ip.funcs {
		arr.Set(name, types.Str(name))
	}
	for name := range builtinFuncNames {
		arr.Set(name, types.Str(name))
	}
	return arr
}

// buildProcinfo exposes a minimal PROCINFO: pid, the live regex-cache
// hit/miss counters (useful for the cache-observability testable property
// in spec.md §8), and a version string.
func (ip *Interp) buildProcinfo() *types.Array {
	arr := types.NewArray()
	hits, misses := ip.regexCache.Stats()
	arr.Set("pid", types.Num(float64(procPID)))
	arr.Set("regexp_cache_hits", types.Num(float64(hits)))
	arr.Set("regexp_cache_misses", types.Num(float64(misses)))
	arr.Set("version", types.Str("gawkgo"))
	return arr
}

// subscript joins evaluated index expressions with SUBSEP into one array
// key, per spec.md §4.1's make_array_key.
func (ip *Interp) subscript(parts []types.Value) string {
	strs := make([]string, len(parts))
	for i, v := range parts {
		strs[i] = v.AsStr(ip.convfmt)
	}
	return types.MakeKey(strs, ip.subsep)
}

func (ip *Interp) itoa(i int) string { return strconv.Itoa(i) }
