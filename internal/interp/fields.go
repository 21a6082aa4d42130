package interp

import (
	"bufio"
	"io"
	"strings"

	"github.com/gawkgo/gawkgo/internal/runtime"
	"github.com/gawkgo/gawkgo/internal/types"
)

// setupScanner wires a bufio.Scanner over r using a split function chosen
// from the current RS, grounded on the teacher's setupScanner/paragraphSplit
// (internal/vm/vm.go), extended here to also record RT and to split on a
// multi-character RS as a regular expression (line mode only when that RS
// does not compile).
func (ip *Interp) setupScanner(r io.Reader) {
	if r == nil {
		ip.input = nil
		return
	}
	ip.input = bufio.NewScanner(r)
	ip.input.Buffer(make([]byte, 64*1024), 64*1024*1024)

	switch {
	case ip.rs == "\n":
		ip.input.Split(func(data []byte, atEOF bool) (int, []byte, error) {
			advance, tok, err := bufio.ScanLines(data, atEOF)
			if tok != nil {
				if advance > len(tok) {
					ip.lastTerminator = "\n"
				} else {
					ip.lastTerminator = ""
				}
			}
			return advance, tok, err
		})
	case ip.rs == "":
		ip.input.Split(ip.paragraphSplit)
	case len(ip.rs) == 1:
		sep := ip.rs[0]
		ip.input.Split(func(data []byte, atEOF bool) (advance int, token []byte, err error) {
			if atEOF && len(data) == 0 {
				return 0, nil, nil
			}
			if i := strings.IndexByte(string(data), sep); i >= 0 {
				ip.lastTerminator = string(sep)
				return i + 1, data[:i], nil
			}
			if atEOF {
				ip.lastTerminator = ""
				return len(data), data, nil
			}
			return 0, nil, nil
		})
	default:
		// Multi-character RS is a regex; records are split on its
		// matches. An RS that fails to compile degrades to line mode.
		re, err := ip.regexCache.Get(ip.rs)
		if err != nil {
			ip.input.Split(bufio.ScanLines)
			break
		}
		ip.input.Split(func(data []byte, atEOF bool) (advance int, token []byte, err error) {
			if atEOF && len(data) == 0 {
				return 0, nil, nil
			}
			if loc := re.FindStringIndex(string(data)); loc != nil && (loc[1] < len(data) || atEOF) {
				ip.lastTerminator = string(data[loc[0]:loc[1]])
				return loc[1], data[:loc[0]], nil
			}
			if atEOF {
				ip.lastTerminator = ""
				return len(data), data, nil
			}
			return 0, nil, nil
		})
	}
}

// paragraphSplit implements RS="" paragraph mode: records are separated by
// one or more blank lines, with leading blank lines skipped. Grounded on
// the teacher's paragraphSplit (internal/vm/vm.go).
func (ip *Interp) paragraphSplit(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	start := 0
	for start < len(data) && data[start] == '\n' {
		start++
	}
	if start >= len(data) {
		if atEOF {
			return len(data), nil, nil
		}
		return 0, nil, nil
	}
	for i := start; i < len(data); i++ {
		if i > 0 && data[i] == '\n' && data[i-1] == '\n' {
			ip.lastTerminator = "\n\n"
			return i + 1, data[start : i-1], nil
		}
	}
	if atEOF {
		end := len(data)
		for end > start && data[end-1] == '\n' {
			end--
		}
		ip.lastTerminator = ""
		return len(data), data[start:end], nil
	}
	return 0, nil, nil
}

// setRecord installs a new $0, deferring field splitting until a field is
// actually read (lazy splitting, grounded on the teacher's setLine).
// explicit marks whether the record came from an assignment to $0 rather
// than from input (controls whether it prints as Str or NumStr).
func (ip *Interp) setRecord(line string, explicit bool) {
	ip.line = line
	ip.lineIsStr = explicit
	ip.haveFields = false
	ip.haveNF = false
	ip.numFields = 0
}

func (ip *Interp) getRecord() string {
	if !ip.haveFields && ip.numFields == 0 {
		return ip.line
	}
	return ip.line
}

// ensureFields performs field splitting per spec.md §4.5, checked in
// order: FPAT match-fields, default whitespace split, single-char split,
// regex split.
func (ip *Interp) ensureFields() {
	if ip.haveFields {
		return
	}
	ip.haveFields = true
	ip.haveNF = true
	ip.fields = ip.fields[:0]

	line := ip.line
	switch {
	case line == "" && ip.fpat == "":
		ip.numFields = 0
	case ip.fpat != "":
		re, err := ip.getRegexFolded(ip.fpat)
		if err != nil {
			ip.warnf("awk: FPAT: %v", err)
			ip.fields = append(ip.fields, line)
		} else {
			for _, loc := range re.FindAllStringIndex(line, -1) {
				ip.fields = append(ip.fields, line[loc[0]:loc[1]])
			}
		}
	case ip.fs == " ":
		ip.splitWhitespace(line)
	case len(ip.fs) == 1 && ip.fs != "\\":
		ip.splitSingleChar(line, ip.fs[0])
	case ip.fs == "":
		for _, r := range line {
			ip.fields = append(ip.fields, string(r))
		}
	default:
		re, err := ip.getRegexFolded(ip.fs)
		if err != nil {
			ip.warnf("awk: FS: %v", err)
			ip.fields = append(ip.fields, line)
		} else {
			ip.fields = append(ip.fields, re.Split(line, -1)...)
		}
	}
	ip.numFields = len(ip.fields)
	for len(ip.fieldIsStr) < ip.numFields {
		ip.fieldIsStr = append(ip.fieldIsStr, false)
	}
}

func (ip *Interp) splitWhitespace(line string) {
	n := len(line)
	i := 0
	for i < n && isAWKSpace(line[i]) {
		i++
	}
	for i < n {
		start := i
		for i < n && !isAWKSpace(line[i]) {
			i++
		}
		ip.fields = append(ip.fields, line[start:i])
		for i < n && isAWKSpace(line[i]) {
			i++
		}
	}
}

func isAWKSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' }

func (ip *Interp) splitSingleChar(line string, sep byte) {
	for {
		idx := strings.IndexByte(line, sep)
		if idx < 0 {
			break
		}
		ip.fields = append(ip.fields, line[:idx])
		line = line[idx+1:]
	}
	ip.fields = append(ip.fields, line)
}

// getField returns $index. $0 is the (possibly lazily-rebuilt) record;
// $1..$NF are Strnum unless explicitly assigned as a string.
func (ip *Interp) getField(index int) types.Value {
	if index < 0 {
		return types.Str("")
	}
	if index == 0 {
		if ip.lineIsStr {
			return types.Str(ip.line)
		}
		return types.NumStr(ip.line)
	}
	ip.ensureFields()
	idx := index - 1
	if idx >= ip.numFields {
		return types.Str("")
	}
	if ip.fieldIsStr[idx] {
		return types.Str(ip.fields[idx])
	}
	return types.NumStr(ip.fields[idx])
}

// setField assigns $index, per spec.md §3's $0/fields[] consistency
// invariant: setting $i (i>=1) rebuilds $0 at once, joining the fields with
// the OFS current at the time of the assignment (a later change to OFS is
// not reflected in $0 until the next field assignment); setting $0
// re-splits.
func (ip *Interp) setField(index int, v types.Value) {
	if index < 0 {
		return
	}
	if index == 0 {
		ip.line = v.AsStr(ip.convfmt)
		ip.lineIsStr = v.IsStr()
		ip.haveFields = false
		ip.haveNF = false
		ip.ensureFields()
		return
	}
	ip.ensureFields()
	idx := index - 1
	for idx >= ip.numFields {
		ip.fields = append(ip.fields, "")
		ip.fieldIsStr = append(ip.fieldIsStr, false)
		ip.numFields++
	}
	ip.fields[idx] = v.AsStr(ip.convfmt)
	ip.fieldIsStr[idx] = v.IsStr()
	ip.rebuildLine()
}

// setNF implements assignment to NF: extending pads with empty fields,
// shrinking truncates, and $0 is rebuilt either way (spec.md §9's open
// question, resolved toward the POSIX-correct truncating behavior).
func (ip *Interp) setNF(n int) {
	ip.ensureFields()
	if n < 0 {
		n = 0
	}
	for ip.numFields < n {
		ip.fields = append(ip.fields, "")
		ip.fieldIsStr = append(ip.fieldIsStr, false)
		ip.numFields++
	}
	if n < ip.numFields {
		ip.fields = ip.fields[:n]
		ip.fieldIsStr = ip.fieldIsStr[:n]
		ip.numFields = n
	}
	ip.rebuildLine()
}

// rebuildLine rebuilds $0 from fields joined by OFS, per spec.md §4.5/§4.6.
func (ip *Interp) rebuildLine() {
	ip.line = strings.Join(ip.fields[:ip.numFields], ip.ofs)
	ip.lineIsStr = false
}

// nfValue returns NF, forcing a field count if not yet known.
func (ip *Interp) nfValue() int {
	ip.ensureFields()
	return ip.numFields
}

// getRegexFolded compiles pattern, honoring the live IGNORECASE value.
func (ip *Interp) getRegexFolded(pattern string) (*runtime.Regex, error) {
	return ip.regexCache.GetFold(pattern, ip.ignorecase)
}
