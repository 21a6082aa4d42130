package interp

import (
	"bufio"
	"io"
	"os"

	"github.com/gawkgo/gawkgo/internal/ast"
	"github.com/gawkgo/gawkgo/internal/types"
)

// evalGetline implements every getline variant (spec.md §4.11's table):
// plain, into a variable, from a file, from a command pipe, and from a
// gawk coprocess (|&), each combination updating NR/FNR/NF per POSIX's
// rules on which form advances which counters. Returns 1 on success, 0 on
// EOF, -1 on an I/O error (e.g. file/command could not be opened).
func (ip *Interp) evalGetline(n *ast.GetlineExpr) int {
	scanner, advancesNR, advancesFNR, ok := ip.getlineSource(n)
	if !ok {
		return -1
	}
	if scanner == nil || !scanner.Scan() {
		return 0
	}
	line := scanner.Text()

	if n.Target == nil {
		ip.setRecord(line, false)
		ip.ensureFields()
	} else {
		ip.assignTo(n.Target, types.NumStr(line))
	}
	if advancesNR {
		ip.nr++
	}
	if advancesFNR {
		ip.fnr++
	}
	return 1
}

// getlineSource resolves which scanner to read from and which counters a
// successful read should advance, per the table in spec.md §4.11:
//
//	plain getline                 $0, NF, NR, FNR
//	getline var                   var, NR, FNR
//	getline < file                $0, NF
//	getline var < file            var
//	cmd | getline                 $0, NF, NR
//	cmd | getline var              var, NR
//	cmd |& getline                 $0, NF, NR
//	cmd |& getline var              var, NR
func (ip *Interp) getlineSource(n *ast.GetlineExpr) (scanner *bufio.Scanner, advancesNR, advancesFNR bool, ok bool) {
	switch {
	case n.Command != nil:
		cmd := ip.evalStr(n.Command)
		if ip.pending.kind != ctrlNone {
			return nil, false, false, false
		}
		var s *bufio.Scanner
		var err error
		if n.Coproc {
			s, err = ip.ioManager.GetCoprocessReader(cmd)
		} else {
			s, err = ip.ioManager.GetInputPipe(cmd)
		}
		if err != nil {
			return nil, false, false, false
		}
		return s, true, false, true

	case n.File != nil:
		name := ip.evalStr(n.File)
		if ip.pending.kind != ctrlNone {
			return nil, false, false, false
		}
		if name == "-" || name == "/dev/stdin" {
			if ip.input == nil {
				ip.setupScanner(os.Stdin)
			}
			return ip.input, false, false, true
		}
		s, err := ip.ioManager.GetInputFile(name)
		if err != nil {
			return nil, false, false, false
		}
		return s, false, false, true

	default:
		if ip.input == nil {
			var r io.Reader = ip.inputReader
			if r == nil {
				r = os.Stdin
			}
			ip.setupScanner(r)
		}
		return ip.input, true, true, true
	}
}
