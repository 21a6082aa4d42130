package interp

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/gawkgo/gawkgo/internal/ast"
	"github.com/gawkgo/gawkgo/internal/runtime"
	"github.com/gawkgo/gawkgo/internal/semantic"
	"github.com/gawkgo/gawkgo/internal/types"
)

// Interp is the single mutable interpreter context threaded through
// execution: global variables, the active call stack, the record/field
// machine, the regex cache, and the I/O table all live here. There is
// exactly one Interp per Run; nothing is shared across runs, and nothing
// is safe for concurrent use (the engine is single-threaded by design).
type Interp struct {
	prog     *ast.Program
	funcs    map[string]*ast.FuncDecl
	resolved *semantic.ResolveResult // static types from Compile, or nil

	globals map[string]types.Value
	arrays  map[string]*types.Array
	frames  []*Frame

	// record/field state
	line        string
	lineIsStr   bool
	fields      []string
	fieldIsStr  []bool
	haveFields  bool
	haveNF      bool
	numFields   int

	// special variables
	fs, ofs, ors, rs, subsep string
	convfmt, ofmt            string
	filename, rt, fpat       string
	textdomain               string
	nr, fnr, argc            int
	rstart, rlength          int
	ignorecase               bool
	argv                     *types.Array
	environ                  *types.Array

	regexCache *runtime.RegexCache
	ioManager  *runtime.IOManager

	inputReader    io.Reader
	input          *bufio.Scanner
	lastTerminator string

	output    io.Writer
	errOutput io.Writer

	rangeActive map[*ast.Rule]bool

	rng      *rand.Rand
	prevSeed float64

	catalog Catalog

	// pending carries a next/nextfile/exit signal raised by a user-function
	// call made from inside an expression (eval has no ctrl return value of
	// its own). exec checks and clears it after every sub-evaluation that
	// could have triggered a call, so the unwind still reaches the correct
	// enclosing loop/record/file boundary exactly once.
	pending ctrl
}

// New builds an interpreter for prog.
func New(prog *ast.Program) *Interp {
	ip := &Interp{
		prog:        prog,
		funcs:       make(map[string]*ast.FuncDecl),
		globals:     make(map[string]types.Value),
		arrays:      make(map[string]*types.Array),
		fs:          " ",
		ofs:         " ",
		ors:         "\n",
		rs:          "\n",
		subsep:      "\x1c",
		convfmt:     "%.6g",
		ofmt:        "%.6g",
		textdomain:  "messages",
		argv:        types.NewArray(),
		environ:     types.NewArray(),
		regexCache:  runtime.NewRegexCache(512),
		ioManager:   runtime.NewIOManager(),
		output:      os.Stdout,
		errOutput:   os.Stderr,
		rangeActive: make(map[*ast.Rule]bool),
		rng:         rand.New(rand.NewSource(1)),
		catalog:     NewCatalog(),
	}
	for _, fn := range prog.Functions {
		ip.funcs[fn.Name] = fn
	}
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			ip.environ.Set(kv[:i], types.NumStr(kv[i+1:]))
		}
	}
	return ip
}

// SetOutput sets the stream print/printf write to.
func (ip *Interp) SetOutput(w io.Writer) { ip.output = w }

// SetErrOutput sets the stream diagnostics are written to.
func (ip *Interp) SetErrOutput(w io.Writer) { ip.errOutput = w }

// SetInput sets the reader used for bare getline / the main record loop
// when no ARGV filenames are present.
func (ip *Interp) SetInput(r io.Reader) { ip.inputReader = r }

// SetResolved installs the semantic.ResolveResult produced by Compile,
// giving callUserFunction whole-program array/scalar typing for bare
// identifier call arguments instead of the one-function static fallback
// scan (see paramUsedAsArray in functions.go). Optional: an Interp built
// without a resolved result still runs correctly, just with the weaker
// single-function heuristic for untyped arguments.
func (ip *Interp) SetResolved(r *semantic.ResolveResult) { ip.resolved = r }

// SetVar assigns name=value before BEGIN, as -v does on the CLI.
func (ip *Interp) SetVar(name, value string) {
	ip.setScalar(name, types.NumStr(value))
}

// SetArgs initializes ARGC/ARGV. args[0] is the conventional program name;
// args[1:] are treated as input file names (or var=value assignments) by
// the record loop.
func (ip *Interp) SetArgs(args []string) {
	ip.argc = len(args)
	for i, a := range args {
		ip.argv.Set(strconv.Itoa(i), types.Str(a))
	}
}

func (ip *Interp) warnf(format string, a ...interface{}) {
	fmt.Fprintf(ip.errOutput, format+"\n", a...)
}

// Run executes BEGIN, the file/record loop (if there is input), and END,
// in that order, per spec.md §4.4. The returned int is the process exit
// code implied by an `exit` statement (0 if the program never called
// exit).
func (ip *Interp) Run() (int, error) {
	exitCode := 0
	exited := false

	c := ip.runBlocks(ip.prog.Begin)
	if c.kind == ctrlExit {
		exitCode, exited = c.code, true
	}

	if !exited {
		c := ip.runMainLoop()
		if c.kind == ctrlExit {
			exitCode, exited = c.code, true
		}
	}

	// END runs regardless of an exit during BEGIN/main, but exit inside
	// END itself is final and does not re-trigger END.
	if len(ip.prog.EndBlocks) > 0 {
		c := ip.runBlocks(ip.prog.EndBlocks)
		if c.kind == ctrlExit {
			exitCode = c.code
		}
	}

	ip.ioManager.CloseAll()
	if f, ok := ip.output.(interface{ Flush() error }); ok {
		f.Flush()
	}
	return exitCode, nil
}

func (ip *Interp) runBlocks(blocks []*ast.BlockStmt) ctrl {
	for _, b := range blocks {
		if c := ip.execBlock(b); c.isJump() {
			return c
		}
	}
	return ctrlOK
}

// runMainLoop drives BEGINFILE/record-loop/ENDFILE across every ARGV entry
// that names a file (or stdin, if none do), per spec.md §4.4 steps 4-5.
func (ip *Interp) runMainLoop() ctrl {
	names := ip.inputFilenames()
	if len(names) == 0 {
		if ip.inputReader == nil {
			return ctrlOK
		}
		return ip.runFile("", ip.inputReader)
	}

	for _, name := range names {
		var r io.Reader
		if name == "-" || name == "/dev/stdin" {
			r = ip.inputReader
			if r == nil {
				r = os.Stdin
			}
		} else {
			f, err := os.Open(name)
			if err != nil {
				ip.warnf("awk: can't open file %s", name)
				continue
			}
			defer f.Close()
			r = f
		}
		if c := ip.runFile(name, r); c.isJump() {
			return c
		}
	}
	return ctrlOK
}

// inputFilenames walks ARGV[1:ARGC), applying var=value assignments
// immediately (in source order, interleaved with file processing) and
// collecting the rest as filenames.
func (ip *Interp) inputFilenames() []string {
	var names []string
	for i := 1; i < ip.argc; i++ {
		arg, _ := ip.argv.Get(strconv.Itoa(i))
		s := arg.AsStr(ip.convfmt)
		if s == "" {
			continue
		}
		if eq := strings.IndexByte(s, '='); eq > 0 && isValidVarName(s[:eq]) {
			ip.setScalar(s[:eq], types.NumStr(s[eq+1:]))
			continue
		}
		names = append(names, s)
	}
	return names
}

func isValidVarName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		ok := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (i > 0 && c >= '0' && c <= '9')
		if !ok {
			return false
		}
	}
	return true
}

func (ip *Interp) runFile(name string, r io.Reader) ctrl {
	ip.filename = name
	ip.fnr = 0
	ip.setupScanner(r)

	if c := ip.runBlocks(ip.prog.BeginFile); c.isJump() {
		if c.kind == ctrlNextFile {
			return ctrlOK
		}
		return c
	}

	c := ip.recordLoop()
	if c.kind == ctrlNextFile {
		c = ctrlOK
	}

	if ec := ip.runBlocks(ip.prog.EndFile); ec.isJump() && ec.kind != ctrlNextFile {
		return ec
	}
	return c
}

// recordLoop reads one record at a time and evaluates every rule against
// it, in source order, per spec.md §4.6.
func (ip *Interp) recordLoop() ctrl {
	if ip.input == nil {
		return ctrlOK
	}
	for ip.input.Scan() {
		ip.nr++
		ip.fnr++
		ip.rt = ip.lastTerminator
		ip.setRecord(ip.input.Text(), false)

		for _, rule := range ip.prog.Rules {
			matched, err := ip.matchPattern(rule)
			if err != nil {
				continue
			}
			if !matched {
				continue
			}
			var c ctrl
			if rule.Action == nil {
				fmt.Fprint(ip.output, ip.getRecord(), ip.ors)
				c = ctrlOK
			} else {
				c = ip.execBlock(rule.Action)
			}
			switch c.kind {
			case ctrlNext:
				goto nextRecord
			case ctrlNextFile, ctrlExit:
				return c
			case ctrlReturn, ctrlBreak, ctrlContinue:
				// stray unwind reaching the record loop: spec §7 item 7,
				// treated as an internal error and absorbed.
			}
		}
	nextRecord:
	}
	return ctrlOK
}

// matchPattern evaluates a rule's pattern against the current record.
// Range patterns (Pattern is a *ast.CommaExpr) track activation state per
// rule across records.
func (ip *Interp) matchPattern(rule *ast.Rule) (bool, error) {
	if rule.Pattern == nil {
		return true, nil
	}
	if cp, ok := rule.Pattern.(*ast.CommaExpr); ok {
		active := ip.rangeActive[rule]
		if !active {
			if !ip.eval(cp.Left).AsBool() {
				return false, nil
			}
			if ip.eval(cp.Right).AsBool() {
				return true, nil
			}
			ip.rangeActive[rule] = true
			return true, nil
		}
		if ip.eval(cp.Right).AsBool() {
			ip.rangeActive[rule] = false
		}
		return true, nil
	}
	return ip.eval(rule.Pattern).AsBool(), nil
}
