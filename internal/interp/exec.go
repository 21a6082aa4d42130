package interp

import (
	"fmt"
	"io"

	"github.com/gawkgo/gawkgo/internal/ast"
	"github.com/gawkgo/gawkgo/internal/token"
	"github.com/gawkgo/gawkgo/internal/types"
)

// resolveOutput picks the destination writer for a print/printf statement:
// plain stdout, or a redirected file/append/pipe target resolved through
// the shared I/O manager (spec.md §4.11's redirection table). Returns nil
// only if evaluating the destination expression triggered a pending
// next/nextfile/exit unwind.
func (ip *Interp) resolveOutput(n *ast.PrintStmt) io.Writer {
	if n.Redirect == token.ILLEGAL || n.Dest == nil {
		return ip.output
	}
	dest := ip.evalStr(n.Dest)
	if ip.pending.kind != ctrlNone {
		return nil
	}
	if w, ok := ip.specialOutputFile(dest); ok {
		return w
	}
	var w io.Writer
	var err error
	switch n.Redirect {
	case token.GREATER:
		w, err = ip.ioManager.GetOutputFile(dest, false)
	case token.APPEND:
		w, err = ip.ioManager.GetOutputFile(dest, true)
	case token.PIPE:
		w, err = ip.ioManager.GetOutputPipe(dest)
	case token.PIPEAMP:
		w, err = ip.ioManager.GetCoprocessWriter(dest)
	default:
		w = ip.output
	}
	if err != nil {
		ip.warnf("awk: can't redirect to %s: %v", dest, err)
		return ip.output
	}
	return w
}

// specialOutputFile maps the four special output filenames spec.md §6
// lists (/dev/stdout, /dev/stderr, /dev/null, and "-" as a /dev/stdout
// alias for print, matching gawk) onto the interpreter's own configured
// streams, rather than letting them fall through to the I/O manager's
// os.OpenFile path: the interpreter's output/errOutput may not even be
// backed by a real file (e.g. a bytes.Buffer when Config.Output is nil),
// so opening the OS device node would silently diverge from what the
// caller configured.
func (ip *Interp) specialOutputFile(name string) (io.Writer, bool) {
	switch name {
	case "/dev/stdout", "-":
		return ip.output, true
	case "/dev/stderr":
		return ip.errOutput, true
	case "/dev/null":
		return io.Discard, true
	default:
		return nil, false
	}
}

// execBlock runs every statement in a block in order, stopping at the first
// jump (spec.md §4.6).
func (ip *Interp) execBlock(b *ast.BlockStmt) ctrl {
	if b == nil {
		return ctrlOK
	}
	for _, s := range b.Stmts {
		if c := ip.exec(s); c.isJump() {
			return c
		}
	}
	return ctrlOK
}

// exec dispatches one statement. Every case either falls through normally
// (ctrlOK) or returns the unwind that should propagate to its enclosing
// construct, per the result-value design in spec.md §9.
func (ip *Interp) exec(s ast.Stmt) ctrl {
	if ip.pending.kind != ctrlNone {
		return ip.takePending()
	}
	switch n := s.(type) {
	case *ast.ExprStmt:
		ip.eval(n.Expr)
		return ip.checkPending()
	case *ast.PrintStmt:
		ip.execPrint(n)
		return ip.checkPending()
	case *ast.BlockStmt:
		return ip.execBlock(n)
	case *ast.IfStmt:
		return ip.execIf(n)
	case *ast.WhileStmt:
		return ip.execWhile(n)
	case *ast.DoWhileStmt:
		return ip.execDoWhile(n)
	case *ast.ForStmt:
		return ip.execFor(n)
	case *ast.ForInStmt:
		return ip.execForIn(n)
	case *ast.BreakStmt:
		return ctrl{kind: ctrlBreak}
	case *ast.ContinueStmt:
		return ctrl{kind: ctrlContinue}
	case *ast.NextStmt:
		return ctrl{kind: ctrlNext}
	case *ast.NextFileStmt:
		return ctrl{kind: ctrlNextFile}
	case *ast.ReturnStmt:
		if n.Value == nil {
			return ctrlReturnValue(types.Null())
		}
		v := ip.eval(n.Value)
		if c := ip.checkPending(); c.isJump() {
			return c
		}
		return ctrlReturnValue(v)
	case *ast.ExitStmt:
		code := 0
		if n.Code != nil {
			code = int(ip.eval(n.Code).AsNum())
		}
		return ctrlExitCode(code)
	case *ast.DeleteStmt:
		ip.execDelete(n)
		return ctrlOK
	case *ast.SwitchStmt:
		return ip.execSwitch(n)
	default:
		return ctrlOK
	}
}

// checkPending converts a just-set pending signal (from a function call
// made inside the statement just executed) into the ctrl this exec call
// should return, clearing it so it is consumed exactly once.
func (ip *Interp) checkPending() ctrl {
	if ip.pending.kind != ctrlNone {
		return ip.takePending()
	}
	return ctrlOK
}

func (ip *Interp) takePending() ctrl {
	c := ip.pending
	ip.pending = ctrlOK
	return c
}

func (ip *Interp) execIf(n *ast.IfStmt) ctrl {
	cond := ip.eval(n.Cond).AsBool()
	if c := ip.checkPending(); c.isJump() {
		return c
	}
	if cond {
		return ip.exec(n.Then)
	}
	if n.Else != nil {
		return ip.exec(n.Else)
	}
	return ctrlOK
}

func (ip *Interp) execWhile(n *ast.WhileStmt) ctrl {
	for {
		cond := ip.eval(n.Cond).AsBool()
		if c := ip.checkPending(); c.isJump() {
			return c
		}
		if !cond {
			return ctrlOK
		}
		c := ip.exec(n.Body)
		switch c.kind {
		case ctrlBreak:
			return ctrlOK
		case ctrlContinue:
			continue
		case ctrlNone:
			continue
		default:
			return c
		}
	}
}

func (ip *Interp) execDoWhile(n *ast.DoWhileStmt) ctrl {
	for {
		c := ip.exec(n.Body)
		switch c.kind {
		case ctrlBreak:
			return ctrlOK
		case ctrlContinue, ctrlNone:
			// fall through to condition check
		default:
			return c
		}
		cond := ip.eval(n.Cond).AsBool()
		if c := ip.checkPending(); c.isJump() {
			return c
		}
		if !cond {
			return ctrlOK
		}
	}
}

func (ip *Interp) execFor(n *ast.ForStmt) ctrl {
	if n.Init != nil {
		if c := ip.exec(n.Init); c.isJump() {
			return c
		}
	}
	for {
		if n.Cond != nil {
			cond := ip.eval(n.Cond).AsBool()
			if c := ip.checkPending(); c.isJump() {
				return c
			}
			if !cond {
				return ctrlOK
			}
		}
		c := ip.exec(n.Body)
		switch c.kind {
		case ctrlBreak:
			return ctrlOK
		case ctrlContinue, ctrlNone:
			// fall through to post
		default:
			return c
		}
		if n.Post != nil {
			if c := ip.exec(n.Post); c.isJump() {
				return c
			}
		}
	}
}

// execForIn iterates over a snapshot of the array's keys taken at the
// moment iteration begins, per spec.md §4.6: deletions during iteration
// affect lookups but not which keys are visited.
func (ip *Interp) execForIn(n *ast.ForInStmt) ctrl {
	name := arrayName(n.Array)
	arr := ip.lookupArray(name)
	keys := arr.Keys()
	for _, k := range keys {
		if !arr.Contains(k) {
			continue
		}
		ip.setScalar(n.Var.Name, types.NumStr(k))
		c := ip.exec(n.Body)
		switch c.kind {
		case ctrlBreak:
			return ctrlOK
		case ctrlContinue, ctrlNone:
			continue
		default:
			return c
		}
	}
	return ctrlOK
}

// execSwitch scans cases in source order comparing with value equality;
// default runs when nothing matched; break exits the switch (spec.md §4.6).
func (ip *Interp) execSwitch(n *ast.SwitchStmt) ctrl {
	tag := ip.eval(n.Tag)
	if c := ip.checkPending(); c.isJump() {
		return c
	}
	matchIdx := -1
	defaultIdx := -1
	for i, cc := range n.Cases {
		if cc.Value == nil {
			defaultIdx = i
			continue
		}
		if ip.caseMatches(cc.Value, tag) {
			matchIdx = i
			break
		}
	}
	if matchIdx < 0 {
		matchIdx = defaultIdx
	}
	if matchIdx < 0 {
		return ctrlOK
	}
	for i := matchIdx; i < len(n.Cases); i++ {
		for _, st := range n.Cases[i].Body {
			c := ip.exec(st)
			switch c.kind {
			case ctrlBreak:
				return ctrlOK
			case ctrlNone:
				continue
			default:
				return c
			}
		}
	}
	return ctrlOK
}

// caseMatches compares a case label against the switch tag. A regex-literal
// label matches by pattern against the tag's string form (the gawk
// extension); anything else uses ordinary value equality.
func (ip *Interp) caseMatches(label ast.Expr, tag types.Value) bool {
	if rl, ok := label.(*ast.RegexLit); ok {
		re, err := ip.getRegexFolded(rl.Pattern)
		if err != nil {
			return false
		}
		return re.MatchString(tag.AsStr(ip.convfmt))
	}
	v := ip.eval(label)
	return types.Compare(v, tag) == 0
}

// execDelete implements `delete arr[k...]` and the gawk `delete arr` whole-
// array form (spec.md §4.3/§4.1).
func (ip *Interp) execDelete(n *ast.DeleteStmt) {
	name := arrayName(n.Array)
	arr := ip.lookupArray(name)
	if len(n.Index) == 0 {
		arr.Clear()
		return
	}
	key := ip.subscript(ip.evalList(n.Index))
	arr.Delete(key)
}

// execPrint implements print/printf with optional redirection, per
// spec.md §4.6 and §4.10.
func (ip *Interp) execPrint(n *ast.PrintStmt) {
	out := ip.resolveOutput(n)
	if out == nil {
		return
	}
	if n.Printf {
		if len(n.Args) == 0 {
			return
		}
		args := ip.evalList(n.Args)
		if ip.pending.kind != ctrlNone {
			return
		}
		fmt.Fprint(out, ip.sprintf(args))
		return
	}
	if len(n.Args) == 0 {
		fmt.Fprint(out, ip.getRecord(), ip.ors)
		return
	}
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = ip.eval(a).AsStr(ip.ofmt)
		if ip.pending.kind != ctrlNone {
			return
		}
	}
	for i, p := range parts {
		if i > 0 {
			fmt.Fprint(out, ip.ofs)
		}
		fmt.Fprint(out, p)
	}
	fmt.Fprint(out, ip.ors)
}
