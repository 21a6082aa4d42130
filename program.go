package uawk

import (
	"bytes"
	"io"

	"github.com/gawkgo/gawkgo/internal/ast"
	"github.com/gawkgo/gawkgo/internal/interp"
	"github.com/gawkgo/gawkgo/internal/semantic"
)

// Program represents a compiled AWK program ready for execution. Each call
// to Run builds a fresh interp.Interp, so a single Program is safe to reuse
// across sequential calls to Run; the engine itself is single-threaded by
// design (spec.md §5) and a Program must not be run concurrently from two
// goroutines at once.
type Program struct {
	ast      *ast.Program
	resolved *semantic.ResolveResult
	source   string // Original source for debugging
}

// Run executes the compiled program with the given input and configuration.
// Returns the output as a string, or an error if execution fails.
//
// If config is nil, default configuration is used. If config.Output is
// set, output is written there and the returned string will be empty.
func (p *Program) Run(input io.Reader, config *Config) (string, error) {
	if config == nil {
		config = &Config{}
	}
	config.applyDefaults()

	ip := interp.New(p.ast)
	ip.SetResolved(p.resolved)
	configureInterp(ip, config)

	if input != nil {
		ip.SetInput(input)
	}

	var outputBuf *bytes.Buffer
	if config.Output == nil {
		outputBuf = &bytes.Buffer{}
		ip.SetOutput(outputBuf)
	} else {
		ip.SetOutput(config.Output)
	}
	if config.Stderr != nil {
		ip.SetErrOutput(config.Stderr)
	}

	code, err := ip.Run()
	if err != nil {
		return "", &RuntimeError{Message: err.Error()}
	}
	if code != 0 {
		if outputBuf != nil {
			return outputBuf.String(), &ExitError{Code: code}
		}
		return "", &ExitError{Code: code}
	}

	if outputBuf != nil {
		return outputBuf.String(), nil
	}
	return "", nil
}

// Source returns the original AWK source code.
func (p *Program) Source() string {
	return p.source
}

// configureInterp applies Config settings to a freshly built interpreter.
func configureInterp(ip *interp.Interp, config *Config) {
	args := config.Args
	if len(args) == 0 {
		args = []string{"awk"}
	}
	ip.SetArgs(args)

	if config.FS != "" && config.FS != " " {
		ip.SetVar("FS", config.FS)
	}
	if config.RS != "" && config.RS != "\n" {
		ip.SetVar("RS", config.RS)
	}
	if config.OFS != "" && config.OFS != " " {
		ip.SetVar("OFS", config.OFS)
	}
	if config.ORS != "" && config.ORS != "\n" {
		ip.SetVar("ORS", config.ORS)
	}
	for name, value := range config.Variables {
		ip.SetVar(name, value)
	}
}
