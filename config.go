package uawk

import "io"

// Config holds configuration options for AWK execution.
type Config struct {
	// FS is the input field separator (default: " ").
	// When set to a single space, runs of whitespace are treated as separators.
	// Any other single character except a backslash is a literal separator;
	// a longer value is a regular expression.
	FS string

	// RS is the input record separator (default: "\n").
	// An empty value selects the default, so Config does not select
	// paragraph mode (records separated by blank lines).
	RS string

	// OFS is the output field separator (default: " ").
	// Used when printing multiple values with print statement.
	OFS string

	// ORS is the output record separator (default: "\n").
	// Appended after each print statement.
	ORS string

	// Variables contains pre-defined variables.
	// These are set before BEGIN block execution.
	// Example: map[string]string{"threshold": "100", "prefix": "LOG:"}
	Variables map[string]string

	// Output is the writer for print/printf statements.
	// If nil, output is captured and returned from Run.
	Output io.Writer

	// Stderr is the writer for error output.
	// If nil, error output goes to os.Stderr.
	Stderr io.Writer

	// Args contains command-line arguments (ARGV).
	// Args[0] is typically the program name.
	Args []string
}

// applyDefaults fills in default values for unset Config fields.
func (c *Config) applyDefaults() {
	if c.FS == "" {
		c.FS = " "
	}
	if c.RS == "" {
		c.RS = "\n"
	}
	if c.OFS == "" {
		c.OFS = " "
	}
	if c.ORS == "" {
		c.ORS = "\n"
	}
}
