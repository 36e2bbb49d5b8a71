package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// defaultConfigPath is read only when it exists; an explicit -config must.
const defaultConfigPath = "./arkaft.toml"

const (
	formatText     = "text"
	formatJSON     = "json"
	formatMarkdown = "markdown"
)

type cliOptions struct {
	configPath string
	focus      string
	format     string
	archOnly   bool
	watch      bool
	mcp        bool
	verbose    bool
	version    bool
	args       []string
}

func parseOptions(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("arkaft", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: arkaft [flags] <file-or-dir>...")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", defaultConfigPath, "Path to config file")
	fs.StringVar(&opts.focus, "focus", "", "Limit architecture checks to one category")
	fs.StringVar(&opts.format, "format", formatText, "Output format: text, json or markdown")
	fs.BoolVar(&opts.archOnly, "arch-only", false, "Run architecture rules only, skip translation checks")
	fs.BoolVar(&opts.watch, "watch", false, "Re-review files as they change")
	fs.BoolVar(&opts.mcp, "mcp", false, "Serve the MCP tool instead of reviewing files")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	opts.format = strings.ToLower(strings.TrimSpace(opts.format))
	switch opts.format {
	case formatText, formatJSON, formatMarkdown:
	case "md":
		opts.format = formatMarkdown
	default:
		return cliOptions{}, fmt.Errorf("unknown -format %q (want text, json or markdown)", opts.format)
	}
	opts.focus = strings.TrimSpace(opts.focus)
	opts.args = fs.Args()
	return opts, nil
}

func validateModeCompatibility(opts cliOptions) error {
	if opts.mcp && opts.watch {
		return fmt.Errorf("-mcp and -watch cannot be combined")
	}
	if opts.mcp && len(opts.args) > 0 {
		return fmt.Errorf("-mcp does not take path arguments")
	}
	if !opts.mcp && len(opts.args) == 0 {
		return fmt.Errorf("at least one file or directory is required")
	}
	return nil
}
