package config

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
)

// Flags holds the CLI overrides a run accepts, generalizing the teacher's
// single package-scope `-config` flag.Flag into a typed set of
// GNU-style long flags (pflag over stdlib flag, per this repo's CLI
// convention).
type Flags struct {
	ConfigPath    string
	ConfirmPrompt bool
	Verbose       bool
	Concurrency   int
}

// BindFlags registers a run's CLI flags on fs and returns the struct its
// values are written into once fs.Parse has run.
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.ConfigPath, "config", "", "path to the YAML run document")
	fs.BoolVar(&f.ConfirmPrompt, "confirm-prompt", false, "prompt for confirmation before destructive steps (drop database, etc.)")
	fs.BoolVar(&f.Verbose, "verbose", false, "enable verbose logging")
	fs.IntVar(&f.Concurrency, "concurrency", 0, "override the document's concurrency (0 keeps the document value)")
	return f
}

// ApplyTo overlays non-zero CLI flag values onto a parsed Document,
// matching the precedence the teacher's config.Run assumes: a flag that
// was set wins over whatever the file says.
func (f *Flags) ApplyTo(doc *Document) {
	if f.ConfirmPrompt {
		doc.Global.ConfirmPrompt = true
	}
	if f.Verbose {
		doc.Global.Verbose = true
	}
	if f.Concurrency > 0 {
		doc.Concurrency = f.Concurrency
	}
}

// Resolve parses the CLI flags in args, loads the document the --config
// flag names, and applies the flag overlay, returning the final Document.
func Resolve(fs *pflag.FlagSet, args []string) (*Document, *Flags, error) {
	f := BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, nil, errors.Wrap(err, "config: parsing flags")
	}
	if f.ConfigPath == "" {
		return nil, nil, errors.New("config: missing --config")
	}

	doc, err := Load(f.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	f.ApplyTo(doc)
	return doc, f, nil
}
