package cliutil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/simplesearch/simplesearch/internal/cliopt"
	"github.com/simplesearch/simplesearch/internal/config"
	"github.com/simplesearch/simplesearch/internal/logging"
	"github.com/simplesearch/simplesearch/simplesearch"
	"github.com/simplesearch/simplesearch/simplesearch/storage"
)

// ConfigEnv names the config file used when --config is not given.
const ConfigEnv = "SIMPLESEARCH_CONFIG"

// Env is the state shared by all commands of one CLI invocation.
type Env struct {
	Global cliopt.GlobalOptions
	Config *config.Config
	Logger *slog.Logger

	registry *simplesearch.Registry
	cleanup  func()
}

// Setup loads the config file, builds the logger and the index registry.
func (e *Env) Setup(stderr io.Writer) error {
	path := e.Global.ConfigPath
	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	e.Config = config.Default()
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		e.Config = cfg
	}

	lc := e.Config.Logging
	if e.Global.LogLevel != "" {
		lc.Level = e.Global.LogLevel
	}
	if e.Global.LogFormat != "" {
		lc.Format = e.Global.LogFormat
	}
	if e.Global.LogFile != "" {
		lc.File = e.Global.LogFile
	}
	logger, cleanup, err := logging.Setup(lc, stderr)
	if err != nil {
		return simplesearch.Wrap(simplesearch.ErrConfig, "logging", err)
	}
	e.Logger = logger
	e.cleanup = cleanup

	opts := simplesearch.DefaultOptions()
	opts.Logger = logger
	e.registry = simplesearch.NewRegistry(opts)
	return nil
}

// Close closes every index opened by the invocation.
func (e *Env) Close() error {
	var err error
	if e.registry != nil {
		err = e.registry.Close()
	}
	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}
	return err
}

// ResolveOpenOptions merges the config entry of name with the global flags;
// flags win.
func (e *Env) ResolveOpenOptions(name string) simplesearch.OpenOptions {
	var o simplesearch.OpenOptions
	if e.Config != nil {
		if ic, ok := e.Config.Index(name); ok {
			o = ic.OpenOptions()
		}
	}
	g := e.Global
	if g.Backend != "" {
		o.Backend = storage.Backend(strings.ToLower(g.Backend))
	}
	if g.Folder != "" {
		o.StorageFolder = g.Folder
	}
	if g.Driver != "" {
		o.Driver = g.Driver
	}
	if g.DSN != "" {
		o.DSN = g.DSN
	}
	if g.Schema != "" {
		o.Schema = g.Schema
	}
	o.StrictIdentifiers = o.StrictIdentifiers || g.Strict
	return o
}

// OpenIndex opens the index selected by --index.
func (e *Env) OpenIndex(ctx context.Context) (*simplesearch.Index, error) {
	name := e.Global.Index
	if name == "" {
		name = cliopt.DefaultIndex
	}
	return e.registry.Open(ctx, name, e.ResolveOpenOptions(name))
}

// OpenAll opens every index listed in the config file.
func (e *Env) OpenAll(ctx context.Context) (*simplesearch.Registry, error) {
	if len(e.Config.Indexes) == 0 {
		return nil, simplesearch.New(simplesearch.ErrConfig, "no indexes configured")
	}
	for _, ic := range e.Config.Indexes {
		if _, err := e.registry.Open(ctx, ic.Name, e.ResolveOpenOptions(ic.Name)); err != nil {
			return nil, fmt.Errorf("%s: %w", ic.Name, err)
		}
	}
	return e.registry, nil
}

func PrintJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// ParseProps turns repeated key=value flags into properties. A key given
// more than once becomes a list.
func ParseProps(pairs []string) (simplesearch.Properties, error) {
	props := simplesearch.Properties{}
	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, simplesearch.SchemaError(fmt.Sprintf("property must be key=value: %q", kv))
		}
		switch prev := props[k].(type) {
		case nil:
			props[k] = v
		case string:
			props[k] = []string{prev, v}
		case []string:
			props[k] = append(prev, v)
		}
	}
	return props, nil
}
