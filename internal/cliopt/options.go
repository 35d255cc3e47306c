package cliopt

import "github.com/spf13/pflag"

// GlobalOptions are parsed once at the CLI root and passed to subcommands.
// Backend settings mirror simplesearch.OpenOptions and override the entry
// of the same index in the config file.
//
// NOTE: This is a separate package to avoid import cycles between the root
// command and per-command code.
type GlobalOptions struct {
	ConfigPath string
	Index      string

	Backend string
	Folder  string
	Driver  string
	DSN     string
	Schema  string
	Strict  bool

	LogLevel  string
	LogFormat string
	LogFile   string
}

// DefaultIndex is used when neither --index nor the config names one.
const DefaultIndex = "default"

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{Index: DefaultIndex}
}

func BindGlobalFlags(fs *pflag.FlagSet, g *GlobalOptions) {
	fs.StringVarP(&g.ConfigPath, "config", "c", g.ConfigPath, "config file (.yaml, .yml or .toml); defaults to $SIMPLESEARCH_CONFIG")
	fs.StringVarP(&g.Index, "index", "i", g.Index, "index name")

	fs.StringVar(&g.Backend, "backend", g.Backend, "backend: sqlite|mysql|postgres")
	fs.StringVar(&g.Folder, "folder", g.Folder, "sqlite storage folder (default ./data)")
	fs.StringVar(&g.Driver, "sqlite-driver", g.Driver, "sqlite driver: sqlite|sqlite3")
	fs.StringVar(&g.DSN, "dsn", g.DSN, "mysql or postgres DSN")
	fs.StringVar(&g.Schema, "pg-schema", g.Schema, "postgres schema (default: index name)")
	fs.BoolVar(&g.Strict, "strict", g.Strict, "restrict property names to [A-Za-z_][A-Za-z0-9_]*")

	fs.StringVar(&g.LogLevel, "log-level", g.LogLevel, "log level: debug|info|warn|error")
	fs.StringVar(&g.LogFormat, "log-format", g.LogFormat, "log format: text|json")
	fs.StringVar(&g.LogFile, "log-file", g.LogFile, "write logs to this file instead of stderr")
}
