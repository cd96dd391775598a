// Command litereader inspects SQLite database files by decoding their
// on-disk format directly.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/litereader/core/sqlite"
	"github.com/FocuswithJustin/litereader/internal/config"
	"github.com/FocuswithJustin/litereader/internal/logging"
)

const version = "0.1.0"

// CLI defines the command-line interface for litereader.
type CLI struct {
	// Global flags
	Config    string `name:"config" short:"c" help:"Config file path (default: $LITEREADER_CONFIG or the user config dir)" type:"path"`
	LogLevel  string `name:"log-level" help:"Log level: debug, info, warn, error"`
	LogFormat string `name:"log-format" help:"Log format: text, json"`
	Format    string `name:"format" short:"f" help:"Output format: text, json"`
	CacheSize int64  `name:"cache-size" help:"Page cache size in pages (0 uses the config value, negative disables)"`

	DBInfo  DBInfoCmd  `cmd:"" name:"dbinfo" help:"Print database page size and table count"`
	Tables  TablesCmd  `cmd:"" help:"List user tables"`
	Schema  SchemaCmd  `cmd:"" help:"List every sqlite_schema object"`
	Header  HeaderCmd  `cmd:"" help:"Print the 100-byte file header"`
	Page    PageCmd    `cmd:"" help:"Describe one b-tree page"`
	Cells   CellsCmd   `cmd:"" help:"Decode the cells of a table leaf page"`
	Rows    RowsCmd    `cmd:"" help:"Print the rows of a single-page table"`
	Count   CountCmd   `cmd:"" help:"Count the rows of a single-page table"`
	Shell   ShellCmd   `cmd:"" help:"Read dot-commands interactively against one database"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// App carries what every command needs once flags and config are resolved.
type App struct {
	ctx    context.Context
	in     io.Reader
	out    io.Writer
	cfg    *config.Config
	output string
}

func newApp(ctx context.Context, cli *CLI, in io.Reader, out, logOut io.Writer) (*App, error) {
	cfg, err := config.LoadConfig(cli.Config)
	if err != nil {
		return nil, err
	}

	// Flags override the file
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.LogFormat = cli.LogFormat
	}
	if cli.Format != "" {
		cfg.Output = cli.Format
	}
	if cli.CacheSize != 0 {
		cfg.CacheSize = cli.CacheSize
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, _ := logging.ParseLevel(cfg.LogLevel)
	format, _ := logging.ParseFormat(cfg.LogFormat)
	logging.InitLoggerWriter(logOut, level, format)

	return &App{
		ctx:    logging.WithSessionID(ctx, logging.NewSessionID()),
		in:     in,
		out:    out,
		cfg:    cfg,
		output: strings.ToLower(cfg.Output),
	}, nil
}

func (a *App) jsonOutput() bool { return a.output == "json" }

// track runs fn with the database at path opened, logging the command.
func (a *App) track(command, path string, fn func(db *sqlite.DB) error) error {
	return logging.Track(a.ctx, command, path, func(ctx context.Context) error {
		db, err := sqlite.Open(path,
			sqlite.WithCacheSize(a.cfg.CacheSize),
			sqlite.WithLogger(logging.LoggerFromContext(ctx)),
		)
		if err != nil {
			return err
		}
		defer db.Close()

		logging.DatabaseOpened(ctx, path, db.Header().GetPageSize(), db.PageCount(), db.Compressed())
		return fn(db)
	})
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run parses args, executes the selected command and returns the exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var cli CLI
	exitCode := -1
	parser, err := kong.New(&cli,
		kong.Name("litereader"),
		kong.Description("Read SQLite database files without a SQL engine"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { exitCode = code }),
	)
	if err != nil {
		fmt.Fprintf(stderr, "litereader: %v\n", err)
		return 1
	}

	kctx, err := parser.Parse(args)
	if exitCode >= 0 {
		// --help or --version already printed
		return exitCode
	}
	if err != nil {
		fmt.Fprintf(stderr, "litereader: %v\n", err)
		return 2
	}

	app, err := newApp(ctx, &cli, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "litereader: %v\n", err)
		return 1
	}

	if err := kctx.Run(app); err != nil {
		fmt.Fprintf(stderr, "litereader: %v\n", err)
		return 1
	}
	return 0
}
