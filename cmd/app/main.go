package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/skaldra/notedown/internal"
	"github.com/skaldra/notedown/internal/graph"
	"github.com/skaldra/notedown/internal/mcpserver"
	"github.com/skaldra/notedown/internal/noteservice"
	"github.com/skaldra/notedown/internal/storage"
	pkgconfig "github.com/skaldra/notedown/pkg/config"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	configPath := cmd.String("config")
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) && !cmd.IsSet("config") {
		// No config file is fine for local use, defaults apply.
	} else if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if vault := cmd.String("vault"); vault != "" {
		cfg.Vault.Path = vault
	}
	return cfg, nil
}

// newService wires a note service for the one-shot CLI commands. The
// returned cleanup closes the graph database.
func newService(cmd *cli.Command) (*noteservice.Service, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	codec := cfg.Vault.NewCodec()
	store, err := storage.NewFS(cfg.Vault.Path, codec)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}
	db, err := graph.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init graph: %w", err)
	}
	if err := graph.Sync(db, store, codec, logger); err != nil {
		logger.Warn("graph sync failed", slog.String("error", err.Error()))
	}

	svc := noteservice.NewService(noteservice.Params{
		Store:                 store,
		DB:                    db,
		Codec:                 codec,
		Template:              cfg.Vault.Template,
		HomeSentinel:          cfg.Vault.HomeSentinel,
		Encoding:              cfg.Vault.Encoding,
		CaseInsensitiveRename: cfg.Vault.CaseInsensitiveRename,
		JournalTitleFormat:    cfg.Vault.JournalTitleFormat,
		Logger:                logger,
	})
	return svc, func() { _ = db.Close() }, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func resolveLink(ctx context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("usage: resolve <name>")
	}
	svc, cleanup, err := newService(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := svc.Resolve(ctx, cmd.String("from"), name)
	if err != nil {
		return err
	}
	fmt.Println(res.State)
	for _, c := range res.Candidates {
		fmt.Printf("  %s\t%s\n", c.Title, c.Path)
	}
	return nil
}

func newNote(ctx context.Context, cmd *cli.Command) error {
	title := strings.Join(cmd.Args().Slice(), " ")
	if title == "" {
		return fmt.Errorf("usage: new <title>")
	}
	svc, cleanup, err := newService(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	path, err := svc.CreateNote(ctx, title, cmd.String("origin"), cmd.String("dir"))
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func renameNote(ctx context.Context, cmd *cli.Command) error {
	path, newName := cmd.Args().Get(0), cmd.Args().Get(1)
	if path == "" || newName == "" {
		return fmt.Errorf("usage: rename <path> <new-name>")
	}
	svc, cleanup, err := newService(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := svc.RenameNote(ctx, path, newName)
	if err != nil {
		return err
	}
	fmt.Printf("%s -> %s (%d files updated)\n", res.OldPath, res.NewPath, res.Updated)
	return nil
}

func lintNote(ctx context.Context, cmd *cli.Command) error {
	svc, cleanup, err := newService(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	path := cmd.Args().First()
	if path == "" {
		dangling, err := svc.LintCorpus(ctx)
		if err != nil {
			return err
		}
		for _, d := range dangling {
			fmt.Printf("%s: dangling link [[%s]]\n", d.Source, d.Target)
		}
		if len(dangling) > 0 {
			return cli.Exit("", 1)
		}
		return nil
	}

	errs, err := svc.Lint(ctx, path)
	if err != nil {
		return err
	}
	for _, e := range errs {
		fmt.Printf("%s:%d: %s\n", path, e.Line, e.Message)
	}
	if len(errs) > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func listTitles(ctx context.Context, cmd *cli.Command) error {
	svc, cleanup, err := newService(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	titles, err := svc.Titles(ctx, cmd.String("exclude"))
	if err != nil {
		return err
	}
	for _, t := range titles {
		fmt.Println(t)
	}
	return nil
}

func journal(ctx context.Context, cmd *cli.Command) error {
	svc, cleanup, err := newService(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	path, created, err := svc.Journal(ctx, time.Now())
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("created %s\n", path)
	} else {
		fmt.Println(path)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	svc, cleanup, err := newService(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	return mcpserver.New(svc).ServeStdio()
}

func main() {
	commonFlags := []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to config file",
			DefaultText: "config/config.yaml",
			Value:       "config/config.yaml",
			Sources:     cli.EnvVars("APP_CONFIG_FILE"),
		},
		&cli.StringFlag{
			Name:    "vault",
			Usage:   "Vault directory (overrides config)",
			Sources: cli.EnvVars("NOTEDOWN_VAULT"),
		},
	}

	cmd := &cli.Command{
		Name:   "notedown",
		Usage:  "Wikilink resolution, backlink-aware renames, and lint for a Markdown note graph",
		Action: serve,
		Flags:  commonFlags,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server with file watching",
				Action: serve,
				Flags:  commonFlags,
			},
			{
				Name:      "resolve",
				Usage:     "Resolve a [[wikilink]] name to note files",
				ArgsUsage: "<name>",
				Action:    resolveLink,
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "from", Usage: "Vault-relative path of the note the link appears in"},
				}, commonFlags...),
			},
			{
				Name:      "new",
				Usage:     "Create a note from the template",
				ArgsUsage: "<title>",
				Action:    newNote,
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "origin", Usage: "Title of the note to link back to"},
					&cli.StringFlag{Name: "dir", Usage: "Vault-relative target directory"},
				}, commonFlags...),
			},
			{
				Name:      "rename",
				Usage:     "Rename a note and rewrite its backlinks",
				ArgsUsage: "<path> <new-name>",
				Action:    renameNote,
				Flags:     commonFlags,
			},
			{
				Name:      "lint",
				Usage:     "Lint one note, or report every dangling link with no argument",
				ArgsUsage: "[path]",
				Action:    lintNote,
				Flags:     commonFlags,
			},
			{
				Name:   "titles",
				Usage:  "List note titles for link completion",
				Action: listTitles,
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "exclude", Usage: "Vault-relative path of a note to exclude"},
				}, commonFlags...),
			},
			{
				Name:   "journal",
				Usage:  "Open or create today's journal note",
				Action: journal,
				Flags:  commonFlags,
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdio",
				Action: serveMCP,
				Flags:  commonFlags,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
