package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/debemdeboas/gisthub/internal/config"
	"github.com/debemdeboas/gisthub/internal/editor"
	"github.com/debemdeboas/gisthub/internal/gists"
	"github.com/debemdeboas/gisthub/internal/logger"
	"github.com/debemdeboas/gisthub/internal/model"
	"github.com/debemdeboas/gisthub/internal/remote"
	"github.com/debemdeboas/gisthub/internal/session"
)

const usage = `Usage: gisthub [-config path] <command> [flags]

Commands:
  list    [-starred] [-q query]         List gists, optionally filtered
  create  [-d description] [-public] files...
                                        Create a gist from local files
  star    <id>                          Star a gist
`

func main() {
	os.Exit(run())
}

// run owns every deferred cleanup and returns the process exit code.
func run() int {
	configPath := flag.String("config", config.DefaultConfigPath, "Path to the configuration file")
	logLevel := flag.String("log-level", "warn", "Log level")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return 2
	}

	_ = godotenv.Load()

	log := logger.New(*logLevel)
	config.SetLogger(log)
	remote.SetLogger(log)
	gists.SetLogger(log)
	editor.SetLogger(log)

	if err := config.LoadConfig(*configPath); err != nil {
		return fail(err)
	}
	cfg := config.AppConfig

	ctx := context.Background()
	service, closeBackend, err := remote.Open(ctx, cfg.Remote)
	if err != nil {
		return fail(err)
	}
	defer closeBackend()

	list := gists.NewController(service, gists.Options{LoadTimeout: cfg.Client.LoadTimeout})
	defer list.Close()
	sess := session.New(list, editor.NewMemoryWorkspace(service, cfg.Client.CommitTimeout))

	args := flag.Args()
	switch args[0] {
	case "list":
		err = runList(ctx, sess, args[1:])
	case "create":
		err = runCreate(ctx, sess, args[1:])
	case "star":
		err = runStar(ctx, service, args[1:])
	default:
		flag.Usage()
		return 2
	}

	if err != nil {
		return fail(err)
	}
	return 0
}

func runList(ctx context.Context, sess *session.Session, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	starred := fs.Bool("starred", false, "List starred gists")
	query := fs.String("q", "", "Filter by filename, owner or description")
	fs.Parse(args)

	mode := model.AllGists
	if *starred {
		mode = model.Starred
	}

	if err := sess.List.Load(ctx, mode); err != nil {
		return err
	}
	if err := sess.List.Search(*query); err != nil {
		return err
	}

	snap := sess.List.Snapshot()
	if snap.State.IsError() {
		return errors.New(snap.State.Message)
	}
	fmt.Print(renderList(snap.State.Gists))
	return nil
}

func runCreate(ctx context.Context, sess *session.Session, args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	description := fs.String("d", "", "Description; defaults to the title of a markdown file")
	public := fs.Bool("public", false, "Create a public gist")
	fs.Parse(args)

	if fs.NArg() == 0 {
		return errors.New("no files given")
	}

	draft, err := sess.NewDraft()
	if err != nil {
		return err
	}
	defer sess.Drafts.Delete(draft.ID())

	for _, path := range fs.Args() {
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		name := filepath.Base(path)
		if err := draft.SetFile(name, model.NewFile(name, string(content))); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	desc := *description
	if desc == "" {
		desc = draft.SuggestedDescription()
	}

	gist, err := sess.CreateGist(ctx, draft.ID(), desc, model.VisibilityOf(*public))
	if err != nil {
		return err
	}

	fmt.Print(renderCreated(gist))
	return nil
}

func runStar(ctx context.Context, service remote.Service, args []string) error {
	if len(args) != 1 {
		return errors.New("star takes exactly one gist id")
	}

	starrer, ok := service.(remote.Starrer)
	if !ok {
		return errors.New("the configured backend cannot star gists")
	}
	if err := starrer.StarGist(ctx, model.GistID(args[0])); err != nil {
		return errors.New(remote.Describe(err))
	}

	fmt.Println(okStyle.Render("Starred " + args[0]))
	return nil
}

func fail(err error) int {
	fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
	return 1
}
