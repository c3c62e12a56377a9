package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/debemdeboas/gisthub/internal/db"
	"github.com/debemdeboas/gisthub/internal/model"
	"github.com/debemdeboas/gisthub/internal/remote"
	"github.com/debemdeboas/gisthub/internal/util"
)

// main imports every regular file of a directory into the SQLite store as one gist.
func main() {
	os.Exit(run())
}

func run() int {
	path := flag.String("path", "", "Directory whose files become the gist")
	dbPath := flag.String("db", "./gists.db", "SQLite database to import into")
	owner := flag.String("owner", "", "Owner login recorded on the gist")
	description := flag.String("d", "", "Description; defaults to the title of a markdown file")
	public := flag.Bool("public", false, "Mark the gist public")
	star := flag.Bool("star", false, "Star the imported gist")
	flag.Parse()

	if *path == "" {
		log.Print("The --path flag is required")
		return 2
	}

	database := db.NewSQLite(*dbPath)
	if err := database.InitDB(); err != nil {
		log.Printf("Failed to initialize database: %v", err)
		return 1
	}
	defer database.Close()

	store := remote.NewStore(database, *owner, "")

	files, err := readFiles(*path)
	if err != nil {
		log.Printf("Error reading directory %s: %v", *path, err)
		return 1
	}

	desc := *description
	if desc == "" {
		desc = suggestDescription(files)
	}

	ctx := context.Background()
	gist, err := store.CreateGist(ctx, desc, files, *public)
	if err != nil {
		log.Printf("Failed to import gist: %v", err)
		return 1
	}
	log.Printf("Imported %d files as gist %s", len(files), gist.ID)

	if *star {
		if err := store.StarGist(ctx, gist.ID); err != nil {
			log.Printf("Failed to star gist: %v", err)
			return 1
		}
	}
	return 0
}

// readFiles reads the regular, non-hidden files directly under dir.
func readFiles(dir string) (map[string]model.File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	files := make(map[string]model.File)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		files[entry.Name()] = model.NewFile(entry.Name(), string(content))
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no files in %s", dir)
	}
	return files, nil
}

// suggestDescription uses the title of the first markdown file, by name.
func suggestDescription(files map[string]model.File) string {
	gist := model.Gist{Files: files}
	for _, name := range gist.Filenames() {
		if strings.EqualFold(filepath.Ext(name), ".md") {
			if title := util.SuggestTitle([]byte(files[name].ContentOrEmpty())); title != "" {
				return title
			}
		}
	}
	return ""
}
