package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/wadjakorntonsri/shortlink/pkg/adapters/repository"
	"github.com/wadjakorntonsri/shortlink/pkg/config"
	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/core/services"
	"github.com/wadjakorntonsri/shortlink/pkg/logging"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

const usage = "expected 'export' or 'import' subcommands"

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importFile := importCmd.String("file", "", "JSON file to import")

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: "console"})

	ctx := context.Background()
	store, err := repository.Open(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to db")
	}
	defer store.Close()

	switch os.Args[1] {
	case "export":
		_ = exportCmd.Parse(os.Args[2:])
		if err := doExport(ctx, store, os.Stdout); err != nil {
			logging.Fatal().Err(err).Msg("export failed")
		}
	case "import":
		_ = importCmd.Parse(os.Args[2:])
		if *importFile == "" {
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		file, err := os.Open(*importFile)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to open file")
		}
		defer file.Close()

		imported, skipped, err := doImport(ctx, services.NewLinkService(store, cfg.BaseURL), file)
		if err != nil {
			logging.Fatal().Err(err).Msg("import failed")
		}
		logging.Info().Int("imported", imported).Int("skipped", skipped).Msg("import finished")
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}
}

func doExport(ctx context.Context, store ports.LinkStore, w io.Writer) error {
	links, err := store.List(ctx)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(links)
}

// doImport recreates links through the service so every row passes the same
// validation as the API. Existing codes are skipped and click counts start at zero.
func doImport(ctx context.Context, service ports.LinkService, r io.Reader) (imported, skipped int, err error) {
	var links []domain.Link
	if err := json.NewDecoder(r).Decode(&links); err != nil {
		return 0, 0, fmt.Errorf("decode: %w", err)
	}

	for _, l := range links {
		_, err := service.Shorten(ctx, l.OriginalURL, l.ShortCode)
		switch {
		case err == nil:
			imported++
		case errors.Is(err, domain.ErrCodeInUse), errors.Is(err, domain.ErrInsertConflict):
			logging.Warn().Str("code", l.ShortCode).Msg("skipping existing code")
			skipped++
		case errors.Is(err, domain.ErrStoreUnavailable):
			return imported, skipped, err
		default:
			logging.Warn().Err(err).Str("code", l.ShortCode).Msg("skipping invalid link")
			skipped++
		}
	}
	return imported, skipped, nil
}
