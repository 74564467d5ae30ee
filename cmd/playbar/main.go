// Package main provides the playbar entry point.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/playbar/internal/app/filter"
	"github.com/osa030/playbar/internal/app/player"
	"github.com/osa030/playbar/internal/domain/track"
	"github.com/osa030/playbar/internal/infra/audiotag"
	"github.com/osa030/playbar/internal/infra/catalogfile"
	"github.com/osa030/playbar/internal/infra/config"
	"github.com/osa030/playbar/internal/infra/logger"
)

var (
	app        = kingpin.New("playbar", "playbar music player")
	configPath = app.Flag("config", "Path to config file (built-in defaults if missing)").Default("config/player.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()

	// tracks command
	tracksCmd = app.Command("tracks", "List catalog tracks and exit")

	// search command
	searchCmd   = app.Command("search", "Search the catalog and exit")
	searchQuery = searchCmd.Arg("query", "Search text").Required().String()

	// import command
	importCmd = app.Command("import", "Build a catalog file from a directory of audio files")
	importDir = importCmd.Arg("dir", "Directory to scan").Required().ExistingDir()
	importOut = importCmd.Flag("out", "Catalog file to write").Default("catalog.yaml").String()

	// list-filters command
	listFiltersCmd = app.Command("list-filters", "List available filters and exit")
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the interactive player (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Handle list-filters command
	if command == listFiltersCmd.FullCommand() {
		printFilters()
		return
	}

	// Initialize logger
	loggerConfig := logger.Config{
		Output: "stderr",
		Level:  "info",
	}
	// Override with command-line flags if specified
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = "file"
		loggerConfig.File = *logfile
	}
	closer, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer closer.Close()

	// Load config
	zlog.Debug().Msgf("Loading config from %s", *configPath)
	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	switch command {
	case tracksCmd.FullCommand():
		err = listTracks(cfg, os.Stdout)
	case searchCmd.FullCommand():
		err = search(cfg, *searchQuery, os.Stdout)
	case importCmd.FullCommand():
		err = importCatalog(*importDir, *importOut)
	default:
		err = run(cfg)
	}
	if err != nil {
		zlog.Error().Msgf("playbar: %v", err)
		closer.Close()
		os.Exit(1)
	}
}

// run starts the player and the interactive console.
// Using a separate function ensures defer statements are executed.
func run(cfg *config.Config) error {
	store, err := player.NewStoreFromConfig(cfg)
	if err != nil {
		return err
	}
	device, err := player.NewDeviceFromConfig(cfg)
	if err != nil {
		return err
	}

	manager := player.NewManager(cfg, store, device)
	defer func() {
		if err := manager.Close(); err != nil {
			zlog.Error().Msgf("Failed to close player: %v", err)
		}
	}()

	zlog.Info().Msgf("Player ready: tracks=%d device=%s volume=%.2f",
		len(store.Tracks()), cfg.Device.Type, cfg.Player.Volume())

	// Handle shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	c := newConsole(manager, os.Stdin, os.Stdout)
	return c.run(sigCh)
}

func listTracks(cfg *config.Config, w io.Writer) error {
	store, err := player.NewStoreFromConfig(cfg)
	if err != nil {
		return err
	}
	chain := player.NewFilterChainFromConfig(cfg)
	for _, t := range chain.Apply(context.Background(), store.Tracks()) {
		printTrack(w, t)
	}
	return nil
}

// search prints catalog matches. Tracks pass through the configured filters,
// as they do in the interactive console.
func search(cfg *config.Config, query string, w io.Writer) error {
	store, err := player.NewStoreFromConfig(cfg)
	if err != nil {
		return err
	}
	res := store.Search(query)
	res.Tracks = player.NewFilterChainFromConfig(cfg).Apply(context.Background(), res.Tracks)
	if res.Empty() {
		fmt.Fprintf(w, "No results for %q\n", query)
		return nil
	}

	fmt.Fprintln(w, "Tracks:")
	for _, t := range res.Tracks {
		printTrack(w, t)
	}
	fmt.Fprintln(w, "Albums:")
	for _, a := range res.Albums {
		fmt.Fprintf(w, "  [%s] %s - %s (%d)\n", a.ID, a.Title, a.Artist, a.Year)
	}
	fmt.Fprintln(w, "Artists:")
	for _, a := range res.Artists {
		fmt.Fprintf(w, "  [%s] %s\n", a.ID, a.Name)
	}
	return nil
}

func importCatalog(dir, out string) error {
	data, err := audiotag.NewImporter().Import(dir)
	if err != nil {
		return err
	}
	if err := catalogfile.Save(out, data); err != nil {
		return err
	}
	fmt.Printf("Imported %d tracks, %d albums, %d artists into %s\n",
		len(data.Tracks), len(data.Albums), len(data.Artists), out)
	return nil
}

func printTrack(w io.Writer, t track.Track) {
	fmt.Fprintf(w, "  [%s] %s - %s (%s) %s\n", t.ID, t.Title, t.Artist, t.Album, track.FormatTime(t.Duration))
}

// printFilters prints available filters.
func printFilters() {
	fmt.Println("Available Filters:")
	for _, name := range filter.Names() {
		f := filter.GetRegistered()[name]()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-30s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
}
