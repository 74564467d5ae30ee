package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/playbar/internal/app/notification"
	"github.com/osa030/playbar/internal/app/playback"
	"github.com/osa030/playbar/internal/app/player"
	"github.com/osa030/playbar/internal/domain/track"
)

// command is a console command handler.
type command struct {
	usage string
	help  string
	run   func(ctx context.Context, args []string) error
}

// console is a line-oriented front end for the player.
type console struct {
	manager  *player.Manager
	in       io.Reader
	out      io.Writer
	commands map[string]command
}

func newConsole(m *player.Manager, in io.Reader, out io.Writer) *console {
	c := &console{manager: m, in: in, out: out}
	c.commands = map[string]command{
		"tracks":   {"tracks", "List tracks", c.tracks},
		"library":  {"library", "List playlists, albums and artists", c.library},
		"search":   {"search <text>", "Search tracks, albums and artists", c.search},
		"play":     {"play [track]", "Play all tracks, optionally from a track", c.play},
		"album":    {"album <id> [track]", "Play an album", c.album},
		"playlist": {"playlist <id> [track]", "Play a playlist", c.playlist},
		"artist":   {"artist <id> [track]", "Play an artist's top tracks", c.artist},
		"results":  {"results <text...> [track]", "Play search results, from a track ID given last", c.results},
		"toggle":   {"toggle", "Pause or resume", c.noArgs(m.TogglePlayback)},
		"pause":    {"pause", "Pause playback", c.noArgs(m.Session().Pause)},
		"resume":   {"resume", "Resume playback", c.noArgs(m.Session().Resume)},
		"next":     {"next", "Skip to the next track", c.noArgs(m.Session().Next)},
		"prev":     {"prev", "Go back to the previous track", c.noArgs(m.Session().Previous)},
		"vol":      {"vol <0-100>", "Set the volume", c.volume},
		"seek":     {"seek <m:ss|seconds>", "Jump within the current track", c.seek},
		"status":   {"status", "Show the current track", c.status},
		"queue":    {"queue", "Show the play queue", c.queue},
		"history":  {"history", "Show recently played tracks", c.history},
	}
	return c
}

// run reads commands until EOF, "quit" or a signal.
func (c *console) run(sigCh <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := notification.NewChanStream(64)
	id := c.manager.Subscribe(stream)
	defer c.manager.Unsubscribe(id)
	go c.render(ctx, stream)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	fmt.Fprintln(c.out, "playbar ready. Type 'help' for commands.")
	for {
		select {
		case <-sigCh:
			fmt.Fprintln(c.out, "\nShutting down...")
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := c.exec(ctx, line); quit {
				return nil
			}
		}
	}
}

// exec runs one command line. Returns true on quit.
func (c *console) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	name, args := strings.ToLower(fields[0]), fields[1:]
	switch name {
	case "quit", "exit":
		return true
	case "help":
		c.help()
		return false
	}

	cmd, ok := c.commands[name]
	if !ok {
		fmt.Fprintf(c.out, "Unknown command: %s\n", name)
		return false
	}
	if err := cmd.run(ctx, args); err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
	}
	return false
}

func (c *console) help() {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(c.out, "Commands:")
	for _, name := range names {
		cmd := c.commands[name]
		fmt.Fprintf(c.out, "  %-24s %s\n", cmd.usage, cmd.help)
	}
	fmt.Fprintf(c.out, "  %-24s %s\n", "quit", "Exit")
}

func (c *console) noArgs(op func() error) func(context.Context, []string) error {
	return func(context.Context, []string) error {
		return op()
	}
}

func (c *console) tracks(ctx context.Context, _ []string) error {
	for _, t := range c.manager.Tracks(ctx) {
		c.printTrack(t)
	}
	return nil
}

func (c *console) library(context.Context, []string) error {
	store := c.manager.Catalog()

	fmt.Fprintln(c.out, "Playlists:")
	for _, p := range store.Playlists() {
		fmt.Fprintf(c.out, "  [%s] %s by %s, %d tracks, %s\n",
			p.ID, p.Title, p.CreatedBy, len(p.Tracks), track.FormatTime(time.Duration(p.TotalDuration())*time.Second))
	}
	fmt.Fprintln(c.out, "Albums:")
	for _, a := range store.Albums() {
		fmt.Fprintf(c.out, "  [%s] %s - %s (%d)\n", a.ID, a.Title, a.Artist, a.Year)
	}
	fmt.Fprintln(c.out, "Artists:")
	for _, a := range store.Artists() {
		fmt.Fprintf(c.out, "  [%s] %s, %d followers\n", a.ID, a.Name, a.Followers)
	}
	return nil
}

func (c *console) search(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: search <text>")
	}
	res := c.manager.Search(ctx, strings.Join(args, " "))
	if res.Empty() {
		fmt.Fprintln(c.out, "No results")
		return nil
	}
	for _, t := range res.Tracks {
		c.printTrack(t)
	}
	for _, a := range res.Albums {
		fmt.Fprintf(c.out, "  album  [%s] %s - %s\n", a.ID, a.Title, a.Artist)
	}
	for _, a := range res.Artists {
		fmt.Fprintf(c.out, "  artist [%s] %s\n", a.ID, a.Name)
	}
	return nil
}

func (c *console) play(ctx context.Context, args []string) error {
	return c.manager.QuickPlay(ctx, optional(args, 0))
}

func (c *console) album(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: album <id> [track]")
	}
	return c.manager.PlayAlbum(ctx, args[0], optional(args, 1))
}

func (c *console) playlist(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: playlist <id> [track]")
	}
	return c.manager.PlayPlaylist(ctx, args[0], optional(args, 1))
}

func (c *console) artist(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: artist <id> [track]")
	}
	return c.manager.PlayArtist(ctx, args[0], optional(args, 1))
}

func (c *console) results(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: results <text...> [track]")
	}
	query, trackID := splitTrackArg(args, c.manager.Catalog().Track)
	return c.manager.PlaySearch(ctx, query, trackID)
}

// splitTrackArg joins args into a query. A trailing word that names a
// catalog track is split off as the track to start from.
func splitTrackArg(args []string, lookup func(id string) (track.Track, error)) (query, trackID string) {
	if n := len(args); n > 1 {
		if _, err := lookup(args[n-1]); err == nil {
			return strings.Join(args[:n-1], " "), args[n-1]
		}
	}
	return strings.Join(args, " "), ""
}

func (c *console) volume(_ context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(c.out, "Volume: %d%%\n", percent(c.manager.Snapshot().Volume))
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "%"), 64)
	if err != nil {
		return fmt.Errorf("invalid volume: %s", args[0])
	}
	return c.manager.Session().SetVolume(v / 100)
}

func (c *console) seek(_ context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: seek <m:ss|seconds>")
	}
	pos, err := parsePosition(args[0])
	if err != nil {
		return err
	}
	return c.manager.Session().SeekTo(pos)
}

func (c *console) status(context.Context, []string) error {
	c.printStatus(c.manager.Snapshot())
	return nil
}

func (c *console) queue(context.Context, []string) error {
	snap := c.manager.Snapshot()
	if len(snap.Queue) == 0 {
		fmt.Fprintln(c.out, "Queue is empty")
		return nil
	}
	for i, t := range snap.Queue {
		marker := " "
		if i == snap.CurrentIndex && snap.HasTrack() {
			marker = ">"
		}
		fmt.Fprintf(c.out, "%s %2d. %s - %s %s\n", marker, i+1, t.Title, t.Artist, track.FormatTime(t.Duration))
	}
	fmt.Fprintf(c.out, "  total %s\n", track.FormatTime(track.TotalDuration(snap.Queue)))
	return nil
}

func (c *console) history(context.Context, []string) error {
	for i, t := range c.manager.History() {
		fmt.Fprintf(c.out, "  %2d. %s - %s\n", i+1, t.Title, t.Artist)
	}
	return nil
}

// render prints session notifications until ctx is done.
func (c *console) render(ctx context.Context, stream *notification.ChanStream) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-stream.C():
			if !ok {
				return
			}
			switch n.Type {
			case playback.EventTrackChanged:
				if t := n.Snapshot.CurrentTrack; t != nil {
					fmt.Fprintf(c.out, "Now playing: %s - %s [%d/%d]\n",
						t.Title, t.Artist, n.Snapshot.CurrentIndex+1, len(n.Snapshot.Queue))
				}
			case playback.EventStateChanged:
				fmt.Fprintf(c.out, "State: %s\n", n.Snapshot.Transport)
			case playback.EventQueueEnded:
				fmt.Fprintln(c.out, "End of queue")
			case playback.EventPlaybackFailed:
				fmt.Fprintf(c.out, "Playback failed: %v\n", n.Err)
			case playback.EventVolumeChanged:
				fmt.Fprintf(c.out, "Volume: %d%%\n", percent(n.Snapshot.Volume))
			default:
				zlog.Debug().Msgf("console: notification: seq=%d type=%s", n.SequenceNo, n.Type)
			}
		}
	}
}

func (c *console) printStatus(snap playback.Snapshot) {
	if !snap.HasTrack() {
		fmt.Fprintln(c.out, "Nothing selected")
		return
	}
	t := snap.CurrentTrack
	fmt.Fprintf(c.out, "%s - %s (%s)\n", t.Title, t.Artist, t.Album)
	fmt.Fprintf(c.out, "  %s  %s / %s  %3.0f%%  vol %d%%\n",
		snap.Transport, track.FormatTime(snap.CurrentTime), track.FormatTime(snap.Duration),
		snap.Progress()*100, percent(snap.Volume))

	next := "end of queue"
	if snap.HasNext() {
		n := snap.Queue[snap.CurrentIndex+1]
		next = n.Title + " - " + n.Artist
	}
	prev := "none"
	if snap.HasPrevious() {
		p := snap.Queue[snap.CurrentIndex-1]
		prev = p.Title + " - " + p.Artist
	}
	fmt.Fprintf(c.out, "  next: %s\n  prev: %s\n", next, prev)
}

func (c *console) printTrack(t track.Track) {
	printTrack(c.out, t)
}

func optional(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func percent(v float64) int {
	return int(v*100 + 0.5)
}

// parsePosition parses "m:ss" or a number of seconds.
func parsePosition(s string) (time.Duration, error) {
	if m, sec, ok := strings.Cut(s, ":"); ok {
		mins, err1 := strconv.Atoi(m)
		secs, err2 := strconv.Atoi(sec)
		if err1 != nil || err2 != nil || mins < 0 || secs < 0 || secs >= 60 {
			return 0, fmt.Errorf("invalid position: %s", s)
		}
		return time.Duration(mins)*time.Minute + time.Duration(secs)*time.Second, nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid position: %s", s)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
