// Command nebula-studio is the research studio CLI: live voice sessions,
// audio overview generation, artifact generation, and local playback.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kunkle3328-dev/NebulaMindBakup/pkg/engine"
	"github.com/kunkle3328-dev/NebulaMindBakup/pkg/live"
	"github.com/kunkle3328-dev/NebulaMindBakup/pkg/notebook"
	"github.com/kunkle3328-dev/NebulaMindBakup/pkg/studio"
	"github.com/kunkle3328-dev/NebulaMindBakup/pkg/visualizer"
)

const usage = `usage: nebula-studio <command> [flags]

commands:
  live       start a live voice session over a notebook's sources
  play       play a WAV file on the shared engine with a spectrum view
  overview   generate a two-host audio overview from a notebook
  artifact   generate a structured study artifact from a notebook
`

func main() {
	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "live":
		err = runLive(ctx, logger, os.Args[2:])
	case "play":
		err = runPlay(ctx, logger, os.Args[2:])
	case "overview":
		err = runOverview(ctx, logger, os.Args[2:])
	case "artifact":
		err = runArtifact(ctx, logger, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func dataDir() string {
	if dir := os.Getenv("NEBULA_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nebula"
	}
	return filepath.Join(home, ".nebula")
}

func apiKey() (string, error) {
	for _, name := range []string{"GEMINI_API_KEY", "API_KEY"} {
		if v := os.Getenv(name); v != "" {
			return v, nil
		}
	}
	return "", errors.New("GEMINI_API_KEY is not set")
}

// loadSources returns the sources of the named notebook, or an empty slice
// when no notebook is given.
func loadSources(notebookID string) ([]notebook.Source, error) {
	if notebookID == "" {
		return nil, nil
	}
	store, err := notebook.NewStore(dataDir())
	if err != nil {
		return nil, err
	}
	nb, err := store.Get(notebookID)
	if err != nil {
		return nil, err
	}
	return nb.Sources, nil
}

func runLive(ctx context.Context, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("live", flag.ExitOnError)
	notebookID := fs.String("notebook", "", "notebook id providing source context")
	mode := fs.String("mode", "Standard", "session mode: Standard or Arena")
	role := fs.String("role", "Pro", "debate role in Arena mode: Moderator, Pro, Con")
	name := fs.String("name", "", "display name woven into the conversation")
	voice := fs.String("voice", "", "override the model voice")
	metricsAddr := fs.String("metrics-addr", "", "expose Prometheus metrics on this address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Warn("metrics endpoint stopped", "error", err)
			}
		}()
		logger.Info("metrics endpoint", "addr", *metricsAddr)
	}

	key, err := apiKey()
	if err != nil {
		return err
	}
	sources, err := loadSources(*notebookID)
	if err != nil {
		return err
	}
	nb := notebook.Notebook{Sources: sources}

	cfg := live.DefaultSessionConfig()
	cfg.APIKey = key
	cfg.Mode = live.SessionMode(*mode)
	cfg.Role = live.DebateRole(*role)
	cfg.UserName = *name
	cfg.SourceContext = nb.CombinedSourceText()
	if *voice != "" {
		cfg.Voice = *voice
	}

	session := live.NewSession(cfg, live.Deps{Logger: logger})
	if err := session.Connect(ctx); err != nil {
		return err
	}
	defer session.Disconnect()

	renderer := visualizer.NewRenderer(session.Analyser(), os.Stdout, visualizer.DefaultBars)
	renderer.Start()
	defer renderer.Stop()

	logger.Info("live session started", "mode", cfg.Mode, "model", cfg.Model)

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down live session")
			return nil
		case ev := <-session.Events():
			switch e := ev.(type) {
			case *live.StateChangedEvent:
				logger.Info("session state", "from", e.From, "to", e.To)
				if e.To == live.StateIdle || e.To == live.StateError {
					if e.To == live.StateError {
						return errors.New(session.LastError())
					}
					return nil
				}
			case *live.InterruptedEvent:
				logger.Info("barge-in", "stopped_voices", e.Stopped)
			case *live.ErrorEvent:
				logger.Warn("session error", "message", e.Message)
			}
		}
	}
}

func runPlay(ctx context.Context, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	title := fs.String("title", "", "track title (defaults to the file name)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("play requires exactly one WAV file argument")
	}
	path := fs.Arg(0)
	if *title == "" {
		*title = filepath.Base(path)
	}

	eng := engine.Shared()
	if err := eng.PlayTrack(engine.Track{URL: path, Title: *title}); err != nil {
		return err
	}

	renderer := visualizer.NewRenderer(eng.Analyser(), os.Stdout, visualizer.DefaultBars)
	renderer.Start()
	defer renderer.Stop()

	sub := eng.Subscribe()
	defer sub.Close()

	logger.Info("playing", "file", path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case st := <-sub.Updates():
			if !st.Playing && st.Position >= st.Duration && st.Duration > 0 {
				logger.Info("playback finished", "duration", st.Duration)
				return nil
			}
		}
	}
}

func runOverview(ctx context.Context, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("overview", flag.ExitOnError)
	notebookID := fs.String("notebook", "", "notebook id (required)")
	length := fs.String("length", "Medium", "overview length: Short, Medium, Long")
	style := fs.String("style", "Deep Dive", "overview style")
	outDir := fs.String("out", ".", "output directory for WAV and cover files")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *notebookID == "" {
		return errors.New("overview requires -notebook")
	}

	key, err := apiKey()
	if err != nil {
		return err
	}
	sources, err := loadSources(*notebookID)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return errors.New("notebook has no sources")
	}

	gen, err := studio.NewGenerator(ctx, studio.Config{APIKey: key, OutputDir: *outDir, Logger: logger})
	if err != nil {
		return err
	}

	ov, err := gen.GenerateAudioOverview(ctx, sources, studio.OverviewOptions{
		Length: studio.OverviewLength(*length),
		Style:  studio.OverviewStyle(*style),
		OnProgress: func(status string) {
			logger.Info("overview", "status", status)
		},
	})
	if err != nil {
		return err
	}

	logger.Info("overview ready", "title", ov.Track.Title, "file", ov.Track.URL, "duration", ov.Track.Duration)
	fmt.Println(ov.Track.URL)
	return nil
}

func runArtifact(ctx context.Context, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("artifact", flag.ExitOnError)
	notebookID := fs.String("notebook", "", "notebook id (required)")
	typ := fs.String("type", "flashcards", "artifact type: flashcards, quiz, slideDeck, executiveBrief, researchPaper, debateDossier, mindMap")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *notebookID == "" {
		return errors.New("artifact requires -notebook")
	}

	key, err := apiKey()
	if err != nil {
		return err
	}
	sources, err := loadSources(*notebookID)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return errors.New("notebook has no sources")
	}

	gen, err := studio.NewGenerator(ctx, studio.Config{APIKey: key, Logger: logger})
	if err != nil {
		return err
	}

	content, err := gen.GenerateArtifact(ctx, notebook.ArtifactType(*typ), sources)
	if err != nil {
		return err
	}
	fmt.Println(content)

	store, err := notebook.NewStore(dataDir())
	if err != nil {
		return err
	}
	nb, err := store.Get(*notebookID)
	if err != nil {
		return err
	}
	nb.Artifacts = append(nb.Artifacts, notebook.Artifact{
		ID:        notebook.NewID(),
		Type:      notebook.ArtifactType(*typ),
		Title:     fmt.Sprintf("%s artifact", *typ),
		Content:   content,
		CreatedAt: time.Now().UnixMilli(),
		Status:    notebook.StatusCompleted,
	})
	if err := store.Save(nb); err != nil {
		return err
	}
	logger.Info("artifact saved", "notebook", nb.ID, "type", *typ)
	return nil
}
