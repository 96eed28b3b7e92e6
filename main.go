package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"voxsearch/internal/config"
	"voxsearch/internal/github"
	"voxsearch/internal/history"
	"voxsearch/internal/i18n"
	"voxsearch/internal/imagerec"
	"voxsearch/internal/mock"
	"voxsearch/internal/preview"
	"voxsearch/internal/search"
	"voxsearch/internal/speech"
	"voxsearch/internal/suggest"
	"voxsearch/internal/terminal"
	"voxsearch/internal/ui"
)

// app bundles the wired components for the REPL loop.
type app struct {
	cfg        *config.Config
	display    *ui.Display
	historyMgr *history.Store
	suggester  *suggest.Engine
	store      *search.Store
	controller *speech.Controller
	classifier *imagerec.Adapter
	fetcher    *preview.Fetcher

	// lastSuggestions holds the numbered items shown by the latest ?
	// listing so !<n> can refer back to them.
	lastSuggestions []suggest.Item
}

func main() {
	// Set the GetEnv function for config
	config.GetEnv = os.Getenv

	cfg, voiceDemo := parseFlags()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	if strings.HasPrefix(cfg.SpeechLanguage, "zh") {
		i18n.SetLanguage(i18n.ZH)
	}

	display := ui.NewDisplay()

	// Initialize components
	historyMgr := history.NewStore(cfg.HistoryPath, cfg.MaxHistorySize)
	suggester := suggest.NewEngine()
	classifier := imagerec.NewAdapter(cfg.ImageAPIURL, cfg.ImageAPIKey, cfg.ImageAPISecret, 30*time.Second)
	fetcher := preview.NewFetcher(cfg.PreviewTimeout, cfg.MaxPreviewers, cfg.MaxContentSize, cfg.UserAgent)

	// Provider selection: GitHub by default, degrading to the offline
	// sample provider when the API is unreachable.
	providerName := "github"
	var provider search.Provider
	ghClient := github.NewClient(cfg.GitHubURL, cfg.GitHubToken, cfg.MaxResults, cfg.SearchTimeout)
	provider = ghClient
	if cfg.UseMock {
		provider = mock.NewProvider()
		providerName = "mock"
	} else if err := ghClient.HealthCheck(); err != nil {
		display.PrintWarning(fmt.Sprintf("GitHub check failed: %v", err))
		display.PrintInfo("Falling back to the offline sample provider. Use /mock to stay offline.")
		provider = mock.NewProvider()
		providerName = "mock"
	}
	store := search.NewStore(provider)

	// Speech engine: a real engine is host-provided; without one the
	// controller reports the unsupported state. The demo flag wires a
	// scripted session so the voice flow can be exercised anywhere.
	var engine speech.Engine
	if voiceDemo {
		engine = &speech.ScriptedEngine{
			Script: speech.DictationScript("golang concurrency patterns", 400*time.Millisecond),
		}
	}
	controller := speech.NewController(engine, cfg.AutoStopDelay)
	defer controller.Close()

	// Load query history
	if err := historyMgr.Load(); err != nil {
		display.PrintWarning(fmt.Sprintf("Failed to load history: %v", err))
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		display.PrintInfo("\nShutting down gracefully...")
		controller.Close()
		cancel()
		os.Exit(0)
	}()

	a := &app{
		cfg:        cfg,
		display:    display,
		historyMgr: historyMgr,
		suggester:  suggester,
		store:      store,
		controller: controller,
		classifier: classifier,
		fetcher:    fetcher,
	}

	display.PrintWelcome(providerName)

	// Main loop
	for {
		display.PrintPrompt()
		input, err := terminal.ReadUserInput()
		if err != nil {
			break
		}
		if input == "" {
			continue
		}

		if input == "/exit" || input == "/quit" || input == "exit" || input == "quit" {
			break
		}

		if a.handle(ctx, input) {
			break
		}
	}

	store.Wait()
	display.PrintGoodbye()
}

// handle dispatches one line of input. Returns true to quit.
func (a *app) handle(ctx context.Context, input string) bool {
	switch {
	case strings.HasPrefix(input, "?"):
		a.showSuggestions(strings.TrimSpace(strings.TrimPrefix(input, "?")))
	case strings.HasPrefix(input, "!"):
		a.pickSuggestion(ctx, strings.TrimSpace(strings.TrimPrefix(input, "!")))
	case strings.HasPrefix(input, "/"):
		return a.handleCommand(ctx, input)
	default:
		a.submit(ctx, input)
	}
	return false
}

func (a *app) handleCommand(ctx context.Context, input string) bool {
	cmd, rest := terminal.SplitCommand(input)
	switch cmd {
	case "/help":
		a.display.PrintHelp()
	case "/clear":
		a.display.ClearScreen()
	case "/history":
		a.display.PrintHistory(a.historyMgr.Entries())
	case "/clearhistory":
		a.store.ClearQueries()
		if err := a.historyMgr.Clear(); err != nil {
			a.display.PrintWarning(fmt.Sprintf("Failed to clear history: %v", err))
		} else {
			a.display.PrintSuccess("history cleared")
		}
	case "/mock":
		a.store.SetProvider(mock.NewProvider())
		a.display.PrintSuccess("switched to the offline sample provider")
	case "/voice":
		a.voiceQuery(ctx)
	case "/image":
		a.classifyImage(ctx, rest)
	case "/open":
		a.openResult(ctx, rest)
	default:
		a.display.PrintWarning(fmt.Sprintf("unknown command %s, try /help", cmd))
	}
	return false
}

// submit records the query in history and runs it through the store.
func (a *app) submit(ctx context.Context, text string) {
	if err := a.historyMgr.Record(text); err != nil {
		a.display.PrintWarning(fmt.Sprintf("Failed to save history: %v", err))
	}

	id := a.store.AddQuery(ctx, text)
	a.display.PrintInfo("searching for " + text + "...")

	// The REPL submits one query at a time, so waiting for all
	// in-flight calls waits for exactly this one.
	a.store.Wait()

	if q, ok := a.store.Get(id); ok {
		a.display.PrintQuery(q)
	}
}

// showSuggestions lists suggestions for the given prefix and remembers
// the numbered items for !<n> selection.
func (a *app) showSuggestions(prefix string) {
	items := a.suggester.Suggest(prefix, a.historyMgr.Entries())
	a.display.PrintSuggestions(items)

	a.lastSuggestions = a.lastSuggestions[:0]
	for _, it := range items {
		if it.Kind != suggest.KindHeader {
			a.lastSuggestions = append(a.lastSuggestions, it)
		}
	}
}

// pickSuggestion submits suggestion number n from the last listing.
// Selection both searches and records the text, exactly once each.
func (a *app) pickSuggestion(ctx context.Context, arg string) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(a.lastSuggestions) {
		a.display.PrintWarning("pick a suggestion number from the last ? listing")
		return
	}
	a.submit(ctx, a.lastSuggestions[n-1].Text)
}

// voiceQuery runs one recognition session and submits the transcript.
func (a *app) voiceQuery(ctx context.Context) {
	if a.controller.State() == speech.StateUnsupported {
		a.display.PrintWarning(speech.Message(speech.ErrUnsupported))
		return
	}

	done := make(chan speech.Snapshot, 1)
	a.controller.SetOnChange(func(snap speech.Snapshot) {
		a.display.PrintRecognition(snap)
		if snap.State == speech.StateIdle || snap.State == speech.StateError {
			select {
			case done <- snap:
			default:
			}
		}
	})
	defer a.controller.SetOnChange(nil)

	opts := speech.DefaultOptions(a.cfg.SpeechLanguage)
	if err := a.controller.Start(opts); err != nil {
		a.display.PrintError(err)
		a.controller.Reset()
		return
	}

	select {
	case snap := <-done:
		if snap.State == speech.StateError {
			a.controller.Reset()
			return
		}
		transcript := strings.TrimSpace(snap.Transcript())
		if transcript == "" {
			a.display.PrintInfo(speech.Message(speech.ErrNoSpeech))
			return
		}
		a.submit(ctx, transcript)
	case <-time.After(60 * time.Second):
		a.controller.Stop()
		a.display.PrintWarning("voice session timed out")
	case <-ctx.Done():
		a.controller.Stop()
	}
}

// classifyImage validates and classifies the image at the given path.
func (a *app) classifyImage(ctx context.Context, args string) {
	if args == "" {
		a.display.PrintWarning("usage: /image <path> [general|animal|plant|dish|car|landmark]")
		return
	}

	path := args
	typeName := ""
	if i := strings.LastIndex(args, " "); i > 0 {
		if t, err := imagerec.ParseType(args[i+1:]); err == nil {
			path = strings.TrimSpace(args[:i])
			typeName = string(t)
		}
	}

	typ, err := imagerec.ParseType(typeName)
	if err != nil {
		a.display.PrintError(err)
		return
	}

	a.display.PrintInfo(fmt.Sprintf("classifying %s (%s)...", path, typ))
	items, err := a.classifier.Classify(ctx, path, typ)
	if err != nil {
		a.display.PrintError(err)
		return
	}
	a.display.PrintClassification(items)
}

// maxBatchPreviews bounds how many results a bare /open fetches at once.
const maxBatchPreviews = 3

// openResult previews results of the current query. A bare /open fetches
// the top results together through the worker pool; /open <n> previews
// result n and stashes the excerpt back onto the result record.
func (a *app) openResult(ctx context.Context, arg string) {
	q, ok := a.store.Current()
	if !ok {
		a.display.PrintWarning("no current query, search for something first")
		return
	}
	if len(q.Results) == 0 {
		a.display.PrintWarning("the current query has no results to preview")
		return
	}

	if arg == "" {
		a.openTopResults(ctx, q)
		return
	}

	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(q.Results) {
		a.display.PrintWarning(fmt.Sprintf("pick a result number between 1 and %d", len(q.Results)))
		return
	}

	r := q.Results[n-1]
	if r.URL == "" {
		a.display.PrintWarning("that result has no URL to preview")
		return
	}

	a.display.PrintInfo("fetching " + r.URL + "...")
	p := a.fetcher.Fetch(ctx, r.URL)
	a.display.PrintPreview(p)

	if p.Error == nil && p.Excerpt != "" {
		results := make([]search.Result, len(q.Results))
		copy(results, q.Results)
		results[n-1].Content = p.Excerpt
		a.store.UpdateQuery(q.ID, search.Update{Results: results})
	}
}

// openTopResults fetches previews for the leading results in one batch
// and prints them in result order.
func (a *app) openTopResults(ctx context.Context, q search.Query) {
	urls := make([]string, 0, maxBatchPreviews)
	for _, r := range q.Results {
		if r.URL == "" {
			continue
		}
		urls = append(urls, r.URL)
		if len(urls) == maxBatchPreviews {
			break
		}
	}
	if len(urls) == 0 {
		a.display.PrintWarning("no results with URLs to preview")
		return
	}

	a.display.PrintInfo(fmt.Sprintf("fetching %d previews...", len(urls)))
	previews := a.fetcher.FetchAll(ctx, urls)
	for _, u := range urls {
		a.display.PrintPreview(previews[u])
	}
}

// parseFlags parses command-line flags over config file and defaults.
func parseFlags() (*config.Config, bool) {
	cfg := config.NewConfig()

	configPath := flag.String("config", config.DefaultConfigPath(), "Config file path")

	flag.StringVar(&cfg.GitHubURL, "github-url", cfg.GitHubURL, "GitHub API base URL")
	flag.StringVar(&cfg.GitHubToken, "github-token", cfg.GitHubToken, "GitHub API token")
	flag.IntVar(&cfg.MaxResults, "max-results", cfg.MaxResults, "Maximum search results")
	flag.StringVar(&cfg.ImageAPIURL, "image-api-url", cfg.ImageAPIURL, "Image recognition API base URL")
	flag.StringVar(&cfg.ImageAPIKey, "image-api-key", cfg.ImageAPIKey, "Image recognition API key")
	flag.StringVar(&cfg.ImageAPISecret, "image-api-secret", cfg.ImageAPISecret, "Image recognition API secret")
	flag.StringVar(&cfg.SpeechLanguage, "speech-language", cfg.SpeechLanguage, "Speech recognition language tag")
	flag.BoolVar(&cfg.UseMock, "mock", cfg.UseMock, "Use the offline sample search provider")
	flag.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Enable verbose output")

	autoStopMs := flag.Int("auto-stop", int(cfg.AutoStopDelay/time.Millisecond), "Voice auto-stop delay in milliseconds")
	voiceDemo := flag.Bool("voice-demo", false, "Use a scripted voice session instead of a real engine")

	flag.Parse()

	// Flags win over the config file, so load the file into a copy of
	// the defaults first and re-apply explicit flags on top.
	fileCfg := config.NewConfig()
	if err := fileCfg.LoadFile(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	} else {
		applyFileConfig(cfg, fileCfg)
	}

	cfg.AutoStopDelay = time.Duration(*autoStopMs) * time.Millisecond

	if cfg.GitHubToken == "" {
		cfg.GitHubToken = os.Getenv("GITHUB_TOKEN")
	}

	return cfg, *voiceDemo
}

// applyFileConfig copies file-provided values that were left at their
// defaults on the command line.
func applyFileConfig(cfg, fileCfg *config.Config) {
	defaults := config.NewConfig()
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if !set["github-url"] && fileCfg.GitHubURL != defaults.GitHubURL {
		cfg.GitHubURL = fileCfg.GitHubURL
	}
	if !set["github-token"] && fileCfg.GitHubToken != "" {
		cfg.GitHubToken = fileCfg.GitHubToken
	}
	if !set["max-results"] && fileCfg.MaxResults != defaults.MaxResults {
		cfg.MaxResults = fileCfg.MaxResults
	}
	if !set["image-api-url"] && fileCfg.ImageAPIURL != defaults.ImageAPIURL {
		cfg.ImageAPIURL = fileCfg.ImageAPIURL
	}
	if !set["image-api-key"] && fileCfg.ImageAPIKey != "" {
		cfg.ImageAPIKey = fileCfg.ImageAPIKey
	}
	if !set["image-api-secret"] && fileCfg.ImageAPISecret != "" {
		cfg.ImageAPISecret = fileCfg.ImageAPISecret
	}
	if !set["speech-language"] && fileCfg.SpeechLanguage != defaults.SpeechLanguage {
		cfg.SpeechLanguage = fileCfg.SpeechLanguage
	}
	if fileCfg.HistoryPath != defaults.HistoryPath {
		cfg.HistoryPath = fileCfg.HistoryPath
	}
	if fileCfg.MaxHistorySize != defaults.MaxHistorySize {
		cfg.MaxHistorySize = fileCfg.MaxHistorySize
	}
}
