// iit-archive is a terminal study desk for previous-year IIT exam papers.
// It browses the paper archive, opens a paper in a viewer and answers
// questions about it with an LLM that has read the paper's text.
//
// Besides the interactive UI there are two one-shot modes for scripting:
// --extract prints a paper's extracted text as JSON, and --ask sends a
// single question about a paper and prints the answer.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/iit-archive/cli/config"
	"github.com/iit-archive/cli/internal/availability"
	"github.com/iit-archive/cli/internal/catalog"
	"github.com/iit-archive/cli/internal/chat"
	"github.com/iit-archive/cli/internal/documents"
	"github.com/iit-archive/cli/internal/logger"
	"github.com/iit-archive/cli/internal/openrouter"
	"github.com/iit-archive/cli/internal/rag"
	"github.com/iit-archive/cli/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	extract    string
	ask        string
	paper      string
	title      string
	model      string
	logLevel   string
	verbose    bool
}

func run() error {
	var opts options

	flagSet := pflag.NewFlagSet("iit-archive", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.configPath, "config", "c", "", "config file (default ~/.iit-archive/config.yaml)")
	flagSet.StringVar(&opts.extract, "extract", "", "print the extracted text of a paper as JSON and exit")
	flagSet.StringVar(&opts.ask, "ask", "", "ask one question about --paper and exit")
	flagSet.StringVar(&opts.paper, "paper", "", "paper path, URL or archive path such as /papers/2020/paper-1.pdf")
	flagSet.StringVar(&opts.title, "title", "", "paper title used in prompts (defaults to the file name)")
	flagSet.StringVar(&opts.model, "model", "", `assistant model, overrides the config file ("auto" picks one)`)
	flagSet.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "also log to stderr (one-shot modes only)")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	configPath := opts.configPath
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.model != "" {
		cfg.Assistant.Model = opts.model
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}

	oneShot := opts.extract != "" || opts.ask != ""
	log := logger.New(logger.Options{
		FilePath: cfg.Logging.FilePath,
		Level:    cfg.Logging.Level,
		Console:  oneShot && opts.verbose,
	})
	defer log.Sync()

	log.Info("starting",
		zap.String("config", configPath),
		zap.String("model", cfg.Assistant.Model),
		zap.String("archive", cfg.Archive.BaseURL))

	if cfg.Assistant.APIKey == "" {
		log.Warn("assistant API key is not set", zap.String("env", config.EnvAPIKey))
		if opts.extract == "" {
			fmt.Fprintf(os.Stderr, "warning: %s is not set; the study assistant will answer with an error\n", config.EnvAPIKey)
		}
	}

	extractor := documents.NewExtractor(documents.WithLogger(log.Named("documents")))

	switch {
	case opts.extract != "":
		return runExtract(extractor, catalog.ResolveURL(cfg.Archive.BaseURL, opts.extract))
	case opts.ask != "":
		if opts.paper == "" {
			return fmt.Errorf("--ask needs --paper")
		}
		locator := catalog.ResolveURL(cfg.Archive.BaseURL, opts.paper)
		client := newClient(cfg, log)
		resolveModel(client, log)
		return runAsk(cfg, log, extractor, client, locator, titleFor(opts), opts.ask)
	}

	client := newClient(cfg, log)
	resolveModel(client, log)
	manager := chat.NewManager(extractor, client, sessionOptions(cfg, log)...)
	prober := availability.NewProber(
		availability.WithTimeout(cfg.Archive.ProbeTimeout),
		availability.WithLogger(log.Named("availability")),
	)

	return tui.Run(tui.Deps{
		Config:     cfg,
		ConfigPath: configPath,
		Client:     client,
		Manager:    manager,
		Prober:     prober,
		Downloader: tui.NewDownloader(nil, log.Named("download")),
		Logger:     log,
	})
}

func newClient(cfg *config.Config, log *zap.Logger) *openrouter.Client {
	return openrouter.NewClient(openrouter.Config{
		BaseURL:     cfg.Assistant.BaseURL,
		APIKey:      cfg.Assistant.APIKey,
		Model:       cfg.Assistant.Model,
		Temperature: cfg.Assistant.Temperature,
		MaxTokens:   cfg.Assistant.MaxTokens,
		Referer:     cfg.Assistant.Referer,
		AppTitle:    cfg.Assistant.AppTitle,
	},
		openrouter.WithTimeout(cfg.Assistant.Timeout),
		openrouter.WithLogger(log.Named("openrouter")),
	)
}

// autoModel asks the endpoint for the best model it offers.
const autoModel = "auto"

func resolveModel(client *openrouter.Client, log *zap.Logger) {
	if client.Model() != autoModel {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	model, err := openrouter.NewModelSelector(client).SelectBestModel(ctx)
	if err != nil {
		model = config.Default().Assistant.Model
		log.Warn("model selection failed, using default", zap.String("model", model), zap.Error(err))
	} else {
		log.Info("model selected", zap.String("model", model))
	}
	client.SetModel(model)
}

func sessionOptions(cfg *config.Config, log *zap.Logger) []chat.Option {
	return []chat.Option{
		chat.WithContextBuilder(rag.NewContextBuilder(cfg.Context.MaxChars, cfg.Context.MinTextLength)),
		chat.WithRequestTimeout(cfg.Assistant.Timeout),
		chat.WithLogger(log.Named("chat")),
	}
}

func titleFor(opts options) string {
	if opts.title != "" {
		return opts.title
	}
	name := opts.paper
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, ".pdf")
}

func runExtract(extractor *documents.Extractor, locator string) error {
	result := extractor.Extract(context.Background(), locator)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("extraction failed: %s", result.Error)
	}
	return nil
}

func runAsk(cfg *config.Config, log *zap.Logger, extractor *documents.Extractor, client *openrouter.Client, locator, title, question string) error {
	ctx := context.Background()
	session := chat.NewSession(locator, title, extractor, client, sessionOptions(cfg, log)...)
	defer session.Close()

	session.Open(ctx)
	if session.Status() == chat.StatusDegraded {
		for _, t := range session.Turns() {
			if t.Welcome {
				fmt.Fprintln(os.Stderr, t.Content)
			}
		}
	}

	turn, err := session.Send(ctx, question)
	if err != nil {
		return err
	}
	if turn.IsError {
		return fmt.Errorf("assistant: %s", turn.Content)
	}
	fmt.Println(turn.Content)
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `iit-archive: previous-year IIT papers with a study assistant.

Without flags, opens the interactive archive. Papers are resolved against
archive.base_url from the config file (an http(s) URL or a local directory).
The assistant needs %s in the environment or a .env file.

Usage:
  iit-archive [flags]

Examples:
  # Browse the archive
  iit-archive

  # Extract a paper's text
  iit-archive --extract /papers/2020/paper-1.pdf

  # Ask a single question
  iit-archive --paper /papers/2020/paper-1.pdf --ask "Summarize the questions on this page."

Flags:
`, config.EnvAPIKey)
	flagSet.PrintDefaults()
}
