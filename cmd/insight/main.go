package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/convotrack/insight/internal/models"
	"github.com/convotrack/insight/pkg/agent"
	"github.com/convotrack/insight/pkg/analysis"
	"github.com/convotrack/insight/pkg/config"
	"github.com/convotrack/insight/pkg/index"
	"github.com/convotrack/insight/pkg/llm"
	"github.com/convotrack/insight/pkg/loader"
	"github.com/convotrack/insight/pkg/retriever"
	"github.com/convotrack/insight/pkg/router"
	"github.com/convotrack/insight/pkg/scraper"
	"github.com/convotrack/insight/pkg/taxonomy"
)

type options struct {
	configPath  string
	corpusDir   string
	scrapeURL   string
	rebuild     bool
	question    string
	analysis    string
	synthesized bool
}

func main() {
	opts := parseFlags()

	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() options {
	var opts options

	flag.StringVar(&opts.configPath, "config", "", "Path to config file")
	flag.StringVar(&opts.corpusDir, "corpus", "", "Corpus directory (overrides config)")
	flag.StringVar(&opts.scrapeURL, "scrape", "", "Scrape case studies from this URL into the corpus directory")
	flag.BoolVar(&opts.rebuild, "rebuild", false, "Clear and repopulate the vector index")
	flag.StringVar(&opts.question, "ask", "", "Answer one question and exit")
	flag.StringVar(&opts.analysis, "type", "", "Analysis type: default, strategic, trends, comparative, executive")
	flag.BoolVar(&opts.synthesized, "synthesized", false, "Use the three-pass synthesized report mode")
	flag.Parse()

	return opts
}

func run(opts options) error {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.corpusDir != "" {
		cfg.Corpus.Path = opts.corpusDir
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %v", e)
		}
		return fmt.Errorf("invalid configuration")
	}

	ctx := context.Background()

	if opts.scrapeURL != "" {
		if err := scrapeCorpus(ctx, opts.scrapeURL, cfg.Corpus.Path); err != nil {
			return err
		}
	}

	tax, err := taxonomy.Load(cfg.Corpus.TaxonomyPath)
	if err != nil {
		return err
	}

	embedder, err := llm.NewEmbedder(llm.EmbedderConfig{
		Model:   cfg.Embedding.Model,
		BaseURL: cfg.LLM.BaseURL,
	})
	if err != nil {
		return err
	}

	chat, err := llm.NewChat(llm.ChatConfig{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		BaseURL:     cfg.LLM.BaseURL,
	})
	if err != nil {
		return err
	}

	manager, err := index.New(index.Config{
		ConnString: cfg.Database.URL,
		TableName:  cfg.Database.TableName,
		VectorDim:  cfg.Embedding.Dimension,
		BatchSize:  cfg.Database.BatchSize,
	}, embedder)
	if err != nil {
		return err
	}
	defer manager.Close()

	if err := manager.EnsureIndex(ctx); err != nil {
		return err
	}

	corpus := loader.NewWithConfig(loader.LoaderConfig{
		ChunkSize:    cfg.Chunking.Size,
		ChunkOverlap: cfg.Chunking.Overlap,
	})
	docs, err := corpus.Load(cfg.Corpus.Path)
	if err != nil {
		return err
	}

	populated, err := manager.ExistsAndPopulated(ctx)
	if err != nil {
		return err
	}
	if opts.rebuild || !populated {
		if err := buildIndex(ctx, manager, corpus, docs, cfg.Database.BatchSize, opts.rebuild); err != nil {
			return err
		}
	} else {
		color.Green("✓ Using existing vector index")
	}

	rt := router.New(tax)
	if cfg.Router.UseModel {
		rt = router.NewWithModel(tax, chat)
	}
	a := agent.New(
		retriever.New(manager, tax, retriever.Config{
			K:           cfg.Retrieval.K,
			PrimaryCap:  cfg.Retrieval.PrimaryCap,
			ExpandedCap: cfg.Retrieval.ExpandedCap,
		}),
		rt,
		analysis.New(chat, tax),
		agent.Config{
			UseModelRouter: cfg.Router.UseModel,
			Topics:         loader.Topics(docs),
		},
	)

	if opts.question != "" {
		return askOnce(ctx, a, opts)
	}
	return chatLoop(ctx, a)
}

func scrapeCorpus(ctx context.Context, baseURL, corpusDir string) error {
	color.Blue("\nScraping case studies from %s\n", baseURL)

	spinner := newSpinner("Scraping case studies...")
	var scrapedCount int32
	s, err := scraper.NewWithConfig(scraper.Config{
		BaseURL: baseURL,
		OnProgress: func(string) {
			n := atomic.AddInt32(&scrapedCount, 1)
			spinner.Describe(color.CyanString("Scraping case studies... (%d pages)", n))
		},
	})
	if err != nil {
		return err
	}

	docs, err := s.Scrape(ctx, baseURL)
	spinner.Finish()
	if err != nil {
		return fmt.Errorf("failed to scrape %s: %w", baseURL, err)
	}

	if err := scraper.WriteCorpus(corpusDir, docs); err != nil {
		return err
	}
	color.Green("\n✓ Visited %d pages, wrote %d articles into %s\n",
		atomic.LoadInt32(&scrapedCount), len(docs), corpusDir)
	return nil
}

func buildIndex(ctx context.Context, manager *index.Manager, corpus *loader.Loader, docs []models.Document, batchSize int, rebuild bool) error {
	if rebuild {
		color.Blue("\nClearing vector index")
		if err := manager.Clear(ctx); err != nil {
			return err
		}
	}

	chunks := corpus.Split(docs)
	if len(chunks) == 0 {
		return fmt.Errorf("corpus produced no chunks; is the corpus directory empty?")
	}

	bar := newProgressBar(len(chunks), "Embedding and indexing chunks...")
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := manager.Populate(ctx, chunks[start:end]); err != nil {
			return err
		}
		bar.Add(end - start)
	}
	bar.Finish()

	color.Green("\n✓ Indexed %d chunks from %d articles\n", len(chunks), len(docs))
	return nil
}

func askOnce(ctx context.Context, a *agent.Agent, opts options) error {
	resp := answer(ctx, a, opts.question, opts.analysis, opts.synthesized)
	printResponse(resp)
	if resp.Error != "" {
		return fmt.Errorf("question failed: %s", resp.Error)
	}
	return nil
}

func chatLoop(ctx context.Context, a *agent.Agent) error {
	color.Cyan("\nAsk business questions about the case-study corpus (type 'exit' to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		question := scanner.Text()
		if strings.ToLower(strings.TrimSpace(question)) == "exit" {
			break
		}

		spinner := newSpinner("Analyzing...")
		resp := a.Ask(ctx, question)
		spinner.Finish()
		fmt.Print("\r")

		printResponse(resp)
	}

	return scanner.Err()
}

func answer(ctx context.Context, a *agent.Agent, question, analysisType string, synthesized bool) models.Response {
	if analysisType == "" && !synthesized {
		return a.Ask(ctx, question)
	}

	typ, ok := models.ParseAnalysisType(strings.ToLower(analysisType))
	if !ok {
		color.Yellow("unknown analysis type %q, using default", analysisType)
	}
	if synthesized {
		return a.AskSynthesized(ctx, question, typ)
	}
	return a.AskWithType(ctx, question, typ)
}

func printResponse(resp models.Response) {
	if resp.Error != "" {
		color.Red("\n%s\n", resp.Answer)
		return
	}

	assistantPrompt := color.New(color.FgCyan).PrintfFunc()
	assistantPrompt("\n%s\n", resp.Answer)

	if len(resp.Sources) > 0 {
		color.Blue("\nSources (%d):", len(resp.Sources))
		for i, src := range resp.Sources {
			fmt.Printf("  %d. [%s] %s\n", i+1, src.Relevance, src.SourceURL)
		}
	}
}

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("chunks"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func newSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}
