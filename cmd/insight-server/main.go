package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/convotrack/insight/pkg/agent"
	"github.com/convotrack/insight/pkg/analysis"
	"github.com/convotrack/insight/pkg/config"
	"github.com/convotrack/insight/pkg/index"
	"github.com/convotrack/insight/pkg/llm"
	"github.com/convotrack/insight/pkg/loader"
	"github.com/convotrack/insight/pkg/retriever"
	"github.com/convotrack/insight/pkg/router"
	"github.com/convotrack/insight/pkg/taxonomy"
	"github.com/convotrack/insight/server"
)

func main() {
	var configPath, addr string
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&addr, "addr", "", "Listen address (overrides config)")
	flag.Parse()

	if err := run(configPath, addr); err != nil {
		log.Fatal(err)
	}
}

// run starts serving before the pipeline is ready: /health reports
// initializing until the index is verified and the agent attached.
func run(configPath, addr string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			log.Printf("config: %v", e)
		}
		return fmt.Errorf("invalid configuration")
	}

	srv := server.New()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(cfg.Server.Addr)
	}()

	if err := initPipeline(context.Background(), cfg, srv); err != nil {
		return err
	}

	return <-errCh
}

func initPipeline(ctx context.Context, cfg *config.Config, srv *server.Server) error {
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
	if !populated {
		log.Printf("populating vector index from %s", cfg.Corpus.Path)
		if err := manager.Populate(ctx, corpus.Split(docs)); err != nil {
			return err
		}
	}

	rt := router.New(tax)
	if cfg.Router.UseModel {
		rt = router.NewWithModel(tax, chat)
	}

	ret := retriever.New(manager, tax, retriever.Config{
		K:           cfg.Retrieval.K,
		PrimaryCap:  cfg.Retrieval.PrimaryCap,
		ExpandedCap: cfg.Retrieval.ExpandedCap,
	})

	a := agent.New(ret, rt, analysis.New(chat, tax), agent.Config{
		UseModelRouter: cfg.Router.UseModel,
		Topics:         loader.Topics(docs),
	})

	srv.Attach(a, ret)
	log.Printf("pipeline ready: %d articles loaded", len(docs))
	return nil
}
