package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/analysis"
	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/classifier"
	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/collector"
	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/config"
	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/pipeline"
	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/reasoner"
	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/storage"
)

// 一个仅执行一次采集任务的命令行入口：适合手动触发采集
func main() {
	cfg := config.Load()

	store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	analyzer := analysis.NewAnalyzer(
		loadClassifier(ctx, cfg, "fake_news", cfg.FakeNewsModel, classifier.FakeNewsLabel),
		loadClassifier(ctx, cfg, "sentiment", cfg.SentimentModel, classifier.SentimentLabel),
	)

	deps := pipeline.Deps{
		Source:   collector.NewMultiSource(collector.BuildFetchers(cfg.Sources)...),
		Store:    store,
		Analyzer: analyzer,
		Workers:  cfg.Workers,
	}
	if r := reasoner.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel); r != nil {
		deps.Reasoner = r
	}

	// 只执行一轮采集任务后退出
	rep, err := pipeline.New(deps).Ingest(ctx)
	if err != nil {
		log.Printf("collect failed: %v", err)
		return
	}
	log.Printf("collect done: %s", rep.Summary())
}

func loadClassifier(ctx context.Context, cfg *config.Config, name, model string, adapt classifier.LabelAdapter) *classifier.Model {
	endpoint := cfg.ModelURL(model)
	if endpoint == "" {
		return classifier.Load(ctx, name, nil, adapt)
	}
	backend := classifier.NewHTTPBackend(endpoint, cfg.InferenceToken, cfg.InferenceTimeout, cfg.InferenceRPS)
	return classifier.Load(ctx, name, backend, adapt)
}
