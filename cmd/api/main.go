package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/analysis"
	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/api"
	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/classifier"
	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/collector"
	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/config"
	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/pipeline"
	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/reasoner"
	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/scheduler"
	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/storage"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg := config.Load()

	store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}
	defer store.Close()

	// 模型在启动时加载一次，加载失败只降级不退出
	ctx := context.Background()
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
	p := pipeline.New(deps)

	s := scheduler.New()
	err = s.Schedule(cfg.JobID, cfg.Interval(), func(ctx context.Context) {
		if _, err := p.Ingest(ctx); err != nil {
			log.Printf("ingest error: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("init scheduler failed: %v", err)
	}
	s.Start()
	log.Printf("scheduler: next %s run at %s", cfg.JobID, s.Next(cfg.JobID).Format(time.RFC3339))

	// 延迟执行首轮采集，避免与服务启动争抢资源
	time.AfterFunc(cfg.StartupDelay, func() {
		if err := s.RunNow(cfg.JobID); err != nil {
			log.Printf("initial run skipped: %v", err)
		}
	})

	r := gin.Default()
	// 若配置了全局访问密码，则启用 Basic Auth 保护（/health 仍然免认证）
	authEnabled := cfg.BasicAuthUser != "" && cfg.BasicAuthPass != ""
	r.Use(api.CORS(!authEnabled))
	if authEnabled {
		r.Use(api.BasicAuth(cfg.BasicAuthUser, cfg.BasicAuthPass))
	}
	api.NewServer(analyzer, store).RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("starting api server at %s ...", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server exit: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down ...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	if err := s.Stop(shutdownCtx); err != nil {
		log.Printf("scheduler stop: %v", err)
	}
	log.Println("bye")
}

// loadClassifier 未配置推理地址时直接禁用
func loadClassifier(ctx context.Context, cfg *config.Config, name, model string, adapt classifier.LabelAdapter) *classifier.Model {
	endpoint := cfg.ModelURL(model)
	if endpoint == "" {
		return classifier.Load(ctx, name, nil, adapt)
	}
	backend := classifier.NewHTTPBackend(endpoint, cfg.InferenceToken, cfg.InferenceTimeout, cfg.InferenceRPS)
	return classifier.Load(ctx, name, backend, adapt)
}
