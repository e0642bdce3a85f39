package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/rehmatsg/quest-search-public-api/internal/config"
	dbRedis "github.com/rehmatsg/quest-search-public-api/internal/db/redis"
	logpkg "github.com/rehmatsg/quest-search-public-api/internal/logger"
	"github.com/rehmatsg/quest-search-public-api/internal/metrics"
	articlerepo "github.com/rehmatsg/quest-search-public-api/internal/repository/article"
	threadrepo "github.com/rehmatsg/quest-search-public-api/internal/repository/thread"
	"github.com/rehmatsg/quest-search-public-api/internal/transport/brave"
	chiTransport "github.com/rehmatsg/quest-search-public-api/internal/transport/chi"
	"github.com/rehmatsg/quest-search-public-api/internal/transport/gnews"
	"github.com/rehmatsg/quest-search-public-api/internal/transport/ipgeo"
	openaiLLM "github.com/rehmatsg/quest-search-public-api/internal/transport/openai"
	"github.com/rehmatsg/quest-search-public-api/internal/transport/openweather"
	"github.com/rehmatsg/quest-search-public-api/internal/transport/web"
	"github.com/rehmatsg/quest-search-public-api/internal/transport/wikidata"
	"github.com/rehmatsg/quest-search-public-api/internal/transport/yelp"
	"github.com/rehmatsg/quest-search-public-api/internal/usecase/fanout"
	"github.com/rehmatsg/quest-search-public-api/internal/usecase/followup"
	healthuc "github.com/rehmatsg/quest-search-public-api/internal/usecase/health"
	"github.com/rehmatsg/quest-search-public-api/internal/usecase/intent"
	"github.com/rehmatsg/quest-search-public-api/internal/usecase/news"
	"github.com/rehmatsg/quest-search-public-api/internal/usecase/quest"
	"github.com/rehmatsg/quest-search-public-api/internal/usecase/summarize"
	threaduc "github.com/rehmatsg/quest-search-public-api/internal/usecase/thread"
	"github.com/rehmatsg/quest-search-public-api/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting quest API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Bool("news_crawler", cfg.News.Enabled),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, seconds(cfg.Database.ReadinessTimeout)); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.Register()

	// Repositories
	threads := threadrepo.New(store, cfg.Storage.KeyPrefix)
	articles := articlerepo.New(store, cfg.Storage.KeyPrefix)
	if err := articles.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to create article index", zap.Error(err))
	}

	// Providers
	llm := openaiLLM.New(&openaiLLM.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: seconds(cfg.LLM.TimeoutSec),
		Logger:  logger,
	})
	p := cfg.Providers
	braveClient := brave.New(brave.Config{APIKey: p.Brave.APIKey, BaseURL: p.Brave.BaseURL, Timeout: seconds(p.Brave.TimeoutSec)})
	yelpClient := yelp.New(yelp.Config{APIKey: p.Yelp.APIKey, BaseURL: p.Yelp.BaseURL, Timeout: seconds(p.Yelp.TimeoutSec)})
	wikidataClient := wikidata.New(wikidata.Config{
		APIURL:    p.Wikidata.APIURL,
		SPARQLURL: p.Wikidata.SPARQLURL,
		Language:  p.Wikidata.Language,
		Timeout:   seconds(p.Wikidata.TimeoutSec),
	})
	locator := ipgeo.New(ipgeo.Config{APIKey: p.IPGeo.APIKey, BaseURL: p.IPGeo.BaseURL, Timeout: seconds(p.IPGeo.TimeoutSec)})
	weather := openweather.New(openweather.Config{
		APIKey:  p.OpenWeather.APIKey,
		BaseURL: p.OpenWeather.BaseURL,
		Timeout: seconds(p.OpenWeather.TimeoutSec),
	})
	pages := web.NewFetcher(web.Config{
		Timeout:   millis(cfg.Crawl.PageTimeoutMs),
		UserAgent: cfg.Crawl.UserAgent,
		MaxBytes:  cfg.Crawl.MaxBytes,
	})

	// Use cases
	threadSvc := threaduc.New(threads, threaduc.Config{PersistTimeout: seconds(cfg.Thread.PersistTimeoutSec)}, logger)
	questSvc := quest.New(quest.Deps{
		Intent: intent.New(llm, intent.Config{
			Model:       cfg.LLM.IntentModel,
			Temperature: cfg.LLM.IntentTemp,
			MaxAttempts: cfg.LLM.MaxAttempts,
		}, logger),
		Locator: locator,
		Fanout:  fanout.New(braveClient, yelpClient, wikidataClient, logger),
		Summarize: summarize.New(llm, pages, summarize.Config{
			Model:        cfg.LLM.SummaryModel,
			Temperature:  cfg.LLM.SummaryTemp,
			CrawlSources: cfg.Summarize.CrawlSources,
		}, logger),
		FollowUps: followup.New(llm, followup.Config{
			Model:       cfg.LLM.FollowUpModel,
			Temperature: cfg.LLM.FollowUpTemp,
		}, logger),
		Threads:  threadSvc,
		Articles: articles,
	}, quest.Config{TurnTimeout: seconds(cfg.HTTP.WriteTimeoutSec)}, logger)
	feed := news.NewFeed(articles, locator, weather, news.FeedConfig{
		Topics: cfg.News.Topics,
		Size:   cfg.News.FeedSize,
	}, logger)
	healthSvc := healthuc.New(store, llm, logger)

	var scheduler *news.Scheduler
	if cfg.News.Enabled {
		scheduler = newScheduler(cfg, articles, logger)
		scheduler.Start()
	}

	server := chiTransport.NewServer(questSvc, threadSvc, feed, healthSvc, chiTransport.CallerConfig{
		FixedIP:       cfg.Geo.FixedIP,
		TrustForwards: cfg.Geo.TrustForwards,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  seconds(cfg.HTTP.ReadTimeoutSec),
		WriteTimeout: seconds(cfg.HTTP.WriteTimeoutSec),
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), seconds(cfg.HTTP.ShutdownSec))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	if scheduler != nil {
		if err := scheduler.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping news scheduler", zap.Error(err))
		}
	}

	// Turns that outlived their clients still save their threads.
	questSvc.Wait()
	threadSvc.Wait()

	logger.Info("Server stopped gracefully")
}

// newScheduler wires the crawler to its own article fetcher; article pages
// get a longer timeout and the news user agent.
func newScheduler(cfg config.Config, articles *articlerepo.Repo, logger *zap.Logger) *news.Scheduler {
	g := cfg.Providers.GNews
	feed := gnews.New(gnews.Config{
		BaseURL:  g.BaseURL,
		Language: g.Language,
		Country:  g.Country,
		Timeout:  seconds(g.TimeoutSec),
	})
	fetcher := web.NewFetcher(web.Config{
		Timeout:   millis(cfg.Crawl.ArticleTimeoutMs),
		UserAgent: cfg.Crawl.UserAgent,
		MaxBytes:  cfg.Crawl.MaxBytes,
	})
	crawler := news.NewCrawler(feed, fetcher, articles, news.CrawlerConfig{
		Concurrency:    cfg.News.Concurrency,
		ArticleTimeout: millis(cfg.Crawl.ArticleTimeoutMs),
	}, logger)

	scheduler, err := news.NewScheduler(crawler, news.SchedulerConfig{
		TopSchedule:   cfg.News.TopSchedule,
		TopicSchedule: cfg.News.TopicSchedule,
		Topics:        cfg.News.Topics,
		RunOnStart:    true,
	}, logger)
	if err != nil {
		logger.Fatal("Invalid news schedule", zap.Error(err))
	}
	return scheduler
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func millis(n int) time.Duration { return time.Duration(n) * time.Millisecond }
