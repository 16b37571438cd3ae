package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/elonfeng/pulse/internal/config"
	"github.com/elonfeng/pulse/internal/scheduler"
	"github.com/elonfeng/pulse/internal/store"
	"github.com/elonfeng/pulse/pkg/alert"
	"github.com/elonfeng/pulse/pkg/server"
	"github.com/elonfeng/pulse/pkg/source"
	"github.com/elonfeng/pulse/pkg/trend"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Str("service", "pulse").Logger()
}

// openStore returns nil when the database cannot be opened. Batches are then
// cached in memory and the alert log is not kept.
func openStore(cfg *config.Config, logger zerolog.Logger) store.Store {
	if cfg.Cache.Path == "" {
		return nil
	}
	db, err := store.New(cfg.Cache.Path)
	if err != nil {
		logger.Warn().Err(err).Msg("running without database")
		return nil
	}
	return db
}

func buildSources(cfg *config.Config, db store.Store, logger zerolog.Logger) []source.Source {
	client := source.NewClient(cfg.HTTP.UserAgent, cfg.HTTP.RatePerSecond, cfg.HTTP.Burst)
	sc := cfg.Sources

	var sources []source.Source
	if sc.Wikipedia.Enabled {
		sources = append(sources, source.NewWikipedia(client, sc.Wikipedia.BaseURL, sc.Wikipedia.Project, sc.Wikipedia.Limit))
	}
	if sc.HackerNews.Enabled {
		ex := source.NewExtractor(sc.HackerNews.MinLength, sc.HackerNews.TopN, source.HackerNewsStopWords, true)
		sources = append(sources, source.NewHackerNews(client, sc.HackerNews.BaseURL, sc.HackerNews.RSSURL, sc.HackerNews.Limit, ex))
	}
	if sc.Lemmy.Enabled {
		ex := source.NewExtractor(sc.Lemmy.MinLength, sc.Lemmy.TopN, source.LemmyStopWords, true)
		sources = append(sources, source.NewLemmy(client, sc.Lemmy.Instances, sc.Lemmy.Limit, ex))
	}
	if sc.Crypto.Enabled {
		sources = append(sources, source.NewCoinGecko(client, sc.Crypto.BaseURL, sc.Crypto.APIKey, sc.Crypto.Limit))
	}
	if sc.Dex.Enabled {
		sources = append(sources, source.NewGeckoTerminal(client, sc.Dex.BaseURL, sc.Dex.Network, sc.Dex.Limit))
	}

	ttl := cfg.Cache.ParseTTL()
	if ttl <= 0 {
		return sources
	}
	var cache source.BatchCache = store.NewMemoryCache(ttl)
	if db != nil {
		cache = db
	}
	for i, src := range sources {
		sources[i] = source.NewCached(src, cache, ttl, logger)
	}
	return sources
}

func buildEngine(cfg *config.Config, sources []source.Source, logger zerolog.Logger) *trend.Engine {
	return trend.NewEngine(sources, cfg.Sources.Timeouts(), logger)
}

func buildAlertManager(cfg *config.Config, logger zerolog.Logger) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret, cfg.HTTP.UserAgent))
	}
	if cfg.Alerts.Telegram.Enabled && cfg.Alerts.Telegram.BotToken != "" && cfg.Alerts.Telegram.ChatID != 0 {
		notifiers = append(notifiers, alert.NewTelegram(cfg.Alerts.Telegram.BotToken, cfg.Alerts.Telegram.ChatID))
	}

	return alert.NewManager(notifiers, logger)
}

func runAggregate(jsonOutput bool, page, limit int, filterSources []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.Log)

	db := openStore(cfg, logger)
	if db != nil {
		defer db.Close()
	}

	allSources := buildSources(cfg, db, logger)

	// Filter to requested sources only.
	var sources []source.Source
	if len(filterSources) > 0 {
		wanted := make(map[source.SourceID]bool)
		for _, name := range filterSources {
			id, ok := source.ParseSourceID(name)
			if !ok {
				return fmt.Errorf("unknown source %q", name)
			}
			wanted[id] = true
		}
		for _, s := range allSources {
			if wanted[s.Name()] {
				sources = append(sources, s)
			}
		}
		if len(sources) == 0 {
			return fmt.Errorf("no matching sources for: %s", strings.Join(filterSources, ", "))
		}
	} else {
		sources = allSources
	}

	engine := buildEngine(cfg, sources, logger)
	resp, err := engine.Aggregate(context.Background(), trend.NewPageRequest(page, limit))
	if err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	for _, e := range resp.Debug.Errors {
		fmt.Fprintf(os.Stderr, "warning: %s\n", e)
	}

	if len(resp.Topics) == 0 {
		fmt.Println("no topics found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tLABEL\tVELOCITY\tTICKER\tTOPIC\tCATEGORY\tSOURCES\tSIGNAL")
	for _, t := range resp.Topics {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%s\t%d\t%s\n",
			t.LaunchScore, t.Label.Text, t.Velocity, t.Ticker, t.Name,
			t.Category, t.SourceCount, signalSummary(t.Sources))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	p := resp.Pagination
	fmt.Fprintf(os.Stderr, "\npage %d/%d, %d topics, %s\n",
		p.Page, p.TotalPages, p.TotalCount, time.Duration(resp.Debug.DurationMs)*time.Millisecond)
	return nil
}

func runAlerts(jsonOutput bool, limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Cache.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	return printAlerts(context.Background(), os.Stdout, db, jsonOutput, limit)
}

func printAlerts(ctx context.Context, out io.Writer, db store.Store, jsonOutput bool, limit int) error {
	alerts, err := db.ListAlerts(ctx, limit)
	if err != nil {
		return fmt.Errorf("list alerts: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(alerts)
	}

	if len(alerts) == 0 {
		fmt.Fprintln(out, "no alerts sent yet (alerts are sent by: pulse run)")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tLABEL\tTOPIC\tALERTED")
	for _, a := range alerts {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			a.LaunchScore, trend.LabelFor(a.LaunchScore).Text, a.TopicKey, humanize.Time(a.AlertedAt))
	}
	return w.Flush()
}

func runServe(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.Log)

	if port == 0 {
		port = cfg.Server.Port
	}

	db := openStore(cfg, logger)
	if db != nil {
		defer db.Close()
	}

	engine := buildEngine(cfg, buildSources(cfg, db, logger), logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := server.New(engine, port, logger)
	return srv.ListenAndServe(ctx)
}

func runDaemon(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.Log)

	if port == 0 {
		port = cfg.Server.Port
	}

	db := openStore(cfg, logger)
	if db != nil {
		defer db.Close()
	}

	engine := buildEngine(cfg, buildSources(cfg, db, logger), logger)
	alertMgr := buildAlertManager(cfg, logger)

	var alertLog scheduler.AlertLog
	if db != nil {
		alertLog = db
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(engine, alertMgr, alertLog,
		cfg.Schedule.Spec,
		cfg.Alerts.MinScore,
		cfg.Alerts.ParseCooldown(),
		logger,
	)
	srv := server.New(engine, port, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := sched.Run(gctx); err != nil && gctx.Err() == nil {
			return fmt.Errorf("scheduler: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})

	err = g.Wait()
	logger.Info().Msg("shut down")
	return err
}

// signalSummary summarizes the strongest raw figure behind a topic.
func signalSummary(s source.Sources) string {
	var parts []string
	if w := s.Wikipedia; w != nil {
		parts = append(parts, humanize.Comma(int64(w.Views))+" views")
	}
	if hn := s.HackerNews; hn != nil {
		parts = append(parts, humanize.Comma(int64(hn.Score))+" pts")
	}
	if l := s.Lemmy; l != nil {
		parts = append(parts, humanize.Comma(int64(l.Score))+" votes")
	}
	if c := s.Crypto; c != nil {
		parts = append(parts, fmt.Sprintf("#%d %+.1f%%", c.Rank, c.Change24h))
	}
	if d := s.Dex; d != nil {
		parts = append(parts, "$"+humanize.CommafWithDigits(d.Volume, 0)+" vol")
	}
	return strings.Join(parts, ", ")
}
