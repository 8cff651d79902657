package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/apexestimating/fieldcheck/internal/checklist"
	"github.com/apexestimating/fieldcheck/internal/httpapi"
	"github.com/apexestimating/fieldcheck/internal/localcache"
	"github.com/apexestimating/fieldcheck/internal/remotestore"
	"github.com/apexestimating/fieldcheck/internal/syncer"
)

func main() {
	addr := flag.String("addr", envOrDefault("FIELDCHECK_ADDR", ":8080"), "listen address")
	templateFile := flag.String("template-file", strings.TrimSpace(os.Getenv("FIELDCHECK_TEMPLATE_FILE")), "template override file")
	cacheDSN := flag.String("cache-dsn", strings.TrimSpace(os.Getenv("FIELDCHECK_CACHE_DSN")), "local cache DSN (file://path or memory://)")
	postgresDSN := flag.String("postgres-dsn", strings.TrimSpace(os.Getenv("FIELDCHECK_POSTGRES_DSN")), "remote store DSN")
	userID := flag.String("user", strings.TrimSpace(os.Getenv("FIELDCHECK_USER_ID")), "acting user ID")
	interval := flag.Duration("interval", durationEnv("FIELDCHECK_SYNC_INTERVAL", 0), "background sync interval")
	once := flag.Bool("once", false, "run one sync cycle and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	template, rules, err := loadTemplate(*templateFile)
	if err != nil {
		log.Fatalf("failed to load template override: %v", err)
	}

	cache, cachePath, err := buildCache(*cacheDSN)
	if err != nil {
		log.Fatalf("failed to initialize local cache: %v", err)
	}
	defer cache.Close()

	store, err := buildStore(*postgresDSN, template)
	if err != nil {
		log.Fatalf("failed to initialize remote store: %v", err)
	}
	defer store.Close()

	session := syncer.NewStaticSession(syncer.User{
		ID:    *userID,
		Email: strings.TrimSpace(os.Getenv("FIELDCHECK_USER_EMAIL")),
	})

	reconciler, err := syncer.NewReconciler(syncer.Options{
		Store:    store,
		Cache:    cache,
		Session:  session,
		Template: template,
		Rules:    rules,
		Interval: *interval,
		Logger:   log.Default(),
	})
	if err != nil {
		log.Fatalf("failed to initialize reconciler: %v", err)
	}
	if _, err := reconciler.Load(ctx, false); err != nil {
		log.Fatalf("failed to load checklist: %v", err)
	}
	if *once {
		if err := reconciler.SyncNow(ctx); err != nil {
			log.Fatalf("sync cycle failed: %v", err)
		}
		log.Printf("sync cycle completed")
		return
	}
	go func() {
		if err := reconciler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("reconciler stopped: %v", err)
		}
	}()

	if cachePath != "" {
		watchCacheFile(ctx, reconciler, cachePath)
	}

	server := httpapi.NewServerWithConfig(reconciler, httpapi.ServerConfig{
		JWTSecret:       os.Getenv("FIELDCHECK_JWT_SECRET"),
		RateLimitMax:    intEnv("FIELDCHECK_RATE_LIMIT_MAX", 0),
		RateLimitWindow: durationEnv("FIELDCHECK_RATE_LIMIT_WINDOW", time.Minute),
		MaxBodyBytes:    int64Env("FIELDCHECK_MAX_BODY_BYTES", 0),
		StreamInterval:  durationEnv("FIELDCHECK_STREAM_INTERVAL", 0),
	})

	httpServer := &http.Server{Addr: *addr, Handler: server}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("fieldcheck listening on %s", *addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}
}

func loadTemplate(path string) ([]checklist.Item, []checklist.ConditionalRule, error) {
	if path == "" {
		return nil, nil, nil
	}
	cfg, err := checklist.LoadTemplateFile(path)
	if err != nil {
		return nil, nil, err
	}
	return cfg.Items, cfg.Rules, nil
}

// buildCache resolves the local cache DSN. The file path is returned
// alongside so it can be watched for external rewrites.
func buildCache(dsn string) (localcache.Cache, string, error) {
	if dsn == "" {
		dataDir := strings.TrimSpace(os.Getenv("FIELDCHECK_DATA_DIR"))
		if dataDir == "" {
			dataDir = ".fieldcheck"
		}
		dsn = "file://" + filepath.Join(dataDir, "checklist.json")
	}
	cache, err := localcache.BuildCacheFromDSN(dsn)
	if err != nil {
		return nil, "", err
	}
	path := ""
	if strings.HasPrefix(dsn, "file://") {
		path = strings.TrimPrefix(dsn, "file://")
	} else if !strings.Contains(dsn, "://") {
		path = dsn
	}
	return cache, path, nil
}

func buildStore(dsn string, template []checklist.Item) (remotestore.Store, error) {
	if dsn == "" {
		return remotestore.NewNullStore(), nil
	}
	if len(template) == 0 {
		template = checklist.Template()
	}
	return remotestore.NewPostgresStore(dsn, template)
}

func watchCacheFile(ctx context.Context, reconciler *syncer.Reconciler, path string) {
	watcher, err := localcache.WatchFile(path)
	if err != nil {
		log.Printf("cache watch disabled: %v", err)
		return
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case <-watcher.Events():
				if _, err := reconciler.ReloadFromCache(); err != nil {
					log.Printf("cache reload failed: %v", err)
				}
			}
		}
	}()
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func intEnv(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %d", name, raw, fallback)
		return fallback
	}
	return value
}

func int64Env(name string, fallback int64) int64 {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %d", name, raw, fallback)
		return fallback
	}
	return value
}

func durationEnv(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %s", name, raw, fallback.String())
		return fallback
	}
	return value
}
