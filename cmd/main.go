package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	cache "github.com/krisalay/faculty-cache"
	"github.com/krisalay/faculty-cache/auth"
	"github.com/krisalay/faculty-cache/config"
	"github.com/krisalay/faculty-cache/engine"
	"github.com/krisalay/faculty-cache/expiration"
	"github.com/krisalay/faculty-cache/internal/devserver"
	"github.com/krisalay/faculty-cache/kv"
	"github.com/krisalay/faculty-cache/kv/sqlite"
	"github.com/krisalay/faculty-cache/metrics"
	"github.com/krisalay/faculty-cache/remote"
	"github.com/krisalay/faculty-cache/section"
	"github.com/krisalay/faculty-cache/tier"
	"github.com/krisalay/faculty-cache/types"
	"github.com/krisalay/faculty-cache/writepolicy"
)

const (
	ada   = "ada@inst.edu"
	grace = "grace@inst.edu"
)

// ================= STUB FACULTY API =================

func seed(api *devserver.Server) {
	api.Seed(ada, types.Document{
		section.Profile: types.Singleton(types.Record{"name": "Ada Lovelace", "department": "Mathematics"}),
		section.Education: types.List(
			types.Record{"id": "edu-1", "degree": "PhD", "year": 1843},
		),
		section.Publications: types.List(
			types.Record{"id": "pub-1", "title": "Notes on the Analytical Engine"},
			types.Record{"id": "pub-2", "title": "Sketch of the Analytical Engine"},
		),
	})
	api.Seed(grace, types.Document{
		section.Profile: types.Singleton(types.Record{"name": "Grace Hopper", "department": "Computing"}),
		section.Awards: types.List(
			types.Record{"id": "aw-1", "title": "National Medal of Technology"},
		),
	})
}

func startAPI(api *devserver.Server, collector *metrics.Collector) (string, func(), error) {
	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{}))
	router.Mount("/", api)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, err
	}
	srv := &http.Server{Handler: router, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.Serve(ln) }()

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
	return "http://" + ln.Addr().String(), shutdown, nil
}

// ================= HELPERS =================

func fetches(api *devserver.Server, identity string) string {
	if api == nil {
		return "n/a (external api)"
	}
	return fmt.Sprint(api.Fetches(identity))
}

func summary(dc *cache.DataContext) string {
	doc := dc.FacultyData()
	if doc == nil {
		return "<no data>"
	}
	parts := make([]string, 0, len(doc))
	for _, name := range doc.Names() {
		parts = append(parts, fmt.Sprintf("%s=%d", name, doc[name].Len()))
	}
	return strings.Join(parts, " ")
}

func printMetrics(collector *metrics.Collector) {
	fmt.Println("\n==================== METRICS ====================")
	families, err := collector.Registry().Gather()
	if err != nil {
		fmt.Println("METRICS → gather failed:", err)
		return
	}
	sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			label := ""
			for _, lp := range m.GetLabel() {
				label += fmt.Sprintf("{%s=%s}", lp.GetName(), lp.GetValue())
			}
			fmt.Printf("%-52s : %.0f\n", mf.GetName()+label, m.GetCounter().GetValue())
		}
	}
}

// ================= MAIN =================

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	fmt.Println("\n==================== SYSTEM BOOT ====================")

	// ---------------- System Config ----------------
	fmt.Println("WRITE MODE      : WRITE-THROUGH (remote first)")
	fmt.Println("EVICTION POLICY :", cfg.EvictionPolicy())
	fmt.Println("SHARDS          :", cfg.Shards)
	fmt.Println("CAPACITY        :", cfg.Capacity, "identities")
	fmt.Println("TTL STRATEGY    : FixedTTL", cfg.TTL)
	fmt.Println("KEY PREFIX      :", cfg.KeyPrefix)

	// ---------------- Session Store ----------------
	var store kv.Store
	if cfg.SessionDB != "" {
		s, err := sqlite.Open(cfg.SessionDB, cfg.SessionID)
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
		fmt.Println("SESSION STORE   : sqlite", cfg.SessionDB, "session", s.SessionID())
	} else {
		store = kv.NewMemory()
		fmt.Println("SESSION STORE   : memory")
	}

	registry, err := section.Load(cfg.SectionsFile)
	if err != nil {
		return err
	}
	fmt.Println("SECTIONS        :", len(registry.Names()))

	// ---------------- Metrics ----------------
	collector := metrics.NewCollector("portal")

	// ---------------- Identity ----------------
	provider, err := auth.NewJWTProvider(uuid.NewString(), "faculty-portal", nil)
	if err != nil {
		return err
	}

	// ---------------- Faculty API ----------------
	baseURL := cfg.APIBaseURL
	var api *devserver.Server
	if baseURL == "" {
		api = devserver.New(
			devserver.WithVerifier(func(token string) (string, error) {
				claims, err := provider.Validate(token)
				if err != nil {
					return "", err
				}
				return claims.Email, nil
			}),
			devserver.WithLogger(logger.Named("devserver")),
		)
		seed(api)
		url, shutdown, err := startAPI(api, collector)
		if err != nil {
			return err
		}
		defer shutdown()
		baseURL = url
	}
	fmt.Println("FACULTY API     :", baseURL)

	client := remote.NewClient(baseURL,
		remote.WithToken(provider.Token),
		remote.WithLogger(logger.Named("remote")),
	)
	breaker := remote.NewBreaker(client, remote.DefaultBreakerConfig("faculty-api"), logger)

	// ---------------- Cache Engine ----------------
	e := engine.NewCacheEngine(
		expiration.NewFixedTTL(cfg.TTL),
		breaker,
		writepolicy.NewWriteThrough(client, logger),
		collector,
		nil,
		logger,
	)

	tiers := tier.New(
		tier.NewMemory(cfg.Shards, cfg.Capacity, cfg.EvictionPolicy(), collector),
		tier.NewPersistent(store, cfg.KeyPrefix, collector, logger),
		collector,
		logger,
	)

	newContext := func() *cache.DataContext {
		dc := cache.New(e, tiers, nil, registry, logger)
		dc.Subscribe(func(s cache.State) {
			line := fmt.Sprintf("STATE  → %-7s %s", s.Status, s.Identity)
			if s.Err != nil {
				line += "  err=" + s.ErrMessage()
			}
			fmt.Println(line)
		})
		return dc
	}
	dc := newContext()

	// ====================================================
	fmt.Println("\n==================== 1) SESSION RESOLVING ====================")
	if err := dc.Sync(ctx, provider); err != nil {
		return err
	}
	fmt.Println("CACHE  → status =", dc.Status(), "(no fetch while the session is unresolved)")

	// ====================================================
	fmt.Println("\n==================== 2) LOGIN / CACHE MISS ====================")
	token, err := provider.Sign(ada, time.Hour)
	if err != nil {
		return err
	}
	if err := provider.SetToken(token); err != nil {
		return err
	}
	if err := dc.Sync(ctx, provider); err != nil {
		fmt.Println("CACHE  → load failed:", err)
	}
	fmt.Println("CACHE  → data =", summary(dc))
	fmt.Println("API    → fetches for", ada, "=", fetches(api, ada))

	// ====================================================
	fmt.Println("\n==================== 3) PAGE RELOAD / CACHE HIT ====================")
	dc.Close()
	tiers.DropMemory(ada)
	dc = newContext()
	if err := dc.Sync(ctx, provider); err != nil {
		fmt.Println("CACHE  → load failed:", err)
	}
	fmt.Println("CACHE  → restored from", tiers.Persistent().Key(ada))
	fmt.Println("CACHE  → data =", summary(dc))
	fmt.Println("API    → fetches for", ada, "=", fetches(api, ada))

	// ====================================================
	fmt.Println("\n==================== 4) LOCAL UPDATE ====================")
	dc.UpdateSection(section.Awards, types.List(
		types.Record{"id": "aw-1", "title": "Royal Society Medal"},
	))
	fmt.Println("CACHE  → awards =", len(dc.Awards()))
	fmt.Println("API    → fetches for", ada, "=", fetches(api, ada))

	// ====================================================
	fmt.Println("\n==================== 5) SAVE SECTION (REMOTE FIRST) ====================")
	patents := types.List(types.Record{"id": "pat-1", "title": "Difference Engine Gear"})
	if err := dc.SaveSection(ctx, section.Patents, patents); err != nil {
		fmt.Println("CACHE  → save failed, cache untouched:", err)
	} else {
		fmt.Println("CACHE  → patents =", len(dc.Patents()))
	}
	if api != nil {
		doc, _ := api.Document(ada)
		fmt.Println("API    → stored patents =", doc[section.Patents].Len())
	}

	// ====================================================
	fmt.Println("\n==================== 6) FAILED REFRESH KEEPS STALE DATA ====================")
	if api != nil {
		api.FailNext(ada, 1)
		err := dc.Refresh(ctx)
		var se *remote.StatusError
		if errors.As(err, &se) {
			fmt.Println("CACHE  → refresh failed with", se.Code)
		}
		fmt.Println("CACHE  → error =", dc.Error())
		fmt.Println("CACHE  → still serving", summary(dc))

		if err := dc.Refresh(ctx); err != nil {
			fmt.Println("CACHE  → refresh failed:", err)
		}
		fmt.Println("CACHE  → recovered, data =", summary(dc))
	} else {
		fmt.Println("SKIPPED → needs the in-process faculty api")
	}

	// ====================================================
	fmt.Println("\n==================== 7) AUTO REFRESH ====================")
	if cfg.TTL <= 5*time.Second {
		before := fetches(api, ada)
		time.Sleep(cfg.TTL + 500*time.Millisecond)
		fmt.Println("API    → fetches for", ada, before, "→", fetches(api, ada))
	} else {
		fmt.Printf("SKIPPED → TTL is %v; run with FACULTY_CACHE_TTL=2s to watch it fire\n", cfg.TTL)
	}

	// ====================================================
	fmt.Println("\n==================== 8) IDENTITY SWITCH ====================")
	token, err = provider.Sign(grace, time.Hour)
	if err != nil {
		return err
	}
	if err := provider.SetToken(token); err != nil {
		return err
	}
	if err := dc.Sync(ctx, provider); err != nil {
		fmt.Println("CACHE  → load failed:", err)
	}
	fmt.Println("CACHE  → identity =", dc.Identity())
	fmt.Println("CACHE  → data =", summary(dc))
	fmt.Println("CACHE  →", ada, "still cached =", tiers.InMemory(ada))

	// ====================================================
	fmt.Println("\n==================== 9) LOGOUT ====================")
	provider.Logout()
	if err := dc.Sync(ctx, provider); err != nil {
		return err
	}
	fmt.Println("CACHE  → status =", dc.Status())

	// ====================================================
	printMetrics(collector)
	fmt.Println("BREAKER →", breaker.State())

	// ====================================================
	fmt.Println("\n==================== SHUTDOWN ====================")
	dc.Close()
	logger.Info("faculty cache demo finished", zap.String("api", baseURL))
	fmt.Println("SYSTEM → data context closed cleanly")
	return nil
}
