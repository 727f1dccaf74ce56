package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"io/fs"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"hordesim.ai/internal/persistence/archive"
	persistlog "hordesim.ai/internal/persistence/log"
	"hordesim.ai/internal/sim/catalogs"
	"hordesim.ai/internal/sim/tuning"
	"hordesim.ai/internal/sim/world"
	"hordesim.ai/internal/transport/observer"
	"hordesim.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "ARENA", "world id (prefix of every run id)")
		seed       = flag.Int64("seed", 0, "world seed (0: use tuning seed)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite tick index")
		ticks      = flag.Int("ticks", 0, "batch mode: step this many ticks as fast as possible, print a summary and exit")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Printf("catalogs not found in %s; using built-in defaults", *configDir)
		cats, err = catalogs.Defaults(), nil
	}
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}
	if *seed != 0 {
		tune.Seed = *seed
	}
	tuneDigest := tuning.Digest(tune)

	w, err := world.New(world.ConfigFromTuning(*worldID, tune), cats)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}
	w.SetLogger(log.New(os.Stdout, "[world] ", log.LstdFlags|log.Lmicroseconds))

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	_ = os.MkdirAll(worldDir, 0o755)

	// Optional: read-model index backend (does not affect sim determinism).
	idx, err := openRuntimeIndex(worldDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(cats, tune); err != nil {
			logger.Printf("index backend: upsert catalogs: %v", err)
		}
	}

	tickLog := persistlog.NewTickLogger(worldDir)
	controlLog := persistlog.NewControlLogger(worldDir)
	runArchive := archive.NewRunArchiver(worldDir, *worldID, tune.Seed, tuneDigest)
	defer tickLog.Close()
	defer controlLog.Close()
	defer func() {
		if err := runArchive.Close(); err != nil {
			logger.Printf("archive: %v", err)
		}
	}()
	sinks := multiTickLogger{tickLog, controlLog, runArchive}
	if idx != nil {
		sinks = append(sinks, idx)
	}
	w.SetTickLogger(sinks)

	cfg := w.Config()
	logger.Printf("world=%s run=%s seed=%d tick_rate=%dHz tuning=%s creatures=%s enemies=%s",
		cfg.ID, w.RunID(), cfg.Seed, cfg.TickRateHz, tuneDigest[:12], cats.Creatures.Digest[:12], cats.Enemies.Digest[:12])

	if *ticks > 0 {
		if err := runBatch(w, *ticks, os.Stdout); err != nil {
			logger.Printf("batch: %v", err)
		}
		return
	}

	ctx, cancel := signalContext()
	defer cancel()

	worldDone := make(chan struct{})
	go func() {
		defer close(worldDone)
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	mux := newMux(muxDeps{
		world:        w,
		tuningDigest: tuneDigest,
		index:        idx,
		archiveDir:   runArchive.Dir(),
		logger:       logger,
		admin:        envBool("HS_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()),
		pprof:        envBool("HS_ENABLE_PPROF_HTTP", false),
		publicObs:    envBool("HS_OBSERVER_PUBLIC", false),
	})

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
	<-worldDone
	logger.Printf("stopped at tick %d", w.CurrentTick())
}

type muxDeps struct {
	world        *world.World
	tuningDigest string
	index        runtimeIndex
	archiveDir   string
	logger       *log.Logger

	admin     bool
	pprof     bool
	publicObs bool
}

func newMux(d muxDeps) *http.ServeMux {
	w := d.world
	worldID := w.Config().ID

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		m := w.Metrics()
		if m.Tick == 0 {
			m.Tick = w.CurrentTick()
		}
		if d.index != nil {
			st := d.index.Stats()
			writeMetrics(rw, worldID, m, &st)
			return
		}
		writeMetrics(rw, worldID, m, nil)
	})

	if d.admin {
		// Local-only admin endpoints (do not affect simulation determinism).
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			resp := struct {
				WorldID string             `json:"world_id"`
				RunID   string             `json:"run_id"`
				Tick    uint64             `json:"tick"`
				Metrics world.WorldMetrics `json:"metrics"`
			}{
				WorldID: worldID,
				RunID:   w.RunID(),
				Tick:    w.CurrentTick(),
				Metrics: w.Metrics(),
			}
			_ = json.NewEncoder(rw).Encode(resp)
		})
		mux.HandleFunc("/admin/v1/runs", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			runs, err := archive.List(d.archiveDir)
			if err != nil {
				http.Error(rw, err.Error(), http.StatusInternalServerError)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(rw).Encode(struct {
				WorldID string              `json:"world_id"`
				Runs    []archive.RunRecord `json:"runs"`
			}{WorldID: worldID, Runs: runs})
		})
	} else {
		d.logger.Printf("admin endpoints disabled (HS_ENABLE_ADMIN_HTTP=false)")
	}
	if d.pprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	obsSrv := observer.NewServer(w, d.tuningDigest, d.logger)
	obsSrv.LoopbackOnly = !d.publicObs
	mux.HandleFunc("/v1/bootstrap", obsSrv.BootstrapHandler())
	mux.HandleFunc("/v1/observe", obsSrv.WSHandler())
	mux.HandleFunc("/v1/control", ws.NewServer(w, d.tuningDigest, d.logger).Handler())
	return mux
}

type batchSummary struct {
	Ticks   int                `json:"ticks"`
	RunID   string             `json:"run_id"`
	Runs    int                `json:"runs"`
	Metrics world.WorldMetrics `json:"metrics"`
}

// runBatch steps the world without a ticker. Every tick still reaches the
// configured tick loggers.
func runBatch(w *world.World, n int, out io.Writer) error {
	runs := 1
	for i := 0; i < n; i++ {
		e := w.StepOnce(world.TickInput{})
		for _, ev := range e.Events {
			if ev.Kind == world.EventRunEnd {
				runs++
			}
		}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(batchSummary{Ticks: n, RunID: w.RunID(), Runs: runs, Metrics: w.Metrics()})
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// multiTickLogger fans one tick out to every sink; a failing sink does not
// stop the others.
type multiTickLogger []world.TickLogger

func (m multiTickLogger) WriteTick(entry world.TickLogEntry) error {
	var first error
	for _, l := range m {
		if l == nil {
			continue
		}
		if err := l.WriteTick(entry); err != nil && first == nil {
			first = err
		}
	}
	return first
}
