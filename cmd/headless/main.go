// Command headless loads a data set, runs a simulation session for a fixed
// demo horizon without any presentation layer, and reports what happened.
// Exit code 0 means the whole run was clean; any load, setup or self-test
// failure maps to a non-zero exit.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/ironcliff/hegemon/config"
	"github.com/ironcliff/hegemon/internal/dataloader"
	"github.com/ironcliff/hegemon/internal/defs"
	"github.com/ironcliff/hegemon/internal/script"
	"github.com/ironcliff/hegemon/internal/selftest"
	"github.com/ironcliff/hegemon/internal/sim"
	"github.com/ironcliff/hegemon/internal/snapshot"
	"github.com/ironcliff/hegemon/internal/telemetry"
	"github.com/ironcliff/hegemon/lib/logging"
	"github.com/ironcliff/hegemon/lib/parallel"
)

const demoHorizonDays = 31

func main() {
	os.Exit(run())
}

func run() int {
	baseDir := flag.String("b", "", "explicit base data directory")
	searchHint := flag.String("s", "", "search hint for the base data directory")
	runSelfTests := flag.Bool("t", false, "run self-test scripts after load")
	configPath := flag.String("c", "hegemon.yaml", "runtime configuration file")
	flag.Parse()

	recorder := logging.New(os.Stderr, slog.LevelInfo)
	log := recorder.Logger()
	clean := true

	cfg, err := config.FromFile(*configPath)
	if err != nil {
		log.Error("cannot load configuration", "error", err)
		return 1
	}
	parallel.SetSequential(cfg.Parallelism.Sequential)

	dir := *baseDir
	if dir == "" {
		dir, err = dataloader.FindBaseDir(*searchHint)
		if err != nil {
			log.Error("cannot locate data directory", "error", err)
			return 1
		}
	}

	manager := defs.NewManager()
	if !dataloader.New(manager, log).Load(dir, flag.Args()...) {
		log.Error("definition load reported failures", "dir", dir)
		clean = false
	}
	manager.Lock()
	if manager.Bookmarks.Len() == 0 {
		log.Error("no bookmarks loaded, nothing to run")
		return 1
	}

	var metrics *telemetry.Metrics
	if cfg.Telemetry.Enabled {
		provider := telemetry.NewProvider()
		defer provider.Shutdown(context.Background())
		metrics, err = telemetry.NewMetrics(provider.Meter())
		if err != nil {
			log.Error("cannot build metrics", "error", err)
			return 1
		}
	}

	instance := sim.NewInstanceManager(manager, cfg.GameRules(), sim.Options{
		Log:            log,
		Metrics:        metrics,
		ClockIntervals: cfg.ClockIntervals(),
	})
	if err := instance.Setup(); err != nil {
		log.Error("instance setup failed", "error", err)
		return 1
	}
	bookmark, _ := manager.Bookmarks.Get(0)
	if err := instance.LoadBookmark(bookmark); err != nil {
		log.Error("bookmark load failed", "bookmark", bookmark.ID, "error", err)
		return 1
	}

	conditions, err := script.NewManager(manager, log)
	if err != nil {
		log.Error("condition registry setup failed", "error", err)
		return 1
	}

	if err := instance.StartGameSession(); err != nil {
		log.Error("session start failed", "error", err)
		return 1
	}
	log.Info("session started",
		"session", instance.SessionID().String(),
		"bookmark", bookmark.ID,
		"date", instance.Today().String())

	if *runSelfTests {
		if !runSelfTestScripts(instance, conditions, log, dir) {
			clean = false
		}
	}

	if !runDemoHorizon(instance, log) {
		clean = false
	}
	reportGamestate(instance, log)

	if cfg.Snapshot.Path != "" {
		if !persistRun(instance, bookmark, cfg.Snapshot.Path, log) {
			clean = false
		}
	}

	info, warn, errors := recorder.Counts()
	fmt.Printf("log summary: %d info, %d warning, %d error\n", info, warn, errors)
	if !clean {
		return 1
	}
	return 0
}

func runSelfTestScripts(instance *sim.InstanceManager, conditions *script.Manager, log *slog.Logger, dir string) bool {
	scriptDir := filepath.Join(dir, "selftests")
	if _, err := os.Stat(scriptDir); err != nil {
		log.Warn("no self-test directory", "dir", scriptDir)
		return true
	}
	results, ok := selftest.NewRunner(instance, conditions, log).RunDir(scriptDir)
	passed, failed := 0, 0
	for _, r := range results {
		passed += r.Passed
		failed += r.Failed
	}
	log.Info("self-tests finished", "scripts", len(results), "passed", passed, "failed", failed)
	return ok
}

// runDemoHorizon advances the session a fixed number of days at the
// fastest speed, polling the clock at a bounded rate the way a frontend
// frame loop would.
func runDemoHorizon(instance *sim.InstanceManager, log *slog.Logger) bool {
	clock := instance.Clock()
	clock.SetSpeed(clock.SpeedCount() - 1)
	clock.SetPaused(false)

	target := instance.Today().AddDays(demoHorizonDays)
	limiter := rate.NewLimiter(rate.Every(time.Millisecond), 1)
	ctx := context.Background()
	for instance.Today().Before(target) {
		if err := limiter.Wait(ctx); err != nil {
			log.Error("poll pacing interrupted", "error", err)
			return false
		}
		if err := instance.UpdateClock(); err != nil {
			log.Error("clock update failed", "error", err)
			return false
		}
	}
	clock.SetPaused(true)
	instance.UpdateGamestate()
	log.Info("demo horizon complete", "date", instance.Today().String(), "days", demoHorizonDays)
	return true
}

func reportGamestate(instance *sim.InstanceManager, log *slog.Logger) {
	log.Info("world population", "total", instance.Map().TotalPopulation())
	for _, h := range instance.Countries().GreatPowers() {
		c := instance.Countries().Instance(h)
		log.Info("great power",
			"tag", c.Definition().ID,
			"rank", c.Rank(),
			"prestige", c.Prestige().String())
	}
	goods := instance.Market().Goods()
	for i := range goods {
		log.Info("good price",
			"good", goods[i].Definition().ID,
			"price", goods[i].Price().String(),
			"samples", len(goods[i].History()))
	}
}

func persistRun(instance *sim.InstanceManager, bookmark *defs.Bookmark, path string, log *slog.Logger) bool {
	store, err := snapshot.Open(path)
	if err != nil {
		log.Error("cannot open save store", "path", path, "error", err)
		return false
	}
	defer store.Close()

	session := instance.SessionID()
	if err := store.SaveSession(session, bookmark.ID, instance.SessionStart()); err != nil {
		log.Error("cannot save session", "error", err)
		return false
	}
	if err := store.SaveHistory(session, instance.Market().Goods()); err != nil {
		log.Error("cannot save price history", "error", err)
		return false
	}
	if err := store.SaveSummary(session, instance.Today(), buildSummary(instance)); err != nil {
		log.Error("cannot save summary", "error", err)
		return false
	}
	log.Info("run persisted", "path", path, "session", session.String())
	return true
}

func buildSummary(instance *sim.InstanceManager) snapshot.Summary {
	powers := make([]string, 0)
	for _, h := range instance.Countries().GreatPowers() {
		powers = append(powers, instance.Countries().Instance(h).Definition().ID)
	}
	goods := instance.Market().Goods()
	prices := make(map[string]string, len(goods))
	for i := range goods {
		prices[goods[i].Definition().ID] = goods[i].Price().String()
	}
	return snapshot.Summary{
		Date:            instance.Today().String(),
		TotalPopulation: instance.Map().TotalPopulation(),
		GreatPowers:     powers,
		Prices:          prices,
	}
}
