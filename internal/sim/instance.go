package sim

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ironcliff/hegemon/errs"
	"github.com/ironcliff/hegemon/internal/defs"
	"github.com/ironcliff/hegemon/internal/gamerules"
	"github.com/ironcliff/hegemon/internal/market"
	"github.com/ironcliff/hegemon/internal/telemetry"
	"github.com/ironcliff/hegemon/lib/chrono"
)

// Options configures an InstanceManager beyond its required inputs. All
// fields are optional.
type Options struct {
	Log     *slog.Logger
	Metrics *telemetry.Metrics

	// GamestateUpdated fires at the end of every gamestate update, after
	// all managers have recomputed but before the pending flag clears.
	GamestateUpdated func()
	// ClockStateChanged fires whenever the simulation speed changes.
	ClockStateChanged func()
	// ClockIntervals overrides DefaultSpeedIntervals.
	ClockIntervals []time.Duration
}

// InstanceManager owns one game session: the simulation date, the market,
// the map/country/unit managers and the clock driving the daily pipeline.
// Lifecycle is strictly Setup, LoadBookmark, StartGameSession, then
// UpdateClock polling. Lifecycle methods are fail-fast: an error leaves
// the manager partially mutated and unusable, and the only recovery is a
// fresh manager.
type InstanceManager struct {
	log     *slog.Logger
	metrics *telemetry.Metrics

	manager *defs.Manager
	rules   *gamerules.Rules

	market    *market.Market
	mapInst   *MapInstance
	countries *CountryInstanceManager
	units     *UnitInstanceManager
	clock     *Clock

	today    chrono.Date
	bookmark *defs.Bookmark

	gamestateNeedsUpdate       bool
	currentlyUpdatingGamestate bool

	gameInstanceSetup  bool
	bookmarkLoaded     bool
	gameSessionStarted bool

	sessionID    uuid.UUID
	sessionStart time.Time

	selectedProvince defs.Handle
	globalFlags      map[string]struct{}

	gamestateUpdated func()
}

// NewInstanceManager builds an unset-up manager over locked definitions.
func NewInstanceManager(manager *defs.Manager, rules *gamerules.Rules, opts Options) *InstanceManager {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	updated := opts.GamestateUpdated
	if updated == nil {
		updated = func() {}
	}
	im := &InstanceManager{
		log:              log,
		metrics:          opts.Metrics,
		manager:          manager,
		rules:            rules,
		units:            NewUnitInstanceManager(),
		selectedProvince: defs.InvalidHandle,
		globalFlags:      make(map[string]struct{}),
		gamestateUpdated: updated,
	}
	im.clock = NewClock(opts.ClockIntervals, im.Tick, im.UpdateGamestate, opts.ClockStateChanged)
	return im
}

// Today returns the current simulation date.
func (im *InstanceManager) Today() chrono.Date { return im.today }

// Clock returns the session's simulation clock.
func (im *InstanceManager) Clock() *Clock { return im.clock }

// Market returns the session's market, nil before Setup.
func (im *InstanceManager) Market() *market.Market { return im.market }

// Map returns the session's map instance, nil before Setup.
func (im *InstanceManager) Map() *MapInstance { return im.mapInst }

// Countries returns the session's country manager, nil before Setup.
func (im *InstanceManager) Countries() *CountryInstanceManager { return im.countries }

// Units returns the session's unit manager.
func (im *InstanceManager) Units() *UnitInstanceManager { return im.units }

// Definitions returns the immutable definition manager.
func (im *InstanceManager) Definitions() *defs.Manager { return im.manager }

// Rules returns the session's game rules.
func (im *InstanceManager) Rules() *gamerules.Rules { return im.rules }

// Bookmark returns the loaded bookmark, nil before LoadBookmark.
func (im *InstanceManager) Bookmark() *defs.Bookmark { return im.bookmark }

// SessionID returns the unique session identifier, zero before
// StartGameSession.
func (im *InstanceManager) SessionID() uuid.UUID { return im.sessionID }

// SessionStart returns the wall-clock session start time.
func (im *InstanceManager) SessionStart() time.Time { return im.sessionStart }

// IsGameInstanceSetup reports whether Setup has succeeded.
func (im *InstanceManager) IsGameInstanceSetup() bool { return im.gameInstanceSetup }

// IsBookmarkLoaded reports whether LoadBookmark has succeeded.
func (im *InstanceManager) IsBookmarkLoaded() bool { return im.bookmarkLoaded }

// IsGameSessionStarted reports whether StartGameSession has succeeded.
func (im *InstanceManager) IsGameSessionStarted() bool { return im.gameSessionStarted }

// GamestateNeedsUpdate reports whether an update pass is pending.
func (im *InstanceManager) GamestateNeedsUpdate() bool { return im.gamestateNeedsUpdate }

// SetGlobalFlag raises a named global flag.
func (im *InstanceManager) SetGlobalFlag(name string) { im.globalFlags[name] = struct{}{} }

// ClearGlobalFlag lowers a named global flag.
func (im *InstanceManager) ClearGlobalFlag(name string) { delete(im.globalFlags, name) }

// HasGlobalFlag reports whether a named global flag is raised.
func (im *InstanceManager) HasGlobalFlag(name string) bool {
	_, ok := im.globalFlags[name]
	return ok
}

// SetSelectedProvince records the player's selected province handle.
func (im *InstanceManager) SetSelectedProvince(h defs.Handle) { im.selectedProvince = h }

// SelectedProvince returns the selected province handle.
func (im *InstanceManager) SelectedProvince() defs.Handle { return im.selectedProvince }

// Setup builds the market, map and country instances from the locked
// definitions. One-shot: calling it twice fails.
func (im *InstanceManager) Setup() error {
	if im.gameInstanceSetup {
		err := errs.Lifecycle("instance", "cannot set up game instance, already set up")
		im.log.Error("setup refused", "error", err)
		return err
	}
	if !im.manager.Locked() {
		err := errs.Lifecycle("instance", "cannot set up game instance, definitions are not locked")
		im.log.Error("setup refused", "error", err)
		return err
	}

	im.market = market.New(im.manager, im.rules, im.log, im.metrics)

	mapInst, err := NewMapInstance(im.manager, im.market)
	if err != nil {
		im.log.Error("map setup failed", "error", err)
		return err
	}
	im.mapInst = mapInst

	countries, err := NewCountryInstanceManager(im.manager)
	if err != nil {
		im.log.Error("country setup failed", "error", err)
		return err
	}
	im.countries = countries

	im.gameInstanceSetup = true
	return nil
}

// LoadBookmark applies province then country history for the bookmark
// date, generates the geographic state groupings and primes the first
// day. Province history must run first: it generates the pops whose
// attributes country history then adjusts, and states group by the
// ownership history settles. One-shot, and requires a completed Setup.
func (im *InstanceManager) LoadBookmark(bookmark *defs.Bookmark) error {
	if im.bookmarkLoaded {
		err := errs.Lifecycle("instance", "cannot load bookmark, already loaded")
		im.log.Error("bookmark refused", "error", err)
		return err
	}
	if !im.gameInstanceSetup {
		err := errs.Lifecycle("instance", "cannot load bookmark, game instance not set up")
		im.log.Error("bookmark refused", "error", err)
		return err
	}
	if bookmark == nil {
		err := errs.Lifecycle("instance", "cannot load bookmark, none given")
		im.log.Error("bookmark refused", "error", err)
		return err
	}

	im.bookmark = bookmark
	im.log.Info("loading bookmark", "name", bookmark.Name, "date", bookmark.Date.String())
	if !im.manager.DefineValues.InGamePeriod(bookmark.Date) {
		im.log.Warn("bookmark date outside the game period", "date", bookmark.Date.String())
	}

	im.today = bookmark.Date

	if err := im.mapInst.ApplyHistory(im.today, im.countries); err != nil {
		im.log.Error("province history failed", "error", err)
		return err
	}
	if err := im.countries.ApplyHistory(im.today); err != nil {
		im.log.Error("country history failed", "error", err)
		return err
	}
	im.mapInst.GenerateStates()

	im.updateModifierSums()
	im.mapInst.InitialiseForNewGame(im.today)
	im.market.ExecuteOrders()

	im.bookmarkLoaded = true
	return nil
}

// StartGameSession stamps the session start, resets the clock to paused
// slowest and queues the first gamestate update. One-shot, and requires
// a loaded bookmark.
func (im *InstanceManager) StartGameSession() error {
	if im.gameSessionStarted {
		err := errs.Lifecycle("instance", "cannot start game session, already started")
		im.log.Error("session refused", "error", err)
		return err
	}
	if !im.bookmarkLoaded {
		err := errs.Lifecycle("instance", "cannot start game session, no bookmark loaded")
		im.log.Error("session refused", "error", err)
		return err
	}

	im.sessionID = uuid.New()
	im.sessionStart = time.Now()
	im.clock.Reset()
	im.SetGamestateNeedsUpdate()

	im.gameSessionStarted = true
	im.log.Info("game session started", "session_id", im.sessionID.String(), "date", im.today.String())
	return nil
}

// UpdateClock polls the simulation clock once, possibly running a tick
// and always running the refresh (gamestate update) afterwards.
func (im *InstanceManager) UpdateClock() error {
	if !im.gameSessionStarted {
		err := errs.Lifecycle("instance", "cannot update clock, game session not started")
		im.log.Error("clock refused", "error", err)
		return err
	}
	im.clock.ConditionallyAdvance()
	return nil
}

// Tick advances the simulation by one day. The order is load-bearing:
// clearing must follow all tick-side order submission, and the pending
// update flag is set last so no observer sees a tick without a pending
// update.
func (im *InstanceManager) Tick() {
	started := time.Now()
	im.today = im.today.Next()

	im.log.Info("tick", "date", im.today.String())

	im.mapInst.MapTick(im.today)
	im.countries.Tick(im.today)
	im.units.Tick(im.today)
	im.market.ExecuteOrders()

	if im.today.IsMonthStart() {
		im.market.RecordPriceHistory(im.today)
	}

	im.SetGamestateNeedsUpdate()
	im.metrics.RecordTick(time.Since(started))
}

// UpdateGamestate runs one derived-state recompute pass if one is
// pending. Country modifier sums recompute before province sums because
// provinces fold in their owner's aggregate.
func (im *InstanceManager) UpdateGamestate() {
	if !im.gamestateNeedsUpdate {
		return
	}
	started := time.Now()
	im.currentlyUpdatingGamestate = true

	im.log.Info("update", "date", im.today.String())

	im.updateModifierSums()

	im.mapInst.UpdateGamestate(im.today)
	im.countries.UpdateGamestate(im.today)
	im.units.UpdateGamestate(im.today)

	im.gamestateUpdated()
	im.gamestateNeedsUpdate = false

	im.currentlyUpdatingGamestate = false
	im.metrics.RecordUpdate(time.Since(started))
}

// SetGamestateNeedsUpdate marks an update pass pending. Queuing from
// inside an update pass is an invariant violation: the request is logged
// and dropped rather than allowed to starve progress.
func (im *InstanceManager) SetGamestateNeedsUpdate() {
	if im.currentlyUpdatingGamestate {
		err := errs.New("instance", errs.CodeReentrancy,
			errs.WithMessage("attempted to queue a gamestate update while already updating the gamestate"))
		im.log.Error("update queue refused", "error", err)
		return
	}
	im.gamestateNeedsUpdate = true
}

// SetTodayAndUpdate jumps the simulation date without ticking the days
// in between, then forces one immediate update pass.
func (im *InstanceManager) SetTodayAndUpdate(date chrono.Date) error {
	if !im.gameSessionStarted {
		err := errs.Lifecycle("instance", "cannot set date, game session not started")
		im.log.Error("set date refused", "error", err)
		return err
	}
	im.today = date
	im.gamestateNeedsUpdate = true
	im.UpdateGamestate()
	return nil
}

// ExpandSelectedProvinceBuilding requests one level of expansion for a
// building in the selected province. An update is queued regardless of
// the outcome so the UI state refreshes either way.
func (im *InstanceManager) ExpandSelectedProvinceBuilding(buildingType defs.Handle) error {
	im.SetGamestateNeedsUpdate()
	province := im.mapInst.Province(im.selectedProvince)
	if province == nil {
		err := errs.Lifecycle("instance", "cannot expand building, no province selected")
		im.log.Error("expand refused", "error", err)
		return err
	}
	building := province.Building(buildingType)
	if building == nil {
		err := errs.New("instance", errs.CodeIdentifier,
			errs.WithMessage("cannot expand building, unknown building type"),
			errs.WithField("province", province.def.ID))
		im.log.Error("expand refused", "error", err)
		return err
	}
	if !building.Expand() {
		err := errs.New("instance", errs.CodeLifecycle,
			errs.WithMessage("building cannot expand from its current state"),
			errs.WithField("province", province.def.ID),
			errs.WithField("state", building.State().String()))
		im.log.Error("expand refused", "error", err)
		return err
	}
	return nil
}

func (im *InstanceManager) updateModifierSums() {
	im.countries.UpdateModifierSums()
	im.mapInst.UpdateModifierSums(im.countries)
}
