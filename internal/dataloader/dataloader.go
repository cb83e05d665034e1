// Package dataloader fills a definition manager from YAML data files: a
// base directory plus ordered mod overlay directories using the same file
// names. Bad items are logged and skipped; loading reports aggregate
// success so callers can decide whether a partial load is acceptable.
package dataloader

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/ironcliff/hegemon/errs"
	"github.com/ironcliff/hegemon/internal/defs"
	"github.com/ironcliff/hegemon/lib/chrono"
)

const (
	definesFile         = "defines.yaml"
	goodsFile           = "goods.yaml"
	productionTypesFile = "production_types.yaml"
	buildingsFile       = "buildings.yaml"
	continentsFile      = "continents.yaml"
	ideologiesFile      = "ideologies.yaml"
	popTypesFile        = "pop_types.yaml"
	countriesFile       = "countries.yaml"
	provincesFile       = "provinces.yaml"
	bookmarksFile       = "bookmarks.yaml"
)

// Loader reads definition files into an unlocked manager.
type Loader struct {
	log     *slog.Logger
	manager *defs.Manager
}

// New builds a loader over an unlocked manager.
func New(manager *defs.Manager, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{log: log, manager: manager}
}

// Load reads the base directory and then each mod directory in order.
// Mod directories carry only the files they change; duplicate identifiers
// are logged and skipped, and defines override field by field. The
// manager is left unlocked so callers can lock after the final overlay.
// The return value is false when anything failed to load.
func (l *Loader) Load(baseDir string, modDirs ...string) bool {
	if l.manager.Locked() {
		l.log.Error("cannot load definitions into a locked manager")
		return false
	}
	ok := true
	for _, dir := range append([]string{baseDir}, modDirs...) {
		if !l.loadDir(dir) {
			ok = false
		}
	}
	return ok
}

func (l *Loader) loadDir(dir string) bool {
	ok := l.loadDefines(filepath.Join(dir, definesFile))

	// Referenced definitions load before their referrers: production
	// types need goods, provinces need continents and production types.
	ok = loadRegistry(l, filepath.Join(dir, goodsFile), l.manager.Goods, l.goodFromRaw) && ok
	ok = loadRegistry(l, filepath.Join(dir, productionTypesFile), l.manager.ProductionTypes, l.productionTypeFromRaw) && ok
	ok = loadRegistry(l, filepath.Join(dir, buildingsFile), l.manager.BuildingTypes, l.buildingTypeFromRaw) && ok
	ok = loadRegistry(l, filepath.Join(dir, continentsFile), l.manager.Continents, l.continentFromRaw) && ok
	ok = loadRegistry(l, filepath.Join(dir, ideologiesFile), l.manager.Ideologies, l.ideologyFromRaw) && ok
	ok = loadRegistry(l, filepath.Join(dir, popTypesFile), l.manager.PopTypes, l.popTypeFromRaw) && ok
	ok = l.loadCountries(filepath.Join(dir, countriesFile)) && ok
	ok = l.loadProvinces(filepath.Join(dir, provincesFile)) && ok
	ok = loadRegistry(l, filepath.Join(dir, bookmarksFile), l.manager.Bookmarks, l.bookmarkFromRaw) && ok
	return ok
}

// readYAML decodes one file into out. A missing file is not an error.
func (l *Loader) readYAML(path string, out any) (found, ok bool) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, true
	}
	if err != nil {
		l.log.Error("cannot read data file", "path", path, "error", err)
		return false, false
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		l.log.Error("cannot parse data file", "path", path, "error", err)
		return false, false
	}
	return true, true
}

// loadRegistry decodes a file of raw records and registers each converted
// definition, skipping records that fail to convert or register.
func loadRegistry[R any, T defs.Identified](l *Loader, path string, registry *defs.Registry[T], convert func(R) (T, error)) bool {
	var raws []R
	found, ok := l.readYAML(path, &raws)
	if !found {
		return ok
	}
	for _, raw := range raws {
		item, err := convert(raw)
		if err != nil {
			l.log.Error("skipping bad definition", "path", path, "error", err)
			ok = false
			continue
		}
		if _, err := registry.Register(item); err != nil {
			l.log.Error("skipping definition", "path", path, "id", item.Identifier(), "error", err)
			ok = false
		}
	}
	return ok
}

// RAW RECORDS

type rawDefines struct {
	GoldToWorkerPayRate    *string `yaml:"gold_to_worker_pay_rate"`
	InfamyContainmentLimit *string `yaml:"infamy_containment_limit"`
	GreatPowerRankCutoff   *int    `yaml:"great_power_rank_cutoff"`
	StartDate              *string `yaml:"start_date"`
	EndDate                *string `yaml:"end_date"`
}

type rawGood struct {
	ID        string `yaml:"id"`
	Category  string `yaml:"category"`
	BasePrice string `yaml:"base_price"`
	Money     bool   `yaml:"money"`
	Tradeable bool   `yaml:"tradeable"`
}

type rawProductionType struct {
	ID            string `yaml:"id"`
	OutputGood    string `yaml:"output_good"`
	BaseOutput    string `yaml:"base_output"`
	BaseWorkforce int64  `yaml:"base_workforce"`
}

type rawBuildingType struct {
	ID            string `yaml:"id"`
	MaxLevel      int    `yaml:"max_level"`
	BuildTimeDays int64  `yaml:"build_time_days"`
}

type rawContinent struct {
	ID string `yaml:"id"`
}

type rawIdeology struct {
	ID string `yaml:"id"`
}

type rawPopType struct {
	ID     string `yaml:"id"`
	Strata string `yaml:"strata"`
}

type rawBookmark struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Date string `yaml:"date"`
}

type rawCountryHistory struct {
	Date      string `yaml:"date"`
	Capital   string `yaml:"capital"`
	Ideology  string `yaml:"ideology"`
	Literacy  string `yaml:"literacy"`
	Prestige  string `yaml:"prestige"`
	Civilised bool   `yaml:"civilised"`
}

type rawCountry struct {
	ID      string              `yaml:"id"`
	Name    string              `yaml:"name"`
	History []rawCountryHistory `yaml:"history"`
}

type rawPop struct {
	Type     string `yaml:"type"`
	Culture  string `yaml:"culture"`
	Size     int64  `yaml:"size"`
	Literacy string `yaml:"literacy"`
	Ideology string `yaml:"ideology"`
}

type rawProvinceHistory struct {
	Date  string   `yaml:"date"`
	Owner string   `yaml:"owner"`
	Cores []string `yaml:"cores"`
	RGO   string   `yaml:"rgo"`
	Pops  []rawPop `yaml:"pops"`
}

type rawProvince struct {
	ID        string               `yaml:"id"`
	Water     bool                 `yaml:"water"`
	Continent string               `yaml:"continent"`
	RGO       string               `yaml:"rgo"`
	History   []rawProvinceHistory `yaml:"history"`
}

// CONVERSIONS

func parseDecimal(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, errs.New("dataloader", errs.CodeInvalid,
			errs.WithMessage("bad decimal field"),
			errs.WithField("field", field),
			errs.WithField("value", value))
	}
	return v, nil
}

func parseDate(field, value string) (chrono.Date, error) {
	d, err := chrono.ParseDate(value)
	if err != nil {
		return chrono.Date{}, errs.New("dataloader", errs.CodeInvalid,
			errs.WithMessage("bad date field"),
			errs.WithField("field", field),
			errs.WithCause(err))
	}
	return d, nil
}

func (l *Loader) loadDefines(path string) bool {
	var raw rawDefines
	found, ok := l.readYAML(path, &raw)
	if !found {
		return ok
	}
	d := &l.manager.DefineValues
	if raw.GoldToWorkerPayRate != nil {
		v, err := parseDecimal("gold_to_worker_pay_rate", *raw.GoldToWorkerPayRate)
		if err != nil {
			l.log.Error("skipping define", "path", path, "error", err)
			ok = false
		} else {
			d.GoldToWorkerPayRate = v
		}
	}
	if raw.InfamyContainmentLimit != nil {
		v, err := parseDecimal("infamy_containment_limit", *raw.InfamyContainmentLimit)
		if err != nil {
			l.log.Error("skipping define", "path", path, "error", err)
			ok = false
		} else {
			d.InfamyContainmentLimit = v
		}
	}
	if raw.GreatPowerRankCutoff != nil {
		d.GreatPowerRankCutoff = *raw.GreatPowerRankCutoff
	}
	if raw.StartDate != nil {
		v, err := parseDate("start_date", *raw.StartDate)
		if err != nil {
			l.log.Error("skipping define", "path", path, "error", err)
			ok = false
		} else {
			d.StartDate = v
		}
	}
	if raw.EndDate != nil {
		v, err := parseDate("end_date", *raw.EndDate)
		if err != nil {
			l.log.Error("skipping define", "path", path, "error", err)
			ok = false
		} else {
			d.EndDate = v
		}
	}
	return ok
}

func (l *Loader) goodFromRaw(raw rawGood) (defs.GoodDefinition, error) {
	price, err := parseDecimal("base_price", raw.BasePrice)
	if err != nil {
		return defs.GoodDefinition{}, err
	}
	return defs.GoodDefinition{
		ID:        raw.ID,
		Category:  raw.Category,
		BasePrice: price,
		IsMoney:   raw.Money,
		Tradeable: raw.Tradeable,
	}, nil
}

func (l *Loader) productionTypeFromRaw(raw rawProductionType) (defs.ProductionType, error) {
	good, ok := l.manager.Goods.Lookup(raw.OutputGood)
	if !ok {
		return defs.ProductionType{}, errs.Identifier("dataloader", "output good", raw.OutputGood)
	}
	output, err := parseDecimal("base_output", raw.BaseOutput)
	if err != nil {
		return defs.ProductionType{}, err
	}
	return defs.ProductionType{
		ID:            raw.ID,
		OutputGood:    good,
		BaseOutput:    output,
		BaseWorkforce: raw.BaseWorkforce,
	}, nil
}

func (l *Loader) buildingTypeFromRaw(raw rawBuildingType) (defs.BuildingType, error) {
	return defs.BuildingType{
		ID:        raw.ID,
		MaxLevel:  raw.MaxLevel,
		BuildTime: chrono.TimespanFromDays(raw.BuildTimeDays),
	}, nil
}

func (l *Loader) continentFromRaw(raw rawContinent) (defs.Continent, error) {
	return defs.Continent{ID: raw.ID}, nil
}

func (l *Loader) ideologyFromRaw(raw rawIdeology) (defs.Ideology, error) {
	return defs.Ideology{ID: raw.ID}, nil
}

func (l *Loader) popTypeFromRaw(raw rawPopType) (defs.PopType, error) {
	return defs.PopType{ID: raw.ID, Strata: raw.Strata}, nil
}

func (l *Loader) bookmarkFromRaw(raw rawBookmark) (defs.Bookmark, error) {
	date, err := parseDate("date", raw.Date)
	if err != nil {
		return defs.Bookmark{}, err
	}
	return defs.Bookmark{ID: raw.ID, Name: raw.Name, Date: date}, nil
}

func (l *Loader) loadCountries(path string) bool {
	var raws []rawCountry
	found, ok := l.readYAML(path, &raws)
	if !found {
		return ok
	}
	for _, raw := range raws {
		if _, err := l.manager.Countries.Register(defs.CountryDefinition{ID: raw.ID, Name: raw.Name}); err != nil {
			l.log.Error("skipping country", "path", path, "id", raw.ID, "error", err)
			ok = false
			continue
		}
		for _, h := range raw.History {
			entry, err := l.countryHistoryFromRaw(h)
			if err != nil {
				l.log.Error("skipping country history entry", "path", path, "id", raw.ID, "error", err)
				ok = false
				continue
			}
			l.manager.AddCountryHistory(raw.ID, entry)
		}
	}
	return ok
}

func (l *Loader) countryHistoryFromRaw(raw rawCountryHistory) (defs.CountryHistoryEntry, error) {
	date, err := parseDate("date", raw.Date)
	if err != nil {
		return defs.CountryHistoryEntry{}, err
	}
	literacy, err := parseDecimal("literacy", raw.Literacy)
	if err != nil {
		return defs.CountryHistoryEntry{}, err
	}
	prestige, err := parseDecimal("prestige", raw.Prestige)
	if err != nil {
		return defs.CountryHistoryEntry{}, err
	}
	return defs.CountryHistoryEntry{
		Date:      date,
		Capital:   raw.Capital,
		Ideology:  raw.Ideology,
		Literacy:  literacy,
		Prestige:  prestige,
		Civilised: raw.Civilised,
	}, nil
}

func (l *Loader) loadProvinces(path string) bool {
	var raws []rawProvince
	found, ok := l.readYAML(path, &raws)
	if !found {
		return ok
	}
	for _, raw := range raws {
		def, err := l.provinceFromRaw(raw)
		if err != nil {
			l.log.Error("skipping province", "path", path, "id", raw.ID, "error", err)
			ok = false
			continue
		}
		if _, err := l.manager.Provinces.Register(def); err != nil {
			l.log.Error("skipping province", "path", path, "id", raw.ID, "error", err)
			ok = false
			continue
		}
		for _, h := range raw.History {
			entry, err := l.provinceHistoryFromRaw(h)
			if err != nil {
				l.log.Error("skipping province history entry", "path", path, "id", raw.ID, "error", err)
				ok = false
				continue
			}
			l.manager.AddProvinceHistory(raw.ID, entry)
		}
	}
	return ok
}

func (l *Loader) provinceFromRaw(raw rawProvince) (defs.ProvinceDefinition, error) {
	def := defs.ProvinceDefinition{
		ID:                raw.ID,
		Water:             raw.Water,
		Continent:         defs.InvalidHandle,
		RGOProductionType: defs.InvalidHandle,
	}
	if raw.Continent != "" {
		h, ok := l.manager.Continents.Lookup(raw.Continent)
		if !ok {
			return defs.ProvinceDefinition{}, errs.Identifier("dataloader", "continent", raw.Continent)
		}
		def.Continent = h
	}
	if raw.RGO != "" {
		h, ok := l.manager.ProductionTypes.Lookup(raw.RGO)
		if !ok {
			return defs.ProvinceDefinition{}, errs.Identifier("dataloader", "production type", raw.RGO)
		}
		def.RGOProductionType = h
	}
	return def, nil
}

func (l *Loader) provinceHistoryFromRaw(raw rawProvinceHistory) (defs.ProvinceHistoryEntry, error) {
	date, err := parseDate("date", raw.Date)
	if err != nil {
		return defs.ProvinceHistoryEntry{}, err
	}
	pops := make([]defs.PopEntry, 0, len(raw.Pops))
	for _, p := range raw.Pops {
		literacy, err := parseDecimal("literacy", p.Literacy)
		if err != nil {
			return defs.ProvinceHistoryEntry{}, err
		}
		pops = append(pops, defs.PopEntry{
			Type:     p.Type,
			Culture:  p.Culture,
			Size:     p.Size,
			Literacy: literacy,
			Ideology: p.Ideology,
		})
	}
	return defs.ProvinceHistoryEntry{
		Date:  date,
		Owner: raw.Owner,
		Cores: raw.Cores,
		RGO:   raw.RGO,
		Pops:  pops,
	}, nil
}
