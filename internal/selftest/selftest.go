// Package selftest runs JavaScript self-test scripts against a live game
// session. Scripts call check(name, ok) to record assertions and read the
// gamestate through a small game API object; the runner reports per-script
// pass/fail counts so the headless -t flag can gate its exit code on them.
package selftest

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dop251/goja"

	"github.com/ironcliff/hegemon/errs"
	"github.com/ironcliff/hegemon/internal/script"
	"github.com/ironcliff/hegemon/internal/sim"
)

// Result is the outcome of one script file.
type Result struct {
	Script string
	Passed int
	Failed int
	Err    error
}

// OK reports whether the script ran cleanly with no failed checks.
func (r Result) OK() bool { return r.Err == nil && r.Failed == 0 }

// Runner executes self-test scripts against one instance manager.
type Runner struct {
	log        *slog.Logger
	instance   *sim.InstanceManager
	conditions *script.Manager
}

// NewRunner wraps a running session and its condition registry.
func NewRunner(instance *sim.InstanceManager, conditions *script.Manager, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{log: log, instance: instance, conditions: conditions}
}

// RunDir executes every .js file in the directory in name order. The
// aggregate bool is false when any script errored or failed a check.
func (r *Runner) RunDir(dir string) ([]Result, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		r.log.Error("cannot read self-test directory", "dir", dir, "error", err)
		return nil, false
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".js") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	ok := true
	results := make([]Result, 0, len(paths))
	for _, path := range paths {
		result := r.runScript(path)
		if !result.OK() {
			ok = false
		}
		r.log.Info("self-test script finished",
			"script", result.Script, "passed", result.Passed, "failed", result.Failed, "error", result.Err)
		results = append(results, result)
	}
	return results, ok
}

func (r *Runner) runScript(path string) Result {
	result := Result{Script: filepath.Base(path)}

	source, err := os.ReadFile(path)
	if err != nil {
		result.Err = errs.New("selftest", errs.CodeScript,
			errs.WithMessage("cannot read script"), errs.WithCause(err))
		return result
	}
	program, err := goja.Compile(path, string(source), true)
	if err != nil {
		result.Err = errs.New("selftest", errs.CodeScript,
			errs.WithMessage("cannot compile script"), errs.WithCause(err))
		return result
	}

	rt := goja.New()
	if err := r.bind(rt, &result); err != nil {
		result.Err = err
		return result
	}
	if _, err := rt.RunProgram(program); err != nil {
		result.Err = errs.New("selftest", errs.CodeScript,
			errs.WithMessage("script run failed"), errs.WithCause(err))
	}
	return result
}

// bind installs check, console and the game API into the runtime.
func (r *Runner) bind(rt *goja.Runtime, result *Result) error {
	if err := rt.Set("check", func(name string, ok bool) {
		if ok {
			result.Passed++
			return
		}
		result.Failed++
		r.log.Error("self-test check failed", "script", result.Script, "check", name)
	}); err != nil {
		return errs.New("selftest", errs.CodeScript,
			errs.WithMessage("cannot bind check"), errs.WithCause(err))
	}

	console := rt.NewObject()
	logLine := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, arg.String())
		}
		r.log.Info("self-test script output", "script", result.Script, "message", strings.Join(parts, " "))
		return goja.Undefined()
	}
	_ = console.Set("log", logLine)
	_ = console.Set("info", logLine)
	_ = console.Set("error", logLine)
	if err := rt.Set("console", console); err != nil {
		return errs.New("selftest", errs.CodeScript,
			errs.WithMessage("cannot bind console"), errs.WithCause(err))
	}

	game := rt.NewObject()
	_ = game.Set("today", func() string { return r.instance.Today().String() })
	_ = game.Set("year", func() int { return r.instance.Today().Year() })
	_ = game.Set("countryExists", func(tag string) bool {
		c, err := r.instance.Countries().ByTag(tag)
		return err == nil && c.Exists()
	})
	_ = game.Set("countryRank", func(tag string) int {
		c, err := r.instance.Countries().ByTag(tag)
		if err != nil {
			return 0
		}
		return c.Rank()
	})
	_ = game.Set("countryPrestige", func(tag string) float64 {
		c, err := r.instance.Countries().ByTag(tag)
		if err != nil {
			return 0
		}
		return c.Prestige().InexactFloat64()
	})
	_ = game.Set("provinceOwner", func(id string) string {
		p, err := r.instance.Map().ProvinceByID(id)
		if err != nil {
			return ""
		}
		owner := r.instance.Countries().Instance(p.Owner())
		if owner == nil {
			return ""
		}
		return owner.Definition().ID
	})
	_ = game.Set("provincePopulation", func(id string) int64 {
		p, err := r.instance.Map().ProvinceByID(id)
		if err != nil {
			return 0
		}
		return p.TotalPopulation()
	})
	_ = game.Set("price", func(goodID string) float64 {
		h, ok := r.instance.Definitions().Goods.Lookup(goodID)
		if !ok {
			return 0
		}
		return r.instance.Market().PriceOf(h).InexactFloat64()
	})
	_ = game.Set("evalCountry", func(tag, source string) bool {
		c, err := r.instance.Countries().ByTag(tag)
		if err != nil {
			r.log.Error("self-test condition on unknown country", "tag", tag)
			return false
		}
		return r.evalCondition(source, script.ScopeTypeCountry, script.CountryScope(c))
	})
	_ = game.Set("evalProvince", func(id, source string) bool {
		p, err := r.instance.Map().ProvinceByID(id)
		if err != nil {
			r.log.Error("self-test condition on unknown province", "id", id)
			return false
		}
		return r.evalCondition(source, script.ScopeTypeProvince, script.ProvinceScope(p))
	})
	if err := rt.Set("game", game); err != nil {
		return errs.New("selftest", errs.CodeScript,
			errs.WithMessage("cannot bind game api"), errs.WithCause(err))
	}
	return nil
}

func (r *Runner) evalCondition(source string, initial script.ScopeTypes, scope script.Scope) bool {
	node, err := r.conditions.ParseScriptYAML([]byte(source), initial, 0, 0)
	if err != nil {
		r.log.Error("self-test condition parse failed", "error", err)
		return false
	}
	ec := script.NewEvalContext(r.instance, r.log)
	return node.Execute(ec, scope, script.NoScope(), script.NoScope())
}
