package scripting

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM holding the item and loot formulas.
// Game-loop goroutine only.
type Engine struct {
	vm  *lua.LState
	rng *rand.Rand
	log *zap.Logger
}

// scriptDirs are loaded in order; later files may override earlier ones.
var scriptDirs = []string{"core", "item", "loot"}

// NewEngine creates a Lua engine and loads every script under scriptsDir.
func NewEngine(scriptsDir string, rng *rand.Rand, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	e := &Engine{vm: vm, rng: rng, log: log.With(zap.String("component", "scripting"))}
	vm.SetGlobal("roll", vm.NewFunction(e.luaRoll))

	for _, sub := range scriptDirs {
		if err := e.loadDir(filepath.Join(scriptsDir, sub)); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// luaRoll implements roll(min, max): a uniform integer in [min, max].
func (e *Engine) luaRoll(L *lua.LState) int {
	lo := L.CheckInt(1)
	hi := L.CheckInt(2)
	if hi < lo {
		lo, hi = hi, lo
	}
	L.Push(lua.LNumber(lo + e.rng.Intn(hi-lo+1)))
	return 1
}

// OptionContext is passed to roll_item_options.
type OptionContext struct {
	ItemID      int32
	ItemLevel   int
	Tier        string
	OptionCount int
}

// ItemOption is one random affix on an equip item.
type ItemOption struct {
	Name  string
	Value int
}

// RollItemOptions calls the Lua roll_item_options function. A missing
// function or a script error yields no options.
func (e *Engine) RollItemOptions(ctx OptionContext) []ItemOption {
	if ctx.OptionCount <= 0 {
		return nil
	}
	fn := e.vm.GetGlobal("roll_item_options")
	if fn == lua.LNil {
		e.log.Error("lua function roll_item_options not found")
		return nil
	}

	t := e.vm.NewTable()
	t.RawSetString("item_id", lua.LNumber(ctx.ItemID))
	t.RawSetString("item_level", lua.LNumber(ctx.ItemLevel))
	t.RawSetString("tier", lua.LString(ctx.Tier))
	t.RawSetString("option_count", lua.LNumber(ctx.OptionCount))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua roll_item_options error", zap.Error(err))
		return nil
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		e.log.Error("lua roll_item_options returned non-table")
		return nil
	}

	opts := make([]ItemOption, 0, rt.Len())
	for i := 1; i <= rt.Len(); i++ {
		ot, ok := rt.RawGetInt(i).(*lua.LTable)
		if !ok {
			continue
		}
		opts = append(opts, ItemOption{Name: lStr(ot, "name"), Value: lInt(ot, "value")})
		if len(opts) == ctx.OptionCount {
			break
		}
	}
	return opts
}

// CalcGoldAmount calls calc_gold_amount(level, drop_gold, gold_rate), falling
// back to level × drop_gold × gold_rate.
func (e *Engine) CalcGoldAmount(level, dropGold int, goldRate float64) int {
	fallback := int(math.Round(float64(level*dropGold) * goldRate))
	fn := e.vm.GetGlobal("calc_gold_amount")
	if fn == lua.LNil {
		return fallback
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LNumber(level), lua.LNumber(dropGold), lua.LNumber(goldRate)); err != nil {
		e.log.Error("lua calc_gold_amount error", zap.Error(err))
		return fallback
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	n, ok := result.(lua.LNumber)
	if !ok {
		return fallback
	}
	return int(n)
}

// CalcItemStat calls calc_item_stat(base, per_level, level, multiplier),
// falling back to (base + per_level × (level-1)) × multiplier.
func (e *Engine) CalcItemStat(base, perLevel, level int, multiplier float64) int {
	fallback := int(math.Round(float64(base+perLevel*(level-1)) * multiplier))
	fn := e.vm.GetGlobal("calc_item_stat")
	if fn == lua.LNil {
		return fallback
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LNumber(base), lua.LNumber(perLevel), lua.LNumber(level), lua.LNumber(multiplier)); err != nil {
		e.log.Error("lua calc_item_stat error", zap.Error(err))
		return fallback
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	n, ok := result.(lua.LNumber)
	if !ok {
		return fallback
	}
	return int(n)
}

func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
