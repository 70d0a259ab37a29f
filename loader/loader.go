// Package loader reads option presets from sandboxed Lua scripts.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/optionspicker/types"
)

// Preset is a named option set defined in Lua.
type Preset struct {
	Title   string
	Options []types.Option
}

// rawOption is one option as written in the script, before validation.
type rawOption struct {
	name   string
	weight lua.LValue
	source string // "file:line" of the defining call, for messages
}

// collector accumulates Lua definitions during file execution.
type collector struct {
	title   string
	options []rawOption
}

// Load reads a preset from a .lua file or from every .lua file in a
// directory (wheel.lua first, the rest alphabetical). The Lua VM is
// discarded after loading.
func Load(path string) (*Preset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading preset %s: %w", path, err)
	}

	files := []string{path}
	if info.IsDir() {
		files, err = luaFiles(path)
		if err != nil {
			return nil, err
		}
	}

	return run(func(L *lua.LState) error {
		for _, f := range files {
			if err := L.DoFile(f); err != nil {
				return fmt.Errorf("executing %s: %w", filepath.Base(f), err)
			}
		}
		return nil
	})
}

// LoadString reads a preset from Lua source held in memory.
func LoadString(src string) (*Preset, error) {
	return run(func(L *lua.LState) error {
		if err := L.DoString(src); err != nil {
			return fmt.Errorf("executing preset: %w", err)
		}
		return nil
	})
}

func run(exec func(L *lua.LState) error) (*Preset, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	if err := exec(L); err != nil {
		return nil, err
	}

	return compile(coll)
}

func luaFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading preset directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no .lua files found in %s", dir)
	}

	sort.Slice(names, func(i, j int) bool {
		if names[i] == "wheel.lua" {
			return names[j] != "wheel.lua"
		}
		if names[j] == "wheel.lua" {
			return false
		}
		return names[i] < names[j]
	})

	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	return paths, nil
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes globals that reach outside the script.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage", "require", "module",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}
}
