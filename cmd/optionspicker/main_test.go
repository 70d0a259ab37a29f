package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nathoo/optionspicker/engine"
	"github.com/nathoo/optionspicker/engine/textfile"
	"github.com/nathoo/optionspicker/engine/urlstate"
	"github.com/nathoo/optionspicker/types"
)

const singlePreset = "../../loader/testdata/single.lua"

func optionList(eng *engine.Engine) string {
	var parts []string
	for _, o := range eng.Options() {
		parts = append(parts, o.Name+":"+textfile.FormatWeight(o.Weight))
	}
	return strings.Join(parts, ",")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSeedOptions_TokenFirst(t *testing.T) {
	token := urlstate.Serialize([]types.Option{types.MustOption("Tea", 2)})
	eng := engine.New(engine.Config{Seed: 1})

	err := seedOptions(context.Background(), eng, sources{
		token:      token,
		preset:     singlePreset,
		importFile: writeFile(t, "opts.txt", "Coffee:1\n"),
	})
	if err != nil {
		t.Fatalf("seedOptions: %v", err)
	}
	if got := optionList(eng); got != "Tea:2" {
		t.Errorf("options = %q, want token options", got)
	}
}

func TestSeedOptions_ShareURLToken(t *testing.T) {
	link := urlstate.ShareURL("http://localhost/", []types.Option{types.MustOption("Tea", 2)})
	eng := engine.New(engine.Config{Seed: 1})

	if err := seedOptions(context.Background(), eng, sources{token: link}); err != nil {
		t.Fatalf("seedOptions: %v", err)
	}
	if got := optionList(eng); got != "Tea:2" {
		t.Errorf("options = %q, want Tea:2", got)
	}
}

func TestSeedOptions_BadTokenLoadsDefaults(t *testing.T) {
	eng := engine.New(engine.Config{Seed: 1})

	err := seedOptions(context.Background(), eng, sources{token: "garbage", preset: singlePreset})
	if err != nil {
		t.Fatalf("seedOptions: %v", err)
	}
	if got := optionList(eng); got != "Option 1:1,Option 2:1,Option 3:1" {
		t.Errorf("options = %q, want defaults", got)
	}
}

func TestSeedOptions_PresetBeforeImport(t *testing.T) {
	eng := engine.New(engine.Config{Seed: 1})

	err := seedOptions(context.Background(), eng, sources{
		preset:     singlePreset,
		importFile: filepath.Join(t.TempDir(), "missing.txt"),
	})
	if err != nil {
		t.Fatalf("seedOptions: %v", err)
	}
	if got := optionList(eng); got != "Dishes:1,Laundry:2,Vacuum:3" {
		t.Errorf("options = %q, want preset options", got)
	}
}

func TestSeedOptions_Import(t *testing.T) {
	eng := engine.New(engine.Config{Seed: 1})
	path := writeFile(t, "opts.txt", "# saved\nCoffee:1\nTea:0.5\n")

	if err := seedOptions(context.Background(), eng, sources{importFile: path}); err != nil {
		t.Fatalf("seedOptions: %v", err)
	}
	if got := optionList(eng); got != "Coffee:1,Tea:0.5" {
		t.Errorf("options = %q, want imported options", got)
	}
}

func TestSeedOptions_BadImportFails(t *testing.T) {
	eng := engine.New(engine.Config{Seed: 1})
	path := writeFile(t, "opts.txt", "Coffee:1\nTea:lots\n")

	err := seedOptions(context.Background(), eng, sources{importFile: path})
	if err == nil {
		t.Fatal("expected an error for a malformed import")
	}
	var lineErr *textfile.LineError
	if !errors.As(err, &lineErr) || lineErr.Line != 2 {
		t.Errorf("expected a line 2 error, got %v", err)
	}
	if !errors.Is(err, types.ErrFormat) {
		t.Errorf("expected ErrFormat, got %v", err)
	}
	if eng.Len() != 0 {
		t.Errorf("expected no options after a failed import, got %q", optionList(eng))
	}
}

func TestSeedOptions_BadPresetFails(t *testing.T) {
	eng := engine.New(engine.Config{Seed: 1})
	if err := seedOptions(context.Background(), eng, sources{preset: "no/such/preset.lua"}); err == nil {
		t.Error("expected an error for a missing preset")
	}
}

func TestSeedOptions_NoSourcesLoadsDefaults(t *testing.T) {
	eng := engine.New(engine.Config{Seed: 1})

	if err := seedOptions(context.Background(), eng, sources{}); err != nil {
		t.Fatalf("seedOptions: %v", err)
	}
	if got := optionList(eng); got != "Option 1:1,Option 2:1,Option 3:1" {
		t.Errorf("options = %q, want defaults", got)
	}
}
