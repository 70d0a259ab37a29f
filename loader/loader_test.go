package loader

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/nathoo/optionspicker/types"
)

func namesAndWeights(opts []types.Option) string {
	var parts []string
	for _, o := range opts {
		parts = append(parts, o.Name+"="+strconv.FormatFloat(o.Weight, 'f', -1, 64))
	}
	return strings.Join(parts, ",")
}

func TestLoad_Directory(t *testing.T) {
	preset, err := Load("testdata/lunch")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if preset.Title != "Lunch" {
		t.Errorf("Title = %q, want %q", preset.Title, "Lunch")
	}
	got := namesAndWeights(preset.Options)
	want := "Pizza=3,Burger=2,Sushi=1.5,Salad=0.5,Tacos=1"
	if got != want {
		t.Errorf("options = %s, want %s", got, want)
	}
}

func TestLoad_SingleFile(t *testing.T) {
	preset, err := Load("testdata/single.lua")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if preset.Title != "Chores" {
		t.Errorf("Title = %q", preset.Title)
	}
	if got := namesAndWeights(preset.Options); got != "Dishes=1,Laundry=2,Vacuum=3" {
		t.Errorf("options = %s", got)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load("testdata/does-not-exist"); err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestLoad_EmptyDirectory(t *testing.T) {
	_, err := Load(t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "no .lua files") {
		t.Fatalf("expected no .lua files error, got %v", err)
	}
}

func TestLoad_CollectsValidationErrors(t *testing.T) {
	_, err := Load("testdata/broken")
	if err == nil {
		t.Fatal("expected validation error")
	}

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	if !errors.Is(err, types.ErrInvalidArgument) {
		t.Error("expected ValidationError to match ErrInvalidArgument")
	}
	// Zero weight, non-numeric weight, duplicate SALAD. "pizza" is fine
	// because the zero-weight Pizza never made it in.
	if len(ve.Errors) != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", len(ve.Errors), ve.Errors)
	}
	if !strings.Contains(ve.Errors[0], "weight must be greater than 0") {
		t.Errorf("error[0] = %q", ve.Errors[0])
	}
	if !strings.Contains(ve.Errors[1], "weight must be a number") {
		t.Errorf("error[1] = %q", ve.Errors[1])
	}
	if !strings.Contains(ve.Errors[2], "already defined") {
		t.Errorf("error[2] = %q", ve.Errors[2])
	}
}

func TestLoadString_NoOptions(t *testing.T) {
	_, err := LoadString(`Wheel { title = "Empty" }`)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
}

func TestLoadString_MalformedListEntries(t *testing.T) {
	_, err := LoadString(`Options { { weight = 2 }, 42 }`)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(ve.Errors) != 2 {
		t.Errorf("expected 2 errors, got %v", ve.Errors)
	}
}

func TestLoadString_SyntaxError(t *testing.T) {
	_, err := LoadString(`Option "Pizza" {`)
	if err == nil {
		t.Fatal("expected syntax error")
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		t.Error("syntax errors are not validation errors")
	}
}

func TestSandbox_RemovesDangerousGlobals(t *testing.T) {
	for _, fn := range []string{"dofile", "loadfile", "load", "loadstring", "rawset", "collectgarbage"} {
		_, err := LoadString(fn + `("x")` + "\n" + `Option("A", 1)`)
		if err == nil {
			t.Errorf("expected %s to be unavailable", fn)
		}
	}
}

func TestSandbox_NoOSOrIO(t *testing.T) {
	for _, src := range []string{`os.exit(1)`, `io.write("x")`} {
		if _, err := LoadString(src); err == nil {
			t.Errorf("expected %q to fail", src)
		}
	}
}

func TestLoadString_SafeLibsAvailable(t *testing.T) {
	preset, err := LoadString(`
local names = {}
for w in string.gmatch("red green blue", "%a+") do
  table.insert(names, w)
end
for _, n in ipairs(names) do
  Option(string.upper(n), math.max(1, #n - 3))
end
`)
	if err != nil {
		t.Fatalf("LoadString failed: %v", err)
	}
	if got := namesAndWeights(preset.Options); got != "RED=1,GREEN=2,BLUE=1" {
		t.Errorf("options = %s", got)
	}
}
