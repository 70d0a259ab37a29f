package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nathoo/optionspicker/engine"
	"github.com/nathoo/optionspicker/types"
)

func newTestCLI(t *testing.T, input string, opts ...types.Option) (*CLI, *bytes.Buffer) {
	t.Helper()
	eng := engine.New(engine.Config{Seed: 7})
	require.NoError(t, eng.ReplaceOptions(opts))
	var out bytes.Buffer
	c := New(eng)
	c.In = strings.NewReader(input)
	c.Out = &out
	c.ExportDir = t.TempDir()
	return c, &out
}

func optionNames(eng *engine.Engine) []string {
	var out []string
	for _, o := range eng.Options() {
		out = append(out, o.Name)
	}
	return out
}

func TestCLI_Banner(t *testing.T) {
	c, out := newTestCLI(t, "/quit\n", types.MustOption("A", 1))
	c.Run(context.Background())

	output := out.String()
	assert.Contains(t, output, "1 option(s) on the wheel.")
	assert.Contains(t, output, "[Goodbye.]")
}

func TestCLI_AddListRemove(t *testing.T) {
	c, out := newTestCLI(t, "add Pizza:3\nadd Burger\nlist\nremove pizza\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	assert.Contains(t, output, "Added Pizza (weight 3).")
	assert.Contains(t, output, "Added Burger (weight 1).")
	assert.Contains(t, output, " 1. Pizza  weight 3  (75.0%)")
	assert.Contains(t, output, "2 option(s), total weight 4.")
	assert.Contains(t, output, "Removed Pizza.")
	assert.Equal(t, []string{"Burger"}, optionNames(c.Engine))
}

func TestCLI_AddErrors(t *testing.T) {
	c, out := newTestCLI(t, "add Pizza\nadd pizza:2\nadd Soup:abc\nadd Tea:-1\nadd\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	assert.Contains(t, output, "Add failed: an option with that name already exists.")
	assert.Contains(t, output, "Add failed: weight must be a number.")
	assert.Contains(t, output, "Add failed: invalid argument")
	assert.Contains(t, output, "Add what?")
	assert.Equal(t, []string{"Pizza"}, optionNames(c.Engine))
}

func TestCLI_WeightAndRename(t *testing.T) {
	c, out := newTestCLI(t, "weight pizza:2.5\nrename Pizza => Pasta\nrename Ghost => X\nweight Pasta:x\n/quit\n",
		types.MustOption("Pizza", 1))
	c.Run(context.Background())

	output := out.String()
	assert.Contains(t, output, "pizza now has weight 2.5.")
	assert.Contains(t, output, "Renamed Pizza to Pasta.")
	assert.Contains(t, output, "Rename failed: no option by that name.")
	assert.Contains(t, output, `Weight "x" is not a number.`)

	o, ok := c.Engine.Find("pasta")
	require.True(t, ok)
	assert.Equal(t, 2.5, o.Weight)
}

func TestCLI_SpinAndHistory(t *testing.T) {
	c, out := newTestCLI(t, "spin\ng\nhistory\nstats\n/quit\n", types.MustOption("Only", 1))
	c.Run(context.Background())

	output := out.String()
	assert.Equal(t, 2, strings.Count(output, "Spinning..."))
	assert.Contains(t, output, "The wheel stops on: Only")
	assert.Contains(t, output, "(100.0% chance, 1st spin)")
	assert.Contains(t, output, "(100.0% chance, 2nd spin)")
	assert.Contains(t, output, " 1. Only  now")
	assert.Contains(t, output, "2 spin(s) in history.")
	assert.Contains(t, output, "Only: 2 pick(s), expected 100.0%, off by 0.0 pts")
}

func TestCLI_SpinEmpty(t *testing.T) {
	c, out := newTestCLI(t, "spin\n/quit\n")
	c.Run(context.Background())
	assert.Contains(t, out.String(), "There is nothing to spin.")
}

func TestCLI_AgainWithNothing(t *testing.T) {
	c, out := newTestCLI(t, "again\n/quit\n")
	c.Run(context.Background())
	assert.Contains(t, out.String(), "Nothing to repeat.")
}

func TestCLI_StatsRemovedOption(t *testing.T) {
	c, out := newTestCLI(t, "spin\nremove Gone\nadd Stay\nstats\n/quit\n", types.MustOption("Gone", 1))
	c.Run(context.Background())
	assert.Contains(t, out.String(), "Gone: 1 pick(s) (no longer on the wheel)")
}

func TestCLI_ForgetAndReset(t *testing.T) {
	c, _ := newTestCLI(t, "spin\nspin\n/forget\n/quit\n", types.MustOption("A", 1))
	c.Run(context.Background())
	assert.Empty(t, c.Engine.Tracker.History())
	assert.Equal(t, map[string]int{"A": 2}, c.Engine.Tracker.Counts())

	c, _ = newTestCLI(t, "spin\n/reset\n/quit\n", types.MustOption("A", 1))
	c.Run(context.Background())
	assert.Empty(t, c.Engine.Tracker.History())
	assert.Empty(t, c.Engine.Tracker.Counts())
}

func TestCLI_ExportImport(t *testing.T) {
	c, out := newTestCLI(t, "", types.MustOption("Pizza", 3), types.MustOption("Burger", 0.5))
	path := filepath.Join(c.ExportDir, "lunch.txt")
	c.In = strings.NewReader("/export lunch.txt\nclear\n/import " + path + "\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	assert.Contains(t, output, "[Exported 2 option(s) to "+path+".]")
	assert.Contains(t, output, "All options removed.")
	assert.Contains(t, output, "[Imported 2 option(s) from "+path+".]")
	assert.Equal(t, []string{"Pizza", "Burger"}, optionNames(c.Engine))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# OptionsPicker Export\n"))
	assert.Contains(t, string(data), "Pizza:3\nBurger:0.5\n")
}

func TestCLI_ImportErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("# nothing\n"), 0o644))
	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("A:1\nB:oops\n"), 0o644))

	c, out := newTestCLI(t, "/import "+empty+"\n/import "+bad+"\n/import "+filepath.Join(dir, "missing.txt")+"\n/quit\n",
		types.MustOption("Keep", 1))
	c.Run(context.Background())

	output := out.String()
	assert.Contains(t, output, "[Import failed: no options found.]")
	assert.Contains(t, output, "line 2")
	assert.Equal(t, 3, strings.Count(output, "[Import failed"))
	assert.Equal(t, []string{"Keep"}, optionNames(c.Engine))
}

func TestCLI_FileFailuresAreLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	undo := zap.ReplaceGlobals(zap.New(core))
	defer undo()

	missing := filepath.Join(t.TempDir(), "nope")
	c, out := newTestCLI(t, "/export "+filepath.Join(missing, "x.txt")+"\n/import "+filepath.Join(missing, "y.txt")+"\n/quit\n",
		types.MustOption("A", 1))
	c.Run(context.Background())

	assert.Contains(t, out.String(), "[Export failed:")
	errs := logs.FilterLevelExact(zap.ErrorLevel).All()
	require.Len(t, errs, 2)
	assert.Equal(t, "export failed", errs[0].Message)
	assert.Equal(t, "import failed", errs[1].Message)
}

func TestCLI_ShareAndLoad(t *testing.T) {
	src, out := newTestCLI(t, "/share\n/quit\n", types.MustOption("Fish & Chips", 2), types.MustOption("Tea", 1))
	src.BaseURL = "http://example.test/"
	src.Run(context.Background())

	var link string
	for _, line := range strings.Split(out.String(), "\n") {
		if i := strings.Index(line, "http://example.test/?options="); i >= 0 {
			link = strings.Trim(line[i:], "[]")
		}
	}
	require.NotEmpty(t, link)

	dst, out := newTestCLI(t, "/load "+link+"\n/load garbage\n/quit\n")
	dst.Run(context.Background())
	assert.Contains(t, out.String(), "[Loaded 2 option(s) from the link.]")
	assert.Contains(t, out.String(), "[That link could not be read. Loaded the default options.]")
	assert.Equal(t, []string{"Option 1", "Option 2", "Option 3"}, optionNames(dst.Engine))
}

func TestCLI_Preset(t *testing.T) {
	c, out := newTestCLI(t, "/preset ../loader/testdata/lunch\n/preset nowhere.lua\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	assert.Contains(t, output, "(5 options).]")
	assert.Contains(t, output, "[Preset failed:")
	assert.Equal(t, []string{"Pizza", "Burger", "Sushi", "Salad", "Tacos"}, optionNames(c.Engine))
}

func TestCLI_URIAndState(t *testing.T) {
	c, out := newTestCLI(t, "/uri\n/state\n/quit\n", types.MustOption("A B", 1))
	c.Run(context.Background())

	output := out.String()
	assert.Contains(t, output, "[data:text/plain;charset=utf-8,")
	assert.Contains(t, output, "A%20B%3A1")
	assert.Contains(t, output, "[RNG: seed 7, position 0]")
	assert.Contains(t, output, "[History: 0/20]")
}

func TestCLI_HelpCommand(t *testing.T) {
	c, out := newTestCLI(t, "/help\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	for _, want := range []string{"/export", "/import", "/share", "/load", "/preset", "/quit", "spin (s)"} {
		assert.Contains(t, output, want)
	}
}

func TestCLI_UnknownCommand(t *testing.T) {
	c, out := newTestCLI(t, "/foobar\ndance\n/quit\n")
	c.Run(context.Background())
	assert.Contains(t, out.String(), "[Unknown command: /foobar.")
	assert.Contains(t, out.String(), `I don't know how to "dance".`)
}

func TestCLI_CommentsAndEcho(t *testing.T) {
	c, out := newTestCLI(t, "# a comment\nlist\n/quit\n")
	c.EchoInput = true
	c.Run(context.Background())

	output := out.String()
	assert.NotContains(t, output, "a comment")
	assert.Contains(t, output, "> list\n")
}

func TestCLI_EOFExits(t *testing.T) {
	c, out := newTestCLI(t, "list\n")
	c.Run(context.Background())
	assert.Contains(t, out.String(), "No options yet.")
}

func TestIsSpin(t *testing.T) {
	assert.True(t, IsSpin("spin"))
	assert.True(t, IsSpin(" S "))
	assert.False(t, IsSpin("spinach"))
}
