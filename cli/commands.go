package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/nathoo/optionspicker/engine"
	"github.com/nathoo/optionspicker/engine/textfile"
	"github.com/nathoo/optionspicker/internal/log"
	"github.com/nathoo/optionspicker/loader"
	"github.com/nathoo/optionspicker/types"
)

// Reply is the output of one command.
type Reply struct {
	Lines  []string
	System bool // meta-command output, rendered in brackets
	Quit   bool
}

// Commands parses and executes picker and meta commands. It is shared by
// the line CLI and the TUI.
type Commands struct {
	Engine    *engine.Engine
	ExportDir string
	BaseURL   string
	lastCmd   string // for "again"/"g" repeat
}

// NewCommands creates a command set over eng.
func NewCommands(eng *engine.Engine) *Commands {
	return &Commands{
		Engine:    eng,
		ExportDir: ".",
		BaseURL:   "http://localhost/",
	}
}

// Resolve expands "again"/"g" into the previous command and remembers
// everything else. ok is false when there is nothing to repeat.
func (c *Commands) Resolve(input string) (cmd string, ok bool) {
	lower := strings.ToLower(input)
	if lower == "again" || lower == "g" {
		if c.lastCmd == "" {
			return "", false
		}
		return c.lastCmd, true
	}
	c.lastCmd = input
	return input, true
}

// IsSpin reports whether a resolved command starts a spin.
func IsSpin(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "spin", "s":
		return true
	}
	return false
}

// Exec runs one resolved command.
func (c *Commands) Exec(ctx context.Context, input string) Reply {
	if strings.HasPrefix(input, "/") {
		return c.meta(ctx, input)
	}

	verb, arg := splitVerb(input)
	switch strings.ToLower(verb) {
	case "add", "a":
		return Reply{Lines: c.cmdAdd(arg)}
	case "remove", "rm":
		return Reply{Lines: c.cmdRemove(arg)}
	case "weight", "w":
		return Reply{Lines: c.cmdWeight(arg)}
	case "rename", "mv":
		return Reply{Lines: c.cmdRename(arg)}
	case "list", "ls", "l":
		return Reply{Lines: c.cmdList()}
	case "spin", "s":
		res, err := c.Engine.Spin(ctx)
		return Reply{Lines: SpinLines(c.Engine, res, err)}
	case "history", "h":
		return Reply{Lines: c.cmdHistory()}
	case "stats":
		return Reply{Lines: c.cmdStats()}
	case "clear":
		c.Engine.ClearOptions()
		return Reply{Lines: []string{"All options removed."}}
	default:
		return Reply{Lines: []string{fmt.Sprintf("I don't know how to %q. Type /help for commands.", verb)}}
	}
}

func (c *Commands) meta(ctx context.Context, input string) Reply {
	verb, arg := splitVerb(input)

	var lines []string
	switch verb {
	case "/quit", "/exit":
		return Reply{Lines: []string{"Goodbye."}, System: true, Quit: true}
	case "/export":
		lines = c.cmdExport(ctx, arg)
	case "/import":
		lines = c.cmdImport(ctx, arg)
	case "/share":
		lines = []string{c.Engine.ShareURL(c.BaseURL)}
	case "/load":
		lines = c.cmdLoad(ctx, arg)
	case "/preset":
		lines = c.cmdPreset(ctx, arg)
	case "/uri":
		lines = []string{textfile.DataURI(c.Engine.Options())}
	case "/reset":
		c.Engine.Tracker.ResetStatistics()
		lines = []string{"History and statistics cleared."}
	case "/forget":
		c.Engine.Tracker.ClearHistory()
		lines = []string{"History cleared."}
	case "/state":
		lines = c.cmdState()
	case "/help":
		return Reply{Lines: helpLines()}
	default:
		lines = []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", verb)}
	}
	return Reply{Lines: lines, System: true}
}

func splitVerb(input string) (string, string) {
	input = strings.TrimSpace(input)
	if i := strings.IndexAny(input, " \t"); i >= 0 {
		return input[:i], strings.TrimSpace(input[i+1:])
	}
	return input, ""
}

func (c *Commands) cmdAdd(arg string) []string {
	if arg == "" {
		return []string{"Add what? Try: add Pizza:3"}
	}
	o, err := textfile.ParseLine(arg)
	if err != nil {
		return []string{describe("Add failed", err)}
	}
	if err := c.Engine.AddOption(o); err != nil {
		return []string{describe("Add failed", err)}
	}
	return []string{fmt.Sprintf("Added %s (weight %s).", o.Name, textfile.FormatWeight(o.Weight))}
}

func (c *Commands) cmdRemove(arg string) []string {
	if arg == "" {
		return []string{"Remove what?"}
	}
	o, err := c.Engine.RemoveByName(arg)
	if err != nil {
		return []string{describe("Remove failed", err)}
	}
	return []string{fmt.Sprintf("Removed %s.", o.Name)}
}

func (c *Commands) cmdWeight(arg string) []string {
	i := strings.LastIndex(arg, ":")
	if i < 0 {
		return []string{"Usage: weight <name>:<weight>"}
	}
	name := strings.TrimSpace(arg[:i])
	w, err := strconv.ParseFloat(strings.TrimSpace(arg[i+1:]), 64)
	if err != nil {
		return []string{fmt.Sprintf("Weight %q is not a number.", strings.TrimSpace(arg[i+1:]))}
	}
	if err := c.Engine.ReweightOption(name, w); err != nil {
		return []string{describe("Weight change failed", err)}
	}
	return []string{fmt.Sprintf("%s now has weight %s.", name, textfile.FormatWeight(w))}
}

func (c *Commands) cmdRename(arg string) []string {
	from, to, ok := strings.Cut(arg, "=>")
	if !ok {
		return []string{"Usage: rename <old> => <new>"}
	}
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if err := c.Engine.RenameOption(from, to); err != nil {
		return []string{describe("Rename failed", err)}
	}
	return []string{fmt.Sprintf("Renamed %s to %s.", from, to)}
}

func (c *Commands) cmdList() []string {
	opts := c.Engine.Options()
	if len(opts) == 0 {
		return []string{"No options yet. Try: add Pizza:3"}
	}
	total := c.Engine.TotalWeight()
	lines := make([]string, 0, len(opts)+1)
	for i, o := range opts {
		lines = append(lines, fmt.Sprintf("%2d. %s  weight %s  (%.1f%%)",
			i+1, o.Name, textfile.FormatWeight(o.Weight), o.Weight/total*100))
	}
	lines = append(lines, fmt.Sprintf("%d option(s), total weight %s.", len(opts), textfile.FormatWeight(total)))
	return lines
}

// SpinLines describes the outcome of a spin.
func SpinLines(eng *engine.Engine, res types.SelectionResult, err error) []string {
	switch {
	case errors.Is(err, types.ErrEmptyCollection):
		return []string{"There is nothing to spin. Add some options first."}
	case errors.Is(err, types.ErrConcurrentDraw):
		return []string{"Hold on, the wheel is already spinning."}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return []string{"Spin cancelled."}
	case err != nil:
		return []string{describe("Spin failed", err)}
	}
	chance := res.Option.Weight / res.TotalWeight * 100
	return []string{
		fmt.Sprintf("The wheel stops on: %s", res.Option.Name),
		fmt.Sprintf("(%.1f%% chance, %s spin)", chance, humanize.Ordinal(spinCount(eng))),
	}
}

func spinCount(eng *engine.Engine) int {
	n := 0
	for _, c := range eng.Tracker.Counts() {
		n += c
	}
	return n
}

func (c *Commands) cmdHistory() []string {
	history := c.Engine.Tracker.History()
	if len(history) == 0 {
		return []string{"No spins yet."}
	}
	lines := make([]string, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		h := history[i]
		lines = append(lines, fmt.Sprintf("%2d. %s  %s", len(history)-i, h.Option.Name, humanize.Time(h.Time)))
	}
	return lines
}

func (c *Commands) cmdStats() []string {
	counts := c.Engine.Tracker.Counts()
	fairness := c.Engine.Tracker.Fairness()
	opts := c.Engine.Options()
	if len(counts) == 0 {
		return []string{"No spins yet."}
	}

	total := c.Engine.TotalWeight()
	lines := []string{fmt.Sprintf("%d spin(s) in history.", len(c.Engine.Tracker.History()))}
	current := map[string]bool{}
	for _, o := range opts {
		current[o.Name] = true
		line := fmt.Sprintf("%s: %d pick(s), expected %.1f%%", o.Name, counts[o.Name], o.Weight/total*100)
		if f, ok := fairness[o.Name]; ok {
			line += fmt.Sprintf(", off by %.1f pts", f)
		}
		lines = append(lines, line)
	}

	var gone []string
	for name := range counts {
		if !current[name] {
			gone = append(gone, name)
		}
	}
	sort.Strings(gone)
	for _, name := range gone {
		lines = append(lines, fmt.Sprintf("%s: %d pick(s) (no longer on the wheel)", name, counts[name]))
	}
	return lines
}

func (c *Commands) cmdExport(ctx context.Context, name string) []string {
	if name == "" {
		name = "options-" + time.Now().Format("20060102-150405") + ".txt"
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.ExportDir, name)
	}

	opts := c.Engine.Options()
	if err := os.WriteFile(path, []byte(textfile.Export(opts)+"\n"), 0o644); err != nil {
		log.Error(ctx, "export failed", zap.String("path", path), zap.Error(err))
		return []string{fmt.Sprintf("Export failed: %v", err)}
	}
	log.Debug(ctx, "options exported", zap.String("path", path), zap.Int("count", len(opts)))
	return []string{fmt.Sprintf("Exported %d option(s) to %s.", len(opts), path)}
}

func (c *Commands) cmdImport(ctx context.Context, path string) []string {
	if path == "" {
		return []string{"Usage: /import <file>"}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Error(ctx, "import failed", zap.String("path", path), zap.Error(err))
		return []string{fmt.Sprintf("Import failed: %v", err)}
	}
	opts, err := textfile.Import(string(data))
	if err != nil {
		return []string{fmt.Sprintf("Import failed: %v", err)}
	}
	if len(opts) == 0 {
		return []string{"Import failed: no options found."}
	}
	if err := c.Engine.ReplaceOptions(opts); err != nil {
		return []string{describe("Import failed", err)}
	}
	log.Debug(ctx, "options imported", zap.String("path", path), zap.Int("count", len(opts)))
	return []string{fmt.Sprintf("Imported %d option(s) from %s.", len(opts), path)}
}

func (c *Commands) cmdLoad(ctx context.Context, arg string) []string {
	if arg == "" {
		return []string{"Usage: /load <link or token>"}
	}
	if !c.Engine.LoadLink(ctx, arg) {
		return []string{"That link could not be read. Loaded the default options."}
	}
	return []string{fmt.Sprintf("Loaded %d option(s) from the link.", c.Engine.Len())}
}

func (c *Commands) cmdPreset(ctx context.Context, path string) []string {
	if path == "" {
		return []string{"Usage: /preset <file.lua or directory>"}
	}
	preset, err := loader.Load(path)
	if err != nil {
		return []string{fmt.Sprintf("Preset failed: %v", err)}
	}
	if err := c.Engine.ReplaceOptions(preset.Options); err != nil {
		return []string{describe("Preset failed", err)}
	}
	log.Debug(ctx, "preset loaded", zap.String("path", path), zap.String("title", preset.Title))
	title := preset.Title
	if title == "" {
		title = filepath.Base(path)
	}
	return []string{fmt.Sprintf("Loaded preset %s (%d options).", title, len(preset.Options))}
}

func (c *Commands) cmdState() []string {
	e := c.Engine
	return []string{
		fmt.Sprintf("Options: %d (total weight %s)", e.Len(), textfile.FormatWeight(e.TotalWeight())),
		fmt.Sprintf("History: %d/%d", len(e.Tracker.History()), engine.HistoryCapacity),
		fmt.Sprintf("Counts: %v", e.Tracker.Counts()),
		fmt.Sprintf("RNG: seed %d, position %d", e.RNG.Seed(), e.RNG.Position()),
		fmt.Sprintf("Token: %s", e.Token()),
	}
}

// describe turns an engine error into a user-facing sentence.
func describe(prefix string, err error) string {
	switch {
	case errors.Is(err, types.ErrDuplicateName):
		return prefix + ": an option with that name already exists."
	case errors.Is(err, types.ErrNotFound):
		return prefix + ": no option by that name."
	case errors.Is(err, types.ErrFormat):
		return prefix + ": weight must be a number."
	default:
		return fmt.Sprintf("%s: %v", prefix, err)
	}
}

func helpLines() []string {
	return []string{
		"Options:",
		"  add <name>[:weight]     Add an option (weight defaults to 1)",
		"  remove <name>           Remove an option",
		"  weight <name>:<weight>  Change an option's weight",
		"  rename <old> => <new>   Rename an option",
		"  list (l)                Show the wheel",
		"  clear                   Remove every option",
		"",
		"Spinning:",
		"  spin (s)                Spin the wheel",
		"  again (g)               Repeat the last command",
		"  history (h)             Recent results, newest first",
		"  stats                   Picks and fairness per option",
		"",
		"System:",
		"  /export [file]          Write options to a text file",
		"  /import <file>          Replace options from a text file",
		"  /preset <path>          Replace options from a Lua preset",
		"  /share                  Print a share link",
		"  /load <link|token>      Replace options from a share link",
		"  /uri                    Print the export as a data URI",
		"  /forget                 Clear history (keep pick counts)",
		"  /reset                  Clear history and pick counts",
		"  /state                  Debug: dump current state",
		"  /help                   Show this help",
		"  /quit                   Exit",
	}
}
