// slangref — slang translation references for Dart and Flutter projects.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/slang-tools/slangref/config"
	"github.com/slang-tools/slangref/extract"
	"github.com/slang-tools/slangref/i18n"
	"github.com/slang-tools/slangref/keygen"
	"github.com/slang-tools/slangref/langmeta"
	"github.com/slang-tools/slangref/lsp"
	"github.com/slang-tools/slangref/provider"
	"github.com/slang-tools/slangref/resolve"
	"github.com/slang-tools/slangref/settings"
	"github.com/slang-tools/slangref/store"
	"github.com/slang-tools/slangref/workspace"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flag
// ---------------------------------------------------------------------------

var rootDir string

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "slangref",
		Short: "Slang translation references for Dart and Flutter",
		Long: `slangref: slang translation references for Dart and Flutter projects.

Runs as a language server that shows the text behind t.* accessors on hover
and turns string literals into translation keys. The same resolution and
conversion logic is available from the command line.

Commands:
  serve     Run the language server on stdin/stdout
  status    Show slang configuration and locale coverage
  resolve   Print the translation behind an accessor name
  scan      List string literals that could be translated
  suggest   Suggest translation keys for a text
  add       Add a translation to the base-locale file`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")

	root.AddCommand(
		newServeCmd(),
		newStatusCmd(),
		newResolveCmd(),
		newScanCmd(),
		newSuggestCmd(),
		newAddCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("slangref version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// serve
// ---------------------------------------------------------------------------

func newServeCmd() *cobra.Command {
	var (
		verbose int
		logFile string
		envFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the language server on stdin/stdout",
		Long: `Run the slangref language server over stdio.

Settings start from the environment (SLANGREF_ENABLE_CONVERSION,
SLANGREF_SHOW_DETAILED_INFO, optionally read from an .env file) and are
then updated from the client's initialization options and configuration
changes. Logs never go to stdout; use --log-file to keep them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var path *string
			if logFile != "" {
				path = &logFile
			}
			commonlog.Configure(verbose, path)

			var s settings.Settings
			if envFile != "" {
				s = settings.FromEnv(envFile)
			} else {
				s = settings.FromEnv()
			}
			return lsp.New("slangref", version, s).RunStdio()
		},
	}

	cmd.Flags().CountVarP(&verbose, "verbose", "v", "Log verbosity (repeat for more)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Read settings from this dotenv file (default .env)")

	return cmd
}

// ---------------------------------------------------------------------------
// Shared project helpers
// ---------------------------------------------------------------------------

// project bundles the resolvers the CLI commands work through.
type project struct {
	root     string
	files    *workspace.Workspace
	configs  *resolve.ConfigResolver
	comments *resolve.CommentResolver
}

func openProject() (*project, error) {
	root, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	files := workspace.New(root)
	return &project{
		root:     root,
		files:    files,
		configs:  resolve.NewConfigResolver(files),
		comments: resolve.NewCommentResolver(files),
	}, nil
}

// docPath returns file made absolute against the project root, or the root
// itself when file is empty.
func (p *project) docPath(file string) string {
	if file == "" {
		return p.root
	}
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(p.root, file)
}

// keyPath returns docPath relative to the directory of its slang
// configuration, for building nested key suggestions.
func (p *project) keyPath(docPath string) string {
	cfg, err := p.configs.Config(docPath)
	if err != nil {
		return relativeTo(p.root, docPath)
	}
	return relativeTo(cfg.Dir, docPath)
}

func relativeTo(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ---------------------------------------------------------------------------
// status
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show slang configuration and locale coverage",
		Long: `Show the slang configuration governing the project root, the base-locale
translation source and, for every other locale found next to it, how many
base keys it translates. Does not modify any files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject()
			if err != nil {
				return err
			}
			return runStatus(p)
		},
	}
}

func runStatus(p *project) error {
	cfg, err := p.configs.Config(p.root)
	if err != nil {
		if errors.Is(err, resolve.ErrNoConfig) {
			logWarning("No %s found under %s", strings.Join(config.FileNames, " or "), p.root)
			return nil
		}
		return err
	}

	fmt.Fprintf(os.Stderr, "%sProject Information%s\n", colorBlue, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "  Root:         %s\n", p.root)
	fmt.Fprintf(os.Stderr, "  Config:       %s\n", cfg.Path)
	slang := "no"
	if workspace.IsSlangProject(cfg.Dir, config.FileNames) {
		slang = "yes"
	}
	fmt.Fprintf(os.Stderr, "  Slang:        %s\n", slang)
	fmt.Fprintf(os.Stderr, "  Base locale:  %s\n", langmeta.DisplayName(cfg.BaseLocale, i18n.Language()))
	fmt.Fprintf(os.Stderr, "  Input dir:    %s\n", cfg.InputDir())
	fmt.Fprintf(os.Stderr, "  Base file:    %s\n", cfg.BaseLocaleFile())
	fmt.Fprintln(os.Stderr)

	if !fileExists(cfg.BaseLocaleFile()) {
		logWarning("Base locale file %s does not exist yet", cfg.BaseLocaleFile())
		return nil
	}
	base, err := p.configs.Table(p.root)
	if err != nil {
		logWarning("Base locale file unreadable: %v", err)
		return nil
	}
	if base.Len() == 0 {
		logInfo("No translation keys in %s", cfg.BaseLocaleFile())
		return nil
	}

	files := cfg.LocaleFiles()
	locales := cfg.Locales()
	width := langColumnWidth(locales)

	fmt.Fprintf(os.Stderr, "%sLocale Coverage%s\n", colorBlue, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	for _, loc := range locales {
		t, err := loadLocale(files[loc])
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s  %s\n", langCell(loc, width), "unreadable")
			continue
		}
		have := covered(base, t)
		fmt.Fprintf(os.Stderr, "%s  %s  %d/%d\n", langCell(loc, width), progressBar(have*100/base.Len(), 20), have, base.Len())
	}
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "Total keys: %d\n", base.Len())
	return nil
}

// loadLocale merges the tables of every file a locale is split across.
func loadLocale(paths []string) (*resolve.Table, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no translation files")
	}
	merged := resolve.NewTable()
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		t, err := resolve.ParseTable(path, data)
		if err != nil {
			return nil, err
		}
		for _, k := range t.Keys() {
			v, _ := t.Get(k)
			merged.Add(k, v)
		}
	}
	return merged, nil
}

// covered counts the keys of base that t also defines.
func covered(base, t *resolve.Table) int {
	n := 0
	for _, k := range base.Keys() {
		if _, ok := t.Get(k); ok {
			n++
		}
	}
	return n
}

// progressBar renders percent as a colored bar of width cells followed by
// the percentage.
func progressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100

	color := colorRed
	switch {
	case percent == 100:
		color = colorGreen
	case percent >= 50:
		color = colorYellow
	}
	return color + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + colorReset + fmt.Sprintf(" %3d%%", percent)
}

func langColumnWidth(locales []string) int {
	w := len("Locale")
	for _, l := range locales {
		if len(l) > w {
			w = len(l)
		}
	}
	return w
}

func langCell(loc string, width int) string {
	flag := langmeta.Resolve(loc).Flag
	if flag == "" {
		flag = "  "
	}
	return fmt.Sprintf("%s %-*s", flag, width, loc)
}

// ---------------------------------------------------------------------------
// resolve
// ---------------------------------------------------------------------------

func newResolveCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "resolve NAME",
		Short: "Print the translation behind an accessor name",
		Long: `Resolve a translation name the way hover does: first from the doc comments
of the nearest generated strings.g.dart, then through slang.yaml and the
base-locale file. NAME may be a dotted path (home.title) or a getter name
(homeTitle, home_title).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject()
			if err != nil {
				return err
			}
			value, ok := resolveName(p, args[0], p.docPath(file))
			if !ok {
				return fmt.Errorf("no translation found for %q", args[0])
			}
			fmt.Println(value)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Resolve relative to this source file")

	return cmd
}

func resolveName(p *project, name, docPath string) (string, bool) {
	name = strings.TrimPrefix(name, "t.")
	if v, ok := p.comments.Resolve(name, docPath); ok {
		return v, true
	}
	return p.configs.Resolve(name, docPath)
}

// ---------------------------------------------------------------------------
// scan
// ---------------------------------------------------------------------------

func newScanCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scan [DIR...]",
		Short: "List string literals that could be translated",
		Long: `Walk Dart sources (default: lib/ under the project root, or the root itself)
and print every string literal that looks like user-facing text. Generated
sources and build directories are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject()
			if err != nil {
				return err
			}
			return runScan(p, scanDirs(p.root, args), asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print findings as JSON")

	return cmd
}

func scanDirs(root string, args []string) []string {
	if len(args) > 0 {
		dirs := make([]string, len(args))
		for i, a := range args {
			if filepath.IsAbs(a) {
				dirs[i] = a
			} else {
				dirs[i] = filepath.Join(root, a)
			}
		}
		return dirs
	}
	lib := filepath.Join(root, "lib")
	if info, err := os.Stat(lib); err == nil && info.IsDir() {
		return []string{lib}
	}
	return []string{root}
}

func runScan(p *project, dirs []string, asJSON bool) error {
	res, err := extract.Scan(dirs)
	if err != nil {
		return err
	}

	if asJSON {
		findings := res.Findings
		if findings == nil {
			findings = []extract.Finding{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(findings)
	}

	for _, f := range res.Findings {
		name := relativeTo(p.root, f.File)
		if name == "" {
			name = f.File
		}
		fmt.Printf("%s:%d: %q (%s)\n", name, f.Line, f.Detection.Value, f.Detection.Context)
	}

	files := len(res.SourceFiles)
	logInfo(i18n.N("Scanned %d file", "Scanned %d files", files), files)
	if len(res.Findings) == 0 {
		logSuccess("No untranslated strings found")
		return nil
	}
	n := len(res.Findings)
	logWarning(i18n.N("Found %d translatable string", "Found %d translatable strings", n)+": %s", n, extract.Describe(res.Findings, p.root))
	return nil
}

// ---------------------------------------------------------------------------
// suggest
// ---------------------------------------------------------------------------

func newSuggestCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "suggest TEXT",
		Short: "Suggest translation keys for a text",
		Long: `Print the key candidates offered by the convert code action, best first.
With --file, a nested key is derived from the source file's folders and
every candidate is made unique against the existing base-locale keys.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject()
			if err != nil {
				return err
			}
			for _, key := range suggestKeys(p, args[0], file) {
				fmt.Println(key)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Source file the text comes from")

	return cmd
}

func suggestKeys(p *project, text, file string) []string {
	if file == "" {
		return keygen.Suggestions(text, "")
	}
	docPath := p.docPath(file)
	existing, err := store.NewWriter(p.files, p.configs).ExistingKeys(docPath)
	if err != nil {
		logWarning("Existing keys unavailable: %v", err)
	}
	var out []string
	seen := make(map[string]bool)
	for _, s := range keygen.Suggestions(text, p.keyPath(docPath)) {
		key := keygen.UniqueKey(s, existing)
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// add
// ---------------------------------------------------------------------------

func newAddCmd() *cobra.Command {
	var (
		file      string
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "add KEY VALUE",
		Short: "Add a translation to the base-locale file",
		Long: `Write KEY=VALUE into the base-locale translation source of the slang project
governing --file (default: the project root). Dots in KEY create nested
groups. An existing key is only replaced with --overwrite.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject()
			if err != nil {
				return err
			}
			return runAdd(p, args[0], args[1], file, overwrite)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Source file whose project receives the key")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace the value of an existing key")

	return cmd
}

func runAdd(p *project, key, value, file string, overwrite bool) error {
	if v := keygen.ValidateNestedKey(key); !v.Valid {
		return fmt.Errorf(i18n.T("Invalid translation key: %s"), strings.Join(v.Errors, ", "))
	}

	w := store.NewWriter(p.files, p.configs)
	entry := store.Entry{Key: key, Value: value}
	var r store.WriteResult
	if overwrite {
		r = w.SetTranslation(entry, p.docPath(file))
	} else {
		r = w.AddTranslation(entry, p.docPath(file))
	}

	if !r.Success {
		if provider.IsConflict(r.Err) && !overwrite {
			logInfo("Use --overwrite to replace the existing value")
		}
		return errors.New(r.Error)
	}
	p.configs.ClearCache()
	p.comments.ClearCache()
	logSuccess(i18n.T("Translation key '%s' added successfully!"), r.KeyAdded)
	logInfo("Written to %s", r.FilePath)
	return nil
}

