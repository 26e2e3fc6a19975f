package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/zurustar/iescript/pkg/logger"
	"github.com/zurustar/iescript/pkg/script"
)

// Command は実行するサブコマンド
type Command string

const (
	CmdCompile   Command = "compile"
	CmdDecompile Command = "decompile"
	CmdRoundTrip Command = "roundtrip"
	CmdLookup    Command = "lookup"
	CmdIndex     Command = "index"
	CmdWatch     Command = "watch"
)

// Config はコマンドライン引数と環境変数から解析された設定を保持する。
// 空文字列の項目は設定ファイルまたはデフォルト値で補われる
type Config struct {
	Command Command
	Args    []string // 位置引数

	ConfigFile string // iescript.toml のパス
	Game       string // ゲームの種類（bg2, iwd, pst, iwd2 など）
	IDSDir     string // IDSファイルのディレクトリ
	Override   string // overrideディレクトリ
	Encoding   string // スクリプトの文字コード
	Key        string // 難読化キー（16進）
	LogLevel   string // ログレベル（debug, info, warn, error）

	OutDir             string // 出力ディレクトリ（空なら入力と同じ場所）
	Stdout             bool   // 結果を標準出力に書く
	NoComments         bool   // 逆コンパイル時の注釈を省略
	SkipResourceChecks bool   // リソース存在チェックを省略
	Quiet              bool   // 警告を表示しない

	ShowHelp bool // ヘルプのみ表示された
}

// envVars は環境変数とフラグの対応
var envVars = []struct {
	flag string
	env  string
}{
	{"config", "IESCRIPT_CONFIG"},
	{"game", "IESCRIPT_GAME"},
	{"ids", "IESCRIPT_IDS"},
	{"override", "IESCRIPT_OVERRIDE"},
	{"encoding", "IESCRIPT_ENCODING"},
	{"key", "IESCRIPT_KEY"},
	{"log-level", "LOG_LEVEL"},
}

// ParseArgs コマンドライン引数を解析してConfigを返す
func ParseArgs(args []string) (*Config, error) {
	return Parse(args, os.Stdout)
}

// Parse はヘルプの出力先を指定して引数を解析する
func Parse(args []string, out io.Writer) (*Config, error) {
	config := &Config{}
	root := newRootCommand(config)
	if args == nil {
		// nil だと cobra は os.Args を使う
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)

	if err := root.Execute(); err != nil {
		return nil, err
	}
	if config.Command == "" {
		config.ShowHelp = true
	}
	return config, nil
}

func newRootCommand(config *Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "iescript",
		Short: "iescript - Infinity Engine script compiler and decompiler",
		Long: `iescript translates Infinity Engine scripts between source (.BAF)
and compiled (.BCS) form using the game's IDS files.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return applyEnv(cmd, config)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&config.ConfigFile, "config", "c", "", "iescript.toml のパス（省略時はカレントから上へ探索）")
	pf.StringVarP(&config.Game, "game", "g", "", "ゲームの種類: bg1, bg2, bgee, iwd, iwd2, pst またはカスタムプロファイル名")
	pf.StringVar(&config.IDSDir, "ids", "", "IDSファイルのディレクトリ")
	pf.StringVar(&config.Override, "override", "", "overrideディレクトリ")
	pf.StringVar(&config.Encoding, "encoding", "", "文字コード: auto, utf-8, windows-1252, shift-jis")
	pf.StringVar(&config.Key, "key", "", "難読化されたスクリプトのキー（16進）")
	pf.StringVarP(&config.LogLevel, "log-level", "l", "info", "ログレベル: debug, info, warn, error")

	run := func(c Command) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			config.Command = c
			config.Args = append([]string(nil), args...)
			return nil
		}
	}

	compileCmd := &cobra.Command{
		Use:   "compile <file|dir|glob>...",
		Short: "Compile source scripts (.BAF) to .BCS",
		Args:  cobra.MinimumNArgs(1),
		RunE:  run(CmdCompile),
	}
	compileCmd.Flags().BoolVar(&config.SkipResourceChecks, "skip-resource-checks", false, "リソースの存在を確認しない")

	decompileCmd := &cobra.Command{
		Use:   "decompile <file|dir|glob>...",
		Short: "Decompile compiled scripts (.BCS) to .BAF",
		Args:  cobra.MinimumNArgs(1),
		RunE:  run(CmdDecompile),
	}
	decompileCmd.Flags().BoolVar(&config.NoComments, "no-comments", false, "文字列参照とリソースの注釈を付けない")

	for _, c := range []*cobra.Command{compileCmd, decompileCmd} {
		c.Flags().StringVarP(&config.OutDir, "out", "o", "", "出力ディレクトリ")
		c.Flags().BoolVar(&config.Stdout, "stdout", false, "結果を標準出力に書く")
		c.Flags().BoolVarP(&config.Quiet, "quiet", "q", false, "警告を表示しない")
	}

	roundTripCmd := &cobra.Command{
		Use:   "roundtrip <file|dir|glob>...",
		Short: "Compile, decompile and diff source scripts",
		Args:  cobra.MinimumNArgs(1),
		RunE:  run(CmdRoundTrip),
	}

	lookupCmd := &cobra.Command{
		Use:   "lookup <table> <name|id>",
		Short: "Look up an IDS entry by name or id",
		Args:  cobra.ExactArgs(2),
		RunE:  run(CmdLookup),
	}

	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Build the resource index cache",
		Args:  cobra.NoArgs,
		RunE:  run(CmdIndex),
	}

	watchCmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Recompile source scripts when they change",
		Args:  cobra.MaximumNArgs(1),
		RunE:  run(CmdWatch),
	}
	watchCmd.Flags().StringVarP(&config.OutDir, "out", "o", "", "出力ディレクトリ")

	root.AddCommand(compileCmd, decompileCmd, roundTripCmd, lookupCmd, indexCmd, watchCmd)
	return root
}

// applyEnv 環境変数からの設定（コマンドラインフラグが優先）と検証
func applyEnv(cmd *cobra.Command, config *Config) error {
	for _, ev := range envVars {
		f := cmd.Flags().Lookup(ev.flag)
		if f == nil || f.Changed {
			continue
		}
		if v := os.Getenv(ev.env); v != "" {
			if err := f.Value.Set(v); err != nil {
				return fmt.Errorf("invalid %s: %w", ev.env, err)
			}
		}
	}
	config.LogLevel = strings.ToLower(config.LogLevel)

	if _, err := logger.ParseLevel(config.LogLevel); err != nil {
		return fmt.Errorf("%w (must be debug, info, warn, or error)", err)
	}
	if config.Encoding != "" {
		if _, err := script.ParseEncoding(config.Encoding); err != nil {
			return err
		}
	}
	if config.Stdout && config.OutDir != "" {
		return fmt.Errorf("--stdout and --out cannot be combined")
	}
	return nil
}

// ExpandPaths はglobパターン（** を含む）を展開する。
// パターンでない引数はそのまま返す。結果は重複なしでソート済み
func ExpandPaths(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			add(filepath.Clean(arg))
			continue
		}
		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", arg)
		}
		for _, m := range matches {
			add(m)
		}
	}
	sort.Strings(out)
	return out, nil
}
