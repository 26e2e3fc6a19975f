package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/zurustar/iescript/pkg/cli"
	"github.com/zurustar/iescript/pkg/compiler"
	"github.com/zurustar/iescript/pkg/config"
	"github.com/zurustar/iescript/pkg/fileutil"
	"github.com/zurustar/iescript/pkg/game"
	"github.com/zurustar/iescript/pkg/ids"
	"github.com/zurustar/iescript/pkg/logger"
	"github.com/zurustar/iescript/pkg/resource"
	"github.com/zurustar/iescript/pkg/script"
)

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config *cli.Config
	ws     *config.Config // iescript.toml
	log    *slog.Logger

	out    io.Writer // コンパイル結果など
	errOut io.Writer // 診断メッセージ

	profile  *game.Profile
	registry *ids.Registry
	catalog  *resource.Catalog
	env      compiler.Env

	idsDir      string
	overrideDir string
	gameIx      *resource.Index // ゲームディレクトリの索引（overrideは含まない）
}

// New Applicationを作成
func New() *Application {
	return NewWithIO(os.Stdout, os.Stderr)
}

// NewWithIO 出力先を指定してApplicationを作成
func NewWithIO(out, errOut io.Writer) *Application {
	return &Application{out: out, errOut: errOut}
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	config, err := cli.Parse(args, app.out)
	if err != nil {
		return err
	}
	app.config = config
	if config.ShowHelp {
		return nil
	}

	// 2. ロガーの初期化
	if err := logger.InitLoggerTo(app.errOut, config.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.log = logger.GetLogger()

	// 3. 設定ファイルの読み込み
	if err := app.loadWorkspace(); err != nil {
		return err
	}

	// 4. ゲームプロファイルとIDS、リソースの準備
	if config.Command != cli.CmdIndex {
		if err := app.setup(); err != nil {
			return err
		}
	}

	app.log.Debug("Running command", "command", config.Command, "args", config.Args)
	switch config.Command {
	case cli.CmdCompile:
		return app.compile()
	case cli.CmdDecompile:
		return app.decompile()
	case cli.CmdRoundTrip:
		return app.roundTrip()
	case cli.CmdLookup:
		return app.lookup(config.Args[0], config.Args[1])
	case cli.CmdIndex:
		return app.index()
	case cli.CmdWatch:
		return app.watch()
	}
	return fmt.Errorf("unknown command %q", config.Command)
}

// loadWorkspace iescript.toml を読み込み、コマンドライン・環境変数の値で上書きする
func (app *Application) loadWorkspace() error {
	var err error
	if app.config.ConfigFile != "" {
		app.ws, err = config.LoadFile(app.config.ConfigFile)
	} else {
		app.ws, err = config.FindAndLoad(".")
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.log.Debug("Configuration loaded", "dir", app.ws.Dir)

	app.idsDir = first(app.config.IDSDir, app.ws.Resolve(app.ws.Paths.IDS))
	app.overrideDir = first(app.config.Override, app.ws.Resolve(app.ws.Paths.Override))
	return nil
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (app *Application) setup() error {
	profiles := game.Builtin()
	if p := app.ws.Game.Profiles; p != "" {
		var err error
		if profiles, err = game.LoadFile(app.ws.Resolve(p)); err != nil {
			return err
		}
	}
	profile, err := profiles.Get(first(app.config.Game, app.ws.Game.Variant, "bg2"))
	if err != nil {
		return err
	}
	app.profile = profile

	codec, err := app.codec()
	if err != nil {
		return err
	}

	snap, err := app.loadIDS()
	if err != nil {
		return err
	}
	app.registry = ids.NewRegistry(snap)

	contents, err := app.loadResources()
	if err != nil {
		return err
	}
	app.catalog = resource.NewCatalog(contents)

	app.env = compiler.Env{
		Resolver:           ids.NewService(app.registry, app.catalog),
		Profile:            profile,
		Codec:              codec,
		SkipResourceChecks: app.config.SkipResourceChecks || contents.Index == nil,
		NoComments:         app.config.NoComments,
	}
	app.log.Info("Ready",
		"game", profile.Name,
		"ids", app.idsDir,
		"fingerprint", shortFingerprint(snap),
		"resources", contents.Index.Len(),
		"strings", contents.Strings.Len(),
	)
	return nil
}

func shortFingerprint(s *ids.Snapshot) string {
	fp := s.Fingerprint()
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}

func (app *Application) codec() (script.Codec, error) {
	enc, err := script.ParseEncoding(first(app.config.Encoding, app.ws.Text.Encoding))
	if err != nil {
		return script.Codec{}, err
	}
	key, err := script.ParseKey(first(app.config.Key, app.ws.Text.Key))
	if err != nil {
		return script.Codec{}, err
	}
	return script.Codec{Encoding: enc, Key: key}, nil
}

func (app *Application) loadIDS() (*ids.Snapshot, error) {
	snap, err := ids.LoadDir(os.DirFS(app.idsDir), ".")
	if err != nil {
		return nil, fmt.Errorf("failed to load IDS files (set --ids or paths.ids): %w", err)
	}
	return snap, nil
}

// loadResources はoverrideディレクトリ、ゲームディレクトリの索引、文字列表などを読み込む。
// 設定されていないものは nil のまま
func (app *Application) loadResources() (resource.Contents, error) {
	var c resource.Contents
	paths := app.ws.Paths

	index, err := app.overrideIndex()
	if err != nil {
		return c, err
	}
	if gameDir := app.ws.Resolve(paths.Game); gameDir != "" {
		if app.gameIx, err = app.gameIndex(gameDir); err != nil {
			return c, err
		}
	}
	c.Index = mergeIndexes(index, app.gameIx)

	if p := app.ws.Resolve(paths.Strings); p != "" {
		data, err := os.ReadFile(p)
		if err != nil {
			return c, fmt.Errorf("failed to read string table: %w", err)
		}
		if c.Strings, err = resource.ParseStringTable(p, data); err != nil {
			return c, err
		}
	}
	if p := app.ws.Resolve(paths.Titles); p != "" {
		data, err := os.ReadFile(p)
		if err != nil {
			return c, fmt.Errorf("failed to read titles: %w", err)
		}
		if c.Titles, err = resource.ParseTitles(p, data); err != nil {
			return c, err
		}
	}
	if p := app.ws.Resolve(paths.ScriptNames); p != "" {
		data, err := os.ReadFile(p)
		if err != nil {
			return c, fmt.Errorf("failed to read script names: %w", err)
		}
		c.ScriptNames = resource.ParseScriptNames(data)
	}
	return c, nil
}

// mergeIndexes overrideの項目を優先して結合する。どちらも nil なら nil
func mergeIndexes(override, gameIx *resource.Index) *resource.Index {
	switch {
	case override == nil:
		return gameIx
	case gameIx == nil:
		return override
	}
	return override.Merge(gameIx)
}

// overrideIndex overrideディレクトリが無い場合は nil を返す
func (app *Application) overrideIndex() (*resource.Index, error) {
	if app.overrideDir == "" {
		return nil, nil
	}
	if info, err := os.Stat(app.overrideDir); err != nil || !info.IsDir() {
		app.log.Debug("No override directory", "path", app.overrideDir)
		return nil, nil
	}
	return resource.BuildIndex(fileutil.NewRealFS(app.overrideDir), app.ws.Resources.Globs)
}

// gameIndex はキャッシュ済みの索引を使い、無ければディレクトリを走査する
func (app *Application) gameIndex(dir string) (*resource.Index, error) {
	if cachePath := app.ws.Resolve(app.ws.Paths.Cache); cachePath != "" {
		if _, err := os.Stat(cachePath); err == nil {
			cache, err := resource.OpenCache(cachePath)
			if err != nil {
				return nil, err
			}
			defer cache.Close()
			ix, err := cache.LoadIndex(context.Background(), dir)
			if err == nil {
				app.log.Debug("Using cached resource index", "root", dir, "built", ix.Built, "count", ix.Len())
				return ix, nil
			}
			if !errors.Is(err, resource.ErrNotIndexed) {
				return nil, err
			}
		}
		app.log.Info("Resource index not cached; run 'iescript index' to speed this up", "root", dir)
	}
	return resource.BuildIndex(fileutil.NewRealFS(dir), app.ws.Resources.Globs)
}

func isIDS(p string) bool {
	return strings.EqualFold(filepath.Ext(p), ".ids")
}
