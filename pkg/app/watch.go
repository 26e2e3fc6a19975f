package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/zurustar/iescript/pkg/compiler"
	"github.com/zurustar/iescript/pkg/resource"
	"github.com/zurustar/iescript/pkg/script"
	"github.com/zurustar/iescript/pkg/watch"
)

// watch はソーススクリプトの変更を監視して再コンパイルする。
// IDSファイルやoverrideディレクトリが変わった場合は、実行中の処理に影響しないよう
// 新しいスナップショットに差し替える
func (app *Application) watch() error {
	dir := "."
	if len(app.config.Args) > 0 {
		dir = app.config.Args[0]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.watchDirs(ctx, dir)
}

func (app *Application) watchDirs(ctx context.Context, scriptDir string) error {
	dirs := []string{scriptDir}
	for _, d := range []string{app.idsDir, app.overrideDir} {
		if d == "" || app.within(d, dirs) {
			continue
		}
		if info, err := os.Stat(d); err == nil && info.IsDir() {
			dirs = append(dirs, d)
		}
	}

	w, err := watch.New(dirs, watch.Options{
		Filter: app.watched,
		Logger: app.log,
	})
	if err != nil {
		return err
	}
	defer w.Close()

	app.log.Info("Watching", "dirs", dirs)
	err = w.Run(ctx, app.onChange)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (app *Application) within(p string, dirs []string) bool {
	abs, _ := filepath.Abs(p)
	for _, d := range dirs {
		da, _ := filepath.Abs(d)
		if rel, err := filepath.Rel(da, abs); err == nil && !strings.HasPrefix(rel, "..") {
			return true
		}
	}
	return false
}

func (app *Application) underOverride(p string) bool {
	return app.overrideDir != "" && app.within(p, []string{app.overrideDir})
}

func (app *Application) watched(p string) bool {
	if kind, ok := script.KindOf(p); ok && kind == script.Source {
		return true
	}
	return isIDS(p) || app.underOverride(p)
}

// onChange は変更されたファイルの種類ごとに処理する
func (app *Application) onChange(ctx context.Context, events []watch.Event) {
	var reloadIDS, reindex bool
	var sources []string
	for _, ev := range events {
		switch {
		case isIDS(ev.Path):
			reloadIDS = true
		case app.underOverride(ev.Path):
			reindex = true
			if kind, ok := script.KindOf(ev.Path); ok && kind == script.Source && !ev.Removed {
				sources = append(sources, ev.Path)
			}
		case !ev.Removed:
			sources = append(sources, ev.Path)
		}
	}

	if reloadIDS {
		app.reloadIDS()
	}
	if reindex {
		app.reindex()
	}
	for _, p := range sources {
		if ctx.Err() != nil {
			return
		}
		app.recompile(p)
	}
}

func (app *Application) reloadIDS() {
	snap, err := app.loadIDS()
	if err != nil {
		app.log.Error("IDS reload failed; keeping previous tables", "error", err)
		return
	}
	old := app.registry.Swap(snap)
	app.log.Info("IDS reloaded", "fingerprint", shortFingerprint(snap), "changed", old.Fingerprint() != snap.Fingerprint())
}

func (app *Application) reindex() {
	index, err := app.overrideIndex()
	if err != nil {
		app.log.Error("Override reindex failed", "error", err)
		return
	}
	merged := mergeIndexes(index, app.gameIx)
	app.catalog.Update(func(c *resource.Contents) {
		c.Index = merged
	})
	app.log.Info("Override reindexed", "count", index.Len())
}

func (app *Application) recompile(p string) {
	r, err := compiler.CompileFile(p, app.env)
	if err != nil {
		app.log.Error("Compile failed", "path", p, "error", err)
		return
	}
	all := compiler.Diagnostics(r.Diags, "compiler", "")
	var errs []error
	var warns []*compiler.CompileError
	for _, d := range all {
		if d.IsWarning() {
			warns = append(warns, d)
		} else {
			errs = append(errs, d)
		}
	}
	app.report(p, errs, warns)

	out := app.outputPath(p)
	if err := app.save(out, r.Code); err != nil {
		app.log.Error("Write failed", "path", out, "error", err)
		return
	}
	app.log.Info("Recompiled", "path", p, "out", out, "errors", len(errs), "warnings", len(warns))
}
