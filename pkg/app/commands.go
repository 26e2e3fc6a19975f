package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/zurustar/iescript/pkg/cli"
	"github.com/zurustar/iescript/pkg/compiler"
	"github.com/zurustar/iescript/pkg/fileutil"
	"github.com/zurustar/iescript/pkg/ids"
	"github.com/zurustar/iescript/pkg/resource"
	"github.com/zurustar/iescript/pkg/script"
)

// loadInputs はファイル、ディレクトリ、globパターンから指定種類のスクリプトを読み込む。
// Script.Path は入力のパスになる
func (app *Application) loadInputs(args []string, kind script.Kind) ([]script.Script, error) {
	paths, err := cli.ExpandPaths(args)
	if err != nil {
		return nil, err
	}

	var scripts []script.Script
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			loaded, err := script.NewLoader(fileutil.NewRealFS(p), app.env.Codec).LoadAll(kind)
			if err != nil {
				return nil, err
			}
			for _, s := range loaded {
				s.Path = filepath.Join(p, filepath.FromSlash(s.Path))
				scripts = append(scripts, s)
			}
			continue
		}
		if k, ok := script.KindOf(p); !ok || k != kind {
			app.log.Warn("Skipping file", "path", p, "want", kind.Ext())
			continue
		}
		s, err := script.NewLoader(fileutil.NewRealFS(filepath.Dir(p)), app.env.Codec).Load(filepath.Base(p))
		if err != nil {
			return nil, err
		}
		s.Path = p
		scripts = append(scripts, *s)
	}
	if len(scripts) == 0 {
		return nil, fmt.Errorf("no %s files to process", kind.Ext())
	}
	app.log.Info("Scripts loaded", "count", len(scripts))
	return scripts, nil
}

// outputPath は結果の書き込み先を返す
func (app *Application) outputPath(in string) string {
	out := script.Counterpart(in)
	if app.config.OutDir != "" {
		return filepath.Join(app.config.OutDir, filepath.Base(out))
	}
	return out
}

func (app *Application) save(path, content string) error {
	return script.NewLoader(fileutil.NewRealFS(""), app.env.Codec).Save(path, content)
}

// report は診断メッセージを "path:line: severity: message" の形式で出力し、エラー数を返す
func (app *Application) report(path string, errs []error, warns []*compiler.CompileError) int {
	for _, err := range errs {
		if ce, ok := err.(*compiler.CompileError); ok {
			fmt.Fprintf(app.errOut, "%s:%d: error: %s\n", path, ce.Line, ce.Message)
			app.log.Debug("Error context", "path", path, "context", "\n"+ce.Context)
			continue
		}
		fmt.Fprintf(app.errOut, "%s: error: %v\n", path, err)
	}
	if !app.config.Quiet {
		for _, w := range warns {
			fmt.Fprintf(app.errOut, "%s:%d: warning: %s\n", path, w.Line, w.Message)
		}
	}
	return len(errs)
}

func (app *Application) compile() error {
	scripts, err := app.loadInputs(app.config.Args, script.Source)
	if err != nil {
		return err
	}
	results, err := compiler.CompileScripts(scripts, app.env)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if app.report(r.Path, r.Errors, r.Warnings) > 0 {
			failed++
		}
		if err := app.emit(r.Path, r.Result.Code); err != nil {
			return err
		}
	}
	app.log.Info("Compiled", "count", len(results), "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d script(s) had errors", failed)
	}
	return nil
}

func (app *Application) decompile() error {
	scripts, err := app.loadInputs(app.config.Args, script.Compiled)
	if err != nil {
		return err
	}
	results, err := compiler.DecompileScripts(scripts, app.env, true)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if app.report(r.Path, r.Errors, r.Warnings) > 0 {
			failed++
		}
		app.log.Debug("Decompiled", "path", r.Path,
			"resources", len(r.Result.ResourcesUsed), "strrefs", len(r.Result.StringRefsUsed))
		if err := app.emit(r.Path, r.Result.Source); err != nil {
			return err
		}
	}
	app.log.Info("Decompiled", "count", len(results), "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d script(s) had errors", failed)
	}
	return nil
}

// emit は結果を標準出力または対応するファイルへ書き込む
func (app *Application) emit(in, content string) error {
	if app.config.Stdout {
		_, err := fmt.Fprint(app.out, content)
		return err
	}
	out := app.outputPath(in)
	if err := app.save(out, content); err != nil {
		return err
	}
	app.log.Debug("Written", "path", out)
	return nil
}

// roundTrip はソーススクリプトをコンパイル・逆コンパイルし、元のソースとの差分を表示する
func (app *Application) roundTrip() error {
	scripts, err := app.loadInputs(app.config.Args, script.Source)
	if err != nil {
		return err
	}
	env := app.env
	env.NoComments = true
	results, err := compiler.CompileScripts(scripts, env)
	if err != nil {
		return err
	}

	differ := 0
	for i, r := range results {
		if app.report(r.Path, r.Errors, r.Warnings) > 0 {
			differ++
			continue
		}
		back := compiler.Decompile(r.Result.Code, env, false)
		diff := lineDiff(normalizeSource(scripts[i].Content), normalizeSource(back.Source))
		if diff == "" {
			fmt.Fprintf(app.out, "%s: ok\n", r.Path)
			continue
		}
		differ++
		fmt.Fprintf(app.out, "--- %s\n+++ %s (round trip)\n%s", r.Path, r.Path, diff)
	}
	if differ > 0 {
		return fmt.Errorf("%d of %d script(s) did not round-trip", differ, len(results))
	}
	return nil
}

// normalizeSource はインデント、空行、コメントを除いた行を返す
func normalizeSource(src string) string {
	var b strings.Builder
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(stripComment(line))
		if line != "" {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// stripComment は文字列リテラルの外にある "//" 以降を取り除く
func stripComment(line string) string {
	quoted := false
	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '"':
			quoted = !quoted
		case !quoted && strings.HasPrefix(line[i:], "//"):
			return line[:i]
		}
	}
	return line
}

// lineDiff は行単位の差分を "-"/"+" 付きで返す。差分が無ければ空文字列
func lineDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	chars1, chars2, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(chars1, chars2, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var b strings.Builder
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		default:
			continue
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			b.WriteString(prefix + line + "\n")
		}
	}
	return b.String()
}

// lookup はIDSの項目を名前またはIDで検索する
func (app *Application) lookup(table, key string) error {
	t, err := app.registry.Snapshot().Table(table)
	if err != nil {
		return err
	}

	var entries []*ids.Entry
	if id, err := ids.ParseID(key); err == nil {
		if e, ok := t.LookupID(id); ok {
			entries = append(entries, e)
		}
		if e, ok := t.LookupOverflow(id); ok {
			entries = append(entries, e)
		}
	} else {
		entries = t.LookupAll(key)
	}
	if len(entries) == 0 {
		return fmt.Errorf("%s not found in %s", key, t.Name)
	}
	for _, e := range entries {
		fmt.Fprintf(app.out, "%-10s 0x%04X  %s\n", strconv.FormatInt(e.ID, 10), uint32(e.ID), e.Text)
	}
	return nil
}

// index はゲームディレクトリの索引を作ってキャッシュに保存する
func (app *Application) index() error {
	dir := app.ws.Resolve(app.ws.Paths.Game)
	if dir == "" {
		dir = app.overrideDir
	}
	cachePath := app.ws.Resolve(app.ws.Paths.Cache)
	if dir == "" || cachePath == "" {
		return fmt.Errorf("paths.game and paths.cache must be set to build an index")
	}

	ix, err := resource.BuildIndex(fileutil.NewRealFS(dir), app.ws.Resources.Globs)
	if err != nil {
		return err
	}

	cache, err := resource.OpenCache(cachePath)
	if err != nil {
		return err
	}
	defer cache.Close()
	if err := cache.SaveIndex(context.Background(), ix); err != nil {
		return fmt.Errorf("failed to save index: %w", err)
	}
	app.log.Info("Resource index saved", "root", dir, "count", ix.Len(), "cache", cachePath)
	fmt.Fprintf(app.out, "indexed %d resources under %s\n", ix.Len(), dir)
	return nil
}
