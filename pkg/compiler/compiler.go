// Package compiler translates Infinity Engine scripts in both directions:
// source scripts (.BAF) to compiled scripts (.BCS) and back.
//
// This package provides a unified API over the compiler and decompiler
// subpackages:
// - Compile / Decompile: translate a string
// - CompileFile / DecompileFile: translate a file (handles obfuscation and text encoding)
// - CompileScripts / DecompileScripts: translate scripts loaded by script.Loader concurrently
// - Diagnostics: convert diagnostics into CompileError values with source context
package compiler

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/zurustar/iescript/pkg/compiler/compiler"
	"github.com/zurustar/iescript/pkg/compiler/decompiler"
	"github.com/zurustar/iescript/pkg/game"
	"github.com/zurustar/iescript/pkg/ids"
	"github.com/zurustar/iescript/pkg/script"
)

// Re-exported result types.
type (
	Result           = compiler.Result
	DecompiledResult = decompiler.Result
)

var errNoEnv = errors.New("environment has no resolver or game profile")

// Env is everything a translation needs besides its input.
type Env struct {
	// Resolver and Profile are required.
	Resolver ids.Resolver
	Profile  *game.Profile

	// Codec reads and writes script files.
	Codec script.Codec

	SkipResourceChecks bool
	NoComments         bool
}

func (e Env) valid() error {
	if e.Resolver == nil || e.Profile == nil {
		return errNoEnv
	}
	return nil
}

// pinned returns an Env whose resolver is fixed to the current tables, so
// that every script of a batch sees the same symbols.
func (e Env) pinned() Env {
	if p, ok := e.Resolver.(ids.Pinner); ok {
		e.Resolver = p.Pin()
	}
	return e
}

func (e Env) compiler() *compiler.Compiler {
	return compiler.New(e.Resolver, e.Profile, compiler.Options{SkipResourceChecks: e.SkipResourceChecks})
}

func (e Env) decompiler() *decompiler.Decompiler {
	return decompiler.New(e.Resolver, e.Profile, decompiler.Options{NoComments: e.NoComments})
}

// Compile compiles source script text.
// The result always carries code: statements that failed are replaced by
// error markers and reported in Result.Diags.
func Compile(source string, env Env) *Result {
	return env.compiler().Compile(source)
}

// Decompile decompiles compiled script text. Diagnostics are recorded only
// when collect is true.
func Decompile(code string, env Env, collect bool) *DecompiledResult {
	return env.decompiler().Decompile(code, collect)
}

// CompileFile reads a source script and compiles it.
func CompileFile(path string, env Env) (*Result, error) {
	if err := env.valid(); err != nil {
		return nil, err
	}
	text, err := readFile(path, env.Codec)
	if err != nil {
		return nil, err
	}
	return Compile(text, env), nil
}

// DecompileFile reads a compiled script and decompiles it.
func DecompileFile(path string, env Env, collect bool) (*DecompiledResult, error) {
	if err := env.valid(); err != nil {
		return nil, err
	}
	text, err := readFile(path, env.Codec)
	if err != nil {
		return nil, err
	}
	return Decompile(text, env, collect), nil
}

func readFile(path string, codec script.Codec) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", path, err)
	}
	text, err := codec.Decode(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return text, nil
}

// CompileResult is the compilation result for a single script.
type CompileResult struct {
	FileName string
	Path     string
	Result   *Result
	// Errors holds the error diagnostics as *CompileError values.
	Errors []error
	// Warnings holds the warning diagnostics.
	Warnings []*CompileError
}

// DecompileResult is the decompilation result for a single script.
type DecompileResult struct {
	FileName string
	Path     string
	Result   *DecompiledResult
	Errors   []error
	Warnings []*CompileError
}

// CompileScripts compiles scripts loaded by script.Loader. Scripts are
// compiled concurrently and independently; results keep the input order.
func CompileScripts(scripts []script.Script, env Env) ([]CompileResult, error) {
	if err := env.valid(); err != nil {
		return nil, err
	}
	env = env.pinned()
	c := env.compiler()

	results := make([]CompileResult, len(scripts))
	forEach(len(scripts), func(i int) {
		s := &scripts[i]
		r := c.Compile(s.Content)
		errs, warns := split(Diagnostics(r.Diags, "compiler", s.Content))
		results[i] = CompileResult{
			FileName: s.FileName,
			Path:     s.Path,
			Result:   r,
			Errors:   errs,
			Warnings: warns,
		}
	})
	return results, nil
}

// DecompileScripts decompiles scripts loaded by script.Loader concurrently.
func DecompileScripts(scripts []script.Script, env Env, collect bool) ([]DecompileResult, error) {
	if err := env.valid(); err != nil {
		return nil, err
	}
	env = env.pinned()
	d := env.decompiler()

	results := make([]DecompileResult, len(scripts))
	forEach(len(scripts), func(i int) {
		s := &scripts[i]
		r := d.Decompile(s.Content, collect)
		errs, warns := split(Diagnostics(r.Diags, "decompiler", s.Content))
		results[i] = DecompileResult{
			FileName: s.FileName,
			Path:     s.Path,
			Result:   r,
			Errors:   errs,
			Warnings: warns,
		}
	})
	return results, nil
}

// forEach calls fn for 0..n-1 on at most GOMAXPROCS goroutines.
func forEach(n int, fn func(i int)) {
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(i)
		}(i)
	}
	wg.Wait()
}

func split(all []*CompileError) (errs []error, warns []*CompileError) {
	for _, e := range all {
		if e.IsWarning() {
			warns = append(warns, e)
		} else {
			errs = append(errs, e)
		}
	}
	return errs, warns
}
