// Package protocompile ties the parser, linker, options interpreter, and
// source-info generator into a single entry point that turns a set of
// proto3 file paths into fully linked FileDescriptorProtos (§9): resolve
// each path (and, recursively, everything it imports) via a Resolver,
// parse it, link it against its already-compiled dependencies, interpret
// its options, and attach source code info.
package protocompile

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/protolang/protocompile/ast"
	"github.com/protolang/protocompile/linker"
	"github.com/protolang/protocompile/options"
	"github.com/protolang/protocompile/parser"
	"github.com/protolang/protocompile/reporter"
	"github.com/protolang/protocompile/sourceinfo"
)

// There are a variety of string identifiers used to refer to compiler
// results in different contexts, some of which cannot be interchanged. To
// avoid accidental misuse, these types distinguish them.
type (
	// UnresolvedPath is an import path exactly as it appears in a file.
	UnresolvedPath string
	// ResolvedPath uniquely identifies a file, after a Resolver has
	// settled on which file an import path actually refers to.
	ResolvedPath string
)

// ImportContext identifies the file whose import is being resolved, so a
// Resolver can interpret relative import paths. It is nil when resolving
// a path given directly to Compile.
type ImportContext *parser.Result

// SourceInfoMode controls whether Compile attaches SourceCodeInfo to the
// files it produces.
type SourceInfoMode int

const (
	// SourceInfoNone omits SourceCodeInfo entirely.
	SourceInfoNone SourceInfoMode = iota
	// SourceInfoStandard attaches SourceCodeInfo the way protoc does:
	// one Location per declared element, with whatever comments were
	// attached to it in source.
	SourceInfoStandard
)

const defaultMaxRecursionDepth = 100

// Compiler turns a set of file paths into fully linked descriptors.
//
// The compilation pipeline for each file is: resolve (via Resolver),
// parse into an AST and raw descriptor, recursively compile its
// dependencies, link (resolve every cross-reference against a shared
// symbol table), interpret options, and attach source code info.
type Compiler struct {
	// Resolves a path into source, an AST, or a descriptor for a proto
	// file. The only required field. Must be safe for concurrent use:
	// Compile may call FindFileByPath from multiple goroutines at once.
	Resolver Resolver
	// The maximum number of files compiled concurrently. Non-positive
	// means runtime.GOMAXPROCS(0).
	MaxParallelism int
	// A custom error/warning sink. If nil, a default reporter is used
	// that fails on the first error and ignores warnings.
	Reporter reporter.Reporter
	// Whether (and how) to attach SourceCodeInfo to compiled files.
	SourceInfoMode SourceInfoMode
	// If true, Compile's result includes every transitively-imported
	// file, not just the ones explicitly requested -- protoc's
	// --include_imports behavior.
	IncludeDependenciesInResults bool
	// Bounds how deep an import chain may go before Compile gives up,
	// as a backstop against runaway or maliciously deep import graphs.
	// Non-positive means defaultMaxRecursionDepth.
	MaxRecursionDepth int
}

// Compile resolves, parses, and links every path given (and everything
// they import, transitively), returning the linked result for each path
// requested, in the order given.
//
// All paths given to a single Compile call (and everything they import)
// share one symbol table, so that a type declared in one requested file
// can be referenced from another. Each call starts with its own empty
// symbol table and import cache; nothing carries over from earlier calls
// on the same *Compiler.
func (c *Compiler) Compile(ctx context.Context, paths ...ResolvedPath) (linker.Files, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	par := c.MaxParallelism
	if par <= 0 {
		par = runtime.GOMAXPROCS(0)
	}

	e := &executor{c: c, symbols: linker.NewTable(), sem: make(chan struct{}, par), cache: map[ResolvedPath]*cacheEntry{}}

	grp, gctx := errgroup.WithContext(ctx)
	files := make([]linker.File, len(paths))
	for i, p := range paths {
		i, p := i, p
		grp.Go(func() error {
			f, err := e.compile(gctx, UnresolvedPath(p), nil, nil, 0)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			files[i] = f
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	result := linker.Files(files)
	if c.IncludeDependenciesInResults {
		result = closeOver(result)
	}
	return result, nil
}

func closeOver(files linker.Files) linker.Files {
	seen := map[string]bool{}
	var all linker.Files
	for _, f := range files {
		for _, dep := range linker.ComputeReflexiveTransitiveClosure(f) {
			if !seen[dep.Path()] {
				seen[dep.Path()] = true
				all = append(all, dep)
			}
		}
	}
	return all
}

// cacheEntry memoizes one resolved path's compiled result, so that a
// file imported by two siblings (a diamond dependency) is only ever
// parsed and linked once.
type cacheEntry struct {
	once sync.Once
	file linker.File
	err  error
}

type executor struct {
	c       *Compiler
	symbols *linker.Table
	sem     chan struct{}

	mu    sync.Mutex
	cache map[ResolvedPath]*cacheEntry
}

func (e *executor) maxDepth() int {
	if e.c.MaxRecursionDepth > 0 {
		return e.c.MaxRecursionDepth
	}
	return defaultMaxRecursionDepth
}

func (e *executor) acquire(ctx context.Context) error {
	select {
	case e.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *executor) release() { <-e.sem }

// compile resolves path (in the context of whence, the importing file,
// if any), then compiles it if it hasn't already been compiled under its
// resolved path. stack holds the chain of resolved paths currently being
// compiled, innermost last, for cycle detection.
func (e *executor) compile(ctx context.Context, path UnresolvedPath, whence ImportContext, stack []ResolvedPath, depth int) (linker.File, error) {
	if depth > e.maxDepth() {
		return nil, fmt.Errorf("import depth exceeds maximum of %d while importing %q", e.maxDepth(), path)
	}

	sr, err := e.c.Resolver.FindFileByPath(path, whence)
	if err != nil {
		return nil, fmt.Errorf("could not resolve %q: %w", path, err)
	}
	resolvedPath := sr.ResolvedPath
	if resolvedPath == "" {
		resolvedPath = ResolvedPath(path)
	}

	for _, s := range stack {
		if s == resolvedPath {
			return nil, fmt.Errorf("import cycle: %s -> %s", formatCycle(stack), resolvedPath)
		}
	}
	childStack := append(append(make([]ResolvedPath, 0, len(stack)+1), stack...), resolvedPath)

	e.mu.Lock()
	entry, ok := e.cache[resolvedPath]
	if !ok {
		entry = &cacheEntry{}
		e.cache[resolvedPath] = entry
	}
	e.mu.Unlock()

	entry.once.Do(func() {
		entry.file, entry.err = e.compileOne(ctx, resolvedPath, sr, childStack, depth)
	})
	return entry.file, entry.err
}

func formatCycle(stack []ResolvedPath) string {
	s := ""
	for i, p := range stack {
		if i > 0 {
			s += " -> "
		}
		s += string(p)
	}
	return s
}

func (e *executor) compileOne(ctx context.Context, resolvedPath ResolvedPath, sr SearchResult, stack []ResolvedPath, depth int) (linker.File, error) {
	if err := e.acquire(ctx); err != nil {
		return nil, err
	}

	handler := reporter.NewHandler(e.c.Reporter)

	result, err := e.buildParseResult(resolvedPath, sr, handler)
	e.release()
	if err != nil {
		return nil, err
	}

	fd := result.FileDescriptorProto()
	deps := make(linker.Files, 0, len(fd.Dependency))
	for i, imp := range fd.Dependency {
		depFile, err := e.compile(ctx, UnresolvedPath(imp), ImportContext(result), stack, depth+1)
		if err != nil {
			// A weak import that fails to compile (for instance because it
			// cannot be found) is replaced by an empty placeholder file.
			weak := false
			for _, w := range fd.WeakDependency {
				weak = weak || int(w) == i
			}
			if weak {
				deps = append(deps, linker.NewPlaceholderFile(imp))
				continue
			}
			return nil, fmt.Errorf("importing %q: %w", imp, err)
		}
		deps = append(deps, depFile)
	}

	// The slot is not held while dependencies compile (each takes its own),
	// so an import chain deeper than MaxParallelism cannot deadlock; it is
	// taken again for linking, option interpretation and source info.
	if err := e.acquire(ctx); err != nil {
		return nil, err
	}
	defer e.release()

	if err := linker.Link(result, deps, e.symbols, handler); err != nil {
		return nil, err
	}
	if err := options.InterpretOptions(result, handler); err != nil {
		return nil, err
	}
	linker.CheckForUnusedImports(result, deps, handler)

	if e.c.SourceInfoMode == SourceInfoStandard {
		fd.SourceCodeInfo = sourceinfo.Generate(result)
	}

	return linker.NewFile(result, deps), nil
}

func (e *executor) buildParseResult(resolvedPath ResolvedPath, sr SearchResult, handler *reporter.Handler) (*parser.Result, error) {
	switch {
	case sr.ParseResult != nil:
		return sr.ParseResult, nil

	case sr.Proto != nil:
		fd := proto.Clone(sr.Proto).(*descriptorpb.FileDescriptorProto)
		fd.Name = proto.String(string(resolvedPath))
		return parser.NewPlaceholderResult(ast.NewEmptyFileNode(string(resolvedPath)), fd), nil

	case sr.AST != nil:
		return parser.ResultFromAST(sr.AST, handler)

	case sr.Source != nil:
		if closer, ok := sr.Source.(io.Closer); ok {
			defer closer.Close()
		}
		data, err := io.ReadAll(sr.Source)
		if err != nil {
			return nil, err
		}
		file, err := parser.Parse(string(resolvedPath), data, handler)
		if err != nil {
			return nil, err
		}
		return parser.ResultFromAST(file, handler)

	default:
		return nil, fmt.Errorf("resolver returned no source, AST, descriptor, or parse result for %q", resolvedPath)
	}
}
