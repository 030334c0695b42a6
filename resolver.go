// Copyright 2020-2023 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package protocompile

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/protolang/protocompile/ast"
	"github.com/protolang/protocompile/parser"
)

// Resolver turns a proto file name into whatever form of that file the
// compiler can work with: raw source, a parsed AST, a descriptor proto, or
// some combination.
//
// A single compile can fan out across many goroutines, each possibly
// resolving a different import path at the same time, so implementations
// must be safe for concurrent use.
type Resolver interface {
	// FindFileByPath looks up path and reports what it found. When nothing
	// is available for that path, it must return a non-nil error (e.g.
	// protoregistry.NotFound) rather than a zero-value SearchResult.
	FindFileByPath(path UnresolvedPath, whence ImportContext) (SearchResult, error)
}

// SearchResult carries whatever a Resolver managed to find for one file.
// Callers only need to populate the field that matches what they have on
// hand; when more than one is set, the compiler picks the most "finished"
// one first, working backwards from ParseResult/Proto down to Source, so it
// never redoes work a resolver already did for it.
type SearchResult struct {
	// The path this result was actually resolved from. Set this when the
	// lookup rewrote the requested path using context from whence (e.g.
	// making it relative to an import root) — the compiler needs the final
	// path so later lookups for the same file land on the same cache entry.
	// Leave it unset only when whence was empty, meaning the incoming path
	// was already resolved.
	ResolvedPath ResolvedPath
	// Raw file contents, or nil when none are available. The compiler
	// parses this into an AST itself if nothing further along is set.
	Source io.Reader
	// A parsed AST for the file. Leave unset to have the compiler derive
	// the descriptor proto on its own from Source.
	AST *ast.FileNode
	// An already-built descriptor for the file. If set, the compiler skips
	// straight to linking it against its dependencies.
	Proto *descriptorpb.FileDescriptorProto
	// Both an AST and its derived descriptor proto, bundled together. This
	// is the cheapest option when available: it spares the compiler from
	// rebuilding the descriptor, and it keeps the AST's source positions
	// around for sharper diagnostics than a bare descriptor proto offers
	// even with source-code info attached.
	ParseResult *parser.Result

	// Version tags this result in error/warning reports. The compiler
	// itself never inspects it.
	Version int32
}

// ResolverFunc adapts a plain function to the Resolver interface.
type ResolverFunc func(UnresolvedPath, ImportContext) (SearchResult, error)

var _ Resolver = ResolverFunc(nil)

func (f ResolverFunc) FindFileByPath(path UnresolvedPath, whence ImportContext) (SearchResult, error) {
	return f(path, whence)
}

// CompositeResolver chains several resolvers together, trying each in turn
// until one succeeds. If they all fail, the error from the first one in the
// list wins; an empty chain always reports protoregistry.NotFound.
type CompositeResolver []Resolver

var _ Resolver = CompositeResolver(nil)

func (f CompositeResolver) FindFileByPath(path UnresolvedPath, whence ImportContext) (SearchResult, error) {
	if len(f) == 0 {
		return SearchResult{}, protoregistry.NotFound
	}
	var firstErr error
	for _, res := range f {
		r, err := res.FindFileByPath(path, whence)
		if err == nil {
			return r, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return SearchResult{}, firstErr
}

// SourceResolver resolves paths to source code, searching a list of import
// roots (or the working directory, if none are given) before handing the
// bytes to the compiler.
type SourceResolver struct {
	// Roots to search a requested path against, in order. Every path to
	// resolve is treated as relative to one of these. Left empty, paths
	// are resolved relative to the current working directory instead.
	ImportPaths []string
	// How to read a resolved path's contents. Defaults to os.Open against
	// the file system when left nil.
	//
	// A single compile may call this concurrently from several goroutines,
	// so it must tolerate concurrent use.
	Accessor func(path ResolvedPath) (io.ReadCloser, error)
}

var _ Resolver = (*SourceResolver)(nil)

func (r *SourceResolver) FindFileByPath(path UnresolvedPath, _ ImportContext) (SearchResult, error) {
	if len(r.ImportPaths) == 0 {
		reader, err := r.accessFile(ResolvedPath(path))
		if err != nil {
			return SearchResult{}, err
		}
		return SearchResult{
			ResolvedPath: ResolvedPath(path),
			Source:       reader,
		}, nil
	}

	var e error
	for _, importPath := range r.ImportPaths {
		// is the file fully-qualified with respect to the import path?
		if strings.HasPrefix(string(path), importPath) {
			reader, err := r.accessFile(ResolvedPath(path))
			if err == nil {
				return SearchResult{
					ResolvedPath: ResolvedPath(path),
					Source:       reader,
				}, nil
			}
		}
		resolved := ResolvedPath(filepath.Join(importPath, string(path)))
		reader, err := r.accessFile(resolved)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				e = err
				continue
			}
			return SearchResult{}, err
		}
		rel, err := filepath.Rel(importPath, string(resolved))
		if err != nil {
			return SearchResult{}, err
		}
		return SearchResult{
			ResolvedPath: ResolvedPath(rel),
			Source:       reader,
		}, nil
	}
	return SearchResult{}, e
}

func (r *SourceResolver) accessFile(path ResolvedPath) (io.ReadCloser, error) {
	if r.Accessor != nil {
		return r.Accessor(path)
	}
	return os.Open(string(path))
}

// SourceAccessorFromMap builds a SourceResolver.Accessor backed by an
// in-memory map of file name to file contents, which is handy for tests and
// embedded proto sets.
//
// The map is captured by reference, not copied, so once it's handed off to
// a compile it must not be mutated — accessors are required to be safe for
// concurrent reads, which an in-flight mutation would violate.
func SourceAccessorFromMap(srcs map[string]string) func(ResolvedPath) (io.ReadCloser, error) {
	return func(path ResolvedPath) (io.ReadCloser, error) {
		src, ok := srcs[string(path)]
		if !ok {
			return nil, os.ErrNotExist
		}
		return io.NopCloser(strings.NewReader(src)), nil
	}
}

// WithStandardImports returns a new resolver that falls back to the
// well-known proto files bundled with the google.golang.org/protobuf
// runtime (google/protobuf/descriptor.proto, any.proto, timestamp.proto,
// and so on) whenever r can't resolve a path itself. This lets a caller's
// Resolver omit those files entirely, the same way protoc bundles them.
func WithStandardImports(r Resolver) Resolver {
	return ResolverFunc(func(name UnresolvedPath, whence ImportContext) (SearchResult, error) {
		res, err := r.FindFileByPath(name, whence)
		if err != nil {
			if fd, ferr := protoregistry.GlobalFiles.FindFileByPath(string(name)); ferr == nil {
				return SearchResult{
					ResolvedPath: ResolvedPath(name),
					Proto:        protodesc.ToFileDescriptorProto(fd),
				}, nil
			}
		}
		return res, err
	})
}
