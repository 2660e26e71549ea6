// Package pathutils resolves configured directories and files.
package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	tildeSymbolConstant = "~"
)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// Resolver expands a leading tilde and anchors relative paths at a base directory.
type Resolver struct {
	homeDirectoryProvider HomeDirectoryProvider
	baseDirectory         string
	homeDirectory         string
	homeDirectoryError    error
	initializationGuard   sync.Once
}

// NewResolver constructs a resolver using the operating system home lookup.
// An empty baseDirectory leaves relative paths untouched.
func NewResolver(baseDirectory string) *Resolver {
	return NewResolverWithProvider(baseDirectory, os.UserHomeDir)
}

// NewResolverWithProvider constructs a resolver with a custom home provider.
func NewResolverWithProvider(baseDirectory string, provider HomeDirectoryProvider) *Resolver {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &Resolver{homeDirectoryProvider: provider, baseDirectory: strings.TrimSpace(baseDirectory)}
}

// Resolve returns the cleaned, expanded form of candidatePath. Blank input stays blank.
func (resolver *Resolver) Resolve(candidatePath string) string {
	trimmedPath := strings.TrimSpace(candidatePath)
	if resolver == nil || len(trimmedPath) == 0 {
		return trimmedPath
	}

	expandedPath := resolver.expandHome(trimmedPath)
	if !filepath.IsAbs(expandedPath) && len(resolver.baseDirectory) > 0 {
		expandedPath = filepath.Join(resolver.baseDirectory, expandedPath)
	}
	return filepath.Clean(expandedPath)
}

func (resolver *Resolver) expandHome(candidatePath string) string {
	if !strings.HasPrefix(candidatePath, tildeSymbolConstant) {
		return candidatePath
	}
	remainder := strings.TrimPrefix(candidatePath, tildeSymbolConstant)
	if len(remainder) > 0 && remainder[0] != '/' && remainder[0] != os.PathSeparator {
		return candidatePath
	}

	homeDirectory := resolver.resolveHomeDirectory()
	if len(homeDirectory) == 0 {
		return candidatePath
	}
	return filepath.Join(homeDirectory, remainder)
}

func (resolver *Resolver) resolveHomeDirectory() string {
	resolver.initializationGuard.Do(func() {
		resolver.homeDirectory, resolver.homeDirectoryError = resolver.homeDirectoryProvider()
	})
	if resolver.homeDirectoryError != nil {
		return ""
	}
	return resolver.homeDirectory
}
