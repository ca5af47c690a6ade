// Package dialect turns diffs into DDL. Each platform with a generator
// registers it here under its platform name.
package dialect

import (
	"fmt"
	"slices"
	"sync"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/diff"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/migration"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/platform"
)

// Generator writes the statements of one platform.
type Generator interface {
	// CreateTable returns the CREATE TABLE statement followed by the
	// statements adding its foreign keys.
	CreateTable(t *core.Table) []string
	DropTable(name string) []string

	// AlterTable returns the plan turning td.Current into td.Desired.
	AlterTable(td *diff.TableDiff) *migration.Migration

	// Migration returns the plan for a whole schema diff.
	Migration(d *diff.SchemaDiff) *migration.Migration
}

// Factory builds a generator.
type Factory func() Generator

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

// Register adds a generator factory for a platform.
func Register(platformName string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[platform.Canonical(platformName)] = f
}

// New returns the generator registered for platformName.
func New(platformName string) (Generator, error) {
	mu.RLock()
	f, ok := registry[platform.Canonical(platformName)]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("dialect: no DDL generator for platform %q", platformName)
	}
	return f(), nil
}

// Names returns the platforms with a registered generator.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
