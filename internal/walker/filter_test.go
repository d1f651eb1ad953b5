//nolint:varnamelen // Test files use idiomatic short variable names (t, tt, etc.)
package walker_test

import (
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/psync/internal/walker"
)

func TestNewGlobFilter_InvalidPattern(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, err := walker.NewGlobFilter("[invalid")
	g.Expect(err).To(HaveOccurred())
}

func TestGlobFilterShouldInclude(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		patterns    []string
		path        string
		shouldMatch bool
	}{
		{"no patterns include all", nil, "any/file.txt", true},
		{"empty pattern ignored", []string{""}, "any/file.txt", true},
		{"extension at top level", []string{"*.tmp"}, "scratch.tmp", false},
		{"extension at depth via base name", []string{"*.tmp"}, "a/b/scratch.tmp", false},
		{"extension no match", []string{"*.tmp"}, "a/b/keep.txt", true},
		{"case sensitive", []string{"*.tmp"}, "SCRATCH.TMP", true},
		{"anchored directory", []string{"build"}, "build", false},
		{"anchored path does not match nested", []string{"a/build"}, "x/a/build", true},
		{"anchored path matches", []string{"a/build"}, "a/build", false},
		{"doublestar any depth", []string{"**/node_modules"}, "web/app/node_modules", false},
		{"second pattern matches", []string{"*.log", ".git"}, "repo/.git", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			filter, err := walker.NewGlobFilter(tt.patterns...)
			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(filter.ShouldInclude(tt.path)).To(Equal(tt.shouldMatch))
		})
	}
}
