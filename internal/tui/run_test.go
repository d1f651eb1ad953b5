package tui_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/psync/internal/syncengine"
	"github.com/joe/psync/internal/tui"
)

func TestRun_CopiesTreeAndRendersSummary(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "copy")

	g.Expect(os.WriteFile(filepath.Join(src, "a.txt"), []byte("alpha"), 0o644)).Should(Succeed())
	g.Expect(os.Mkdir(filepath.Join(src, "sub"), 0o755)).Should(Succeed())
	g.Expect(os.WriteFile(filepath.Join(src, "sub", "b.txt"), []byte("beta"), 0o644)).Should(Succeed())

	engine := syncengine.NewEngine(src, dst)
	engine.Workers = 2

	var out bytes.Buffer

	result, err := tui.Run(context.Background(), engine,
		tea.WithInput(nil), tea.WithOutput(&out), tea.WithoutSignalHandler())

	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(result.FilesCopied).Should(Equal(2))
	g.Expect(os.ReadFile(filepath.Join(dst, "sub", "b.txt"))).Should(Equal([]byte("beta")))
	g.Expect(out.String()).Should(ContainSubstring("Sync complete"))
}

func TestRun_ReportsEngineFailure(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "file")
	g.Expect(os.WriteFile(dst, []byte("in the way"), 0o644)).Should(Succeed())

	engine := syncengine.NewEngine(src, dst)

	_, err := tui.Run(context.Background(), engine,
		tea.WithInput(nil), tea.WithOutput(&bytes.Buffer{}), tea.WithoutSignalHandler())

	g.Expect(err).Should(HaveOccurred())
}
