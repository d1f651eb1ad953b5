package tui_test

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // Dot import is idiomatic for Ginkgo
	. "github.com/onsi/gomega"    //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/psync/internal/syncengine"
	"github.com/joe/psync/internal/tui"
)

var _ = Describe("StatsModel", func() {
	var (
		model     tui.StatsModel
		cancelled int
	)

	update := func(msg tea.Msg) tea.Cmd {
		next, cmd := model.Update(msg)
		model = next.(tui.StatsModel)

		return cmd
	}

	BeforeEach(func() {
		cancelled = 0
		model = tui.NewStatsModel(tui.NewEventBridge(), func() { cancelled++ })
	})

	Describe("Initial state", func() {
		It("is not done", func() {
			Expect(model.Done()).To(BeFalse())
			Expect(model.Result()).To(BeNil())
		})

		It("renders an empty progress line", func() {
			Expect(model.View()).To(ContainSubstring("Copying"))
			Expect(model.View()).To(ContainSubstring("Copied 0 B in 0.0s"))
		})

		It("returns startup commands", func() {
			Expect(model.Init()).NotTo(BeNil())
		})
	})

	Describe("Engine events", func() {
		It("shows the paths and worker count once started", func() {
			cmd := update(tui.EngineEventMsg{Event: syncengine.SyncStarted{Source: "/src", Destination: "/dst", Workers: 4}})

			Expect(cmd).NotTo(BeNil())
			Expect(model.View()).To(ContainSubstring("/src → /dst (4 workers)"))
		})

		It("counts completed units", func() {
			update(tui.EngineEventMsg{Event: syncengine.SyncFileComplete{Path: "/dst/a", Bytes: 1500}})
			update(tui.EngineEventMsg{Event: syncengine.SyncFileComplete{Path: "/dst/b", Bytes: 500}})

			Expect(model.View()).To(ContainSubstring("Copied 2.0 kB"))
			Expect(model.View()).To(ContainSubstring("(2 files)"))
		})

		It("takes totals from progress events", func() {
			update(tui.EngineEventMsg{Event: syncengine.SyncFileComplete{Bytes: 1}})
			update(tui.EngineEventMsg{Event: syncengine.SyncProgress{FilesDone: 1234, BytesCopied: 2_000_000, Elapsed: 2 * time.Second}})

			Expect(model.View()).To(ContainSubstring("Copied 2.0 MB in 2.0s = 1.0 MB/s (1,234 files)"))
		})

		It("quits with a summary when the run succeeds", func() {
			result := &syncengine.RunResult{FilesCopied: 2, SymlinksCreated: 1, BytesCopied: 10, Elapsed: time.Second}

			cmd := update(tui.EngineEventMsg{Event: syncengine.SyncComplete{Result: result}})

			Expect(model.Done()).To(BeTrue())
			Expect(model.Result()).To(Equal(result))
			Expect(cmd()).To(Equal(tea.QuitMsg{}))
			Expect(model.View()).To(ContainSubstring("Sync complete"))
			Expect(model.View()).To(ContainSubstring("2 copied, 1 linked, 0 replaced, 0 skipped"))
		})

		It("quits with the error when the run fails", func() {
			cmd := update(tui.EngineEventMsg{Event: syncengine.SyncComplete{Err: errors.New("disk on fire")}})

			Expect(model.Done()).To(BeTrue())
			Expect(model.Err()).To(MatchError("disk on fire"))
			Expect(cmd()).To(Equal(tea.QuitMsg{}))
			Expect(model.View()).To(ContainSubstring("Sync failed"))
			Expect(model.View()).To(ContainSubstring("disk on fire"))
		})
	})

	Describe("Elapsed time", func() {
		It("advances on ticks after the run started", func() {
			start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			model = model.StartedAt(start)

			cmd := update(tui.TickMsg(start.Add(3 * time.Second)))

			Expect(cmd).NotTo(BeNil())
			Expect(model.View()).To(ContainSubstring("in 3.0s"))
		})

		It("stops ticking once done", func() {
			update(tui.EngineEventMsg{Event: syncengine.SyncComplete{Result: &syncengine.RunResult{}}})

			Expect(update(tui.TickMsg(time.Now()))).To(BeNil())
		})
	})

	Describe("Interrupts", func() {
		It("cancels the run on the first ctrl+c and keeps waiting", func() {
			cmd := update(tea.KeyMsg{Type: tea.KeyCtrlC})

			Expect(cmd).To(BeNil())
			Expect(cancelled).To(Equal(1))
			Expect(model.View()).To(ContainSubstring("Stopping"))
		})

		It("quits on the second ctrl+c", func() {
			update(tea.KeyMsg{Type: tea.KeyCtrlC})
			cmd := update(tea.KeyMsg{Type: tea.KeyCtrlC})

			Expect(cancelled).To(Equal(1))
			Expect(cmd()).To(Equal(tea.QuitMsg{}))
		})

		It("ignores other keys", func() {
			cmd := update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})

			Expect(cmd).To(BeNil())
			Expect(cancelled).To(BeZero())
		})
	})
})
