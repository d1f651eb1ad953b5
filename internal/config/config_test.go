//nolint:varnamelen // Test files use idiomatic short variable names (t, tt, etc.)
package config_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/psync/internal/config"
)

func TestCompareModeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cm       config.CompareMode
		expected string
	}{
		{config.CompareContent, "content"},
		{config.CompareHash, "hash"},
		{config.CompareMode(999), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.cm.String(); got != tt.expected {
			t.Errorf("CompareMode(%d).String() = %q, want %q", tt.cm, got, tt.expected)
		}
	}
}

func TestParseCompareMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected config.CompareMode
		wantErr  bool
	}{
		{"content", config.CompareContent, false},
		{"CONTENT", config.CompareContent, false},
		{"bytes", config.CompareContent, false},
		{"hash", config.CompareHash, false},
		{"xxhash", config.CompareHash, false},
		{"md5", config.CompareContent, true},
		{"", config.CompareContent, true},
	}

	for _, tt := range tests {
		got, err := config.ParseCompareMode(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCompareMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}

		if !tt.wantErr && got != tt.expected {
			t.Errorf("ParseCompareMode(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestCompareModeTextRoundTrip(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	var cm config.CompareMode

	g.Expect(cm.UnmarshalText([]byte("hash"))).Should(Succeed())
	g.Expect(cm).Should(Equal(config.CompareHash))

	text, err := cm.MarshalText()
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(string(text)).Should(Equal("hash"))

	g.Expect(cm.UnmarshalText([]byte("nope"))).Should(MatchError(config.ErrInvalidCompareMode))
	g.Expect(cm).Should(Equal(config.CompareHash))
}

func TestConfigDescription(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}

	if cfg.Description() == "" {
		t.Error("Description() should not be empty")
	}
}

func TestConfigVersion(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}

	if cfg.Version() == "" {
		t.Error("Version() should not be empty")
	}
}

func TestPostProcessConfig_MissingDestinationBecomesRoot(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "new")

	cfg, err := config.PostProcessConfig(&config.Config{Source: src, Dest: dst, Threads: 4})
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(cfg.CopyRoot).Should(Equal(dst))
}

func TestPostProcessConfig_ExistingDestinationNestsSource(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	src := filepath.Join(t.TempDir(), "photos")
	g.Expect(os.Mkdir(src, 0o755)).Should(Succeed())

	dst := t.TempDir()

	cfg, err := config.PostProcessConfig(&config.Config{Source: src, Dest: dst, Threads: 1})
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(cfg.CopyRoot).Should(Equal(filepath.Join(dst, "photos")))
}

func TestPostProcessConfig_NestedRootNeedsSync(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	src := filepath.Join(t.TempDir(), "photos")
	g.Expect(os.Mkdir(src, 0o755)).Should(Succeed())

	dst := t.TempDir()
	g.Expect(os.Mkdir(filepath.Join(dst, "photos"), 0o755)).Should(Succeed())

	_, err := config.PostProcessConfig(&config.Config{Source: src, Dest: dst, Threads: 1})
	g.Expect(err).Should(MatchError(config.ErrDestinationExists))

	cfg, err := config.PostProcessConfig(&config.Config{Source: src, Dest: dst, Threads: 1, Sync: true})
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(cfg.CopyRoot).Should(Equal(filepath.Join(dst, "photos")))
}

func TestPostProcessConfig_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "file")

	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := filepath.Join(dir, "src")
	if err := os.Mkdir(src, 0o755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		cfg     config.Config
		wantErr error
	}{
		{
			name:    "zero threads",
			cfg:     config.Config{Source: src, Dest: filepath.Join(dir, "out"), Threads: 0},
			wantErr: config.ErrNoThreads,
		},
		{
			name:    "missing source",
			cfg:     config.Config{Source: filepath.Join(dir, "nope"), Dest: filepath.Join(dir, "out"), Threads: 1},
			wantErr: config.ErrSourceMissing,
		},
		{
			name:    "source is a file",
			cfg:     config.Config{Source: file, Dest: filepath.Join(dir, "out"), Threads: 1},
			wantErr: config.ErrSourceNotDir,
		},
		{
			name:    "destination is a file",
			cfg:     config.Config{Source: src, Dest: file, Threads: 1},
			wantErr: config.ErrDestinationNotDir,
		},
		{
			name:    "destination inside source",
			cfg:     config.Config{Source: src, Dest: filepath.Join(src, "backup"), Threads: 1},
			wantErr: config.ErrDestinationInsideSource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			cfg, err := config.PostProcessConfig(&tt.cfg)
			g.Expect(err).Should(MatchError(tt.wantErr))
			g.Expect(cfg).Should(BeNil())
		})
	}
}

func TestValidatePaths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{
			name:    "missing source path",
			cfg:     config.Config{Source: "", Dest: "/some/dest"},
			wantErr: true,
		},
		{
			name:    "missing dest path",
			cfg:     config.Config{Source: "/some/source", Dest: ""},
			wantErr: true,
		},
		{
			name:    "existing source directory",
			cfg:     config.Config{Source: os.TempDir(), Dest: "/some/dest"},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.cfg.ValidatePaths()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePaths() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParse_Flags(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")

	cfg, err := config.Parse([]string{
		"-t", "8", "--stats", "--sync", "-x", "*.tmp", "--exclude", "cache/**",
		"--compare", "hash", "-v", "2", src, dst,
	})
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(cfg.Threads).Should(Equal(uint8(8)))
	g.Expect(cfg.Stats).Should(BeTrue())
	g.Expect(cfg.Sync).Should(BeTrue())
	g.Expect(cfg.Excludes).Should(Equal([]string{"*.tmp", "cache/**"}))
	g.Expect(cfg.Compare).Should(Equal(config.CompareHash))
	g.Expect(cfg.Verbose).Should(Equal(2))
	g.Expect(cfg.CopyRoot).Should(Equal(dst))
}

func TestParse_Defaults(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	cfg, err := config.Parse([]string{t.TempDir(), filepath.Join(t.TempDir(), "out")})
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(cfg.Threads).Should(Equal(uint8(1)))
	g.Expect(cfg.Stats).Should(BeFalse())
	g.Expect(cfg.Sync).Should(BeFalse())
	g.Expect(cfg.Compare).Should(Equal(config.CompareContent))
	g.Expect(cfg.Excludes).Should(BeEmpty())
}

func TestParse_RejectsBadInput(t *testing.T) {
	t.Parallel()

	src := t.TempDir()

	tests := []struct {
		name string
		args []string
	}{
		{name: "missing positional", args: []string{src}},
		{name: "zero threads", args: []string{"-t", "0", src, filepath.Join(t.TempDir(), "out")}},
		{name: "threads overflow", args: []string{"-t", "300", src, filepath.Join(t.TempDir(), "out")}},
		{name: "unknown compare mode", args: []string{"--compare", "md5", src, filepath.Join(t.TempDir(), "out")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			_, err := config.Parse(tt.args)
			g.Expect(err).Should(HaveOccurred())
		})
	}
}
