//nolint:varnamelen // Test files use idiomatic short variable names (t, g, etc.)
package fileops

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers
)

func TestBufferSize_Is64KB(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(BufferSize).Should(Equal(64 * 1024))
}

func TestCopyLoop(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	content := []byte("test content for copy loop")

	var dst bytes.Buffer

	var lastReported int64

	written, err := copyLoop(bytes.NewReader(content), &dst, int64(len(content)), "src", func(n, total int64, path string) {
		lastReported = n
		g.Expect(total).To(Equal(int64(len(content))))
		g.Expect(path).To(Equal("src"))
	})
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(written).To(Equal(int64(len(content))))
	g.Expect(lastReported).To(Equal(written))
	g.Expect(dst.Bytes()).To(Equal(content))
}

func TestCopyLoop_ReadError(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	boom := errors.New("boom")

	_, err := copyLoop(iotest.ErrReader(boom), io.Discard, 0, "src", nil)
	g.Expect(err).To(MatchError(boom))
}

// shortWriter accepts one byte less than it is given.
type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	return len(p) - 1, nil
}

func TestCopyLoop_ShortWrite(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, err := copyLoop(strings.NewReader("abc"), shortWriter{}, 3, "src", nil)
	g.Expect(errors.Is(err, io.ErrShortWrite)).To(BeTrue())
}

func TestCompareFileContents_HandlesShortReads(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	body := strings.Repeat("x", BufferSize*2+17)

	same, err := compareFileContents(iotest.OneByteReader(strings.NewReader(body)), strings.NewReader(body))
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(same).To(BeTrue())

	same, err = compareFileContents(strings.NewReader(body), strings.NewReader(body[:len(body)-1]+"y"))
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(same).To(BeFalse())
}

func TestCompareByteBuffers(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(compareByteBuffers([]byte("abcd"), []byte("abcx"), 3)).To(BeTrue())
	g.Expect(compareByteBuffers([]byte("abcd"), []byte("abcx"), 4)).To(BeFalse())
}
