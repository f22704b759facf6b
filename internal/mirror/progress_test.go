package mirror

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var progressLine = regexp.MustCompile(
	`^\S+: Total copied: (\d+), Total skipped: (\d+), Total listed: (\d+)$`,
)

func TestTrackerSnapshot(t *testing.T) {
	tr := NewTracker(&bytes.Buffer{})

	tr.AddListed(3)
	tr.AddCopied()
	tr.AddCopied()
	tr.AddSkipped()

	counts := tr.Snapshot()
	assert.Equal(t, int64(3), counts.Listed)
	assert.Equal(t, int64(2), counts.Copied)
	assert.Equal(t, int64(1), counts.Skipped)
}

func TestTrackerPrintsEveryThousandEvents(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTracker(&buf)

	for i := 0; i < 2500; i++ {
		if i%5 == 0 {
			tr.AddSkipped()
		} else {
			tr.AddCopied()
		}
	}

	lines := nonEmptyLines(buf.String())
	require.Len(t, lines, 2, "expected one line per 1000 combined events")

	var prevCombined int64 = -1
	for _, line := range lines {
		m := progressLine.FindStringSubmatch(line)
		require.NotNil(t, m, "unexpected progress line: %q", line)

		copied, _ := strconv.ParseInt(m[1], 10, 64)
		skipped, _ := strconv.ParseInt(m[2], 10, 64)
		combined := copied + skipped
		assert.Zero(t, combined%progressEvery)
		assert.Greater(t, combined, prevCombined, "counters must be monotonic across lines")
		prevCombined = combined
	}
}

func TestTrackerPrintLineFormat(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTracker(&buf)

	tr.AddListed(2)
	tr.AddCopied()
	tr.AddSkipped()
	tr.PrintLine()

	lines := nonEmptyLines(buf.String())
	require.Len(t, lines, 1)
	assert.Regexp(t, `: Total copied: 1, Total skipped: 1, Total listed: 2$`, lines[0])
}

func TestTrackerConcurrentIncrements(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTracker(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				tr.AddCopied()
			}
		}()
	}
	wg.Wait()

	counts := tr.Snapshot()
	assert.Equal(t, int64(4000), counts.Copied)

	// 4000 combined events -> exactly 4 progress lines, none interleaved.
	lines := nonEmptyLines(buf.String())
	assert.Len(t, lines, 4)
	for _, line := range lines {
		assert.Regexp(t, progressLine, line)
	}
}

func nonEmptyLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
