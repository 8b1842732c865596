package matcher

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logsift/logsift/internal/catalog"
	"github.com/logsift/logsift/internal/config"
)

func batchTestMatcher(cfg config.MatcherConfig) *LogMatcher {
	m := NewWithConfig(cfg)
	m.AddTemplates([]catalog.Template{
		{TemplateID: 1, Pattern: `error: connection timeout after (\d+)ms`},
		{TemplateID: 2, Pattern: `info: (\w+) started`},
		{TemplateID: 3, Pattern: `user (\w+) logged in from (\S+)`},
		{TemplateID: 4, Pattern: `user (\w+) logged out`},
	})
	return m
}

func batchTestLines(n int) []string {
	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		switch i % 5 {
		case 0:
			lines = append(lines, fmt.Sprintf("error: connection timeout after %dms", i))
		case 1:
			lines = append(lines, fmt.Sprintf("info: worker%d started", i))
		case 2:
			lines = append(lines, fmt.Sprintf("user u%d logged in from 10.0.0.%d", i, i%250))
		case 3:
			lines = append(lines, fmt.Sprintf("user u%d logged out", i))
		default:
			lines = append(lines, fmt.Sprintf("unclassifiable noise %d", i))
		}
	}
	return lines
}

func TestMatchBatchEqualsSequentialMatchLog(t *testing.T) {
	m := batchTestMatcher(config.Default())
	lines := batchTestLines(200)

	results := m.MatchBatch(lines)
	require.Len(t, results, len(lines))

	for i, line := range lines {
		id, ok := m.MatchLog(line)
		assert.Equal(t, ok, results[i].Matched, "line %d", i)
		assert.Equal(t, id, results[i].TemplateID, "line %d", i)
	}
}

func TestMatchBatchParallelEqualsMatchBatch(t *testing.T) {
	// A small chunk size forces the parallel path to fan out
	m := batchTestMatcher(config.Default().WithBatchSize(16))
	lines := batchTestLines(500)

	sequential := m.MatchBatch(lines)
	parallel := m.MatchBatchParallel(lines)

	assert.Equal(t, sequential, parallel)
}

func TestMatchBatchParallelSmallInputFallsBackToSequential(t *testing.T) {
	m := batchTestMatcher(config.Default())
	lines := batchTestLines(10)

	results := m.MatchBatchParallel(lines)
	require.Len(t, results, len(lines))
	assert.Equal(t, m.MatchBatch(lines), results)
}

func TestMatchBatchEmptyInput(t *testing.T) {
	m := batchTestMatcher(config.Default())
	assert.Empty(t, m.MatchBatch(nil))
	assert.Empty(t, m.MatchBatchParallel(nil))
}

func TestMatchBatchOrderingIsPositional(t *testing.T) {
	m := batchTestMatcher(config.Default().WithBatchSize(4))
	lines := []string{
		"user amy logged out",
		"garbage",
		"info: api started",
		"error: connection timeout after 9ms",
		"user bob logged in from 10.1.1.1",
		"more garbage",
	}

	results := m.MatchBatchParallel(lines)
	require.Len(t, results, 6)
	assert.Equal(t, Match{TemplateID: 4, Matched: true}, results[0])
	assert.Equal(t, Match{Matched: false}, results[1])
	assert.Equal(t, Match{TemplateID: 2, Matched: true}, results[2])
	assert.Equal(t, Match{TemplateID: 1, Matched: true}, results[3])
	assert.Equal(t, Match{TemplateID: 3, Matched: true}, results[4])
	assert.Equal(t, Match{Matched: false}, results[5])
}

func TestConcurrentMatchingWhileAdding(t *testing.T) {
	m := batchTestMatcher(config.Default().WithBatchSize(32))
	lines := batchTestLines(300)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			m.AddTemplate(catalog.Template{Pattern: fmt.Sprintf(`rolling update %d (\d+)`, i)})
		}
	}()

	// Matching proceeds against whichever snapshot each batch loaded; the
	// original templates are present in every snapshot, so their results
	// are stable throughout.
	for i := 0; i < 10; i++ {
		results := m.MatchBatchParallel(lines)
		for j, res := range results {
			switch j % 5 {
			case 0:
				assert.Equal(t, uint64(1), res.TemplateID)
			case 4:
				assert.False(t, res.Matched)
			}
		}
	}
	<-done
}
