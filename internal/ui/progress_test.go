package ui

import (
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"durian/internal/driver"
)

func TestApplyEventTracksPackages(t *testing.T) {
	m := NewProgressModel("durian", []string{"example.com/a"}, nil).(*progressModel)

	m.applyEvent(driver.Event{Stage: driver.StageLoad, Status: driver.StatusWorking})
	assert.Equal(t, "loading", m.stageLabel)

	m.applyEvent(driver.Event{Package: "example.com/b", Stage: driver.StageGenerate, Status: driver.StatusQueued})
	require.Len(t, m.items, 2)

	m.applyEvent(driver.Event{Package: "example.com/a", Stage: driver.StageWrite, Status: driver.StatusWorking})
	assert.Equal(t, "writing", m.items[0].status)
	assert.InDelta(t, 0.4, m.percent(), 1e-9)

	m.applyEvent(driver.Event{Package: "example.com/a", Stage: driver.StageWrite, Status: driver.StatusCached})
	m.applyEvent(driver.Event{Package: "example.com/b", Stage: driver.StageGenerate, Status: driver.StatusError})
	assert.InDelta(t, 1.0, m.percent(), 1e-9)

	view := m.View()
	assert.Contains(t, view, "cached example.com/a")
	assert.Contains(t, view, "error example.com/b")
	assert.Contains(t, view, "durian (loading)")
}

func TestDoneQuits(t *testing.T) {
	m := NewProgressModel("durian", nil, nil)
	next, cmd := m.Update(doneMsg{})
	require.NotNil(t, cmd)
	assert.Contains(t, next.View(), "done: durian")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "example.com/...", truncate("example.com/very/long/path", 15))
	assert.Equal(t, "abc", truncate("abc", 0))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	assert.Equal(t, 15, runewidth.StringWidth(truncate("example.com/very/long/path", 15)))
	assert.Equal(t, "例え...", truncate("例えばパッケージ", 7))
}
