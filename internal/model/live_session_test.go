package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionPredicates(t *testing.T) {
	scheduled := &LiveSession{Status: SessionStatusScheduled}
	live := &LiveSession{Status: SessionStatusLive}
	paused := &LiveSession{Status: SessionStatusPaused}
	ended := &LiveSession{Status: SessionStatusEnded}
	cancelled := &LiveSession{Status: SessionStatusCancelled}

	assert.True(t, scheduled.CanStart())
	assert.False(t, live.CanStart())

	assert.True(t, live.IsLive())
	assert.False(t, paused.IsLive())

	assert.False(t, scheduled.IsTerminal())
	assert.False(t, paused.IsTerminal())
	assert.True(t, ended.IsTerminal())
	assert.True(t, cancelled.IsTerminal())

	// Живое и завершённое не редактируются, отменённое — да
	assert.True(t, scheduled.CanEdit())
	assert.False(t, live.CanEdit())
	assert.True(t, paused.CanEdit())
	assert.False(t, ended.CanEdit())
	assert.True(t, cancelled.CanEdit())

	assert.True(t, scheduled.CanDelete())
	assert.False(t, live.CanDelete())
	assert.True(t, ended.CanDelete())
}

func TestCanTransitionTo(t *testing.T) {
	scheduled := &LiveSession{Status: SessionStatusScheduled}
	live := &LiveSession{Status: SessionStatusLive}
	paused := &LiveSession{Status: SessionStatusPaused}
	ended := &LiveSession{Status: SessionStatusEnded}

	assert.True(t, scheduled.CanTransitionTo(SessionStatusLive))
	assert.True(t, scheduled.CanTransitionTo(SessionStatusCancelled))
	assert.False(t, scheduled.CanTransitionTo(SessionStatusPaused))

	assert.True(t, live.CanTransitionTo(SessionStatusPaused))
	assert.True(t, live.CanTransitionTo(SessionStatusEnded))
	assert.False(t, live.CanTransitionTo(SessionStatusScheduled))

	assert.True(t, paused.CanTransitionTo(SessionStatusLive))
	assert.True(t, paused.CanTransitionTo(SessionStatusEnded))

	assert.False(t, ended.CanTransitionTo(SessionStatusLive))
	assert.False(t, ended.CanTransitionTo(SessionStatusCancelled))
}

func TestValidSessionStatus(t *testing.T) {
	assert.True(t, ValidSessionStatus("live"))
	assert.True(t, ValidSessionStatus("cancelled"))
	assert.False(t, ValidSessionStatus("archived"))
}
