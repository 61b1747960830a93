package dashboard

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/orgpulse/internal/contract"
	"github.com/huangsam/orgpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// scriptedScreen replays keys and records frames. A zero-timeout poll never
// sees a key, and quit is sent once the script runs out.
type scriptedScreen struct {
	bytes.Buffer
	keys    []Key
	polls   int
	timeout []time.Duration
}

func (s *scriptedScreen) PollKey(timeout time.Duration) (Key, bool) {
	s.polls++
	s.timeout = append(s.timeout, timeout)
	if timeout == 0 {
		return Key{}, false
	}
	if len(s.keys) == 0 {
		return RuneKey('q'), true
	}
	k := s.keys[0]
	s.keys = s.keys[1:]
	return k, true
}

func (s *scriptedScreen) Size() (int, int) { return 120, 40 }

func TestRun(t *testing.T) {
	s, _, _ := seedStore(t)
	d := newTestDashboard(t, s, nil)
	screen := &scriptedScreen{keys: []Key{RuneKey('r'), Key{Code: KeyDown}}}

	require.NoError(t, Run(context.Background(), d, screen))
	assert.True(t, d.Done())
	assert.Equal(t, RepoListView, d.View())
	assert.Equal(t, 1, d.Selected())

	// The queued view switch is processed without waiting for input
	assert.Contains(t, screen.timeout, time.Duration(0))
	assert.Greater(t, strings.Count(screen.String(), clearScreen), 1)
}

func TestRun_StopsOnContext(t *testing.T) {
	s, _, _ := seedStore(t)
	d := newTestDashboard(t, s, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	screen := &scriptedScreen{}
	require.NoError(t, Run(ctx, d, screen))
	assert.Zero(t, screen.polls)
}

// bufferedScreen hands out typed keys on any poll, like a terminal with
// input waiting, and sends quit once a blocking poll finds nothing.
type bufferedScreen struct {
	bytes.Buffer
	keys []Key
}

func (s *bufferedScreen) PollKey(timeout time.Duration) (Key, bool) {
	if len(s.keys) == 0 {
		if timeout == 0 {
			return Key{}, false
		}
		return RuneKey('q'), true
	}
	k := s.keys[0]
	s.keys = s.keys[1:]
	return k, true
}

func (s *bufferedScreen) Size() (int, int) { return 120, 40 }

func TestRun_DropsKeysTypedDuringCollection(t *testing.T) {
	s, _, _ := seedStore(t)
	screen := &bufferedScreen{keys: []Key{RuneKey('S')}}

	collector := &contract.MockCollector{}
	collector.On("Collect", mock.Anything).
		Run(func(mock.Arguments) {
			screen.keys = append(screen.keys, RuneKey('S'), RuneKey('S'), RuneKey('r'))
		}).
		Return(schema.CollectionResult{State: schema.RunSucceeded}, nil)

	d := newTestDashboard(t, s, collector)
	require.NoError(t, Run(context.Background(), d, screen))
	collector.AssertNumberOfCalls(t, "Collect", 1)
	assert.Equal(t, OrgListView, d.View())
	assert.Empty(t, screen.keys)
}
