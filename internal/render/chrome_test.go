package render

import (
	"errors"
	"testing"

	"github.com/go-rod/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestChromeStrategySharesBrowserAcrossCalls(t *testing.T) {
	c := NewChromeStrategy("", zap.NewNop())
	launches := 0
	c.connect = func() (*rod.Browser, error) {
		launches++
		return rod.New(), nil
	}
	c.alive = func(*rod.Browser) bool { return true }
	c.shutdown = func(*rod.Browser) error { return nil }

	first, err := c.ensureBrowser()
	require.NoError(t, err)
	second, err := c.ensureBrowser()
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, launches)
}

func TestChromeStrategyRelaunchesDeadBrowser(t *testing.T) {
	c := NewChromeStrategy("", zap.NewNop())
	launches, closes := 0, 0
	c.connect = func() (*rod.Browser, error) {
		launches++
		return rod.New(), nil
	}
	c.alive = func(*rod.Browser) bool { return false }
	c.shutdown = func(*rod.Browser) error {
		closes++
		return nil
	}

	first, err := c.ensureBrowser()
	require.NoError(t, err)
	second, err := c.ensureBrowser()
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, 2, launches)
	assert.Equal(t, 1, closes, "the dead browser must be shut down before relaunch")
}

func TestChromeStrategyLaunchFailure(t *testing.T) {
	c := NewChromeStrategy("", zap.NewNop())
	c.connect = func() (*rod.Browser, error) {
		return nil, errors.New("no chrome on this host")
	}

	_, err := c.ensureBrowser()
	require.Error(t, err)

	// A failed launch leaves nothing behind for Close to tear down.
	require.NoError(t, c.Close())
}
