package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/keep-runner/pkg/core"
	"github.com/devicelab-dev/keep-runner/pkg/driver/fake"
)

func TestOpen(t *testing.T) {
	d := fake.New(fake.Config{LoadPolls: 3})
	s := New(d, "https://keep.test/", core.Timeouts{PollInterval: time.Millisecond})

	require.NoError(t, s.Open(context.Background()))
	assert.Equal(t, core.ViewMain, s.View())
	assert.Equal(t, []string{"https://keep.test/"}, d.URLs())
}

func TestOpen_NoteTitledArchived(t *testing.T) {
	d := fake.New(fake.Config{Notes: []fake.Note{{Title: "Archived receipts"}}})
	s := New(d, "https://keep.test/", core.Timeouts{Navigation: 200 * time.Millisecond, PollInterval: time.Millisecond})

	require.NoError(t, s.Open(context.Background()))
	assert.Equal(t, core.ViewMain, s.View())
}

func TestOpen_DefaultsFilled(t *testing.T) {
	s := New(fake.New(fake.Config{}), "https://keep.test/", core.Timeouts{})
	assert.Equal(t, core.DefaultTimeouts(), s.Timeouts)
}

func TestOpen_ClosedDriver(t *testing.T) {
	d := fake.New(fake.Config{})
	_ = d.Close()
	s := New(d, "https://keep.test/", core.Timeouts{PollInterval: time.Millisecond})

	err := s.Open(context.Background())
	assert.True(t, errors.Is(err, core.ErrDriver))
	assert.True(t, errors.Is(err, fake.ErrClosed))
}

func TestOpen_PageNeverLoads(t *testing.T) {
	d := fake.New(fake.Config{LoadPolls: 1000000})
	s := New(d, "https://keep.test/", core.Timeouts{PageLoad: 20 * time.Millisecond, PollInterval: time.Millisecond})

	err := s.Open(context.Background())
	assert.True(t, errors.Is(err, core.ErrTimedOut))
}

func TestScreenshot(t *testing.T) {
	s := New(fake.New(fake.Config{}), "https://keep.test/", core.Timeouts{})
	png, err := s.Screenshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, byte(0x89), png[0])
}
