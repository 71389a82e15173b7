package history

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewEntry(t *testing.T) {
	e := NewEntry(OpInstall, []string{"foo", "bar"})

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, OpInstall, e.Operation)
	assert.Equal(t, []string{"foo", "bar"}, e.Requested)
	assert.False(t, e.Success)
	assert.WithinDuration(t, time.Now(), e.Timestamp, time.Second)
}

func TestMarkSuccess(t *testing.T) {
	e := NewEntry(OpUpgrade, []string{"foo"})
	e.MarkSuccess(7, []string{"foo", "libfoo"}, nil, 250*time.Millisecond)

	assert.True(t, e.Success)
	assert.Equal(t, uint64(7), e.Generation)
	assert.Equal(t, []string{"foo", "libfoo"}, e.Installed)
	assert.Empty(t, e.Error)
}

func TestMarkFailed(t *testing.T) {
	e := NewEntry(OpRemove, []string{"foo"})
	e.MarkFailed(errors.New("still required by bar"))

	assert.False(t, e.Success)
	assert.Equal(t, "still required by bar", e.Error)
}

func TestSummary(t *testing.T) {
	e := NewEntry(OpInstall, []string{"foo"})
	e.MarkSuccess(1, []string{"foo"}, nil, 0)
	assert.Contains(t, e.Summary(), "install foo (success)")

	e.MarkFailed(errors.New("boom"))
	assert.Contains(t, e.Summary(), "(failed)")
}

func TestSummaryWithoutTargets(t *testing.T) {
	e := NewEntry(OpUpdate, nil)
	e.MarkSuccess(3, []string{"foo", "bar"}, []string{"old"}, 0)

	assert.Contains(t, e.Summary(), "2 installed, 1 removed")
}
