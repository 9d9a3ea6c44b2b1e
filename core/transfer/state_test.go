package transfer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_CanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StatePending, StateUploading, true},
		{StateUploading, StateStored, true},
		{StateUploading, StateFailed, true},
		{StateStored, StateDownloading, true},
		{StateDownloading, StateVerified, true},
		{StateDownloading, StateFailed, true},
		{StatePending, StateStored, false},
		{StateStored, StateFailed, false},
		{StateVerified, StateDownloading, false},
		{StateFailed, StateUploading, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestState_Terminal(t *testing.T) {
	assert.True(t, StateVerified.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateStored.Terminal())
	assert.False(t, StatePending.Terminal())
}

func TestTransfer_Lifecycle(t *testing.T) {
	meta := Metadata{ContentType: "img/png", ContentLength: 12}
	tr := NewTransfer("test-bucket", "img01.png", meta)
	assert.Equal(t, StatePending, tr.State)

	name, ok := SourceFilename(tr.Key)
	require.True(t, ok)
	assert.Equal(t, "img01.png", name)

	require.NoError(t, tr.Advance(StateUploading))
	require.NoError(t, tr.Advance(StateStored))
	require.NoError(t, tr.Advance(StateDownloading))
	require.NoError(t, tr.Fail(errors.New("content mismatch")))
	assert.Equal(t, StateFailed, tr.State)
	assert.Equal(t, "content mismatch", tr.Reason)

	err := tr.Advance(StateVerified)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StateFailed, tr.State)
}

func TestTransfer_FailFromPending(t *testing.T) {
	tr := NewTransfer("test-bucket", "x", Metadata{ContentType: "text/plain"})
	assert.ErrorIs(t, tr.Fail(errors.New("boom")), ErrInvalidTransition)
	assert.Equal(t, StatePending, tr.State)
}
