package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// The client branches on these raw integers; renumbering any of them is a
// wire break.
func TestEnumWireValues(t *testing.T) {
	assert.Equal(t, 1, int(DifficultyNormal))
	assert.Equal(t, 2, int(DifficultyHard))

	assert.Equal(t, 1, int(JoinOk))
	assert.Equal(t, 2, int(JoinRoomFull))
	assert.Equal(t, 3, int(JoinDisbanded))
	assert.Equal(t, 4, int(JoinOtherError))

	assert.Equal(t, 1, int(StatusWaiting))
	assert.Equal(t, 2, int(StatusLiveStart))
	assert.Equal(t, 3, int(StatusDissolution))
}

func TestDifficultyValid(t *testing.T) {
	assert.True(t, DifficultyNormal.Valid())
	assert.True(t, DifficultyHard.Valid())
	assert.False(t, LiveDifficulty(0).Valid())
	assert.False(t, LiveDifficulty(3).Valid())
}
