package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_IsConnected(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{StateDisconnected, false},
		{"", false},
		{StateConnected, true},
		{StateSimulating, true},
		{StatePaused, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.IsConnected())
		})
	}
}

func TestParts_EqualWithoutLights(t *testing.T) {
	a := Parts{GearDown: true, FlapsPercent: 50, Lights: Lights{Nav: true}}
	b := a
	b.Lights = Lights{Landing: true}
	assert.True(t, a.EqualWithoutLights(b))

	b.FlapsPercent = 25
	assert.False(t, a.EqualWithoutLights(b))
}

func TestSituation_IsNull(t *testing.T) {
	assert.True(t, Situation{}.IsNull())
	assert.False(t, Situation{Latitude: 50.1}.IsNull())
}
