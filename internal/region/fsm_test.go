package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTransition_AllowedEdges(t *testing.T) {
	cases := []struct {
		from, to State
	}{
		{StateNew, StateNormal},
		{StateNew, StateStandby},
		{StateNormal, StateSplitting},
		{StateNormal, StateDeleting},
		{StateSplitting, StateNormal},
		{StateDeleting, StateDeleted},
		{StateStandby, StateNormal},
		{StateOrphan, StateOrphan},
	}
	for _, c := range cases {
		assert.NoError(t, ValidateTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestValidateTransition_DisallowedEdges(t *testing.T) {
	cases := []struct {
		from, to State
	}{
		{StateNew, StateDeleted},
		{StateDeleted, StateNormal},
		{StateDeleting, StateNormal},
		{StateMerging, StateNormal},
	}
	for _, c := range cases {
		assert.Error(t, ValidateTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}
