package handler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
	}{
		{`42`, 42},
		{` "42" `, 42},
		{`"  7 "`, 7},
		{`4.5`, 0},
		{`"abc"`, 0},
		{`null`, 0},
		{`true`, 0},
		{`{"id": 1}`, 0},
		{``, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseID(json.RawMessage(tt.raw)), tt.raw)
	}
}
