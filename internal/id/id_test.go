package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for range count {
		id, err := NewEntryID()
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	tests := []struct {
		name string
		gen  func() (string, error)
		want string
	}{
		{"entry", NewEntryID, PrefixEntry},
		{"run", NewRunID, PrefixRun},
		{"custom", func() (string, error) { return Generate("custom") }, "custom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := tt.gen()
			require.NoError(t, err)

			require.True(t, strings.HasPrefix(id, tt.want+"-"))
			nanoidPart := strings.TrimPrefix(id, tt.want+"-")
			assert.Len(t, nanoidPart, 21)

			for _, char := range nanoidPart {
				assert.True(t,
					(char >= 'A' && char <= 'Z') ||
						(char >= 'a' && char <= 'z') ||
						(char >= '0' && char <= '9') ||
						char == '_' || char == '-',
					"Character %c should be URL-safe", char)
			}
		})
	}
}

func TestMustGenerate_Format(t *testing.T) {
	id := MustGenerate(PrefixRun)

	assert.True(t, strings.HasPrefix(id, "run-"))
	assert.Equal(t, len("run")+1+21, len(id))
}
