package interactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMenuChoices(t *testing.T) {
	t.Parallel()

	called := false
	choices, optionMap := MenuChoices([]MenuOption{
		{Name: "Run suite", Description: "Pick a suite to run", Action: func() error {
			called = true
			return nil
		}},
	})

	assert.Equal(t, []string{"Run suite - Pick a suite to run", "Exit"}, choices)

	opt, ok := optionMap[choices[0]]
	require.True(t, ok)
	require.NoError(t, opt.Action())
	assert.True(t, called)

	_, ok = optionMap["Exit"]
	assert.False(t, ok)
}

func TestSelect_NoOptions(t *testing.T) {
	t.Parallel()

	_, err := Select("Pick", nil)
	require.ErrorIs(t, err, ErrNoOptions)
}
