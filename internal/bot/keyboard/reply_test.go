package keyboard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailstore-bot/internal/bot/keyboard"
)

func TestMainMenu(t *testing.T) {
	markup := keyboard.MainMenu(false)

	require.True(t, markup.ResizeKeyboard)

	expectedRows := [][]string{
		{keyboard.ButtonGetMail, keyboard.ButtonInbox},
		{keyboard.ButtonBalance, keyboard.ButtonDeposit},
		{keyboard.ButtonSupport, keyboard.ButtonTutorial},
	}

	require.Len(t, markup.ReplyKeyboard, len(expectedRows))
	for i, row := range expectedRows {
		require.Len(t, markup.ReplyKeyboard[i], len(row))
		for j, text := range row {
			assert.Equal(t, text, markup.ReplyKeyboard[i][j].Text)
		}
	}
}

func TestMainMenuAdmin(t *testing.T) {
	markup := keyboard.MainMenu(true)

	require.Len(t, markup.ReplyKeyboard, 4)
	assert.Equal(t, keyboard.ButtonAdminPanel, markup.ReplyKeyboard[0][0].Text)
}
