package keyboard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailstore-bot/internal/bot/keyboard"
)

func TestInlineKeyboardBuilder(t *testing.T) {
	builder := keyboard.NewInlineKeyboard()
	builder.AddRow(
		keyboard.InlineButton{Text: "Prev", Unique: "nav", Data: "1"},
		keyboard.InlineButton{Text: "Next", Unique: "nav", Data: "2"},
	).AddRow(
		keyboard.InlineButton{Text: "Confirm", Unique: "confirm", Data: "ok"},
	)

	markup := builder.Build(func(unique, data string) string {
		if data == "" {
			return unique
		}
		return unique + ":" + data
	})

	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Len(t, markup.InlineKeyboard[0], 2)
	assert.Len(t, markup.InlineKeyboard[1], 1)
	assert.Equal(t, "nav:2", markup.InlineKeyboard[0][1].Data)
	assert.Equal(t, "Next", markup.InlineKeyboard[0][1].Text)
}

func TestInlineKeyboardBuilderDefaultEncoder(t *testing.T) {
	markup := keyboard.NewInlineKeyboard().
		AddRow(keyboard.InlineButton{Text: "Stats", Unique: "admin_stats"}).
		Build(nil)

	require.Len(t, markup.InlineKeyboard, 1)
	assert.Equal(t, "admin_stats", markup.InlineKeyboard[0][0].Data)
}
