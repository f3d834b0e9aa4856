package keyboard

import (
	telebot "gopkg.in/telebot.v3"
)

// Main menu button labels. The router matches these texts exactly.
const (
	ButtonGetMail    = "📧 Get Mail"
	ButtonInbox      = "📥 Mail Inbox"
	ButtonBalance    = "💰 Balance"
	ButtonDeposit    = "💳 Deposit"
	ButtonSupport    = "🆘 Mail Bot Support"
	ButtonTutorial   = "📚 Tutorial"
	ButtonAdminPanel = "⚙️Admin Panel⚙️"
)

// MainMenu builds the persistent reply keyboard. The admin row is shown only
// to the administrator.
func MainMenu(isAdmin bool) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard:  true,
		OneTimeKeyboard: false,
	}

	rows := make([]telebot.Row, 0, 4)
	if isAdmin {
		rows = append(rows, markup.Row(markup.Text(ButtonAdminPanel)))
	}
	rows = append(rows,
		markup.Row(markup.Text(ButtonGetMail), markup.Text(ButtonInbox)),
		markup.Row(markup.Text(ButtonBalance), markup.Text(ButtonDeposit)),
		markup.Row(markup.Text(ButtonSupport), markup.Text(ButtonTutorial)),
	)

	markup.Reply(rows...)

	return markup
}
