package bot

// Command constants for Telegram bot commands.
const (
	CommandStart  = "/start"
	CommandCancel = "/cancel"

	// Admin-only commands.
	CommandUsers  = "/users"
	CommandAddBal = "/addbal"
	CommandSetBal = "/setbal"
	CommandDelBal = "/delbal"
)
