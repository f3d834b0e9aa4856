package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"mailstore-bot/internal/domain"
	"mailstore-bot/internal/repository"
)

// NewBalanceAdjustHandler handles the /addbal, /setbal and /delbal commands.
// The command name only differs in the balance operation applied.
func NewBalanceAdjustHandler(users repository.UserRepository, op repository.BalanceOp, command string) Handler {
	usage := fmt.Sprintf("Usage: %s user_id amount", command)

	return func(c telebot.Context) error {
		parts := strings.Fields(c.Text())
		if len(parts) != 3 {
			return c.Send(usage)
		}

		userID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return c.Send(usage)
		}

		amount, err := domain.ParseAmount(parts[2])
		if err != nil {
			return c.Send(usage)
		}

		if err := users.AdjustBalance(context.Background(), userID, op, amount); err != nil {
			return err
		}

		user, err := users.FindByID(context.Background(), userID)
		if err != nil {
			return err
		}

		return c.Send(fmt.Sprintf("✅ Balance updated. User %d now has %s.", userID, domain.FormatAmount(user.Balance)))
	}
}

// NewUsersCountHandler handles the /users command.
func NewUsersCountHandler(users repository.UserRepository) Handler {
	return func(c telebot.Context) error {
		count, err := users.Count(context.Background())
		if err != nil {
			return err
		}

		return c.Send(fmt.Sprintf("Total users: %d", count))
	}
}
