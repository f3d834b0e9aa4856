package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailstore-bot/internal/domain"
	apperrors "mailstore-bot/internal/errors"
	"mailstore-bot/internal/repository"
	"mailstore-bot/pkg/config"
)

type stubLedger struct {
	purchaseErr  error
	settleErr    error
	credentials  []string
	settled      *domain.Deposit
	gotService   string
	gotQuantity  int
	gotTotal     int64
	gotDepositID int64
	gotApprove   bool
}

func (s *stubLedger) PurchaseTx(ctx context.Context, userID int64, service string, quantity int, totalPrice int64) ([]string, error) {
	s.gotService = service
	s.gotQuantity = quantity
	s.gotTotal = totalPrice
	if s.purchaseErr != nil {
		return nil, s.purchaseErr
	}
	return s.credentials, nil
}

func (s *stubLedger) SettleTx(ctx context.Context, depositID int64, approve bool) (*domain.Deposit, error) {
	s.gotDepositID = depositID
	s.gotApprove = approve
	if s.settleErr != nil {
		return nil, s.settleErr
	}
	return s.settled, nil
}

type recordingNotifier struct {
	userID int64
	text   string
	err    error
}

func (n *recordingNotifier) Notify(ctx context.Context, userID int64, text string) error {
	n.userID = userID
	n.text = text
	return n.err
}

var testStore = config.StoreConfig{
	Catalog: map[string]int64{
		"Gmail (6-12 Hours)":    400,
		"Hotmail (6-12 Months)": 150,
		"Outlook (6-12 Months)": 150,
	},
}

func TestPurchaseStock(t *testing.T) {
	stub := &stubLedger{credentials: []string{"a@gmail.com:pw1", "b@gmail.com:pw2"}}
	engine := NewEngine(stub, testStore, nil, nil)

	purchase, err := engine.PurchaseStock(context.Background(), 10, "Gmail (6-12 Hours)", 2)
	require.NoError(t, err)

	assert.Equal(t, "Gmail (6-12 Hours)", purchase.Service)
	assert.Equal(t, 2, purchase.Quantity)
	assert.Equal(t, int64(400), purchase.UnitPrice)
	assert.Equal(t, int64(800), purchase.TotalPrice)
	assert.Equal(t, stub.credentials, purchase.Credentials)
	assert.Equal(t, int64(800), stub.gotTotal)
}

func TestPurchaseStockRejectsBadQuantity(t *testing.T) {
	engine := NewEngine(&stubLedger{}, testStore, nil, nil)

	_, err := engine.PurchaseStock(context.Background(), 10, "Gmail (6-12 Hours)", 0)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)
}

func TestPurchaseStockUnknownService(t *testing.T) {
	engine := NewEngine(&stubLedger{}, testStore, nil, nil)

	_, err := engine.PurchaseStock(context.Background(), 10, "Yahoo", 1)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestPurchaseStockMapsRepositoryFailures(t *testing.T) {
	tests := []struct {
		name     string
		repoErr  error
		wantCode string
	}{
		{"stock", repository.ErrInsufficientStock, apperrors.CodeInsufficientStock},
		{"balance", repository.ErrInsufficientBalance, apperrors.CodeInsufficientBalance},
		{"other", errors.New("connection reset"), apperrors.CodeDatabase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine(&stubLedger{purchaseErr: tt.repoErr}, testStore, nil, nil)

			_, err := engine.PurchaseStock(context.Background(), 10, "Gmail (6-12 Hours)", 1)
			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantCode, appErr.Code)
		})
	}
}

func TestSettleDepositApprove(t *testing.T) {
	notifier := &recordingNotifier{}
	stub := &stubLedger{settled: &domain.Deposit{
		ID:     12,
		UserID: 77,
		Amount: 5000,
		Status: domain.DepositApproved,
	}}
	engine := NewEngine(stub, testStore, notifier, nil)

	deposit, err := engine.SettleDeposit(context.Background(), 12, DecisionApprove)
	require.NoError(t, err)

	assert.True(t, stub.gotApprove)
	assert.Equal(t, int64(12), stub.gotDepositID)
	assert.Equal(t, domain.DepositApproved, deposit.Status)
	assert.Equal(t, int64(77), notifier.userID)
	assert.Contains(t, notifier.text, "50.00 tk")
	assert.Contains(t, notifier.text, "approved")
}

func TestSettleDepositReject(t *testing.T) {
	notifier := &recordingNotifier{}
	stub := &stubLedger{settled: &domain.Deposit{
		ID:     13,
		UserID: 78,
		Amount: 5000,
		Status: domain.DepositRejected,
	}}
	engine := NewEngine(stub, testStore, notifier, nil)

	_, err := engine.SettleDeposit(context.Background(), 13, DecisionReject)
	require.NoError(t, err)

	assert.False(t, stub.gotApprove)
	assert.Contains(t, notifier.text, "rejected")
}

func TestSettleDepositAlreadyDecided(t *testing.T) {
	engine := NewEngine(&stubLedger{settleErr: repository.ErrDepositNotPending}, testStore, nil, nil)

	_, err := engine.SettleDeposit(context.Background(), 12, DecisionApprove)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestSettleDepositNotifierFailureIsSwallowed(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("blocked by user")}
	stub := &stubLedger{settled: &domain.Deposit{ID: 1, UserID: 2, Status: domain.DepositApproved}}
	engine := NewEngine(stub, testStore, notifier, nil)

	_, err := engine.SettleDeposit(context.Background(), 1, DecisionApprove)
	assert.NoError(t, err)
}
