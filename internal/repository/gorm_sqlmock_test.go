package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shinyyama/storefront-rewards/internal/model"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestSpinConsumeWithoutAllowance(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `user_spin_allowances`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := NewSpinRepository(db).Consume(context.Background(), &SpinConsumption{
		UID:         "u1",
		RewardType:  model.RewardTypePoints,
		RewardValue: 10,
		Entry:       model.RewardTransaction{UID: "u1", Kind: model.TransactionKindSpinWin, Amount: 10},
	})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRedeemInsufficientBalance(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `user_reward_accounts`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := NewAccountRepository(db).Redeem(context.Background(), "u1", 500,
		&model.RewardTransaction{UID: "u1", Kind: model.TransactionKindRedemption, Amount: -500})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitPurchaseStaleVersion(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `reward_purchases`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE `user_reward_accounts`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := NewAccountRepository(db).CommitPurchase(context.Background(), &PurchaseCommit{
		Account:  model.UserRewardAccount{UID: "u1", Version: 4, TotalSpend: 1000, PurchaseCount: 1},
		Purchase: model.PurchaseRecord{UID: "u1", OrderRef: "o-1", Amount: 1000, PurchasedAt: time.Now()},
	})
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditRedeem(t *testing.T) {
	t.Run("unredeemed", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("UPDATE `reward_credits`").WillReturnResult(sqlmock.NewResult(0, 1))

		err := NewCreditRepository(db).Redeem(context.Background(), "u1", "c-1", time.Now())
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already redeemed", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("UPDATE `reward_credits`").WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewCreditRepository(db).Redeem(context.Background(), "u1", "c-1", time.Now())
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReferralCompleteWhenNotPending(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `referral_links`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	res, err := NewReferralRepository(db).Complete(context.Background(), &ReferralCompletion{
		LinkID:      7,
		ReferrerUID: "referrer",
		CompletedAt: time.Now(),
		MaxPaid:     10,
	})
	require.NoError(t, err)
	assert.False(t, res.Completed)
	assert.False(t, res.Paid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationListFiltersByType(t *testing.T) {
	db, mock := newMockDB(t)
	rows := sqlmock.NewRows([]string{"id", "user_uid", "type", "title"}).
		AddRow(3, "u1", "spin_win", "You won")
	mock.ExpectQuery("WHERE user_uid = \\? AND read_at IS NULL AND type IN \\(\\?,\\?\\) ORDER BY created_at DESC, id DESC LIMIT \\?").
		WillReturnRows(rows)

	list, err := NewNotificationRepository(db).ListByUser(context.Background(), "u1", NotificationFilter{
		UnreadOnly: true,
		Types:      []model.NotificationType{model.NotificationBadgeAwarded, model.NotificationSpinWin},
		Limit:      5,
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.NotificationSpinWin, list[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationCreateRejectsUnknownType(t *testing.T) {
	db, mock := newMockDB(t)

	err := NewNotificationRepository(db).Create(context.Background(), &model.Notification{UserUID: "u1", Type: "item_liked"})
	assert.ErrorIs(t, err, ErrUnknownNotificationType)
	assert.NoError(t, mock.ExpectationsWereMet())
}
