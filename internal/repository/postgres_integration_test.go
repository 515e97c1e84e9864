package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/shinyyama/storefront-rewards/internal/db"
	"github.com/shinyyama/storefront-rewards/internal/model"
)

type PostgresLedgerSuite struct {
	suite.Suite
	ctx       context.Context
	container testcontainers.Container
	db        *gorm.DB
	repos     *Repositories
}

func (s *PostgresLedgerSuite) SetupSuite() {
	if testing.Short() {
		s.T().Skip("Skipping integration test")
	}
	s.ctx = context.Background()

	ctx, cancel := context.WithTimeout(s.ctx, 60*time.Second)
	defer cancel()
	container, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("docker.io/postgres:16-alpine"),
		tcpostgres.WithDatabase("rewards"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("example"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		s.T().Skipf("postgres container unavailable: %v", err)
	}
	s.container = container

	host, err := container.Host(ctx)
	require.NoError(s.T(), err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(s.T(), err)
	dsn := fmt.Sprintf("host=%s port=%s user=postgres password=example dbname=rewards sslmode=disable TimeZone=UTC", host, port.Port())

	gdb, err := db.Open(postgres.Open(dsn))
	require.NoError(s.T(), err)
	require.NoError(s.T(), db.Migrate(gdb))
	s.db = gdb
	s.repos = NewGormRepositories(gdb)
}

func (s *PostgresLedgerSuite) TearDownSuite() {
	if s.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(s.T(), s.container.Terminate(ctx))
}

func (s *PostgresLedgerSuite) TestConcurrentCommitsOnOneAccount() {
	uid := "pg-commit"
	base, err := s.repos.Accounts.Get(s.ctx, uid)
	s.Require().NoError(err)

	var wg sync.WaitGroup
	errs := make([]error, 6)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			next := *base
			next.TotalSpend = 100
			next.PurchaseCount = 1
			errs[i] = s.repos.Accounts.CommitPurchase(s.ctx, &PurchaseCommit{
				Account:  next,
				Purchase: model.PurchaseRecord{UID: uid, OrderRef: fmt.Sprintf("%s-%d", uid, i), Amount: 100, PurchasedAt: time.Now()},
			})
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(s.T(), err, ErrVersionConflict)
	}
	s.Equal(1, ok)

	n, err := s.repos.Purchases.CountByUser(s.ctx, uid)
	s.Require().NoError(err)
	s.Equal(int64(1), n)
}

func (s *PostgresLedgerSuite) TestDuplicateOrderRef() {
	uid := "pg-dup"
	commit := func() error {
		acc, err := s.repos.Accounts.Get(s.ctx, uid)
		s.Require().NoError(err)
		next := *acc
		next.PurchaseCount++
		return s.repos.Accounts.CommitPurchase(s.ctx, &PurchaseCommit{
			Account:  next,
			Purchase: model.PurchaseRecord{UID: uid, OrderRef: "pg-dup-order", Amount: 250, PurchasedAt: time.Now()},
		})
	}
	s.Require().NoError(commit())
	s.ErrorIs(commit(), gorm.ErrDuplicatedKey)
}

func (s *PostgresLedgerSuite) TestConcurrentBadgeAwards() {
	uid := "pg-badge"
	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.repos.Badges.Award(s.ctx,
				&model.UserBadgeAward{UID: uid, BadgeCode: "first_order", EarnedAt: time.Now()},
				50,
				&model.RewardTransaction{UID: uid, Kind: model.TransactionKindBadgeBonus, Amount: 50, CreatedAt: time.Now()})
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(s.T(), err, gorm.ErrDuplicatedKey)
	}
	s.Equal(1, ok)

	acc, err := s.repos.Accounts.Get(s.ctx, uid)
	s.Require().NoError(err)
	s.Equal(int64(50), acc.PointsEarned)
}

func (s *PostgresLedgerSuite) TestSpinConsumeNeverGoesNegative() {
	uid := "pg-spin"
	s.Require().NoError(s.repos.Spins.Grant(s.ctx, uid, 2))

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.repos.Spins.Consume(s.ctx, &SpinConsumption{
				UID:         uid,
				RewardType:  model.RewardTypePoints,
				RewardValue: 10,
				Entry:       model.RewardTransaction{UID: uid, Kind: model.TransactionKindSpinWin, Amount: 10, CreatedAt: time.Now()},
			})
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
		}
	}
	s.Equal(2, ok)

	sa, err := s.repos.Spins.Get(s.ctx, uid)
	s.Require().NoError(err)
	s.Equal(int64(0), sa.SpinsAvailable)
	s.Equal(int64(2), sa.TotalSpinsConsumed)
}

func (s *PostgresLedgerSuite) TestLeaderboardSpendingWindow() {
	from := time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	for i, p := range []struct {
		uid    string
		amount int64
	}{{"lb-a", 500}, {"lb-b", 300}, {"lb-c", 300}} {
		acc, err := s.repos.Accounts.Get(s.ctx, p.uid)
		s.Require().NoError(err)
		next := *acc
		next.TotalSpend += p.amount
		s.Require().NoError(s.repos.Accounts.CommitPurchase(s.ctx, &PurchaseCommit{
			Account:  next,
			Purchase: model.PurchaseRecord{UID: p.uid, OrderRef: fmt.Sprintf("lb-%d", i), Amount: p.amount, PurchasedAt: from.Add(time.Hour)},
		}))
	}

	scores, err := s.repos.Leaderboard.Scores(s.ctx, model.LeaderboardSpending, Window{From: &from, To: &to})
	s.Require().NoError(err)
	s.Equal([]Score{{"lb-a", 500}, {"lb-b", 300}, {"lb-c", 300}}, scores)
}

func TestPostgresLedgerSuite(t *testing.T) {
	suite.Run(t, new(PostgresLedgerSuite))
}
