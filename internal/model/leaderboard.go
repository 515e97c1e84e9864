package model

type LeaderboardCategory string

const (
	LeaderboardSpending  LeaderboardCategory = "SPENDING"
	LeaderboardOrders    LeaderboardCategory = "ORDERS"
	LeaderboardReferrals LeaderboardCategory = "REFERRALS"
	LeaderboardPoints    LeaderboardCategory = "POINTS"
)

type LeaderboardPeriod string

const (
	PeriodWeekly  LeaderboardPeriod = "WEEKLY"
	PeriodMonthly LeaderboardPeriod = "MONTHLY"
	PeriodAllTime LeaderboardPeriod = "ALL_TIME"
)
