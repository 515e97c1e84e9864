package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shinyyama/storefront-rewards/internal/model"
	"gorm.io/gorm"
)

// memoryState is the whole ledger held in process. One mutex covers every table so each
// method is a single atomic step, mirroring the database transactions of the gorm store.
type memoryState struct {
	mu sync.Mutex

	accounts      map[string]*model.UserRewardAccount
	purchases     []model.PurchaseRecord
	orderRefs     map[string]struct{}
	badgeDefs     map[string]model.BadgeDefinition
	awards        map[string]map[string]model.UserBadgeAward
	links         []*model.ReferralLink
	spins         map[string]*model.UserSpinAllowance
	credits       map[string]*model.RewardCredit
	transactions  []model.RewardTransaction
	notifications []*model.Notification
	nextID        uint64
}

// NewMemoryRepositories returns a ledger store that lives only as long as the process.
// It backs DB_DRIVER=memory and the service tests.
func NewMemoryRepositories() *Repositories {
	s := &memoryState{
		accounts:  map[string]*model.UserRewardAccount{},
		orderRefs: map[string]struct{}{},
		badgeDefs: map[string]model.BadgeDefinition{},
		awards:    map[string]map[string]model.UserBadgeAward{},
		spins:     map[string]*model.UserSpinAllowance{},
		credits:   map[string]*model.RewardCredit{},
	}
	return &Repositories{
		Accounts:      memAccounts{s},
		Purchases:     memPurchases{s},
		Badges:        memBadges{s},
		Referrals:     memReferrals{s},
		Spins:         memSpins{s},
		Credits:       memCredits{s},
		Transactions:  memTransactions{s},
		Leaderboard:   memLeaderboard{s},
		Notifications: memNotifications{s},
	}
}

func (s *memoryState) id() uint64 {
	s.nextID++
	return s.nextID
}

func (s *memoryState) appendTx(e model.RewardTransaction) {
	e.ID = s.id()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.transactions = append(s.transactions, e)
}

func (s *memoryState) account(uid string) *model.UserRewardAccount {
	acc, ok := s.accounts[uid]
	if !ok {
		now := time.Now().UTC()
		acc = &model.UserRewardAccount{UID: uid, Version: 1, CreatedAt: now, UpdatedAt: now}
		s.accounts[uid] = acc
	}
	return acc
}

func (s *memoryState) creditPoints(uid string, points int64) {
	acc := s.account(uid)
	acc.PointsEarned += points
	acc.Version++
}

func (s *memoryState) allowance(uid string) *model.UserSpinAllowance {
	sa, ok := s.spins[uid]
	if !ok {
		sa = &model.UserSpinAllowance{UID: uid, CreatedAt: time.Now().UTC()}
		s.spins[uid] = sa
	}
	return sa
}

type memAccounts struct{ s *memoryState }

func (m memAccounts) Get(ctx context.Context, uid string) (*model.UserRewardAccount, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if acc, ok := m.s.accounts[uid]; ok {
		cp := *acc
		return &cp, nil
	}
	return &model.UserRewardAccount{UID: uid}, nil
}

func (m memAccounts) CommitPurchase(ctx context.Context, c *PurchaseCommit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, dup := m.s.orderRefs[c.Purchase.OrderRef]; dup {
		return gorm.ErrDuplicatedKey
	}
	expected := c.Account.Version
	cur, exists := m.s.accounts[c.Account.UID]
	switch {
	case expected == 0 && exists:
		return ErrVersionConflict
	case expected != 0 && (!exists || cur.Version != expected):
		return ErrVersionConflict
	}

	next := c.Account
	next.Version = expected + 1
	next.UpdatedAt = time.Now().UTC()
	if exists {
		next.CreatedAt = cur.CreatedAt
		next.PointsRedeemed = cur.PointsRedeemed
	} else {
		next.CreatedAt = next.UpdatedAt
	}
	stored := next
	m.s.accounts[next.UID] = &stored

	c.Purchase.ID = m.s.id()
	m.s.purchases = append(m.s.purchases, c.Purchase)
	m.s.orderRefs[c.Purchase.OrderRef] = struct{}{}
	for _, e := range c.Entries {
		m.s.appendTx(e)
	}
	if c.GrantSpins > 0 {
		m.s.allowance(next.UID).SpinsAvailable += c.GrantSpins
	}
	c.Account = next
	return nil
}

func (m memAccounts) Redeem(ctx context.Context, uid string, points int64, entry *model.RewardTransaction) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	acc, ok := m.s.accounts[uid]
	if !ok || acc.PointsAvailable() < points {
		return gorm.ErrRecordNotFound
	}
	acc.PointsRedeemed += points
	acc.Version++
	m.s.appendTx(*entry)
	return nil
}

type memPurchases struct{ s *memoryState }

func (m memPurchases) CountByUser(ctx context.Context, uid string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for _, p := range m.s.purchases {
		if p.UID == uid {
			n++
		}
	}
	return n, nil
}

func (m memPurchases) PurchaseTimes(ctx context.Context, uid string, since time.Time) ([]time.Time, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var times []time.Time
	for _, p := range m.s.purchases {
		if p.UID == uid && !p.PurchasedAt.Before(since) {
			times = append(times, p.PurchasedAt)
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].After(times[j]) })
	return times, nil
}

func (m memPurchases) ListByUser(ctx context.Context, uid string, limit int) ([]model.PurchaseRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var list []model.PurchaseRecord
	for _, p := range m.s.purchases {
		if p.UID == uid {
			list = append(list, p)
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].PurchasedAt.After(list[j].PurchasedAt) })
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

type memBadges struct{ s *memoryState }

func (m memBadges) SyncDefinitions(ctx context.Context, defs []model.BadgeDefinition) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, d := range defs {
		m.s.badgeDefs[d.Code] = d
	}
	return nil
}

func (m memBadges) ListAwards(ctx context.Context, uid string) ([]model.UserBadgeAward, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	list := make([]model.UserBadgeAward, 0, len(m.s.awards[uid]))
	for _, a := range m.s.awards[uid] {
		list = append(list, a)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (m memBadges) Award(ctx context.Context, award *model.UserBadgeAward, bonus int64, entry *model.RewardTransaction) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	held := m.s.awards[award.UID]
	if held == nil {
		held = map[string]model.UserBadgeAward{}
		m.s.awards[award.UID] = held
	}
	if _, dup := held[award.BadgeCode]; dup {
		return gorm.ErrDuplicatedKey
	}
	award.ID = m.s.id()
	held[award.BadgeCode] = *award
	if bonus > 0 {
		m.s.creditPoints(award.UID, bonus)
	}
	if entry != nil {
		m.s.appendTx(*entry)
	}
	return nil
}

type memReferrals struct{ s *memoryState }

func (m memReferrals) Create(ctx context.Context, link *model.ReferralLink) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, l := range m.s.links {
		if l.RefereeUID == link.RefereeUID {
			return gorm.ErrDuplicatedKey
		}
	}
	link.ID = m.s.id()
	now := time.Now().UTC()
	link.CreatedAt, link.UpdatedAt = now, now
	cp := *link
	m.s.links = append(m.s.links, &cp)
	return nil
}

func (m memReferrals) FindPendingByReferee(ctx context.Context, refereeUID string) (*model.ReferralLink, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, l := range m.s.links {
		if l.RefereeUID == refereeUID && l.Status == model.ReferralStatusPending {
			cp := *l
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m memReferrals) CountCompletedByReferrer(ctx context.Context, referrerUID string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for _, l := range m.s.links {
		if l.ReferrerUID == referrerUID && l.Status == model.ReferralStatusCompleted {
			n++
		}
	}
	return n, nil
}

func (m memReferrals) Complete(ctx context.Context, c *ReferralCompletion) (*ReferralCompletionResult, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var link *model.ReferralLink
	for _, l := range m.s.links {
		if l.ID == c.LinkID {
			link = l
			break
		}
	}
	if link == nil || link.Status != model.ReferralStatusPending {
		return &ReferralCompletionResult{}, nil
	}
	at := c.CompletedAt
	link.Status = model.ReferralStatusCompleted
	link.CompletedAt = &at
	link.UpdatedAt = time.Now().UTC()
	m.s.account(c.ReferrerUID)

	var paid int
	for _, l := range m.s.links {
		if l.ReferrerUID == c.ReferrerUID && l.RewardPaid {
			paid++
		}
	}
	if paid >= c.MaxPaid {
		m.s.appendTx(c.CapEntry)
		return &ReferralCompletionResult{Completed: true}, nil
	}
	for _, cr := range c.Credits {
		cp := cr
		m.s.credits[cp.Code] = &cp
	}
	link.RewardPaid = true
	m.s.appendTx(c.PayoutEntry)
	return &ReferralCompletionResult{Completed: true, Paid: true}, nil
}

type memSpins struct{ s *memoryState }

func (m memSpins) Get(ctx context.Context, uid string) (*model.UserSpinAllowance, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if sa, ok := m.s.spins[uid]; ok {
		cp := *sa
		return &cp, nil
	}
	return &model.UserSpinAllowance{UID: uid}, nil
}

func (m memSpins) Grant(ctx context.Context, uid string, spins int64) error {
	if spins <= 0 {
		return nil
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.allowance(uid).SpinsAvailable += spins
	return nil
}

func (m memSpins) Consume(ctx context.Context, c *SpinConsumption) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	sa, ok := m.s.spins[c.UID]
	if !ok || sa.SpinsAvailable <= 0 {
		return gorm.ErrRecordNotFound
	}
	sa.SpinsAvailable--
	sa.TotalSpinsConsumed++
	sa.TotalWinningsValue += c.RewardValue
	sa.UpdatedAt = time.Now().UTC()
	if c.RewardType == model.RewardTypePoints && c.RewardValue > 0 {
		m.s.creditPoints(c.UID, c.RewardValue)
	}
	if c.Credit != nil {
		cp := *c.Credit
		m.s.credits[cp.Code] = &cp
	}
	m.s.appendTx(c.Entry)
	return nil
}

type memCredits struct{ s *memoryState }

func (m memCredits) ListByUser(ctx context.Context, uid string, includeRedeemed bool) ([]model.RewardCredit, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var list []model.RewardCredit
	for _, c := range m.s.credits {
		if c.UID != uid || (!includeRedeemed && c.RedeemedAt != nil) {
			continue
		}
		list = append(list, *c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list, nil
}

func (m memCredits) Redeem(ctx context.Context, uid, code string, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.credits[code]
	if !ok || c.UID != uid || c.RedeemedAt != nil {
		return gorm.ErrRecordNotFound
	}
	c.RedeemedAt = &at
	return nil
}

type memTransactions struct{ s *memoryState }

func (m memTransactions) ListByUser(ctx context.Context, uid string, limit int) ([]model.RewardTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var list []model.RewardTransaction
	for i := len(m.s.transactions) - 1; i >= 0 && len(list) < limit; i-- {
		if m.s.transactions[i].UID == uid {
			list = append(list, m.s.transactions[i])
		}
	}
	return list, nil
}

type memLeaderboard struct{ s *memoryState }

func (m memLeaderboard) Scores(ctx context.Context, category model.LeaderboardCategory, w Window) ([]Score, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	totals := map[string]int64{}
	switch category {
	case model.LeaderboardSpending, model.LeaderboardOrders:
		for _, p := range m.s.purchases {
			if !w.contains(p.PurchasedAt) {
				continue
			}
			if category == model.LeaderboardSpending {
				totals[p.UID] += p.Amount
			} else {
				totals[p.UID]++
			}
		}
	case model.LeaderboardReferrals:
		for _, l := range m.s.links {
			if l.Status == model.ReferralStatusCompleted && l.CompletedAt != nil && w.contains(*l.CompletedAt) {
				totals[l.ReferrerUID]++
			}
		}
	case model.LeaderboardPoints:
		for uid, acc := range m.s.accounts {
			totals[uid] = acc.PointsEarned
		}
	default:
		return nil, fmt.Errorf("unknown leaderboard category %q", category)
	}

	scores := make([]Score, 0, len(totals))
	for uid, v := range totals {
		if v > 0 {
			scores = append(scores, Score{UID: uid, Value: v})
		}
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Value != scores[j].Value {
			return scores[i].Value > scores[j].Value
		}
		return scores[i].UID < scores[j].UID
	})
	return scores, nil
}

func (w Window) contains(t time.Time) bool {
	if w.From != nil && t.Before(*w.From) {
		return false
	}
	if w.To != nil && !t.Before(*w.To) {
		return false
	}
	return true
}

type memNotifications struct{ s *memoryState }

func (m memNotifications) Create(ctx context.Context, n *model.Notification) error {
	if err := validateNotification(n); err != nil {
		return err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	n.ID = m.s.id()
	n.CreatedAt = time.Now().UTC()
	cp := *n
	m.s.notifications = append(m.s.notifications, &cp)
	return nil
}

func (m memNotifications) ListByUser(ctx context.Context, userUID string, f NotificationFilter) ([]model.Notification, error) {
	limit := f.limit()
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var list []model.Notification
	for i := len(m.s.notifications) - 1; i >= 0 && len(list) < limit; i-- {
		n := m.s.notifications[i]
		if n.UserUID != userUID || !f.matches(n) {
			continue
		}
		list = append(list, *n)
	}
	return list, nil
}

func (m memNotifications) MarkAllRead(ctx context.Context, userUID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	now := time.Now().UTC()
	for _, n := range m.s.notifications {
		if n.UserUID == userUID && n.ReadAt == nil {
			n.ReadAt = &now
		}
	}
	return nil
}

func (m memNotifications) CountUnread(ctx context.Context, userUID string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for _, no := range m.s.notifications {
		if no.UserUID == userUID && no.ReadAt == nil {
			n++
		}
	}
	return n, nil
}
