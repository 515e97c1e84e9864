package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shinyyama/storefront-rewards/internal/model"
	"github.com/shinyyama/storefront-rewards/internal/reqctx"
	"github.com/shinyyama/storefront-rewards/internal/repository"
)

const (
	NotificationBracketBonus = model.NotificationBracketBonus
	NotificationBadgeAwarded = model.NotificationBadgeAwarded
	NotificationReferral     = model.NotificationReferral
	NotificationSpinWin      = model.NotificationSpinWin
)

type NotificationService interface {
	Notify(ctx context.Context, userUID string, typ model.NotificationType, title, body string, badgeCode, creditCode *string)
	// List returns the newest notifications matching f and the total unread count.
	List(ctx context.Context, userUID string, f repository.NotificationFilter) ([]model.Notification, int64, error)
	MarkAllRead(ctx context.Context, userUID string) error
}

type notificationService struct {
	repo repository.NotificationRepository
	log  logrus.FieldLogger
}

func NewNotificationService(repo repository.NotificationRepository, log logrus.FieldLogger) NotificationService {
	return &notificationService{repo: repo, log: log}
}

// Notify is best-effort; it logs errors but does not return them to avoid breaking main flows.
func (s *notificationService) Notify(ctx context.Context, userUID string, typ model.NotificationType, title, body string, badgeCode, creditCode *string) {
	if userUID == "" || typ == "" {
		return
	}
	n := &model.Notification{
		UserUID:    userUID,
		Type:       typ,
		Title:      title,
		Body:       body,
		BadgeCode:  badgeCode,
		CreditCode: creditCode,
	}
	ctx, cancel := withShortDeadline(ctx)
	defer cancel()
	if err := s.repo.Create(ctx, n); err != nil {
		reqctx.Logger(ctx, s.log).WithError(err).WithField("type", typ).Warn("notification not stored")
	}
}

func (s *notificationService) List(ctx context.Context, userUID string, f repository.NotificationFilter) ([]model.Notification, int64, error) {
	if userUID == "" {
		return nil, 0, nil
	}
	list, err := s.repo.ListByUser(ctx, userUID, f)
	if err != nil {
		return nil, 0, err
	}
	cnt, err := s.repo.CountUnread(ctx, userUID)
	if err != nil {
		return list, 0, err
	}
	return list, cnt, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userUID string) error {
	if userUID == "" {
		return nil
	}
	return s.repo.MarkAllRead(ctx, userUID)
}

func strPtr(v string) *string {
	return &v
}

// withShortDeadline bounds side writes so they cannot stall the main flow.
func withShortDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 2*time.Second)
}
