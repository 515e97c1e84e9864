package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/shinyyama/storefront-rewards/internal/model"
	"gorm.io/gorm"
)

var ErrUnknownNotificationType = errors.New("unknown notification type")

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 50
)

// NotificationFilter narrows an inbox listing. Empty Types means every kind.
type NotificationFilter struct {
	UnreadOnly bool
	Types      []model.NotificationType
	Limit      int
}

func (f NotificationFilter) limit() int {
	if f.Limit <= 0 || f.Limit > maxNotificationLimit {
		return defaultNotificationLimit
	}
	return f.Limit
}

func (f NotificationFilter) matches(n *model.Notification) bool {
	if f.UnreadOnly && n.ReadAt != nil {
		return false
	}
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if n.Type == t {
			return true
		}
	}
	return false
}

// validateNotification keeps the inbox to reward events: a known kind, and the badge or
// credit reference that kind points at.
func validateNotification(n *model.Notification) error {
	if !n.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownNotificationType, n.Type)
	}
	if n.Type == model.NotificationBadgeAwarded && n.BadgeCode == nil {
		return fmt.Errorf("%s notification without badge code", n.Type)
	}
	return nil
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userUID string, f NotificationFilter) ([]model.Notification, error)
	MarkAllRead(ctx context.Context, userUID string) error
	CountUnread(ctx context.Context, userUID string) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if err := validateNotification(n); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) ListByUser(ctx context.Context, userUID string, f NotificationFilter) ([]model.Notification, error) {
	var list []model.Notification
	q := r.db.WithContext(ctx).Model(&model.Notification{}).Where("user_uid = ?", userUID)
	if f.UnreadOnly {
		q = q.Where("read_at IS NULL")
	}
	if len(f.Types) > 0 {
		q = q.Where("type IN ?", f.Types)
	}
	if err := q.Order("created_at DESC, id DESC").Limit(f.limit()).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userUID string) error {
	return r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_uid = ? AND read_at IS NULL", userUID).
		Update("read_at", r.db.NowFunc()).Error
}

func (r *notificationRepository) CountUnread(ctx context.Context, userUID string) (int64, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_uid = ? AND read_at IS NULL", userUID).
		Count(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}
