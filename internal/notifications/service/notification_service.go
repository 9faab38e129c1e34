package service

import (
	"context"
	"fmt"

	authdomain "github.com/unitledger/inventory-backend/internal/auth/domain"
	"github.com/unitledger/inventory-backend/internal/events"
	"github.com/unitledger/inventory-backend/internal/logging"
	"github.com/unitledger/inventory-backend/internal/notifications/domain"
	"github.com/unitledger/inventory-backend/internal/notifications/repository"
)

// UserDirectory resolves users for fan-out.
type UserDirectory interface {
	GetUser(ctx context.Context, id int64) (*authdomain.User, error)
	ListByRoles(ctx context.Context, roles ...authdomain.Role) ([]authdomain.User, error)
}

// Pusher delivers live events to a user's open streams.
type Pusher interface {
	ToUser(ctx context.Context, userID int64, typ events.Type, data interface{}) error
}

type NotificationService struct {
	repo   *repository.NotificationRepository
	users  UserDirectory
	pusher Pusher
}

func NewNotificationService(repo *repository.NotificationRepository, users UserDirectory, pusher Pusher) *NotificationService {
	return &NotificationService{repo: repo, users: users, pusher: pusher}
}

// NotifyInventoryUpdate tells every agent and admin about freshly uploaded
// projects, one notification per project per recipient. It returns how many
// notifications were stored. Live delivery is best-effort.
func (s *NotificationService) NotifyInventoryUpdate(ctx context.Context, developerID int64, projects []domain.ProjectUpdate) (int, error) {
	logger := logging.NewLogger(ctx).With("developer_id", developerID)

	developerName := fmt.Sprintf("Developer #%d", developerID)
	if dev, err := s.users.GetUser(ctx, developerID); err == nil {
		developerName = dev.DisplayName()
	}

	recipients, err := s.users.ListByRoles(ctx, authdomain.RoleAgent, authdomain.RoleAdmin)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve recipients: %w", err)
	}

	sent := 0
	for _, p := range projects {
		for _, user := range recipients {
			n := &domain.Notification{
				UserID:  user.ID,
				Type:    domain.TypeInventoryUpdate,
				Title:   "New inventory from " + developerName,
				Message: fmt.Sprintf("%s: %d units updated with latest pricing", p.Name, p.UnitCount),
				Data: map[string]interface{}{
					"project_id":   p.ProjectID,
					"project_name": p.Name,
					"unit_count":   p.UnitCount,
					"developer_id": developerID,
				},
			}
			if err := s.repo.Create(ctx, n); err != nil {
				return sent, err
			}
			sent++

			if s.pusher != nil {
				if err := s.pusher.ToUser(ctx, user.ID, events.TypeNotification, n); err != nil {
					logger.LogWarnf("notify_inventory_update", "push to user %d failed: %v", user.ID, err)
				}
			}
		}
	}

	logger.LogInfof("notify_inventory_update", "stored %d notifications for %d recipients", sent, len(recipients))
	return sent, nil
}

func (s *NotificationService) List(ctx context.Context, userID int64) ([]domain.Notification, error) {
	return s.repo.ListByUser(ctx, userID, 0)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id int64) (*domain.Notification, error) {
	return s.repo.MarkRead(ctx, userID, id)
}

func (s *NotificationService) CountUnread(ctx context.Context, userID int64) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}
