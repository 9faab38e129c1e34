package service

import (
	"context"
	"fmt"
	"time"

	"github.com/unitledger/inventory-backend/internal/ingestion"
	"github.com/unitledger/inventory-backend/internal/inventory/domain"
	"github.com/unitledger/inventory-backend/internal/inventory/repository"
)

// recentUploadWindow bounds the developer dashboard's recent_uploads count.
const recentUploadWindow = 7 * 24 * time.Hour

// UploadCounter counts a developer's uploads since a point in time.
type UploadCounter interface {
	CountSince(ctx context.Context, developerID int64, since time.Time) (int64, error)
}

// UnreadCounter counts a user's unread notifications.
type UnreadCounter interface {
	CountUnread(ctx context.Context, userID int64) (int64, error)
}

type InventoryService struct {
	repo          *repository.InventoryRepository
	uploads       UploadCounter
	notifications UnreadCounter
	now           func() time.Time
}

func NewInventoryService(repo *repository.InventoryRepository, uploads UploadCounter, notifications UnreadCounter) *InventoryService {
	return &InventoryService{
		repo:          repo,
		uploads:       uploads,
		notifications: notifications,
		now:           time.Now,
	}
}

// CreateProject stages an ingested project for a developer and returns its
// id. It is not listed anywhere until PublishProjects.
func (s *InventoryService) CreateProject(ctx context.Context, developerID, uploadID int64, p ingestion.Project) (int64, error) {
	project := &domain.Project{
		DeveloperID:  developerID,
		Name:         p.Name,
		Location:     p.Location,
		HandoverDate: p.HandoverDate,
		UploadID:     uploadID,
	}
	if err := s.repo.CreateProject(ctx, project); err != nil {
		return 0, err
	}
	return project.ID, nil
}

// PublishProjects makes staged projects visible to the developer and agents.
func (s *InventoryService) PublishProjects(ctx context.Context, developerID int64, projectIDs []int64) error {
	return s.repo.PublishProjects(ctx, developerID, projectIDs)
}

// DiscardProjects deletes projects and their units, published or not.
func (s *InventoryService) DiscardProjects(ctx context.Context, developerID int64, projectIDs []int64) error {
	return s.repo.DeleteProjects(ctx, developerID, projectIDs)
}

// AddUnit stores one ingested unit as AVAILABLE.
func (s *InventoryService) AddUnit(ctx context.Context, projectID int64, u ingestion.Unit) error {
	return s.repo.AddUnit(ctx, &domain.Unit{
		ProjectID:       projectID,
		UnitNumber:      u.UnitNumber,
		UnitCode:        u.UnitCode,
		Floor:           u.Floor,
		Category:        u.Category,
		SubType:         u.SubType,
		Area:            u.Area,
		BalconyArea:     u.BalconyArea,
		ViewDescription: u.ViewDescription,
		Tower:           u.Tower,
		BasePrice:       u.BasePrice,
		CurrentPrice:    u.CurrentPrice,
		Status:          domain.UnitAvailable,
	})
}

// ListDeveloperProjects returns the developer's projects with unit counts.
func (s *InventoryService) ListDeveloperProjects(ctx context.Context, developerID int64) ([]domain.ProjectSummary, error) {
	projects, err := s.repo.ListProjectsByDeveloper(ctx, developerID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ProjectSummary, 0, len(projects))
	for _, p := range projects {
		n, err := s.repo.CountUnits(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.ProjectSummary{Project: p, UnitCount: n})
	}
	return out, nil
}

// GetDeveloperProject returns a project with its units. Projects owned by
// someone else are reported as not found.
func (s *InventoryService) GetDeveloperProject(ctx context.Context, developerID, projectID int64) (*domain.ProjectDetail, error) {
	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.DeveloperID != developerID {
		return nil, domain.ErrProjectNotFound
	}

	units, err := s.repo.ListUnits(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &domain.ProjectDetail{Project: *p, Units: units}, nil
}

// DeveloperStats aggregates the developer dashboard. Any unit not AVAILABLE
// counts as sold.
func (s *InventoryService) DeveloperStats(ctx context.Context, developerID int64) (*domain.DeveloperStats, error) {
	projects, err := s.repo.ListProjectsByDeveloper(ctx, developerID)
	if err != nil {
		return nil, err
	}

	stats := &domain.DeveloperStats{TotalProjects: len(projects)}
	for _, p := range projects {
		units, err := s.repo.ListUnits(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		stats.TotalUnits += len(units)
		for _, u := range units {
			if u.Status == domain.UnitAvailable {
				stats.AvailableUnits++
			}
		}
	}
	stats.SoldUnits = stats.TotalUnits - stats.AvailableUnits

	if s.uploads != nil {
		n, err := s.uploads.CountSince(ctx, developerID, s.now().Add(-recentUploadWindow))
		if err != nil {
			return nil, fmt.Errorf("failed to count recent uploads: %w", err)
		}
		stats.RecentUploads = n
	}
	return stats, nil
}

// AgentInventory lists AVAILABLE units across all developers, joined with
// their project.
func (s *InventoryService) AgentInventory(ctx context.Context, filter domain.Filter) ([]domain.InventoryItem, error) {
	if filter.PriceMin != nil && filter.PriceMax != nil && *filter.PriceMin > *filter.PriceMax {
		return nil, fmt.Errorf("%w: price_min exceeds price_max", domain.ErrInvalidFilter)
	}

	projects, err := s.repo.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	items := []domain.InventoryItem{}
	for i := range projects {
		p := &projects[i]
		units, err := s.repo.ListUnits(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		for _, u := range units {
			if u.Status != domain.UnitAvailable || !filter.Matches(p, u.CurrentPrice) {
				continue
			}
			items = append(items, joinProject(u, p))
		}
	}
	return items, nil
}

// AgentStats aggregates the agent dashboard.
func (s *InventoryService) AgentStats(ctx context.Context, userID int64) (*domain.AgentStats, error) {
	projects, err := s.repo.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	stats := &domain.AgentStats{TotalProjects: len(projects)}
	for _, p := range projects {
		units, err := s.repo.ListUnits(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		for _, u := range units {
			if u.Status == domain.UnitAvailable {
				stats.AvailableUnits++
			}
		}
	}

	if s.notifications != nil {
		n, err := s.notifications.CountUnread(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to count notifications: %w", err)
		}
		stats.Notifications = n
	}
	return stats, nil
}

func joinProject(u domain.Unit, p *domain.Project) domain.InventoryItem {
	item := domain.InventoryItem{Unit: u, ProjectName: domain.UnknownProject}
	if p != nil {
		item.ProjectName = p.Name
		item.ProjectLocation = &p.Location
		if p.HandoverDate != "" {
			hd := p.HandoverDate
			item.HandoverDate = &hd
		}
	}
	return item
}
