package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unitledger/inventory-backend/internal/inventory/domain"
)

const (
	projectKeyPrefix     = "inv:project:" // inv:project:{id} -> project JSON
	unitKeyPrefix        = "inv:unit:"    // inv:unit:{id} -> unit JSON
	developerProjectsFmt = "inv:developer:%d:projects"
	projectUnitsFmt      = "inv:project:%d:units"
	allProjectsKey       = "inv:projects"
	projectSeqKey        = "inv:seq:project"
	unitSeqKey           = "inv:seq:unit"
)

// InventoryRepository stores projects and units as JSON documents indexed by
// sorted sets scored on id, so listings come back in insertion order.
type InventoryRepository struct {
	client *redis.Client
}

func NewInventoryRepository(client *redis.Client) *InventoryRepository {
	return &InventoryRepository{client: client}
}

// CreateProject assigns an id and stores the project document. The project
// stays out of every listing until PublishProjects indexes it.
func (r *InventoryRepository) CreateProject(ctx context.Context, p *domain.Project) error {
	id, err := r.client.Incr(ctx, projectSeqKey).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate project id: %w", err)
	}
	p.ID = id
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}

	if err := r.client.Set(ctx, projectKeyPrefix+strconv.FormatInt(id, 10), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// PublishProjects adds staged projects to the developer and global indexes
// in one transaction, so agents see all of an upload or none of it.
func (r *InventoryRepository) PublishProjects(ctx context.Context, developerID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	members := make([]redis.Z, len(ids))
	for i, id := range ids {
		members[i] = redis.Z{Score: float64(id), Member: id}
	}

	pipe := r.client.TxPipeline()
	pipe.ZAdd(ctx, fmt.Sprintf(developerProjectsFmt, developerID), members...)
	pipe.ZAdd(ctx, allProjectsKey, members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish projects: %w", err)
	}
	return nil
}

// DeleteProjects removes projects with their units and index entries.
// Missing projects are ignored.
func (r *InventoryRepository) DeleteProjects(ctx context.Context, developerID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, 0, len(ids)*2)
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		unitsKey := fmt.Sprintf(projectUnitsFmt, id)
		unitIDs, err := r.client.ZRange(ctx, unitsKey, 0, -1).Result()
		if err != nil {
			return fmt.Errorf("failed to list units of project %d: %w", id, err)
		}
		for _, uid := range unitIDs {
			keys = append(keys, unitKeyPrefix+uid)
		}
		keys = append(keys, unitsKey, projectKeyPrefix+strconv.FormatInt(id, 10))
		members[i] = id
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, keys...)
	pipe.ZRem(ctx, fmt.Sprintf(developerProjectsFmt, developerID), members...)
	pipe.ZRem(ctx, allProjectsKey, members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete projects: %w", err)
	}
	return nil
}

// AddUnit assigns an id and stores the unit under its project.
func (r *InventoryRepository) AddUnit(ctx context.Context, u *domain.Unit) error {
	id, err := r.client.Incr(ctx, unitSeqKey).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate unit id: %w", err)
	}
	u.ID = id
	if u.Status == "" {
		u.Status = domain.UnitAvailable
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal unit: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, unitKeyPrefix+strconv.FormatInt(id, 10), data, 0)
	pipe.ZAdd(ctx, fmt.Sprintf(projectUnitsFmt, u.ProjectID), redis.Z{Score: float64(id), Member: id})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to add unit: %w", err)
	}
	return nil
}

// GetProject retrieves a project by id
func (r *InventoryRepository) GetProject(ctx context.Context, id int64) (*domain.Project, error) {
	data, err := r.client.Get(ctx, projectKeyPrefix+strconv.FormatInt(id, 10)).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	var p domain.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project: %w", err)
	}
	return &p, nil
}

// ListProjectsByDeveloper returns a developer's projects, oldest first.
func (r *InventoryRepository) ListProjectsByDeveloper(ctx context.Context, developerID int64) ([]domain.Project, error) {
	return r.listProjects(ctx, fmt.Sprintf(developerProjectsFmt, developerID))
}

// ListProjects returns every project in the store, oldest first.
func (r *InventoryRepository) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return r.listProjects(ctx, allProjectsKey)
}

// ListUnits returns a project's units in insertion order.
func (r *InventoryRepository) ListUnits(ctx context.Context, projectID int64) ([]domain.Unit, error) {
	ids, err := r.client.ZRange(ctx, fmt.Sprintf(projectUnitsFmt, projectID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}

	docs, err := r.mget(ctx, unitKeyPrefix, ids)
	if err != nil {
		return nil, err
	}

	units := make([]domain.Unit, 0, len(docs))
	for _, doc := range docs {
		var u domain.Unit
		if err := json.Unmarshal(doc, &u); err != nil {
			return nil, fmt.Errorf("failed to unmarshal unit: %w", err)
		}
		units = append(units, u)
	}
	return units, nil
}

// CountUnits returns how many units belong to a project.
func (r *InventoryRepository) CountUnits(ctx context.Context, projectID int64) (int, error) {
	n, err := r.client.ZCard(ctx, fmt.Sprintf(projectUnitsFmt, projectID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count units: %w", err)
	}
	return int(n), nil
}

func (r *InventoryRepository) listProjects(ctx context.Context, indexKey string) ([]domain.Project, error) {
	ids, err := r.client.ZRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	docs, err := r.mget(ctx, projectKeyPrefix, ids)
	if err != nil {
		return nil, err
	}

	projects := make([]domain.Project, 0, len(docs))
	for _, doc := range docs {
		var p domain.Project
		if err := json.Unmarshal(doc, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// mget loads documents for ids, skipping any that have disappeared.
func (r *InventoryRepository) mget(ctx context.Context, prefix string, ids []string) ([][]byte, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = prefix + id
	}

	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}

	docs := make([][]byte, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.(string); ok {
			docs = append(docs, []byte(s))
		}
	}
	return docs, nil
}
