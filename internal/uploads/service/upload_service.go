package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/unitledger/inventory-backend/internal/ingestion"
	"github.com/unitledger/inventory-backend/internal/logging"
	notifdomain "github.com/unitledger/inventory-backend/internal/notifications/domain"
	"github.com/unitledger/inventory-backend/internal/uploads/domain"
	"github.com/unitledger/inventory-backend/internal/uploads/repository"
)

// InventoryWriter persists ingested projects and units. Created projects stay
// hidden until published; discarded ones are removed with their units.
type InventoryWriter interface {
	CreateProject(ctx context.Context, developerID, uploadID int64, p ingestion.Project) (int64, error)
	AddUnit(ctx context.Context, projectID int64, u ingestion.Unit) error
	PublishProjects(ctx context.Context, developerID int64, projectIDs []int64) error
	DiscardProjects(ctx context.Context, developerID int64, projectIDs []int64) error
}

// Notifier tells other users about new inventory.
type Notifier interface {
	NotifyInventoryUpdate(ctx context.Context, developerID int64, projects []notifdomain.ProjectUpdate) (int, error)
}

// FileRemover deletes temporary uploads.
type FileRemover interface {
	Remove(path string) error
}

// Options tunes the pacing of the pipeline. Timeout bounds a whole run;
// zero means unbounded.
type Options struct {
	UnitWriteDelay time.Duration
	PricingDelay   time.Duration
	NotifyDelay    time.Duration
	Timeout        time.Duration
}

// DefaultOptions paces the pipeline so progress is visible to clients.
func DefaultOptions() Options {
	return Options{
		UnitWriteDelay: 50 * time.Millisecond,
		PricingDelay:   500 * time.Millisecond,
		NotifyDelay:    300 * time.Millisecond,
		Timeout:        10 * time.Minute,
	}
}

type UploadService struct {
	logs      *repository.UploadLogRepository
	inventory InventoryWriter
	notifier  Notifier
	emitter   Emitter
	files     FileRemover
	opts      Options
	now       func() time.Time
}

func NewUploadService(
	logs *repository.UploadLogRepository,
	inventory InventoryWriter,
	notifier Notifier,
	emitter Emitter,
	files FileRemover,
	opts Options,
) *UploadService {
	return &UploadService{
		logs:      logs,
		inventory: inventory,
		notifier:  notifier,
		emitter:   emitter,
		files:     files,
		opts:      opts,
		now:       time.Now,
	}
}

// ProcessUpload runs the six-step ingestion pipeline over a stored file.
// Progress goes to connID when it is set. The run is detached from ctx's
// cancellation: a client that goes away only misses progress events. The log
// ends COMPLETED or FAILED, a failed run leaves no inventory behind, and the
// file is removed either way.
func (s *UploadService) ProcessUpload(ctx context.Context, file domain.StoredFile, developerID int64, connID string) (*domain.Result, error) {
	ctx = context.WithoutCancel(ctx)
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	logger := logging.NewLogger(ctx).With("developer_id", developerID).With("file", file.OriginalName)
	defer func() {
		if s.files == nil {
			return
		}
		if err := s.files.Remove(file.Path); err != nil {
			logger.LogWarnf("cleanup_upload", "could not remove %s: %v", file.Path, err)
		}
	}()

	log := &domain.UploadLog{
		DeveloperID: developerID,
		Filename:    file.OriginalName,
		FileSize:    file.Size,
	}
	if err := s.logs.Create(ctx, log); err != nil {
		return nil, err
	}
	logger = logger.With("upload_id", log.ID)

	p := &progress{emitter: s.emitter, connID: connID, logger: logger}
	st := &staging{}

	result, err := s.run(ctx, file, log.ID, developerID, p, st)
	if err == nil {
		_, err = s.logs.Complete(ctx, log.ID, result.Summary)
	}
	if err != nil {
		// the deadline may have passed; record the outcome regardless
		bg := context.WithoutCancel(ctx)
		if derr := s.inventory.DiscardProjects(bg, developerID, st.projectIDs); derr != nil {
			logger.LogErrorf("process_upload", "failed to discard partial inventory: %v", derr)
		}
		if _, ferr := s.logs.Fail(bg, log.ID, err.Error()); ferr != nil {
			logger.LogErrorf("process_upload", "failed to mark upload failed: %v", ferr)
		}
		p.fail(bg, err)
		logger.LogError("process_upload", err)
		return nil, err
	}

	if s.notifier != nil {
		if _, err := s.notifier.NotifyInventoryUpdate(ctx, developerID, st.updates); err != nil {
			// inventory is already live; agents can still browse it
			logger.LogWarnf("notify_agents", "%v", err)
		}
	}
	p.complete(ctx, result.Summary)

	logger.LogInfof("process_upload", "ingested %d units across %d projects",
		result.Summary.UnitsProcessed, result.Summary.ProjectsProcessed)
	return result, nil
}

// staging tracks what a run has written so a failure can undo it.
type staging struct {
	projectIDs []int64
	updates    []notifdomain.ProjectUpdate
}

func (s *UploadService) run(ctx context.Context, file domain.StoredFile, uploadID, developerID int64, p *progress, st *staging) (*domain.Result, error) {
	p.step(ctx, 1, "analyzing", "Analyzing file structure...")
	wb, err := ingestion.OpenWorkbook(file.Path, file.OriginalName)
	if err != nil {
		return nil, err
	}
	structure, err := ingestion.DetectStructure(wb.SheetNames())
	if err != nil {
		return nil, err
	}

	p.step(ctx, 2, "validating", "Validating data...")
	sheets := ingestion.ExtractData(wb, structure)
	validation := ingestion.Validate(sheets)
	if err := validation.Err(); err != nil {
		return nil, err
	}

	p.step(ctx, 3, "preparing", "Preparing database...")
	processed := ingestion.Assemble(sheets, developerID, s.now())

	p.step(ctx, 4, "processing", "Processing units...")
	if err := s.persist(ctx, processed, uploadID, p, st); err != nil {
		return nil, err
	}

	p.step(ctx, 5, "pricing", "Processing pricing options...")
	if err := pause(ctx, s.opts.PricingDelay); err != nil {
		return nil, err
	}

	p.step(ctx, 6, "finalizing", "Notifying agents...")
	if err := pause(ctx, s.opts.NotifyDelay); err != nil {
		return nil, err
	}
	if err := s.inventory.PublishProjects(ctx, developerID, st.projectIDs); err != nil {
		return nil, err
	}

	return &domain.Result{
		Success:  true,
		UploadID: uploadID,
		Summary:  processed.Summary,
		Warnings: validation.WarningMessages(),
	}, nil
}

// persist stages every project and unit, reporting unit progress as it goes.
func (s *UploadService) persist(ctx context.Context, processed ingestion.Processed, uploadID int64, p *progress, st *staging) error {
	total := processed.Summary.UnitsProcessed
	done := 0

	for _, project := range processed.Projects {
		projectID, err := s.inventory.CreateProject(ctx, processed.DeveloperID, uploadID, project)
		if err != nil {
			return fmt.Errorf("failed to save project %q: %w", project.Name, err)
		}
		st.projectIDs = append(st.projectIDs, projectID)

		for _, unit := range project.Units {
			if err := pause(ctx, s.opts.UnitWriteDelay); err != nil {
				return err
			}
			if err := s.inventory.AddUnit(ctx, projectID, unit); err != nil {
				return fmt.Errorf("failed to save unit %s: %w", unit.UnitNumber, err)
			}
			done++
			p.units(ctx, done, total, project.Name)
		}

		st.updates = append(st.updates, notifdomain.ProjectUpdate{
			ProjectID: projectID,
			Name:      project.Name,
			UnitCount: len(project.Units),
		})
	}
	return nil
}

// History returns the developer's uploads, newest first.
func (s *UploadService) History(ctx context.Context, developerID int64) ([]domain.UploadLog, error) {
	return s.logs.ListByDeveloper(ctx, developerID)
}

// GetUpload returns one of the developer's uploads. Uploads owned by someone
// else are reported as not found.
func (s *UploadService) GetUpload(ctx context.Context, developerID, id int64) (*domain.UploadLog, error) {
	log, err := s.logs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if log.DeveloperID != developerID {
		return nil, domain.ErrUploadNotFound
	}
	return log, nil
}

// IsClientError reports whether err was caused by the uploaded content
// rather than by the server.
func IsClientError(err error) bool {
	var verr *ingestion.ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, ingestion.ErrEmptyWorkbook) ||
		errors.Is(err, ingestion.ErrUnsupportedFormat) ||
		errors.Is(err, ingestion.ErrWorkbookUnreadable)
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
