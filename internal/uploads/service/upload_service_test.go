package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/unitledger/inventory-backend/internal/events"
	"github.com/unitledger/inventory-backend/internal/ingestion"
	invdomain "github.com/unitledger/inventory-backend/internal/inventory/domain"
	invrepo "github.com/unitledger/inventory-backend/internal/inventory/repository"
	invservice "github.com/unitledger/inventory-backend/internal/inventory/service"
	notifdomain "github.com/unitledger/inventory-backend/internal/notifications/domain"
	"github.com/unitledger/inventory-backend/internal/testutil"
	"github.com/unitledger/inventory-backend/internal/uploads/domain"
	"github.com/unitledger/inventory-backend/internal/uploads/repository"
	"github.com/unitledger/inventory-backend/internal/uploads/storage"
)

type recorded struct {
	connID string
	typ    events.Type
	data   interface{}
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []recorded
}

func (r *recordingEmitter) ToConnection(_ context.Context, connID string, typ events.Type, data interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recorded{connID, typ, data})
	return nil
}

func (r *recordingEmitter) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.typ
	}
	return out
}

type recordingNotifier struct {
	developerID int64
	updates     []notifdomain.ProjectUpdate
	err         error
}

func (n *recordingNotifier) NotifyInventoryUpdate(_ context.Context, developerID int64, updates []notifdomain.ProjectUpdate) (int, error) {
	n.developerID = developerID
	n.updates = updates
	return len(updates), n.err
}

// hookedWriter fails the failOnUnit-th unit write and runs afterAdd after
// every successful one.
type hookedWriter struct {
	InventoryWriter
	failOnUnit int
	added      int
	afterAdd   func()
}

func (w *hookedWriter) AddUnit(ctx context.Context, projectID int64, u ingestion.Unit) error {
	w.added++
	if w.added == w.failOnUnit {
		return errors.New("store unavailable")
	}
	if err := w.InventoryWriter.AddUnit(ctx, projectID, u); err != nil {
		return err
	}
	if w.afterAdd != nil {
		w.afterAdd()
	}
	return nil
}

type fixture struct {
	svc       *UploadService
	logs      *repository.UploadLogRepository
	inventory *invservice.InventoryService
	emitter   *recordingEmitter
	notifier  *recordingNotifier
	files     *storage.FileManager
	mr        *miniredis.Miniredis
	opts      Options
}

// useWriter rebuilds the service around w.
func (f *fixture) useWriter(w InventoryWriter) {
	f.svc = NewUploadService(f.logs, w, f.notifier, f.emitter, f.files, f.opts)
}

func (f *fixture) agentVisibleUnits(t *testing.T) int {
	t.Helper()
	items, err := f.inventory.AgentInventory(context.Background(), invdomain.Filter{})
	require.NoError(t, err)
	return len(items)
}

// inventoryKeys lists stored project and unit documents, staged or not.
func (f *fixture) inventoryKeys() []string {
	var keys []string
	for _, k := range f.mr.Keys() {
		if strings.HasPrefix(k, "inv:project:") || strings.HasPrefix(k, "inv:unit:") {
			keys = append(keys, k)
		}
	}
	return keys
}

func newFixture(t *testing.T, opts Options) *fixture {
	client, mr := testutil.SetupTestRedis(t)
	files, err := storage.NewFileManager(t.TempDir(), 1<<20)
	require.NoError(t, err)

	f := &fixture{
		logs:      repository.NewUploadLogRepository(client),
		inventory: invservice.NewInventoryService(invrepo.NewInventoryRepository(client), nil, nil),
		emitter:   &recordingEmitter{},
		notifier:  &recordingNotifier{},
		files:     files,
		mr:        mr,
		opts:      opts,
	}
	f.svc = NewUploadService(f.logs, f.inventory, f.notifier, f.emitter, files, opts)
	return f
}

func (f *fixture) storeCSV(t *testing.T, name string, lines ...string) domain.StoredFile {
	t.Helper()
	stored, err := f.files.Save(strings.NewReader(strings.Join(lines, "\n")+"\n"), name)
	require.NoError(t, err)
	return *stored
}

func unitRows(n int) []string {
	rows := []string{"UNIT NO.,FLOOR,AREA,PRICE,Unit View"}
	for i := 1; i <= n; i++ {
		rows = append(rows, fmt.Sprintf("%d,%d,1000,\"1,500,000\",Sea", 100+i, i))
	}
	return rows
}

func TestProcessUpload_Success(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	file := f.storeCSV(t, "Sky Tower - Q4 2025.csv", unitRows(7)...)

	result, err := f.svc.ProcessUpload(ctx, file, 1, "conn-1")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Summary.ProjectsProcessed)
	assert.Equal(t, 7, result.Summary.UnitsProcessed)
	assert.NotNil(t, result.Warnings)
	assert.Empty(t, result.Warnings)

	t.Run("log completed", func(t *testing.T) {
		log, err := f.logs.GetByID(ctx, result.UploadID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, log.Status)
		assert.Equal(t, "Sky Tower - Q4 2025.csv", log.Filename)
		assert.Equal(t, 7, log.UnitsProcessed)
	})

	t.Run("inventory written", func(t *testing.T) {
		projects, err := f.inventory.ListDeveloperProjects(ctx, 1)
		require.NoError(t, err)
		require.Len(t, projects, 1)
		assert.Equal(t, "Sky Tower", projects[0].Name)
		assert.Equal(t, "Q4 2025", projects[0].HandoverDate)
		assert.Equal(t, ingestion.DefaultLocation, projects[0].Location)
		assert.Equal(t, 7, projects[0].UnitCount)
		assert.Equal(t, result.UploadID, projects[0].UploadID)
	})

	t.Run("events in order", func(t *testing.T) {
		want := []events.Type{
			events.TypeUploadProgress, events.TypeUploadProgress, events.TypeUploadProgress,
			events.TypeUploadProgress, events.TypeUnitProgress,
			events.TypeUploadProgress, events.TypeUploadProgress,
			events.TypeUploadComplete,
		}
		assert.Equal(t, want, f.emitter.types())

		first := f.emitter.events[0]
		assert.Equal(t, "conn-1", first.connID)
		assert.Equal(t, events.UploadProgress{Status: "analyzing", Message: "Analyzing file structure...", Step: 1, Total: 6}, first.data)

		unit := f.emitter.events[4].data.(events.UnitProgress)
		assert.Equal(t, events.UnitProgress{Processed: 5, Total: 7, CurrentProject: "Sky Tower"}, unit)

		last := f.emitter.events[6].data.(events.UploadProgress)
		assert.Equal(t, "finalizing", last.Status)
		assert.Equal(t, "Notifying agents...", last.Message)
	})

	t.Run("agents notified", func(t *testing.T) {
		assert.Equal(t, int64(1), f.notifier.developerID)
		require.Len(t, f.notifier.updates, 1)
		assert.Equal(t, "Sky Tower", f.notifier.updates[0].Name)
		assert.Equal(t, 7, f.notifier.updates[0].UnitCount)
	})

	t.Run("temp file removed", func(t *testing.T) {
		assert.NoFileExists(t, file.Path)
	})
}

func TestProcessUpload_ValidationFailure(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	file := f.storeCSV(t, "bad.csv",
		"Unit,AREA,PRICE",
		"101,900,",
		",900,1000000",
		"103,0,1000000",
	)

	_, err := f.svc.ProcessUpload(ctx, file, 2, "conn-2")
	require.Error(t, err)
	var verr *ingestion.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Critical, 3)
	assert.True(t, IsClientError(err))
	assert.True(t, strings.HasPrefix(err.Error(), "Validation failed: Row 2: Valid price is required"))

	history, herr := f.svc.History(ctx, 2)
	require.NoError(t, herr)
	require.Len(t, history, 1)
	assert.Equal(t, domain.StatusFailed, history[0].Status)
	assert.Equal(t, err.Error(), history[0].ErrorDetails["error"])

	types := f.emitter.types()
	assert.Equal(t, events.TypeUploadError, types[len(types)-1])
	assert.Equal(t, []events.Type{events.TypeUploadProgress, events.TypeUploadProgress, events.TypeUploadError}, types)

	projects, perr := f.inventory.ListDeveloperProjects(ctx, 2)
	require.NoError(t, perr)
	assert.Empty(t, projects, "nothing is persisted when validation fails")
	assert.NoFileExists(t, file.Path)
	assert.Nil(t, f.notifier.updates)
}

func TestProcessUpload_WarningsDoNotBlock(t *testing.T) {
	f := newFixture(t, Options{})
	file := f.storeCSV(t, "cheap.csv",
		"Unit,AREA,PRICE",
		"1,10,450",
		"2,100,50000",
	)

	result, err := f.svc.ProcessUpload(context.Background(), file, 3, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Row 2: Price per sq ft (45.00) seems unusual"}, result.Warnings)
	assert.Empty(t, f.emitter.types(), "no connection, no events")
}

func TestProcessUpload_MultiSheetWorkbook(t *testing.T) {
	f := newFixture(t, Options{})

	wb := excelize.NewFile()
	require.NoError(t, wb.SetSheetName("Sheet1", "Tower A - Q4 2025"))
	_, err := wb.NewSheet("Tower B - Q1 2026")
	require.NoError(t, err)
	require.NoError(t, wb.SetSheetRow("Tower A - Q4 2025", "A1", &[]interface{}{"UNIT NO.", "AREA", "PRICE"}))
	require.NoError(t, wb.SetSheetRow("Tower A - Q4 2025", "A2", &[]interface{}{"A-1", 800, 1200000}))
	require.NoError(t, wb.SetSheetRow("Tower B - Q1 2026", "A1", &[]interface{}{"Unit", "SQFT", "Base Price"}))
	require.NoError(t, wb.SetSheetRow("Tower B - Q1 2026", "A2", &[]interface{}{"B-1", 900, 1500000}))
	require.NoError(t, wb.SetSheetRow("Tower B - Q1 2026", "A3", &[]interface{}{"B-2", 950, 1600000}))

	path := filepath.Join(t.TempDir(), "towers.xlsx")
	require.NoError(t, wb.SaveAs(path))
	require.NoError(t, wb.Close())

	result, err := f.svc.ProcessUpload(context.Background(), domain.StoredFile{Path: path, OriginalName: "towers.xlsx"}, 4, "")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Summary.ProjectsProcessed)
	assert.Equal(t, 3, result.Summary.UnitsProcessed)

	projects, err := f.inventory.ListDeveloperProjects(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "Tower A", projects[0].Name)
	assert.Equal(t, "Tower B", projects[1].Name)
	assert.Equal(t, "Q1 2026", projects[1].HandoverDate)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestProcessUpload_ClientDisconnectDoesNotAbort(t *testing.T) {
	f := newFixture(t, Options{UnitWriteDelay: time.Millisecond, PricingDelay: 20 * time.Millisecond})
	file := f.storeCSV(t, "Harbour - Q1 2026.csv", unitRows(5)...)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.svc.ProcessUpload(ctx, file, 5, "conn-5")
	require.NoError(t, err)
	assert.Equal(t, 5, result.Summary.UnitsProcessed)

	log, err := f.logs.GetByID(context.Background(), result.UploadID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, log.Status)

	assert.Equal(t, 5, f.agentVisibleUnits(t))
	require.Len(t, f.notifier.updates, 1)
	types := f.emitter.types()
	assert.Equal(t, events.TypeUploadComplete, types[len(types)-1])
	assert.NoFileExists(t, file.Path)
}

func TestProcessUpload_FailureLeavesNoInventory(t *testing.T) {
	const deadline = 30 * time.Millisecond

	tests := []struct {
		name       string
		opts       Options
		failOnUnit int
		wantErr    error
	}{
		{name: "store error while writing units", failOnUnit: 4},
		{name: "timeout while writing units", opts: Options{UnitWriteDelay: time.Hour, Timeout: deadline}, wantErr: context.DeadlineExceeded},
		{name: "timeout while pricing", opts: Options{PricingDelay: time.Hour, Timeout: deadline}, wantErr: context.DeadlineExceeded},
		{name: "timeout while finalizing", opts: Options{NotifyDelay: time.Hour, Timeout: deadline}, wantErr: context.DeadlineExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.opts)
			f.useWriter(&hookedWriter{InventoryWriter: f.inventory, failOnUnit: tt.failOnUnit})
			file := f.storeCSV(t, "Sky Tower - Q4 2025.csv", unitRows(5)...)

			_, err := f.svc.ProcessUpload(context.Background(), file, 11, "conn-11")
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.False(t, IsClientError(err))

			history, herr := f.svc.History(context.Background(), 11)
			require.NoError(t, herr)
			require.Len(t, history, 1)
			assert.Equal(t, domain.StatusFailed, history[0].Status)
			assert.Equal(t, err.Error(), history[0].ErrorDetails["error"])

			assert.Zero(t, f.agentVisibleUnits(t))
			projects, perr := f.inventory.ListDeveloperProjects(context.Background(), 11)
			require.NoError(t, perr)
			assert.Empty(t, projects)
			assert.Empty(t, f.inventoryKeys(), "partial writes are removed")

			assert.Nil(t, f.notifier.updates)
			types := f.emitter.types()
			assert.Equal(t, events.TypeUploadError, types[len(types)-1])
			assert.NoFileExists(t, file.Path)
		})
	}
}

func TestProcessUpload_InventoryHiddenUntilFinished(t *testing.T) {
	f := newFixture(t, Options{})
	var visibleDuringWrite []int
	f.useWriter(&hookedWriter{
		InventoryWriter: f.inventory,
		afterAdd: func() {
			visibleDuringWrite = append(visibleDuringWrite, f.agentVisibleUnits(t))
		},
	})
	file := f.storeCSV(t, "Sky Tower - Q4 2025.csv", unitRows(3)...)

	_, err := f.svc.ProcessUpload(context.Background(), file, 12, "")
	require.NoError(t, err)

	assert.Equal(t, []int{0, 0, 0}, visibleDuringWrite)
	assert.Equal(t, 3, f.agentVisibleUnits(t))
}

func TestProcessUpload_NotifierFailureStillCompletes(t *testing.T) {
	f := newFixture(t, Options{})
	f.notifier.err = errors.New("directory unavailable")
	file := f.storeCSV(t, "ok.csv", unitRows(1)...)

	result, err := f.svc.ProcessUpload(context.Background(), file, 6, "")
	require.NoError(t, err)

	log, err := f.logs.GetByID(context.Background(), result.UploadID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, log.Status)
}

func TestProcessUpload_UnreadableWorkbook(t *testing.T) {
	f := newFixture(t, Options{})
	stored, err := f.files.Save(strings.NewReader("this is not a zip archive"), "broken.xlsx")
	require.NoError(t, err)

	_, err = f.svc.ProcessUpload(context.Background(), *stored, 7, "")
	require.ErrorIs(t, err, ingestion.ErrWorkbookUnreadable)
	assert.True(t, IsClientError(err))
}

func TestGetUpload_Ownership(t *testing.T) {
	f := newFixture(t, Options{})
	file := f.storeCSV(t, "mine.csv", unitRows(1)...)
	result, err := f.svc.ProcessUpload(context.Background(), file, 8, "")
	require.NoError(t, err)

	got, err := f.svc.GetUpload(context.Background(), 8, result.UploadID)
	require.NoError(t, err)
	assert.Equal(t, "mine.csv", got.Filename)

	_, err = f.svc.GetUpload(context.Background(), 9, result.UploadID)
	assert.ErrorIs(t, err, domain.ErrUploadNotFound)
}

func TestPause(t *testing.T) {
	assert.NoError(t, pause(context.Background(), 0))
	assert.NoError(t, pause(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, pause(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, pause(ctx, 0), context.Canceled)
}
