package service

import (
	"context"

	"github.com/unitledger/inventory-backend/internal/events"
	"github.com/unitledger/inventory-backend/internal/logging"
)

const (
	totalSteps        = 6
	unitProgressEvery = 5
)

// Emitter delivers events to one client connection.
type Emitter interface {
	ToConnection(ctx context.Context, connID string, typ events.Type, data interface{}) error
}

// progress reports pipeline state to the connection that started the
// upload. With no connection it does nothing.
type progress struct {
	emitter Emitter
	connID  string
	logger  *logging.Logger
}

func (p *progress) emit(ctx context.Context, typ events.Type, data interface{}) {
	if p.emitter == nil || p.connID == "" {
		return
	}
	if err := p.emitter.ToConnection(ctx, p.connID, typ, data); err != nil {
		p.logger.LogWarnf("emit_progress", "%s to %s: %v", typ, p.connID, err)
	}
}

func (p *progress) step(ctx context.Context, n int, status, message string) {
	p.emit(ctx, events.TypeUploadProgress, events.UploadProgress{
		Status:  status,
		Message: message,
		Step:    n,
		Total:   totalSteps,
	})
}

func (p *progress) units(ctx context.Context, processed, total int, project string) {
	if processed%unitProgressEvery != 0 {
		return
	}
	p.emit(ctx, events.TypeUnitProgress, events.UnitProgress{
		Processed:      processed,
		Total:          total,
		CurrentProject: project,
	})
}

func (p *progress) complete(ctx context.Context, summary interface{}) {
	p.emit(ctx, events.TypeUploadComplete, events.UploadComplete{Success: true, Summary: summary})
}

func (p *progress) fail(ctx context.Context, err error) {
	p.emit(ctx, events.TypeUploadError, events.UploadError{Error: err.Error()})
}
