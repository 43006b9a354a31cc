package audit

import (
	"context"
	"encoding/json"
	"time"

	"sim-device-platform/core/entity"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Recorder receives audit events from mutating operations.
// Implementations must be fire-and-forget: a failing sink never fails the
// calling operation.
type Recorder interface {
	// LogEvent records one audit event. Errors are swallowed by the
	// implementation and only logged.
	LogEvent(ctx context.Context, action, subjectType, subjectID string, payload any, opts ...Option)
}

// Option sets optional request context on an audit event.
type Option func(*entity.AuditEvent)

// WithActor sets the acting identity; defaults to "system".
func WithActor(actor string) Option {
	return func(e *entity.AuditEvent) { e.Actor = actor }
}

// WithIPAddress sets the caller's IP address.
func WithIPAddress(ip string) Option {
	return func(e *entity.AuditEvent) { e.IPAddress = ip }
}

// WithUserAgent sets the caller's user agent.
func WithUserAgent(ua string) Option {
	return func(e *entity.AuditEvent) { e.UserAgent = ua }
}

// Service persists audit events to the entity store.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates a new audit service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// LogEvent implements Recorder. Marshal or insert failures are logged and
// swallowed so that callers never fail on audit problems.
func (s *Service) LogEvent(ctx context.Context, action, subjectType, subjectID string, payload any, opts ...Option) {
	event := entity.AuditEvent{
		ID:          uuid.New(),
		At:          time.Now().UTC(),
		Actor:       "system",
		Action:      action,
		SubjectType: subjectType,
		SubjectID:   subjectID,
	}

	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			s.logger.Warn("Failed to marshal audit payload",
				zap.String("action", action), zap.Error(err))
		} else {
			event.Payload = string(b)
		}
	}

	for _, opt := range opts {
		opt(&event)
	}

	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		s.logger.Warn("Failed to persist audit event",
			zap.String("action", action),
			zap.String("subject_id", subjectID),
			zap.Error(err))
	}
}

// Query filters the audit event listing.
type Query struct {
	SubjectType string
	SubjectID   string
	From        *time.Time
	To          *time.Time
	Page        int
	PageSize    int
}

// Events returns audit events matching the query, newest first.
func (s *Service) Events(ctx context.Context, q Query) ([]entity.AuditEvent, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 50
	}

	tx := s.db.WithContext(ctx).Model(&entity.AuditEvent{})
	if q.SubjectType != "" {
		tx = tx.Where("subject_type = ?", q.SubjectType)
	}
	if q.SubjectID != "" {
		tx = tx.Where("subject_id = ?", q.SubjectID)
	}
	if q.From != nil {
		tx = tx.Where("at >= ?", *q.From)
	}
	if q.To != nil {
		tx = tx.Where("at <= ?", *q.To)
	}

	var events []entity.AuditEvent
	err := tx.Order("at DESC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
