package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	"github.com/noah-isme/sma-substitution-api/pkg/jobs"
)

// NotificationJobType tags queue jobs carrying a notification.
const NotificationJobType = "notification"

const (
	notificationDelivered = "delivered"
	notificationFailed    = "failed"
	notificationDropped   = "dropped"
)

type notificationStore interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type notifier interface {
	Notify(ctx context.Context, tenantID, recipientID string, event models.NotificationEvent, payload map[string]interface{}) bool
}

// NotificationService dispatches in-app notifications off the request path.
// Delivery is best effort; failures never undo a committed substitution change.
type NotificationService struct {
	store   notificationStore
	queue   jobEnqueuer
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService constructs the service. AttachQueue must be called before Notify
// for asynchronous dispatch; without a queue notifications are written inline.
func NewNotificationService(store notificationStore, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{store: store, metrics: metrics, logger: logger}
}

// AttachQueue sets the queue used for dispatch.
func (s *NotificationService) AttachQueue(queue jobEnqueuer) {
	s.queue = queue
}

// Notify schedules a notification and reports whether it was accepted.
func (s *NotificationService) Notify(ctx context.Context, tenantID, recipientID string, event models.NotificationEvent, payload map[string]interface{}) bool {
	if recipientID == "" {
		return false
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("failed to encode notification payload", zap.String("event", string(event)), zap.Error(err))
		s.metrics.RecordNotification(notificationDropped)
		return false
	}
	notification := &models.Notification{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		RecipientID: recipientID,
		EventType:   event,
		Payload:     raw,
	}

	if s.queue == nil {
		err := s.store.Create(ctx, notification)
		s.Finished(jobs.Job{ID: notification.ID, Type: NotificationJobType, Payload: notification}, err)
		return err == nil
	}

	if err := s.queue.Enqueue(jobs.Job{ID: notification.ID, Type: NotificationJobType, Payload: notification}); err != nil {
		s.logger.Warn("notification dropped", zap.String("recipient_id", recipientID), zap.String("event", string(event)), zap.Error(err))
		s.metrics.RecordNotification(notificationDropped)
		return false
	}
	return true
}

// Handle is the queue handler persisting one notification.
func (s *NotificationService) Handle(ctx context.Context, job jobs.Job) error {
	notification, ok := job.Payload.(*models.Notification)
	if !ok {
		return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID)
	}
	return s.store.Create(ctx, notification)
}

// Finished records the final outcome of a dispatch.
func (s *NotificationService) Finished(job jobs.Job, err error) {
	if err != nil {
		s.logger.Warn("notification delivery failed", zap.String("job_id", job.ID), zap.Error(err))
		s.metrics.RecordNotification(notificationFailed)
		return
	}
	s.metrics.RecordNotification(notificationDelivered)
}

func substitutionPayload(record *models.SubstitutionRecord) map[string]interface{} {
	return map[string]interface{}{
		"substitution_id":   record.ID,
		"date":              record.Date.Format("2006-01-02"),
		"period_number":     record.PeriodNumber,
		"class_id":          record.ClassID,
		"subject_id":        record.SubjectID,
		"room":              record.Room,
		"absent_teacher_id": record.AbsentTeacherID,
		"status":            record.Status,
	}
}
