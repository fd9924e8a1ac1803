package attendance

import (
	"context"
	"log/slog"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/notification"
)

type warningNotifier struct {
	notifications notification.Service
}

// NotifyDuplicates logs and publishes one warning per duplicate group.
// Every scan re-emits; nothing is deduplicated across calls.
func (w *warningNotifier) NotifyDuplicates(ctx context.Context, staffID string, groups []attendance.DuplicateGroup) {
	for _, g := range groups {
		detail := g.Detail(staffID)

		slog.WarnContext(ctx, attendance.DuplicateWarningMessage,
			"staff_id", detail.StaffID,
			"work_date", detail.WorkDate,
			"ids", detail.IDs,
		)

		err := w.notifications.Publish(ctx, notification.Message{
			Topic:   notification.TopicAttendanceWarnings,
			Event:   notification.EventDuplicateWarning,
			Message: attendance.DuplicateWarningMessage,
			Detail:  detail,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to publish duplicate warning",
				"staff_id", staffID,
				"work_date", detail.WorkDate,
				"error", err,
			)
		}
	}
}

func NewWarningNotifier(notifications notification.Service) attendance.WarningNotifier {
	return &warningNotifier{notifications: notifications}
}
