package types

import "context"

// AuditSink receives best-effort audit records for task mutations.
//
// Record has no error return on purpose: audit is fire-and-forget and
// implementations swallow their own failures. An audit failure must never
// block or fail the task mutation it describes.
type AuditSink interface {
	Record(ctx context.Context, action, taskTitle, actorEmail, oldValue, newValue string)
}

// Audit actions written by the mutation layer.
const (
	AuditCreated      = "created"
	AuditUpdated      = "updated"
	AuditStatusChange = "status_change"
	AuditDeleted      = "deleted"
)
