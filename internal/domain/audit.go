package domain

import "time"

// Audit message tags identifying the mutation that produced a record.
const (
	AuditInsert = "INSERT"
	AuditUpdate = "UPDATE"
	AuditDelete = "DELETE"
	AuditUpload = "UPLOAD"
)

// AuditRecord is one logged old→new value change: one row per changed column
// per mutation. The trail is best-effort; writes are not transactional with
// the data change they describe.
type AuditRecord struct {
	ID        int64
	UserID    int64
	TableName string
	TableID   string
	Field     string
	OldValue  Value
	NewValue  Value
	Message   string
	CreatedAt time.Time
}

// RequestLogEntry is one request-log row recorded per table or form request.
// Unrelated to the CRUD audit trail.
type RequestLogEntry struct {
	ID        int64
	UserID    int64
	Method    string
	URI       string
	CreatedAt time.Time
}
