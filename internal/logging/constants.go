package logging

// Standard field names so batch runs can be filtered consistently.
const (
	FieldBatchID    = "batch_id"
	FieldUserID     = "user_id"
	FieldFile       = "file_path"
	FieldFileType   = "file_type"
	FieldParser     = "parser"
	FieldBank       = "bank"
	FieldReference  = "transaction_ref"
	FieldInvoiceID  = "invoice_id"
	FieldConfidence = "confidence"
	FieldType       = "transaction_type"
	FieldCategory   = "category"
	FieldReason     = "reason"
	FieldOperation  = "operation"
	FieldStatus     = "status"
	FieldError      = "error"
	FieldDuration   = "duration_ms"
	FieldCount      = "count"
	FieldRow        = "row"
	FieldPages      = "pages"
)
