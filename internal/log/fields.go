package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldUserID      = "user_id"
	FieldAccountID   = "account_id"
	FieldEntryID     = "entry_id"
	FieldTemplateID  = "template_id"
	FieldEventID     = "event_id"
	FieldAmountCents = "amount_cents"
	FieldDate        = "date"
	FieldNextDueDate = "next_due_date"
	FieldSheetsRef   = "sheets_ref"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentScheduler = "scheduler"
	ComponentBalance   = "balance"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentBackend   = "backend"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpFire     = "fire"
	OpMirror   = "mirror"
	OpBalance  = "balance"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
