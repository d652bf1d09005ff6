package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldUserAgent     = "user_agent"
	FieldError         = "error"
	FieldUserID        = "user_id"
	FieldTransactionID = "transaction_id"
	FieldMerchant      = "merchant"
	FieldAmountCents   = "amount_cents"
	FieldCategory      = "category"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentAI        = "ai"
	ComponentRateLimit = "rate_limit"
)
