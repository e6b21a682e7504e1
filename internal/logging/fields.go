package logging

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldOperation  = "operation"
	FieldUserID     = "user_id"
	FieldGoalID     = "goal_id"
	FieldGoalIDs    = "goal_ids"
	FieldTxID       = "transaction_id"
	FieldAmount     = "amount"
	FieldMonth      = "month"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldClientIP   = "client_ip"
	FieldError      = "error"
)

// Component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentFinance = "finance"
	ComponentStorage = "storage"
	ComponentCache   = "cache"
	ComponentAMQP    = "amqp"
)

// Operation names
const (
	OpCreate     = "create"
	OpUpdate     = "update"
	OpDelete     = "delete"
	OpDistribute = "distribute"
	OpPublish    = "publish"
	OpMigrate    = "migrate"
	OpSeed       = "seed"
	OpStartup    = "startup"
	OpShutdown   = "shutdown"
)
