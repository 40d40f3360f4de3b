package model

// Route is a symbolic routing destination emitted by the core flows.
// Translating a Route into a concrete URL is the caller's responsibility.
type Route string

const (
	RouteAccountHome          Route = "account_home"
	RoutePersonalKeySetup     Route = "personal_key_setup"
	RouteIdvFunnel            Route = "idv_funnel"
	RouteLockedOut            Route = "locked_out"
	RouteBackupCodeSetup      Route = "backup_code_setup"
	RoutePersonalKeyRotation  Route = "personal_key_rotation"
	RouteAuthenticatorSetup   Route = "authenticator_setup"
	RouteRetry                Route = "retry"
)
