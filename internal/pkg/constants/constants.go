package constants

const (
	CookieKeySecretToken = "secret_token"
	HeaderAdminToken     = "X-Admin-Token"
)

const (
	ViperLogLevelKey       = "log.level"
	ViperLogDevelopmentKey = "log.development"

	ViperStoreDriverKey = "store.driver"
	ViperStoreDSNKey    = "store.dsn"

	ViperTimezoneKey = "timezone"

	ViperHTTPTimeoutKey  = "http.timeout"
	ViperHTTPRetriesKey  = "http.retries"
	ViperHTTPDelayMinKey = "http.delay_min"
	ViperHTTPDelayMaxKey = "http.delay_max"

	ViperRunBatchSizeKey = "run.batch_size"
	ViperRunWorkersKey   = "run.workers"
	ViperRunResumeDirKey = "run.resume_dir"

	ViperAPIAddrKey   = "api.addr"
	ViperSecretKey    = "api.secret"
	ViperRetailersKey = "retailers"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

// Currency is the default currency symbol of every offer.
const Currency = "€"

// HomeCountry is used as origin when an offer only carries a generic regional marker.
const HomeCountry = "Deutschland"
