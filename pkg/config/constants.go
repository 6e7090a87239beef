package config

const (
	// EnvPrefix is intentionally empty: every field carries its fully
	// prefixed envconfig tag already.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvDBDSN  = "REINVENTORY_DB_DSN"
	EnvDBHost = "REINVENTORY_DB_HOST"
	EnvDBUser = "REINVENTORY_DB_USER"
	EnvDBName = "REINVENTORY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
