package config

const (
	EnvPrefix = "FITPULSE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvDBDSN  = "FITPULSE_DB_DSN"
	EnvDBHost = "FITPULSE_DB_HOST"
	EnvDBUser = "FITPULSE_DB_USER"
	EnvDBName = "FITPULSE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
