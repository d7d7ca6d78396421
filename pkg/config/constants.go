package config

const (
	// EnvPrefix scopes every environment variable the service reads.
	EnvPrefix = "AGRICONSULT"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvDBDSN  = "AGRICONSULT_DB_DSN"
	EnvDBHost = "AGRICONSULT_DB_HOST"
	EnvDBUser = "AGRICONSULT_DB_USER"
	EnvDBName = "AGRICONSULT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
