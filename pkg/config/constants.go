package config

// EnvPrefix is passed to envconfig; individual fields carry explicit
// SPACEGLEAM_ names so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "SPACEGLEAM_DB_DSN"
	EnvDBHost = "SPACEGLEAM_DB_HOST"
	EnvDBUser = "SPACEGLEAM_DB_USER"
	EnvDBName = "SPACEGLEAM_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
