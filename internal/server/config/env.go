package config

import (
	"github.com/spf13/viper"
)

// envBindings maps config keys to the environment variables read for them,
// in lookup order. Bare names are kept for existing deployments.
var envBindings = map[string][]string{
	"endpoint_addr_http": {"LOGMATE_HTTP_ADDR"},
	"endpoint_addr_grpc": {"LOGMATE_GRPC_ADDR"},
	"public_base_url":    {"LOGMATE_PUBLIC_BASE_URL"},
	"database_dsn":       {"LOGMATE_DATABASE_DSN", "DATABASE_DSN"},
	"redis_addr":         {"LOGMATE_REDIS_ADDR", "REDIS_ADDR"},
	"redis_password":     {"LOGMATE_REDIS_PASSWORD", "REDIS_PASSWORD"},
	"redis_db":           {"LOGMATE_REDIS_DB"},
	"secret_key":         {"LOGMATE_SECRET_KEY"},
	"aes_key":            {"LOGMATE_AES_KEY", "AES_KEY"},
	"key_seal_secret":    {"LOGMATE_KEY_SEAL_SECRET"},
	"tag_pepper":         {"LOGMATE_TAG_PEPPER"},
	"s3_root_user":       {"LOGMATE_S3_ROOT_USER", "MINIO_ROOT_USER"},
	"s3_root_password":   {"LOGMATE_S3_ROOT_PASSWORD", "MINIO_ROOT_PASSWORD"},
	"s3_bucket":          {"LOGMATE_S3_BUCKET"},
	"s3_receipts_bucket": {"LOGMATE_S3_RECEIPTS_BUCKET"},
	"s3_region":          {"LOGMATE_S3_REGION", "AWS_REGION"},
	"s3_base_endpoint":   {"LOGMATE_S3_BASE_ENDPOINT"},
	"cache_dir":          {"LOGMATE_CACHE_DIR"},
	"log_backend":        {"LOGMATE_LOG_BACKEND"},
	"log_level":          {"LOGMATE_LOG_LEVEL"},
	"log_format":         {"LOGMATE_LOG_FORMAT"},

	"key_pair_validity_duration":       {"LOGMATE_KEY_PAIR_VALIDITY"},
	"one_life_token_validity_duration": {"LOGMATE_ONE_LIFE_TOKEN_VALIDITY"},
}

// parseEnv overlays environment variables onto config using a private viper
// instance; unset variables leave fields untouched.
func parseEnv(config *Config) {
	v := viper.New()
	for key, names := range envBindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			panic(err)
		}
	}

	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	str("endpoint_addr_http", &config.EndpointAddrHTTP)
	str("endpoint_addr_grpc", &config.EndpointAddrGRPC)
	str("public_base_url", &config.PublicBaseURL)
	str("database_dsn", &config.DatabaseDSN)
	str("redis_addr", &config.RedisAddr)
	str("redis_password", &config.RedisPassword)
	str("secret_key", &config.SecretKey)
	str("aes_key", &config.AESKey)
	str("key_seal_secret", &config.KeySealSecret)
	str("tag_pepper", &config.TagPepper)
	str("s3_root_user", &config.S3RootUser)
	str("s3_root_password", &config.S3RootPassword)
	str("s3_bucket", &config.S3Bucket)
	str("s3_receipts_bucket", &config.S3ReceiptsBucket)
	str("s3_region", &config.S3Region)
	str("s3_base_endpoint", &config.S3BaseEndpoint)
	str("cache_dir", &config.CacheDir)
	str("log_backend", &config.LogBackend)
	str("log_level", &config.LogLevel)
	str("log_format", &config.LogFormat)

	if v.IsSet("redis_db") {
		config.RedisDB = v.GetInt("redis_db")
	}
	if v.IsSet("key_pair_validity_duration") {
		config.KeyPairValidityDuration = v.GetDuration("key_pair_validity_duration")
	}
	if v.IsSet("one_life_token_validity_duration") {
		config.OneLifeTokenValidityDuration = v.GetDuration("one_life_token_validity_duration")
	}
}
