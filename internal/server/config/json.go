package config

import (
	"encoding/json"
	"os"

	"github.com/logm8/logmate/internal/flagx"
	"github.com/logm8/logmate/internal/timex"
)

// JsonConfig mirrors Config for JSON decoding. Durations accept "45m" style
// strings or integer nanoseconds. Absent or zero fields leave the current
// value untouched.
type JsonConfig struct {
	EndpointAddrHTTP string `json:"endpoint_addr_http"`
	EndpointAddrGRPC string `json:"endpoint_addr_grpc"`
	PublicBaseURL    string `json:"public_base_url"`

	DatabaseDSN   string `json:"database_dsn"`
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`

	SecretKey     string `json:"secret_key"`
	AESKey        string `json:"aes_key"`
	KeySealSecret string `json:"key_seal_secret"`
	TagPepper     string `json:"tag_pepper"`

	RSAKeyBits                   int            `json:"rsa_key_bits"`
	KeyPairValidityDuration      timex.Duration `json:"key_pair_validity_duration"`
	OneLifeTokenValidityDuration timex.Duration `json:"one_life_token_validity_duration"`
	AdminTokenValidityDuration   timex.Duration `json:"admin_token_validity_duration"`

	S3RootUser                string `json:"s3_root_user"`
	S3RootPassword            string `json:"s3_root_password"`
	S3Bucket                  string `json:"s3_bucket"`
	S3ReceiptsBucket          string `json:"s3_receipts_bucket"`
	S3Region                  string `json:"s3_region"`
	S3BaseEndpoint            string `json:"s3_base_endpoint"`
	ServiceOptionsSnapshotKey string `json:"service_options_snapshot_key"`
	CacheDir                  string `json:"cache_dir"`

	LogBackend string `json:"log_backend"`
	LogLevel   string `json:"log_level"`
	LogFormat  string `json:"log_format"`
}

// parseJson overlays the file named by -c/-config onto config. A missing
// flag is a no-op; an unreadable or invalid file panics, like bad flags do.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.applyTo(config)
}

func (c *JsonConfig) applyTo(config *Config) {
	str := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	str(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	str(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	str(&config.PublicBaseURL, c.PublicBaseURL)
	str(&config.DatabaseDSN, c.DatabaseDSN)
	str(&config.RedisAddr, c.RedisAddr)
	str(&config.RedisPassword, c.RedisPassword)
	str(&config.SecretKey, c.SecretKey)
	str(&config.AESKey, c.AESKey)
	str(&config.KeySealSecret, c.KeySealSecret)
	str(&config.TagPepper, c.TagPepper)
	str(&config.S3RootUser, c.S3RootUser)
	str(&config.S3RootPassword, c.S3RootPassword)
	str(&config.S3Bucket, c.S3Bucket)
	str(&config.S3ReceiptsBucket, c.S3ReceiptsBucket)
	str(&config.S3Region, c.S3Region)
	str(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	str(&config.ServiceOptionsSnapshotKey, c.ServiceOptionsSnapshotKey)
	str(&config.CacheDir, c.CacheDir)
	str(&config.LogBackend, c.LogBackend)
	str(&config.LogLevel, c.LogLevel)
	str(&config.LogFormat, c.LogFormat)

	if c.RedisDB != 0 {
		config.RedisDB = c.RedisDB
	}
	if c.RSAKeyBits != 0 {
		config.RSAKeyBits = c.RSAKeyBits
	}
	if c.KeyPairValidityDuration.Duration != 0 {
		config.KeyPairValidityDuration = c.KeyPairValidityDuration.Duration
	}
	if c.OneLifeTokenValidityDuration.Duration != 0 {
		config.OneLifeTokenValidityDuration = c.OneLifeTokenValidityDuration.Duration
	}
	if c.AdminTokenValidityDuration.Duration != 0 {
		config.AdminTokenValidityDuration = c.AdminTokenValidityDuration.Duration
	}
}
