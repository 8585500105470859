package config

import (
	"flag"
	"os"
	"time"

	"github.com/logm8/logmate/internal/flagx"
)

// parseFlags overlays command-line flags onto config.
//
//	-a string   HTTP bind address
//	-grpc string gRPC health bind address
//	-d string   PostgreSQL DSN
//	-r string   Redis address
//	-s string   JWT HMAC secret for admin tokens
//	-k string   AES pre-shared key
//	-t int      one-time token validity, minutes
//	-n int      key pair validity, minutes
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 assets bucket
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-l string   log level
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-grpc", "-d", "-r", "-s", "-k", "-t", "-n", "-u", "-p", "-b", "-g", "-e", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "grpc", config.EndpointAddrGRPC, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "admin token secret key")
	fs.StringVar(&config.AESKey, "k", config.AESKey, "AES pre-shared key")

	tokenValidity := fs.Int("t", int(config.OneLifeTokenValidityDuration.Minutes()), "one-time token validity (in minutes)")
	keyValidity := fs.Int("n", int(config.KeyPairValidityDuration.Minutes()), "key pair validity (in minutes)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 assets bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.OneLifeTokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
	config.KeyPairValidityDuration = time.Duration(*keyValidity) * time.Minute
}
