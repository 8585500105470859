// Command admintoken mints a bearer token for the /admin endpoints, signed
// with the same secret the server is configured with (-s, LOGMATE_SECRET_KEY
// or the JSON config).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/logm8/logmate/internal/flagx"
	"github.com/logm8/logmate/internal/server/auth"
	"github.com/logm8/logmate/internal/server/config"
)

func main() {
	cfg := config.LoadConfig()

	fs := flag.NewFlagSet("admintoken", flag.ExitOnError)
	subject := fs.String("subject", "ops", "token subject")
	ttl := fs.Duration("ttl", cfg.AdminTokenValidityDuration, "token validity")
	_ = fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-subject", "-ttl"}))

	tok, err := auth.GenerateToken(*subject, auth.RoleAdmin, []byte(cfg.SecretKey), *ttl)
	if err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Println(tok)
}
