// Command acmedns is a thin demonstration of the acmedns library:
// flag defaults for the authority URLs, log.Fatal on construction
// error. Concrete DNS provider wiring is left to the caller; this
// command ships only a stdout-printing stub so the binary runs end to
// end against a real or staging authority.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/kelseyhightower/acmedns"
)

var (
	domain         = flag.String("domain", "", "domain to request a certificate for")
	directoryURL   = flag.String("acme-url", "https://acme-staging.api.letsencrypt.org/directory", "ACME directory/nonce endpoint")
	authorityURL   = flag.String("authority-url", "https://acme-staging.api.letsencrypt.org", "ACME authority base URL")
	tosURL         = flag.String("tos-url", "", "terms of service URL to agree to")
	issuerChainURL = flag.String("chain-url", "", "issuer chain URL")
	email          = flag.String("email", "", "registration recovery contact email")
	maxPolls       = flag.Int("max-polls", acmedns.DefaultMaxPolls, "maximum number of challenge status polls")
	challengeWait  = flag.Duration("challenge-wait", acmedns.DefaultChallengeWait, "delay between challenge status polls")
)

// stdoutDNSProvider prints the TXT record a real provider would
// publish instead of calling out to one — a stand-in for the concrete
// DNS provider implementations the core library leaves to the caller.
type stdoutDNSProvider struct{}

func (stdoutDNSProvider) CreateAuthRecord(domain, value string) error {
	fmt.Printf("create TXT _acme-challenge.%s. %q\n", domain, value)
	return nil
}

func (stdoutDNSProvider) DeleteAuthRecord(domain, value string) error {
	fmt.Printf("delete TXT _acme-challenge.%s. %q\n", domain, value)
	return nil
}

func main() {
	flag.Parse()
	if *domain == "" {
		log.Fatal("acmedns: -domain is required")
	}

	client, err := acmedns.New(*domain, stdoutDNSProvider{}, acmedns.Options{
		RegistrationRecoveryEmail: *email,
		DirectoryURL:              *directoryURL,
		AuthorityBaseURL:          *authorityURL,
		TOSURL:                    *tosURL,
		IssuerChainURL:            *issuerChainURL,
		MaxPolls:                  *maxPolls,
		ChallengeWait:             *challengeWait,
		Sink:                      acmedns.NewStdLogSink(nil),
	})
	if err != nil {
		log.Fatalf("acmedns: constructing client: %v", err)
	}

	started := time.Now()
	bundle, err := client.Issue()
	if err != nil {
		log.Fatalf("acmedns: issuance failed after %s: %v", time.Since(started), err)
	}

	fmt.Print(string(bundle.Bytes))
}
