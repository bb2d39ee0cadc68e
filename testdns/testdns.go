// Package testdns provides an in-memory DNS-01 provider for tests. The
// core library never waits on DNS propagation itself (that's left to
// the authority), so this package exists purely to let tests assert
// the exact record an orchestrator published/retracted, and to
// exercise the rendering of that record as a real miekg/dns resource
// record rather than a bare string.
package testdns

import (
	"errors"
	"fmt"
	"sync"

	"github.com/miekg/dns"
)

// Provider is an in-memory DNSProvider implementation (it satisfies
// acmedns.DNSProvider structurally — this package deliberately does
// not import acmedns, keeping the dependency direction test-only).
type Provider struct {
	mu      sync.Mutex
	records map[string]string // domain -> current TXT value
	Created []Call
	Deleted []Call

	// FailCreate, if non-nil, is returned by CreateAuthRecord instead
	// of creating the record.
	FailCreate error
}

// Call records one invocation of CreateAuthRecord/DeleteAuthRecord.
type Call struct {
	Domain string
	Value  string
}

// New returns an empty in-memory provider.
func New() *Provider {
	return &Provider{records: make(map[string]string)}
}

func (p *Provider) CreateAuthRecord(domain, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailCreate != nil {
		return p.FailCreate
	}
	p.records[domain] = value
	p.Created = append(p.Created, Call{Domain: domain, Value: value})
	return nil
}

func (p *Provider) DeleteAuthRecord(domain, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	// Idempotent: deleting a record that was never created, or whose
	// value no longer matches, is not an error.
	if current, ok := p.records[domain]; ok && current == value {
		delete(p.records, domain)
	}
	p.Deleted = append(p.Deleted, Call{Domain: domain, Value: value})
	return nil
}

// ErrNotFound is returned by TXTRecord when no record is currently
// published for domain.
var ErrNotFound = errors.New("testdns: no record published for domain")

// TXTRecord renders the currently published record for domain as a
// real miekg/dns TXT resource record, so tests can assert against
// wire-format RRs rather than bare strings.
func (p *Provider) TXTRecord(domain string) (*dns.TXT, error) {
	p.mu.Lock()
	value, ok := p.records[domain]
	p.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	fqdn := fmt.Sprintf("_acme-challenge.%s.", domain)
	return &dns.TXT{
		Hdr: dns.RR_Header{
			Name:   fqdn,
			Rrtype: dns.TypeTXT,
			Class:  dns.ClassINET,
			Ttl:    30,
		},
		Txt: []string{value},
	}, nil
}
