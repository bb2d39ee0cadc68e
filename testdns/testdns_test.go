package testdns

import (
	"testing"

	"github.com/miekg/dns"
)

func TestCreateAuthRecordThenTXTRecord(t *testing.T) {
	p := New()
	if err := p.CreateAuthRecord("example.com", "abc123value"); err != nil {
		t.Fatalf("CreateAuthRecord: %v", err)
	}

	rr, err := p.TXTRecord("example.com")
	if err != nil {
		t.Fatalf("TXTRecord: %v", err)
	}
	if rr.Hdr.Name != "_acme-challenge.example.com." {
		t.Fatalf("Hdr.Name = %q, want _acme-challenge.example.com.", rr.Hdr.Name)
	}
	if rr.Hdr.Rrtype != dns.TypeTXT {
		t.Fatalf("Hdr.Rrtype = %d, want dns.TypeTXT", rr.Hdr.Rrtype)
	}
	if rr.Hdr.Class != dns.ClassINET {
		t.Fatalf("Hdr.Class = %d, want dns.ClassINET", rr.Hdr.Class)
	}
	if len(rr.Txt) != 1 || rr.Txt[0] != "abc123value" {
		t.Fatalf("Txt = %v, want [abc123value]", rr.Txt)
	}

	// The text form re-parses through miekg/dns's own zone-file parser,
	// so the record this package hands back is a real TXT RR and not
	// just a string dressed up to look like one.
	if _, _, err := dns.StringToRR(rr.String() + "\n"); err != nil {
		t.Fatalf("rendered RR did not re-parse: %v", err)
	}

	if len(p.Created) != 1 || p.Created[0].Domain != "example.com" || p.Created[0].Value != "abc123value" {
		t.Fatalf("unexpected Created log: %+v", p.Created)
	}
}

func TestTXTRecordNotFound(t *testing.T) {
	p := New()
	if _, err := p.TXTRecord("example.com"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteAuthRecordRemovesTXTRecord(t *testing.T) {
	p := New()
	if err := p.CreateAuthRecord("example.com", "abc123value"); err != nil {
		t.Fatalf("CreateAuthRecord: %v", err)
	}
	if err := p.DeleteAuthRecord("example.com", "abc123value"); err != nil {
		t.Fatalf("DeleteAuthRecord: %v", err)
	}
	if _, err := p.TXTRecord("example.com"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if len(p.Deleted) != 1 {
		t.Fatalf("expected one recorded delete, got %d", len(p.Deleted))
	}
}

func TestDeleteAuthRecordIdempotentOnStaleValue(t *testing.T) {
	p := New()
	if err := p.CreateAuthRecord("example.com", "first-value"); err != nil {
		t.Fatalf("CreateAuthRecord: %v", err)
	}
	// Deleting with a value that no longer matches the published
	// record must not be an error, and must not remove the record.
	if err := p.DeleteAuthRecord("example.com", "stale-value"); err != nil {
		t.Fatalf("DeleteAuthRecord: %v", err)
	}
	if _, err := p.TXTRecord("example.com"); err != nil {
		t.Fatalf("record was removed by a stale-value delete: %v", err)
	}
}

func TestCreateAuthRecordFailCreate(t *testing.T) {
	p := New()
	p.FailCreate = dns.ErrRdata
	if err := p.CreateAuthRecord("example.com", "abc123value"); err != dns.ErrRdata {
		t.Fatalf("expected FailCreate to be returned, got %v", err)
	}
	if _, err := p.TXTRecord("example.com"); err != ErrNotFound {
		t.Fatalf("record should not have been published: %v", err)
	}
}
