package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/miekg/dns"
	"github.com/rs/zerolog"

	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/platform"
	"github.com/edvin/hostpanel/internal/store"
)

const defaultMXPriority = 10

type DnsRecordInput struct {
	DomainID int64  `json:"domainId" validate:"required,gt=0"`
	Name     string `json:"name" validate:"required,max=253"`
	Type     string `json:"type" validate:"required,oneof=A AAAA CNAME MX TXT NS"`
	Value    string `json:"value" validate:"required,max=4096"`
	Priority *int   `json:"priority" validate:"omitempty,gte=0,lte=65535"`
	TTL      int    `json:"ttl" validate:"omitempty,gte=60,lte=604800"`
	Status   string `json:"status" validate:"omitempty,oneof=active pending inactive"`
}

type UpdateDnsRecordInput struct {
	Name     *string `json:"name" validate:"omitempty,max=253"`
	Type     *string `json:"type" validate:"omitempty,oneof=A AAAA CNAME MX TXT NS"`
	Value    *string `json:"value" validate:"omitempty,max=4096"`
	Priority *int    `json:"priority" validate:"omitempty,gte=0,lte=65535"`
	TTL      *int    `json:"ttl" validate:"omitempty,gte=60,lte=604800"`
	Status   *string `json:"status" validate:"omitempty,oneof=active pending inactive"`
}

type DnsRecordService struct {
	store store.Store
	clock platform.Clock
	log   zerolog.Logger
}

func NewDnsRecordService(d Deps) *DnsRecordService {
	return &DnsRecordService{store: d.Store, clock: d.Clock, log: d.Logger.With().Str("component", "dns").Logger()}
}

func (s *DnsRecordService) List(ctx context.Context, actor Actor, userID *int64) ([]model.DnsRecord, error) {
	f, err := actor.scope(userID)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListDnsRecords(ctx, f)
	if err != nil {
		return nil, storeErr(err, "dns record")
	}
	return records, nil
}

func (s *DnsRecordService) ListByDomain(ctx context.Context, actor Actor, domainID int64) ([]model.DnsRecord, error) {
	if _, err := ownedDomain(ctx, s.store, actor, domainID); err != nil {
		return nil, err
	}
	records, err := s.store.ListDnsRecords(ctx, store.Filter{DomainID: &domainID})
	if err != nil {
		return nil, storeErr(err, "dns record")
	}
	return records, nil
}

func (s *DnsRecordService) Get(ctx context.Context, actor Actor, id int64) (*model.DnsRecord, error) {
	r, err := s.store.GetDnsRecord(ctx, id)
	if err != nil {
		return nil, storeErr(err, "dns record")
	}
	if err := actor.authorize(r.UserID); err != nil {
		return nil, err
	}
	return r, nil
}

// Create adds a record to a domain. The record inherits the domain's owner.
func (s *DnsRecordService) Create(ctx context.Context, actor Actor, in DnsRecordInput) (*model.DnsRecord, error) {
	in.Type = strings.ToUpper(strings.TrimSpace(in.Type))
	in.Name = strings.TrimSpace(in.Name)
	in.Value = strings.TrimSpace(in.Value)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	d, err := ownedDomain(ctx, s.store, actor, in.DomainID)
	if err != nil {
		return nil, err
	}

	r := &model.DnsRecord{
		DomainID:  d.ID,
		UserID:    d.UserID,
		Name:      in.Name,
		Type:      in.Type,
		Value:     in.Value,
		Priority:  in.Priority,
		TTL:       in.TTL,
		Status:    defaultString(in.Status, model.StatusActive),
		CreatedAt: s.clock.Now(),
	}
	if r.TTL == 0 {
		r.TTL = model.DefaultTTL
	}
	if err := checkRecord(r, d.Domain); err != nil {
		return nil, err
	}
	if err := s.store.CreateDnsRecord(ctx, r); err != nil {
		return nil, storeErr(err, "dns record")
	}
	s.log.Debug().Int64("record_id", r.ID).Str("type", r.Type).Str("domain", d.Domain).Msg("dns record created")
	return r, nil
}

// Update merges in over the record. An explicit priority is only accepted
// for MX records; a priority left over from a former MX record is dropped
// when the type changes.
func (s *DnsRecordService) Update(ctx context.Context, actor Actor, id int64, in UpdateDnsRecordInput) (*model.DnsRecord, error) {
	if in.Type != nil {
		t := strings.ToUpper(strings.TrimSpace(*in.Type))
		in.Type = &t
	}
	for field, v := range map[string]*string{"name": in.Name, "value": in.Value} {
		if v == nil {
			continue
		}
		*v = strings.TrimSpace(*v)
		if *v == "" {
			return nil, InvalidInput("%s must not be empty", field)
		}
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	r, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	d, err := s.store.GetDomain(ctx, r.DomainID)
	if err != nil {
		return nil, storeErr(err, "domain")
	}
	assign(&r.Name, in.Name)
	assign(&r.Type, in.Type)
	assign(&r.Value, in.Value)
	assign(&r.TTL, in.TTL)
	assign(&r.Status, in.Status)
	if in.Priority != nil {
		r.Priority = in.Priority
	} else if r.Type != "MX" {
		r.Priority = nil
	}
	if err := checkRecord(r, d.Domain); err != nil {
		return nil, err
	}
	if err := s.store.UpdateDnsRecord(ctx, r); err != nil {
		return nil, storeErr(err, "dns record")
	}
	return r, nil
}

func (s *DnsRecordService) Delete(ctx context.Context, actor Actor, id int64) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.store.DeleteDnsRecord(ctx, id); err != nil {
		return storeErr(err, "dns record")
	}
	return nil
}

// Zone renders the domain's active records as a BIND zone file headed by a
// synthesized SOA.
func (s *DnsRecordService) Zone(ctx context.Context, actor Actor, domainID int64) (string, error) {
	d, err := ownedDomain(ctx, s.store, actor, domainID)
	if err != nil {
		return "", err
	}
	records, err := s.store.ListDnsRecords(ctx, store.Filter{DomainID: &domainID})
	if err != nil {
		return "", storeErr(err, "dns record")
	}

	origin := dns.Fqdn(d.Domain)
	soa := &dns.SOA{
		Hdr:     dns.RR_Header{Name: origin, Rrtype: dns.TypeSOA, Class: dns.ClassINET, Ttl: model.DefaultTTL},
		Ns:      "ns1." + origin,
		Mbox:    "hostmaster." + origin,
		Serial:  uint32(s.clock.Now().Unix()),
		Refresh: 3600,
		Retry:   900,
		Expire:  1209600,
		Minttl:  300,
	}

	var b strings.Builder
	fmt.Fprintf(&b, "$ORIGIN %s\n$TTL %d\n", origin, model.DefaultTTL)
	b.WriteString(soa.String())
	b.WriteByte('\n')
	for i := range records {
		r := &records[i]
		if r.Status != model.StatusActive {
			continue
		}
		rr, err := buildRR(r, d.Domain)
		if err != nil {
			s.log.Warn().Err(err).Int64("record_id", r.ID).Msg("skipping unparseable record in zone export")
			continue
		}
		b.WriteString(rr.String())
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// checkRecord normalizes MX priority and verifies the record parses as a
// resource record of its type.
func checkRecord(r *model.DnsRecord, domain string) error {
	switch {
	case r.Type == "MX" && r.Priority == nil:
		p := defaultMXPriority
		r.Priority = &p
	case r.Type != "MX" && r.Priority != nil:
		return InvalidInput("priority is only valid for MX records")
	}
	if _, err := buildRR(r, domain); err != nil {
		return InvalidInput("invalid %s record value %q", r.Type, r.Value)
	}
	return nil
}

func buildRR(r *model.DnsRecord, domain string) (dns.RR, error) {
	rdata := r.Value
	switch r.Type {
	case "MX":
		prio := defaultMXPriority
		if r.Priority != nil {
			prio = *r.Priority
		}
		rdata = strconv.Itoa(prio) + " " + r.Value
	case "TXT":
		rdata = quoteTXT(r.Value)
	}
	rr, err := dns.NewRR(fmt.Sprintf("%s %d IN %s %s", ownerName(r.Name, domain), r.TTL, r.Type, rdata))
	if err != nil {
		return nil, err
	}
	if rr == nil {
		return nil, fmt.Errorf("empty record")
	}
	return rr, nil
}

// ownerName turns a record name relative to domain ("@", "www") into an
// absolute owner name.
func ownerName(name, domain string) string {
	origin := dns.Fqdn(domain)
	switch {
	case name == "" || name == "@":
		return origin
	case strings.HasSuffix(name, "."):
		return name
	case strings.EqualFold(name, domain) || dns.IsSubDomain(origin, dns.Fqdn(name)):
		return dns.Fqdn(name)
	default:
		return name + "." + origin
	}
}

// quoteTXT splits unquoted text into 255-byte character strings.
func quoteTXT(v string) string {
	if strings.HasPrefix(v, `"`) {
		return v
	}
	var parts []string
	for len(v) > 255 {
		parts = append(parts, strconv.Quote(v[:255]))
		v = v[255:]
	}
	parts = append(parts, strconv.Quote(v))
	return strings.Join(parts, " ")
}
