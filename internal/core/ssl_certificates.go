package core

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/hostpanel/internal/crypto"
	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/platform"
	"github.com/edvin/hostpanel/internal/store"
)

const letsEncryptIssuer = "Let's Encrypt"

type SslCertificateInput struct {
	DomainID    int64      `json:"domainId" validate:"required,gt=0"`
	Type        string     `json:"type" validate:"required,oneof=lets_encrypt custom"`
	Status      string     `json:"status" validate:"omitempty,oneof=pending active expired failed"`
	Issuer      string     `json:"issuer" validate:"max=200"`
	ValidFrom   *time.Time `json:"validFrom"`
	ValidTo     *time.Time `json:"validTo"`
	AutoRenew   *bool      `json:"autoRenew"`
	Certificate *string    `json:"certificate"`
	PrivateKey  *string    `json:"privateKey"`
}

type UpdateSslCertificateInput struct {
	Status      *string    `json:"status" validate:"omitempty,oneof=pending active expired failed"`
	Issuer      *string    `json:"issuer" validate:"omitempty,max=200"`
	ValidFrom   *time.Time `json:"validFrom"`
	ValidTo     *time.Time `json:"validTo"`
	AutoRenew   *bool      `json:"autoRenew"`
	Certificate *string    `json:"certificate"`
	PrivateKey  *string    `json:"privateKey"`
}

type SslCertificateService struct {
	store store.Store
	clock platform.Clock
	log   zerolog.Logger
	key   []byte
}

func NewSslCertificateService(d Deps) *SslCertificateService {
	return &SslCertificateService{
		store: d.Store,
		clock: d.Clock,
		log:   d.Logger.With().Str("component", "ssl").Logger(),
		key:   d.SecretsKey,
	}
}

func (s *SslCertificateService) List(ctx context.Context, actor Actor, userID *int64) ([]model.SslCertificate, error) {
	f, err := actor.scope(userID)
	if err != nil {
		return nil, err
	}
	certs, err := s.store.ListSslCertificates(ctx, f)
	if err != nil {
		return nil, storeErr(err, "ssl certificate")
	}
	return certs, nil
}

func (s *SslCertificateService) ListByDomain(ctx context.Context, actor Actor, domainID int64) ([]model.SslCertificate, error) {
	if _, err := ownedDomain(ctx, s.store, actor, domainID); err != nil {
		return nil, err
	}
	certs, err := s.store.ListSslCertificates(ctx, store.Filter{DomainID: &domainID})
	if err != nil {
		return nil, storeErr(err, "ssl certificate")
	}
	return certs, nil
}

func (s *SslCertificateService) Get(ctx context.Context, actor Actor, id int64) (*model.SslCertificate, error) {
	c, err := s.store.GetSslCertificate(ctx, id)
	if err != nil {
		return nil, storeErr(err, "ssl certificate")
	}
	if err := actor.authorize(c.UserID); err != nil {
		return nil, err
	}
	return c, nil
}

// Create records a certificate for a domain. Let's Encrypt certificates
// start pending with auto-renew on; custom certificates take their issuer
// and validity from the supplied PEM.
func (s *SslCertificateService) Create(ctx context.Context, actor Actor, in SslCertificateInput) (*model.SslCertificate, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	d, err := ownedDomain(ctx, s.store, actor, in.DomainID)
	if err != nil {
		return nil, err
	}

	c := &model.SslCertificate{
		DomainID:  d.ID,
		UserID:    d.UserID,
		Type:      in.Type,
		Status:    in.Status,
		Issuer:    in.Issuer,
		ValidFrom: in.ValidFrom,
		ValidTo:   in.ValidTo,
		CreatedAt: s.clock.Now(),
	}
	if in.Type == model.SSLTypeLetsEncrypt {
		c.Issuer = defaultString(c.Issuer, letsEncryptIssuer)
		c.AutoRenew = true
		c.Status = defaultString(c.Status, model.StatusPending)
	}
	if in.AutoRenew != nil {
		c.AutoRenew = *in.AutoRenew
	}
	if in.Certificate != nil {
		if err := s.applyCertificate(c, *in.Certificate); err != nil {
			return nil, err
		}
	}
	if in.PrivateKey != nil {
		if err := s.sealKey(c, *in.PrivateKey); err != nil {
			return nil, err
		}
	}
	c.Status = defaultString(c.Status, model.StatusPending)

	if err := s.store.CreateSslCertificate(ctx, c); err != nil {
		return nil, storeErr(err, "ssl certificate")
	}
	s.log.Info().Int64("certificate_id", c.ID).Str("domain", d.Domain).Str("type", c.Type).Msg("ssl certificate created")
	return c, nil
}

func (s *SslCertificateService) Update(ctx context.Context, actor Actor, id int64, in UpdateSslCertificateInput) (*model.SslCertificate, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	c, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	assign(&c.Status, in.Status)
	assign(&c.Issuer, in.Issuer)
	assign(&c.AutoRenew, in.AutoRenew)
	if in.ValidFrom != nil {
		c.ValidFrom = in.ValidFrom
	}
	if in.ValidTo != nil {
		c.ValidTo = in.ValidTo
	}
	if in.Certificate != nil {
		if err := s.applyCertificate(c, *in.Certificate); err != nil {
			return nil, err
		}
	}
	if in.PrivateKey != nil {
		if err := s.sealKey(c, *in.PrivateKey); err != nil {
			return nil, err
		}
	}
	if err := s.store.UpdateSslCertificate(ctx, c); err != nil {
		return nil, storeErr(err, "ssl certificate")
	}
	return c, nil
}

func (s *SslCertificateService) Delete(ctx context.Context, actor Actor, id int64) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.store.DeleteSslCertificate(ctx, id); err != nil {
		return storeErr(err, "ssl certificate")
	}
	return nil
}

// applyCertificate stores the leaf PEM and copies issuer and validity from
// it. Status follows the validity window.
func (s *SslCertificateService) applyCertificate(c *model.SslCertificate, certPEM string) error {
	certPEM = strings.TrimSpace(certPEM)
	block, _ := pem.Decode([]byte(certPEM))
	if block == nil || block.Type != "CERTIFICATE" {
		return InvalidInput("certificate must be a PEM encoded CERTIFICATE block")
	}
	leaf, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return InvalidInput("certificate could not be parsed: %v", err)
	}
	from, to := leaf.NotBefore.UTC(), leaf.NotAfter.UTC()
	c.Certificate = &certPEM
	c.ValidFrom = &from
	c.ValidTo = &to
	if leaf.Issuer.CommonName != "" {
		c.Issuer = leaf.Issuer.CommonName
	} else if len(leaf.Issuer.Organization) > 0 {
		c.Issuer = leaf.Issuer.Organization[0]
	}
	if s.clock.Now().After(to) {
		c.Status = model.StatusExpired
	} else {
		c.Status = model.StatusActive
	}
	return nil
}

// sealKey encrypts the private key with the configured secrets key.
// Without a key, private keys are refused rather than stored in the clear.
func (s *SslCertificateService) sealKey(c *model.SslCertificate, keyPEM string) error {
	if len(s.key) == 0 {
		return InvalidInput("private key storage is not configured")
	}
	keyPEM = strings.TrimSpace(keyPEM)
	block, _ := pem.Decode([]byte(keyPEM))
	if block == nil || !strings.HasSuffix(block.Type, "PRIVATE KEY") {
		return InvalidInput("privateKey must be a PEM encoded private key")
	}
	sealed, err := crypto.Encrypt([]byte(keyPEM), s.key)
	if err != nil {
		return Internal(err, "seal private key")
	}
	c.PrivateKey = &sealed
	c.HasPrivateKey = true
	return nil
}
