package domain

import "time"

// Certificate is the immutable program-completion credential. At most one
// exists per user.
type Certificate struct {
	ID             string
	UserID         string
	RecipientName  string
	RecipientEmail string
	IssuedAt       time.Time
}

// CertificateVerification is the public view of a certificate.
type CertificateVerification struct {
	CertificateID string
	RecipientName string
	IssuedAt      time.Time
}

// Verification returns the public view of c.
func (c *Certificate) Verification() CertificateVerification {
	return CertificateVerification{
		CertificateID: c.ID,
		RecipientName: c.RecipientName,
		IssuedAt:      c.IssuedAt,
	}
}

// DisplayID returns the first 8 characters of the id for compact display.
func (c *Certificate) DisplayID() string {
	if len(c.ID) >= 8 {
		return c.ID[:8]
	}
	return c.ID
}
