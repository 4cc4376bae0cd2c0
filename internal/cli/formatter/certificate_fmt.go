package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/learnpath/internal/domain"
)

// FormatCertificate renders an issued certificate for its owner.
func FormatCertificate(cert *domain.Certificate) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s\n", Dim("Recipient:"), Bold(cert.RecipientName)))
	if cert.RecipientEmail != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", Dim("Email:    "), cert.RecipientEmail))
	}
	b.WriteString(fmt.Sprintf("%s %s\n", Dim("Issued:   "), cert.IssuedAt.UTC().Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf("%s %s %s\n", Dim("ID:       "), cert.ID, Dim("("+cert.DisplayID()+")")))
	return RenderBox("Certificate", b.String())
}

// FormatVerification renders the public view of a certificate.
func FormatVerification(v *domain.CertificateVerification) string {
	var b strings.Builder
	b.WriteString(StyleGreen.Render("✔ Valid certificate") + "\n\n")
	b.WriteString(fmt.Sprintf("%s %s\n", Dim("Recipient:"), Bold(v.RecipientName)))
	b.WriteString(fmt.Sprintf("%s %s\n", Dim("Issued:   "), v.IssuedAt.UTC().Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf("%s %s\n", Dim("ID:       "), v.CertificateID))
	return RenderBox("Verification", b.String())
}
