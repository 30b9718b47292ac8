// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package secrets

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"time"
)

// CertType is the type of a certificate.
type CertType string

const (
	// CACert indicates that the certificate should be a certificate authority.
	CACert CertType = "ca"
	// ServerCert indicates that the certificate should have the ExtKeyUsageServerAuth usage.
	ServerCert CertType = "server"
	// ClientCert indicates that the certificate should have the ExtKeyUsageClientAuth usage.
	ClientCert CertType = "client"
	// ServerClientCert indicates that the certificate should have both the ExtKeyUsageServerAuth
	// and ExtKeyUsageClientAuth usage.
	ServerClientCert CertType = "both"
)

const (
	// DataKeyCertificate is the key in a secret data holding the certificate.
	DataKeyCertificate = "tls.crt"
	// DataKeyPrivateKey is the key in a secret data holding the private key.
	DataKeyPrivateKey = "tls.key"
	// DataKeyCertificateCA is the key in a secret data holding the CA certificate.
	DataKeyCertificateCA = "ca.crt"
	// DataKeyPrivateKeyCA is the key in a secret data holding the CA private key.
	DataKeyPrivateKeyCA = "ca.key"
)

const rsaKeyBits = 2048

// defaultCertificateValidity is used when a CertificateSecretConfig does not set a validity.
var defaultCertificateValidity = 10 * 365 * 24 * time.Hour

// CertificateSecretConfig contains the specification for a to-be-generated certificate.
type CertificateSecretConfig struct {
	// Name is the name of the certificate.
	Name string
	// CommonName is the common name of the certificate subject.
	CommonName string
	// Organization is the organization of the certificate subject.
	Organization []string
	// DNSNames are the DNS subject alternative names.
	DNSNames []string
	// IPAddresses are the IP subject alternative names.
	IPAddresses []net.IP
	// CertType determines the key usages of the certificate.
	CertType CertType
	// Validity is the lifetime of the certificate. If nil, a default of ten years is used.
	Validity *time.Duration
	// SigningCA is the certificate authority signing this certificate. It is required for
	// all certificate types but CACert.
	SigningCA *Certificate
	// Now allows to fake the current time in tests.
	Now func() time.Time
}

// Certificate contains a generated certificate together with its private key and, unless it is
// a CA itself, the CA it has been signed with.
type Certificate struct {
	Name string

	CA *Certificate

	PrivateKey    *rsa.PrivateKey
	PrivateKeyPEM []byte

	Certificate    *x509.Certificate
	CertificatePEM []byte
}

// GenerateCertificate computes a new certificate according to the configuration.
func (s *CertificateSecretConfig) GenerateCertificate() (*Certificate, error) {
	if s.CertType != CACert && s.SigningCA == nil {
		return nil, fmt.Errorf("certificate %q of type %q requires a signing CA", s.Name, s.CertType)
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key for certificate %q: %w", s.Name, err)
	}

	template, err := s.certificateTemplate()
	if err != nil {
		return nil, err
	}

	var (
		parent    = template
		signerKey = privateKey
	)
	if s.CertType != CACert {
		parent = s.SigningCA.Certificate
		signerKey = s.SigningCA.PrivateKey
	}

	certificateDER, err := x509.CreateCertificate(rand.Reader, template, parent, &privateKey.PublicKey, signerKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate %q: %w", s.Name, err)
	}

	certificate, err := x509.ParseCertificate(certificateDER)
	if err != nil {
		return nil, err
	}

	out := &Certificate{
		Name:           s.Name,
		PrivateKey:     privateKey,
		PrivateKeyPEM:  pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privateKey)}),
		Certificate:    certificate,
		CertificatePEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certificateDER}),
	}
	if s.CertType != CACert {
		out.CA = s.SigningCA
	}

	return out, nil
}

func (s *CertificateSecretConfig) certificateTemplate() (*x509.Certificate, error) {
	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, err
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	validity := defaultCertificateValidity
	if s.Validity != nil {
		validity = *s.Validity
	}

	notBefore := now()
	template := &x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			CommonName:   s.CommonName,
			Organization: s.Organization,
		},
		NotBefore:             notBefore,
		NotAfter:              notBefore.Add(validity),
		BasicConstraintsValid: true,
		DNSNames:              s.DNSNames,
		IPAddresses:           s.IPAddresses,
	}

	switch s.CertType {
	case CACert:
		template.IsCA = true
		template.KeyUsage = x509.KeyUsageCertSign | x509.KeyUsageCRLSign
	case ServerCert:
		template.KeyUsage = x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment
		template.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}
	case ClientCert:
		template.KeyUsage = x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment
		template.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth}
	case ServerClientCert:
		template.KeyUsage = x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment
		template.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth}
	default:
		return nil, fmt.Errorf("unsupported certificate type %q", s.CertType)
	}

	return template, nil
}

// LoadCertificate parses a certificate and its private key from their PEM representations.
func LoadCertificate(name string, privateKeyPEM, certificatePEM []byte) (*Certificate, error) {
	keyBlock, _ := pem.Decode(privateKeyPEM)
	if keyBlock == nil {
		return nil, fmt.Errorf("certificate %q: no PEM block found in private key", name)
	}
	privateKey, err := x509.ParsePKCS1PrivateKey(keyBlock.Bytes)
	if err != nil {
		return nil, fmt.Errorf("certificate %q: cannot parse private key: %w", name, err)
	}

	certBlock, _ := pem.Decode(certificatePEM)
	if certBlock == nil {
		return nil, fmt.Errorf("certificate %q: no PEM block found in certificate", name)
	}
	certificate, err := x509.ParseCertificate(certBlock.Bytes)
	if err != nil {
		return nil, fmt.Errorf("certificate %q: cannot parse certificate: %w", name, err)
	}

	return &Certificate{
		Name:           name,
		PrivateKey:     privateKey,
		PrivateKeyPEM:  privateKeyPEM,
		Certificate:    certificate,
		CertificatePEM: certificatePEM,
	}, nil
}

// SecretData computes the data map which can be used in a Kubernetes secret.
func (c *Certificate) SecretData() map[string][]byte {
	data := map[string][]byte{}

	switch {
	case c.CA == nil:
		// The certificate is a CA itself.
		data[DataKeyCertificateCA] = c.CertificatePEM
		data[DataKeyPrivateKeyCA] = c.PrivateKeyPEM
	default:
		data[DataKeyCertificateCA] = c.CA.CertificatePEM
		data[DataKeyCertificate] = c.CertificatePEM
		data[DataKeyPrivateKey] = c.PrivateKeyPEM
	}

	return data
}
