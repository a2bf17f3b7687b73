// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package certgen

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"math/big"
	"net"
	"os"
	"slices"
	"time"

	"go.astrophena.name/xrayserve/internal/atomicio"
)

// Builtin is a [Provider] that generates an RSA key and a self-signed
// certificate with crypto/x509.
//
// Certificates are valid for localhost, 127.0.0.1, ::1 and [Request.Hosts].
type Builtin struct {
	// Bits is the RSA key size. Zero means 2048.
	Bits int
	// Rand is the source of randomness. Nil means crypto/rand.Reader.
	Rand io.Reader
	// Now returns the current time. Nil means time.Now.
	Now func() time.Time
}

// Write implements the [Provider] interface.
func (b Builtin) Write(ctx context.Context, r *Request) error {
	bits := b.Bits
	if bits == 0 {
		bits = 2048
	}
	random := b.Rand
	if random == nil {
		random = rand.Reader
	}
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}

	key, err := rsa.GenerateKey(random, bits)
	if err != nil {
		return fmt.Errorf("generating RSA key: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	serial, err := rand.Int(random, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return fmt.Errorf("generating serial number: %w", err)
	}

	notBefore := now()
	tmpl := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               r.Subject,
		NotBefore:             notBefore,
		NotAfter:              notBefore.Add(r.Validity),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	for _, h := range append([]string{"localhost", "127.0.0.1", "::1"}, r.Hosts...) {
		if ip := net.ParseIP(h); ip != nil {
			if !slices.ContainsFunc(tmpl.IPAddresses, ip.Equal) {
				tmpl.IPAddresses = append(tmpl.IPAddresses, ip)
			}
			continue
		}
		if !slices.Contains(tmpl.DNSNames, h) {
			tmpl.DNSNames = append(tmpl.DNSNames, h)
		}
	}

	der, err := x509.CreateCertificate(random, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return fmt.Errorf("creating certificate: %w", err)
	}
	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return fmt.Errorf("marshaling private key: %w", err)
	}

	if err := writePEM(r.KeyFile, "PRIVATE KEY", keyDER, 0o600); err != nil {
		return err
	}
	return writePEM(r.CertFile, "CERTIFICATE", der, 0o644)
}

func writePEM(name, typ string, der []byte, perm os.FileMode) error {
	b := pem.EncodeToMemory(&pem.Block{Type: typ, Bytes: der})
	if err := atomicio.WriteFile(name, b, perm); err != nil {
		return fmt.Errorf("writing %s: %w", typ, err)
	}
	return nil
}
