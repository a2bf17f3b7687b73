// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package certgen generates throwaway self-signed TLS certificates.
//
// Certificates are written as PEM files into a fresh temporary directory by a
// [Provider]. [OpenSSL] shells out to the openssl tool, [Builtin] does the
// same in-process, so nothing depends on openssl being installed.
package certgen

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultValidity is how long generated certificates are valid.
const DefaultValidity = 365 * 24 * time.Hour

// DefaultSubject returns the placeholder distinguished name of generated
// certificates: /C=US/ST=State/L=City/O=Organization/CN=localhost.
func DefaultSubject() pkix.Name {
	return pkix.Name{
		Country:      []string{"US"},
		Province:     []string{"State"},
		Locality:     []string{"City"},
		Organization: []string{"Organization"},
		CommonName:   "localhost",
	}
}

// Request describes a certificate a [Provider] has to write.
type Request struct {
	// CertFile is where the PEM-encoded certificate goes.
	CertFile string
	// KeyFile is where the unencrypted PEM-encoded private key goes.
	KeyFile string
	// Subject is the distinguished name of the certificate.
	Subject pkix.Name
	// Validity is how long the certificate is valid, starting now.
	Validity time.Duration
	// Hosts are additional host names or IP addresses the certificate is
	// valid for. Providers may ignore them.
	Hosts []string
}

// Provider writes a self-signed certificate and its private key.
type Provider interface {
	Write(context.Context, *Request) error
}

// Options configure [Generate]. The zero value is ready to use.
type Options struct {
	// Subject defaults to DefaultSubject().
	Subject *pkix.Name
	// Validity defaults to DefaultValidity.
	Validity time.Duration
	// Hosts are passed to the provider as is.
	Hosts []string
	// TempDir is where the certificate directory is created. Empty means
	// os.TempDir().
	TempDir string
}

// Pair is a generated certificate and key on disk.
type Pair struct {
	Dir      string    // private directory holding both files
	CertFile string    // Dir/cert.pem
	KeyFile  string    // Dir/key.pem
	NotAfter time.Time // expiry of the certificate
}

// Generate creates a new temporary directory and lets p write a certificate
// and a key into it. The result is checked to load as an X.509 key pair.
//
// On any failure the directory is removed and the error returned, including
// whatever the provider reported.
func Generate(ctx context.Context, p Provider, opts Options) (*Pair, error) {
	subject := DefaultSubject()
	if opts.Subject != nil {
		subject = *opts.Subject
	}
	validity := opts.Validity
	if validity <= 0 {
		validity = DefaultValidity
	}

	dir, err := os.MkdirTemp(opts.TempDir, "xrayserve-")
	if err != nil {
		return nil, fmt.Errorf("creating certificate directory: %w", err)
	}
	pair := &Pair{
		Dir:      dir,
		CertFile: filepath.Join(dir, "cert.pem"),
		KeyFile:  filepath.Join(dir, "key.pem"),
	}

	fail := func(err error) (*Pair, error) {
		os.RemoveAll(dir)
		return nil, err
	}

	if err := p.Write(ctx, &Request{
		CertFile: pair.CertFile,
		KeyFile:  pair.KeyFile,
		Subject:  subject,
		Validity: validity,
		Hosts:    opts.Hosts,
	}); err != nil {
		return fail(fmt.Errorf("generating certificate: %w", err))
	}

	cert, err := pair.Load()
	if err != nil {
		return fail(err)
	}
	pair.NotAfter = cert.Leaf.NotAfter

	return pair, nil
}

// Load reads the pair from disk.
func (p *Pair) Load() (tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(p.CertFile, p.KeyFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("loading certificate: %w", err)
	}
	if cert.Leaf == nil {
		leaf, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("parsing certificate: %w", err)
		}
		cert.Leaf = leaf
	}
	return cert, nil
}

// Remove deletes the certificate, the key and then their directory. Files
// that are already gone are not an error, so Remove can be called more than
// once.
func (p *Pair) Remove() error {
	var errs []error
	for _, name := range []string{p.CertFile, p.KeyFile, p.Dir} {
		if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ByName returns the provider called name: "openssl", "builtin" or "auto".
func ByName(name string) (Provider, error) {
	switch name {
	case "openssl":
		return OpenSSL{}, nil
	case "builtin":
		return Builtin{}, nil
	case "", "auto":
		return Auto(), nil
	default:
		return nil, fmt.Errorf("unknown certificate provider %q (want auto, openssl or builtin)", name)
	}
}

// Auto returns [OpenSSL] if the openssl tool is on PATH, and [Builtin]
// otherwise.
func Auto() Provider {
	if path, err := exec.LookPath("openssl"); err == nil {
		return OpenSSL{Path: path}
	}
	return Builtin{}
}

// days converts d to whole days, rounding up, at least one.
func days(d time.Duration) int {
	n := int((d + 24*time.Hour - 1) / (24 * time.Hour))
	return max(n, 1)
}

// subjectString formats name the way openssl's -subj flag wants it.
func subjectString(name pkix.Name) string {
	var sb strings.Builder
	add := func(key string, vals ...string) {
		for _, v := range vals {
			if v == "" {
				continue
			}
			sb.WriteString("/" + key + "=" + strings.ReplaceAll(v, "/", `\/`))
		}
	}
	add("C", name.Country...)
	add("ST", name.Province...)
	add("L", name.Locality...)
	add("O", name.Organization...)
	add("OU", name.OrganizationalUnit...)
	add("CN", name.CommonName)
	return sb.String()
}
