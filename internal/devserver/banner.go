// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package devserver

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"go.astrophena.name/xrayserve/internal/certgen"
	"go.astrophena.name/xrayserve/internal/netutil"
)

type banner struct {
	title     string
	scheme    string
	localHost string
	port      int
	pair      *certgen.Pair
}

func (b *banner) url(host string) string {
	return fmt.Sprintf("%s://%s:%d", b.scheme, host, b.port)
}

// printBanner tells the developer where to point their browsers. The output
// is meant for humans, not for parsing.
func printBanner(w io.Writer, b *banner) {
	var sb strings.Builder
	p := func(format string, args ...any) { fmt.Fprintf(&sb, format+"\n", args...) }

	if b.scheme == "https" {
		p("\n🌍 %s HTTPS Server", b.title)
		p("%s", strings.Repeat("=", 50))
		p("\n📱 To test on your phone:")
	} else {
		p("\n🌍 %s Server", b.title)
		p("%s", strings.Repeat("=", 50))
		p("\n📱 To test on your phone, visit:")
	}
	p("   %s", b.url(b.localHost))
	p("\n💻 Or on this computer:")
	p("   %s", b.url(netutil.Loopback))

	if b.scheme == "https" {
		p("\n⚠️  Your browser will show a security warning.")
		p("   Click 'Advanced' and 'Proceed' to continue.")
		if b.pair != nil {
			p("\n🔒 Certificate expires %s (%s).", humanize.Time(b.pair.NotAfter), b.pair.NotAfter.Format("2006-01-02"))
		}
	} else {
		p("\n⚠️  Note: Some features require HTTPS. For production use,")
		p("   deploy to a service like GitHub Pages or Netlify.")
	}
	p("\nPress Ctrl+C to stop the server.\n")

	io.WriteString(w, sb.String())
}
