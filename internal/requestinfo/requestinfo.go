//
//  internal/requestinfo/requestinfo.go
//
//  Per-request client metadata: request id, client IP, parsed user-agent,
//  and (optionally) the GeoLite2 country.  The struct is inert, so it is
//  safe to log or JSON-encode.
//
//  Dependencies
//  • github.com/avct/uasurfer          (UA parsing)
//  • github.com/oschwald/geoip2-golang (MaxMind lookup, optional)
//  • github.com/google/uuid            (request ids)
//

package requestinfo

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	surfer "github.com/avct/uasurfer"
	"github.com/google/uuid"
	"github.com/oschwald/geoip2-golang"
)

// HeaderRequestID carries the request id in and out.
const HeaderRequestID = "X-Request-ID"

//
//  -----------------------------
//  Struct definitions
//  -----------------------------
//

// UA holds the user-agent attributes that end up in access logs.
type UA struct {
	Browser string // "Chrome", "Firefox", ...
	Version string // "125.0.6422"
	OS      string // "MacOSX", "Windows", ...
	Device  string // "Desktop", "Phone", "Tablet", "Bot", ...
	IsBot   bool
}

// Info is stored in the request context by AccessLog.
type Info struct {
	RequestID string
	IP        net.IP
	Country   string // ISO code, empty without a GeoDB
	UA        UA
}

//
//  -----------------------------
//  Context helpers
//  -----------------------------
//

type ctxKey struct{}

// FromContext returns the *Info stored by AccessLog, or nil.
func FromContext(ctx context.Context) *Info {
	v, _ := ctx.Value(ctxKey{}).(*Info)
	return v
}

//
//  -----------------------------
//  Geo lookup
//  -----------------------------
//

// Geo resolves IPs to country codes.  A nil *Geo is valid and resolves
// nothing.
type Geo struct {
	reader *geoip2.Reader
}

// OpenGeo opens a GeoLite2 Country or City database.
func OpenGeo(path string) (*Geo, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("requestinfo: open geo db: %w", err)
	}
	return &Geo{reader: r}, nil
}

// Country returns the ISO country code for ip, or "" on any miss.
func (g *Geo) Country(ip net.IP) string {
	if g == nil || g.reader == nil || ip == nil {
		return ""
	}
	rec, err := g.reader.Country(ip)
	if err != nil {
		return ""
	}
	return rec.Country.IsoCode
}

// Close releases the database.
func (g *Geo) Close() error {
	if g == nil || g.reader == nil {
		return nil
	}
	return g.reader.Close()
}

//
//  -----------------------------
//  Internal helpers
//  -----------------------------
//

// collect builds Info for r.  An inbound X-Request-ID is kept when it looks
// sane; otherwise a fresh UUID is issued.
func collect(r *http.Request, geo *Geo) *Info {
	ip := clientIP(r)
	return &Info{
		RequestID: requestID(r.Header.Get(HeaderRequestID)),
		IP:        ip,
		Country:   geo.Country(ip),
		UA:        parseUA(r.UserAgent()),
	}
}

func requestID(in string) string {
	if in != "" && len(in) <= 128 && !strings.ContainsAny(in, "\r\n") {
		return in
	}
	return uuid.NewString()
}

// parseUA converts a raw header into UA using uasurfer.
func parseUA(raw string) UA {
	if raw == "" {
		return UA{Device: "Unknown"}
	}
	u := surfer.Parse(raw)
	return UA{
		Browser: strings.TrimPrefix(u.Browser.Name.String(), "Browser"),
		Version: version(u.Browser.Version),
		OS:      strings.TrimPrefix(u.OS.Name.String(), "OS"),
		Device:  strings.TrimPrefix(u.DeviceType.String(), "Device"),
		IsBot:   u.IsBot(),
	}
}

// version renders major.minor.patch, dropping trailing zero parts.
func version(v surfer.Version) string {
	switch {
	case v.Patch != 0:
		return strconv.Itoa(int(v.Major)) + "." + strconv.Itoa(int(v.Minor)) + "." + strconv.Itoa(int(v.Patch))
	case v.Minor != 0:
		return strconv.Itoa(int(v.Major)) + "." + strconv.Itoa(int(v.Minor))
	case v.Major != 0:
		return strconv.Itoa(int(v.Major))
	}
	return ""
}

// clientIP extracts the left-most address from X-Forwarded-For or
// X-Real-IP, falling back to r.RemoteAddr ("ip:port").
func clientIP(r *http.Request) net.IP {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip
			}
		}
	}
	if xrip := r.Header.Get("X-Real-Ip"); xrip != "" {
		if ip := net.ParseIP(strings.TrimSpace(xrip)); ip != nil {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(r.RemoteAddr)
}
