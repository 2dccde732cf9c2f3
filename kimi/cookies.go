package kimi

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/muran-prog/kimi-go/core"
)

// AuthCookieName is the cookie that carries the Kimi session token.
// Credential loading fails when it is absent.
const AuthCookieName = "kimi-auth"

// Cookie is one record of a Netscape-format cookie file.
type Cookie struct {
	Domain   string
	Path     string
	Secure   bool
	Expires  int64
	Name     string
	Value    string
	HTTPOnly bool
}

// Credentials holds the cookie set exported from a browser session and the
// extracted auth token. Credentials are immutable after loading.
type Credentials struct {
	cookies   []Cookie
	authToken core.Secret
}

// LoadCredentials reads and parses a Netscape-format cookie file.
// An unreadable or unparseable file yields ErrConfiguration; a readable file
// without the kimi-auth cookie yields ErrAuthentication.
func LoadCredentials(path string) (*Credentials, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &core.Error{
			Op:      "load_credentials",
			Message: fmt.Sprintf("cannot read cookie file: %v", err),
			Err:     core.ErrConfiguration,
		}
	}
	defer f.Close()
	return ParseCredentials(f)
}

// ParseCredentials parses Netscape-format cookie records from r.
// Lines starting with "#HttpOnly_" are cookie records, not comments.
func ParseCredentials(r io.Reader) (*Credentials, error) {
	scanner := bufio.NewScanner(r)
	var cookies []Cookie
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		httpOnly := false
		if rest, ok := strings.CutPrefix(line, "#HttpOnly_"); ok {
			httpOnly = true
			line = rest
		} else if strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			return nil, parseError(lineNo, fmt.Sprintf("expected 7 tab-separated fields, got %d", len(fields)))
		}

		expires, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return nil, parseError(lineNo, "invalid expiry timestamp")
		}

		cookies = append(cookies, Cookie{
			Domain:   fields[0],
			Path:     fields[2],
			Secure:   strings.EqualFold(fields[3], "TRUE"),
			Expires:  expires,
			Name:     fields[5],
			Value:    fields[6],
			HTTPOnly: httpOnly,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, &core.Error{
			Op:      "parse_credentials",
			Message: fmt.Sprintf("cannot read cookie data: %v", err),
			Err:     core.ErrConfiguration,
		}
	}

	creds := &Credentials{cookies: cookies}
	for _, c := range cookies {
		if c.Name == AuthCookieName && c.Value != "" {
			creds.authToken = core.NewSecret(c.Value)
		}
	}
	if creds.authToken.IsEmpty() {
		return nil, &core.Error{
			Op:      "parse_credentials",
			Message: fmt.Sprintf("required cookie %q not found", AuthCookieName),
			Err:     core.ErrAuthentication,
		}
	}
	return creds, nil
}

func parseError(line int, msg string) error {
	return &core.Error{
		Op:      "parse_credentials",
		Message: fmt.Sprintf("line %d: %s", line, msg),
		Err:     core.ErrConfiguration,
	}
}

// AuthToken returns the session token extracted from the kimi-auth cookie.
func (c *Credentials) AuthToken() core.Secret {
	return c.authToken
}

// Cookies returns the cookie set as a name→value map. When a name appears
// more than once, the last record wins.
func (c *Credentials) Cookies() map[string]string {
	m := make(map[string]string, len(c.cookies))
	for _, ck := range c.cookies {
		m[ck.Name] = ck.Value
	}
	return m
}

// CookieHeader renders the cookie set as a Cookie header value,
// preserving file order.
func (c *Credentials) CookieHeader() string {
	var b strings.Builder
	for i, ck := range c.cookies {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ck.Name)
		b.WriteByte('=')
		b.WriteString(ck.Value)
	}
	return b.String()
}
