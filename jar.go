package curling

import (
	"encoding/json"
	"errors"
	"io/fs"
	nethttp "net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/curling-dev/curling/logger"
)

// jarCookie is the serialized form of one stored cookie.
type jarCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain"`
	Path     string    `json:"path"`
	Expires  time.Time `json:"expires,omitzero"`
	Secure   bool      `json:"secure,omitempty"`
	HostOnly bool      `json:"host_only,omitempty"`
	HTTPOnly bool      `json:"http_only,omitempty"`
}

// fileJar is a persistent cookie jar backed by a single JSON file. The
// same path is used for reading pre-existing cookies and for writing
// cookies received from the server. It implements net/http.CookieJar.
//
// The jar is owned by one Request and accessed only from the goroutine
// driving Send, so it carries no locking.
type fileJar struct {
	path    string
	log     logger.Logger
	cookies []jarCookie
}

// newFileJar loads the jar at path. A missing file yields an empty jar;
// an unreadable or corrupt file is logged and treated as empty rather
// than failing the transfer.
func newFileJar(path string, log logger.Logger) *fileJar {
	j := &fileJar{path: path, log: log}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("path", path).Msg("failed to read cookie jar")
		}
		return j
	}
	if err := json.Unmarshal(data, &j.cookies); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("discarding corrupt cookie jar")
		j.cookies = nil
	}
	return j
}

// SetCookies records the cookies received in a response. Cookies scoped
// to a bare public suffix are rejected.
func (j *fileJar) SetCookies(u *url.URL, cookies []*nethttp.Cookie) {
	now := time.Now()
	for _, c := range cookies {
		if c.Name == "" {
			continue
		}

		domain := strings.ToLower(u.Hostname())
		hostOnly := true
		if c.Domain != "" {
			attr := strings.ToLower(strings.TrimPrefix(c.Domain, "."))
			if ps, _ := publicsuffix.PublicSuffix(attr); ps == attr {
				continue
			}
			if !domainMatch(strings.ToLower(u.Hostname()), attr, false) {
				continue
			}
			domain = attr
			hostOnly = false
		}

		path := c.Path
		if path == "" || !strings.HasPrefix(path, "/") {
			path = defaultCookiePath(u.Path)
		}

		j.remove(c.Name, domain, path)

		var expires time.Time
		switch {
		case c.MaxAge < 0:
			continue
		case c.MaxAge > 0:
			expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		case !c.Expires.IsZero():
			if c.Expires.Before(now) {
				continue
			}
			expires = c.Expires
		}

		j.cookies = append(j.cookies, jarCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   domain,
			Path:     path,
			Expires:  expires,
			Secure:   c.Secure,
			HostOnly: hostOnly,
			HTTPOnly: c.HttpOnly,
		})
	}
}

// Cookies returns the stored cookies applicable to a request URL.
func (j *fileJar) Cookies(u *url.URL) []*nethttp.Cookie {
	host := strings.ToLower(u.Hostname())
	path := u.Path
	if path == "" {
		path = "/"
	}
	secure := u.Scheme == "https"
	now := time.Now()

	var out []*nethttp.Cookie
	for i := range j.cookies {
		c := &j.cookies[i]
		if !c.Expires.IsZero() && c.Expires.Before(now) {
			continue
		}
		if c.Secure && !secure {
			continue
		}
		if !domainMatch(host, c.Domain, c.HostOnly) {
			continue
		}
		if !pathMatch(path, c.Path) {
			continue
		}
		out = append(out, &nethttp.Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

// save writes the jar back to its file, dropping expired entries.
func (j *fileJar) save() error {
	now := time.Now()
	live := make([]jarCookie, 0, len(j.cookies))
	for _, c := range j.cookies {
		if !c.Expires.IsZero() && c.Expires.Before(now) {
			continue
		}
		live = append(live, c)
	}
	j.cookies = live

	data, err := json.MarshalIndent(j.cookies, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(j.path, data, 0o600)
}

func (j *fileJar) remove(name, domain, path string) {
	kept := j.cookies[:0]
	for _, c := range j.cookies {
		if c.Name == name && c.Domain == domain && c.Path == path {
			continue
		}
		kept = append(kept, c)
	}
	j.cookies = kept
}

func domainMatch(host, domain string, hostOnly bool) bool {
	if host == domain {
		return true
	}
	return !hostOnly && strings.HasSuffix(host, "."+domain)
}

func pathMatch(reqPath, cookiePath string) bool {
	if reqPath == cookiePath {
		return true
	}
	if !strings.HasPrefix(reqPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || reqPath[len(cookiePath)] == '/'
}

func defaultCookiePath(reqPath string) string {
	if reqPath == "" || !strings.HasPrefix(reqPath, "/") {
		return "/"
	}
	if idx := strings.LastIndex(reqPath, "/"); idx > 0 {
		return reqPath[:idx]
	}
	return "/"
}
