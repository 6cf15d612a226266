package site

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc string `xml:"loc"`
}

// Sitemap encodes a sitemap listing every site path under base and prefix.
func Sitemap(base, prefix string, paths []string) ([]byte, error) {
	origin := strings.TrimRight(base, "/") + strings.TrimRight(prefix, "/")
	set := urlset{Xmlns: sitemapNS, URLs: make([]sitemapURL, 0, len(paths))}
	for _, p := range paths {
		set.URLs = append(set.URLs, sitemapURL{Loc: origin + escapePath(p)})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return nil, fmt.Errorf("site: sitemap: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// escapePath percent-encodes each segment of a site path, keeping the
// separators.
func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

func (b *Builder) writeSitemap(paths []string) error {
	data, err := Sitemap(b.opts.BaseURL, b.opts.PathPrefix, paths)
	if err != nil {
		return err
	}
	return b.output.Write("sitemap.xml", data)
}
