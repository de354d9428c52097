package config

import (
	"maps"
	"net/url"
	"strings"
)

// SiteConfig holds request settings for one host.
type SiteConfig struct {
	// Cookie is sent with every request to the site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra HTTP headers sent to the site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// UserAgent overrides the global User-Agent for the site.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Rewrite overrides the rewrite strategy ("dom" or "text") for the site.
	Rewrite string `yaml:"rewrite,omitempty"`
}

// File represents the structure of the .pageloader configuration file.
type File struct {
	// Sites maps hosts to their settings. Keys are host names as they
	// appear in URLs, with a port when one is used (e.g. "ru.hexlet.io"
	// or "localhost:8080").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every site unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the settings for host merged over the defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	result.Headers = maps.Clone(cf.Defaults.Headers)

	siteConfig, ok := cf.Sites[strings.ToLower(host)]
	if !ok {
		return result
	}
	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.UserAgent != "" {
		result.UserAgent = siteConfig.UserAgent
	}
	if siteConfig.Rewrite != "" {
		result.Rewrite = siteConfig.Rewrite
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(siteConfig.Headers))
		}
		maps.Copy(result.Headers, siteConfig.Headers)
	}
	return result
}

// SiteConfigFor returns the settings for the host of pageURL. An exact
// host:port entry wins over a bare host name entry.
func (cf *File) SiteConfigFor(pageURL string) SiteConfig {
	u, err := url.Parse(pageURL)
	if err != nil {
		return cf.GetSiteConfig("")
	}
	host := strings.ToLower(u.Host)
	if _, ok := cf.Sites[host]; ok {
		return cf.GetSiteConfig(host)
	}
	return cf.GetSiteConfig(u.Hostname())
}
