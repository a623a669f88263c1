package config

// SiteConfig holds site-specific overrides for a single directory host.
// This allows customizing fetch behavior per target site.
type SiteConfig struct {
	// Cookie is an HTTP cookie to send when fetching this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Referer overrides the global Referer header for this site.
	Referer string `yaml:"referer,omitempty"`

	// PageParams overrides the page-parameter conventions the parametric
	// retriever probes, when the site's convention is already known.
	PageParams []string `yaml:"pageParams,omitempty"`
}

// SeedRecord is a curated facility entry merged into the harvest through
// the same classifier and reconciler path as extracted candidates. Seeds
// let a run carry known facilities the site no longer lists.
type SeedRecord struct {
	Name      string  `yaml:"name"`
	Latitude  float64 `yaml:"lat"`
	Longitude float64 `yaml:"lng"`
}

// ClusterMarker is a known map-cluster aggregate: a coordinate at which
// the site reports Count facilities collapsed into one marker. Configured
// markers are decomposed even when the initial payload yields none.
type ClusterMarker struct {
	Latitude  float64 `yaml:"lat" json:"lat"`
	Longitude float64 `yaml:"lng" json:"lng"`
	Count     int     `yaml:"count" json:"count"`
}

// File represents the structure of the .idcmap configuration file.
type File struct {
	// Tables maps region names to region tables, overriding or extending
	// the built-in ones.
	Tables map[string]*RegionTable `yaml:"tables,omitempty"`

	// Seeds maps region names to curated seed records for that region.
	Seeds map[string][]SeedRecord `yaml:"seeds,omitempty"`

	// Clusters maps region names to known cluster markers to decompose.
	Clusters map[string][]ClusterMarker `yaml:"clusters,omitempty"`

	// Sites maps hostnames to site-specific configuration.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains default site configuration applied to all sites
	// unless overridden in the site-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a specific hostname.
// It merges the site-specific configuration with defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults

	if siteConfig, ok := cf.Sites[host]; ok {
		if siteConfig.Cookie != "" {
			result.Cookie = siteConfig.Cookie
		}
		if siteConfig.Referer != "" {
			result.Referer = siteConfig.Referer
		}
		if len(siteConfig.Headers) > 0 {
			if result.Headers == nil {
				result.Headers = make(map[string]string)
			}
			for k, v := range siteConfig.Headers {
				result.Headers[k] = v
			}
		}
		if len(siteConfig.PageParams) > 0 {
			result.PageParams = siteConfig.PageParams
		}
	}

	return result
}

// SeedsFor returns the curated seed records for a region, or nil.
func (cf *File) SeedsFor(region string) []SeedRecord {
	if cf == nil {
		return nil
	}
	return cf.Seeds[region]
}

// ClustersFor returns the known cluster markers for a region, or nil.
func (cf *File) ClustersFor(region string) []ClusterMarker {
	if cf == nil {
		return nil
	}
	return cf.Clusters[region]
}
