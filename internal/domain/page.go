package domain

// DiscoveredPage is one candidate sub-page found by a discovery call.
type DiscoveredPage struct {
	URL                    string   `json:"url"`
	Title                  string   `json:"title"`
	Path                   string   `json:"path"`
	PreviewImage           string   `json:"preview_image,omitempty"`
	ComplexityScore        *float64 `json:"complexity_score,omitempty"`
	ConversionTimeEstimate string   `json:"conversion_time_estimate,omitempty"`
}

// DiscoverRequest is the body of POST /discover-pages.
type DiscoverRequest struct {
	URL      string `json:"url"`
	SiteType string `json:"site_type,omitempty"`
}

// DiscoverResponse is the body returned by the discovery endpoints.
type DiscoverResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Pages   []DiscoveredPage `json:"pages"`
}
