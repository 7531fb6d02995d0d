package domain

// UserUsage holds per-feature counters and capability flags.
type UserUsage struct {
	SinglePageUsed  int  `json:"single_page_used"`
	MultiPageUsed   int  `json:"multi_page_used"`
	ReactifyUsed    int  `json:"reactify_used"`
	SinglePageLimit int  `json:"single_page_limit"`
	MultiPageLimit  int  `json:"multi_page_limit"`
	ReactifyLimit   int  `json:"reactify_limit"`
	CanScrapeSingle bool `json:"can_scrape_single"`
	CanScrapeMulti  bool `json:"can_scrape_multi"`
	CanReactify     bool `json:"can_reactify"`
}

// CanExport reports whether the usage counters allow an export in mode.
func (u UserUsage) CanExport(mode ScrapeMode) bool {
	if mode == ModeMultiPage {
		return u.CanScrapeMulti
	}
	return u.CanScrapeSingle
}

// UserProfile is the body returned by GET /me.
type UserProfile struct {
	ID        string    `json:"id"`
	ClerkID   string    `json:"clerk_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
	Usage     UserUsage `json:"usage"`
}
