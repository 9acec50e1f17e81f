package handlers

// ShortenRequest is the request body for registering a link.
type ShortenRequest struct {
	Body struct {
		URL   string `doc:"The URL to shorten"                                example:"https://example.com/very/long/path" json:"url"`
		Alias string `doc:"Custom alias; a random one is generated when empty" example:"launch-2026"                      json:"alias,omitempty"`
	}
}

// ShortenResponse is the response for a registered link.
type ShortenResponse struct {
	Headers struct {
		Location string `doc:"The short URL location" header:"Location"`
	}
	Body LinkBody
}

// LinkBody describes a registered link.
type LinkBody struct {
	Alias     string `doc:"The link alias"     example:"abc1234"                            json:"alias"`
	ShortURL  string `doc:"The full short URL" example:"http://localhost:8888/abc1234"      json:"shortUrl"`
	TargetURL string `doc:"The target URL"     example:"https://example.com/very/long/path" json:"targetUrl"`
}

// AliasRequest addresses a link by its alias.
type AliasRequest struct {
	Alias string `doc:"The link alias" example:"abc1234" path:"alias"`
}

// RedirectResponse sends the client to the target URL.
type RedirectResponse struct {
	Status  int
	Headers struct {
		Location     string `header:"Location"`
		CacheControl string `header:"Cache-Control"`
	}
}

// StatsResponse reports the committed click total of a link.
type StatsResponse struct {
	Body struct {
		Alias       string `doc:"The link alias"                   example:"abc1234"                            json:"alias"`
		TargetURL   string `doc:"The target URL"                   example:"https://example.com/very/long/path" json:"targetUrl"`
		TotalClicks int64  `doc:"Clicks committed to the ledger"   example:"42"                                 json:"totalClicks"`
	}
}
