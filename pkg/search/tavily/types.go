package tavily

// Query describes one search.
type Query struct {
	// Query is the search text. Required.
	Query string

	// MaxResults caps the number of results. 0 means the API default.
	MaxResults int

	// Days restricts results to the last n days. 0 means no restriction.
	Days int

	// SearchDepth is "basic" or "advanced".
	// Default: "basic"
	SearchDepth string

	// Topic is "general" or "news".
	Topic string

	IncludeDomains []string
	ExcludeDomains []string
}

// Result is a single search hit.
type Result struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date,omitempty"`
}

type searchRequest struct {
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	IncludeAnswer  bool     `json:"include_answer"`
	MaxResults     int      `json:"max_results,omitempty"`
	Days           int      `json:"days,omitempty"`
	Topic          string   `json:"topic,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	ExcludeDomains []string `json:"exclude_domains,omitempty"`
}

type searchResponse struct {
	Query        string   `json:"query"`
	Results      []Result `json:"results"`
	ResponseTime float64  `json:"response_time"`
}

type apiErrorBody struct {
	Detail struct {
		Error string `json:"error"`
	} `json:"detail"`
}
