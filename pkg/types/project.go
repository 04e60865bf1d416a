package types

// Source identifies a resolved `sources/<provider>/<owner>/<repo>` reference.
type Source struct {
	Raw      string `json:"raw"`
	Provider string `json:"provider"`
	Owner    string `json:"owner"`
	Repo     string `json:"repo"`
}
