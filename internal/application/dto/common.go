package dto

// PageRequest is the shared pagination input for listings.
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// DefaultPage applies defaults when limit/offset are unset.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// ErrorResponse is the HTTP error body. Message is always safe for direct
// display; no stack traces or internal identifiers.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
