package model

// RawDocument is an order-confirmation message as delivered by the mail
// fetcher. It is read once by extraction and never persisted afterwards.
type RawDocument struct {
	ID        string `json:"id,omitempty"`
	From      string `json:"from"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Date      string `json:"date"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// CalendarEvent is the subset of a calendar event used for last-mention
// matching.
type CalendarEvent struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Start       string `json:"start"`
}

// HistoryVisit is a single browser history entry reported by the extension.
type HistoryVisit struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}
