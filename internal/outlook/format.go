package outlook

import (
	"net/url"
	"time"

	"github.com/swaanand-ops/outlook-mail-reader/internal/graph"
)

// deepLinkBase opens a message directly in the Outlook web client.
const deepLinkBase = "https://outlook.office.com/mail/deeplink/read/"

// FormattedEmail is the stable, serializable shape handed to the
// presentation layer. Each record derives from exactly one message that
// passed the filter.
type FormattedEmail struct {
	ID          string `json:"id"`
	Timestamp   string `json:"timestamp"`
	SenderName  string `json:"senderName"`
	SenderEmail string `json:"senderEmail"`
	Subject     string `json:"subject"`
	Preview     string `json:"preview"`
	OutlookLink string `json:"outlookLink"`
}

// DeepLink returns a URL opening the message in the Outlook web client.
// A provider-supplied webLink is used unchanged; otherwise the link is
// constructed from the percent-encoded message ID, with the folder context
// appended when known.
func DeepLink(m *graph.Message, folderID string) string {
	if m.WebLink != "" {
		return m.WebLink
	}
	if m.ID == "" {
		return ""
	}
	link := deepLinkBase + url.QueryEscape(m.ID)
	if folderID != "" {
		link += "&folderid=" + url.QueryEscape(folderID)
	}
	return link
}

// Format maps one matched message onto its display-ready record. The
// timestamp is rendered as RFC 3339 in UTC; a zero receivedDateTime is left
// empty rather than rendered as the zero time.
func Format(m *graph.Message, folderID string) FormattedEmail {
	timestamp := ""
	if !m.ReceivedDateTime.IsZero() {
		timestamp = m.ReceivedDateTime.UTC().Format(time.RFC3339)
	}
	return FormattedEmail{
		ID:          m.ID,
		Timestamp:   timestamp,
		SenderName:  m.SenderName(),
		SenderEmail: m.SenderAddress(),
		Subject:     m.Subject,
		Preview:     m.BodyPreview,
		OutlookLink: DeepLink(m, folderID),
	}
}
