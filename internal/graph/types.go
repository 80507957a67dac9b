package graph

import "time"

// DefaultFields is the projection requested when a query names none. It
// matches what the formatter and filter engine consume.
var DefaultFields = []string{
	"id", "subject", "bodyPreview", "receivedDateTime", "from", "body", "webLink",
}

// Query describes one message listing.
type Query struct {
	// Sender restricts results server-side to an exact sender address.
	// Empty means the whole folder is in scope.
	Sender string

	// Folder scopes the listing to a mail folder ID or well-known name
	// (e.g. "inbox"). Empty lists the whole mailbox.
	Folder string

	// Fields is the $select projection; DefaultFields when empty.
	Fields []string

	// PageSize is the $top value per page, capped at the API limit of 999.
	PageSize int
}

// EmailAddress is a Graph emailAddress resource.
type EmailAddress struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// Recipient is a Graph recipient resource.
type Recipient struct {
	EmailAddress EmailAddress `json:"emailAddress"`
}

// ItemBody is a Graph itemBody resource.
type ItemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// Message is one mailbox message as returned by the list endpoint.
type Message struct {
	ID               string    `json:"id"`
	Subject          string    `json:"subject"`
	BodyPreview      string    `json:"bodyPreview"`
	ReceivedDateTime time.Time `json:"receivedDateTime"`
	From             Recipient `json:"from"`
	Body             *ItemBody `json:"body,omitempty"`
	WebLink          string    `json:"webLink,omitempty"`
}

// SenderAddress returns the sender's email address.
func (m *Message) SenderAddress() string {
	return m.From.EmailAddress.Address
}

// SenderName returns the sender's display name, falling back to the address.
func (m *Message) SenderName() string {
	if m.From.EmailAddress.Name != "" {
		return m.From.EmailAddress.Name
	}
	return m.From.EmailAddress.Address
}

// BodyContent returns the full body content when it was fetched.
func (m *Message) BodyContent() string {
	if m.Body == nil {
		return ""
	}
	return m.Body.Content
}

// listResponse is one page of the message listing.
type listResponse struct {
	Value    []*Message `json:"value"`
	NextLink string     `json:"@odata.nextLink"`
}
