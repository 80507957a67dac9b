package outlook

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swaanand-ops/outlook-mail-reader/internal/filter"
	"github.com/swaanand-ops/outlook-mail-reader/internal/graph"
)

// fakeLister serves an in-memory mailbox in fixed order, applying the
// sender restriction server-side the way Graph would for a $filter, and
// records how many messages the callback consumed.
type fakeLister struct {
	messages []*graph.Message
	gotQuery graph.Query
	visited  int
}

func (f *fakeLister) ForeachMessage(ctx context.Context, q graph.Query, fn func(*graph.Message) error) error {
	f.gotQuery = q
	for _, m := range f.messages {
		if q.Sender != "" && !strings.EqualFold(m.SenderAddress(), q.Sender) {
			continue
		}
		f.visited++
		if err := fn(m); err != nil {
			if errors.Is(err, graph.ErrStop) {
				return nil
			}
			return err
		}
	}
	return nil
}

func mailboxMessage(id, sender, subject string, received time.Time) *graph.Message {
	return &graph.Message{
		ID:               id,
		Subject:          subject,
		BodyPreview:      subject,
		ReceivedDateTime: received,
		From: graph.Recipient{EmailAddress: graph.EmailAddress{
			Address: sender,
			Name:    "Sender " + id,
		}},
	}
}

func TestSearchStopsAfterMaxItems(t *testing.T) {
	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	lister := &fakeLister{messages: []*graph.Message{
		mailboxMessage("message1", "billing@example.com", "payment failed", base),
		mailboxMessage("message2", "billing@example.com", "receipt", base.Add(-time.Hour)),
		mailboxMessage("message3", "other@example.com", "build failed", base.Add(-2*time.Hour)),
		mailboxMessage("message4", "billing@example.com", "transfer failed", base.Add(-3*time.Hour)),
		mailboxMessage("message5", "billing@example.com", "invoice failed", base.Add(-4*time.Hour)),
	}}

	r := NewReader(lister, WithPageSize(1))
	results, err := r.Search(context.Background(), filter.Criteria{
		Sender:   "billing@example.com",
		Keyword:  "failed",
		MaxItems: 2,
	})
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "message1", results[0].ID)
	assert.Equal(t, "message4", results[1].ID)

	// The sender restriction is pushed down and retrieval halts once the
	// second match is in hand, so message5 is never fetched.
	assert.Equal(t, 3, lister.visited)
	assert.Equal(t, "billing@example.com", lister.gotQuery.Sender)
	assert.Equal(t, 1, lister.gotQuery.PageSize)
}

func TestSearchNoMatches(t *testing.T) {
	lister := &fakeLister{messages: []*graph.Message{
		mailboxMessage("message1", "billing@example.com", "receipt", time.Now()),
	}}

	r := NewReader(lister)
	results, err := r.Search(context.Background(), filter.Criteria{
		Keyword:  "failed",
		MaxItems: 5,
	})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NotNil(t, results, "empty result is a list, not an error")
}

func TestSearchRejectsInvalidCriteria(t *testing.T) {
	lister := &fakeLister{}

	r := NewReader(lister)
	_, err := r.Search(context.Background(), filter.Criteria{MaxItems: 0})
	assert.ErrorIs(t, err, filter.ErrInvalidCriteria)
	assert.Zero(t, lister.visited, "nothing is fetched for invalid criteria")
}

func TestSearchPropagatesRetrievalError(t *testing.T) {
	r := NewReader(failingLister{})
	_, err := r.Search(context.Background(), filter.Criteria{MaxItems: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search failed")
}

type failingLister struct{}

func (failingLister) ForeachMessage(ctx context.Context, q graph.Query, fn func(*graph.Message) error) error {
	return assert.AnError
}

func TestSearchFolderFlowsIntoLinks(t *testing.T) {
	lister := &fakeLister{messages: []*graph.Message{
		mailboxMessage("message1", "billing@example.com", "failed", time.Now()),
	}}

	r := NewReader(lister, WithFolder("AQMkAGFol="))
	results, err := r.Search(context.Background(), filter.Criteria{Keyword: "failed", MaxItems: 1})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "AQMkAGFol=", lister.gotQuery.Folder)
	assert.Contains(t, results[0].OutlookLink, "folderid=AQMkAGFol%3D")
}

func TestSearchWithStats(t *testing.T) {
	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	lister := &fakeLister{messages: []*graph.Message{
		mailboxMessage("message1", "billing@example.com", "payment failed", base),
		mailboxMessage("message2", "alerts@example.com", "job failed", base.Add(time.Hour)),
	}}

	r := NewReader(lister)
	results, stats, err := r.SearchWithStats(context.Background(), filter.Criteria{
		Keyword:  "failed",
		MaxItems: 10,
	}, nil)
	require.NoError(t, err)

	assert.Len(t, results, 2)
	assert.Equal(t, 2, stats.TotalEmails)
	assert.Equal(t, map[string]int{
		"billing@example.com": 1,
		"alerts@example.com":  1,
	}, stats.Senders)
	assert.Equal(t, map[string]int{"failed": 2}, stats.Keywords,
		"criteria keyword is the default bucket")
}
