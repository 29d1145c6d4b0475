package prose

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"propgen/internal/llm"
)

func TestMain(m *testing.M) {
	// go.opencensus.io starts a stats worker in its package init (pulled
	// in transitively through the LLM client deps); it is not a leak in
	// this package's code.
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// sequenceClient hands out one canned response (or error) per call in
// order, concurrency-safe.
type sequenceClient struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	next      int
	requests  []llm.Request
}

func (c *sequenceClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.next
	c.next++
	c.requests = append(c.requests, req)
	if i < len(c.errs) && c.errs[i] != nil {
		return "", c.errs[i]
	}
	if i < len(c.responses) {
		return c.responses[i], nil
	}
	return "", errors.New("no scripted response")
}

func TestCoverLetterFillsBothSlots(t *testing.T) {
	client := &sequenceClient{responses: []string{"Draft one.\n", "Draft two."}}
	g := NewGenerator(client, nil)

	got := g.CoverLetter(context.Background(), LetterContext{
		Client:      "Acme Logistics",
		ContactName: "Mr. Rao",
		Project:     "Parcel Sortation Hub",
		OfferRef:    "FA/2025/0117",
		Date:        time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
	})

	assert.ElementsMatch(t, []string{"Draft one.", "Draft two."}, got[:])

	require.Len(t, client.requests, 2)
	req := client.requests[0]
	assert.Contains(t, req.User, "Acme Logistics")
	assert.Contains(t, req.User, "FA/2025/0117")
	assert.Contains(t, req.User, "June 3, 2025")
	assert.InDelta(t, 0.7, req.Temperature, 1e-6)
	assert.EqualValues(t, 600, req.MaxTokens)
}

func TestExecutiveSummaryRequestShape(t *testing.T) {
	client := &sequenceClient{responses: []string{"Summary A", "Summary B"}}
	g := NewGenerator(client, nil)

	g.ExecutiveSummary(context.Background(), SummaryContext{
		Client:       "Acme Logistics",
		Project:      "Parcel Sortation Hub",
		SolutionText: "Cross-belt sorter with print and apply.\n",
	})

	require.Len(t, client.requests, 2)
	req := client.requests[0]
	assert.Contains(t, req.User, "Cross-belt sorter")
	assert.EqualValues(t, 1000, req.MaxTokens)
	assert.InDelta(t, 0.9, req.TopP, 1e-6)
}

func TestFailedSlotGetsPlaceholderWithoutBlockingOther(t *testing.T) {
	client := &sequenceClient{
		responses: []string{"", "The surviving draft."},
		errs:      []error{errors.New("quota exhausted"), nil},
	}
	g := NewGenerator(client, nil)

	got := g.ExecutiveSummary(context.Background(), SummaryContext{Client: "Acme"})

	assert.Contains(t, got[:], FailedSlotPlaceholder)
	assert.Contains(t, got[:], "The surviving draft.")
}

func TestBothSlotsCanFail(t *testing.T) {
	boom := errors.New("service down")
	client := &sequenceClient{errs: []error{boom, boom}}
	g := NewGenerator(client, nil)

	got := g.CoverLetter(context.Background(), LetterContext{Client: "Acme"})
	assert.Equal(t, FailedSlotPlaceholder, got[0])
	assert.Equal(t, FailedSlotPlaceholder, got[1])
}

// slowClient proves the two calls really overlap: with serial calls the
// peak in-flight count would never exceed one.
type slowClient struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (c *slowClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	return "draft", nil
}

func TestDraftsRunConcurrently(t *testing.T) {
	client := &slowClient{}
	g := NewGenerator(client, nil)

	g.CoverLetter(context.Background(), LetterContext{Client: "Acme"})
	assert.EqualValues(t, 2, client.peak.Load())
}
