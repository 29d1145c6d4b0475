// Package prose generates the written sections of a proposal: the
// cover letter and the executive summary. Every generation request
// produces two independent candidates so the user can compare drafts.
package prose

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"propgen/internal/llm"
)

// FailedSlotPlaceholder fills a candidate slot whose generative call
// failed. The other slot is unaffected.
const FailedSlotPlaceholder = "[Generation failed for this draft. Please regenerate the section.]"

const coverLetterSystem = `You are a senior proposals writer at FALCON Autotech, an intralogistics
automation company. Write a formal business cover letter accompanying a
techno-commercial proposal.

Rules:
- At most 220 words of body text.
- Structure: date line, "Kind Attention" line, "Offer Ref" line, subject
  line, salutation, two short body paragraphs, closing with
  "Best Regards" and the sender block.
- Reference the client and project by the exact names provided.
- Confident, courteous tone. No pricing, no technical detail.
- Mark any phrase that must appear bold by wrapping it in **double
  asterisks**. Do not use any other markup.`

const executiveSummarySystem = `You are a senior proposals writer at FALCON Autotech, an intralogistics
automation company. Write the executive summary section of a
techno-commercial proposal from the supplied solution description.

Rules:
- At most 350 words.
- Open with one short paragraph framing the client's operational need.
- Follow with bullet lines, each starting with "• ", summarising the
  proposed solution elements in the order they appear in the flow.
- Close with one short paragraph on expected outcomes.
- Mark key phrases bold by wrapping them in **double asterisks**. Do not
  use any other markup.`

// LetterContext carries the per-call facts for a cover letter.
type LetterContext struct {
	Client      string
	ContactName string
	Project     string
	OfferRef    string
	Date        time.Time
}

// SummaryContext carries the per-call facts for an executive summary.
type SummaryContext struct {
	Client       string
	Project      string
	SolutionText string
}

// Candidates holds both drafts of one generation request, in stable
// slot order regardless of completion order.
type Candidates [2]string

// Generator issues the prose calls.
type Generator struct {
	client llm.Client
	log    *zap.Logger
}

// NewGenerator builds a Generator. A nil logger is replaced by a nop.
func NewGenerator(client llm.Client, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{client: client, log: log}
}

// CoverLetter produces two cover-letter drafts concurrently. A failed
// draft fills its slot with FailedSlotPlaceholder; it never fails the
// request.
func (g *Generator) CoverLetter(ctx context.Context, lc LetterContext) Candidates {
	user := fmt.Sprintf(
		"Client: %s\nContact: %s\nProject: %s\nOffer reference: %s\nDate: %s\n\nWrite the cover letter.",
		lc.Client, lc.ContactName, lc.Project, lc.OfferRef, lc.Date.Format("January 2, 2006"))
	return g.pair(ctx, "cover letter", llm.Request{
		System:      coverLetterSystem,
		User:        user,
		Temperature: 0.7,
		TopP:        0.9,
		MaxTokens:   600,
	})
}

// ExecutiveSummary produces two executive-summary drafts concurrently,
// with the same slot semantics as CoverLetter.
func (g *Generator) ExecutiveSummary(ctx context.Context, sc SummaryContext) Candidates {
	user := fmt.Sprintf(
		"Client: %s\nProject: %s\n\nSolution description:\n%s\n\nWrite the executive summary.",
		sc.Client, sc.Project, strings.TrimSpace(sc.SolutionText))
	return g.pair(ctx, "executive summary", llm.Request{
		System:      executiveSummarySystem,
		User:        user,
		Temperature: 0.7,
		TopP:        0.9,
		MaxTokens:   1000,
	})
}

// pair fires the same request twice and fills fixed slots. The two
// calls share nothing and fail independently.
func (g *Generator) pair(ctx context.Context, kind string, req llm.Request) Candidates {
	var out Candidates
	var wg sync.WaitGroup
	for slot := range out {
		wg.Add(1)
		go func() {
			defer wg.Done()
			text, err := g.client.Complete(ctx, req)
			if err != nil {
				g.log.Warn("prose draft failed",
					zap.String("kind", kind), zap.Int("slot", slot), zap.Error(err))
				out[slot] = FailedSlotPlaceholder
				return
			}
			out[slot] = strings.TrimSpace(text)
		}()
	}
	wg.Wait()
	return out
}
