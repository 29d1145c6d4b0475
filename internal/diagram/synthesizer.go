package diagram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"propgen/internal/llm"
)

// ErrSynthesisInvalid reports that the generative service did not
// produce parseable diagram source after the bounded retry.
var ErrSynthesisInvalid = errors.New("diagram: synthesis output invalid")

// InvalidSynthesisError carries the raw model output so the caller can
// decide whether to show it or prompt a regeneration.
type InvalidSynthesisError struct {
	Raw    string
	Reason string
}

func (e *InvalidSynthesisError) Error() string {
	return fmt.Sprintf("%v: %s", ErrSynthesisInvalid, e.Reason)
}

func (e *InvalidSynthesisError) Unwrap() error { return ErrSynthesisInvalid }

// synthesisContract is the fixed instruction set for the diagram call.
// It pins the output format, the class taxonomy, and the label
// conventions (including the canonical synonym expansions).
const synthesisContract = `You are an expert systems analyst and Mermaid generator.
From SOLUTION_TEXT, extract the real process steps and output a vertical Mermaid flowchart.

RETURN FORMAT:
- Return ONLY Mermaid code that starts with: flowchart TD
- No markdown fences. No prose. No HTML tags in labels.
- Use short, unique IDs for all nodes (e.g., A, B1, C_out).
- Use standard shapes (rectangle for process, diamond for decision, oval for start/end, parallelogram for data/external).
- Keep layout vertical (top-down): TD.

CLASS ASSIGNMENTS (required for every node):
- main    = primary components (Infeed, VDS, Induct, Sorter/CBS/SWEDI, Scanning & Dimensioning, Print & Apply, etc.)
- sub     = secondary/auxiliary steps (staging, conveyors, data stores, handoffs, etc.)
- accept  = positive/approved/success/output/dispatch
- reject  = negative/fail/error/rejection/return-to-sender/technical

STYLE BLOCK (append at the end EXACTLY as below):

` + styleBlock + `

Then include one "class <ID> <classname>;" line for EVERY node ID you used.

CONSTRAINTS:
- One main path top-to-bottom; branch only when the text clearly branches (e.g., accept vs reject).
- Normalize obvious synonyms but keep the client's nouns.
- No invented or duplicate nodes. No cycles unless explicitly described.
- Do not decompose into micro-steps unless the text explicitly describes them.
- Every node label must be max 2-3 words, terse and non-descriptive. Prefer standard short forms (VDS, ICR, P&A, CBS, SWEDI). Avoid parentheses and filler words.
- MUST ALWAYS use 'Put to Light' ONLY, never PTL or Put to Light (PTL).`

// Synthesizer turns free-text process descriptions into diagrams via the
// generative-text service. It performs no rendering.
type Synthesizer struct {
	client llm.Client
	rules  ClassRules
	log    *zap.Logger
}

// NewSynthesizer wires a synthesizer to a completion client.
func NewSynthesizer(client llm.Client, log *zap.Logger) *Synthesizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Synthesizer{client: client, rules: DefaultClassRules(), log: log}
}

// Synthesize produces a validated Diagram and its Mermaid source from a
// process description. A structurally invalid response is retried once
// with the same input before surfacing InvalidSynthesisError.
func (s *Synthesizer) Synthesize(ctx context.Context, solutionText string) (*Diagram, string, error) {
	req := llm.Request{
		System:      synthesisContract,
		User:        fmt.Sprintf("SOLUTION_TEXT:\n%s\n\nReturn only Mermaid code (start with: flowchart TD).", solutionText),
		Temperature: 0.1,
		MaxTokens:   1200,
	}

	var lastRaw, lastReason string
	for attempt := 0; attempt < 2; attempt++ {
		raw, err := s.client.Complete(ctx, req)
		if err != nil {
			return nil, "", fmt.Errorf("diagram: synthesis call: %w", err)
		}

		code := StripFences(raw)
		d, reason := s.accept(code)
		if d != nil {
			return d, code, nil
		}

		lastRaw, lastReason = raw, reason
		s.log.Warn("diagram synthesis rejected, retrying",
			zap.Int("attempt", attempt+1),
			zap.String("reason", reason))
	}
	return nil, "", &InvalidSynthesisError{Raw: lastRaw, Reason: lastReason}
}

// accept parses and validates one candidate. Missing class assignments
// are filled from the rule table before validation, since that gap is
// recoverable; structural defects are not.
func (s *Synthesizer) accept(code string) (*Diagram, string) {
	if code == "" {
		return nil, "empty response"
	}
	if !strings.HasPrefix(strings.ToLower(code), "flowchart") {
		return nil, "response does not start with the flowchart keyword"
	}
	d, err := Parse(code)
	if err != nil {
		return nil, err.Error()
	}
	d = FillClasses(d, s.rules)
	if err := d.Validate(); err != nil {
		return nil, err.Error()
	}
	return d, ""
}
