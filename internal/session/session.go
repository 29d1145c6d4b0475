// Package session holds the wizard's working state: proposal metadata,
// generated drafts, the diagram, and the section fragments collected
// on the way to one final composed document.
package session

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"

	"propgen/internal/diagram"
	"propgen/internal/docx"
	"propgen/internal/proposal"
)

// ErrMissingSections reports finalization attempted before every
// required section fragment was built.
var ErrMissingSections = errors.New("required sections missing")

// ErrFinalized reports mutation or re-finalization of a session that
// already produced its artifact.
var ErrFinalized = errors.New("session already finalized")

// requiredSections must be present before Finalize; the company
// profile and concept page are optional so a failed render or a
// skipped profile never blocks the proposal.
var requiredSections = []proposal.Section{
	proposal.SectionCover,
	proposal.SectionCoverLetter,
	proposal.SectionRFQResponse,
	proposal.SectionExecutiveSummary,
}

// Session is one wizard run.
type Session struct {
	ID   string
	Meta proposal.Meta

	mu        sync.Mutex
	source    string // extracted solution text
	diag      *diagram.Diagram
	diagSrc   string
	fragments map[proposal.Section]*docx.Fragment
	finalized bool
}

// New starts an empty session for the given proposal metadata.
func New(meta proposal.Meta) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Meta:      meta,
		fragments: make(map[proposal.Section]*docx.Fragment),
	}
}

// Reset clears everything produced so far but keeps the metadata, so
// the wizard can start over without re-entering client details.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = ""
	s.diag = nil
	s.diagSrc = ""
	s.fragments = make(map[proposal.Section]*docx.Fragment)
	s.finalized = false
}

// SetSource stores the extracted solution text.
func (s *Session) SetSource(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = text
}

// Source returns the extracted solution text.
func (s *Session) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// SetDiagram stores the current diagram and its textual source. Edits
// replace the diagram wholesale.
func (s *Session) SetDiagram(d *diagram.Diagram, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diag = d
	s.diagSrc = source
}

// Diagram returns the current diagram and its source.
func (s *Session) Diagram() (*diagram.Diagram, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.diag, s.diagSrc
}

// SetFragment stores a section fragment, supplanting any previous one
// for the same section. Fails after finalization.
func (s *Session) SetFragment(sec proposal.Section, f *docx.Fragment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		return ErrFinalized
	}
	s.fragments[sec] = f
	return nil
}

// Fragment returns the stored fragment for a section, if any.
func (s *Session) Fragment(sec proposal.Section) (*docx.Fragment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fragments[sec]
	return f, ok
}

// Missing lists the required sections with no fragment yet, in
// assembly order.
func (s *Session) Missing() []proposal.Section {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.missingLocked()
}

func (s *Session) missingLocked() []proposal.Section {
	var missing []proposal.Section
	for _, sec := range requiredSections {
		if s.fragments[sec] == nil {
			missing = append(missing, sec)
		}
	}
	return missing
}

// Finalize composes every collected fragment in assembly order and
// returns the artifact bytes, its filename, and its MIME type.
// Finalization is terminal: afterwards the session accepts no further
// fragments and cannot finalize again.
func (s *Session) Finalize() ([]byte, string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		return nil, "", "", ErrFinalized
	}
	if missing := s.missingLocked(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, sec := range missing {
			names[i] = sec.String()
		}
		return nil, "", "", fmt.Errorf("%w: %s", ErrMissingSections, strings.Join(names, ", "))
	}

	ordered := make([]*docx.Fragment, 0, len(proposal.Order()))
	for _, sec := range proposal.Order() {
		ordered = append(ordered, s.fragments[sec])
	}
	artifact, err := docx.Compose(ordered)
	if err != nil {
		return nil, "", "", err
	}
	s.finalized = true
	return artifact, s.Filename(), docx.MIMEType, nil
}

var unsafeFilenameRe = regexp.MustCompile(`[^\w\- ]+`)

// Filename derives the artifact name from the proposal metadata.
func (s *Session) Filename() string {
	clean := func(v string) string {
		v = unsafeFilenameRe.ReplaceAllString(v, "")
		return strings.ReplaceAll(strings.TrimSpace(v), " ", "_")
	}
	return fmt.Sprintf("%s_%s_Final_Proposal.docx", clean(s.Meta.Client), clean(s.Meta.Project))
}
