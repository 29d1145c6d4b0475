package session

import (
	"archive/zip"
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propgen/internal/diagram"
	"propgen/internal/docx"
	"propgen/internal/proposal"
)

func sampleMeta() proposal.Meta {
	return proposal.Meta{
		Client:   "Acme Logistics",
		Project:  "Parcel Sortation Hub",
		OfferRef: "FA/2025/0117",
		Date:     time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
	}
}

func fragmentNamed(name string) *docx.Fragment {
	return &docx.Fragment{
		Name:     name,
		Branding: docx.Branding{Client: "Acme Logistics", Project: "Parcel Sortation Hub"},
		Blocks:   []docx.Block{docx.SectionTitle(name)},
	}
}

func fillRequired(t *testing.T, s *Session) {
	t.Helper()
	for _, sec := range []proposal.Section{
		proposal.SectionCover,
		proposal.SectionCoverLetter,
		proposal.SectionRFQResponse,
		proposal.SectionExecutiveSummary,
	} {
		require.NoError(t, s.SetFragment(sec, fragmentNamed(sec.String())))
	}
}

func TestNewSessionHasUniqueID(t *testing.T) {
	a := New(sampleMeta())
	b := New(sampleMeta())
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestFinalizeListsMissingSections(t *testing.T) {
	s := New(sampleMeta())
	require.NoError(t, s.SetFragment(proposal.SectionCover, fragmentNamed("cover")))

	_, _, _, err := s.Finalize()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingSections)
	assert.Contains(t, err.Error(), "cover letter")
	assert.Contains(t, err.Error(), "executive summary")
	assert.NotContains(t, err.Error(), "company profile", "optional sections never block finalization")
}

func TestFinalizeComposesInAssemblyOrder(t *testing.T) {
	s := New(sampleMeta())
	fillRequired(t, s)
	require.NoError(t, s.SetFragment(proposal.SectionConcept, fragmentNamed("concept description")))

	artifact, name, mime, err := s.Finalize()
	require.NoError(t, err)
	assert.Equal(t, "Acme_Logistics_Parcel_Sortation_Hub_Final_Proposal.docx", name)
	assert.Equal(t, docx.MIMEType, mime)

	zr, err := zip.NewReader(bytes.NewReader(artifact), int64(len(artifact)))
	require.NoError(t, err)
	var doc string
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			require.NoError(t, err)
			buf := new(bytes.Buffer)
			_, err = buf.ReadFrom(rc)
			require.NoError(t, err)
			rc.Close()
			doc = buf.String()
		}
	}
	require.NotEmpty(t, doc)

	letter := bytes.Index([]byte(doc), []byte("cover letter"))
	summary := bytes.Index([]byte(doc), []byte("executive summary"))
	concept := bytes.Index([]byte(doc), []byte("concept description"))
	assert.Greater(t, summary, letter)
	assert.Greater(t, concept, summary)
}

func TestFinalizeIsTerminal(t *testing.T) {
	s := New(sampleMeta())
	fillRequired(t, s)

	_, _, _, err := s.Finalize()
	require.NoError(t, err)

	_, _, _, err = s.Finalize()
	assert.ErrorIs(t, err, ErrFinalized)
	assert.ErrorIs(t, s.SetFragment(proposal.SectionConcept, fragmentNamed("x")), ErrFinalized)
}

func TestResetClearsStateButKeepsMeta(t *testing.T) {
	s := New(sampleMeta())
	fillRequired(t, s)
	s.SetSource("solution text")
	s.SetDiagram(&diagram.Diagram{}, "flowchart TD")
	_, _, _, err := s.Finalize()
	require.NoError(t, err)

	s.Reset()
	assert.Empty(t, s.Source())
	d, src := s.Diagram()
	assert.Nil(t, d)
	assert.Empty(t, src)
	assert.Len(t, s.Missing(), 4)
	assert.Equal(t, "Acme Logistics", s.Meta.Client)

	// A reset session can run to a fresh artifact.
	fillRequired(t, s)
	_, _, _, err = s.Finalize()
	assert.NoError(t, err)
}

func TestFilenameSanitization(t *testing.T) {
	meta := sampleMeta()
	meta.Client = "Acme / Logistics GmbH & Co."
	meta.Project = "Hub: Phase #2"
	s := New(meta)
	assert.Equal(t, "Acme__Logistics_GmbH__Co_Hub_Phase_2_Final_Proposal.docx", s.Filename())
}
