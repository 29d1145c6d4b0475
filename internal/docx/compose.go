package docx

import "errors"

// ErrNoBaseDocument reports composition without a structural base: the
// first fragment defines branding and page scaffolding for the rest.
var ErrNoBaseDocument = errors.New("composition requires a base document")

// Compose folds an ordered fragment list into one document. The first
// fragment is the base; later nil fragments are skipped; each appended
// fragment starts on a fresh page. A single fragment composes to
// exactly its own standalone form.
func Compose(fragments []*Fragment) ([]byte, error) {
	if len(fragments) == 0 || fragments[0] == nil {
		return nil, ErrNoBaseDocument
	}

	base := fragments[0]
	blocks := make([]Block, 0, len(base.Blocks))
	blocks = append(blocks, base.Blocks...)
	for _, f := range fragments[1:] {
		if f == nil {
			continue
		}
		blocks = append(blocks, PageBreak{})
		blocks = append(blocks, f.Blocks...)
	}
	return writePackage(base.Branding, blocks)
}
