package render

import "context"

type Renderer interface {
	RenderPage(ctx context.Context, name string, doc PageDoc) ([]byte, error)
	RenderSection(ctx context.Context, name string, doc SectionDoc) ([]byte, error)
	RenderTaxonomyList(ctx context.Context, doc TaxonomyListDoc) ([]byte, error)
	RenderTaxonomyTerm(ctx context.Context, doc TermDoc) ([]byte, error)
	RenderNotFound(ctx context.Context, doc NotFoundDoc) ([]byte, error)
	RenderRedirect(ctx context.Context, target string) ([]byte, error)
}

var _ Renderer = (*TemplateRenderer)(nil)
