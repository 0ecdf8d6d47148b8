package site

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/", "index.html"},
		{"", "index.html"},
		{"/blog/a/", "blog/a/index.html"},
		{"/blog/a", "blog/a/index.html"},
		{"/feed.xml", "feed.xml"},
		{"/old/page.html", "old/page.html"},
		{"/v1.2/", "v1.2/index.html"},
		{"/../escape/", "escape/index.html"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OutPath(tt.in), tt.in)
	}
}

func TestRouteString(t *testing.T) {
	r := Route{Kind: RouteTaxonomyTerm, Key: "tags", Lang: "en", Term: "go", Page: 2, OutPath: "tags/go/page/2/index.html"}
	assert.Equal(t, "taxonomy_term key=tags lang=en term=go page=2 out=tags/go/page/2/index.html", r.String())
}
