package lib

import (
	"bytes"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ardnew/bindable/dom"
	"github.com/ardnew/bindable/lang"
)

// Raw HTML in the source passes through unescaped.
var converter = sync.OnceValue(func() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
})

// markdown renders GitHub-flavored markdown to [dom.HTML], which a text
// site inserts as nodes.
func markdown(args ...any) (any, error) {
	src, ok := text(args, 0)
	if !ok {
		return lang.Undefined, nil
	}

	var buf bytes.Buffer

	if err := converter().Convert([]byte(src), &buf); err != nil {
		return nil, lang.ErrEvaluate.Wrap(err)
	}

	return dom.HTML(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
