package content

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var ErrMDConversion = errors.New("could not convert MD to HTML")

type MarkDownRenderer struct {
	engine goldmark.Markdown
}

// NewMarkDownRenderer builds the renderer for markdown post bodies.
// Imported posts reference their images by relative path; the transformer
// rewrites those to the object store's public address. publicBaseURL may be
// empty, in which case destinations pass through untouched.
func NewMarkDownRenderer(publicBaseURL string) *MarkDownRenderer {
	engine := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			extension.Linkify,
			extension.TaskList,
			emoji.Emoji,
			highlighting.NewHighlighting(
				// Common themes: "monokai", "dracula", "github", "solarized-dark"
				highlighting.WithStyle("solarized-dark"),
				highlighting.WithGuessLanguage(true),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(util.Prioritized(&imageURLTransformer{base: strings.TrimSuffix(publicBaseURL, "/")}, 100)),
		),
	)
	return &MarkDownRenderer{engine: engine}
}

func (m *MarkDownRenderer) Render(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	// html output is larger than markdown add 50% to the buffer
	buf.Grow(len(source) + (len(source) / 2))

	if err := m.engine.Convert(source, &buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMDConversion, err)
	}

	return bytes.Clone(buf.Bytes()), nil
}

type imageURLTransformer struct {
	base string
}

func (t *imageURLTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	if t.base == "" {
		return
	}

	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		// walk has finished
		if !entering {
			return ast.WalkContinue, nil
		}

		img, ok := n.(*ast.Image)
		if !ok {
			return ast.WalkContinue, nil
		}

		dest := string(img.Destination)
		if isExternalLink(dest) || strings.HasPrefix(dest, "/") {
			return ast.WalkContinue, nil
		}

		newDest, err := url.JoinPath(t.base, dest)
		if err != nil {
			return ast.WalkContinue, err
		}

		img.Destination = []byte(newDest)

		return ast.WalkContinue, nil
	})
}

func isExternalLink(s string) bool {
	s = strings.ToLower(s)

	for _, prefix := range []string{"http", "https", "ftp", "ftps", "sftp"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
