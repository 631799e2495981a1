// Package htmlpage serves a static HTML document through the extract.Page
// interface. It backs offline extraction of saved result pages and fixture
// tests that need a DOM without a browser.
package htmlpage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/flightscrape/extract"
	"golang.org/x/net/html"
)

// ClickHandler reacts to a click on target. It may mutate doc, e.g. to
// append rows and remove the control that was clicked.
type ClickHandler func(doc *goquery.Document, target *goquery.Selection) error

// Option configures a Document.
type Option func(*Document)

// WithClickHandler makes elements clickable. Without a handler every click
// fails with extract.ErrNotInteractive.
func WithClickHandler(h ClickHandler) Option {
	return func(d *Document) { d.onClick = h }
}

// Document is a parsed HTML page. It is safe for concurrent use.
type Document struct {
	mu      sync.Mutex
	doc     *goquery.Document
	onClick ClickHandler
}

// New parses r into a Document.
func New(r io.Reader, opts ...Option) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("htmlpage: parse: %w", err)
	}
	d := &Document{doc: doc}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// FromString parses an HTML string.
func FromString(s string, opts ...Option) (*Document, error) {
	return New(strings.NewReader(s), opts...)
}

// Open parses the HTML file at path.
func Open(path string, opts ...Option) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("htmlpage: %w", err)
	}
	defer f.Close()
	return New(f, opts...)
}

// HTML renders the current state of the document.
func (d *Document) HTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return goquery.OuterHtml(d.doc.Selection)
}

// WaitVisible returns the first visible match. A static document never
// changes on its own, so the lookup happens once and timeout is unused.
func (d *Document) WaitVisible(ctx context.Context, selector string, timeout time.Duration) (extract.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("htmlpage: selector %q: %w", selector, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var found *goquery.Selection
	d.doc.FindMatcher(m).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if isVisible(s) {
			found = s
			return false
		}
		return true
	})
	if found == nil {
		return nil, fmt.Errorf("%w: no visible %q", extract.ErrNotFound, selector)
	}
	return &element{doc: d, sel: found}, nil
}

// FindAll returns every match in document order.
func (d *Document) FindAll(ctx context.Context, selector string) ([]extract.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("htmlpage: selector %q: %w", selector, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	matches := d.doc.FindMatcher(m)
	out := make([]extract.Element, 0, matches.Length())
	matches.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &element{doc: d, sel: s})
	})
	return out, nil
}

type element struct {
	doc *Document
	sel *goquery.Selection
}

func (e *element) Find(ctx context.Context, selector string) (extract.Element, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, false, fmt.Errorf("htmlpage: selector %q: %w", selector, err)
	}

	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	match := e.sel.FindMatcher(m).First()
	if match.Length() == 0 {
		return nil, false, nil
	}
	return &element{doc: e.doc, sel: match}, true, nil
}

// Text mirrors the DOM textContent property.
func (e *element) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.sel.Text(), nil
}

func (e *element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.doc.onClick == nil {
		return extract.ErrNotInteractive
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.doc.onClick(e.doc.doc, e.sel)
}

// isVisible treats an element as hidden when it or an ancestor carries the
// hidden attribute or an inline display:none.
func isVisible(s *goquery.Selection) bool {
	for _, n := range s.Nodes {
		for cur := n; cur != nil; cur = cur.Parent {
			if cur.Type == html.ElementNode && hiddenNode(cur) {
				return false
			}
		}
	}
	return true
}

func hiddenNode(n *html.Node) bool {
	for _, a := range n.Attr {
		switch a.Key {
		case "hidden":
			return true
		case "style":
			style := strings.ReplaceAll(strings.ToLower(a.Val), " ", "")
			if strings.Contains(style, "display:none") {
				return true
			}
		}
	}
	return false
}
