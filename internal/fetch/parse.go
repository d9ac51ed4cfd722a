package fetch

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"betterfiction/internal/work"
)

// storytextID is the id of the chapter content container on a chapter page.
const storytextID = "storytext"

// ParseChapter extracts the chapter content container from a fetched page.
// A page without the container fails the attempt even when the HTTP status
// was successful.
func ParseChapter(r io.Reader, chapter int) (*work.Fragment, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse chapter page: %w", err)
	}

	container := findByID(doc, storytextID)
	if container == nil {
		return nil, fmt.Errorf("missing #%s in fetched chapter", storytextID)
	}

	var markup strings.Builder
	for child := container.FirstChild; child != nil; child = child.NextSibling {
		if err := html.Render(&markup, child); err != nil {
			return nil, fmt.Errorf("render chapter content: %w", err)
		}
	}

	return &work.Fragment{
		Chapter: chapter,
		Title:   chapterTitle(doc, chapter),
		HTML:    markup.String(),
		Text:    nodeText(container),
	}, nil
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, attr := range n.Attr {
			if attr.Key == "id" && attr.Val == id {
				return n
			}
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findByID(child, id); found != nil {
			return found
		}
	}
	return nil
}

// chapterTitle reads the chapter's entry from the chapter select, when the
// page has one. Single-chapter pages fall back to an empty title.
func chapterTitle(doc *html.Node, chapter int) string {
	sel := findByID(doc, "chap_select")
	if sel == nil {
		return ""
	}
	for opt := sel.FirstChild; opt != nil; opt = opt.NextSibling {
		if opt.Type != html.ElementNode || opt.Data != "option" {
			continue
		}
		for _, attr := range opt.Attr {
			if attr.Key == "value" && attr.Val == strconv.Itoa(chapter) {
				return strings.TrimSpace(nodeText(opt))
			}
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
