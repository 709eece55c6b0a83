package aur

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Comment is one comment from an AUR package page.
type Comment struct {
	ID        string
	Author    string
	Date      string
	Timestamp int64
	DateURL   string
	Content   string
	Pinned    bool
}

const commentDateLayout = "2006-01-02 15:04"

// Comments fetches and parses the comments of an AUR package. Pinned comments
// come first, then the latest comments in page order.
func (c *Client) Comments(ctx context.Context, name string) ([]Comment, error) {
	body, err := c.get(ctx, c.PackageURL(name))
	if err != nil {
		return nil, fmt.Errorf("aur: comments %s: %w", name, err)
	}
	comments, err := ParseComments(body, c.PackageURL(name))
	if err != nil {
		return nil, fmt.Errorf("aur: comments %s: %w", name, err)
	}
	c.l.Debug("comments", "package", name, "count", len(comments))
	return comments, nil
}

// ParseComments extracts comments from the HTML of an AUR package page.
// pageURL is used to make comment anchors absolute.
func ParseComments(page []byte, pageURL string) ([]Comment, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}
	var (
		out    []Comment
		pinned bool
		byID   = map[string]int{}
	)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case hasClass(n, "comments-header"):
				pinned = strings.Contains(textOf(n), "Pinned")
			case n.Data == "h4" && hasClass(n, "comment-header"):
				cm := parseHeader(n, pageURL)
				cm.Pinned = pinned
				byID[cm.ID] = len(out)
				out = append(out, cm)
				return
			case n.Data == "div" && hasClass(n, "article-content"):
				id := strings.TrimSuffix(attr(n, "id"), "-content")
				if i, ok := byID[id]; ok {
					out[i].Content = contentOf(n)
				}
				return
			}
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(doc)
	return out, nil
}

func parseHeader(n *html.Node, pageURL string) Comment {
	cm := Comment{ID: attr(n, "id")}
	text := strings.Join(strings.Fields(textOf(n)), " ")
	if author, _, ok := strings.Cut(text, " commented on "); ok {
		cm.Author = author
	} else if author, _, ok := strings.Cut(text, " edited on "); ok {
		cm.Author = author
	}
	var findDate func(*html.Node)
	findDate = func(x *html.Node) {
		if x.Type == html.ElementNode && x.Data == "a" && hasClass(x, "date") {
			cm.Date = strings.TrimSpace(textOf(x))
			if href := attr(x, "href"); strings.HasPrefix(href, "#") {
				cm.DateURL = pageURL + href
			} else {
				cm.DateURL = href
			}
			return
		}
		for ch := x.FirstChild; ch != nil; ch = ch.NextSibling {
			findDate(ch)
		}
	}
	findDate(n)
	raw := strings.TrimSpace(strings.TrimSuffix(cm.Date, "(UTC)"))
	if t, err := time.ParseInLocation(commentDateLayout, raw, time.UTC); err == nil {
		cm.Timestamp = t.Unix()
	}
	return cm
}

// contentOf renders a comment body as plain text, one paragraph per line.
func contentOf(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(x *html.Node) {
		if x.Type == html.ElementNode && (x.Data == "p" || x.Data == "pre") {
			if t := strings.TrimSpace(textOf(x)); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for ch := x.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	if len(parts) == 0 {
		return strings.TrimSpace(textOf(n))
	}
	return strings.Join(parts, "\n")
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(x *html.Node) {
		if x.Type == html.TextNode {
			b.WriteString(x.Data)
		}
		for ch := x.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
