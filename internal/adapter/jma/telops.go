package jma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/couchcryptid/weathercal/internal/domain"
	"golang.org/x/net/html"
)

// ErrTelopsNotFound is returned when no script on the page defines Const.TELOPS.
var ErrTelopsNotFound = errors.New("telops table not found in page scripts")

var (
	telopsPattern = regexp.MustCompile(`(?s)Const\.TELOPS=(\{.+?\})`)
	// The page script uses bare numeric object keys.
	bareKey = regexp.MustCompile(`([{,]\s*)(\d+)\s*:`)
)

// FetchTelops downloads the forecast page and extracts the weather code table.
func (c *Client) FetchTelops(ctx context.Context) (domain.TelopTable, error) {
	body, err := c.get(ctx, "telops", c.telopsURL)
	if err != nil {
		return nil, fmt.Errorf("fetch telops page: %w", err)
	}
	table, err := ScrapeTelops(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("telops page: %w", err)
	}
	return table, nil
}

// ScrapeTelops finds the Const.TELOPS assignment in the page's script
// elements and decodes it.
func ScrapeTelops(r io.Reader) (domain.TelopTable, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var table domain.TelopTable
	var decodeErr error
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "script" {
			return true
		}
		src := scriptText(n)
		if !strings.Contains(src, "Const.TELOPS") {
			return false
		}
		m := telopsPattern.FindStringSubmatch(src)
		if m == nil {
			return false
		}
		table, decodeErr = decodeTelops(m[1])
		return false
	})

	if decodeErr != nil {
		return nil, decodeErr
	}
	if len(table) == 0 {
		return nil, ErrTelopsNotFound
	}
	return table, nil
}

func decodeTelops(literal string) (domain.TelopTable, error) {
	quoted := bareKey.ReplaceAllString(literal, `$1"$2":`)
	var table domain.TelopTable
	if err := json.Unmarshal([]byte(quoted), &table); err != nil {
		return nil, fmt.Errorf("decode Const.TELOPS: %w", err)
	}
	return table, nil
}

// walk visits nodes depth first; visit returns false to skip children.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func scriptText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}
