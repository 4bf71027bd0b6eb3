package loader

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"contentsummarizer/internal/domain"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html/charset"
)

var (
	boilerplateSelectors = strings.Join([]string{
		"script", "style", "noscript", "iframe", "svg", "template",
		"header", "footer", "nav", "aside", "form",
		".advertisement", ".ad", ".sidebar", ".comments",
		"[role=navigation]", "[role=banner]", "[role=contentinfo]",
	}, ", ")

	blockSelectors = "h1, h2, h3, h4, h5, h6, p, li, pre, blockquote, td"

	spaceRe      = regexp.MustCompile(`[ \t\r\f\v]+`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

type page struct {
	body []byte
	url  *url.URL
}

func (l *Loader) loadWebsite(ctx context.Context, rawURL string) ([]domain.Document, error) {
	p, err := l.fetchPage(ctx, rawURL)
	if err != nil {
		return nil, &LoadError{ContentType: domain.ContentTypeWebsite, URL: rawURL, Err: err}
	}

	text, metadata, err := extractWebsiteText(p)
	if err != nil {
		return nil, &LoadError{ContentType: domain.ContentTypeWebsite, URL: rawURL, Err: err}
	}
	metadata["source"] = rawURL

	doc, err := domain.NewDocument(text, metadata)
	if err != nil {
		l.log.WarnContext(ctx, "Website produced no readable text",
			"url", rawURL,
			"bodyLen", len(p.body))

		return nil, nil
	}

	l.log.DebugContext(ctx, "Website is loaded",
		"url", rawURL,
		"title", doc.Title(),
		"textLen", len(doc.Text))

	return []domain.Document{doc}, nil
}

func (l *Loader) fetchPage(ctx context.Context, rawURL string) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	setHeaders(req, DefaultHeaders)

	resp, err := l.websiteClient.Do(req) //nolint:gosec // User-supplied URL is the whole point.
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			l.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"url", rawURL,
				"operation", "fetchPage")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("do request: %w", unexpectedStatus(resp))
	}

	decoded, err := decodeBody(resp)
	if err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}

	body, err := io.ReadAll(io.LimitReader(decoded, MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &page{body: body, url: resp.Request.URL}, nil
}

// decodeBody undoes Content-Encoding by hand. Setting Accept-Encoding
// explicitly turns off the transport's transparent gzip handling.
func decodeBody(resp *http.Response) (io.Reader, error) {
	var r io.Reader = resp.Body

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip", "x-gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		r = gz
	case "deflate":
		zr, err := zlib.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("create deflate reader: %w", err)
		}
		r = zr
	}

	utf8Reader, err := charset.NewReader(r, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("create charset reader: %w", err)
	}

	return utf8Reader, nil
}

func extractWebsiteText(p *page) (string, map[string]string, error) {
	parser := readability.NewParser()
	article, err := parser.Parse(bytes.NewReader(p.body), p.url)
	if err == nil {
		if text := articleText(article); text != "" {
			return text, map[string]string{
				"title":     article.Title,
				"author":    article.Byline,
				"excerpt":   article.Excerpt,
				"site_name": article.SiteName,
			}, nil
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(p.body))
	if err != nil {
		return "", nil, fmt.Errorf("create document from reader: %w", err)
	}

	return goqueryText(doc), map[string]string{"title": documentTitle(doc)}, nil
}

func articleText(article readability.Article) string {
	if content := strings.TrimSpace(article.Content); content != "" {
		md, err := htmltomarkdown.ConvertString(content)
		if err == nil && strings.TrimSpace(md) != "" {
			return normalizeText(md)
		}
	}

	return normalizeText(article.TextContent)
}

func goqueryText(doc *goquery.Document) string {
	doc.Find(boilerplateSelectors).Remove()

	content := doc.Find("article, main, .content, .post-content, .article-content, #content").First()
	if content.Length() == 0 {
		content = doc.Find("body")
	}

	var blocks []string
	content.Find(blockSelectors).Each(func(_ int, s *goquery.Selection) {
		// Nested blocks are reached through their own match.
		if s.Find(blockSelectors).Length() > 0 {
			return
		}
		if text := strings.TrimSpace(spaceRe.ReplaceAllString(s.Text(), " ")); text != "" {
			blocks = append(blocks, text)
		}
	})

	if len(blocks) == 0 {
		return normalizeText(content.Text())
	}

	return normalizeText(strings.Join(blocks, "\n\n"))
}

func documentTitle(doc *goquery.Document) string {
	if content, ok := doc.Find("meta[property='og:title']").Attr("content"); ok {
		if title := strings.TrimSpace(content); title != "" {
			return title
		}
	}

	return strings.TrimSpace(doc.Find("title").First().Text())
}

func normalizeText(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRe.ReplaceAllString(line, " "))
	}

	return strings.TrimSpace(blankLinesRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}
