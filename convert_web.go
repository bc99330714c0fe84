// Copyright 2026 Conductor OSS
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package ragmark

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"
)

// fetchUserAgent identifies this tool to web servers. Some article hosts
// refuse requests without a browser-looking UA.
const fetchUserAgent = "Mozilla/5.0 (compatible; ragmark/" + Version + ")"

// articleMeta is metadata scraped from an article page's head.
type articleMeta struct {
	title       string
	author      string
	siteName    string
	description string
	published   string
	tags        []string
}

// ConvertURL fetches a web page, extracts the readable article from it
// and writes it as Markdown under outputDir.
func (c *Converter) ConvertURL(ctx context.Context, pageURL, outputDir string) (*ConversionResult, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", pageURL, err)
	}

	htmlStr, err := c.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	return c.convertArticle(htmlStr, parsed, pageURL, "", outputDir)
}

// ConvertHTMLFile converts a saved HTML page the same way ConvertURL does,
// minus the fetch.
func (c *Converter) ConvertHTMLFile(ctx context.Context, path, outputDir string) (*ConversionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	htmlStr := decodeText(data, "")
	return c.convertArticle(htmlStr, nil, "", filepath.Base(path), outputDir)
}

func (c *Converter) convertArticle(htmlStr string, pageURL *url.URL, sourceURL, sourceFile, outputDir string) (*ConversionResult, error) {
	meta := scrapeArticleMeta(htmlStr)

	article, err := readability.FromReader(strings.NewReader(htmlStr), pageURL)
	if err != nil {
		return nil, fmt.Errorf("extract article: %w", err)
	}

	body, err := htmlToMarkdown(article.Content)
	if err != nil {
		return nil, fmt.Errorf("render article: %w", err)
	}
	body = CleanMarkdown(body)
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("no readable article content")
	}

	title := firstNonEmpty(meta.title, article.Title, extractHTMLTitle(htmlStr))
	if title == "" {
		title = "Untitled"
	}
	author := firstNonEmpty(meta.author, article.Byline)
	description := firstNonEmpty(meta.description, article.Excerpt)

	front, err := renderFrontmatter(articleFrontmatter{
		Title:              title,
		Author:             author,
		SourceType:         "web",
		SourceURL:          sourceURL,
		SourceFile:         sourceFile,
		SiteName:           firstNonEmpty(meta.siteName, article.SiteName),
		PublicationDate:    meta.published,
		RetrievedDate:      today(),
		ReadingTimeMinutes: readingTime(body),
		Tags:               meta.tags,
		Description:        description,
		ConverterVersion:   Version,
	})
	if err != nil {
		return nil, err
	}

	outputPath := filepath.Join(outputDir, outputFilename(author, title))
	if err := writeFileAtomic(outputPath, []byte(front+"\n"+body)); err != nil {
		return nil, err
	}

	c.logger.Info("article converted", "url", sourceURL, "file", sourceFile, "output", outputPath)

	return &ConversionResult{
		OutputPath: outputPath,
		Title:      title,
		Message:    "converted web article",
	}, nil
}

// feedItemLimit bounds how many entries a feed digest includes.
const feedItemLimit = 25

// ConvertFeed converts an RSS or Atom feed (URL or local file) into a
// Markdown digest: one section per entry with title, date, link and
// summary.
func (c *Converter) ConvertFeed(ctx context.Context, source, outputDir string) (*ConversionResult, error) {
	parser := gofeed.NewParser()
	parser.UserAgent = fetchUserAgent

	var feed *gofeed.Feed
	var sourceURL, sourceFile string
	var err error
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		sourceURL = source
		feed, err = parser.ParseURLWithContext(source, ctx)
	} else {
		sourceFile = filepath.Base(source)
		var f *os.File
		f, err = os.Open(source)
		if err != nil {
			return nil, &OpenError{Path: source, Err: err}
		}
		defer f.Close()
		feed, err = parser.Parse(f)
	}
	if err != nil {
		return nil, fmt.Errorf("parse feed %q: %w", source, err)
	}

	var md strings.Builder
	items := feed.Items
	if len(items) > feedItemLimit {
		items = items[:feedItemLimit]
	}
	for _, item := range items {
		md.WriteString("## ")
		md.WriteString(strings.TrimSpace(item.Title))
		md.WriteString("\n\n")
		if item.PublishedParsed != nil {
			fmt.Fprintf(&md, "*%s*\n\n", item.PublishedParsed.Format("2006-01-02"))
		}
		summary := item.Description
		if summary == "" {
			summary = item.Content
		}
		if summary != "" {
			if rendered, err := htmlToMarkdown(summary); err == nil {
				md.WriteString(strings.TrimSpace(rendered))
				md.WriteString("\n\n")
			}
		}
		if item.Link != "" {
			fmt.Fprintf(&md, "[Read more](%s)\n\n", item.Link)
		}
	}

	body := CleanMarkdown(md.String())
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("feed %q: no entries", source)
	}

	title := strings.TrimSpace(feed.Title)
	if title == "" {
		title = "Feed Digest"
	}

	var published string
	if feed.PublishedParsed != nil {
		published = feed.PublishedParsed.Format("2006-01-02")
	} else if feed.UpdatedParsed != nil {
		published = feed.UpdatedParsed.Format("2006-01-02")
	}

	front, err := renderFrontmatter(articleFrontmatter{
		Title:              title,
		SourceType:         "feed",
		SourceURL:          sourceURL,
		SourceFile:         sourceFile,
		PublicationDate:    published,
		RetrievedDate:      today(),
		ReadingTimeMinutes: readingTime(body),
		Description:        strings.TrimSpace(feed.Description),
		ConverterVersion:   Version,
	})
	if err != nil {
		return nil, err
	}

	outputPath := filepath.Join(outputDir, outputFilename("", title))
	if err := writeFileAtomic(outputPath, []byte(front+"\n"+body)); err != nil {
		return nil, err
	}

	c.logger.Info("feed converted", "source", source, "output", outputPath, "items", len(items))

	return &ConversionResult{
		OutputPath: outputPath,
		Title:      title,
		Message:    fmt.Sprintf("converted feed with %d entries", len(items)),
	}, nil
}

// fetch performs a GET with the tool's user agent and decodes the body
// using the response charset.
func (c *Converter) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %q: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %q: status %s", pageURL, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	charset := ""
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		for _, p := range strings.Split(ct, ";")[1:] {
			p = strings.TrimSpace(p)
			if strings.HasPrefix(p, "charset=") {
				charset = strings.Trim(strings.TrimPrefix(p, "charset="), `"'`)
			}
		}
	}
	return decodeText(data, charset), nil
}

// scrapeArticleMeta reads OpenGraph and standard meta tags plus JSON-LD
// article data from the page head.
func scrapeArticleMeta(htmlStr string) articleMeta {
	var meta articleMeta

	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return meta
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				name, content := metaAttr(n, "name"), metaAttr(n, "content")
				property := metaAttr(n, "property")
				switch {
				case property == "og:title":
					meta.title = firstNonEmpty(meta.title, content)
				case property == "og:site_name":
					meta.siteName = firstNonEmpty(meta.siteName, content)
				case property == "og:description" || name == "description":
					meta.description = firstNonEmpty(meta.description, content)
				case property == "article:published_time":
					meta.published = firstNonEmpty(meta.published, trimDate(content))
				case property == "article:author" || name == "author":
					meta.author = firstNonEmpty(meta.author, content)
				case property == "article:tag":
					if content != "" {
						meta.tags = append(meta.tags, content)
					}
				case name == "keywords":
					for _, tag := range strings.Split(content, ",") {
						if tag = strings.TrimSpace(tag); tag != "" {
							meta.tags = append(meta.tags, tag)
						}
					}
				}
			case "script":
				if metaAttr(n, "type") == "application/ld+json" && n.FirstChild != nil {
					applyJSONLD(&meta, n.FirstChild.Data)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return meta
}

// applyJSONLD fills gaps in meta from a JSON-LD block, ignoring anything
// it cannot decode.
func applyJSONLD(meta *articleMeta, raw string) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return
	}
	if s, ok := obj["headline"].(string); ok {
		meta.title = firstNonEmpty(meta.title, s)
	}
	if s, ok := obj["datePublished"].(string); ok {
		meta.published = firstNonEmpty(meta.published, trimDate(s))
	}
	switch author := obj["author"].(type) {
	case map[string]any:
		if s, ok := author["name"].(string); ok {
			meta.author = firstNonEmpty(meta.author, s)
		}
	case []any:
		if len(author) > 0 {
			if m, ok := author[0].(map[string]any); ok {
				if s, ok := m["name"].(string); ok {
					meta.author = firstNonEmpty(meta.author, s)
				}
			}
		}
	}
}

func metaAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// trimDate reduces an ISO timestamp to its date part.
func trimDate(s string) string {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format("2006-01-02")
	}
	if len(s) >= 10 {
		return s[:10]
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
