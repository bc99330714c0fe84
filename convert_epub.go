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
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ConvertEPUB converts an EPUB book into a Markdown file under outputDir.
// Chapters are converted in spine order; book metadata becomes the YAML
// frontmatter.
func (c *Converter) ConvertEPUB(ctx context.Context, epubPath, outputDir string) (*ConversionResult, error) {
	data, err := os.ReadFile(epubPath)
	if err != nil {
		return nil, &OpenError{Path: epubPath, Err: err}
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &OpenError{Path: epubPath, Err: err}
	}

	opfPath, err := findOPFPath(zr)
	if err != nil {
		return nil, fmt.Errorf("find OPF: %w", err)
	}

	metadata, manifest, spine, err := parseOPF(zr, opfPath)
	if err != nil {
		return nil, fmt.Errorf("parse OPF: %w", err)
	}

	var md strings.Builder
	opfDir := path.Dir(opfPath)

	for _, itemRef := range spine {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item, ok := manifest[itemRef]
		if !ok {
			continue
		}

		filePath := item.href
		if opfDir != "." && !strings.HasPrefix(filePath, "/") {
			filePath = opfDir + "/" + filePath
		}

		fileData, err := readFileFromZip(zr, filePath)
		if err != nil {
			continue
		}

		ext := strings.ToLower(path.Ext(filePath))
		isHTML := ext == ".html" || ext == ".htm" || ext == ".xhtml" ||
			strings.Contains(item.mediaType, "html") || strings.Contains(item.mediaType, "xhtml")
		if !isHTML {
			continue
		}

		chapter, err := htmlToMarkdown(string(fileData))
		if err != nil || strings.TrimSpace(chapter) == "" {
			continue
		}
		md.WriteString(chapter)
		md.WriteString("\n\n")
	}

	body := CleanMarkdown(md.String())
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("epub %q: no readable chapters", epubPath)
	}
	toc := formatTOC(extractTOC(body))

	title := metadata.title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(epubPath), filepath.Ext(epubPath))
	}
	author := strings.Join(metadata.authors, ", ")

	front, err := renderFrontmatter(articleFrontmatter{
		Title:              title,
		Author:             author,
		SourceType:         "epub",
		SourceFile:         filepath.Base(epubPath),
		Publisher:          metadata.publisher,
		Language:           metadata.language,
		Identifier:         metadata.identifier,
		PublicationDate:    metadata.date,
		RetrievedDate:      today(),
		ReadingTimeMinutes: readingTime(body),
		Description:        metadata.description,
		ConverterVersion:   Version,
	})
	if err != nil {
		return nil, err
	}

	var out strings.Builder
	out.WriteString(front)
	out.WriteString("\n")
	if toc != "" {
		out.WriteString(toc)
		out.WriteString("\n")
	}
	out.WriteString(body)

	outputPath := filepath.Join(outputDir, outputFilename(author, title))
	if err := writeFileAtomic(outputPath, []byte(out.String())); err != nil {
		return nil, err
	}

	c.logger.Info("epub converted", "path", epubPath, "output", outputPath, "chapters", len(spine))

	return &ConversionResult{
		OutputPath: outputPath,
		Title:      title,
		Message:    fmt.Sprintf("converted epub with %d spine items", len(spine)),
	}, nil
}

type epubMetadata struct {
	title       string
	authors     []string
	language    string
	publisher   string
	date        string
	description string
	identifier  string
}

type manifestItem struct {
	id        string
	href      string
	mediaType string
}

// readFileFromZip reads a named file from a zip archive.
func readFileFromZip(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("file %q not found in ZIP", name)
}

// findOPFPath finds the OPF file path from META-INF/container.xml.
func findOPFPath(zr *zip.Reader) (string, error) {
	data, err := readFileFromZip(zr, "META-INF/container.xml")
	if err != nil {
		return "", err
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := tok.(xml.StartElement); ok {
			if se.Name.Local == "rootfile" {
				for _, attr := range se.Attr {
					if attr.Name.Local == "full-path" {
						return attr.Value, nil
					}
				}
			}
		}
	}

	return "", fmt.Errorf("rootfile not found in container.xml")
}

// parseOPF parses the OPF file for metadata, manifest, and spine.
func parseOPF(zr *zip.Reader, opfPath string) (epubMetadata, map[string]manifestItem, []string, error) {
	data, err := readFileFromZip(zr, opfPath)
	if err != nil {
		return epubMetadata{}, nil, nil, err
	}

	var meta epubMetadata
	manifest := make(map[string]manifestItem)
	var spine []string

	decoder := xml.NewDecoder(bytes.NewReader(data))

	var inMetadata bool
	var currentTag string

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "metadata":
				inMetadata = true
			case "title", "creator", "language", "publisher", "date", "description", "identifier":
				if inMetadata {
					currentTag = t.Name.Local
				}
			case "item":
				var item manifestItem
				for _, attr := range t.Attr {
					switch attr.Name.Local {
					case "id":
						item.id = attr.Value
					case "href":
						item.href = attr.Value
					case "media-type":
						item.mediaType = attr.Value
					}
				}
				if item.id != "" {
					manifest[item.id] = item
				}
			case "itemref":
				for _, attr := range t.Attr {
					if attr.Name.Local == "idref" {
						spine = append(spine, attr.Value)
					}
				}
			}

		case xml.CharData:
			if inMetadata {
				text := strings.TrimSpace(string(t))
				switch currentTag {
				case "title":
					meta.title = text
				case "creator":
					if text != "" {
						meta.authors = append(meta.authors, text)
					}
				case "language":
					meta.language = text
				case "publisher":
					meta.publisher = text
				case "date":
					meta.date = text
				case "description":
					meta.description = text
				case "identifier":
					meta.identifier = text
				}
			}

		case xml.EndElement:
			if t.Name.Local == "metadata" {
				inMetadata = false
			}
			currentTag = ""
		}
	}

	return meta, manifest, spine, nil
}
