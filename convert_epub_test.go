package ragmark

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testContainerXML = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const testOPF = `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>The Test Book</dc:title>
    <dc:creator>Jane Author</dc:creator>
    <dc:language>en</dc:language>
    <dc:publisher>Example House</dc:publisher>
    <dc:identifier>urn:isbn:9780000000000</dc:identifier>
    <dc:date>2021-05-04</dc:date>
    <dc:description>A short book for exercising the converter.</dc:description>
  </metadata>
  <manifest>
    <item id="ch1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="ch1"/>
  </spine>
</package>`

const testChapterXHTML = `<html><body>
<h1>Chapter One</h1>
<p>It was a dark and stormy night, and the converter had work to do.</p>
</body></html>`

func buildTestEPUB(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"mimetype":               "application/epub+zip",
		"META-INF/container.xml": testContainerXML,
		"OEBPS/content.opf":      testOPF,
		"OEBPS/chapter1.xhtml":   testChapterXHTML,
	}
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestParseOPF(t *testing.T) {
	data := buildTestEPUB(t)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}

	opfPath, err := findOPFPath(zr)
	if err != nil {
		t.Fatalf("findOPFPath: %v", err)
	}
	if opfPath != "OEBPS/content.opf" {
		t.Fatalf("opfPath = %q, want OEBPS/content.opf", opfPath)
	}

	meta, manifest, spine, err := parseOPF(zr, opfPath)
	if err != nil {
		t.Fatalf("parseOPF: %v", err)
	}
	if meta.title != "The Test Book" {
		t.Errorf("title = %q", meta.title)
	}
	if len(meta.authors) != 1 || meta.authors[0] != "Jane Author" {
		t.Errorf("authors = %v", meta.authors)
	}
	if meta.language != "en" {
		t.Errorf("language = %q", meta.language)
	}
	if meta.publisher != "Example House" {
		t.Errorf("publisher = %q", meta.publisher)
	}
	if meta.identifier != "urn:isbn:9780000000000" {
		t.Errorf("identifier = %q", meta.identifier)
	}
	if meta.date != "2021-05-04" {
		t.Errorf("date = %q", meta.date)
	}
	item, ok := manifest["ch1"]
	if !ok || item.href != "chapter1.xhtml" {
		t.Errorf("manifest[ch1] = %+v, ok=%v", item, ok)
	}
	if len(spine) != 1 || spine[0] != "ch1" {
		t.Errorf("spine = %v", spine)
	}
}

func TestConvertEPUBEmitsBookMetadata(t *testing.T) {
	dir := t.TempDir()
	epubPath := filepath.Join(dir, "test.epub")
	if err := os.WriteFile(epubPath, buildTestEPUB(t), 0o644); err != nil {
		t.Fatal(err)
	}

	c := &Converter{logger: testLogger()}
	res, err := c.ConvertEPUB(context.Background(), epubPath, dir)
	if err != nil {
		t.Fatalf("ConvertEPUB: %v", err)
	}

	out, err := os.ReadFile(res.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	got := string(out)
	for _, want := range []string{
		"title: The Test Book",
		"author: Jane Author",
		"publisher: Example House",
		"language: en",
		"identifier: urn:isbn:9780000000000",
		"2021-05-04",
		"# Chapter One",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q\n%s", want, got)
		}
	}
}
