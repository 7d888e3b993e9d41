package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
)

var (
	docxParaRe = regexp.MustCompile(`(?s)<w:p[ >].*?</w:p>`)
	docxRunRe  = regexp.MustCompile(`(?s)<w:t(?: [^>]*)?>(.*?)</w:t>`)
	pptxRunRe  = regexp.MustCompile(`(?s)<a:t>(.*?)</a:t>`)
	slideRe    = regexp.MustCompile(`^ppt/slides/slide\d+\.xml$`)
	xmlTagRe   = regexp.MustCompile(`<[^>]+>`)
)

// docxText extracts the text runs of word/document.xml. Runs are joined
// within each paragraph and paragraphs are joined with newlines.
func docxText(data []byte) (string, error) {
	doc, err := archivePart(data, "word/document.xml")
	if err != nil {
		return "", err
	}
	var paras []string
	for _, p := range docxParaRe.FindAllString(doc, -1) {
		runs := docxRunRe.FindAllStringSubmatch(p, -1)
		if len(runs) == 0 {
			continue
		}
		var b strings.Builder
		for _, r := range runs {
			b.WriteString(html.UnescapeString(r[1]))
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			paras = append(paras, s)
		}
	}
	return strings.Join(paras, "\n"), nil
}

// pptxText extracts the text runs of every ppt/slides/slideN.xml part.
// Runs are joined with spaces within a slide and slides are joined with
// newlines, in archive enumeration order.
func pptxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("extract: open archive: %w", err)
	}
	var slides []string
	for _, f := range zr.File {
		if !slideRe.MatchString(f.Name) {
			continue
		}
		content, err := readArchiveFile(f)
		if err != nil {
			return "", err
		}
		runs := pptxRunRe.FindAllStringSubmatch(content, -1)
		var parts []string
		for _, r := range runs {
			text := html.UnescapeString(xmlTagRe.ReplaceAllString(r[1], ""))
			if text != "" {
				parts = append(parts, text)
			}
		}
		if len(parts) > 0 {
			slides = append(slides, strings.Join(parts, " "))
		}
	}
	return strings.Join(slides, "\n"), nil
}

// archivePart returns the named file of a zip archive as a string.
func archivePart(data []byte, name string) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("extract: open archive: %w", err)
	}
	for _, f := range zr.File {
		if f.Name == name {
			return readArchiveFile(f)
		}
	}
	return "", fmt.Errorf("extract: archive has no %s", name)
}

func readArchiveFile(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("extract: open %s: %w", f.Name, err)
	}
	b, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return "", fmt.Errorf("extract: read %s: %w", f.Name, err)
	}
	return string(b), nil
}
