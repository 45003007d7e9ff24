package agent

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

var documentReaders = map[string]func(path string) (string, error){
	".txt": readTextFile,
	".md":  readTextFile,
	".pdf": readPDFFile,
}

func supportedDocument(path string) bool {
	_, ok := documentReaders[strings.ToLower(filepath.Ext(path))]
	return ok
}

func readDocument(path string) (string, error) {
	return documentReaders[strings.ToLower(filepath.Ext(path))](path)
}

func readTextFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	return string(b), err
}

func readPDFFile(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(plain)
	return string(b), err
}

// chunkText packs blank-line separated paragraphs into chunks of at most size bytes.
// Paragraphs longer than size are cut at word boundaries.
func chunkText(text string, size int) []string {
	var (
		chunks []string
		cur    strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
	}

	for _, para := range paragraphs(text) {
		for _, piece := range splitLong(para, size) {
			if cur.Len() > 0 && cur.Len()+2+len(piece) > size {
				flush()
			}
			if cur.Len() > 0 {
				cur.WriteString("\n\n")
			}
			cur.WriteString(piece)
		}
	}
	flush()
	return chunks
}

func paragraphs(text string) []string {
	var out []string
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			if len(lines) > 0 {
				out = append(out, strings.Join(lines, "\n"))
				lines = nil
			}
			continue
		}
		lines = append(lines, strings.TrimSpace(line))
	}
	if len(lines) > 0 {
		out = append(out, strings.Join(lines, "\n"))
	}
	return out
}

// splitLong cuts s into pieces of at most size bytes without breaking words. A single
// word longer than size stays whole.
func splitLong(s string, size int) []string {
	if len(s) <= size {
		return []string{s}
	}
	var pieces []string
	var cur strings.Builder
	for _, w := range strings.Fields(s) {
		if cur.Len() > 0 && cur.Len()+1+len(w) > size {
			pieces = append(pieces, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(w)
	}
	if cur.Len() > 0 {
		pieces = append(pieces, cur.String())
	}
	return pieces
}
