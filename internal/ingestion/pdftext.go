package ingestion

import (
	"bytes"
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfLiteral matches PDF string literals: (text)
var pdfLiteral = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)

// extractDocumentText pulls the text layer out of a PDF by scanning each
// page's content stream for text-showing operators. Glyph runs that share
// an output line are joined with double spaces so that table exports keep
// recoverable column boundaries for rowFromLine.
func extractDocumentText(payload []byte) (string, error) {
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(payload), model.NewDefaultConfiguration())
	if err != nil {
		return "", err
	}
	if ctx.PageCount == 0 {
		return "", errors.New("pdf has no pages")
	}

	var doc strings.Builder
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil || r == nil {
			continue
		}
		stream, err := io.ReadAll(r)
		if err != nil || len(stream) == 0 {
			continue
		}

		pageText := textFromContentStream(stream)
		if pageText == "" {
			continue
		}
		if doc.Len() > 0 {
			doc.WriteByte('\n')
		}
		doc.WriteString(pageText)
	}

	return doc.String(), nil
}

// textFromContentStream interprets the subset of content stream operators
// that carry or position text: Tj, TJ, ' (show), T*, ET (line breaks).
func textFromContentStream(stream []byte) string {
	var (
		out  strings.Builder
		line []string
	)

	flushLine := func() {
		if len(line) == 0 {
			return
		}
		if out.Len() > 0 {
			out.WriteByte('\n')
		}
		out.WriteString(strings.Join(line, "  "))
		line = line[:0]
	}

	for _, raw := range bytes.Split(stream, []byte{'\n'}) {
		op := bytes.TrimSpace(raw)
		if len(op) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(op, []byte("Tj")), bytes.HasSuffix(op, []byte("TJ")):
			if run := literalText(op); run != "" {
				line = append(line, run)
			}
		case bytes.HasSuffix(op, []byte("'")) && bytes.Contains(op, []byte("(")):
			flushLine()
			if run := literalText(op); run != "" {
				line = append(line, run)
			}
		case bytes.Equal(op, []byte("T*")), bytes.Equal(op, []byte("ET")):
			flushLine()
		}
	}
	flushLine()

	return out.String()
}

// literalText concatenates every string literal on one operator line.
func literalText(op []byte) string {
	var run strings.Builder
	for _, m := range pdfLiteral.FindAllSubmatch(op, -1) {
		run.WriteString(decodeLiteral(m[1]))
	}
	return strings.TrimSpace(run.String())
}

// decodeLiteral resolves backslash escapes inside a PDF string literal,
// including octal byte codes.
func decodeLiteral(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] < '0' || raw[i] > '7' {
				sb.WriteByte(raw[i])
				continue
			}
			val := int(raw[i] - '0')
			for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
				i++
				val = val*8 + int(raw[i]-'0')
			}
			sb.WriteByte(byte(val))
		}
	}
	return sb.String()
}
