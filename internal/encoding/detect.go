package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Charset names the encoding a roster export was decoded from.
type Charset string

const (
	CharsetUTF8        Charset = "UTF-8"
	CharsetUTF16LE     Charset = "UTF-16LE"
	CharsetUTF16BE     Charset = "UTF-16BE"
	CharsetWindows1252 Charset = "windows-1252"
	CharsetISO88599    Charset = "ISO-8859-9"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

const sniffLen = 4096

// NewUTF8Reader returns a reader decoding r to UTF-8 along with the charset it picked.
// HR spreadsheets are usually saved from Excel, so anything that is neither
// BOM-marked nor valid UTF-8 is read as Windows-1252 unless chardet says otherwise.
func NewUTF8Reader(r io.Reader) (io.Reader, Charset, error) {
	br := bufio.NewReaderSize(r, sniffLen)

	buf, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, "", fmt.Errorf("peek: %w", err)
	}

	switch {
	case bytes.HasPrefix(buf, bomUTF8):
		_, _ = br.Discard(len(bomUTF8))
		return br, CharsetUTF8, nil
	case bytes.HasPrefix(buf, bomUTF16LE):
		return transform.NewReader(br, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()), CharsetUTF16LE, nil
	case bytes.HasPrefix(buf, bomUTF16BE):
		return transform.NewReader(br, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()), CharsetUTF16BE, nil
	case validUTF8Prefix(buf):
		return br, CharsetUTF8, nil
	}

	if cs := detect(buf); cs == CharsetISO88599 {
		return transform.NewReader(br, charmap.ISO8859_9.NewDecoder()), cs, nil
	}

	return transform.NewReader(br, charmap.Windows1252.NewDecoder()), CharsetWindows1252, nil
}

// validUTF8Prefix ignores a multi-byte rune cut in half at the end of the sniffed window.
func validUTF8Prefix(buf []byte) bool {
	if len(buf) == 0 {
		return true
	}

	for i := 0; i < utf8.UTFMax && len(buf) > 0; i++ {
		if utf8.Valid(buf) {
			return true
		}

		if len(buf) < sniffLen {
			return false
		}

		buf = buf[:len(buf)-1]
	}

	return false
}

func detect(buf []byte) Charset {
	result, err := chardet.NewTextDetector().DetectBest(buf)
	if err != nil {
		return CharsetWindows1252
	}

	switch result.Charset {
	case "ISO-8859-9":
		return CharsetISO88599
	default:
		return CharsetWindows1252
	}
}
