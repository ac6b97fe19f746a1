package convert

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"

	"rtc/content"
)

// header size is enough for BOM and any binary signature filetype knows
const headerSize = 512

type srcEncoding int

const (
	encUnknown srcEncoding = iota
	encUTF8
	encUTF16BigEndian
	encUTF16LittleEndian
	encUTF32BigEndian
	encUTF32LittleEndian
)

func (e srcEncoding) String() string {
	switch e {
	case encUTF8:
		return "utf8"
	case encUTF16BigEndian:
		return "utf16be"
	case encUTF16LittleEndian:
		return "utf16le"
	case encUTF32BigEndian:
		return "utf32be"
	case encUTF32LittleEndian:
		return "utf32le"
	default:
		return "unknown"
	}
}

// payloadType is editor JSON document.
var payloadType = filetype.NewType("rtj", "application/vnd.rich-text+json")

func init() {
	filetype.AddMatcher(payloadType, isPayload)
}

// isPayload detects JSON object in UTF-8 header.
func isPayload(buf []byte) bool {
	return content.IsJSON(buf)
}

func isUTF8BOM3(buf []byte) bool {
	return len(buf) >= 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF
}

func isUTF16BigEndianBOM2(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFE && buf[1] == 0xFF
}

func isUTF16LittleEndianBOM2(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFF && buf[1] == 0xFE
}

func isUTF32BigEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0x00 && buf[1] == 0x00 && buf[2] == 0xFE && buf[3] == 0xFF
}

func isUTF32LittleEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0xFF && buf[1] == 0xFE && buf[2] == 0x00 && buf[3] == 0x00
}

// detectUTF looks for BOM, UTF-32 must be checked before UTF-16 since their
// little endian marks share prefix.
func detectUTF(buf []byte) srcEncoding {
	switch {
	case isUTF8BOM3(buf):
		return encUTF8
	case isUTF32BigEndianBOM4(buf):
		return encUTF32BigEndian
	case isUTF32LittleEndianBOM4(buf):
		return encUTF32LittleEndian
	case isUTF16BigEndianBOM2(buf):
		return encUTF16BigEndian
	case isUTF16LittleEndianBOM2(buf):
		return encUTF16LittleEndian
	}
	return encUnknown
}

// selectReader returns reader producing UTF-8 without BOM.
func selectReader(r io.Reader, enc srcEncoding) io.Reader {
	switch enc {
	case encUnknown:
		return r
	case encUTF8:
		return transform.NewReader(r, unicode.UTF8BOM.NewDecoder())
	case encUTF16BigEndian:
		return transform.NewReader(r, unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder())
	case encUTF16LittleEndian:
		return transform.NewReader(r, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
	case encUTF32BigEndian:
		return transform.NewReader(r, utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM).NewDecoder())
	case encUTF32LittleEndian:
		return transform.NewReader(r, utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM).NewDecoder())
	default:
		// this should never happen
		panic("unexpected source encoding")
	}
}

func readHeader(r io.Reader) ([]byte, error) {
	buf := make([]byte, headerSize)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}

func isArchiveFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}
	header, err := readHeader(f)
	if err != nil {
		return false, err
	}
	kind, err := filetype.Match(header)
	if err != nil {
		return false, nil
	}
	return kind == matchers.TypeZip, nil
}

// detectContent decides by name and header whether we could prepare document
// and how its text is encoded. Binary files with text extensions are rejected,
// so are files named .json which do not hold JSON object.
func detectContent(name string, header []byte) (bool, srcEncoding) {
	if !content.IsSupported(name) {
		return false, encUnknown
	}
	enc := detectUTF(header)
	if enc != encUnknown && enc != encUTF8 {
		// cannot sniff without decoding, trust the name
		return true, enc
	}

	kind, _ := filetype.Match(header)
	if strings.EqualFold(filepath.Ext(name), ".json") {
		return kind == payloadType, enc
	}
	return kind == filetype.Unknown || kind == payloadType, enc
}

func isContentFile(path string) (bool, srcEncoding, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, encUnknown, err
	}
	defer f.Close()

	header, err := readHeader(f)
	if err != nil {
		return false, encUnknown, err
	}
	ok, enc := detectContent(path, header)
	return ok, enc, nil
}

func isContentInArchive(f *zip.File) (bool, srcEncoding, error) {
	if !content.IsSupported(f.FileHeader.Name) {
		return false, encUnknown, nil
	}
	r, err := f.Open()
	if err != nil {
		return false, encUnknown, err
	}
	defer r.Close()

	header, err := readHeader(r)
	if err != nil {
		return false, encUnknown, err
	}
	ok, enc := detectContent(f.FileHeader.Name, header)
	return ok, enc, nil
}
