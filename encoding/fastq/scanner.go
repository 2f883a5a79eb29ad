package fastq

import (
	"bufio"
	"fmt"
	"io"
	"unicode/utf8"
)

// bufferSize is the size of the scanner's internal line buffer. Gzip
// decompression of Illumina output produces data far faster than small
// reads can drain it, so the buffer is kept large.
const bufferSize = 2 << 20

// A Read is a FASTQ read, comprising an ID, sequence, line 3
// ("unknown"), and a quality string. Seq, Unk and Qual are treated as
// opaque bytes; Unk in particular is preserved byte-exactly since it
// may carry annotations after the "+".
type Read struct {
	ID, Seq, Unk, Qual string
}

// MalformedRecordError describes a framing failure: a record with fewer
// than four lines, or an ID line that is not valid UTF-8. Offset is the
// byte offset, in the uncompressed stream, of the first line of the
// offending record.
type MalformedRecordError struct {
	Path   string
	Offset int64
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("%s: malformed FASTQ record at byte %d: %s", e.Path, e.Offset, e.Reason)
}

var errEOF = fmt.Errorf("eof")

// Scanner provides a convenient interface for reading FASTQ read data.
// The Scan method returns the next read, returning a boolean indicating
// whether the read succeeded. Scanners are not threadsafe.
//
// Scanner frames the stream into four-line records and requires ID
// lines to be valid UTF-8, but performs no further validation (e.g.,
// seq/qual being of equal length, ID starting with "@").
type Scanner struct {
	b    *bufio.Reader
	path string
	off  int64 // byte offset of the next unread line
	err  error
}

// NewScanner constructs a new Scanner that reads raw FASTQ data from
// the provided reader. Path is used only in error messages.
func NewScanner(r io.Reader, path string) *Scanner {
	return &Scanner{b: bufio.NewReaderSize(r, bufferSize), path: path}
}

// line reads the next line, stripping the trailing "\n" and a "\r"
// preceding it if present. A final line without a newline still counts
// as a line. Returns io.EOF only when no bytes remain.
func (s *Scanner) line() (string, error) {
	text, err := s.b.ReadString('\n')
	if err != nil && (err != io.EOF || len(text) == 0) {
		return "", err
	}
	s.off += int64(len(text))
	if n := len(text); n > 0 && text[n-1] == '\n' {
		text = text[:n-1]
	}
	if n := len(text); n > 0 && text[n-1] == '\r' {
		text = text[:n-1]
	}
	return text, nil
}

// Scan the next read into the provided read. Scan returns a boolean
// indicating whether the scan succeeded. Once Scan returns false, it
// never returns true again. Upon completion, the user should check the
// Err method to determine whether scanning stopped because of an error
// or because the end of the stream was reached.
func (s *Scanner) Scan(read *Read) bool {
	if s.err != nil {
		return false
	}
	recOff := s.off
	id, err := s.line()
	if err != nil {
		if err == io.EOF {
			// Clean termination at a record boundary.
			s.err = errEOF
		} else {
			s.err = err
		}
		return false
	}
	if !utf8.ValidString(id) {
		s.err = &MalformedRecordError{Path: s.path, Offset: recOff, Reason: "ID line is not valid UTF-8"}
		return false
	}
	read.ID = id
	rest := [3]*string{&read.Seq, &read.Unk, &read.Qual}
	for i, p := range rest {
		text, err := s.line()
		if err != nil {
			if err == io.EOF {
				err = &MalformedRecordError{
					Path:   s.path,
					Offset: recOff,
					Reason: fmt.Sprintf("stream ended after %d of 4 lines", i+1),
				}
			}
			s.err = err
			return false
		}
		*p = text
	}
	return true
}

// Err returns the scanning error, if any.
func (s *Scanner) Err() error {
	if s.err == errEOF {
		return nil
	}
	return s.err
}

// Path returns the path the scanner was constructed with.
func (s *Scanner) Path() string { return s.path }
