// Package protocol implements the minechat wire format: newline framed UTF-8
// lines going to the server and JSON-like handshake replies coming back.
package protocol

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

const (
	// LineTerminator ends every line the server sends and every bare line the
	// client sends.
	LineTerminator = "\n"

	// SubmissionTerminator ends a submitted command: the payload line followed
	// by an empty line.
	SubmissionTerminator = "\n\n"
)

var newlineReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Clean prepares text for the wire. Surrounding whitespace is trimmed and
// every embedded newline collapses to a single space, so the result never
// contains a line break.
func Clean(text string) string {
	return newlineReplacer.Replace(strings.TrimSpace(text))
}

// Line frames text as a single protocol line.
func Line(text string) []byte {
	return []byte(Clean(text) + LineTerminator)
}

// Submission frames text as a submitted command ("<payload>\n\n").
func Submission(text string) []byte {
	return []byte(Clean(text) + SubmissionTerminator)
}

// DecodeLine turns raw bytes received from the server into text.
// Trailing terminators are stripped and undecodable byte sequences are
// replaced with U+FFFD. Decoding never fails.
func DecodeLine(raw []byte) string {
	raw = trimTerminators(raw)
	if utf8.Valid(raw) {
		return string(raw)
	}
	decoded, err := unicode.UTF8.NewDecoder().Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
	}
	return string(decoded)
}

func trimTerminators(raw []byte) []byte {
	for len(raw) > 0 {
		last := raw[len(raw)-1]
		if last != '\n' && last != '\r' {
			break
		}
		raw = raw[:len(raw)-1]
	}
	return raw
}
