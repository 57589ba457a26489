package transfer

import (
	"errors"

	"github.com/atotto/clipboard"

	"github.com/joshuapare/hexkit/find"
)

// ErrClipboardUnavailable is returned when no system clipboard utility
// could be found.
var ErrClipboardUnavailable = errors.New("system clipboard unavailable")

// Clipboard is a plain-text clipboard.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error) {
	if clipboard.Unsupported {
		return "", ErrClipboardUnavailable
	}
	return clipboard.ReadAll()
}

func (systemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return ErrClipboardUnavailable
	}
	return clipboard.WriteAll(text)
}

// System is the operating system clipboard.
var System Clipboard = systemClipboard{}

// Publish places the text rendering of p on cb.
func Publish(cb Clipboard, p *Payload) error {
	return cb.WriteAll(p.Text)
}

// Fetch reads cb and turns its text into a payload. With asHex set the
// text is parsed as hex digits when it can be; anything else is taken as
// raw UTF-8 bytes.
func Fetch(cb Clipboard, asHex bool) (*Payload, error) {
	text, err := cb.ReadAll()
	if err != nil {
		return nil, err
	}
	if asHex {
		if data, err := find.ParseHex(text); err == nil {
			p := NewPayload(data)
			p.Text = text
			return p, nil
		}
	}
	return NewPayload([]byte(text)), nil
}
