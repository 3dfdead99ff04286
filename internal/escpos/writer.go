package escpos

import (
	"bytes"

	"golang.org/x/text/encoding/charmap"
)

// Writer accumulates a command stream in memory. Printable text is transcoded
// to code page 437; runes the code page lacks come out as '?'.
type Writer struct {
	buf bytes.Buffer
}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) Init() *Writer {
	w.buf.Write(cmdInit)
	return w
}

func (w *Writer) CodePage437() *Writer {
	w.buf.Write(cmdCodePage437)
	return w
}

func (w *Writer) NarrowSpacing() *Writer {
	w.buf.Write(cmdSpacingNarrow)
	return w
}

func (w *Writer) Bold(on bool) *Writer {
	if on {
		w.buf.Write(cmdBoldOn)
	} else {
		w.buf.Write(cmdBoldOff)
	}
	return w
}

func (w *Writer) Align(a Align) *Writer {
	w.buf.Write([]byte{ESC, 0x61, byte(a)})
	return w
}

func (w *Writer) Font(f Font) *Writer {
	w.buf.Write([]byte{GS, 0x21, byte(f)})
	return w
}

// Text writes s without a line terminator.
func (w *Writer) Text(s string) *Writer {
	for _, r := range s {
		b, ok := charmap.CodePage437.EncodeRune(r)
		if !ok {
			b = '?'
		}
		w.buf.WriteByte(b)
	}
	return w
}

// Line writes s followed by LF.
func (w *Writer) Line(s string) *Writer {
	return w.Text(s).Feed(1)
}

func (w *Writer) Feed(n int) *Writer {
	for i := 0; i < n; i++ {
		w.buf.WriteByte(LF)
	}
	return w
}

func (w *Writer) Cut() *Writer {
	w.buf.Write(cmdCut)
	return w
}

func (w *Writer) Len() int {
	return w.buf.Len()
}

// Bytes returns a copy of the stream written so far.
func (w *Writer) Bytes() []byte {
	return bytes.Clone(w.buf.Bytes())
}
