// Package escpos writes ESC/POS control sequences for line thermal printers.
package escpos

const (
	ESC = 0x1B
	GS  = 0x1D
	LF  = 0x0A
)

type Align byte

const (
	AlignLeft   Align = 0x00
	AlignCenter Align = 0x01
	AlignRight  Align = 0x02
)

type Font byte

const (
	FontNormal       Font = 0x00
	FontDoubleHeight Font = 0x01
	FontDoubleWidth  Font = 0x10
	FontDoubleBoth   Font = 0x11
)

var (
	cmdInit          = []byte{ESC, 0x40}       // ESC @
	cmdBoldOn        = []byte{ESC, 0x45, 0x01} // ESC E 1
	cmdBoldOff       = []byte{ESC, 0x45, 0x00} // ESC E 0
	cmdCodePage437   = []byte{ESC, 0x74, 0x00} // ESC t 0
	cmdSpacingNarrow = []byte{ESC, 0x33, 0x20} // ESC 3 32
	cmdCut           = []byte{GS, 0x56, 0x00}  // GS V 0, full cut
)
