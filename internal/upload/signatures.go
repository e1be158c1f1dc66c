package upload

import "bytes"

type signature struct {
	offset int
	magic  []byte
	label  string
}

func (s signature) matches(data []byte) bool {
	end := s.offset + len(s.magic)
	return len(data) >= end && bytes.Equal(data[s.offset:end], s.magic)
}

func sig(offset int, label string, magic ...byte) signature {
	return signature{offset: offset, magic: magic, label: label}
}

var (
	zipSigs = []signature{
		sig(0, "zip", 0x50, 0x4B, 0x03, 0x04),
		sig(0, "zip (empty)", 0x50, 0x4B, 0x05, 0x06),
		sig(0, "zip (spanned)", 0x50, 0x4B, 0x07, 0x08),
	}
	oleSigs = []signature{
		sig(0, "ole2", 0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1),
	}
	riffSigs = []signature{
		sig(0, "riff", 0x52, 0x49, 0x46, 0x46),
	}
	isoMediaSigs = []signature{
		sig(4, "ftyp", 'f', 't', 'y', 'p'),
	}
	ebmlSigs = []signature{
		sig(0, "ebml", 0x1A, 0x45, 0xDF, 0xA3),
	}
)

// mimeSignatures maps a declared MIME type to the leading bytes its content must
// start with. Types without an entry are not checked.
var mimeSignatures = map[string][]signature{
	"image/jpeg": {sig(0, "jpeg", 0xFF, 0xD8, 0xFF)},
	"image/png":  {sig(0, "png", 0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A)},
	"image/gif":  {sig(0, "gif", 0x47, 0x49, 0x46, 0x38)},
	"image/webp": riffSigs,

	"application/pdf":    {sig(0, "pdf", 0x25, 0x50, 0x44, 0x46)},
	"application/msword": oleSigs,
	"application/vnd.ms-excel":      oleSigs,
	"application/vnd.ms-powerpoint": oleSigs,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   zipSigs,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         zipSigs,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": zipSigs,

	"video/mp4":       isoMediaSigs,
	"video/quicktime": append(append([]signature{}, isoMediaSigs...), sig(4, "moov", 'm', 'o', 'o', 'v'), sig(4, "mdat", 'm', 'd', 'a', 't'), sig(4, "wide", 'w', 'i', 'd', 'e')),
	"video/webm":      ebmlSigs,
	"video/x-msvideo": riffSigs,

	"audio/mpeg": {sig(0, "id3", 0x49, 0x44, 0x33), sig(0, "mpeg frame", 0xFF, 0xFB), sig(0, "mpeg frame", 0xFF, 0xF3), sig(0, "mpeg frame", 0xFF, 0xF2)},
	"audio/wav":  riffSigs,
	"audio/ogg":  {sig(0, "ogg", 0x4F, 0x67, 0x67, 0x53)},
	"audio/mp4":  isoMediaSigs,
	"audio/webm": ebmlSigs,
}

// executableSignatures are checked regardless of the declared type.
var executableSignatures = []signature{
	sig(0, "Windows PE", 0x4D, 0x5A),
	sig(0, "ELF", 0x7F, 0x45, 0x4C, 0x46),
	sig(0, "Mach-O", 0xFE, 0xED, 0xFA, 0xCE),
	sig(0, "Mach-O", 0xCE, 0xFA, 0xED, 0xFE),
	sig(0, "Mach-O 64-bit", 0xFE, 0xED, 0xFA, 0xCF),
	sig(0, "Mach-O 64-bit", 0xCF, 0xFA, 0xED, 0xFE),
}
