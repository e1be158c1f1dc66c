package upload

import (
	"path"
	"sort"
	"strings"
)

// Kind is the broad family of an accepted file.
type Kind string

const (
	KindImage    Kind = "image"
	KindDocument Kind = "document"
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
)

const (
	MB = int64(1 << 20)

	DefaultImageMaxBytes    = 10 * MB
	DefaultDocumentMaxBytes = 25 * MB
	DefaultVideoMaxBytes    = 100 * MB
	DefaultAudioMaxBytes    = 50 * MB
	DefaultAbsoluteMaxBytes = 500 * MB
	DefaultScanBytes        = 1 * MB
)

// Category is one entry of the allow-list: MIME types with the extensions each
// may carry, and a size ceiling.
type Category struct {
	Kind     Kind
	MaxBytes int64
	Types    map[string][]string
}

// DefaultCategories returns the standard allow-list.
func DefaultCategories() []Category {
	return []Category{
		{
			Kind:     KindImage,
			MaxBytes: DefaultImageMaxBytes,
			Types: map[string][]string{
				"image/jpeg": {".jpg", ".jpeg"},
				"image/png":  {".png"},
				"image/gif":  {".gif"},
				"image/webp": {".webp"},
			},
		},
		{
			Kind:     KindDocument,
			MaxBytes: DefaultDocumentMaxBytes,
			Types: map[string][]string{
				"application/pdf":    {".pdf"},
				"application/msword": {".doc"},
				"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   {".docx"},
				"application/vnd.ms-excel":                                                  {".xls"},
				"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         {".xlsx"},
				"application/vnd.ms-powerpoint":                                             {".ppt"},
				"application/vnd.openxmlformats-officedocument.presentationml.presentation": {".pptx"},
				"text/plain": {".txt"},
				"text/csv":   {".csv"},
			},
		},
		{
			Kind:     KindVideo,
			MaxBytes: DefaultVideoMaxBytes,
			Types: map[string][]string{
				"video/mp4":       {".mp4", ".m4v"},
				"video/webm":      {".webm"},
				"video/quicktime": {".mov"},
				"video/x-msvideo": {".avi"},
			},
		},
		{
			Kind:     KindAudio,
			MaxBytes: DefaultAudioMaxBytes,
			Types: map[string][]string{
				"audio/mpeg": {".mp3"},
				"audio/wav":  {".wav"},
				"audio/ogg":  {".ogg", ".oga"},
				"audio/mp4":  {".m4a"},
				"audio/webm": {".weba"},
			},
		},
	}
}

type allowList []Category

func (l allowList) byMime(mime string) *Category {
	for i := range l {
		if _, ok := l[i].Types[mime]; ok {
			return &l[i]
		}
	}
	return nil
}

func (l allowList) byExtension(ext string) *Category {
	for i := range l {
		for _, exts := range l[i].Types {
			for _, e := range exts {
				if e == ext {
					return &l[i]
				}
			}
		}
	}
	return nil
}

func (l allowList) byKind(kind Kind) *Category {
	for i := range l {
		if l[i].Kind == kind {
			return &l[i]
		}
	}
	return nil
}

// MimeTypes lists the MIME types allowed for kind, sorted.
func MimeTypes(kind Kind) []string {
	c := allowList(DefaultCategories()).byKind(kind)
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.Types))
	for m := range c.Types {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// NormalizeMime lowercases a MIME type and drops parameters.
func NormalizeMime(mime string) string {
	mime, _, _ = strings.Cut(mime, ";")
	return strings.ToLower(strings.TrimSpace(mime))
}

// Extension returns the lowercase final extension of name, including the dot.
func Extension(name string) string {
	return strings.ToLower(path.Ext(strings.TrimSpace(name)))
}
