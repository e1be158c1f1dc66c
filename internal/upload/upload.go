// Package upload decides whether a file upload may be stored.
//
// A Validator runs a fixed set of independent checks over a fully buffered
// candidate. Every check always runs; their findings are merged and the upload
// is rejected if any finding is blocking.
package upload

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"sync"
	"unicode/utf8"
)

// Severity grades a finding.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Finding is one observation made by a check. Blocking findings are errors,
// the rest are warnings.
type Finding struct {
	Check    string   `json:"check"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Blocking bool     `json:"blocking"`
}

// Candidate is an upload waiting for a verdict.
type Candidate struct {
	OriginalName string
	Data         []byte
	MimeType     string
	Size         int64
}

// FileInfo describes the candidate independently of the verdict.
type FileInfo struct {
	Size       int64  `json:"size"`
	MimeType   string `json:"mimeType"`
	Extension  string `json:"extension"`
	Hash       string `json:"hash"`
	Kind       Kind   `json:"kind,omitempty"`
	IsImage    bool   `json:"isImage"`
	IsDocument bool   `json:"isDocument"`
	IsVideo    bool   `json:"isVideo"`
	IsAudio    bool   `json:"isAudio"`
	Width      *int   `json:"width,omitempty"`
	Height     *int   `json:"height,omitempty"`
}

// Result is the verdict. Accepted is true iff Errors is empty.
type Result struct {
	Accepted bool      `json:"accepted"`
	Errors   []string  `json:"errors"`
	Warnings []string  `json:"warnings"`
	FileInfo FileInfo  `json:"fileInfo"`
	Findings []Finding `json:"findings"`
}

// Highest returns the most severe finding level, or "" when there are none.
func (r Result) Highest() Severity {
	rank := map[Severity]int{SeverityLow: 1, SeverityMedium: 2, SeverityHigh: 3, SeverityCritical: 4}
	var top Severity
	for _, f := range r.Findings {
		if rank[f.Severity] > rank[top] {
			top = f.Severity
		}
	}
	return top
}

// Option configures a Validator.
type Option func(*Validator)

// WithCategories replaces the allow-list.
func WithCategories(cats []Category) Option {
	return func(v *Validator) {
		v.categories = allowList(cats)
	}
}

// WithLimit overrides the size ceiling of one kind.
func WithLimit(kind Kind, maxBytes int64) Option {
	return func(v *Validator) {
		if c := v.categories.byKind(kind); c != nil && maxBytes > 0 {
			c.MaxBytes = maxBytes
		}
	}
}

// WithAbsoluteMax sets the ceiling above which every upload draws a warning.
func WithAbsoluteMax(maxBytes int64) Option {
	return func(v *Validator) {
		if maxBytes > 0 {
			v.absoluteMax = maxBytes
		}
	}
}

// WithScanLimit sets how many leading bytes the content scan inspects.
func WithScanLimit(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.scanLimit = n
		}
	}
}

// Validator is safe for concurrent use once constructed.
type Validator struct {
	categories  allowList
	absoluteMax int64
	scanLimit   int
}

func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		categories:  allowList(DefaultCategories()),
		absoluteMax: DefaultAbsoluteMaxBytes,
		scanLimit:   int(DefaultScanBytes),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// MaxBytes is the largest size any category accepts.
func (v *Validator) MaxBytes() int64 {
	var largest int64
	for _, c := range v.categories {
		if c.MaxBytes > largest {
			largest = c.MaxBytes
		}
	}
	return largest
}

type candidate struct {
	Candidate
	mime     string
	ext      string
	category *Category
	text     string
}

func (c *candidate) effectiveSize() int64 {
	if n := int64(len(c.Data)); n > c.Size {
		return n
	}
	return c.Size
}

type check func(*candidate) []Finding

// Validate runs every check against in and merges the findings in a fixed
// order so the verdict is deterministic.
func (v *Validator) Validate(in Candidate) Result {
	c := &candidate{
		Candidate: in,
		mime:      NormalizeMime(in.MimeType),
		ext:       Extension(in.OriginalName),
	}
	c.category = v.categories.byMime(c.mime)
	c.text = scanText(in.Data, v.scanLimit)

	checks := []check{
		checkBasics,
		v.checkType,
		v.checkSize,
		checkFilename,
		checkSignature,
		checkExecutable,
		checkEmbedded,
		checkKind,
	}

	var (
		wg       sync.WaitGroup
		findings = make([][]Finding, len(checks))
		hash     string
	)
	for i, fn := range checks {
		wg.Add(1)
		go func(i int, fn check) {
			defer wg.Done()
			findings[i] = fn(c)
		}(i, fn)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		sum := sha256.Sum256(in.Data)
		hash = hex.EncodeToString(sum[:])
	}()
	wg.Wait()

	res := Result{
		Errors:   []string{},
		Warnings: []string{},
		Findings: []Finding{},
		FileInfo: FileInfo{
			Size:      c.effectiveSize(),
			MimeType:  c.mime,
			Extension: c.ext,
			Hash:      hash,
		},
	}
	for _, group := range findings {
		for _, f := range group {
			res.Findings = append(res.Findings, f)
			if f.Blocking {
				res.Errors = append(res.Errors, f.Message)
			} else {
				res.Warnings = append(res.Warnings, f.Message)
			}
		}
	}
	res.Accepted = len(res.Errors) == 0

	if c.category != nil {
		res.FileInfo.Kind = c.category.Kind
		res.FileInfo.IsImage = c.category.Kind == KindImage
		res.FileInfo.IsDocument = c.category.Kind == KindDocument
		res.FileInfo.IsVideo = c.category.Kind == KindVideo
		res.FileInfo.IsAudio = c.category.Kind == KindAudio
	}
	if res.Accepted && res.FileInfo.IsImage {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(in.Data)); err == nil {
			w, h := cfg.Width, cfg.Height
			res.FileInfo.Width, res.FileInfo.Height = &w, &h
		}
	}
	return res
}

// scanText renders the leading bytes as text for pattern matching. Invalid
// UTF-8 is replaced so binary content cannot hide patterns behind bad runes.
func scanText(data []byte, limit int) string {
	if len(data) > limit {
		data = data[:limit]
	}
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "�")
}
