// Package strength scores passwords and signing secrets.
//
// Both validators share one scoring model: weighted length, character-class
// diversity, and penalties for blacklisted values, repeats, sequences and
// personal information. The strength level is derived twice, first from the
// score and then from raw length and diversity; the second derivation is
// applied last and wins, so a level can disagree with its score.
package strength

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Level is a coarse strength bucket.
type Level string

const (
	LevelWeak       Level = "weak"
	LevelMedium     Level = "medium"
	LevelStrong     Level = "strong"
	LevelVeryStrong Level = "very-strong"
)

// Result is the outcome of a strength check. Valid means Errors is empty.
// ScoreLevel is derived from Score alone; Strength is derived from length and
// diversity and is the level callers should report.
type Result struct {
	Valid      bool     `json:"valid"`
	Score      int      `json:"score"`
	ScoreLevel Level    `json:"scoreLevel"`
	Strength   Level    `json:"strength"`
	Errors     []string `json:"errors"`
	Warnings   []string `json:"warnings"`
}

const (
	lengthWeight    = 40
	classWeight     = 10
	bonusWeight     = 10
	commonPenalty   = 40
	weakPartPenalty = 25
	runPenalty      = 15
	repeatPenalty   = 10
	sequencePenalty = 15
	personalPenalty = 30
)

var sequences = []string{
	"abcdefghijklmnopqrstuvwxyz",
	"0123456789",
	"qwertyuiop",
	"asdfghjkl",
	"zxcvbnm",
	"1234567890",
}

type profile struct {
	subject           string
	minLength         int
	recommendedLength int
	maxLength         int
	maxBytes          int
	lengthCap         int
	bonusAt           [2]int
	tiers             [3]int
	runLength         int
	common            map[string]bool
	weakParts         []string
}

type classSet struct {
	upper, lower, digit, special bool
}

func (c classSet) count() int {
	n := 0
	for _, b := range []bool{c.upper, c.lower, c.digit, c.special} {
		if b {
			n++
		}
	}
	return n
}

func (c classSet) missing() []string {
	var out []string
	if !c.upper {
		out = append(out, "uppercase letters")
	}
	if !c.lower {
		out = append(out, "lowercase letters")
	}
	if !c.digit {
		out = append(out, "digits")
	}
	if !c.special {
		out = append(out, "special characters")
	}
	return out
}

func classify(s string) classSet {
	var c classSet
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			c.upper = true
		case unicode.IsLower(r):
			c.lower = true
		case unicode.IsDigit(r):
			c.digit = true
		case !unicode.IsSpace(r):
			c.special = true
		}
	}
	return c
}

func (p profile) assess(candidate string, personal []string) Result {
	res := Result{Errors: []string{}, Warnings: []string{}}
	if candidate == "" {
		res.Errors = append(res.Errors, p.subject+" is required")
		res.ScoreLevel, res.Strength = LevelWeak, LevelWeak
		return res
	}

	length := utf8.RuneCountInString(candidate)
	if tooLong := p.overLimit(candidate, length); tooLong != "" {
		res.Errors = append(res.Errors, tooLong)
		res.ScoreLevel, res.Strength = LevelWeak, LevelWeak
		return res
	}

	classes := classify(candidate)
	lower := strings.ToLower(candidate)
	penalty := 0

	if length < p.minLength {
		res.Errors = append(res.Errors, fmt.Sprintf("%s must be at least %d characters long", p.subject, p.minLength))
	} else if length < p.recommendedLength {
		res.Warnings = append(res.Warnings, fmt.Sprintf("Use at least %d characters for a stronger %s", p.recommendedLength, strings.ToLower(p.subject)))
	}

	switch n := classes.count(); {
	case n < 3:
		res.Errors = append(res.Errors, p.subject+" must contain at least 3 of: uppercase letters, lowercase letters, digits, special characters")
	case n < 4:
		res.Warnings = append(res.Warnings, "Add "+strings.Join(classes.missing(), ", ")+" to strengthen the "+strings.ToLower(p.subject))
	}

	if p.common[lower] {
		res.Errors = append(res.Errors, p.subject+" is too common")
		penalty += commonPenalty
	}
	if part := firstContained(lower, p.weakParts); part != "" {
		res.Errors = append(res.Errors, fmt.Sprintf("%s contains a predictable word or pattern (%q)", p.subject, part))
		penalty += weakPartPenalty
	}
	if hasIdenticalRun(lower, p.runLength) {
		res.Warnings = append(res.Warnings, "Avoid repeating the same character")
		penalty += runPenalty
	}
	if hasRepeatedChunk(lower) {
		res.Warnings = append(res.Warnings, "Avoid repeated character sequences")
		penalty += repeatPenalty
	}
	if hasSequentialRun(lower, p.runLength) {
		res.Warnings = append(res.Warnings, "Avoid sequential characters such as abc, 123 or qwerty")
		penalty += sequencePenalty
	}
	if containsPersonal(lower, personal) {
		res.Errors = append(res.Errors, p.subject+" must not contain your email, username or name")
		penalty += personalPenalty
	}

	res.Score = p.score(length, classes.count(), penalty)
	res.ScoreLevel = levelByScore(res.Score)
	// The shape-based level is applied last and overrides the score-based one.
	res.Strength = p.levelByShape(length, classes.count())
	res.Valid = len(res.Errors) == 0
	return res
}

// overLimit reports an oversized candidate. Nothing else is checked on such
// input, so pattern scans stay bounded.
func (p profile) overLimit(candidate string, length int) string {
	if p.maxLength > 0 && length > p.maxLength {
		return fmt.Sprintf("%s must be at most %d characters long", p.subject, p.maxLength)
	}
	if p.maxBytes > 0 && len(candidate) > p.maxBytes {
		return fmt.Sprintf("%s must be at most %d bytes long", p.subject, p.maxBytes)
	}
	return ""
}

func (p profile) score(length, classes, penalty int) int {
	l := length
	if l > p.lengthCap {
		l = p.lengthCap
	}
	score := l*lengthWeight/p.lengthCap + classes*classWeight
	if length >= p.bonusAt[0] {
		score += bonusWeight
	}
	if length >= p.bonusAt[1] {
		score += bonusWeight
	}
	score -= penalty
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func levelByScore(score int) Level {
	switch {
	case score >= 80:
		return LevelVeryStrong
	case score >= 60:
		return LevelStrong
	case score >= 40:
		return LevelMedium
	}
	return LevelWeak
}

func (p profile) levelByShape(length, classes int) Level {
	switch {
	case length >= p.tiers[2] && classes == 4:
		return LevelVeryStrong
	case length >= p.tiers[1] && classes >= 3:
		return LevelStrong
	case length >= p.tiers[0] && classes >= 3:
		return LevelMedium
	}
	return LevelWeak
}

func firstContained(s string, parts []string) string {
	for _, p := range parts {
		if strings.Contains(s, p) {
			return p
		}
	}
	return ""
}

func hasIdenticalRun(s string, n int) bool {
	runes := []rune(s)
	run := 1
	for i := 1; i < len(runes); i++ {
		if runes[i] == runes[i-1] {
			run++
			if run >= n {
				return true
			}
			continue
		}
		run = 1
	}
	return false
}

const maxChunk = 16

// hasRepeatedChunk reports an immediately repeated substring of two to
// maxChunk characters, such as "abab" or "xyzxyz".
func hasRepeatedChunk(s string) bool {
	runes := []rune(s)
	for size := 2; size <= maxChunk && size*2 <= len(runes); size++ {
		for i := 0; i+2*size <= len(runes); i++ {
			if string(runes[i:i+size]) == string(runes[i+size:i+2*size]) {
				return true
			}
		}
	}
	return false
}

func hasSequentialRun(s string, n int) bool {
	runes := []rune(s)
	for i := 0; i+n <= len(runes); i++ {
		window := string(runes[i : i+n])
		for _, seq := range sequences {
			if strings.Contains(seq, window) || strings.Contains(reverse(seq), window) {
				return true
			}
		}
	}
	return false
}

func containsPersonal(s string, fragments []string) bool {
	for _, f := range fragments {
		f = strings.ToLower(strings.TrimSpace(f))
		if utf8.RuneCountInString(f) >= 3 && strings.Contains(s, f) {
			return true
		}
	}
	return false
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
