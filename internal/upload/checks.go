package upload

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const invalidNameChars = `<>:"/\|?*`

var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

var dangerousExtensions = map[string]bool{
	// executables and installers
	".exe": true, ".com": true, ".scr": true, ".pif": true, ".msi": true, ".msp": true,
	".app": true, ".deb": true, ".rpm": true, ".dmg": true, ".pkg": true, ".apk": true,
	".cpl": true, ".gadget": true, ".inf": true, ".reg": true, ".lnk": true, ".sys": true,
	// shared libraries
	".dll": true, ".so": true, ".dylib": true, ".ocx": true, ".drv": true,
	// shell and windows scripting
	".bat": true, ".cmd": true, ".sh": true, ".bash": true, ".zsh": true, ".ps1": true,
	".psm1": true, ".vb": true, ".vbs": true, ".vbe": true, ".js": true, ".jse": true,
	".ws": true, ".wsf": true, ".wsh": true, ".hta": true, ".jar": true,
	// server-side and interpreted sources
	".php": true, ".php3": true, ".php4": true, ".php5": true, ".phtml": true, ".phar": true,
	".asp": true, ".aspx": true, ".jsp": true, ".jspx": true, ".cgi": true, ".pl": true,
	".py": true, ".rb": true, ".htaccess": true,
}

type pattern struct {
	name     string
	re       *regexp.Regexp
	severity Severity
}

var embeddedPatterns = []pattern{
	{"script tag", regexp.MustCompile(`(?i)<script[\s>/]`), SeverityCritical},
	{"javascript URI", regexp.MustCompile(`(?i)javascript\s*:`), SeverityHigh},
	{"vbscript URI", regexp.MustCompile(`(?i)vbscript\s*:`), SeverityHigh},
	{"inline event handler", regexp.MustCompile(`(?i)\bon(load|error|click|mouseover|focus|blur|submit)\s*=`), SeverityHigh},
	{"eval call", regexp.MustCompile(`(?i)\beval\s*\(`), SeverityCritical},
	{"exec call", regexp.MustCompile(`(?i)\bexec\s*\(`), SeverityCritical},
	{"system call", regexp.MustCompile(`(?i)\bsystem\s*\(`), SeverityCritical},
	{"shell_exec call", regexp.MustCompile(`(?i)\bshell_exec\s*\(`), SeverityCritical},
	{"passthru call", regexp.MustCompile(`(?i)\bpassthru\s*\(`), SeverityCritical},
	{"file I/O call", regexp.MustCompile(`(?i)\b(fopen|fwrite|file_get_contents|file_put_contents|readfile)\s*\(`), SeverityHigh},
	{"PHP open tag", regexp.MustCompile(`(?i)<\?(php|=)`), SeverityCritical},
	{"SQL union select", regexp.MustCompile(`(?i)\bunion\s+(all\s+)?select\b`), SeverityHigh},
	{"SQL drop table", regexp.MustCompile(`(?i)\bdrop\s+table\b`), SeverityHigh},
	{"SQL delete from", regexp.MustCompile(`(?i);\s*delete\s+from\b`), SeverityHigh},
	{"SQL insert into", regexp.MustCompile(`(?i);\s*insert\s+into\b`), SeverityHigh},
	{"SQL tautology", regexp.MustCompile(`(?i)'\s*or\s+'1'\s*=\s*'1`), SeverityHigh},
}

// scriptPatterns is the subset re-run against images.
var scriptPatterns = embeddedPatterns[:4]

var (
	base64Run      = regexp.MustCompile(`[A-Za-z0-9+/]{100,}={0,2}`)
	exifMarker     = regexp.MustCompile(`(?i)exif`)
	macroMarker    = regexp.MustCompile(`(?i)vbaproject|autoopen|auto_open|document_open|workbook_open|attribute\s+vb_`)
	embedMarker    = regexp.MustCompile(`(?i)<(object|embed)[\s>]`)
	pdfActionToken = regexp.MustCompile(`/(JavaScript|JS|Launch|OpenAction|EmbeddedFile)\b`)
)

func errorf(check string, sev Severity, format string, args ...any) Finding {
	return Finding{Check: check, Severity: sev, Message: fmt.Sprintf(format, args...), Blocking: true}
}

func warnf(check string, sev Severity, format string, args ...any) Finding {
	return Finding{Check: check, Severity: sev, Message: fmt.Sprintf(format, args...)}
}

func checkBasics(c *candidate) []Finding {
	var out []Finding
	if strings.TrimSpace(c.OriginalName) == "" {
		out = append(out, errorf("basic", SeverityMedium, "Filename is required"))
	}
	if len(c.Data) == 0 {
		out = append(out, errorf("basic", SeverityMedium, "File is empty"))
	}
	if c.Size <= 0 {
		out = append(out, errorf("basic", SeverityMedium, "File size must be positive"))
	}
	if c.mime == "" {
		out = append(out, errorf("basic", SeverityMedium, "MIME type is required"))
	}
	if c.Size > 0 && len(c.Data) > 0 && c.Size != int64(len(c.Data)) {
		out = append(out, warnf("basic", SeverityLow, "Declared size (%d bytes) differs from received size (%d bytes)", c.Size, len(c.Data)))
	}
	return out
}

func (v *Validator) checkType(c *candidate) []Finding {
	if c.mime == "" {
		return nil
	}
	byMime := v.categories.byMime(c.mime)
	byExt := v.categories.byExtension(c.ext)
	switch {
	case byMime == nil:
		return []Finding{errorf("type", SeverityHigh, "File type %q is not allowed", c.mime)}
	case byExt == nil:
		return []Finding{errorf("type", SeverityHigh, "File extension %q is not allowed", c.ext)}
	case byMime.Kind != byExt.Kind:
		return []Finding{errorf("type", SeverityHigh, "File extension %q does not match file type %q", c.ext, c.mime)}
	}
	for _, e := range byMime.Types[c.mime] {
		if e == c.ext {
			return nil
		}
	}
	return []Finding{warnf("type", SeverityLow, "Extension %q is unusual for file type %q", c.ext, c.mime)}
}

func (v *Validator) checkSize(c *candidate) []Finding {
	var out []Finding
	size := c.effectiveSize()
	if cat := c.category; cat != nil && size > cat.MaxBytes {
		out = append(out, errorf("size", SeverityMedium, "File size %s exceeds the %s limit for %s files", humanBytes(size), humanBytes(cat.MaxBytes), cat.Kind))
	}
	if size > v.absoluteMax {
		out = append(out, warnf("size", SeverityHigh, "File size %s exceeds the absolute limit of %s", humanBytes(size), humanBytes(v.absoluteMax)))
	}
	return out
}

func checkFilename(c *candidate) []Finding {
	name := strings.TrimSpace(c.OriginalName)
	if name == "" {
		return nil
	}
	var out []Finding
	if len(name) > 255 {
		out = append(out, errorf("filename", SeverityMedium, "Filename is longer than 255 bytes"))
	}
	if strings.ContainsAny(name, invalidNameChars) {
		out = append(out, errorf("filename", SeverityHigh, "Filename contains invalid characters"))
	}
	if strings.IndexFunc(name, isControl) >= 0 {
		out = append(out, errorf("filename", SeverityHigh, "Filename contains control characters"))
	}
	base, _, _ := strings.Cut(name, ".")
	if reservedNames[strings.ToUpper(strings.TrimSpace(base))] {
		out = append(out, errorf("filename", SeverityHigh, "Filename uses a reserved device name"))
	}
	if dangerousExtensions[c.ext] {
		out = append(out, errorf("filename", SeverityCritical, "File extension %q is not allowed for security reasons", c.ext))
	}
	segments := 0
	for _, s := range strings.Split(name, ".") {
		if s != "" {
			segments++
		}
	}
	if segments >= 3 {
		out = append(out, warnf("filename", SeverityMedium, "Filename has multiple extensions"))
	}
	return out
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7F || unicode.Is(unicode.Cc, r)
}

func checkSignature(c *candidate) []Finding {
	sigs, ok := mimeSignatures[c.mime]
	if !ok || len(c.Data) == 0 {
		return nil
	}
	for _, s := range sigs {
		if s.matches(c.Data) {
			return nil
		}
	}
	return []Finding{errorf("signature", SeverityCritical, "File content does not match declared type %q", c.mime)}
}

func checkExecutable(c *candidate) []Finding {
	for _, s := range executableSignatures {
		if s.matches(c.Data) {
			return []Finding{errorf("executable", SeverityCritical, "File contains executable code (%s)", s.label)}
		}
	}
	return nil
}

func checkEmbedded(c *candidate) []Finding {
	var out []Finding
	for _, p := range embeddedPatterns {
		if p.re.MatchString(c.text) {
			out = append(out, errorf("content", p.severity, "File contains suspicious content (%s)", p.name))
		}
	}
	if base64Run.MatchString(c.text) {
		out = append(out, warnf("content", SeverityLow, "File contains a long base64-encoded run"))
	}
	return out
}

func checkKind(c *candidate) []Finding {
	if c.category == nil {
		return nil
	}
	var out []Finding
	switch c.category.Kind {
	case KindImage:
		if exifMarker.MatchString(c.text) && matchesAny(c.text, scriptPatterns) {
			out = append(out, warnf("image", SeverityHigh, "Image metadata appears alongside script-like content"))
		}
	case KindDocument:
		if macroMarker.MatchString(c.text) {
			out = append(out, warnf("document", SeverityMedium, "Document may contain macros"))
		}
		if embedMarker.MatchString(c.text) {
			out = append(out, warnf("document", SeverityMedium, "Document contains embedded objects"))
		}
		if c.mime == "application/pdf" && pdfActionToken.MatchString(c.text) {
			out = append(out, warnf("document", SeverityMedium, "PDF contains active content"))
		}
	}
	return out
}

func matchesAny(text string, patterns []pattern) bool {
	for _, p := range patterns {
		if p.re.MatchString(text) {
			return true
		}
	}
	return false
}

func humanBytes(n int64) string {
	switch {
	case n >= MB:
		return fmt.Sprintf("%.1fMB", float64(n)/float64(MB))
	case n >= 1024:
		return fmt.Sprintf("%.1fKB", float64(n)/1024)
	}
	return fmt.Sprintf("%dB", n)
}
