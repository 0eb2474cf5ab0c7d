package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PentesterFlow/workshopgraph/internal/dom"
)

// Field identifies one of the labeled metadata values found on item pages.
type Field int

const (
	WorkshopID Field = iota
	ModID
	MapFolder
)

// Label returns the report label for the field.
func (f Field) Label() string {
	switch f {
	case WorkshopID:
		return "Workshop ID"
	case ModID:
		return "Mod ID"
	case MapFolder:
		return "Map Folder"
	default:
		return ""
	}
}

type labelPattern struct {
	field Field
	re    *regexp.Regexp
}

// Checked in order; the first match claims the segment.
var labelPatterns = []labelPattern{
	{WorkshopID, regexp.MustCompile(`\bWorkshop ID\b\s*:?\s*([^\s:].*)`)},
	{ModID, regexp.MustCompile(`\bMod ID\b\s*:?\s*([^\s:].*)`)},
	{MapFolder, regexp.MustCompile(`\bMap Folder\b\s*:?\s*([^\s:].*)`)},
}

var whitespace = regexp.MustCompile(`\s+`)

// Fields is the set of labeled values found on one page.
type Fields struct {
	sets [3]map[string]struct{}
}

// NewFields returns an empty field set.
func NewFields() *Fields {
	f := &Fields{}
	for i := range f.sets {
		f.sets[i] = make(map[string]struct{})
	}
	return f
}

// Add records value under field.
func (f *Fields) Add(field Field, value string) {
	f.sets[field][value] = struct{}{}
}

// Has reports whether any value was recorded for field.
func (f *Fields) Has(field Field) bool {
	return len(f.sets[field]) > 0
}

// Values returns the recorded values for field, sorted.
func (f *Fields) Values(field Field) []string {
	values := make([]string, 0, len(f.sets[field]))
	for v := range f.sets[field] {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// Lines renders one "<Label>: a, b" line per non-empty field, in label order.
func (f *Fields) Lines() []string {
	var lines []string
	for _, field := range []Field{WorkshopID, ModID, MapFolder} {
		if !f.Has(field) {
			continue
		}
		lines = append(lines, field.Label()+": "+strings.Join(f.Values(field), ", "))
	}
	return lines
}

// ExtractFields scans every line-break delimited text segment of doc.
func ExtractFields(doc dom.Document) *Fields {
	fields := NewFields()
	for _, br := range doc.Find("br") {
		segment := Segment(br)
		if segment == "" {
			continue
		}
		for _, p := range labelPatterns {
			if m := p.re.FindStringSubmatch(segment); m != nil {
				fields.Add(p.field, strings.TrimSpace(m[1]))
				break
			}
		}
	}
	return fields
}

// Segment concatenates the text of the siblings following br up to the next
// br element, with whitespace collapsed.
func Segment(br dom.Node) string {
	var b strings.Builder
	for n := br.NextSibling(); n != nil; n = n.NextSibling() {
		if n.Tag() == "br" {
			break
		}
		if n.IsText() || n.IsElement() {
			b.WriteString(n.Text())
		}
	}
	return strings.TrimSpace(whitespace.ReplaceAllString(b.String(), " "))
}
