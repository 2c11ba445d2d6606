// Package bbcode converts the BBCode subset accepted in quotes and comments to HTML.
//
// Input is always HTML-escaped before any tag is transformed, so markup can only
// produce the elements listed in the tag table.
package bbcode

import (
	"html"
	"regexp"
	"strings"
)

// Tag identifies a group of table entries that are enabled or disabled together.
type Tag string

const (
	Bold          Tag = "bold"
	Italics       Tag = "italics"
	Underline     Tag = "underline"
	Delete        Tag = "delete"
	Insert        Tag = "insert"
	Code          Tag = "code"
	Size          Tag = "size"
	Color         Tag = "color"
	ListItem      Tag = "listitem"
	OrderedList   Tag = "orderedlist"
	UnorderedList Tag = "unorderedlist"
	List          Tag = "list"
	DefineTerm    Tag = "defineterm"
	Definition    Tag = "definition"
	DefineList    Tag = "definelist"
	Quote         Tag = "quote"
	Link          Tag = "link"
	Email         Tag = "email"
)

// Mode selects how Options.Tags is interpreted.
type Mode int

const (
	// ModeDisable transforms every tag except those listed.
	ModeDisable Mode = iota
	// ModeEnable transforms only the tags listed.
	ModeEnable
)

// Options controls a single conversion.
type Options struct {
	Mode       Mode
	Tags       []Tag
	Paragraphs bool
}

type rule struct {
	name    string
	tag     Tag
	pattern *regexp.Regexp
	replace func(re *regexp.Regexp, s string) string
}

// optQ matches an optional quote character around attribute values. Quotes have
// already been escaped at this point.
const optQ = `(?:&#34;|&#39;)?`

func expand(template string) func(*regexp.Regexp, string) string {
	return func(re *regexp.Regexp, s string) string {
		return re.ReplaceAllString(s, template)
	}
}

func simple(name string, tag Tag, open, close, template string) rule {
	return rule{
		name:    name,
		tag:     tag,
		pattern: regexp.MustCompile(`(?is)\[` + open + `\](.*?)\[/` + close + `\]`),
		replace: expand(template),
	}
}

// rules is applied top to bottom. List items must be converted before the lists
// that contain them.
var rules = []rule{
	simple("Bold", Bold, "strong", "strong", "<strong>$1</strong>"),
	simple("Italics", Italics, "em", "em", "<em>$1</em>"),
	simple("Bold (alternative)", Bold, "b", "b", "<strong>$1</strong>"),
	simple("Italics (alternative)", Italics, "i", "i", "<em>$1</em>"),
	simple("Underline", Underline, "u", "u", "<u>$1</u>"),
	simple("Strikeout", Delete, "s", "s", "<del>$1</del>"),
	simple("Delete", Delete, "del", "del", "<del>$1</del>"),
	simple("Insert", Insert, "ins", "ins", "<ins>$1</ins>"),
	simple("Code", Code, "code", "code", "<code>$1</code>"),
	{
		name:    "Size",
		tag:     Size,
		pattern: regexp.MustCompile(`(?is)\[size=` + optQ + `(\d{1,3})` + optQ + `\](.*?)\[/size\]`),
		replace: expand(`<span style="font-size: ${1}px;">$2</span>`),
	},
	{
		name:    "Color",
		tag:     Color,
		pattern: regexp.MustCompile(`(?is)\[color=` + optQ + `([a-z]+|#[0-9a-f]{6})` + optQ + `\](.*?)\[/color\]`),
		replace: expand(`<span style="color: $1;">$2</span>`),
	},
	simple("List Item", ListItem, "li", "li", "<li>$1</li>"),
	{
		name:    "List Item (alternative)",
		tag:     ListItem,
		pattern: regexp.MustCompile(`\[\*\]([^\[<]+)`),
		replace: expand("<li>$1</li>"),
	},
	simple("Ordered List", OrderedList, "ol", "ol", "<ol>$1</ol>"),
	simple("Unordered List", UnorderedList, "ul", "ul", "<ul>$1</ul>"),
	simple("Unordered list (alternative)", List, "list", "list", "<ul>$1</ul>"),
	simple("Ordered list (numerical)", List, "list=1", "list", "<ol>$1</ol>"),
	simple("Ordered list (alphabetical)", List, "list=a", "list", `<ol style="list-style-type: lower-alpha;">$1</ol>`),
	simple("Definition Term", DefineTerm, "dt", "dt", "<dt>$1</dt>"),
	simple("Definition Definition", Definition, "dd", "dd", "<dd>$1</dd>"),
	simple("Definition List", DefineList, "dl", "dl", "<dl>$1</dl>"),
	{
		name:    "Quote",
		tag:     Quote,
		pattern: regexp.MustCompile(`(?is)\[quote=` + optQ + `(.*?)` + optQ + `\](.*?)\[/quote\]`),
		replace: expand("<fieldset><legend>$1</legend><blockquote>$2</blockquote></fieldset>"),
	},
	simple("Quote (Sourceless)", Quote, "quote", "quote", "<fieldset><blockquote>$1</blockquote></fieldset>"),
	{
		name:    "Link",
		tag:     Link,
		pattern: regexp.MustCompile(`(?is)\[url=` + optQ + `(.*?)` + optQ + `\](.*?)\[/url\]`),
		replace: linkReplacer(1, 2),
	},
	{
		name:    "Link (Implied)",
		tag:     Link,
		pattern: regexp.MustCompile(`(?is)\[url\](.*?)\[/url\]`),
		replace: linkReplacer(1, 1),
	},
	{
		name:    "Email",
		tag:     Email,
		pattern: regexp.MustCompile(`(?i)\[email\]([^\s\[\]&@]+@[^\s\[\]&@]+)\[/email\]`),
		replace: expand(`<a href="mailto:$1">$1</a>`),
	},
	{
		name:    "Link (Automatic)",
		tag:     Link,
		pattern: regexp.MustCompile(`(^|\s)(https?://[^\s<\[]+)`),
		replace: expandOutsideLinks(`$1<a href="$2">$2</a>`),
	},
	{
		name:    "Bold (easy)",
		tag:     Bold,
		pattern: regexp.MustCompile(`\*([^*\n]+?)\*`),
		replace: expand("<strong>$1</strong>"),
	},
	{
		name:    "Italics (easy)",
		tag:     Italics,
		pattern: regexp.MustCompile(`(^|\s)_([^_\n]+?)_`),
		replace: expand("$1<em>$2</em>"),
	},
}

var anchorElement = regexp.MustCompile(`(?is)<a\s[^>]*>.*?</a>`)

// expandOutsideLinks is expand for matches that do not start inside an existing <a>.
func expandOutsideLinks(template string) func(*regexp.Regexp, string) string {
	return func(re *regexp.Regexp, s string) string {
		anchors := anchorElement.FindAllStringIndex(s, -1)
		if len(anchors) == 0 {
			return re.ReplaceAllString(s, template)
		}

		var out []byte
		last := 0
		for _, m := range re.FindAllStringSubmatchIndex(s, -1) {
			if withinAny(anchors, m[0]) {
				continue
			}
			out = append(out, s[last:m[0]]...)
			out = re.ExpandString(out, template, s, m)
			last = m[1]
		}
		return string(append(out, s[last:]...))
	}
}

func withinAny(spans [][]int, pos int) bool {
	for _, span := range spans {
		if pos >= span[0] && pos < span[1] {
			return true
		}
	}
	return false
}

func linkReplacer(hrefGroup, textGroup int) func(*regexp.Regexp, string) string {
	return func(re *regexp.Regexp, s string) string {
		return re.ReplaceAllStringFunc(s, func(match string) string {
			m := re.FindStringSubmatch(match)
			href := strings.TrimSpace(m[hrefGroup])
			text := m[textGroup]
			if !safeHref(href) {
				return text
			}
			return `<a href="` + href + `">` + text + `</a>`
		})
	}
}

var safeSchemes = []string{"http://", "https://", "ftp://", "mailto:"}

// safeHref accepts absolute http(s), ftp and mailto URLs, and paths on this site.
func safeHref(href string) bool {
	if href == "" {
		return false
	}
	lower := strings.ToLower(href)
	for _, scheme := range safeSchemes {
		if strings.HasPrefix(lower, scheme) && len(lower) > len(scheme) {
			return true
		}
	}
	return strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//")
}

var (
	lineEndings = regexp.MustCompile(`\r\n?`)
	blankLines  = regexp.MustCompile(`\n(?:[ \t]*\n)+`)
)

// ToHTML escapes text and converts the selected tags to HTML.
func ToHTML(text string, opts Options) string {
	out := html.EscapeString(text)

	selected := make(map[Tag]bool, len(opts.Tags))
	for _, t := range opts.Tags {
		selected[t] = true
	}

	for _, r := range rules {
		apply := !selected[r.tag]
		if opts.Mode == ModeEnable {
			apply = selected[r.tag]
		}
		if apply {
			out = r.replace(r.pattern, out)
		}
	}

	out = lineEndings.ReplaceAllString(out, "\n")
	out = strings.TrimSpace(out)
	if opts.Paragraphs {
		out = blankLines.ReplaceAllString(out, "</p><p>")
	}
	out = strings.ReplaceAll(out, "\n", "<br />")

	if opts.Paragraphs {
		return "<p>" + out + "</p>"
	}
	return out
}

// Render converts text with paragraph mode on.
func Render(text string, mode Mode, tags ...Tag) string {
	return ToHTML(text, Options{Mode: mode, Tags: tags, Paragraphs: true})
}

// FormatQuote renders quote text for display, adding quotation marks when the
// text carries none of its own.
func FormatQuote(text string) string {
	text = strings.TrimSpace(text)
	if !strings.ContainsAny(text, "\"“”") {
		text = `"` + text + `"`
	}
	return ToHTML(text, Options{Mode: ModeDisable})
}

// Truncate shortens text to at most max runes, ending in "..." when cut.
func Truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// ruleNames lists the table entries in application order.
func ruleNames() []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.name
	}
	return names
}
