package completion

import (
	"strings"

	"github.com/samber/lo"

	"github.com/mcpsh/mcpsh/internal/schema"
)

// schemaKeySuffix is appended to a tool name to form its schema cache key.
const schemaKeySuffix = ":args"

// SchemaKey returns the cache key under which a tool's argument schema is
// stored.
func SchemaKey(tool string) string {
	return tool + schemaKeySuffix
}

// Snapshot is an immutable view of the session state that completion reads.
// The session layer swaps in a fresh snapshot after every refresh; the
// engine never mutates one.
type Snapshot struct {
	Commands  []string
	Tools     []string
	Resources []string
	Schemas   map[string]*schema.Schema
}

// Schema returns the cached argument schema for a tool, or nil.
func (s Snapshot) Schema(tool string) *schema.Schema {
	if s.Schemas == nil {
		return nil
	}
	return s.Schemas[SchemaKey(tool)]
}

// Provider is the completion entry point wired into the prompt. Snapshot
// supplies the current command/tool/resource names and schema cache; it is
// called once per completion request.
type Provider struct {
	Snapshot func() Snapshot
}

// verbs that take a tool name followed by a JSON argument.
func isSchemaVerb(verb string) bool {
	return verb == "call" || verb == "tool-details"
}

// Complete returns ranked completion candidates for the line up to the
// cursor. It never fails: malformed input, unknown tools, and missing
// schemas all degrade to fewer or no candidates.
func (p *Provider) Complete(line string, cursor int) []Candidate {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(line) {
		cursor = len(line)
	}
	text := line[:cursor]

	snap := p.snapshot()
	seg := Segment(text)

	// A line that is still its first word, or whose verb takes no JSON
	// argument, falls back to plain name matching.
	if !isSchemaVerb(seg.Verb) && seg.Verb != "read" || !strings.ContainsAny(text, " \t") {
		return p.nameFallback(text, snap)
	}

	names := snap.Tools
	if seg.Verb == "read" {
		names = snap.Resources
	}

	if seg.HasJSON && isSchemaVerb(seg.Verb) {
		toolName := ""
		if len(seg.Args) > 0 {
			toolName = seg.Args[0].Text
		}
		if sch := snap.Schema(toolName); sch != nil {
			pos, used := Classify(seg.JSONFragment)
			return Generate(pos, sch, used)
		}
		// Unknown tool: offer name matches if the partial name still
		// matches anything, otherwise just the bare structural hints.
		if matches := matchPrefix(names, toolName); len(matches) > 0 {
			return nameCandidates(matches, 0)
		}
		return []Candidate{{Insert: "{"}, {Insert: "{}"}}
	}

	if len(seg.Args) == 0 {
		return nameCandidates(matchPrefix(names, ""), 0)
	}

	if !lineEndsMidToken(text) {
		// The name token is complete. Schema verbs move on to the JSON
		// argument; read takes a single resource and is done.
		if isSchemaVerb(seg.Verb) {
			if sch := snap.Schema(seg.Args[0].Text); sch != nil {
				pos, used := Classify("")
				return Generate(pos, sch, used)
			}
			return []Candidate{{Insert: "{"}, {Insert: "{}"}}
		}
		return nil
	}

	// Mid-name: replace the partial token with each matching name.
	last := seg.Args[len(seg.Args)-1]
	replace := len(last.Text)
	if last.Quoted {
		// include the opening quote
		replace++
	}
	return nameCandidates(matchPrefix(names, last.Text), -replace)
}

// snapshot reads the current snapshot, treating a missing or misbehaving
// snapshot function as an empty one.
func (p *Provider) snapshot() (snap Snapshot) {
	if p.Snapshot == nil {
		return Snapshot{}
	}
	defer func() {
		if r := recover(); r != nil {
			snap = Snapshot{}
		}
	}()
	return p.Snapshot()
}

// nameFallback matches the word being typed against every known command,
// tool, and resource name.
func (p *Provider) nameFallback(text string, snap Snapshot) []Candidate {
	partial := ""
	if lineEndsMidToken(text) {
		tokens := SplitQuoted(text)
		if len(tokens) > 0 {
			partial = tokens[len(tokens)-1].Text
		}
	}

	all := lo.Uniq(append(append(append([]string{}, snap.Commands...), snap.Tools...), snap.Resources...))
	return nameCandidates(matchPrefix(all, partial), -len(partial))
}

// matchPrefix returns the names with the given case-insensitive prefix,
// preserving their order.
func matchPrefix(names []string, partial string) []string {
	lower := strings.ToLower(partial)
	return lo.Filter(names, func(name string, _ int) bool {
		return strings.HasPrefix(strings.ToLower(name), lower)
	})
}

// nameCandidates renders names as candidates, double-quoting any name
// containing whitespace so it dispatches the same way it completes.
func nameCandidates(names []string, replaceFrom int) []Candidate {
	candidates := make([]Candidate, 0, len(names))
	for _, name := range names {
		candidates = append(candidates, Candidate{
			Insert:      quoteIfNeeded(name),
			Display:     name,
			ReplaceFrom: replaceFrom,
		})
	}
	return candidates
}

// quoteIfNeeded wraps names containing whitespace in double quotes, using
// the same escape rules the splitter understands.
func quoteIfNeeded(name string) string {
	if !strings.ContainsAny(name, " \t") {
		return name
	}
	escaped := strings.ReplaceAll(name, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}

// lineEndsMidToken reports whether the text ends inside a token: either
// inside an open quoted span or on a non-whitespace character.
func lineEndsMidToken(text string) bool {
	if text == "" {
		return false
	}
	inQuote := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\\' && i+1 < len(text) && (text[i+1] == '"' || text[i+1] == '\\') {
			i++
			continue
		}
		if c == '"' {
			inQuote = !inQuote
		}
	}
	if inQuote {
		return true
	}
	last := text[len(text)-1]
	return last != ' ' && last != '\t'
}
