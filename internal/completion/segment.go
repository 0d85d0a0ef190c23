package completion

// Segments is the result of splitting a command line into its verb, its
// quoted argument tokens, and the trailing raw JSON fragment.
type Segments struct {
	// Verb is the first token of the line, or empty.
	Verb string
	// Args are the tokens between the verb and the JSON fragment.
	Args []Token
	// JSONFragment is the raw text from the first unquoted '{' to the end
	// of the line, passed through verbatim. Empty when HasJSON is false.
	JSONFragment string
	// HasJSON reports whether an unquoted '{' was found at all. A line
	// like `call tool ` has no fragment yet; the analyzer still needs to
	// classify that as "value not yet started".
	HasJSON bool
}

// Segment separates a line into verb, argument tokens, and a trailing JSON
// fragment. The prefix before the fragment is tokenized with SplitQuoted so
// quoted multi-word names survive; the fragment itself is never tokenized.
func Segment(line string) Segments {
	var seg Segments

	pre := line
	if brace := firstUnquotedBrace(line); brace >= 0 {
		pre = line[:brace]
		seg.JSONFragment = line[brace:]
		seg.HasJSON = true
	}

	tokens := SplitQuoted(pre)
	if len(tokens) > 0 {
		seg.Verb = tokens[0].Text
		seg.Args = tokens[1:]
	}

	return seg
}
