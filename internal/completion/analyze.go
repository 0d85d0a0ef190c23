package completion

import "strings"

// PositionKind classifies where the cursor sits inside a partially typed
// JSON fragment.
type PositionKind int

const (
	// PositionEmpty means the fragment is empty or whitespace only.
	PositionEmpty PositionKind = iota
	// PositionObjectOpen means the trimmed fragment is exactly "{".
	PositionObjectOpen
	// PositionAfterComma means the fragment ends with a comma, so the next
	// token should be another property.
	PositionAfterComma
	// PositionPropertyName means the cursor is inside an open string in key
	// position; Partial holds what has been typed so far.
	PositionPropertyName
	// PositionNestedObject means the cursor sits just inside one or more
	// unclosed named objects; Path holds the chain of enclosing property
	// names, outermost first.
	PositionNestedObject
	// PositionClosingBraces means the fragment has Missing more '{' than
	// '}' and no more specific state applies.
	PositionClosingBraces
	// PositionUnstructured means no structural candidates apply, e.g. the
	// cursor is mid-value.
	PositionUnstructured
)

// Position is the classified syntactic state of a JSON fragment.
type Position struct {
	Kind    PositionKind
	Partial string
	Path    []string
	Missing int
}

// Classify scans a possibly malformed JSON fragment and determines the
// cursor's syntactic position, along with the top-level property keys
// already present in the fragment. The checks form a strict priority list:
// an unclosed nested object is also unbalanced, but must classify as
// nested-object so completion routes to the nested property set rather
// than a close-brace hint.
func Classify(fragment string) (Position, []string) {
	var (
		inString   bool
		isKey      bool
		current    strings.Builder
		pendingKey string
		havePend   bool
		depth      int
		stack      []string
		used       []string
		lastSig    byte
	)

	for i := 0; i < len(fragment); i++ {
		c := fragment[i]

		if inString {
			if c == '\\' && i+1 < len(fragment) && (fragment[i+1] == '"' || fragment[i+1] == '\\') {
				current.WriteByte(fragment[i+1])
				i++
				continue
			}
			if c == '"' {
				inString = false
				if isKey {
					pendingKey = current.String()
					havePend = true
				}
				current.Reset()
				lastSig = '"'
				continue
			}
			current.WriteByte(c)
			continue
		}

		switch c {
		case '"':
			// A string opening after '{' or ',' is a key; after ':' it is
			// a value.
			isKey = lastSig == '{' || lastSig == ','
			inString = true
			current.Reset()
			lastSig = '"'
		case ':':
			if havePend && depth == 1 {
				used = append(used, pendingKey)
			}
			lastSig = ':'
		case '{':
			name := ""
			if havePend && lastSig == ':' {
				name = pendingKey
			}
			stack = append(stack, name)
			depth++
			havePend = false
			lastSig = '{'
		case '}':
			if depth > 0 {
				depth--
				stack = stack[:len(stack)-1]
			}
			lastSig = '}'
		case ',':
			havePend = false
			lastSig = ','
		case ' ', '\t', '\n', '\r':
			// whitespace is not significant
		default:
			lastSig = c
		}
	}

	var path []string
	for _, name := range stack {
		if name != "" {
			path = append(path, name)
		}
	}

	trimmed := strings.TrimSpace(fragment)

	var pos Position
	switch {
	case trimmed == "":
		pos = Position{Kind: PositionEmpty}
	case trimmed == "{":
		pos = Position{Kind: PositionObjectOpen}
	case !inString && lastSig == ',':
		pos = Position{Kind: PositionAfterComma}
	case !inString && lastSig == '{' && len(path) > 0:
		pos = Position{Kind: PositionNestedObject, Path: path}
	case inString && isKey:
		pos = Position{Kind: PositionPropertyName, Partial: current.String()}
	case inString:
		pos = Position{Kind: PositionUnstructured}
	case depth > 0:
		pos = Position{Kind: PositionClosingBraces, Missing: depth}
	default:
		pos = Position{Kind: PositionUnstructured}
	}

	return pos, used
}
