package naming

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// jsReserved holds the ECMAScript keywords and strict-mode future reserved
// words, plus the two names strict code cannot bind.
var jsReserved = wordSet(`
	break case catch class const continue debugger default delete do else
	enum export extends false finally for function if implements import in
	instanceof interface let new null package private protected public
	return static super switch this throw true try typeof var void while
	with yield arguments eval
`)

func wordSet(words string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(words) {
		set[w] = true
	}
	return set
}

// IsReserved reports whether name is a reserved word of the JS target.
func IsReserved(name string) bool { return jsReserved[name] }

// SanitizeIdentifier maps name to a valid JavaScript identifier. Invalid
// characters become '_'. A name starting with a digit gets a '_' prefix and
// a reserved word gets a '_' suffix.
func SanitizeIdentifier(name string) string {
	id := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$' {
			return r
		}
		return '_'
	}, name)
	if id == "" {
		return "_"
	}
	if first, _ := utf8.DecodeRuneInString(id); unicode.IsDigit(first) {
		id = "_" + id
	}
	if jsReserved[id] {
		id += "_"
	}
	return id
}

// Capitalize upper-cases the first letter using the bean convention: a
// name whose second letter is already upper case is kept as is.
func Capitalize(name string) string {
	if name == "" {
		return name
	}
	r := []rune(name)
	if len(r) > 1 && unicode.IsUpper(r[1]) {
		return name
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
