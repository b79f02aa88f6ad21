package lexer

import "golang.org/x/text/unicode/norm"

// NormalizeIdentifier applies NFC (Canonical Composition) to a decoded
// identifier so that two source files spelling the same identifier with
// different Unicode decompositions (e.g. precomposed vs. combining
// accents) resolve to the same global/local binding name.
//
// Grounded on _examples/sunholo-data-ailang/internal/lexer/normalize.go,
// which normalizes AILANG identifiers with the same library for the
// same reason.
func NormalizeIdentifier(name string) string {
	return norm.NFC.String(name)
}

// NormalizeUnicodeLiteral applies NFC to a decoded unicode string
// literal's code points, so escape-built and directly-typed
// representations of the same text compare equal.
func NormalizeUnicodeLiteral(s string) string {
	return norm.NFC.String(s)
}
