package irtext

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const punct = "(),:{}"

// tokenize splits src into whitespace-separated tokens, treating
// `(`, `)`, `,`, `:`, `{`, `}` and `->` as tokens in their own right and
// `;` as a line comment marker.
func tokenize(src string) ([]string, error) {
	var toks []string
	i, n := 0, len(src)
	for i < n {
		c := src[i]
		switch {
		case c == ';':
			for i < n && src[i] != '\n' {
				i++
			}
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++
		case c == '-' && i+1 < n && src[i+1] == '>':
			toks = append(toks, "->")
			i += 2
		case strings.IndexByte(punct, c) >= 0:
			toks = append(toks, string(c))
			i++
		default:
			start := i
			for i < n && !isBoundary(src[i]) {
				i++
			}
			if i == start {
				return nil, errors.Errorf("irtext: unexpected character %q", string(c))
			}
			toks = append(toks, src[start:i])
		}
	}
	return toks, nil
}

func isBoundary(c byte) bool {
	if c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == ';' {
		return true
	}
	return strings.IndexByte(punct, c) >= 0
}

func parseInt(tok string) (int64, error) {
	v, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "irtext: bad integer literal %q", tok)
	}
	return v, nil
}
