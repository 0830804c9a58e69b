package rdfio

import "bytes"

// normalizeTurtle drops the empty predicate-object segments knakk/rdf cannot
// parse, i.e. a ';' whose next token closes a blank node property list:
//
//	[ rr:tableName "student" ; ]
//
// String literals, IRIs and comments are copied untouched.
func normalizeTurtle(src []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(src))

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '"' || c == '\'':
			end := skipString(src, i)
			out.Write(src[i:end])
			i = end
		case c == '<':
			end := bytes.IndexByte(src[i:], '>')
			if end < 0 {
				out.Write(src[i:])
				return out.Bytes()
			}
			out.Write(src[i : i+end+1])
			i += end + 1
		case c == '#':
			end := skipComment(src, i)
			out.Write(src[i:end])
			i = end
		case c == ';' && closesPropertyList(src, i+1):
			i++
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.Bytes()
}

// closesPropertyList reports whether the next token after whitespace,
// comments and further semicolons is ']'.
func closesPropertyList(src []byte, i int) bool {
	for i < len(src) {
		switch src[i] {
		case ' ', '\t', '\r', '\n', ';':
			i++
		case '#':
			i = skipComment(src, i)
		case ']':
			return true
		default:
			return false
		}
	}
	return false
}

func skipComment(src []byte, i int) int {
	end := bytes.IndexByte(src[i:], '\n')
	if end < 0 {
		return len(src)
	}
	return i + end
}

// skipString returns the index just past the literal starting at i, which
// may be short ("x") or long ("""x""") quoted.
func skipString(src []byte, i int) int {
	q := src[i]
	long := i+2 < len(src) && src[i+1] == q && src[i+2] == q
	j := i + 1
	if long {
		j = i + 3
	}
	for j < len(src) {
		switch {
		case src[j] == '\\':
			j += 2
		case src[j] != q:
			j++
		case !long:
			return j + 1
		case j+2 < len(src) && src[j+1] == q && src[j+2] == q:
			return j + 3
		default:
			j++
		}
	}
	return len(src)
}
