package rules

// field is one shell word with its quotes removed.
type field struct {
	Value      string
	Start, End int // byte offsets of the word in the scanned text
	Quoted     bool
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

// splitFields splits s into words. Single quotes are literal, double quotes
// honour \" and \\ escapes, and a backslash outside quotes is kept as-is so
// Windows paths survive.
func splitFields(s string) ([]field, error) {
	var fields []field
	i := 0
	for i < len(s) {
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i >= len(s) {
			break
		}

		start := i
		quoted := false
		var buf []byte
		for i < len(s) && !isSpace(s[i]) {
			switch c := s[i]; c {
			case '\'':
				end := indexByteFrom(s, i+1, '\'')
				if end < 0 {
					return nil, ErrUnterminatedQuote
				}
				buf = append(buf, s[i+1:end]...)
				quoted = true
				i = end + 1
			case '"':
				j := i + 1
				closed := false
				for j < len(s) {
					if s[j] == '\\' && j+1 < len(s) && (s[j+1] == '"' || s[j+1] == '\\') {
						buf = append(buf, s[j+1])
						j += 2
						continue
					}
					if s[j] == '"' {
						closed = true
						break
					}
					buf = append(buf, s[j])
					j++
				}
				if !closed {
					return nil, ErrUnterminatedQuote
				}
				quoted = true
				i = j + 1
			default:
				buf = append(buf, c)
				i++
			}
		}
		fields = append(fields, field{Value: string(buf), Start: start, End: i, Quoted: quoted})
	}
	return fields, nil
}

func indexByteFrom(s string, from int, c byte) int {
	for i := from; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}

// stripOuterQuotes removes one level of matching quotes around s.
func stripOuterQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'') && first == last {
			return s[1 : len(s)-1]
		}
	}
	return s
}
