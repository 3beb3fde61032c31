package sqlguard

import "strings"

// scanStatement makes one pass over raw SQL and produces two same-length
// renderings. clean has all comment forms removed and unquoted whitespace
// collapsed to single spaces, with string literals copied verbatim. masked
// is clean with every byte inside a string literal replaced by a space, so
// token checks that run against masked can never match quoted content, and
// an index found in masked is valid in clean.
//
// Comments are removed with no replacement text: a keyword split by a block
// comment ("DEL/**/ETE") reassembles and is caught by the deny list.
func scanStatement(raw string) (clean, masked string) {
	var cb, mb strings.Builder
	cb.Grow(len(raw))
	mb.Grow(len(raw))

	const (
		stNormal = iota
		stSingle // inside '...'
		stDouble // inside "..."
	)
	state := stNormal
	pendingSpace := false

	emit := func(c, m byte) {
		if pendingSpace && cb.Len() > 0 {
			cb.WriteByte(' ')
			mb.WriteByte(' ')
		}
		pendingSpace = false
		cb.WriteByte(c)
		mb.WriteByte(m)
	}

	for i := 0; i < len(raw); i++ {
		c := raw[i]

		if state == stNormal {
			switch {
			case c == '\'':
				emit(c, c)
				state = stSingle
			case c == '"':
				emit(c, c)
				state = stDouble
			case c == '-' && i+1 < len(raw) && raw[i+1] == '-':
				for i+1 < len(raw) && raw[i+1] != '\n' {
					i++
				}
			case c == '#':
				for i+1 < len(raw) && raw[i+1] != '\n' {
					i++
				}
			case c == '/' && i+1 < len(raw) && raw[i+1] == '*':
				i++
				for i+1 < len(raw) {
					i++
					if raw[i] == '*' && i+1 < len(raw) && raw[i+1] == '/' {
						i++
						break
					}
				}
			case c == ' ' || c == '\t' || c == '\n' || c == '\r':
				pendingSpace = true
			default:
				emit(c, c)
			}
			continue
		}

		// Inside a string literal. Escaped and doubled quotes stay literal
		// content; everything up to the closing quote is blanked in masked.
		quote := byte('\'')
		if state == stDouble {
			quote = '"'
		}
		switch {
		case c == '\\' && i+1 < len(raw):
			emit(c, ' ')
			i++
			emit(raw[i], ' ')
		case c == quote && i+1 < len(raw) && raw[i+1] == quote:
			emit(c, ' ')
			i++
			emit(raw[i], ' ')
		case c == quote:
			emit(c, c)
			state = stNormal
		default:
			emit(c, ' ')
		}
	}

	return cb.String(), mb.String()
}
