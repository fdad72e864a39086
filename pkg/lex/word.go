package lex

import "strings"

// WordInfo describes the syntactic features of a word that later stages care
// about.
type WordInfo struct {
	// The word contains quoting: a quoted string or a backslash escape.
	Quoted bool
	// The word contains an expansion introducer: "$" followed by a name,
	// special parameter, "{" or "(", or a backquote.
	Expansion bool
}

// InspectWord returns the WordInfo of a word lexeme.
func InspectWord(s string) WordInfo {
	var info WordInfo
	inDouble := false
	for i := 0; i < len(s); i++ {
		switch b := s[i]; b {
		case '\\':
			info.Quoted = true
			i++
		case '\'':
			if inDouble {
				continue
			}
			info.Quoted = true
			if end := strings.IndexByte(s[i+1:], '\''); end != -1 {
				i += end + 1
			} else {
				i = len(s)
			}
		case '"':
			info.Quoted = true
			inDouble = !inDouble
		case '`':
			info.Expansion = true
		case '$':
			if i+1 < len(s) && startsParameter(s[i+1]) {
				info.Expansion = true
			}
		}
	}
	return info
}

func startsParameter(b byte) bool {
	return isNameChar(b) || strings.IndexByte("{(@*#?$!-", b) != -1
}

// Unquote performs quote removal on a word: quoted strings lose their
// delimiters and backslash escapes lose the backslash. Expansions are kept as
// they are. It is used for here-document delimiters, which are not subject to
// expansion.
func Unquote(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		switch b := s[i]; b {
		case '\\':
			if i+1 < len(s) {
				i++
			}
			sb.WriteByte(s[i])
		case '\'':
			end := strings.IndexByte(s[i+1:], '\'')
			if end == -1 {
				end = len(s) - i - 1
			}
			sb.WriteString(s[i+1 : i+1+end])
			i += end + 1
		case '"':
			for i++; i < len(s) && s[i] != '"'; i++ {
				if s[i] == '\\' && i+1 < len(s) && strings.IndexByte("$`\"\\\n", s[i+1]) != -1 {
					i++
				}
				sb.WriteByte(s[i])
			}
		default:
			sb.WriteByte(b)
		}
	}
	return sb.String()
}
