// Package sqlguard is the security boundary between synthesized SQL and the
// manufacturing store. Every statement passes through ValidateAndSanitize
// before execution; nothing else in the service is allowed to reject or
// rewrite SQL.
package sqlguard

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Reason identifies which safety check a statement failed.
type Reason string

const (
	ReasonNotSelect         Reason = "not_select"
	ReasonMultiStatement    Reason = "multi_statement"
	ReasonDangerousKeyword  Reason = "dangerous_keyword"
	ReasonDangerousFunction Reason = "dangerous_function"
	ReasonEncodedLiteral    Reason = "encoded_literal"
	ReasonInvalidIdentifier Reason = "invalid_identifier"
)

// ValidationError reports a failed safety check and the offending token
// when one exists. It is terminal for the request and never retried.
type ValidationError struct {
	Reason Reason
	Token  string
}

func (e *ValidationError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Token)
	}
	return string(e.Reason)
}

// UserMessage returns the Korean operator-facing explanation for the failure.
func (e *ValidationError) UserMessage() string {
	switch e.Reason {
	case ReasonNotSelect:
		return "데이터 조회(SELECT) 쿼리만 사용 가능합니다."
	case ReasonMultiStatement:
		return "한 번에 하나의 쿼리만 실행 가능합니다."
	case ReasonDangerousKeyword:
		return "사용할 수 없는 SQL 키워드가 포함되어 있습니다."
	case ReasonDangerousFunction:
		return "사용할 수 없는 함수가 포함되어 있습니다."
	case ReasonEncodedLiteral:
		return "보안상 문제가 있는 쿼리입니다."
	case ReasonInvalidIdentifier:
		return "테이블 이름이 올바르지 않습니다."
	}
	return "쿼리가 검증 규칙을 위반했습니다."
}

// DefaultMaxRows caps result sets when no explicit limit is configured.
const DefaultMaxRows = 100

// Data-mutating and administrative verbs, plus statement forms that can
// smuggle a second read path (UNION, WITH) or reach the filesystem.
var dangerousKeywords = []string{
	"INSERT", "UPDATE", "DELETE", "DROP", "ALTER", "CREATE",
	"TRUNCATE", "EXEC", "EXECUTE", "SLEEP", "LOAD_FILE",
	"INTO OUTFILE", "INTO DUMPFILE", "UNION", "WITH",
	"PRAGMA", "ATTACH", "DETACH", "REPLACE", "RENAME",
}

// Functions capable of file access, timing side channels or code execution.
// Rejected only when called, so a column named system_id stays legal.
var dangerousFunctions = []string{
	"SLEEP", "BENCHMARK", "LOAD_FILE", "OUTFILE",
	"SYSTEM", "SHELL_EXEC", "EVAL", "EXEC",
}

// Procedure prefixes and the server-variable sigil, matched as substrings.
var sigilTokens = []string{"xp_", "sp_", "@@"}

var (
	selectRe        = regexp.MustCompile(`(?i)^SELECT\b`)
	keywordRe       = buildKeywordRe(dangerousKeywords)
	functionRe      = regexp.MustCompile(`(?i)\b(` + strings.Join(dangerousFunctions, "|") + `)\s*\(`)
	hexLiteralRe    = regexp.MustCompile(`(?i)0x[0-9a-f]+`)
	binEscapeRe     = regexp.MustCompile(`(?i)\\x[0-9a-f]{2}`)
	trailingLimitRe = regexp.MustCompile(`(?i)\bLIMIT\s+(\d+)\s*;?\s*$`)
	fromTargetRe    = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+([^\s,;()]+)`)
	commaTargetRe   = regexp.MustCompile(`^\s*,\s*([^\s,;()]+)`)
	identifierRe    = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

func buildKeywordRe(words []string) *regexp.Regexp {
	alts := make([]string, len(words))
	for i, w := range words {
		alts[i] = strings.ReplaceAll(regexp.QuoteMeta(w), " ", `\s+`)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)\b`)
}

// Guard applies the ordered safety checks. It carries no mutable state and
// is safe for concurrent use.
type Guard struct {
	maxRows int
}

func New(maxRows int) *Guard {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &Guard{maxRows: maxRows}
}

func (g *Guard) MaxRows() int { return g.maxRows }

// ValidateAndSanitize runs the checks in order; the first failure wins and
// stops processing. On success it returns the statement with comments
// removed, unquoted whitespace normalized and the row cap enforced. Exactly
// one of the two return values is set.
func (g *Guard) ValidateAndSanitize(raw string) (string, *ValidationError) {
	clean, masked := scanStatement(raw)

	// The token checks below run against masked only, so content inside
	// string literals can never trigger a rejection.
	if !selectRe.MatchString(masked) {
		return "", &ValidationError{Reason: ReasonNotSelect}
	}

	if i := strings.IndexByte(masked, ';'); i >= 0 && i != len(masked)-1 {
		return "", &ValidationError{Reason: ReasonMultiStatement}
	}

	if tok := keywordRe.FindString(masked); tok != "" {
		return "", &ValidationError{Reason: ReasonDangerousKeyword, Token: strings.ToUpper(tok)}
	}
	lower := strings.ToLower(masked)
	for _, sigil := range sigilTokens {
		if strings.Contains(lower, sigil) {
			return "", &ValidationError{Reason: ReasonDangerousKeyword, Token: sigil}
		}
	}
	if m := functionRe.FindStringSubmatch(masked); m != nil {
		return "", &ValidationError{Reason: ReasonDangerousFunction, Token: strings.ToUpper(m[1])}
	}

	if tok := hexLiteralRe.FindString(masked); tok != "" {
		return "", &ValidationError{Reason: ReasonEncodedLiteral, Token: tok}
	}
	if tok := binEscapeRe.FindString(masked); tok != "" {
		return "", &ValidationError{Reason: ReasonEncodedLiteral, Token: tok}
	}

	for _, tbl := range fromTargets(masked) {
		if !identifierRe.MatchString(tbl) {
			return "", &ValidationError{Reason: ReasonInvalidIdentifier, Token: tbl}
		}
	}

	return g.enforceRowCap(clean, masked), nil
}

// fromTargets collects the table-like tokens after FROM and JOIN, following
// comma-separated table lists. Subqueries contribute no token of their own;
// their inner FROM is matched separately.
func fromTargets(masked string) []string {
	var targets []string
	for _, m := range fromTargetRe.FindAllStringSubmatchIndex(masked, -1) {
		targets = append(targets, masked[m[2]:m[3]])
		rest := masked[m[3]:]
		for {
			cm := commaTargetRe.FindStringSubmatchIndex(rest)
			if cm == nil {
				break
			}
			targets = append(targets, rest[cm[2]:cm[3]])
			rest = rest[cm[3]:]
		}
	}
	return targets
}

// enforceRowCap appends the default LIMIT when the statement has none, and
// rewrites an over-cap value down to the maximum. Only the outermost
// unquoted trailing clause is authoritative; a LIMIT inside a subquery or a
// string literal is not the statement's limit. Idempotent.
func (g *Guard) enforceRowCap(clean, masked string) string {
	if m := trailingLimitRe.FindStringSubmatchIndex(masked); m != nil {
		n, err := strconv.Atoi(masked[m[2]:m[3]])
		if err == nil && n <= g.maxRows {
			return clean
		}
		return clean[:m[2]] + strconv.Itoa(g.maxRows) + clean[m[3]:]
	}
	body := strings.TrimRight(strings.TrimSuffix(clean, ";"), " ")
	return fmt.Sprintf("%s LIMIT %d;", body, g.maxRows)
}
