package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Decode parses raw model output into v. Models wrap JSON in markdown fences
// and occasionally truncate mid-array when they hit the token limit, so the
// decode path is: strict parse, fence strip, one bounded truncation repair.
// Anything still unparseable after that is an error for the caller to treat
// as a miss.
func Decode(raw string, v any) error {
	s := stripFences(raw)
	firstErr := json.Unmarshal([]byte(s), v)
	if firstErr == nil {
		return nil
	}
	repaired, ok := repairTruncated(s)
	if !ok {
		return fmt.Errorf("decode model output: %w", firstErr)
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("decode model output after repair: %w", firstErr)
	}
	return nil
}

// stripFences removes markdown code fences and any prose around the outermost
// JSON value.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		}
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}
	end := strings.LastIndexAny(s, "}]")
	if end < start {
		return s[start:]
	}
	return s[start : end+1]
}

// repairTruncated recovers a payload cut off mid-generation. It rewinds to
// the last array element that closed cleanly, drops the partial tail, and
// closes the containers that were still open at that point. Returns false
// when the payload is not truncated or no clean cut exists.
func repairTruncated(s string) (string, bool) {
	var stack []byte
	inString := false
	escaped := false
	cut := -1
	var cutStack []byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) == 0 {
				return "", false
			}
			open := stack[len(stack)-1]
			if (c == '}' && open != '{') || (c == ']' && open != '[') {
				return "", false
			}
			stack = stack[:len(stack)-1]
			if c == '}' && len(stack) > 0 && stack[len(stack)-1] == '[' {
				cut = i
				cutStack = append(cutStack[:0], stack...)
			}
		}
	}
	if len(stack) == 0 || cut < 0 {
		return "", false
	}
	var b strings.Builder
	b.WriteString(s[:cut+1])
	for j := len(cutStack) - 1; j >= 0; j-- {
		if cutStack[j] == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
	return b.String(), true
}
