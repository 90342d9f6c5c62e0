package template

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnresolvedPlaceholder is wrapped into a RenderError-classified
// error whenever a helper name or a bare {{path}} lookup can't be
// resolved or a block isn't closed, per spec §7: "Unrecognized template helpers or unresolved
// placeholders produce a RenderError... must not silently emit the
// literal placeholder text."
var ErrUnresolvedPlaceholder = errors.New("template: unresolved placeholder")

// parse compiles a raw string containing {{...}} tokens into a node
// list. Supported forms: {{name}}, {{name arg1 arg2 ...}},
// {{#if_eq a b}}...{{else}}...{{/if_eq}}.
func parse(src string) ([]node, error) {
	toks := tokenize(src)
	nodes, rest, err := parseNodes(toks, "")
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: unexpected trailing block close", ErrUnresolvedPlaceholder)
	}
	return nodes, nil
}

// rawToken is either literal text or the inner contents of a {{ }} tag.
type rawToken struct {
	isTag bool
	text  string
}

func tokenize(src string) []rawToken {
	var toks []rawToken
	i := 0
	for i < len(src) {
		start := strings.Index(src[i:], "{{")
		if start < 0 {
			toks = append(toks, rawToken{isTag: false, text: src[i:]})
			break
		}
		start += i
		if start > i {
			toks = append(toks, rawToken{isTag: false, text: src[i:start]})
		}
		end := strings.Index(src[start:], "}}")
		if end < 0 {
			// Unterminated tag: treat the rest as literal text.
			toks = append(toks, rawToken{isTag: false, text: src[start:]})
			break
		}
		end += start
		inner := strings.TrimSpace(src[start+2 : end])
		toks = append(toks, rawToken{isTag: true, text: inner})
		i = end + 2
	}
	return toks
}

// parseNodes consumes tokens until it hits a block terminator matching
// closeName ("" means parse to end of input), or an "else" marker
// (only meaningful while inside a block, signaled by a non-empty
// closeName). It returns the remaining, unconsumed tokens.
func parseNodes(toks []rawToken, closeName string) ([]node, []rawToken, error) {
	var nodes []node
	for len(toks) > 0 {
		t := toks[0]
		if !t.isTag {
			nodes = append(nodes, literalNode(t.text))
			toks = toks[1:]
			continue
		}
		if closeName != "" && t.text == "else" {
			return nodes, toks, nil
		}
		if strings.HasPrefix(t.text, "/") {
			name := strings.TrimPrefix(t.text, "/")
			if name == closeName {
				return nodes, toks[1:], nil
			}
			return nil, nil, fmt.Errorf("%w: mismatched block close %q", ErrUnresolvedPlaceholder, t.text)
		}
		if strings.HasPrefix(t.text, "#") {
			blockNd, remaining, err := parseBlock(t.text, toks[1:])
			if err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, blockNd)
			toks = remaining
			continue
		}
		nd, err := parseExpr(t.text)
		if err != nil {
			return nil, nil, err
		}
		nodes = append(nodes, nd)
		toks = toks[1:]
	}
	if closeName != "" {
		return nil, nil, fmt.Errorf("%w: unclosed block %q", ErrUnresolvedPlaceholder, closeName)
	}
	return nodes, toks, nil
}

func parseBlock(openTag string, rest []rawToken) (node, []rawToken, error) {
	fields := splitArgs(strings.TrimPrefix(openTag, "#"))
	if len(fields) == 0 {
		return nil, nil, fmt.Errorf("%w: empty block tag", ErrUnresolvedPlaceholder)
	}
	name := fields[0]
	if name != "if_eq" {
		return nil, nil, fmt.Errorf("%w: unknown block helper %q", ErrUnresolvedPlaceholder, name)
	}
	if len(fields) != 3 {
		return nil, nil, fmt.Errorf("%w: if_eq requires exactly two arguments", ErrUnresolvedPlaceholder)
	}
	left := parseArg(fields[1])
	right := parseArg(fields[2])

	thenNodes, afterThen, err := parseNodes(rest, name)
	if err != nil {
		return nil, nil, err
	}

	var elseNodes []node
	remaining := afterThen
	if len(remaining) > 0 && remaining[0].isTag && remaining[0].text == "else" {
		elseNodes, remaining, err = parseNodes(remaining[1:], name)
		if err != nil {
			return nil, nil, err
		}
	}

	return blockNode{left: left, right: right, then: thenNodes, els: elseNodes}, remaining, nil
}

func parseExpr(inner string) (node, error) {
	fields := splitArgs(inner)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty expression", ErrUnresolvedPlaceholder)
	}
	if len(fields) == 1 {
		return lookupNode{path: fields[0]}, nil
	}
	args := make([]argNode, len(fields)-1)
	for i, f := range fields[1:] {
		args[i] = parseArg(f)
	}
	return helperNode{name: fields[0], args: args}, nil
}

func parseArg(tok string) argNode {
	if len(tok) >= 2 && tok[0] == '"' && tok[len(tok)-1] == '"' {
		return argLiteral{value: tok[1 : len(tok)-1]}
	}
	if n, err := strconv.ParseFloat(tok, 64); err == nil {
		return argLiteral{value: n}
	}
	if tok == "true" || tok == "false" {
		return argLiteral{value: tok == "true"}
	}
	return argLookup{path: tok}
}

// splitArgs splits whitespace-separated tokens while keeping
// double-quoted substrings intact.
func splitArgs(s string) []string {
	var out []string
	var b strings.Builder
	inQuotes := false
	flush := func() {
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
			b.WriteByte(c)
		case c == ' ' && !inQuotes:
			flush()
		default:
			b.WriteByte(c)
		}
	}
	flush()
	return out
}
