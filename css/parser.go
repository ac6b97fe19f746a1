package css

import (
	"bytes"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"unicode"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses CSS stylesheets into structured rules.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet.
// The optional source parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) *Stylesheet {
	sheet := &Stylesheet{
		Items:    make([]StylesheetItem, 0),
		Warnings: make([]string, 0),
	}

	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	input := parse.NewInput(bytes.NewReader(data))
	parser := css.NewParser(input, false)

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			// End of input or error
			if parser.Err() != nil && parser.Err().Error() != "EOF" {
				p.log.Debug("CSS parse error", zap.Error(parser.Err()))
			}
			return sheet

		case css.BeginAtRuleGrammar:
			atRule := string(data)
			line := lineAt(input)
			if atRule == "@media" {
				mq := parseMediaQueryFromTokens(parser.Values())
				rules := p.parseMediaBlockRules(parser, input, sheet)
				p.log.Debug("Parsed @media block", zap.String("query", mq.Raw), zap.Int("rules", len(rules)))
				sheet.AddMediaBlock(mq, rules)
				continue
			}
			p.skipAtRuleBlock(parser)
			sheet.Warnings = append(sheet.Warnings, fmt.Sprintf("line %d: unsupported at-rule: %s", line, atRule))
			p.log.Debug("Skipping @-rule", zap.String("rule", atRule), zap.Int("line", line))

		case css.AtRuleGrammar:
			// simple @-rule without block (e.g., @import, @charset)
			line := lineAt(input)
			sheet.Warnings = append(sheet.Warnings, fmt.Sprintf("line %d: unsupported at-rule: %s", line, data))
			p.log.Debug("Skipping @-rule", zap.String("rule", string(data)), zap.Int("line", line))

		case css.BeginRulesetGrammar:
			line := lineAt(input)
			selectors := parseSelectors(data, parser.Values())
			props := p.parseDeclarations(parser)
			for _, rule := range p.makeRules(selectors, props, line, sheet) {
				sheet.AddRule(&rule)
			}
		}
	}
}

// lineAt returns line number of the current input position, starting with 1.
func lineAt(input *parse.Input) int {
	buf := input.Bytes()
	return 1 + bytes.Count(buf[:min(input.Offset(), len(buf))], []byte{'\n'})
}

// makeRules creates a rule for every supported selector of the group.
func (p *Parser) makeRules(selectors []string, props map[string]Value, line int, sheet *Stylesheet) []Rule {
	var rules []Rule
	for _, selStr := range selectors {
		sel := ParseSelector(selStr)
		if !sel.IsSimple() {
			sheet.Warnings = append(sheet.Warnings, fmt.Sprintf("line %d: unsupported selector: %s", line, selStr))
			p.log.Debug("Skipping selector", zap.String("selector", selStr), zap.Int("line", line))
			continue
		}
		// every rule owns its properties
		propsCopy := make(map[string]Value, len(props))
		maps.Copy(propsCopy, props)
		rules = append(rules, Rule{Selector: sel, Properties: propsCopy, SourceLine: line})
	}
	return rules
}

// parseSelectors extracts selector strings from token data.
func parseSelectors(data []byte, values []css.Token) []string {
	var sb strings.Builder
	sb.Write(data)
	for _, v := range values {
		sb.Write(v.Data)
	}

	// grouped selectors
	var selectors []string
	for s := range strings.SplitSeq(sb.String(), ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			selectors = append(selectors, s)
		}
	}
	return selectors
}

// parseDeclarations parses property declarations until EndRulesetGrammar.
func (p *Parser) parseDeclarations(parser *css.Parser) map[string]Value {
	props := make(map[string]Value)

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar:
			return props

		case css.DeclarationGrammar:
			values := parser.Values()
			if len(values) > 0 {
				props[string(data)] = parsePropertyValue(values)
			}

		case css.CustomPropertyGrammar:
			// CSS custom properties (--var) are never produced by converter
			continue
		}
	}
}

// joinTokens builds value text from tokens collapsing whitespace.
func joinTokens(tokens []css.Token) string {
	var rawParts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			rawParts = append(rawParts, string(t.Data))
		} else if len(rawParts) > 0 {
			rawParts = append(rawParts, " ")
		}
	}
	return strings.TrimSpace(strings.Join(rawParts, ""))
}

// parsePropertyValue converts CSS tokens to a Value.
func parsePropertyValue(tokens []css.Token) Value {
	if len(tokens) == 0 {
		return Value{}
	}

	val := Value{Raw: joinTokens(tokens)}

	if len(tokens) == 1 || (len(tokens) == 2 && tokens[1].TokenType == css.WhitespaceToken) {
		t := tokens[0]
		switch t.TokenType {
		case css.DimensionToken:
			val.Value, val.Unit = parseDimension(string(t.Data))
		case css.PercentageToken:
			val.Value, _ = strconv.ParseFloat(strings.TrimSuffix(string(t.Data), "%"), 64)
			val.Unit = "%"
		case css.NumberToken:
			val.Value, _ = strconv.ParseFloat(string(t.Data), 64)
		case css.IdentToken:
			val.Keyword = strings.ToLower(string(t.Data))
		case css.StringToken:
			val.Keyword = unquote(string(t.Data))
		case css.HashToken:
			val.Keyword = string(t.Data)
		}
		return val
	}

	// functions and multi-value properties are kept as keyword with raw value
	val.Keyword = val.Raw
	return val
}

// parseDimension extracts numeric value and unit from dimension token.
func parseDimension(s string) (float64, string) {
	numEnd := 0
	for i, r := range s {
		if unicode.IsDigit(r) || r == '.' || r == '-' || r == '+' {
			numEnd = i + 1
		} else {
			break
		}
	}

	if numEnd == 0 {
		return 0, ""
	}

	num, _ := strconv.ParseFloat(s[:numEnd], 64)
	unit := strings.ToLower(s[numEnd:])
	return num, unit
}

// skipAtRuleBlock skips tokens until the matching end of an @-rule block.
func (p *Parser) skipAtRuleBlock(parser *css.Parser) {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

// parseMediaQueryFromTokens parses a media query from CSS tokens.
// Handles "[not] type", "(min-width: Npx)", "(max-width: Npx)" joined by "and".
func parseMediaQueryFromTokens(tokens []css.Token) MediaQuery {
	mq := MediaQuery{Raw: joinTokens(tokens)}

	var (
		feature string
		inParen bool
	)
	for _, t := range tokens {
		switch t.TokenType {
		case css.LeftParenthesisToken:
			inParen, feature = true, ""
		case css.RightParenthesisToken:
			inParen, feature = false, ""
		case css.IdentToken:
			ident := strings.ToLower(string(t.Data))
			switch {
			case inParen:
				feature = ident
			case ident == "not":
				mq.Negated = true
			case ident == "and" || ident == "only":
			default:
				mq.Type = ident
			}
		case css.DimensionToken, css.NumberToken:
			if !inParen {
				continue
			}
			v, _ := parseDimension(string(t.Data))
			switch feature {
			case "min-width":
				mq.MinWidth, mq.HasMin = v, true
			case "max-width":
				mq.MaxWidth, mq.HasMax = v, true
			case "width":
				mq.MinWidth, mq.HasMin = v, true
				mq.MaxWidth, mq.HasMax = v, true
			}
		}
	}
	if mq.HasMin || mq.HasMax {
		mq.Raw = mq.String()
	}
	return mq
}

// parseMediaBlockRules parses rules inside an @media block and returns them.
func (p *Parser) parseMediaBlockRules(parser *css.Parser, input *parse.Input, sheet *Stylesheet) []Rule {
	var rules []Rule

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar, css.EndAtRuleGrammar:
			return rules

		case css.BeginRulesetGrammar:
			line := lineAt(input)
			selectors := parseSelectors(data, parser.Values())
			props := p.parseDeclarations(parser)
			rules = append(rules, p.makeRules(selectors, props, line, sheet)...)
		}
	}
}

// unquote removes surrounding quotes from a string.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
