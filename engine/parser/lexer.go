package parser

import (
    "fmt"
    "regexp"
    "strings"
    "text/scanner"

    "github.com/aleph-zero/guardstack/engine/token"
)

type TokenPattern struct {
    regex *regexp.Regexp
    token.TokenType
}

// keywords are matched against whole identifiers only.
var keywords = []TokenPattern{
    {regex: regexp.MustCompile(`(?i)^CREATE$`), TokenType: token.CREATE},
    {regex: regexp.MustCompile(`(?i)^CAPACITY$`), TokenType: token.CAPACITY},
    {regex: regexp.MustCompile(`(?i)^PUSH$`), TokenType: token.PUSH},
    {regex: regexp.MustCompile(`(?i)^POP$`), TokenType: token.POP},
    {regex: regexp.MustCompile(`(?i)^VERIFY$`), TokenType: token.VERIFY},
    {regex: regexp.MustCompile(`(?i)^DESTROY$`), TokenType: token.DESTROY},
    {regex: regexp.MustCompile(`(?i)^CORRUPT$`), TokenType: token.CORRUPT},
    {regex: regexp.MustCompile(`(?i)^SHOW$`), TokenType: token.SHOW},
    {regex: regexp.MustCompile(`(?i)^STACKS$`), TokenType: token.STACKS},
    {regex: regexp.MustCompile(`(?i)^(INTEGER|INT32|FLOAT|BYTE)$`), TokenType: token.TYPE},
    {regex: regexp.MustCompile(`(?i)^(LEADING|ELEMENTS|TRAILING)$`), TokenType: token.REGION},
}

var punctuation = map[string]token.TokenType{
    ",": token.COMMA,
    ";": token.SEMICOLON,
    "-": token.MINUS,
}

// LexicalScan splits a command script into tokens. The returned slice always
// ends with an EOF token.
func LexicalScan(src string) ([]token.Token, error) {
    tokens := make([]token.Token, 0, 10)
    var s scanner.Scanner
    s.Init(strings.NewReader(src))
    s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanComments | scanner.SkipComments
    s.Error = func(*scanner.Scanner, string) {}

    for tok := s.Scan(); tok != scanner.EOF; tok = s.Scan() {
        text := s.TokenText()
        position := s.Position

        var tokenType token.TokenType
        switch tok {
        case scanner.Int:
            tokenType = token.INTEGER
        case scanner.Float:
            tokenType = token.FLOAT
        case scanner.Ident:
            tokenType = token.IDENTIFIER
            for _, pattern := range keywords {
                if pattern.regex.MatchString(text) {
                    tokenType = pattern.TokenType
                    text = strings.ToUpper(text)
                    break
                }
            }
        default:
            var ok bool
            if tokenType, ok = punctuation[text]; !ok {
                return nil, fmt.Errorf("unrecognized lexical pattern: %s at position: %s", text, position)
            }
        }

        tokens = append(tokens, token.Token{
            TokenType: tokenType,
            Lexeme:    text,
            Position:  position,
        })
    }

    tokens = append(tokens, token.Token{TokenType: token.EOF, Position: s.Pos()})
    return tokens, nil
}
