package parser

import (
    "fmt"
    "strconv"

    "github.com/aleph-zero/guardstack/engine/ast"
    "github.com/aleph-zero/guardstack/engine/guard"
    "github.com/aleph-zero/guardstack/engine/token"
    "github.com/aleph-zero/guardstack/engine/types"
)

/*
   script           -> command (';' command)* ';'?
   command          -> create_command
                    | push_command
                    | 'POP' IDENTIFIER
                    | 'VERIFY' IDENTIFIER
                    | 'DESTROY' IDENTIFIER
                    | corrupt_command
                    | show_command
   create_command   -> 'CREATE' IDENTIFIER TYPE? ('CAPACITY' INTEGER)?
   push_command     -> 'PUSH' IDENTIFIER literal (',' literal)*
   corrupt_command  -> 'CORRUPT' IDENTIFIER REGION INTEGER INTEGER
   show_command     -> 'SHOW' ('STACKS' | IDENTIFIER)
   literal          -> '-'? (INTEGER | FLOAT)
   TYPE             -> 'INTEGER' | 'INT32' | 'FLOAT' | 'BYTE'
   REGION           -> 'LEADING' | 'ELEMENTS' | 'TRAILING'
*/

type Parser struct {
    tokens []token.Token
    index  int
}

func New(tokens []token.Token) *Parser {
    return &Parser{
        tokens: tokens,
        index:  0,
    }
}

// Parse lexes and parses src in one step.
func Parse(src string) (*ast.Script, error) {
    tokens, err := LexicalScan(src)
    if err != nil {
        return nil, err
    }
    return New(tokens).Parse()
}

// Parse returns the commands of the script in execution order.
func (p *Parser) Parse() (*ast.Script, error) {
    script := &ast.Script{}
    for !p.eof() {
        if p.match(token.SEMICOLON) {
            continue
        }

        cmd, err := p.command()
        if err != nil {
            return nil, err
        }
        script.Commands = append(script.Commands, cmd)

        if !p.eof() && !p.match(token.SEMICOLON) {
            return nil, ParseError{
                Expected: []token.TokenType{token.SEMICOLON, token.EOF},
                Received: p.peek(),
            }
        }
    }
    return script, nil
}

func (p *Parser) command() (ast.Command, error) {
    switch {
    case p.match(token.CREATE):
        return p.createCommand()
    case p.match(token.PUSH):
        return p.pushCommand()
    case p.match(token.POP):
        name, err := p.stackName()
        if err != nil {
            return nil, err
        }
        return ast.NewPopCommand(name), nil
    case p.match(token.VERIFY):
        name, err := p.stackName()
        if err != nil {
            return nil, err
        }
        return ast.NewVerifyCommand(name), nil
    case p.match(token.DESTROY):
        name, err := p.stackName()
        if err != nil {
            return nil, err
        }
        return ast.NewDestroyCommand(name), nil
    case p.match(token.CORRUPT):
        return p.corruptCommand()
    case p.match(token.SHOW):
        if p.match(token.STACKS) {
            return ast.NewShowCommand(""), nil
        }
        name, err := p.stackName()
        if err != nil {
            return nil, ParseError{
                Expected: []token.TokenType{token.STACKS, token.IDENTIFIER},
                Received: p.peek(),
            }
        }
        return ast.NewShowCommand(name), nil
    default:
        return nil, ParseError{
            Expected: []token.TokenType{token.CREATE, token.PUSH, token.POP, token.VERIFY,
                token.DESTROY, token.CORRUPT, token.SHOW},
            Received: p.peek(),
        }
    }
}

func (p *Parser) createCommand() (ast.Command, error) {
    name, err := p.stackName()
    if err != nil {
        return nil, err
    }

    typ := types.INTEGER
    if p.match(token.TYPE) {
        if typ, err = types.New(p.previous().Lexeme); err != nil {
            return nil, ConversionError{Value: p.previous(), err: err}
        }
    }

    capacity := 0
    if p.match(token.CAPACITY) {
        if !p.match(token.INTEGER) {
            return nil, ParseError{
                Expected: []token.TokenType{token.INTEGER},
                Received: p.peek(),
            }
        }
        if capacity, err = p.integer(); err != nil {
            return nil, err
        }
    }
    return ast.NewCreateCommand(name, typ, capacity), nil
}

func (p *Parser) pushCommand() (ast.Command, error) {
    name, err := p.stackName()
    if err != nil {
        return nil, err
    }

    var values []ast.Literal
    for ok := true; ok; ok = p.match(token.COMMA) {
        literal, err := p.literal()
        if err != nil {
            return nil, err
        }
        values = append(values, literal)
    }
    return ast.NewPushCommand(name, values...), nil
}

func (p *Parser) corruptCommand() (ast.Command, error) {
    name, err := p.stackName()
    if err != nil {
        return nil, err
    }

    if !p.match(token.REGION) {
        return nil, ParseError{
            Expected: []token.TokenType{token.REGION},
            Received: p.peek(),
        }
    }
    region, err := guard.ParseRegion(p.previous().Lexeme)
    if err != nil {
        return nil, ConversionError{Value: p.previous(), err: err}
    }

    if !p.match(token.INTEGER) {
        return nil, ParseError{
            Expected: []token.TokenType{token.INTEGER},
            Received: p.peek(),
        }
    }
    offset, err := p.integer()
    if err != nil {
        return nil, err
    }

    if !p.match(token.INTEGER) {
        return nil, ParseError{
            Expected: []token.TokenType{token.INTEGER},
            Received: p.peek(),
        }
    }
    tok := p.previous()
    value, err := strconv.ParseUint(tok.Lexeme, 0, 8)
    if err != nil {
        return nil, ConversionError{Value: tok, err: err}
    }
    return ast.NewCorruptCommand(name, region, offset, byte(value)), nil
}

func (p *Parser) literal() (ast.Literal, error) {
    sign := ""
    if p.match(token.MINUS) {
        sign = "-"
    }

    switch {
    case p.match(token.INTEGER):
        return ast.Literal{Text: sign + p.previous().Lexeme}, nil
    case p.match(token.FLOAT):
        return ast.Literal{Text: sign + p.previous().Lexeme, Float: true}, nil
    default:
        return ast.Literal{}, ParseError{
            Expected: []token.TokenType{token.INTEGER, token.FLOAT},
            Received: p.peek(),
        }
    }
}

func (p *Parser) stackName() (string, error) {
    if !p.match(token.IDENTIFIER) {
        return "", ParseError{
            Expected: []token.TokenType{token.IDENTIFIER},
            Received: p.peek(),
        }
    }
    return p.previous().Lexeme, nil
}

func (p *Parser) integer() (int, error) {
    tok := p.previous()
    value, err := strconv.ParseInt(tok.Lexeme, 0, 64)
    if err != nil {
        return 0, ConversionError{
            Value: tok,
            err:   err,
        }
    }
    return int(value), nil
}

/** Helper Methods **/

func (p *Parser) match(tokenTypes ...token.TokenType) bool {
    for _, tokenType := range tokenTypes {
        if p.check(tokenType) {
            p.advance()
            return true
        }
    }
    return false
}

func (p *Parser) check(tokenType token.TokenType) bool {
    if p.eof() {
        return false
    }
    return p.peek().TokenType == tokenType
}

func (p *Parser) advance() token.Token {
    if !p.eof() {
        p.index++
    }
    return p.previous()
}

func (p *Parser) previous() token.Token {
    return p.tokens[p.index-1]
}

func (p *Parser) peek() token.Token {
    return p.tokens[p.index]
}

func (p *Parser) eof() bool {
    return p.peek().TokenType == token.EOF
}

/** Error Handling **/

type ParseError struct {
    Expected []token.TokenType
    Received token.Token
}

func (e ParseError) Error() string {
    return fmt.Sprintf("parser expected one of '%s' received '%s' at line: %d, column: %d",
        e.Expected, e.Received.Lexeme, e.Received.Position.Line, e.Received.Position.Column)
}

type ConversionError struct {
    Value token.Token
    err   error
}

func (e ConversionError) Error() string {
    return fmt.Sprintf("parser cannot convert token '%s' to concrete type: %s",
        e.Value.Lexeme, e.err)
}

func (e ConversionError) Unwrap() error {
    return e.err
}
