package token

import "text/scanner"

type Token struct {
    TokenType
    Lexeme string
    scanner.Position
}

type TokenType int

const (
    IDENTIFIER TokenType = iota
    INTEGER
    FLOAT
    COMMA
    SEMICOLON
    MINUS
    CREATE
    CAPACITY
    PUSH
    POP
    VERIFY
    DESTROY
    CORRUPT
    SHOW
    STACKS
    TYPE
    REGION
    EOF
)

func (t TokenType) String() string {
    return [...]string{
        "IDENTIFIER",
        "INTEGER",
        "FLOAT",
        "COMMA",
        "SEMICOLON",
        "MINUS",
        "CREATE",
        "CAPACITY",
        "PUSH",
        "POP",
        "VERIFY",
        "DESTROY",
        "CORRUPT",
        "SHOW",
        "STACKS",
        "TYPE",
        "REGION",
        "EOF"}[t]
}
