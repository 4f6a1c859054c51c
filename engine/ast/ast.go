package ast

import (
	"fmt"
	"strings"

	"github.com/aleph-zero/guardstack/engine/guard"
	"github.com/aleph-zero/guardstack/engine/types"
)

// Command is one statement of a script.
type Command interface {
	Accept(visitor Visitor) error
	fmt.Stringer
}

// Script is a parsed sequence of commands, executed in order.
type Script struct {
	Commands []Command
}

type CreateCommand struct {
	Stack    string
	Type     types.Type
	Capacity int
}

func NewCreateCommand(stack string, typ types.Type, capacity int) *CreateCommand {
	return &CreateCommand{Stack: stack, Type: typ, Capacity: capacity}
}

func (n *CreateCommand) Accept(visitor Visitor) error {
	return visitor.VisitCreateCommand(n)
}

func (n *CreateCommand) String() string {
	return fmt.Sprintf("CREATE %s %s CAPACITY %d", n.Stack, n.Type, n.Capacity)
}

// Literal is a numeric value as written in the script. It is converted to
// the element type of the target stack at execution time.
type Literal struct {
	Text  string
	Float bool
}

type PushCommand struct {
	Stack  string
	Values []Literal
}

func NewPushCommand(stack string, values ...Literal) *PushCommand {
	return &PushCommand{Stack: stack, Values: values}
}

func (n *PushCommand) Accept(visitor Visitor) error {
	return visitor.VisitPushCommand(n)
}

func (n *PushCommand) String() string {
	values := make([]string, 0, len(n.Values))
	for _, v := range n.Values {
		values = append(values, v.Text)
	}
	return fmt.Sprintf("PUSH %s %s", n.Stack, strings.Join(values, ", "))
}

type PopCommand struct {
	Stack string
}

func NewPopCommand(stack string) *PopCommand {
	return &PopCommand{Stack: stack}
}

func (n *PopCommand) Accept(visitor Visitor) error {
	return visitor.VisitPopCommand(n)
}

func (n *PopCommand) String() string {
	return "POP " + n.Stack
}

type VerifyCommand struct {
	Stack string
}

func NewVerifyCommand(stack string) *VerifyCommand {
	return &VerifyCommand{Stack: stack}
}

func (n *VerifyCommand) Accept(visitor Visitor) error {
	return visitor.VisitVerifyCommand(n)
}

func (n *VerifyCommand) String() string {
	return "VERIFY " + n.Stack
}

type DestroyCommand struct {
	Stack string
}

func NewDestroyCommand(stack string) *DestroyCommand {
	return &DestroyCommand{Stack: stack}
}

func (n *DestroyCommand) Accept(visitor Visitor) error {
	return visitor.VisitDestroyCommand(n)
}

func (n *DestroyCommand) String() string {
	return "DESTROY " + n.Stack
}

type CorruptCommand struct {
	Stack  string
	Region guard.Region
	Offset int
	Value  byte
}

func NewCorruptCommand(stack string, region guard.Region, offset int, value byte) *CorruptCommand {
	return &CorruptCommand{Stack: stack, Region: region, Offset: offset, Value: value}
}

func (n *CorruptCommand) Accept(visitor Visitor) error {
	return visitor.VisitCorruptCommand(n)
}

func (n *CorruptCommand) String() string {
	return fmt.Sprintf("CORRUPT %s %s %d %d", n.Stack, n.Region, n.Offset, n.Value)
}

// ShowCommand lists all stacks when Stack is empty.
type ShowCommand struct {
	Stack string
}

func NewShowCommand(stack string) *ShowCommand {
	return &ShowCommand{Stack: stack}
}

func (n *ShowCommand) Accept(visitor Visitor) error {
	return visitor.VisitShowCommand(n)
}

func (n *ShowCommand) String() string {
	if n.Stack == "" {
		return "SHOW STACKS"
	}
	return "SHOW " + n.Stack
}
