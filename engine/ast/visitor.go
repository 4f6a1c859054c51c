package ast

type Visitor interface {
	VisitCreateCommand(*CreateCommand) error
	VisitPushCommand(*PushCommand) error
	VisitPopCommand(*PopCommand) error
	VisitVerifyCommand(*VerifyCommand) error
	VisitDestroyCommand(*DestroyCommand) error
	VisitCorruptCommand(*CorruptCommand) error
	VisitShowCommand(*ShowCommand) error
}
