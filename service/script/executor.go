package script

import (
	"context"

	"github.com/aleph-zero/guardstack/engine/ast"
	"github.com/aleph-zero/guardstack/service/registry"
)

// executor runs a single command against the registry and fills in its
// output.
type executor struct {
	ctx      context.Context
	registry registry.Service
	output   Output
}

func (e *executor) VisitCreateCommand(n *ast.CreateCommand) error {
	_, err := e.registry.Create(e.ctx, n.Stack, n.Type, n.Capacity)
	return err
}

func (e *executor) VisitPushCommand(n *ast.PushCommand) error {
	inst, err := e.registry.Get(n.Stack)
	if err != nil {
		return err
	}
	for _, v := range n.Values {
		if err := inst.Push(v.Text); err != nil {
			return err
		}
	}
	return nil
}

func (e *executor) VisitPopCommand(n *ast.PopCommand) error {
	inst, err := e.registry.Get(n.Stack)
	if err != nil {
		return err
	}
	v, err := inst.Pop()
	if err != nil {
		return err
	}
	e.output.Values = []string{v}
	return nil
}

func (e *executor) VisitVerifyCommand(n *ast.VerifyCommand) error {
	inst, err := e.registry.Get(n.Stack)
	if err != nil {
		return err
	}
	e.output.Diagnosis = inst.Verify()
	return nil
}

func (e *executor) VisitDestroyCommand(n *ast.DestroyCommand) error {
	return e.registry.Destroy(e.ctx, n.Stack)
}

func (e *executor) VisitCorruptCommand(n *ast.CorruptCommand) error {
	inst, err := e.registry.Get(n.Stack)
	if err != nil {
		return err
	}
	return inst.InjectFault(n.Region, n.Offset, n.Value)
}

func (e *executor) VisitShowCommand(n *ast.ShowCommand) error {
	if n.Stack == "" {
		e.output.Values = e.registry.Names()
		return nil
	}
	inst, err := e.registry.Get(n.Stack)
	if err != nil {
		return err
	}
	snap := inst.Snapshot()
	e.output.Snapshot = &snap
	return nil
}
