package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Interchange / module loading
	ModInfo           Code = 1000
	ModBadPayload     Code = 1001
	ModSchemaMismatch Code = 1002

	// Declaration-level (CFG construction)
	DeclInfo             Code = 2000
	DeclDuplicateLabel   Code = 2001
	DeclUndefinedLabel   Code = 2002
	DeclUnusedLabel      Code = 2003
	DeclUnreachableCode  Code = 2004
	DeclDuplicateRoutine Code = 2005

	// Flow / type analysis
	FlowInfo             Code = 3000
	FlowUnresolvedSymbol Code = 3001
	FlowCannotAlias      Code = 3002
	FlowUseBeforeAssign  Code = 3003
	FlowBadArgumentCount Code = 3004
	FlowGeneratorReturn  Code = 3005
	FlowInternal         Code = 3999

	// Overload binding
	BindInfo      Code = 4000
	BindAmbiguous Code = 4001
	BindFailed    Code = 4002

	// Code generation
	GenInfo        Code = 5000
	GenNoAddress   Code = 5001
	GenUnsupported Code = 5002
)

func (c Code) String() string {
	return fmt.Sprintf("FRN%04d", uint16(c))
}
