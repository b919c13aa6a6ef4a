package bound

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"fern/internal/source"
)

// SchemaVersion guards the .fnb interchange format. Increment when the
// wire layout changes; decoding a payload with a different schema fails
// instead of misreading it.
const SchemaVersion uint16 = 1

var (
	ErrSchemaMismatch = errors.New("bound: interchange schema mismatch")
	ErrBadPayload     = errors.New("bound: malformed interchange payload")
)

// The wire layer is deliberately decoupled from the in-memory tree: flat
// structs with optional fields instead of the Kind+Data interface, so the
// format stays stable while the tree evolves.

type wireSpan struct {
	File  uint32 `msgpack:"f"`
	Start uint32 `msgpack:"s"`
	End   uint32 `msgpack:"e"`
}

type wireModule struct {
	Schema   uint16        `msgpack:"schema"`
	Name     string        `msgpack:"name"`
	Routines []wireRoutine `msgpack:"routines"`
}

type wireRoutine struct {
	Name        string      `msgpack:"name"`
	Params      []wireParam `msgpack:"params,omitempty"`
	Body        []wireStmt  `msgpack:"body,omitempty"`
	IsGenerator bool        `msgpack:"gen,omitempty"`
	Span        wireSpan    `msgpack:"span"`
}

type wireParam struct {
	Name     string `msgpack:"name"`
	ByRef    bool   `msgpack:"ref,omitempty"`
	TypeHint string `msgpack:"hint,omitempty"`
	Optional bool   `msgpack:"opt,omitempty"`
}

type wireUse struct {
	Name  string `msgpack:"name"`
	ByRef bool   `msgpack:"ref,omitempty"`
}

type wireCase struct {
	Match *wireExpr  `msgpack:"match,omitempty"`
	Body  []wireStmt `msgpack:"body,omitempty"`
}

type wireCatch struct {
	ClassName string     `msgpack:"class"`
	Var       string     `msgpack:"var,omitempty"`
	Body      []wireStmt `msgpack:"body,omitempty"`
}

type wireItem struct {
	Key   *wireExpr `msgpack:"key,omitempty"`
	Value *wireExpr `msgpack:"val"`
	ByRef bool      `msgpack:"ref,omitempty"`
}

type wireStmt struct {
	Kind uint8    `msgpack:"k"`
	Span wireSpan `msgpack:"sp"`

	Target  *wireExpr   `msgpack:"tgt,omitempty"`
	Value   *wireExpr   `msgpack:"val,omitempty"`
	Key     *wireExpr   `msgpack:"key,omitempty"`
	Cond    *wireExpr   `msgpack:"cond,omitempty"`
	Subject *wireExpr   `msgpack:"subj,omitempty"`
	Values  []*wireExpr `msgpack:"vals,omitempty"`

	Body    []wireStmt  `msgpack:"body,omitempty"`
	Else    []wireStmt  `msgpack:"else,omitempty"`
	Cases   []wireCase  `msgpack:"cases,omitempty"`
	Catches []wireCatch `msgpack:"catches,omitempty"`

	Name     string `msgpack:"name,omitempty"`
	KeyVar   string `msgpack:"keyvar,omitempty"`
	ValueVar string `msgpack:"valvar,omitempty"`
	ByRef    bool   `msgpack:"ref,omitempty"`
	Depth    int    `msgpack:"depth,omitempty"`
}

type wireLit struct {
	Kind   uint8   `msgpack:"k"`
	Bool   bool    `msgpack:"b,omitempty"`
	Long   int64   `msgpack:"l,omitempty"`
	Double float64 `msgpack:"d,omitempty"`
	Str    string  `msgpack:"s,omitempty"`
}

type wireExpr struct {
	Kind uint8    `msgpack:"k"`
	Span wireSpan `msgpack:"sp"`

	Lit  *wireLit    `msgpack:"lit,omitempty"`
	Name string      `msgpack:"name,omitempty"`
	Op   uint8       `msgpack:"op,omitempty"`
	X    *wireExpr   `msgpack:"x,omitempty"`
	Y    *wireExpr   `msgpack:"y,omitempty"`
	Z    *wireExpr   `msgpack:"z,omitempty"`
	Args []*wireExpr `msgpack:"args,omitempty"`

	Params []wireParam `msgpack:"params,omitempty"`
	Uses   []wireUse   `msgpack:"uses,omitempty"`
	Body   []wireStmt  `msgpack:"body,omitempty"`
	Items  []wireItem  `msgpack:"items,omitempty"`
}

// EncodeModule serializes a module into the interchange format.
func EncodeModule(m *Module) ([]byte, error) {
	w := wireModule{
		Schema:   SchemaVersion,
		Name:     m.Name,
		Routines: make([]wireRoutine, len(m.Routines)),
	}
	for i := range m.Routines {
		r := &m.Routines[i]
		wr := wireRoutine{
			Name:        r.Name,
			IsGenerator: r.IsGenerator,
			Span:        spanToWire(r.Span),
		}
		for _, p := range r.Params {
			wr.Params = append(wr.Params, wireParam(p))
		}
		body, err := stmtsToWire(r.Body)
		if err != nil {
			return nil, err
		}
		wr.Body = body
		w.Routines[i] = wr
	}
	return msgpack.Marshal(&w)
}

// DecodeModule parses an interchange payload back into a module.
func DecodeModule(data []byte) (*Module, error) {
	var w wireModule
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if w.Schema != SchemaVersion {
		return nil, fmt.Errorf("%w: payload schema %d, reader schema %d",
			ErrSchemaMismatch, w.Schema, SchemaVersion)
	}
	m := &Module{Name: w.Name, Routines: make([]Routine, len(w.Routines))}
	for i := range w.Routines {
		wr := &w.Routines[i]
		body, err := stmtsFromWire(wr.Body)
		if err != nil {
			return nil, err
		}
		r := Routine{
			Name: wr.Name,
			Body: body,
			Span: spanFromWire(wr.Span),
		}
		for _, p := range wr.Params {
			r.Params = append(r.Params, Param(p))
		}
		// Re-derive instead of trusting the producer's flag.
		r.IsGenerator = wr.IsGenerator || HasYield(body)
		m.Routines[i] = r
	}
	return m, nil
}

func spanToWire(s source.Span) wireSpan {
	return wireSpan{File: uint32(s.File), Start: s.Start, End: s.End}
}

func spanFromWire(s wireSpan) source.Span {
	return source.Span{File: source.FileID(s.File), Start: s.Start, End: s.End}
}

func stmtsToWire(stmts []Stmt) ([]wireStmt, error) {
	if len(stmts) == 0 {
		return nil, nil
	}
	out := make([]wireStmt, len(stmts))
	for i := range stmts {
		w, err := stmtToWire(&stmts[i])
		if err != nil {
			return nil, err
		}
		out[i] = w
	}
	return out, nil
}

func stmtToWire(s *Stmt) (wireStmt, error) {
	w := wireStmt{Kind: uint8(s.Kind), Span: spanToWire(s.Span)}
	var err error
	switch d := s.Data.(type) {
	case ExprStmtData:
		w.Value, err = exprToWire(d.Expr)
	case AssignData:
		if w.Target, err = exprToWire(d.Target); err != nil {
			return w, err
		}
		w.Value, err = exprToWire(d.Value)
	case RefAssignData:
		if w.Target, err = exprToWire(d.Target); err != nil {
			return w, err
		}
		w.Value, err = exprToWire(d.Source)
	case IfData:
		if w.Cond, err = exprToWire(d.Cond); err != nil {
			return w, err
		}
		if w.Body, err = stmtsToWire(d.Then); err != nil {
			return w, err
		}
		w.Else, err = stmtsToWire(d.Else)
	case WhileData:
		if w.Cond, err = exprToWire(d.Cond); err != nil {
			return w, err
		}
		w.Body, err = stmtsToWire(d.Body)
	case ForeachData:
		if w.Subject, err = exprToWire(d.Subject); err != nil {
			return w, err
		}
		w.KeyVar = d.KeyVar
		w.ValueVar = d.ValueVar
		w.ByRef = d.ValueByRef
		w.Body, err = stmtsToWire(d.Body)
	case SwitchData:
		if w.Subject, err = exprToWire(d.Subject); err != nil {
			return w, err
		}
		for _, c := range d.Cases {
			wc := wireCase{}
			if wc.Match, err = exprToWire(c.Match); err != nil {
				return w, err
			}
			if wc.Body, err = stmtsToWire(c.Body); err != nil {
				return w, err
			}
			w.Cases = append(w.Cases, wc)
		}
	case TryData:
		if w.Body, err = stmtsToWire(d.Body); err != nil {
			return w, err
		}
		for _, c := range d.Catches {
			wc := wireCatch{ClassName: c.ClassName, Var: c.Var}
			if wc.Body, err = stmtsToWire(c.Body); err != nil {
				return w, err
			}
			w.Catches = append(w.Catches, wc)
		}
		w.Else, err = stmtsToWire(d.Finally)
	case ReturnData:
		w.Value, err = exprToWire(d.Value)
	case EchoData:
		for _, v := range d.Values {
			we, werr := exprToWire(v)
			if werr != nil {
				return w, werr
			}
			w.Values = append(w.Values, we)
		}
	case GotoData:
		w.Name = d.Label
	case LabelData:
		w.Name = d.Name
	case BreakData:
		w.Depth = d.Depth
	case ContinueData:
		w.Depth = d.Depth
	case YieldData:
		if w.Key, err = exprToWire(d.Key); err != nil {
			return w, err
		}
		w.Value, err = exprToWire(d.Value)
	case BlockData:
		w.Body, err = stmtsToWire(d.Body)
	case ThrowData:
		w.Value, err = exprToWire(d.Value)
	default:
		return w, fmt.Errorf("%w: statement kind %s has no wire form", ErrBadPayload, s.Kind)
	}
	return w, err
}

func stmtsFromWire(ws []wireStmt) ([]Stmt, error) {
	if len(ws) == 0 {
		return nil, nil
	}
	out := make([]Stmt, len(ws))
	for i := range ws {
		s, err := stmtFromWire(&ws[i])
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func stmtFromWire(w *wireStmt) (Stmt, error) {
	s := Stmt{Kind: StmtKind(w.Kind), Span: spanFromWire(w.Span)}
	var err error
	switch s.Kind {
	case StmtExpr:
		var e *Expr
		if e, err = exprFromWire(w.Value); err == nil {
			s.Data = ExprStmtData{Expr: e}
		}
	case StmtAssign:
		var tgt, val *Expr
		if tgt, err = exprFromWire(w.Target); err != nil {
			return s, err
		}
		if val, err = exprFromWire(w.Value); err != nil {
			return s, err
		}
		s.Data = AssignData{Target: tgt, Value: val}
	case StmtRefAssign:
		var tgt, src *Expr
		if tgt, err = exprFromWire(w.Target); err != nil {
			return s, err
		}
		if src, err = exprFromWire(w.Value); err != nil {
			return s, err
		}
		s.Data = RefAssignData{Target: tgt, Source: src}
	case StmtIf:
		var cond *Expr
		var then, els []Stmt
		if cond, err = exprFromWire(w.Cond); err != nil {
			return s, err
		}
		if then, err = stmtsFromWire(w.Body); err != nil {
			return s, err
		}
		if els, err = stmtsFromWire(w.Else); err != nil {
			return s, err
		}
		s.Data = IfData{Cond: cond, Then: then, Else: els}
	case StmtWhile:
		var cond *Expr
		var body []Stmt
		if cond, err = exprFromWire(w.Cond); err != nil {
			return s, err
		}
		if body, err = stmtsFromWire(w.Body); err != nil {
			return s, err
		}
		s.Data = WhileData{Cond: cond, Body: body}
	case StmtForeach:
		var subj *Expr
		var body []Stmt
		if subj, err = exprFromWire(w.Subject); err != nil {
			return s, err
		}
		if body, err = stmtsFromWire(w.Body); err != nil {
			return s, err
		}
		s.Data = ForeachData{
			Subject: subj, KeyVar: w.KeyVar, ValueVar: w.ValueVar,
			ValueByRef: w.ByRef, Body: body,
		}
	case StmtSwitch:
		var subj *Expr
		if subj, err = exprFromWire(w.Subject); err != nil {
			return s, err
		}
		d := SwitchData{Subject: subj}
		for i := range w.Cases {
			var match *Expr
			var body []Stmt
			if match, err = exprFromWire(w.Cases[i].Match); err != nil {
				return s, err
			}
			if body, err = stmtsFromWire(w.Cases[i].Body); err != nil {
				return s, err
			}
			d.Cases = append(d.Cases, SwitchCase{Match: match, Body: body})
		}
		s.Data = d
	case StmtTry:
		var body, fin []Stmt
		if body, err = stmtsFromWire(w.Body); err != nil {
			return s, err
		}
		if fin, err = stmtsFromWire(w.Else); err != nil {
			return s, err
		}
		d := TryData{Body: body, Finally: fin}
		for i := range w.Catches {
			var cbody []Stmt
			if cbody, err = stmtsFromWire(w.Catches[i].Body); err != nil {
				return s, err
			}
			d.Catches = append(d.Catches, Catch{
				ClassName: w.Catches[i].ClassName,
				Var:       w.Catches[i].Var,
				Body:      cbody,
			})
		}
		s.Data = d
	case StmtReturn:
		var val *Expr
		if val, err = exprFromWire(w.Value); err != nil {
			return s, err
		}
		s.Data = ReturnData{Value: val}
	case StmtEcho:
		d := EchoData{}
		for _, wv := range w.Values {
			var v *Expr
			if v, err = exprFromWire(wv); err != nil {
				return s, err
			}
			d.Values = append(d.Values, v)
		}
		s.Data = d
	case StmtGoto:
		s.Data = GotoData{Label: w.Name}
	case StmtLabel:
		s.Data = LabelData{Name: w.Name}
	case StmtBreak:
		s.Data = BreakData{Depth: w.Depth}
	case StmtContinue:
		s.Data = ContinueData{Depth: w.Depth}
	case StmtYield:
		var key, val *Expr
		if key, err = exprFromWire(w.Key); err != nil {
			return s, err
		}
		if val, err = exprFromWire(w.Value); err != nil {
			return s, err
		}
		s.Data = YieldData{Key: key, Value: val}
	case StmtBlock:
		var body []Stmt
		if body, err = stmtsFromWire(w.Body); err != nil {
			return s, err
		}
		s.Data = BlockData{Body: body}
	case StmtThrow:
		var val *Expr
		if val, err = exprFromWire(w.Value); err != nil {
			return s, err
		}
		s.Data = ThrowData{Value: val}
	default:
		return s, fmt.Errorf("%w: unknown statement kind %d", ErrBadPayload, w.Kind)
	}
	return s, err
}

func exprToWire(e *Expr) (*wireExpr, error) {
	if e == nil {
		return nil, nil
	}
	w := &wireExpr{Kind: uint8(e.Kind), Span: spanToWire(e.Span)}
	var err error
	switch d := e.Data.(type) {
	case LiteralData:
		w.Lit = &wireLit{
			Kind: uint8(d.Kind), Bool: d.Bool, Long: d.Long,
			Double: d.Double, Str: d.Str,
		}
	case VarUseData:
		w.Name = d.Name
	case UnaryData:
		w.Op = uint8(d.Op)
		w.X, err = exprToWire(d.Operand)
	case BinaryData:
		w.Op = uint8(d.Op)
		if w.X, err = exprToWire(d.Left); err != nil {
			return nil, err
		}
		w.Y, err = exprToWire(d.Right)
	case CallData:
		w.Name = d.Name
		if w.X, err = exprToWire(d.Recv); err != nil {
			return nil, err
		}
		for _, a := range d.Args {
			wa, werr := exprToWire(a)
			if werr != nil {
				return nil, werr
			}
			w.Args = append(w.Args, wa)
		}
	case NewData:
		w.Name = d.ClassName
		for _, a := range d.Args {
			wa, werr := exprToWire(a)
			if werr != nil {
				return nil, werr
			}
			w.Args = append(w.Args, wa)
		}
	case IndexData:
		if w.X, err = exprToWire(d.Subject); err != nil {
			return nil, err
		}
		w.Y, err = exprToWire(d.Index)
	case FieldData:
		if w.X, err = exprToWire(d.Subject); err != nil {
			return nil, err
		}
		w.Name = d.Name
	case LambdaData:
		for _, p := range d.Params {
			w.Params = append(w.Params, wireParam(p))
		}
		for _, u := range d.Uses {
			w.Uses = append(w.Uses, wireUse(u))
		}
		w.Body, err = stmtsToWire(d.Body)
	case TernaryData:
		if w.X, err = exprToWire(d.Cond); err != nil {
			return nil, err
		}
		if w.Y, err = exprToWire(d.Then); err != nil {
			return nil, err
		}
		w.Z, err = exprToWire(d.Else)
	case IssetData:
		for _, v := range d.Vars {
			wv, werr := exprToWire(v)
			if werr != nil {
				return nil, werr
			}
			w.Args = append(w.Args, wv)
		}
	case ArrayLitData:
		for _, it := range d.Items {
			wi := wireItem{ByRef: it.ByRef}
			if wi.Key, err = exprToWire(it.Key); err != nil {
				return nil, err
			}
			if wi.Value, err = exprToWire(it.Value); err != nil {
				return nil, err
			}
			w.Items = append(w.Items, wi)
		}
	default:
		return nil, fmt.Errorf("%w: expression kind %s has no wire form", ErrBadPayload, e.Kind)
	}
	return w, err
}

func exprFromWire(w *wireExpr) (*Expr, error) {
	if w == nil {
		return nil, nil
	}
	e := &Expr{Kind: ExprKind(w.Kind), Span: spanFromWire(w.Span)}
	var err error
	switch e.Kind {
	case ExprLiteral:
		if w.Lit == nil {
			return nil, fmt.Errorf("%w: literal without payload", ErrBadPayload)
		}
		e.Data = LiteralData{
			Kind: LitKind(w.Lit.Kind), Bool: w.Lit.Bool, Long: w.Lit.Long,
			Double: w.Lit.Double, Str: w.Lit.Str,
		}
	case ExprVarUse:
		e.Data = VarUseData{Name: w.Name}
	case ExprUnary:
		var x *Expr
		if x, err = exprFromWire(w.X); err != nil {
			return nil, err
		}
		e.Data = UnaryData{Op: UnaryOp(w.Op), Operand: x}
	case ExprBinary:
		var x, y *Expr
		if x, err = exprFromWire(w.X); err != nil {
			return nil, err
		}
		if y, err = exprFromWire(w.Y); err != nil {
			return nil, err
		}
		e.Data = BinaryData{Op: BinaryOp(w.Op), Left: x, Right: y}
	case ExprCall:
		var recv *Expr
		if recv, err = exprFromWire(w.X); err != nil {
			return nil, err
		}
		d := CallData{Name: w.Name, Recv: recv}
		for _, wa := range w.Args {
			var a *Expr
			if a, err = exprFromWire(wa); err != nil {
				return nil, err
			}
			d.Args = append(d.Args, a)
		}
		e.Data = d
	case ExprNew:
		d := NewData{ClassName: w.Name}
		for _, wa := range w.Args {
			var a *Expr
			if a, err = exprFromWire(wa); err != nil {
				return nil, err
			}
			d.Args = append(d.Args, a)
		}
		e.Data = d
	case ExprIndex:
		var x, y *Expr
		if x, err = exprFromWire(w.X); err != nil {
			return nil, err
		}
		if y, err = exprFromWire(w.Y); err != nil {
			return nil, err
		}
		e.Data = IndexData{Subject: x, Index: y}
	case ExprField:
		var x *Expr
		if x, err = exprFromWire(w.X); err != nil {
			return nil, err
		}
		e.Data = FieldData{Subject: x, Name: w.Name}
	case ExprLambda:
		var body []Stmt
		if body, err = stmtsFromWire(w.Body); err != nil {
			return nil, err
		}
		d := LambdaData{Body: body}
		for _, p := range w.Params {
			d.Params = append(d.Params, Param(p))
		}
		for _, u := range w.Uses {
			d.Uses = append(d.Uses, Use(u))
		}
		e.Data = d
	case ExprTernary:
		var x, y, z *Expr
		if x, err = exprFromWire(w.X); err != nil {
			return nil, err
		}
		if y, err = exprFromWire(w.Y); err != nil {
			return nil, err
		}
		if z, err = exprFromWire(w.Z); err != nil {
			return nil, err
		}
		e.Data = TernaryData{Cond: x, Then: y, Else: z}
	case ExprIsset:
		d := IssetData{}
		for _, wv := range w.Args {
			var v *Expr
			if v, err = exprFromWire(wv); err != nil {
				return nil, err
			}
			d.Vars = append(d.Vars, v)
		}
		e.Data = d
	case ExprArrayLit:
		d := ArrayLitData{}
		for i := range w.Items {
			var key, val *Expr
			if key, err = exprFromWire(w.Items[i].Key); err != nil {
				return nil, err
			}
			if val, err = exprFromWire(w.Items[i].Value); err != nil {
				return nil, err
			}
			d.Items = append(d.Items, ArrayItem{Key: key, Value: val, ByRef: w.Items[i].ByRef})
		}
		e.Data = d
	default:
		return nil, fmt.Errorf("%w: unknown expression kind %d", ErrBadPayload, w.Kind)
	}
	return e, nil
}
