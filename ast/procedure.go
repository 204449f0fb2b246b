package ast

// ProcedureParam is one argument of a stored procedure call. Value is
// required for IN and INOUT and ignored for OUT. DBType is the declared
// type of the session variable that receives OUT and INOUT values on
// dialects that need one.
type ProcedureParam struct {
	Name      string
	Direction ParamDirection
	Value     Operand
	DBType    string
}

type ProcedureCall struct {
	Schema string
	Name   string
	Params []ProcedureParam
}

func (*ProcedureCall) Type() NodeType { return NodeProcedureCall }
func (*ProcedureCall) statementNode() {}

func (p *ProcedureCall) Fingerprint() uint64 {
	h := newHasher(NodeProcedureCall).str(p.Schema).str(p.Name).u64(uint64(len(p.Params)))
	for _, param := range p.Params {
		h.str(param.Name).str(string(param.Direction)).node(param.Value).str(param.DBType)
	}
	return h.sum()
}

// OutputParams returns the OUT and INOUT parameters in declaration order.
func (p *ProcedureCall) OutputParams() []ProcedureParam {
	var out []ProcedureParam
	for _, param := range p.Params {
		if param.Direction == ParamOut || param.Direction == ParamInOut {
			out = append(out, param)
		}
	}
	return out
}
