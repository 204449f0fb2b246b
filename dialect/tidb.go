package dialect

import (
	"github.com/Konsultn-Engineering/metal/ast"
	"github.com/Konsultn-Engineering/metal/compiler"
)

// TiDB speaks the MySQL dialect but has no stored procedures.
type TiDB struct {
	MySQL
}

func NewTiDB() *TiDB {
	return &TiDB{MySQL: MySQL{BaseDialect: compiler.NewBaseDialect("tidb")}}
}

func (t TiDB) CompileProcedure(*compiler.Compiler, *compiler.Context, *ast.ProcedureCall) (string, error) {
	return "", compiler.Unsupported(t.Name(), "stored procedure calls are not supported")
}
