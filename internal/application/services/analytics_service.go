package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/format"
	"github.com/pingcap/tidb/pkg/parser/opcode"
	"github.com/pingcap/tidb/pkg/parser/test_driver" // ValueExpr implementation for literals

	"github.com/voxhub/backend/pkg/auth"
	"github.com/voxhub/backend/pkg/constants"
	"github.com/voxhub/backend/pkg/errors"
)

const analyticsRowCap = 1000

// AnalyticsService runs admin-authored read-only SQL against the operational
// store. Queries are parsed, restricted to allowlisted tables, and rewritten
// with a tenant_id filter before execution.
type AnalyticsService struct {
	parser *parser.Parser
	db     *sql.DB
	audit  *AuditService
}

func NewAnalyticsService(db *sql.DB, audit *AuditService) *AnalyticsService {
	return &AnalyticsService{
		parser: parser.New(),
		db:     db,
		audit:  audit,
	}
}

// QueryResult is a generic tabular result.
type QueryResult struct {
	Columns []string                 `json:"columns"`
	Rows    []map[string]interface{} `json:"rows"`
	SQL     string                   `json:"sql"` // the rewritten statement that actually ran
}

// ValidateAndRewrite parses the SQL, enforces the table allowlist, and
// injects row-level tenant scoping for non-platform admins.
func (s *AnalyticsService) ValidateAndRewrite(query string, actor *auth.UserSession) (string, error) {
	stmtNodes, _, err := s.parser.Parse(query, "", "")
	if err != nil {
		return "", errors.NewValidationError("sql", fmt.Sprintf("SQL parse error: %v", err))
	}
	if len(stmtNodes) != 1 {
		return "", errors.NewValidationError("sql", "Only single SQL statements are allowed")
	}

	selectStmt, ok := stmtNodes[0].(*ast.SelectStmt)
	if !ok {
		return "", errors.NewValidationError("sql", "Only SELECT statements are allowed")
	}

	visitor := &tableAllowlistVisitor{}
	selectStmt.Accept(visitor)
	if visitor.err != nil {
		return "", visitor.err
	}

	// Rewrite after the visitor pass so the AST is not modified mid-walk.
	if !actor.IsPlatformAdmin() {
		if actor.TenantID == nil {
			return "", errors.NewPermissionError("query", "analytics")
		}
		applyTenantScope(selectStmt, *actor.TenantID)
	}

	if selectStmt.Limit == nil {
		selectStmt.Limit = &ast.Limit{Count: ast.NewValueExpr(uint64(analyticsRowCap), "", "")}
	}

	var sb strings.Builder
	restoreCtx := format.NewRestoreCtx(format.DefaultRestoreFlags, &sb)
	if err := selectStmt.Restore(restoreCtx); err != nil {
		return "", errors.NewInternalError("SQL restore error", err)
	}
	return sb.String(), nil
}

// Query validates, rewrites, and executes an analytics statement.
func (s *AnalyticsService) Query(ctx context.Context, query string, actor *auth.UserSession) (*QueryResult, error) {
	rewritten, err := s.ValidateAndRewrite(query, actor)
	if err != nil {
		s.audit.Record(ctx, actor.TenantID, actor.ID, "sentinel.query.rejected", "analytics",
			constants.AuditSeverityWarning, "", query)
		return nil, err
	}

	s.audit.Record(ctx, actor.TenantID, actor.ID, "sentinel.query", "analytics",
		constants.AuditSeverityInfo, "", rewritten)

	rows, err := s.db.QueryContext(ctx, rewritten)
	if err != nil {
		return nil, errors.NewInternalError("Analytics query failed", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &QueryResult{Columns: columns, Rows: make([]map[string]interface{}, 0), SQL: rewritten}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			// database/sql hands back []byte for text columns
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result.Rows = append(result.Rows, row)

		if len(result.Rows) >= analyticsRowCap {
			break
		}
	}
	return result, rows.Err()
}

// applyTenantScope injects "AND tenant_id = '<id>'" into the WHERE clause of
// the primary table. Joins inherit the filter through the outer WHERE.
func applyTenantScope(stmt *ast.SelectStmt, tenantID string) {
	colExpr := &ast.ColumnNameExpr{Name: &ast.ColumnName{Name: ast.NewCIStr(constants.FieldTenantID)}}

	valueExpr := &test_driver.ValueExpr{}
	valueExpr.SetString(tenantID)

	cond := &ast.BinaryOperationExpr{
		Op: opcode.EQ,
		L:  colExpr,
		R:  valueExpr,
	}

	if stmt.Where == nil {
		stmt.Where = cond
	} else {
		stmt.Where = &ast.BinaryOperationExpr{
			Op: opcode.LogicAnd,
			L:  stmt.Where,
			R:  cond,
		}
	}
}

// tableAllowlistVisitor rejects any table reference outside the analytics
// allowlist. Subqueries are walked too, so nothing slips through a derived
// table.
type tableAllowlistVisitor struct {
	err error
}

func (v *tableAllowlistVisitor) Enter(in ast.Node) (ast.Node, bool) {
	if v.err != nil {
		return in, true
	}

	if t, ok := in.(*ast.TableName); ok {
		name := strings.ToLower(t.Name.O)
		if name != "" && !constants.AnalyticsTableAllowlist[name] {
			v.err = errors.NewPermissionError("query", name)
			return in, true
		}
	}
	return in, false
}

func (v *tableAllowlistVisitor) Leave(in ast.Node) (ast.Node, bool) {
	return in, true
}
