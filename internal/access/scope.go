package access

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const companyColumn = "company_id"

// CompanyScope is a gorm plugin restricting queries, updates and deletes of
// models with a company_id column to the companies of the actor found in the
// statement context. Shared rows (NULL company_id) are always visible.
//
// Raw SQL is not rewritten. Calls without an actor or with an elevated actor
// are not restricted.
type CompanyScope struct{}

func NewCompanyScope() *CompanyScope { return &CompanyScope{} }

func (p *CompanyScope) Name() string { return "company_scope" }

func (p *CompanyScope) Initialize(db *gorm.DB) error {
	if err := db.Callback().Query().Before("gorm:query").Register("company_scope:query", companyScopeCallback); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("company_scope:row", companyScopeCallback); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("company_scope:update", companyScopeCallback); err != nil {
		return err
	}
	return db.Callback().Delete().Before("gorm:delete").Register("company_scope:delete", companyScopeCallback)
}

func companyScopeCallback(db *gorm.DB) {
	if db == nil || db.Statement == nil || db.Statement.Context == nil || db.Statement.Schema == nil {
		return
	}
	actor, ok := From(db.Statement.Context)
	if !ok || actor.Elevated {
		return
	}
	if db.Statement.Schema.LookUpField(companyColumn) == nil {
		return
	}

	col := clause.Column{Table: db.Statement.Table, Name: companyColumn}
	values := make([]interface{}, 0, len(actor.CompanyIDs))
	for _, id := range actor.CompanyIDs {
		values = append(values, id)
	}

	var visible clause.Expression = clause.Eq{Column: col, Value: nil}
	if len(values) > 0 {
		visible = clause.Or(clause.IN{Column: col, Values: values}, visible)
	}
	db.Statement.AddClause(clause.Where{Exprs: []clause.Expression{visible}})
}
