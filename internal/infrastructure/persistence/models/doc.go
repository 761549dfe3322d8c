// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
// - base.go: base persistence models (BaseModel, AggregateModel, TenantAggregateModel)
// - party.go: organizations, customers, products
// - invoice.go, quote.go: documents and their line items
// - ledger.go: payments, credit notes, receipts, artifacts
// - dispute.go, audit.go: disputes and the append-only audit log
package models
