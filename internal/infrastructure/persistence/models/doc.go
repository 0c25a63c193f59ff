// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Configurations are stored as their transport JSON and decoded with
// byom.ParseConfiguration, so rows written by older clients still load.
//
// Structure:
// - base.go: Base persistence models (BaseModel, AggregateModel)
// - design.go: designs under review and their cart lines
// - pricing_policy.go: admin fee schedules
// - draft.go: per-owner, per-merchandise-type drafts
package models
