// Package models contains GORM-specific persistence models for tables that
// have no aggregate of their own. The inspection and metering aggregates map
// themselves; the unit asset catalog is a read model owned elsewhere, so its
// row shape lives here and is converted to the domain view on the way out.
package models
