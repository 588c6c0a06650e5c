// Package models holds the gorm row types for the storefront tables and the
// mappers between them and the domain aggregates. Domain packages never import
// gorm; repositories read and write these rows and hand back domain values.
package models
