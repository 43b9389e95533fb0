// Package models contains GORM persistence models. Domain types stay free of
// ORM tags; each model carries ToDomain and ...FromDomain mappers that the
// repositories use at the boundary.
package models
