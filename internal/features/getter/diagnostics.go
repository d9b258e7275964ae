package getter

import "durian/internal/diag"

var (
	ExportedField = diag.Register(&diag.Descriptor{
		Code:     diag.GetterExportedField,
		Title:    "field is already exported",
		Format:   "field %s is exported; a getter named %s would collide with it",
		Severity: diag.SevError,
		Category: diag.CategoryGetter,
	})
	NameCollision = diag.Register(&diag.Descriptor{
		Code:     diag.GetterNameCollision,
		Title:    "getter name is taken",
		Format:   "cannot generate getter %s for %s: the name is already declared",
		Severity: diag.SevError,
		Category: diag.CategoryGetter,
	})
	AnonymousStruct = diag.Register(&diag.Descriptor{
		Code:     diag.GetterAnonymousStruct,
		Title:    "field of an anonymous struct",
		Format:   "%s belongs to an anonymous struct and cannot have a getter",
		Severity: diag.SevError,
		Category: diag.CategoryGetter,
	})
	BlankField = diag.Register(&diag.Descriptor{
		Code:     diag.GetterBlankField,
		Title:    "blank field",
		Format:   "blank field of %s cannot have a getter",
		Severity: diag.SevWarning,
		Category: diag.CategoryGetter,
	})
	EmbeddedField = diag.Register(&diag.Descriptor{
		Code:     diag.GetterEmbeddedField,
		Title:    "embedded field",
		Format:   "embedded field %s cannot have a getter",
		Severity: diag.SevError,
		Category: diag.CategoryGetter,
	})
)
