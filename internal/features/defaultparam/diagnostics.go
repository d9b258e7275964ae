package defaultparam

import "durian/internal/diag"

var (
	InvalidValue = diag.Register(&diag.Descriptor{
		Code:     diag.DefaultParamInvalidValue,
		Title:    "invalid default value",
		Format:   "default %s=%s of %s is invalid: %s",
		Severity: diag.SevError,
		Category: diag.CategoryDefaultParam,
	})
	UnknownParam = diag.Register(&diag.Descriptor{
		Code:     diag.DefaultParamUnknownParam,
		Title:    "unknown parameter",
		Format:   "%s has no parameter named %s",
		Severity: diag.SevError,
		Category: diag.CategoryDefaultParam,
	})
	NotTrailing = diag.Register(&diag.Descriptor{
		Code:     diag.DefaultParamNotTrailing,
		Title:    "defaulted parameters must be trailing",
		Format:   "defaulted parameter %s of %s is followed by %s, which has no default",
		Severity: diag.SevError,
		Category: diag.CategoryDefaultParam,
	})
	Variadic = diag.Register(&diag.Descriptor{
		Code:     diag.DefaultParamVariadic,
		Title:    "variadic parameter cannot have a default",
		Format:   "variadic parameter %s of %s cannot have a default",
		Severity: diag.SevError,
		Category: diag.CategoryDefaultParam,
	})
	UnknownField = diag.Register(&diag.Descriptor{
		Code:     diag.DefaultParamUnknownField,
		Title:    "unknown field",
		Format:   "%s has no field named %s",
		Severity: diag.SevError,
		Category: diag.CategoryDefaultParam,
	})
	NotStruct = diag.Register(&diag.Descriptor{
		Code:     diag.DefaultParamNotStruct,
		Title:    "type defaults require a struct",
		Format:   "//durian:default on type %s requires a struct type",
		Severity: diag.SevError,
		Category: diag.CategoryDefaultParam,
	})
	NameCollision = diag.Register(&diag.Descriptor{
		Code:     diag.DefaultParamNameCollision,
		Title:    "generated name is taken",
		Format:   "cannot generate %s for %s: the name is already declared",
		Severity: diag.SevError,
		Category: diag.CategoryDefaultParam,
	})
	NoDefaults = diag.Register(&diag.Descriptor{
		Code:     diag.DefaultParamNoDefaults,
		Title:    "directive declares no defaults",
		Format:   "//durian:default on %s declares no values",
		Severity: diag.SevWarning,
		Category: diag.CategoryDefaultParam,
	})
	Generic = diag.Register(&diag.Descriptor{
		Code:     diag.DefaultParamGenericReceiver,
		Title:    "generic declarations are not supported",
		Format:   "//durian:default does not support generic declaration %s",
		Severity: diag.SevError,
		Category: diag.CategoryDefaultParam,
	})
)
