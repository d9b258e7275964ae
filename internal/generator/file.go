package generator

import (
	"bytes"
	"fmt"
	"go/format"
	"go/types"
	"strings"

	"github.com/jhump/gopoet"
)

// HeaderFormat is the first line of every emitted file. It matches the
// convention go tooling uses to recognise generated code.
const HeaderFormat = "// " + headerText

const headerText = "Code generated by durian %s. DO NOT EDIT."

// File accumulates the declarations one generator emits for a package. The
// package clause and imports live in a gopoet.GoFile; imports are tracked
// as types are referenced.
type File struct {
	Name    string
	PkgPath string
	PkgName string

	gf    *gopoet.GoFile
	decls []decl
}

// decl is one top-level declaration. head is everything before the body,
// which is nil for type declarations.
type decl struct {
	comment string
	head    string
	body    []string
}

// NewFile starts an empty file of package pkgName at pkgPath. name must be
// a base name ending in .go.
func NewFile(name, pkgPath, pkgName string) *File {
	return &File{
		Name:    name,
		PkgPath: pkgPath,
		PkgName: pkgName,
		gf:      gopoet.NewGoFile(name, pkgPath, pkgName),
	}
}

// Import registers pkg and returns the name its symbols are qualified
// with, empty for the file's own package.
func (f *File) Import(pkg *types.Package) string {
	prefix := f.gf.RegisterImportForPackage(gopoet.PackageForGoType(pkg))
	return strings.TrimSuffix(prefix, ".")
}

func (f *File) qualifier(pkg *types.Package) string {
	if pkg == nil || pkg.Path() == f.PkgPath {
		return ""
	}
	return f.Import(pkg)
}

// TypeName converts t to a gopoet type name qualified for this file. Types
// gopoet does not model (structs, interfaces, aliases, type parameters and
// instantiated generics) keep their go/types spelling.
func (f *File) TypeName(t types.Type) gopoet.TypeName {
	if !modeled(t) {
		return opaque(types.TypeString(t, f.qualifier))
	}
	return f.gf.EnsureTypeImported(gopoet.TypeNameForGoType(t))
}

// Type renders t as it must be spelled inside the file.
func (f *File) Type(t types.Type) string {
	return f.TypeName(t).String()
}

// Signature converts the parameters and results of sig. The receiver and
// result names are dropped; unnamed parameters stay unnamed.
func (f *File) Signature(sig *types.Signature) gopoet.Signature {
	var out gopoet.Signature
	ps := sig.Params()
	for i := range ps.Len() {
		p := ps.At(i)
		if sig.Variadic() && i == ps.Len()-1 {
			out.AddArg(p.Name(), gopoet.SliceType(f.TypeName(p.Type().(*types.Slice).Elem())))
			out.SetVariadic(true)
			continue
		}
		out.AddArg(p.Name(), f.TypeName(p.Type()))
	}
	rs := sig.Results()
	for i := range rs.Len() {
		out.AddResult("", f.TypeName(rs.At(i).Type()))
	}
	return out
}

// Owner returns a type spec for a type declared elsewhere in the package,
// to hang generated methods on. name may carry type parameters, as in
// "Box[T]". underlying may be nil when it is not known.
func (f *File) Owner(name string, underlying types.Type) *gopoet.TypeSpec {
	if underlying == nil {
		return gopoet.NewTypeSpec(name, opaque(name))
	}
	return gopoet.NewTypeSpec(name, f.TypeName(underlying))
}

// Func appends a function declaration. body lines are written as given,
// one statement per line.
func (f *File) Func(fn *gopoet.FuncSpec, body ...string) {
	f.decls = append(f.decls, decl{
		comment: fn.Comment,
		head:    "func " + fn.Name + signature(&fn.Signature),
		body:    body,
	})
}

// Method appends m as a method of owner.
func (f *File) Method(owner *gopoet.TypeSpec, m *gopoet.MethodSpec, body ...string) {
	owner.AddMethod(m)
	recv := owner.Name
	if m.ReceiverIsPointer {
		recv = "*" + recv
	}
	if m.ReceiverName != "" {
		recv = m.ReceiverName + " " + recv
	}
	f.decls = append(f.decls, decl{
		comment: m.Comment,
		head:    fmt.Sprintf("func (%s) %s%s", recv, m.Name, signature(&m.Signature)),
		body:    body,
	})
}

// TypeDecl appends a type declaration.
func (f *File) TypeDecl(ts *gopoet.TypeSpec) {
	under := ts.Underlying()
	text := under.String()
	if sig := under.Signature(); under.Kind() == gopoet.KindFunc && sig != nil {
		text = FuncType(sig)
	}
	sep := " "
	if ts.IsAlias() {
		sep = " = "
	}
	f.decls = append(f.decls, decl{comment: ts.Comment, head: "type " + ts.Name + sep + text})
}

// Decls reports how many declarations were emitted.
func (f *File) Decls() int { return len(f.decls) }

// Render produces the formatted source. by names the generator in the
// header line.
func (f *File) Render(by string) ([]byte, error) {
	f.gf.PackageComment = fmt.Sprintf(headerText, by)
	var b bytes.Buffer
	if err := gopoet.WriteGoFile(&b, f.gf); err != nil {
		return nil, fmt.Errorf("write %s: %w", f.Name, err)
	}
	for _, d := range f.decls {
		b.WriteByte('\n')
		d.writeTo(&b)
	}
	out, err := format.Source(b.Bytes())
	if err != nil {
		return b.Bytes(), fmt.Errorf("format %s: %w", f.Name, err)
	}
	return out, nil
}

func (d decl) writeTo(b *bytes.Buffer) {
	if d.comment != "" {
		for _, line := range strings.Split(d.comment, "\n") {
			switch {
			case line == "":
				b.WriteString("//\n")
				continue
			case strings.HasPrefix(line, "//"):
				// directive
				b.WriteString(line + "\n")
				continue
			}
			fmt.Fprintf(b, "// %s\n", line)
		}
	}
	b.WriteString(d.head)
	if d.body == nil {
		b.WriteByte('\n')
		return
	}
	b.WriteString(" {\n")
	for _, line := range d.body {
		fmt.Fprintf(b, "\t%s\n", line)
	}
	b.WriteString("}\n")
}

// FuncType spells sig as a func type or literal head.
func FuncType(sig *gopoet.Signature) string {
	return "func" + signature(sig)
}

// signature spells sig without the func keyword. gopoet prints a variadic
// tail as a slice, so it is rewritten to the ... form.
func signature(sig *gopoet.Signature) string {
	if sig.IsVariadic && len(sig.Args) > 0 {
		cp := *sig
		cp.Args = append([]gopoet.ArgType(nil), sig.Args...)
		last := &cp.Args[len(cp.Args)-1]
		last.Type = opaque("..." + last.Type.Elem().String())
		cp.IsVariadic = false
		sig = &cp
	}
	return strings.TrimPrefix(gopoet.FuncTypeFromSig(sig).String(), "func")
}

// opaque wraps already qualified source text as a type name.
func opaque(text string) gopoet.TypeName {
	return gopoet.NamedType(gopoet.Symbol{Name: text})
}

// modeled reports whether gopoet.TypeNameForGoType represents t faithfully.
func modeled(t types.Type) bool {
	switch t := t.(type) {
	case *types.Basic:
		switch t.Kind() {
		case types.Invalid, types.UnsafePointer:
			return false
		}
		return t.Info()&types.IsUntyped == 0
	case *types.Named:
		return t.Obj().Pkg() != nil && t.TypeArgs().Len() == 0
	case *types.Pointer:
		return modeled(t.Elem())
	case *types.Slice:
		return modeled(t.Elem())
	case *types.Array:
		return modeled(t.Elem())
	case *types.Chan:
		return modeled(t.Elem())
	case *types.Map:
		return modeled(t.Key()) && modeled(t.Elem())
	case *types.Signature:
		if t.Recv() != nil || t.Variadic() || t.TypeParams().Len() > 0 {
			return false
		}
		for _, tup := range []*types.Tuple{t.Params(), t.Results()} {
			for i := range tup.Len() {
				if !modeled(tup.At(i).Type()) {
					return false
				}
			}
		}
		return true
	}
	return false
}

// Exported returns name with an upper-case first letter.
func Exported(name string) string { return gopoet.Export(name) }

// Unexported returns name with a lower-case first letter.
func Unexported(name string) string { return gopoet.Unexport(name) }
