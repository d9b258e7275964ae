package defaultparam

import (
	"errors"
	"fmt"
	"go/ast"
	"go/constant"
	"go/parser"
	"go/token"
	"go/types"
	"math"
	"runtime"
	"sort"
	"strings"

	"durian/internal/compilation"
	"durian/internal/generator"
)

// Value is a type-checked default expression.
type Value struct {
	Src  string
	Type types.Type
	refs []pkgRef
}

// pkgRef is a package qualifier inside Src.
type pkgRef struct {
	off, n int
	pkg    *types.Package
}

var errIsType = errors.New("expression denotes a type")

// checkValue evaluates src in the file scope around pos and checks that it
// can be assigned to want.
func checkValue(comp *compilation.Compilation, pos token.Pos, src string, want types.Type) (Value, error) {
	fset := token.NewFileSet()
	expr, err := parser.ParseExprFrom(fset, "", src, 0)
	if err != nil {
		return Value{}, err
	}
	info := &types.Info{
		Types: make(map[ast.Expr]types.TypeAndValue),
		Uses:  make(map[*ast.Ident]types.Object),
	}
	if err := types.CheckExpr(comp.Fset, comp.Types, pos, expr, info); err != nil {
		// positions in err refer to the scratch file set
		var terr types.Error
		if errors.As(err, &terr) {
			return Value{}, errors.New(terr.Msg)
		}
		return Value{}, err
	}
	tv := info.Types[expr]
	if tv.IsType() {
		return Value{}, errIsType
	}
	if err := assignable(tv, want, comp.Types); err != nil {
		return Value{}, err
	}

	v := Value{Src: src, Type: want}
	for id, obj := range info.Uses {
		pn, ok := obj.(*types.PkgName)
		if !ok {
			continue
		}
		off := fset.Position(id.Pos()).Offset
		v.refs = append(v.refs, pkgRef{off: off, n: len(id.Name), pkg: pn.Imported()})
	}
	sort.Slice(v.refs, func(i, j int) bool { return v.refs[i].off < v.refs[j].off })
	return v, nil
}

var sizes = func() types.Sizes {
	if sz := types.SizesFor("gc", runtime.GOARCH); sz != nil {
		return sz
	}
	return &types.StdSizes{WordSize: 8, MaxAlign: 8}
}()

func assignable(tv types.TypeAndValue, want types.Type, pkg *types.Package) error {
	q := types.RelativeTo(pkg)
	if b, ok := tv.Type.(*types.Basic); ok && b.Info()&types.IsUntyped != 0 && tv.Value != nil {
		if wb, ok := want.Underlying().(*types.Basic); ok {
			switch representable(tv.Value, wb) {
			case fitOK:
				return nil
			case fitOverflow:
				return fmt.Errorf("constant %s overflows %s", tv.Value.String(), types.TypeString(want, q))
			}
			return fmt.Errorf("%s is not assignable to %s", types.TypeString(tv.Type, q), types.TypeString(want, q))
		}
	}
	if !types.AssignableTo(tv.Type, want) {
		return fmt.Errorf("%s is not assignable to %s", types.TypeString(tv.Type, q), types.TypeString(want, q))
	}
	return nil
}

type fit uint8

const (
	fitOK fit = iota
	fitKind
	fitOverflow
)

// representable reports whether the untyped constant v converts to b
// exactly, or why it does not.
func representable(v constant.Value, b *types.Basic) fit {
	info := b.Info()
	switch v.Kind() {
	case constant.Bool:
		return fitIf(info&types.IsBoolean != 0)
	case constant.String:
		return fitIf(info&types.IsString != 0)
	case constant.Int, constant.Float:
		switch {
		case info&types.IsInteger != 0:
			iv := constant.ToInt(v)
			if iv.Kind() != constant.Int {
				return fitKind // truncated
			}
			return intFits(iv, b)
		case info&types.IsFloat != 0:
			return floatFits(v, b.Kind() == types.Float32)
		case info&types.IsComplex != 0:
			return floatFits(v, b.Kind() == types.Complex64)
		}
		return fitKind
	case constant.Complex:
		if info&types.IsComplex == 0 {
			return fitKind
		}
		f32 := b.Kind() == types.Complex64
		if r := floatFits(constant.Real(v), f32); r != fitOK {
			return r
		}
		return floatFits(constant.Imag(v), f32)
	}
	return fitKind
}

func fitIf(ok bool) fit {
	if ok {
		return fitOK
	}
	return fitKind
}

func intFits(v constant.Value, b *types.Basic) fit {
	bits := int(8 * sizes.Sizeof(b))
	if b.Info()&types.IsUnsigned != 0 {
		if constant.Sign(v) < 0 || constant.BitLen(v) > bits {
			return fitOverflow
		}
		return fitOK
	}
	if constant.Sign(v) < 0 {
		// -2^(n-1) is the smallest value, so check -v-1.
		v = constant.BinaryOp(constant.UnaryOp(token.SUB, v, 0), token.SUB, constant.MakeInt64(1))
	}
	if constant.BitLen(v) > bits-1 {
		return fitOverflow
	}
	return fitOK
}

func floatFits(v constant.Value, f32 bool) fit {
	v = constant.ToFloat(v)
	if v.Kind() != constant.Float && v.Kind() != constant.Int {
		return fitKind
	}
	var f float64
	if f32 {
		f32v, _ := constant.Float32Val(v)
		f = float64(f32v)
	} else {
		f, _ = constant.Float64Val(v)
	}
	if math.IsInf(f, 0) {
		return fitOverflow
	}
	return fitOK
}

// Render spells the value inside f, requalifying imported packages.
func (v Value) Render(f *generator.File) string {
	if len(v.refs) == 0 {
		return v.Src
	}
	var b strings.Builder
	last := 0
	for _, r := range v.refs {
		b.WriteString(v.Src[last:r.off])
		name := f.Import(r.pkg)
		b.WriteString(name)
		last = r.off + r.n
		if name == "" && last < len(v.Src) && v.Src[last] == '.' {
			last++
		}
	}
	b.WriteString(v.Src[last:])
	return b.String()
}
