package engine

import (
	"fmt"
	"math"
	"slices"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/fsmodel/pkg/model"
	"github.com/chazu/fsmodel/pkg/vecmath"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpRef is returned by the defining builtins and accepted wherever an id
// is expected.
type sexpRef struct {
	ref model.EntityRef
}

func (r *sexpRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s)", r.ref)
}
func (r *sexpRef) Type() *zygo.RegisteredType { return nil }

type sexpVec3 struct {
	vec vecmath.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

func refTo(kind model.EntityKind, id int) *sexpRef {
	return &sexpRef{ref: model.EntityRef{Kind: kind, ID: id}}
}

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	return strings.CutPrefix(str.S, kwPrefix)
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		switch {
		case !ok:
			result.positional = append(result.positional, args[i])
		case i+1 < len(args):
			result.kw[name] = args[i+1]
			i++
		default:
			// Keyword at end with no value: treat as flag with nil.
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// argReader reads keyword arguments of one builtin call, keeping the first
// error so a builtin can read all its fields and check once.
type argReader struct {
	fn   string
	args kwArgs
	err  error
}

func newArgReader(fn string, args []zygo.Sexp, allowed ...string) *argReader {
	r := &argReader{fn: fn, args: parseArgs(args)}
	var unknown []string
	for k := range r.args.kw {
		if !slices.Contains(allowed, k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		r.err = fmt.Errorf("%s: unknown keyword :%s", fn, strings.Join(unknown, " :"))
	}
	return r
}

func (r *argReader) fail(key string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%s: %s: %w", r.fn, key, err)
	}
}

// float stores keyword key into dst if present.
func (r *argReader) float(key string, dst *float64) {
	v, ok := r.args.kw[key]
	if !ok {
		return
	}
	f, err := toFloat64(v)
	if err != nil {
		r.fail(key, err)
		return
	}
	*dst = f
}

// intArg stores keyword key into dst if present. Entity references are
// accepted for id-typed fields.
func intArg[T ~int](r *argReader, key string, dst *T) {
	v, ok := r.args.kw[key]
	if !ok {
		return
	}
	n, err := toInt(v)
	if err != nil {
		r.fail(key, err)
		return
	}
	*dst = T(n)
}

// positionalFloat returns positional argument i as a number, or def.
func (r *argReader) positionalFloat(i int, def float64) float64 {
	if i >= len(r.args.positional) {
		return def
	}
	f, err := toFloat64(r.args.positional[i])
	if err != nil {
		r.fail(fmt.Sprintf("argument %d", i+1), err)
		return def
	}
	return f
}

// positionalID returns positional argument 0 as an id, or next when it is
// absent.
func positionalID[T ~int](r *argReader, next T) T {
	if len(r.args.positional) == 0 {
		return next
	}
	n, err := toInt(r.args.positional[0])
	if err != nil {
		r.fail("id", err)
		return next
	}
	return T(n)
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer from a number with no fractional part or from
// an entity reference.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == math.Trunc(v.Val) {
			return int(v.Val), nil
		}
		return 0, fmt.Errorf("expected integer, got %g", v.Val)
	case *sexpRef:
		return v.ref.ID, nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_z) and plain strings ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

// toCode accepts either an integer code or one of the named keywords.
func toCode(s zygo.Sexp, names map[string]int) (int, error) {
	if _, isStr := s.(*zygo.SexpStr); !isStr {
		return toInt(s)
	}
	name, err := toKeywordString(s)
	if err != nil {
		return 0, err
	}
	code, ok := names[name]
	if !ok {
		return 0, fmt.Errorf("unknown value %q", name)
	}
	return code, nil
}

func codeArg[T ~int](r *argReader, key string, names map[string]int, dst *T) {
	v, ok := r.args.kw[key]
	if !ok {
		return
	}
	n, err := toCode(v, names)
	if err != nil {
		r.fail(key, err)
		return
	}
	*dst = T(n)
}

var csysTypeNames = map[string]int{
	"cartesian":   int(model.Cartesian),
	"cylindrical": int(model.Cylindrical),
	"spherical":   int(model.Spherical),
	"conical":     int(model.Conical),
}

var elementTypeNames = map[string]int{
	"straight":     int(model.TypeStraight),
	"tangent-bend": int(model.TypeTangentBend),
	"centre-bend":  int(model.TypeCentreBend),
}

var endSelectorNames = map[string]int{
	"none":   int(model.OffsetNone),
	"first":  int(model.OffsetFirst),
	"second": int(model.OffsetSecond),
	"both":   int(model.OffsetBoth),
}

var sectionTypeNames = map[string]int{
	"beam":             int(model.SectionBeam),
	"pipe":             int(model.SectionPipe),
	"compression-only": int(model.SectionCompressionOnly),
	"tension-only":     int(model.SectionTensionOnly),
}

// str stores keyword key into dst if present.
func (r *argReader) str(key string, dst *string) {
	v, ok := r.args.kw[key]
	if !ok {
		return
	}
	s, err := toKeywordString(v)
	if err != nil {
		r.fail(key, err)
		return
	}
	*dst = s
}

func (r *argReader) vec(key string, dst *vecmath.Vec) {
	v, ok := r.args.kw[key]
	if !ok {
		return
	}
	sv, ok := v.(*sexpVec3)
	if !ok {
		r.fail(key, fmt.Errorf("expected vec3, got %T (%s)", v, v.SexpString(nil)))
		return
	}
	*dst = sv.vec
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the model DSL builtins into a zygomys
// environment. The builtins add entities to m, filling unspecified fields
// from d and updating d as the legacy command language does.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, m *model.Model, d *Drafting) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: vecmath.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (csys 6 :type :cylindrical :t1 0 :t2 0 :t3 0 :rx 0 :ry 0 :rz 90 :n3 1)
	// -----------------------------------------------------------------------
	env.AddFunction("csys", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		r := newArgReader("csys", args, "type", "t1", "t2", "t3", "rx", "ry", "rz", "p1", "p2", "n3")
		if len(r.args.positional) == 0 {
			return zygo.SexpNull, fmt.Errorf("csys requires an id argument")
		}
		def := model.DefaultCSysDef(positionalID[model.CSysID](r, 0))
		codeArg(r, "type", csysTypeNames, &def.Type)
		r.float("t1", &def.T1)
		r.float("t2", &def.T2)
		r.float("t3", &def.T3)
		r.float("rx", &def.RX)
		r.float("ry", &def.RY)
		r.float("rz", &def.RZ)
		r.float("p1", &def.P1)
		r.float("p2", &def.P2)
		intArg(r, "n3", &def.N3)
		if r.err != nil {
			return zygo.SexpNull, r.err
		}
		if _, err := m.AddCSys(def); err != nil {
			return zygo.SexpNull, err
		}
		return refTo(model.KindCSys, int(def.ID)), nil
	})

	// -----------------------------------------------------------------------
	// (node 1 0 0 0 :csys 6)
	// -----------------------------------------------------------------------
	env.AddFunction("node", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		r := newArgReader("node", args, "x", "y", "z", "csys")
		def := d.nodeDef(positionalID(r, m.Nodes().Max()+1))
		def.X = r.positionalFloat(1, 0)
		def.Y = r.positionalFloat(2, 0)
		def.Z = r.positionalFloat(3, 0)
		r.float("x", &def.X)
		r.float("y", &def.Y)
		r.float("z", &def.Z)
		intArg(r, "csys", &def.CSys)
		if r.err != nil {
			return zygo.SexpNull, r.err
		}
		if _, err := m.AddNode(def); err != nil {
			return zygo.SexpNull, err
		}
		d.commitNode(def)
		return refTo(model.KindNode, int(def.ID)), nil
	})

	// -----------------------------------------------------------------------
	// (elem 1 :n1 1 :n2 2 :n3 3 :rot 0 :type :centre-bend :bendrad 5)
	// -----------------------------------------------------------------------
	env.AddFunction("elem", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		r := newArgReader("elem", args,
			"n1", "n2", "n3", "rot", "geom", "mat", "relz", "rely", "taper", "type", "co", "bendrad")
		def := d.elementDef(positionalID(r, m.Elements().Max()+1))
		if _, ok := r.args.kw["n1"]; ok {
			intArg(r, "n1", &def.N1)
			def.N2 = def.N1 + 1
		}
		intArg(r, "n2", &def.N2)
		intArg(r, "n3", &def.N3)
		r.float("rot", &def.Rot)
		intArg(r, "geom", &def.Geom)
		intArg(r, "mat", &def.Mat)
		intArg(r, "relz", &def.RelZ)
		intArg(r, "rely", &def.RelY)
		intArg(r, "taper", &def.Taper)
		codeArg(r, "type", elementTypeNames, &def.Type)
		intArg(r, "co", &def.CO)
		r.float("bendrad", &def.BendRadius)
		if r.err != nil {
			return zygo.SexpNull, r.err
		}
		if _, err := m.AddElement(def); err != nil {
			return zygo.SexpNull, err
		}
		d.commitElement(def)
		return refTo(model.KindElement, int(def.ID)), nil
	})

	// -----------------------------------------------------------------------
	// (eof 1 :ends :both :eref1 0 :x1 0 :y1 0 :z1 5 :eref2 2 :offset2 (vec3 0 1 0))
	//
	// :ends 0 (the default) removes the element's offsets.
	// -----------------------------------------------------------------------
	env.AddFunction("eof", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		r := newArgReader("eof", args,
			"ends", "eref1", "x1", "y1", "z1", "offset1", "eref2", "x2", "y2", "z2", "offset2")
		if len(r.args.positional) == 0 {
			return zygo.SexpNull, fmt.Errorf("eof requires an element argument")
		}
		def := model.DefaultElemOffsetDef(positionalID[model.ElementID](r, 0))
		codeArg(r, "ends", endSelectorNames, &def.Ends)
		intArg(r, "eref1", &def.Ref1)
		r.float("x1", &def.Offset1.X)
		r.float("y1", &def.Offset1.Y)
		r.float("z1", &def.Offset1.Z)
		r.vec("offset1", &def.Offset1)
		intArg(r, "eref2", &def.Ref2)
		r.float("x2", &def.Offset2.X)
		r.float("y2", &def.Offset2.Y)
		r.float("z2", &def.Offset2.Z)
		r.vec("offset2", &def.Offset2)
		if r.err != nil {
			return zygo.SexpNull, r.err
		}
		if def.Ends == model.OffsetNone {
			m.RemoveElemOffset(def.Elem)
			return zygo.SexpNull, nil
		}
		if _, err := m.AddElemOffset(def); err != nil {
			return zygo.SexpNull, err
		}
		return refTo(model.KindElemOffset, int(def.Elem)), nil
	})

	// -----------------------------------------------------------------------
	// (couple 1 :n1 4 :n2 5 :rot 0 :refelem 2 :spconst 1 :sccsys 6)
	// -----------------------------------------------------------------------
	env.AddFunction("couple", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		r := newArgReader("couple", args, "n1", "n2", "rot", "refelem", "spconst", "sccsys")
		def := d.coupleDef(positionalID(r, m.Couples().Max()+1))
		if _, ok := r.args.kw["n1"]; ok {
			intArg(r, "n1", &def.N1)
			def.N2 = def.N1 + 1
		}
		intArg(r, "n2", &def.N2)
		r.float("rot", &def.Rot)
		intArg(r, "refelem", &def.RefElem)
		intArg(r, "spconst", &def.SpConst)
		intArg(r, "sccsys", &def.SCCSys)
		if r.err != nil {
			return zygo.SexpNull, r.err
		}
		if _, err := m.AddCouple(def); err != nil {
			return zygo.SexpNull, err
		}
		d.commitCouple(def)
		return refTo(model.KindCouple, int(def.ID)), nil
	})

	// -----------------------------------------------------------------------
	// (gtab 1 :od 0.273 :wall 0.0093)
	// (gtab 2 :type :beam :c3 0.01 :c4 2e-4 :c5 2e-4 :c6 4e-4)
	//
	// The code defaults to the active one. :od and :wall are C1 and C2 and
	// make the section a pipe unless :type says otherwise.
	// -----------------------------------------------------------------------
	gtabKeys := []string{"type", "name", "desig", "od", "wall"}
	for i := 1; i <= model.MaxSectionConstants; i++ {
		gtabKeys = append(gtabKeys, fmt.Sprintf("c%d", i))
	}
	env.AddFunction("gtab", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		r := newArgReader("gtab", args, gtabKeys...)
		def := model.GeomDef{Code: positionalID(r, d.Geom)}
		c := make([]float64, model.MaxSectionConstants)
		r.float("od", &c[0])
		r.float("wall", &c[1])
		_, od := r.args.kw["od"]
		_, wall := r.args.kw["wall"]
		if od || wall {
			def.Type, def.Name = model.SectionPipe, "PIP"
		}
		for i := range c {
			r.float(fmt.Sprintf("c%d", i+1), &c[i])
		}
		codeArg(r, "type", sectionTypeNames, &def.Type)
		r.str("name", &def.Name)
		r.str("desig", &def.Designation)
		if r.err != nil {
			return zygo.SexpNull, r.err
		}
		last := len(c)
		for last > 0 && c[last-1] == 0 {
			last--
		}
		def.C = c[:last]
		if _, err := m.AddGeomTable(def); err != nil {
			return zygo.SexpNull, err
		}
		d.commitGeom(def.Code)
		return refTo(model.KindGeomTable, def.Code), nil
	})

	// -----------------------------------------------------------------------
	// (mtab 1 :e 2.05e8 :pois 0.3 :dens 7.85 :alpha 1.2e-5 :name "steel")
	// -----------------------------------------------------------------------
	env.AddFunction("mtab", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		r := newArgReader("mtab", args, "e", "g", "pois", "dens", "alpha", "yield", "ult", "name")
		def := model.MaterialDef{Code: positionalID(r, d.Mat)}
		r.float("e", &def.E)
		r.float("g", &def.G)
		r.float("pois", &def.Poisson)
		r.float("dens", &def.Density)
		r.float("alpha", &def.Alpha)
		r.float("yield", &def.Yield)
		r.float("ult", &def.Ult)
		r.str("name", &def.Name)
		if r.err != nil {
			return zygo.SexpNull, r.err
		}
		if _, err := m.AddMaterial(def); err != nil {
			return zygo.SexpNull, err
		}
		d.commitMaterial(def.Code)
		return refTo(model.KindMaterial, def.Code), nil
	})

	// -----------------------------------------------------------------------
	// (stab 1 :k1 1e6 :k2 1e6 :k3 1e6 :type 0 :co 0)
	// -----------------------------------------------------------------------
	env.AddFunction("stab", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		r := newArgReader("stab", args, "k1", "k2", "k3", "k4", "k5", "k6", "type", "co")
		def := model.CoupleTypeDef{Code: positionalID(r, d.SpConst)}
		for i := range def.K {
			r.float(fmt.Sprintf("k%d", i+1), &def.K[i])
		}
		intArg(r, "type", &def.Type)
		intArg(r, "co", &def.CO)
		if r.err != nil {
			return zygo.SexpNull, r.err
		}
		if _, err := m.AddCoupleType(def); err != nil {
			return zygo.SexpNull, err
		}
		d.commitCoupleType(def.Code)
		return refTo(model.KindCoupleType, def.Code), nil
	})

	// -----------------------------------------------------------------------
	// (act :csys 6 :rot 45 :geom 2 :type :centre-bend)
	// -----------------------------------------------------------------------
	env.AddFunction("act", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		r := newArgReader("act", args,
			"csys", "n1", "n3", "rot", "geom", "mat", "relz", "rely", "type", "co", "spconst")
		next := *d
		intArg(r, "csys", &next.CSys)
		intArg(r, "n1", &next.N1)
		intArg(r, "n3", &next.N3)
		r.float("rot", &next.Rot)
		intArg(r, "geom", &next.Geom)
		intArg(r, "mat", &next.Mat)
		intArg(r, "relz", &next.RelZ)
		intArg(r, "rely", &next.RelY)
		codeArg(r, "type", elementTypeNames, &next.Type)
		intArg(r, "co", &next.CO)
		intArg(r, "spconst", &next.SpConst)
		if r.err != nil {
			return zygo.SexpNull, r.err
		}
		if !m.CSystems().Has(next.CSys) {
			return zygo.SexpNull, fmt.Errorf("act: csys %d: %w", next.CSys, model.ErrNotFound)
		}
		*d = next
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (node-to-csys 3 6)
	// -----------------------------------------------------------------------
	env.AddFunction("node_to_csys", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("node-to-csys requires a node and a csys argument")
		}
		id, err := toInt(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("node-to-csys: node: %w", err)
		}
		cs, err := toInt(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("node-to-csys: csys: %w", err)
		}
		n, ok := m.Nodes().Get(model.NodeID(id))
		if !ok {
			return zygo.SexpNull, fmt.Errorf("node-to-csys: node %d: %w", id, model.ErrNotFound)
		}
		if err := n.ConvertToCSys(model.CSysID(cs)); err != nil {
			return zygo.SexpNull, err
		}
		return refTo(model.KindNode, id), nil
	})

	// -----------------------------------------------------------------------
	// (elem-length 1)
	// (bend-angle 1)
	// -----------------------------------------------------------------------
	env.AddFunction("elem_length", elementQuery(m, "elem-length", (*model.Element).Length))
	env.AddFunction("bend_angle", elementQuery(m, "bend-angle", (*model.Element).BendAngle))
}

// elementQuery builds a builtin that evaluates f on the element named by its
// single argument.
func elementQuery(m *model.Model, fn string, f func(*model.Element) (float64, error)) zygo.ZlispUserFunction {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("%s requires exactly 1 argument, got %d", fn, len(args))
		}
		id, err := toInt(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
		}
		e, ok := m.Elements().Get(model.ElementID(id))
		if !ok {
			return zygo.SexpNull, fmt.Errorf("%s: element %d: %w", fn, id, model.ErrNotFound)
		}
		v, err := f(e)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
		}
		return &zygo.SexpFloat{Val: v}, nil
	}
}
