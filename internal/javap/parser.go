// Package javap parses Java class declarations in the textual form printed by
// the JDK's javap tool. The same grammar serves the declaration files users
// write: `package a.b;` blocks followed by class declarations, where a body of
// `{ * }` asks for the class to be reflected instead of spelled out.
package javap

import (
	"fmt"
	"strings"

	"github.com/jward/jbind/internal/classinfo"
	"github.com/jward/jbind/internal/diag"
)

type parser struct {
	toks []token
	pos  int

	// file names the declaration file being parsed. When origin is set the
	// input is tool output and errors are reported at origin instead.
	file   string
	origin *classinfo.Span

	// scopes holds the type parameters visible at the current position.
	scopes [][]classinfo.Id
}

// ParseClass parses the javap listing of a single class. The returned
// ClassInfo and any parse error are located at span, the declaration that
// asked for the class.
func ParseClass(text string, span classinfo.Span) (*classinfo.ClassInfo, error) {
	toks, lexErr := lex(text)
	if lexErr != nil {
		return nil, diag.Errorf(span, diag.CodeParse, "parsing javap output: line %d, column %d: %s",
			lexErr.line, lexErr.col, lexErr.msg)
	}
	p := &parser{toks: toks, origin: &span}
	p.skipBanner()

	info, _, err := p.classDecl(false)
	if err != nil {
		return nil, err
	}
	if !p.atEOF() {
		return nil, p.errorf(p.peek(), "unexpected %s after class body", p.peek())
	}
	info.Span = span
	return info, nil
}

// ParseDeclarations parses a declaration file.
func ParseDeclarations(file, src string) (*classinfo.Declaration, error) {
	toks, lexErr := lex(src)
	if lexErr != nil {
		return nil, diag.Errorf(classinfo.Span{File: file, Line: lexErr.line, Col: lexErr.col},
			diag.CodeParse, "%s", lexErr.msg)
	}
	p := &parser{toks: toks, file: file}

	decl := &classinfo.Declaration{}
	for !p.atEOF() {
		if !p.accept("package") {
			return nil, p.errorf(p.peek(), "expected `package`, found %s", p.peek())
		}
		name, err := p.identPath()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(";"); err != nil {
			return nil, err
		}

		pkg := classinfo.JavaPackage{Name: name}
		for !p.atEOF() && !p.is("package") {
			info, reflect, err := p.classDecl(true)
			if err != nil {
				return nil, err
			}
			if reflect != nil {
				pkg.Classes = append(pkg.Classes, reflect)
			} else {
				pkg.Classes = append(pkg.Classes, &classinfo.SpecifiedClass{Info: info})
			}
		}
		decl.Packages = append(decl.Packages, pkg)
	}
	return decl, nil
}

// --- token helpers ---

func (p *parser) peek() token {
	return p.peekN(0)
}

func (p *parser) peekN(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	t := p.peek()
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) atEOF() bool {
	return p.peek().kind == tokEOF
}

// is reports whether the next token is the keyword or punctuation text.
func (p *parser) is(text string) bool {
	t := p.peek()
	return (t.kind == tokIdent || t.kind == tokPunct) && t.text == text
}

func (p *parser) accept(text string) bool {
	if p.is(text) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(text string) (token, error) {
	if !p.is(text) {
		return token{}, p.errorf(p.peek(), "expected `%s`, found %s", text, p.peek())
	}
	return p.next(), nil
}

func (p *parser) ident() (token, error) {
	t := p.peek()
	if t.kind != tokIdent {
		return token{}, p.errorf(t, "expected identifier, found %s", t)
	}
	return p.next(), nil
}

func (p *parser) span(t token) classinfo.Span {
	return classinfo.Span{File: p.file, Line: t.line, Col: t.col}
}

func (p *parser) errorf(t token, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if p.origin != nil {
		return diag.Errorf(*p.origin, diag.CodeParse, "parsing javap output: line %d, column %d: %s", t.line, t.col, msg)
	}
	return diag.Errorf(p.span(t), diag.CodeParse, "%s", msg)
}

func (p *parser) skipBanner() {
	if p.is("Compiled") && p.peekN(1).text == "from" {
		p.next()
		p.next()
		if p.peek().kind == tokString {
			p.next()
		}
	}
}

// --- generic scopes ---

func (p *parser) pushScope() {
	p.scopes = append(p.scopes, nil)
}

func (p *parser) popScope() {
	p.scopes = p.scopes[:len(p.scopes)-1]
}

func (p *parser) declare(id classinfo.Id) {
	top := len(p.scopes) - 1
	p.scopes[top] = append(p.scopes[top], id)
}

func (p *parser) inScope(id classinfo.Id) bool {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		for _, v := range p.scopes[i] {
			if v == id {
				return true
			}
		}
	}
	return false
}

// --- names ---

func (p *parser) identPath() (classinfo.PackageName, error) {
	first, err := p.ident()
	if err != nil {
		return nil, err
	}
	path := classinfo.PackageName{{Text: first.text, Span: p.span(first)}}
	for p.is(".") && p.peekN(1).kind == tokIdent {
		p.next()
		t := p.next()
		path = append(path, classinfo.Ident{Text: t.text, Span: p.span(t)})
	}
	return path, nil
}

func (p *parser) dotted() (classinfo.DotId, token, error) {
	first, err := p.ident()
	if err != nil {
		return "", token{}, err
	}
	parts := []string{first.text}
	for p.is(".") && p.peekN(1).kind == tokIdent {
		p.next()
		parts = append(parts, p.next().text)
	}
	return classinfo.DotId(strings.Join(parts, ".")), first, nil
}

// --- declarations ---

// classDecl parses a class header and body. When allowReflect is set a
// `{ * }` body yields a ReflectedClass instead of a ClassInfo.
func (p *parser) classDecl(allowReflect bool) (*classinfo.ClassInfo, *classinfo.ReflectedClass, error) {
	flags := p.modifiers()

	kw := p.peek()
	kind, ok := classinfo.ParseClassKind(kw.text)
	if kw.kind != tokIdent || !ok {
		return nil, nil, p.errorf(kw, "expected `class`, `interface` or `enum`, found %s", kw)
	}
	p.next()

	name, nameTok, err := p.dotted()
	if err != nil {
		return nil, nil, err
	}

	p.pushScope()
	defer p.popScope()

	info := &classinfo.ClassInfo{
		Span:  p.span(nameTok),
		Flags: flags,
		Name:  name,
		Kind:  kind,
	}
	if info.Generics, err = p.genericDecls(); err != nil {
		return nil, nil, err
	}

header:
	for {
		switch {
		case p.accept("extends"):
			refs, err := p.classRefList()
			if err != nil {
				return nil, nil, err
			}
			info.Extends = append(info.Extends, refs...)
		case p.accept("implements"):
			refs, err := p.classRefList()
			if err != nil {
				return nil, nil, err
			}
			info.Implements = append(info.Implements, refs...)
		case p.accept("permits"):
			if _, err := p.classRefList(); err != nil {
				return nil, nil, err
			}
		default:
			break header
		}
	}

	if _, err := p.expect("{"); err != nil {
		return nil, nil, err
	}
	if allowReflect && p.accept("*") {
		if _, err := p.expect("}"); err != nil {
			return nil, nil, err
		}
		return nil, &classinfo.ReflectedClass{Span: p.span(nameTok), Name: name, Kind: kind}, nil
	}
	if err := p.members(info); err != nil {
		return nil, nil, err
	}
	return info, nil, nil
}

func (p *parser) modifiers() classinfo.Flags {
	var f classinfo.Flags
	for p.peek().kind == tokIdent {
		switch p.peek().text {
		case "public":
			f.Privacy = classinfo.Public
		case "protected":
			f.Privacy = classinfo.Protected
		case "private":
			f.Privacy = classinfo.Private
		case "static":
			f.IsStatic = true
		case "final":
			f.IsFinal = true
		case "abstract":
			f.IsAbstract = true
		case "native":
			f.IsNative = true
		case "synchronized":
			f.IsSynchronized = true
		case "transient":
			f.IsTransient = true
		case "volatile":
			f.IsVolatile = true
		case "default":
			f.IsDefault = true
		case "sealed":
			f.IsSealed = true
		case "strictfp", "non-sealed":
		default:
			return f
		}
		p.next()
	}
	return f
}

// genericDecls parses `<T, U extends Bound & Other>`. Declared names are
// added to the innermost scope as they are read so bounds may refer to them.
func (p *parser) genericDecls() ([]classinfo.Generic, error) {
	if !p.accept("<") {
		return nil, nil
	}
	var generics []classinfo.Generic
	for {
		t, err := p.ident()
		if err != nil {
			return nil, err
		}
		g := classinfo.Generic{Id: classinfo.Id(t.text)}
		p.declare(g.Id)
		if p.accept("extends") {
			for {
				bound, err := p.refType()
				if err != nil {
					return nil, err
				}
				g.Extends = append(g.Extends, bound)
				if !p.accept("&") {
					break
				}
			}
		}
		generics = append(generics, g)
		if p.accept(">") {
			return generics, nil
		}
		if _, err := p.expect(","); err != nil {
			return nil, err
		}
	}
}

func (p *parser) members(info *classinfo.ClassInfo) error {
	for !p.accept("}") {
		if p.atEOF() {
			return p.errorf(p.peek(), "expected `}`, found %s", p.peek())
		}
		if p.is("static") && p.peekN(1).text == "{" {
			p.next()
			p.next()
			if _, err := p.expect("}"); err != nil {
				return err
			}
			p.accept(";")
			continue
		}
		if err := p.member(info); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) member(info *classinfo.ClassInfo) error {
	flags := p.modifiers()

	p.pushScope()
	defer p.popScope()
	generics, err := p.genericDecls()
	if err != nil {
		return err
	}

	var ret *classinfo.Type
	start := p.peek()
	if !p.accept("void") {
		ty, err := p.parseType()
		if err != nil {
			return err
		}
		if p.is("(") {
			return p.constructor(info, start, ty, flags, generics)
		}
		ret = &ty
	}

	nameTok, err := p.ident()
	if err != nil {
		return err
	}
	name := classinfo.Id(nameTok.text)

	if !p.is("(") {
		if ret == nil {
			return p.errorf(nameTok, "field `%s` cannot have type void", name)
		}
		if len(generics) > 0 {
			return p.errorf(nameTok, "field `%s` cannot declare type parameters", name)
		}
		if p.accept("=") {
			p.skipTo(";")
		}
		if _, err := p.expect(";"); err != nil {
			return err
		}
		info.Fields = append(info.Fields, classinfo.Field{Flags: flags, Name: name, Type: *ret})
		return nil
	}

	args, err := p.arguments()
	if err != nil {
		return err
	}
	throws, err := p.throws()
	if err != nil {
		return err
	}
	if p.accept("default") {
		p.skipTo(";")
	}
	if _, err := p.expect(";"); err != nil {
		return err
	}
	info.Methods = append(info.Methods, classinfo.Method{
		Flags:         flags,
		Name:          name,
		Generics:      generics,
		ArgumentTypes: args,
		ReturnType:    ret,
		Throws:        throws,
	})
	return nil
}

func (p *parser) constructor(info *classinfo.ClassInfo, start token, ty classinfo.Type, flags classinfo.Flags, generics []classinfo.Generic) error {
	if ty.Kind != classinfo.TypeRef || ty.Ref.Kind != classinfo.RefClass || len(ty.Ref.Class.Generics) > 0 {
		return p.errorf(start, "expected member name before `(`")
	}
	if got := ty.Ref.Class.Name.Class(); got != info.Name.Class() {
		return p.errorf(start, "constructor `%s` does not match class `%s`", ty.Ref.Class.Name, info.Name)
	}
	args, err := p.arguments()
	if err != nil {
		return err
	}
	throws, err := p.throws()
	if err != nil {
		return err
	}
	if _, err := p.expect(";"); err != nil {
		return err
	}
	info.Constructors = append(info.Constructors, classinfo.Constructor{
		Flags:         flags,
		Generics:      generics,
		ArgumentTypes: args,
		Throws:        throws,
	})
	return nil
}

// arguments parses a parenthesised parameter list. Parameter names are
// optional and discarded.
func (p *parser) arguments() ([]classinfo.Type, error) {
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	var args []classinfo.Type
	if p.accept(")") {
		return args, nil
	}
	for {
		ty, err := p.parseType()
		if err != nil {
			return nil, err
		}
		args = append(args, ty)
		if p.peek().kind == tokIdent {
			p.next()
		}
		if p.accept(")") {
			return args, nil
		}
		if _, err := p.expect(","); err != nil {
			return nil, err
		}
	}
}

func (p *parser) throws() ([]classinfo.ClassRef, error) {
	if !p.accept("throws") {
		return nil, nil
	}
	return p.classRefList()
}

func (p *parser) skipTo(text string) {
	for !p.atEOF() && !p.is(text) {
		p.next()
	}
}

// --- types ---

func (p *parser) classRefList() ([]classinfo.ClassRef, error) {
	var refs []classinfo.ClassRef
	for {
		ref, err := p.classRef()
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
		if !p.accept(",") {
			return refs, nil
		}
	}
}

func (p *parser) classRef() (classinfo.ClassRef, error) {
	name, _, err := p.dotted()
	if err != nil {
		return classinfo.ClassRef{}, err
	}
	args, err := p.typeArgs()
	if err != nil {
		return classinfo.ClassRef{}, err
	}
	return classinfo.ClassRef{Name: name, Generics: args}, nil
}

func (p *parser) typeArgs() ([]classinfo.RefType, error) {
	if !p.accept("<") {
		return nil, nil
	}
	var args []classinfo.RefType
	for {
		arg, err := p.refType()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.accept(">") {
			return args, nil
		}
		if _, err := p.expect(","); err != nil {
			return nil, err
		}
	}
}

func (p *parser) refType() (classinfo.RefType, error) {
	start := p.peek()
	ty, err := p.parseType()
	if err != nil {
		return classinfo.RefType{}, err
	}
	if ty.Kind != classinfo.TypeRef {
		return classinfo.RefType{}, p.errorf(start, "expected reference type, found `%s`", ty)
	}
	return *ty.Ref, nil
}

func (p *parser) parseType() (classinfo.Type, error) {
	var ty classinfo.Type
	t := p.peek()

	switch {
	case p.accept("?"):
		r := classinfo.RefType{Kind: classinfo.RefWildcard}
		switch {
		case p.accept("extends"):
			bound, err := p.refType()
			if err != nil {
				return ty, err
			}
			r = classinfo.RefType{Kind: classinfo.RefExtends, Bound: &bound}
		case p.accept("super"):
			bound, err := p.refType()
			if err != nil {
				return ty, err
			}
			r = classinfo.RefType{Kind: classinfo.RefSuper, Bound: &bound}
		}
		return classinfo.RefOf(r), nil
	case t.kind == tokIdent:
		if s, ok := classinfo.ParseScalar(t.text); ok {
			p.next()
			ty = classinfo.ScalarOf(s)
			break
		}
		ref, err := p.classRef()
		if err != nil {
			return ty, err
		}
		if !ref.Name.IsQualified() && len(ref.Generics) == 0 && p.inScope(classinfo.Id(ref.Name)) {
			ty = classinfo.RefOf(classinfo.RefType{Kind: classinfo.RefTypeParameter, Var: classinfo.Id(ref.Name)})
		} else {
			ty = classinfo.RefOf(classinfo.RefType{Kind: classinfo.RefClass, Class: ref})
		}
	default:
		return ty, p.errorf(t, "expected type, found %s", t)
	}

	for p.is("[") && p.peekN(1).text == "]" {
		p.next()
		p.next()
		elem := ty
		ty = classinfo.RefOf(classinfo.RefType{Kind: classinfo.RefArray, Elem: &elem})
	}
	if p.accept("...") {
		elem := ty
		ty = classinfo.Type{Kind: classinfo.TypeRepeat, Elem: &elem}
	}
	return ty, nil
}
