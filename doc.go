// Package jbind builds a model of Java classes for binding generators.
//
// # Pipeline
//
// A declaration file lists the Java classes a binding needs, grouped into
// `package a.b;` blocks. Each class is either a reflect request
// (`class Foo { * }`), whose body is read from compiled classes with the
// JDK's javap tool, or a specified class whose members are written out in
// javap's own syntax.
//
//  1. Parse: [ParseDeclarations] or [LoadDeclarations] turns the file into a
//     [Declaration].
//
//  2. Build: [Engine.BuildModel] qualifies every class name against its
//     package, reflects the requested classes (concurrently when
//     [WithParallel] is on, through a shared cache), and assembles a [Model]
//     holding the package tree, the classes by qualified name and the
//     upcasts table.
//
//  3. Query: [NewQueryBuilder] answers class, member selector and hierarchy
//     questions over a Model; [Engine.Export] writes it to SQLite.
//
// # Usage
//
//	e, err := jbind.New(cfg)
//	if err != nil { ... }
//
//	ctx := context.Background()
//	m, err := e.LoadModel(ctx, "bindings.jb")
//	if err != nil { ... }
//
//	q := jbind.NewQueryBuilder(m)
//	ctor, err := q.Resolve("greet.Hello")
//	run, err := q.Resolve("greet.Hello::run")
//
// # Errors
//
// Failures tied to a declaration are returned as *[Error] values carrying the
// span of the offending declaration and a code; match them with errors.Is
// against the diag sentinels or inspect Error.Code.
//
// # Scripts
//
// The internal/runtime package evaluates Risor scripts against a Model. See
// that package for the globals exposed to scripts.
package jbind
