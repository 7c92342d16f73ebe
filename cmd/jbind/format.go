package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jward/jbind"
	"github.com/jward/jbind/internal/classinfo"
	"github.com/jward/jbind/internal/reflector"
)

var validFormats = []string{"json", "text"}

func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}

// outputResult writes a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(stdout, result)
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope carrying the span and code of located errors. In text
// mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	var de *jbind.Error
	if errors.As(err, &de) {
		result.Error = de.Message
		result.Span = de.Span.String()
		result.Code = string(de.Code)
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLIClass:
		for i, c := range v {
			if i > 0 {
				fmt.Fprintln(w)
			}
			formatClassText(w, c)
		}
	case []CLIMember:
		formatMembersText(w, v)
	case CLIMember:
		formatMembersText(w, []CLIMember{v})
	case []CLIPackage:
		formatPackagesText(w, v)
	case CLIHierarchy:
		formatHierarchyText(w, v)
	case []CLIDiscovered:
		formatDiscoveredText(w, v)
	case CLIExport:
		fmt.Fprintf(w, "Exported %d classes in %d packages to %s\n", v.Classes, v.Packages, v.Database)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// formatClassText prints a class the way javap would, plus its location.
func formatClassText(w io.Writer, c CLIClass) {
	if c.Span != "" {
		fmt.Fprintf(w, "// %s\n", c.Span)
	}
	fmt.Fprintf(w, "%s {\n", c.Header)
	for _, f := range c.Fields {
		fmt.Fprintf(w, "  %s;\n", f.Signature)
	}
	for _, m := range c.Constructors {
		fmt.Fprintf(w, "  %s;\n", m.Signature)
	}
	for _, m := range c.Methods {
		fmt.Fprintf(w, "  %s;\n", m.Signature)
	}
	fmt.Fprintln(w, "}")
}

func formatMembersText(w io.Writer, members []CLIMember) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CLASS\tKIND\tINDEX\tSIGNATURE")
	for _, m := range members {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", m.Class, m.Kind, m.Index, m.Signature)
	}
	tw.Flush()
}

func formatPackagesText(w io.Writer, pkgs []CLIPackage) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PACKAGE\tCLASSES\tDECLARED")
	for _, p := range pkgs {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", p.Path, len(p.Classes), p.Span)
	}
	tw.Flush()
}

func formatHierarchyText(w io.Writer, h CLIHierarchy) {
	fmt.Fprintf(w, "Class: %s\n", h.Class)
	section := func(title string, names []string) {
		if len(names) == 0 {
			return
		}
		fmt.Fprintf(w, "%s:\n", title)
		for _, n := range names {
			fmt.Fprintf(w, "  %s\n", n)
		}
	}
	section("Extends", h.Extends)
	section("Implements", h.Implements)
	section("Upcasts", h.Upcasts)
	section("Subtypes", h.Subtypes)
}

func formatDiscoveredText(w io.Writer, types []CLIDiscovered) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tFILE\tLINE")
	for _, t := range types {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", t.Name, t.Kind, t.File, t.Line)
	}
	tw.Flush()
}

// --- Conversions ---

func classToCLI(c *classinfo.ClassInfo) CLIClass {
	out := CLIClass{
		Name:       string(c.Name),
		Kind:       c.Kind.String(),
		Header:     c.Header(),
		Modifiers:  c.Flags.Words(),
		Extends:    refNames(c.Extends),
		Implements: refNames(c.Implements),
	}
	if !c.Span.IsZero() {
		out.Span = c.Span.String()
	}
	for _, g := range c.Generics {
		out.Generics = append(out.Generics, g.String())
	}
	for i := range c.Constructors {
		out.Constructors = append(out.Constructors, memberToCLI(reflector.NewReflectedMethod(c, reflector.KindConstructor, i)))
	}
	for i := range c.Methods {
		out.Methods = append(out.Methods, memberToCLI(reflector.NewReflectedMethod(c, reflector.KindMethod, i)))
	}
	for _, f := range c.Fields {
		out.Fields = append(out.Fields, CLIField{
			Name:      string(f.Name),
			Type:      f.Type.String(),
			Static:    f.Flags.IsStatic,
			Signature: f.Signature(),
		})
	}
	return out
}

func memberToCLI(m *jbind.ReflectedMethod) CLIMember {
	out := CLIMember{
		Class:     string(m.ClassInfo().Name),
		Kind:      m.Kind().String(),
		Index:     m.Index(),
		Name:      string(m.Name()),
		Static:    m.IsStatic(),
		Signature: m.Signature(),
		Args:      []string{},
	}
	for _, a := range m.ArgumentTypes() {
		out.Args = append(out.Args, a.String())
	}
	if rt := m.ReturnType(); rt != nil {
		out.Return = rt.String()
	}
	return out
}

func refNames(refs []classinfo.ClassRef) []string {
	var out []string
	for _, r := range refs {
		out = append(out, r.String())
	}
	return out
}

func dotIdsToStrings(ids []jbind.DotId) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
