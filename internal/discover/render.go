package discover

import (
	"bufio"
	"fmt"
	"io"
)

// Render writes a declaration file requesting reflection of every type,
// grouped into one package block per package in first-seen order. Types
// in the unnamed package are skipped since declarations require a package.
func Render(w io.Writer, types []Type) error {
	var order []string
	byPkg := make(map[string][]Type)
	for _, t := range types {
		if t.Package == "" {
			continue
		}
		if _, ok := byPkg[t.Package]; !ok {
			order = append(order, t.Package)
		}
		byPkg[t.Package] = append(byPkg[t.Package], t)
	}

	bw := bufio.NewWriter(w)
	for i, pkg := range order {
		if i > 0 {
			fmt.Fprintln(bw)
		}
		fmt.Fprintf(bw, "package %s;\n\n", pkg)
		for _, t := range byPkg[pkg] {
			fmt.Fprintf(bw, "%s %s { * }\n", t.Kind, t.Name)
		}
	}
	return bw.Flush()
}
