package main

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
	Span       string `json:"span,omitempty"`
	Code       string `json:"code,omitempty"`
}

// CLIClass is a JSON-friendly class description.
type CLIClass struct {
	Name         string      `json:"name"`
	Kind         string      `json:"kind"`
	Span         string      `json:"span,omitempty"`
	Header       string      `json:"header"`
	Modifiers    []string    `json:"modifiers,omitempty"`
	Generics     []string    `json:"generics,omitempty"`
	Extends      []string    `json:"extends,omitempty"`
	Implements   []string    `json:"implements,omitempty"`
	Constructors []CLIMember `json:"constructors,omitempty"`
	Methods      []CLIMember `json:"methods,omitempty"`
	Fields       []CLIField  `json:"fields,omitempty"`
}

// CLIMember is a constructor or method, addressed by kind and index.
type CLIMember struct {
	Class     string   `json:"class,omitempty"`
	Kind      string   `json:"kind"`
	Index     int      `json:"index"`
	Name      string   `json:"name"`
	Static    bool     `json:"static"`
	Signature string   `json:"signature"`
	Args      []string `json:"args"`
	Return    string   `json:"return,omitempty"`
}

// CLIField is a JSON-friendly field.
type CLIField struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Static    bool   `json:"static"`
	Signature string `json:"signature"`
}

// CLIPackage is one package of a model.
type CLIPackage struct {
	Path    string   `json:"path"`
	Span    string   `json:"span"`
	Classes []string `json:"classes"`
}

// CLIHierarchy is the hierarchy view of one class.
type CLIHierarchy struct {
	Class      string   `json:"class"`
	Extends    []string `json:"extends"`
	Implements []string `json:"implements"`
	Upcasts    []string `json:"upcasts"`
	Subtypes   []string `json:"subtypes"`
}

// CLIDiscovered is a public type found in Java sources.
type CLIDiscovered struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	File string `json:"file"`
	Line int    `json:"line"`
}

// CLIExport reports a finished export.
type CLIExport struct {
	Database string `json:"database"`
	Classes  int    `json:"classes"`
	Packages int    `json:"packages"`
}
