package extract

// Kind classifies an extraction failure. The HTTP boundary maps
// unsupported_file_type and empty_text to client errors and everything else
// to server errors without re-inspecting error text.
type Kind string

const (
	KindUnsupportedFileType     Kind = "unsupported_file_type"
	KindEmptyText               Kind = "empty_text"
	KindMissingDependency       Kind = "missing_dependency"
	KindMissingSystemDependency Kind = "missing_system_dependency"
	KindRenderFailed            Kind = "render_failed"
)

// Failure is a classified extraction error. It carries no partial result.
type Failure struct {
	Kind Kind
	// Name identifies the missing capability or toolchain, when applicable.
	Name string
}

func (f *Failure) Error() string {
	if f.Name != "" {
		return string(f.Kind) + ":" + f.Name
	}
	return string(f.Kind)
}

// ClientError reports whether the failure is correctable by the caller
// rather than a server-side configuration problem.
func (f *Failure) ClientError() bool {
	return f.Kind == KindUnsupportedFileType || f.Kind == KindEmptyText
}

func errUnsupported() *Failure { return &Failure{Kind: KindUnsupportedFileType} }
func errEmptyText() *Failure   { return &Failure{Kind: KindEmptyText} }

func errMissingDependency(name string) *Failure {
	return &Failure{Kind: KindMissingDependency, Name: name}
}

func errMissingSystemDependency(name string) *Failure {
	return &Failure{Kind: KindMissingSystemDependency, Name: name}
}

func errRenderFailed() *Failure { return &Failure{Kind: KindRenderFailed} }
