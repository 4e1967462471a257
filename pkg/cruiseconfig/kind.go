package cruiseconfig

//go:generate go run github.com/dmarkham/enumer -type Kind -trimprefix Kind -transform lower -yaml -output kind.gen.go

// Kind identifies the concrete type behind a polymorphic list entry.
type Kind int

const (
	KindExec Kind = iota
	KindFetch
	KindFetchExternal
	KindBuild
	KindTest
	KindExternal
	KindGit
	KindDependency
	KindRole
	KindPluginRole
)

// Tag is the YAML tag used for the kind.
func (k Kind) Tag() string {
	switch k {
	case KindFetchExternal:
		return "!fetch_external"
	case KindPluginRole:
		return "!plugin_role"
	default:
		return "!" + k.String()
	}
}

// KindForTag resolves a YAML tag back to its kind.
func KindForTag(tag string) (Kind, bool) {
	for _, k := range KindValues() {
		if k.Tag() == tag {
			return k, true
		}
	}
	return 0, false
}
