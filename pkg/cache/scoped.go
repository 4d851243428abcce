package cache

// ScopedKeyer prefixes every key of an inner Keyer, so that several
// deployments or tenants can share one Redis instance.
//
//	keyer := cache.NewScopedKeyer(nil, "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) AnalysisKey(reportHash string, opts AnalysisKeyOpts) string {
	return k.prefix + k.inner.AnalysisKey(reportHash, opts)
}

func (k *ScopedKeyer) LayoutKey(analysisHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(analysisHash, opts)
}
