package bip32

// KeyDerivation pairs a root fingerprint with the path taken from that
// root, the bookkeeping BIP174 PSBT derivation fields and this module's
// DerivedKey wrappers both carry.
type KeyDerivation struct {
	RootFingerprint Fingerprint
	Path            Path
}

// DerivedPrivKey pairs an XPriv with the KeyDerivation describing how it
// was reached from some root master key. Grounded in original_source's
// bip32 model (DerivedXKey): the ancestor-check predicates below are
// otherwise easy to get wrong at call sites, so they live as methods here.
type DerivedPrivKey struct {
	XPriv
	Derivation KeyDerivation
}

// DerivedPubKey pairs an XPub with its KeyDerivation.
type DerivedPubKey struct {
	XPub
	Derivation KeyDerivation
}

// SameRoot reports whether a and b were derived from the same root key.
func SameRoot(a, b KeyDerivation) bool {
	return a.RootFingerprint == b.RootFingerprint
}

// IsPossibleAncestorOf reports whether a's path is a prefix of b's path
// under the same root. This check is explicitly imprecise: fingerprints
// can collide, and a false positive is possible. A precise check requires
// rederiving b from a and comparing the resulting keys.
func IsPossibleAncestorOf(a, b KeyDerivation) bool {
	return SameRoot(a, b) && a.Path.IsPrefixOf(b.Path)
}

// PathToDescendant returns the suffix of b's path beyond a's path, if a is
// a possible ancestor of b.
func PathToDescendant(a, b KeyDerivation) (Path, bool) {
	if !IsPossibleAncestorOf(a, b) {
		return nil, false
	}
	return b.Path[len(a.Path):], true
}

// DeriveChild derives a child DerivedPrivKey, extending the path.
func (d DerivedPrivKey) DeriveChild(index uint32) (DerivedPrivKey, error) {
	child, err := d.XPriv.DeriveChild(index)
	if err != nil {
		return DerivedPrivKey{}, err
	}
	path := append(append(Path{}, d.Derivation.Path...), index)
	return DerivedPrivKey{
		XPriv:      child,
		Derivation: KeyDerivation{RootFingerprint: d.Derivation.RootFingerprint, Path: path},
	}, nil
}

// DeriveChild derives a child DerivedPubKey, extending the path.
func (d DerivedPubKey) DeriveChild(index uint32) (DerivedPubKey, error) {
	child, err := d.XPub.DeriveChild(index)
	if err != nil {
		return DerivedPubKey{}, err
	}
	path := append(append(Path{}, d.Derivation.Path...), index)
	return DerivedPubKey{
		XPub:       child,
		Derivation: KeyDerivation{RootFingerprint: d.Derivation.RootFingerprint, Path: path},
	}, nil
}

// DerivePath derives along the full path, extending the bookkeeping path.
func (d DerivedPrivKey) DerivePath(path Path) (DerivedPrivKey, error) {
	cur := d
	var err error
	for _, idx := range path {
		cur, err = cur.DeriveChild(idx)
		if err != nil {
			return DerivedPrivKey{}, err
		}
	}
	return cur, nil
}

// DerivePath derives along the full path, extending the bookkeeping path.
func (d DerivedPubKey) DerivePath(path Path) (DerivedPubKey, error) {
	cur := d
	var err error
	for _, idx := range path {
		cur, err = cur.DeriveChild(idx)
		if err != nil {
			return DerivedPubKey{}, err
		}
	}
	return cur, nil
}

// ToDerivedPub converts a DerivedPrivKey to its public counterpart,
// preserving the derivation bookkeeping.
func (d DerivedPrivKey) ToDerivedPub() (DerivedPubKey, error) {
	pub, err := d.XPriv.ToXPub()
	if err != nil {
		return DerivedPubKey{}, err
	}
	return DerivedPubKey{XPub: pub, Derivation: d.Derivation}, nil
}
