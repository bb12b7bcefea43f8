package types

import "strings"

// Standard returns the token standard prefix of the asset id, e.g. "nep141".
func (a AssetID) Standard() string {
	if i := strings.IndexByte(string(a), ':'); i >= 0 {
		return string(a)[:i]
	}
	return ""
}

// Contract returns the token contract account backing the asset, e.g.
// "wrap.near" for "nep141:wrap.near".
func (a AssetID) Contract() string {
	if i := strings.IndexByte(string(a), ':'); i >= 0 {
		return string(a)[i+1:]
	}
	return string(a)
}
