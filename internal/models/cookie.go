package models

// Cookie is an opaque browser cookie record captured from a live browser
// context and persisted between runs. The set is stored verbatim and
// replaced wholesale on every save (last-write-wins, no merge).
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires,omitempty"` // Unix seconds, 0 = session cookie
	Secure   bool    `json:"secure,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	SameSite string  `json:"sameSite,omitempty"` // "strict", "lax", or "none"
}
