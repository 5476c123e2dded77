package models

// Cookie is a driver-neutral browser cookie, persisted between scrapes so a
// completed login survives the next run.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"` // seconds since epoch, <= 0 for session cookies
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
}
