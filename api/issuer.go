package api

// Issuer is the refresh status of one issuer's certificate cache.
type Issuer struct {
	Name         string `json:"name"`
	Certificates int    `json:"certificates"`
	// LoadedFrom is "snapshot" or "source", or empty when no list was loaded.
	LoadedFrom  string   `json:"loadedFrom,omitempty"`
	LastAttempt Time     `json:"lastAttempt"`
	LastSuccess Time     `json:"lastSuccess"`
	NextRefresh Time     `json:"nextRefresh"`
	Age         Duration `json:"age"`
	LastError   string   `json:"lastError,omitempty"`
}

type Certificate struct {
	KeyID       string `json:"kid"`
	Country     string `json:"country,omitempty"`
	Subject     string `json:"subject"`
	Fingerprint string `json:"fingerprint"`
	NotAfter    Time   `json:"notAfter"`
	Expired     bool   `json:"expired"`
}

type Resource struct {
	Name string `uri:"name"`
}
