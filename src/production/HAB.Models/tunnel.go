package habmodels

// Tunnel is one active tunnel reported by a status endpoint
type Tunnel struct {
	Name      string `json:"name"`
	PublicURL string `json:"public_url"`
}

// TunnelsResponse is the body returned by a tunnel status endpoint
type TunnelsResponse struct {
	Tunnels []Tunnel `json:"tunnels"`
}
