package config

const (
	FlowStoreCookie = "cookie"
	FlowStoreMemory = "memory"
)

type SecurityConfig interface {
	GetCookieSecret() string
	GetFlowStore() string
}

type Security struct {
	// CookieSecret keys the cookie signatures. When empty a random key is
	// generated at startup and cookies do not survive a restart.
	CookieSecret string `env:"COOKIE_SECRET"`
	FlowStore    string `env:"FLOW_STORE" envDefault:"cookie"`
}

var _ SecurityConfig = Security{}

func (s Security) GetCookieSecret() string {
	return s.CookieSecret
}

func (s Security) GetFlowStore() string {
	return s.FlowStore
}
