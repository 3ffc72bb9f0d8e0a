package config

import "strings"

type KintoneConfig interface {
	GetKintoneBaseURL() string
	GetKintoneAppID() string
}

type Kintone struct {
	Subdomain string `env:"KINTONE_SUBDOMAIN"`
	AppID     string `env:"KINTONE_APP_ID"`
	// BaseURL overrides https://<subdomain>, mostly for local testing
	BaseURL string `env:"KINTONE_BASE_URL"`
}

var _ KintoneConfig = Kintone{}

func (k Kintone) GetKintoneBaseURL() string {
	if k.BaseURL != "" {
		return strings.TrimRight(k.BaseURL, "/")
	}
	return "https://" + k.Subdomain
}

func (k Kintone) GetKintoneAppID() string {
	return k.AppID
}
