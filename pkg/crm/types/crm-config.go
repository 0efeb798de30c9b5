package types

import "time"

type CRMConfigs struct {
	SMSGatewayConfig struct {
		URL            string        `json:"url" yaml:"url"`
		APIKey         string        `json:"api_key" yaml:"api_key"`
		RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout"`
	} `json:"sms_gateway_config" yaml:"sms_gateway_config"`

	CreditConfig struct {
		MonthlyAllotment int `json:"monthly_allotment" yaml:"monthly_allotment"`
	} `json:"credit_config" yaml:"credit_config"`
}
