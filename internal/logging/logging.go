package logging

import "go.uber.org/zap"

// New returns a JSON production logger, or a console development logger
// when env is "local".
func New(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.InitialFields = map[string]interface{}{"service": "storefront-checkout"}
	return cfg.Build()
}
