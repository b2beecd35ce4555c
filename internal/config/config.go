package config

import (
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Port           string
	GatewayTimeout time.Duration

	// MedusaPay
	MedusaPayURL       string
	MedusaPaySecretKey string
	QRImageURL         string

	// External lookups
	ViaCEPURL string

	// Infrastructure (both optional; in-memory fallbacks apply)
	RedisURL    string
	RabbitMQURL string

	// Ads conversion tag forwarded on purchase events
	AdsConversionTag string

	MinOrderValue decimal.Decimal

	// CORS
	CORSAllowOrigins []string
}

func Load() Config {
	cfg := Config{
		Port:           getenv("PORT", "8080"),
		GatewayTimeout: parseDuration(getenv("GATEWAY_TIMEOUT", "15s"), 15*time.Second),

		MedusaPayURL:       getenv("MEDUSAPAY_URL", "https://api.v2.medusapay.com.br"),
		MedusaPaySecretKey: os.Getenv("MEDUSAPAY_SECRET_KEY"),
		QRImageURL:         getenv("QR_IMAGE_URL", "https://api.qrserver.com/v1/create-qr-code/"),

		ViaCEPURL: getenv("VIACEP_URL", "https://viacep.com.br"),

		RedisURL:    os.Getenv("REDIS_URL"),
		RabbitMQURL: os.Getenv("RABBITMQ_URL"),

		AdsConversionTag: getenv("ADS_CONVERSION_TAG", "AW-17934359668/b5kPCJ_O3_gbEPS44udC"),

		MinOrderValue: parseDecimal(getenv("MIN_ORDER_VALUE", "50"), decimal.NewFromInt(50)),

		CORSAllowOrigins: splitCSV(getenv("CORS_ALLOW_ORIGINS", "*")),
	}

	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func parseDecimal(v string, def decimal.Decimal) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return def
	}
	return d
}
