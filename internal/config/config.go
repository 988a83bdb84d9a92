package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ipsacon/registration-service/internal/pricing"
)

// Config is built once in main and passed down; nothing reads the
// environment after startup.
type Config struct {
	HTTPAddr       string
	AllowedOrigins []string

	RedisURL string

	RazorpayKeyID  string
	RazorpaySecret string

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string

	Tiers        pricing.TierTable
	Codes        pricing.Codes
	Group        pricing.GroupRates
	FreeQuotaKey string

	EventLocation string
	EventDate     string
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on system env vars")
	}

	return Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		AllowedOrigins: splitEnv("CORS_ORIGINS", "http://localhost:5173"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		RazorpayKeyID:  getEnv("RAZORPAY_KEY_ID", ""),
		RazorpaySecret: getEnv("RAZORPAY_SECRET", ""),

		SMTPHost: getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort: getEnv("SMTP_PORT", "587"),
		SMTPUser: getEnv("SMTP_USER", ""),
		SMTPPass: getEnv("SMTP_PASS", ""),

		Tiers: pricing.TierTable{
			EarlyEnd:         dateEnv("EARLY_END", "2025-09-09"),
			RegularEnd:       dateEnv("REGULAR_END", "2025-09-18"),
			EarlyBirdRupees:  intEnv("PRICE_EARLY_BIRD", 1000),
			RegularRupees:    intEnv("PRICE_REGULAR", 1200),
			LateOnsiteRupees: intEnv("PRICE_LATE_ONSITE", 1500),
		},
		Codes: pricing.Codes{
			Discount:     getEnv("COUPON_DISCOUNT", "IPSA2025"),
			Free:         getEnv("COUPON_FREE", "IPSAFREE"),
			FreeCapacity: intEnv("COUPON_FREE_CAPACITY", 54),
		},
		Group: pricing.GroupRates{
			LargeMin:    intEnv("GROUP_LARGE_MIN", 10),
			SmallMin:    intEnv("GROUP_SMALL_MIN", 5),
			LargeRupees: intEnv("GROUP_LARGE_RATE", 300),
			SmallRupees: intEnv("GROUP_SMALL_RATE", 400),
			BaseRupees:  intEnv("GROUP_BASE_RATE", 1000),
		},
		FreeQuotaKey: getEnv("FREE_QUOTA_KEY", "registration:free_used"),

		EventLocation: getEnv("EVENT_LOCATION", "Hyderabad International Convention Centre"),
		EventDate:     getEnv("EVENT_DATE", "2025-09-20"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func dateEnv(key, fallback string) time.Time {
	v := getEnv(key, fallback)
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		log.Printf("invalid %s=%q, using %s", key, v, fallback)
		t, _ = time.Parse("2006-01-02", fallback)
	}
	return t
}

func splitEnv(key, fallback string) []string {
	v := getEnv(key, fallback)
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
