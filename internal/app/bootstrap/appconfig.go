// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging, CORS). AppConfig is everything specific to Leirefolket:
// database, sessions, object storage, mail, and email links.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max driver connection pool size
	MongoMinPoolSize uint64 // Min driver connection pool size

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // How long a signed-in session stays valid

	// CSRF protection
	CSRFKey string // 32-byte key for gorilla/csrf token signing

	// MinIO object storage (gallery images, documents, avatars, branding)
	MinioEndpoint  string // MinIO server endpoint (host:port)
	MinioAccessKey string // Access key ID
	MinioSecretKey string // Secret access key
	MinioBucket    string // Bucket for all uploaded files
	MinioRegion    string // Bucket region (blank for default)
	MinioUseSSL    bool   // Connect to MinIO over TLS
	MinioPublicURL string // Public base URL files are served from

	// Email/SMTP configuration
	MailSMTPHost string // SMTP server host
	MailSMTPPort int    // SMTP server port
	MailSMTPUser string // SMTP username (empty for Mailpit)
	MailSMTPPass string // SMTP password
	MailFrom     string // From email address (e.g., ikke-svar@leirefolket.no)

	// Base URL for email links (temp-password login, password reset)
	BaseURL string // e.g., "https://leirefolket.no" or "http://localhost:3000"

	// Password reset link expiry
	ResetTokenExpiry time.Duration
}
