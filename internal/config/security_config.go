// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic   SecurityLevel = iota // No authentication
	SecurityAccess                        // Any signed-in user
	SecurityShowroom                      // Showroom or admin
	SecurityAdmin                         // Admin only
)

// EndpointSecurityConfig maps route names to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Probes - Public
	"healthz": SecurityPublic,
	"metrics": SecurityPublic,

	// Car catalogue - Public
	"car.list":   SecurityPublic,
	"car.search": SecurityPublic,
	"car.get":    SecurityPublic,

	// Signed document links - Public, verified by the link signature
	"document.get": SecurityPublic,

	// Car management - Showroom
	"car.add":                  SecurityShowroom,
	"car.update":               SecurityShowroom,
	"car.delete":               SecurityShowroom,
	"car.mine":                 SecurityShowroom,
	"car.return_details":       SecurityShowroom,
	"car.maintenance":          SecurityShowroom,
	"car.complete_maintenance": SecurityShowroom,
	"car.inspection":           SecurityShowroom,

	// Booking lifecycle - Access Protected
	"booking.create":         SecurityAccess,
	"booking.update":         SecurityAccess,
	"booking.extend":         SecurityAccess,
	"booking.cancel":         SecurityAccess,
	"booking.return":         SecurityAccess,
	"booking.mine":           SecurityAccess,
	"booking.get":            SecurityAccess,
	"booking.invoice":        SecurityAccess,
	"booking.invoice_file":   SecurityAccess,
	"booking.showroom_index": SecurityShowroom,

	// Notifications - Access Protected
	"notification.list": SecurityAccess,
	"notification.read": SecurityAccess,
}

// GetSecurityLevel returns the security level for a given route name
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAdmin
}
