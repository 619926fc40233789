// Package api defines the gophvault.v1.Vault gRPC contract shared by the
// server and the client: method names, metadata keys and message types.
package api

const ServiceName = "gophvault.v1.Vault"

const (
	MethodPing          = "Ping"
	MethodRegister      = "Register"
	MethodLogin         = "Login"
	MethodLogout        = "Logout"
	MethodMe            = "Me"
	MethodMfaSetup      = "MfaSetup"
	MethodMfaEnable     = "MfaEnable"
	MethodMfaDisable    = "MfaDisable"
	MethodMfaStatus     = "MfaStatus"
	MethodAddEntry      = "AddEntry"
	MethodListEntries   = "ListEntries"
	MethodGetEntry      = "GetEntry"
	MethodUpdateEntry   = "UpdateEntry"
	MethodDeleteEntry   = "DeleteEntry"
	MethodAnalytics     = "Analytics"
	MethodCheckStrength = "CheckStrength"
	MethodCheckBreach   = "CheckBreach"
	MethodExportBackup  = "ExportBackup"
	MethodActivity      = "Activity"
)

// Metadata keys. The session token and the master password travel
// separately; the token never unlocks anything on its own.
const (
	MetadataAuthorization  = "authorization"
	MetadataMasterPassword = "x-master-password"
	BearerPrefix           = "Bearer "
)

// FullMethod returns the gRPC method path, e.g. "/gophvault.v1.Vault/Login".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}
