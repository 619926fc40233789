package models

import "time"

const (
	AuditRegister         = "user_registered"
	AuditLoginSuccess     = "login_success"
	AuditLoginFailed      = "login_failed"
	AuditLoginMfaFailed   = "login_mfa_failed"
	AuditVaultEntryAdded  = "vault_entry_added"
	AuditVaultEntryUpdate = "vault_entry_updated"
	AuditVaultEntryDelete = "vault_entry_deleted"
	AuditMfaEnabled       = "mfa_enabled"
	AuditMfaDisabled      = "mfa_disabled"
	AuditBackupExported   = "backup_exported"
)

type AuditEvent struct {
	ID        string
	UserID    *string
	Action    string
	Details   string
	IPAddress string
	CreatedAt time.Time
}
