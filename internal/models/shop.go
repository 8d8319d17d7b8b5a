package models

import "github.com/google/uuid"

// Shop is an installed store. The access token is stored encrypted and
// decrypted on read by the store layer.
type Shop struct {
	ID          uuid.UUID
	Domain      string
	AccessToken string
	Scope       string
	InstalledAt string
	UpdatedAt   string
}
