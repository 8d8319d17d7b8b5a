package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/giftkitapp/giftkit/internal/crypto"
	"github.com/giftkitapp/giftkit/internal/models"
)

type Shop = models.Shop

var ErrShopNotFound = errors.New("shop not found")

// ShopStore persists installed shops and their offline access tokens.
// Tokens are encrypted at rest.
type ShopStore struct {
	pool   *pgxpool.Pool
	crypto crypto.Encryptor
}

func NewShopStore(pool *pgxpool.Pool, encryptor crypto.Encryptor) (*ShopStore, error) {
	if encryptor == nil {
		return nil, fmt.Errorf("encryptor is required")
	}

	return &ShopStore{
		pool:   pool,
		crypto: encryptor,
	}, nil
}

// Upsert stores or refreshes the access token for a shop domain. Reinstalls
// replace the token in place.
func (s *ShopStore) Upsert(ctx context.Context, domain, accessToken, scope string) (*Shop, error) {
	domain = normalizeDomain(domain)
	if domain == "" {
		return nil, fmt.Errorf("shop domain is required")
	}

	encrypted, err := s.crypto.Encrypt(accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO shops (domain, access_token, scope)
		VALUES ($1, $2, $3)
		ON CONFLICT (domain) DO UPDATE
		SET access_token = EXCLUDED.access_token,
		    scope = EXCLUDED.scope,
		    updated_at = now()
		RETURNING id, domain, access_token, scope, installed_at, updated_at`,
		domain, encrypted, scope,
	)

	return s.scanShop(row)
}

// GetByDomain returns the shop with its decrypted access token.
func (s *ShopStore) GetByDomain(ctx context.Context, domain string) (*Shop, error) {
	domain = normalizeDomain(domain)

	row := s.pool.QueryRow(ctx, `
		SELECT id, domain, access_token, scope, installed_at, updated_at
		FROM shops
		WHERE domain = $1`,
		domain,
	)

	shop, err := s.scanShop(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrShopNotFound
	}
	if err != nil {
		return nil, err
	}
	return shop, nil
}

// DeleteByDomain removes a shop and its token, typically on app uninstall.
func (s *ShopStore) DeleteByDomain(ctx context.Context, domain string) error {
	domain = normalizeDomain(domain)

	_, err := s.pool.Exec(ctx, `DELETE FROM shops WHERE domain = $1`, domain)
	if err != nil {
		return fmt.Errorf("failed to delete shop %s: %w", domain, err)
	}
	return nil
}

func (s *ShopStore) scanShop(row pgx.Row) (*Shop, error) {
	var shop Shop
	var encryptedToken string
	var installedAt, updatedAt pgtype.Timestamptz

	if err := row.Scan(&shop.ID, &shop.Domain, &encryptedToken, &shop.Scope, &installedAt, &updatedAt); err != nil {
		return nil, err
	}

	token, err := s.crypto.Decrypt(encryptedToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	shop.AccessToken = token

	if installedAt.Valid {
		shop.InstalledAt = installedAt.Time.Format("2006-01-02")
	}
	if updatedAt.Valid {
		shop.UpdatedAt = updatedAt.Time.Format("2006-01-02")
	}

	return &shop, nil
}

func normalizeDomain(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}
