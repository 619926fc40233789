package services

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/server/strength"
)

const (
	oldPasswordAge      = 90 * 24 * time.Hour
	uncategorizedBucket = "Uncategorized"
)

// Dashboard summarizes the security posture of a vault.
type Dashboard struct {
	TotalPasswords    int
	WeakPasswords     int
	ReusedPasswords   int
	OldPasswords      int
	AverageStrength   float64
	CategoryBreakdown map[string]int
}

// Analytics decrypts every entry to compute the dashboard. Like List, it
// stops at the first entry that fails to open.
func (s *VaultService) Analytics(ctx context.Context, userID, masterPassword string) (*Dashboard, error) {

	key, err := s.keys.DeriveVaultKey(ctx, userID, masterPassword)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()

	items, err := s.repomanager.VaultItems(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing vault items: %w", err)
	}

	d := &Dashboard{
		TotalPasswords:    len(items),
		CategoryBreakdown: make(map[string]int),
	}
	threshold := timeNow().Add(-oldPasswordAge)
	groups := make(map[[sha256.Size]byte]int)
	total := 0

	for _, item := range items {
		p, err := s.open(ctx, item, key)
		if err != nil {
			return nil, err
		}

		r := strength.Analyze(p.Password)
		total += r.Score
		if strength.IsWeak(r.Label) {
			d.WeakPasswords++
		}
		if item.UpdatedAt.Before(threshold) {
			d.OldPasswords++
		}

		category := uncategorizedBucket
		if item.Category != nil && *item.Category != "" {
			category = *item.Category
		}
		d.CategoryBreakdown[category]++

		groups[sha256.Sum256([]byte(p.Password))]++
	}

	d.ReusedPasswords = countReused(groups)
	if len(items) > 0 {
		avg := float64(total) / float64(len(items))
		d.AverageStrength = math.Round(avg*10) / 10
	}
	return d, nil
}

// countReused returns how many entries share their password with at least
// one other entry.
func countReused[K comparable](groups map[K]int) int {
	n := 0
	for _, c := range groups {
		if c > 1 {
			n += c
		}
	}
	return n
}
