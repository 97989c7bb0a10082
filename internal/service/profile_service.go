package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/stockmeta/api/internal/credit"
	"github.com/stockmeta/api/internal/model"
)

// ProfileService persists user profiles and reports credit balances.
type ProfileService struct {
	kv     KV
	ledger credit.Ledger
}

// NewProfileService creates a profile service.
func NewProfileService(kv KV, ledger credit.Ledger) *ProfileService {
	return &ProfileService{kv: kv, ledger: ledger}
}

// Ensure returns the stored profile, creating a default free-tier profile on
// first sight of the user.
func (s *ProfileService) Ensure(ctx context.Context, userID, email string) (*model.UserProfile, error) {
	data, err := s.kv.Get(ctx, profileKey(userID))
	if err != nil {
		return nil, err
	}
	if data != nil {
		var profile model.UserProfile
		if err := json.Unmarshal(data, &profile); err != nil {
			return nil, fmt.Errorf("failed to decode profile: %w", err)
		}
		return &profile, nil
	}

	name := "User"
	if at := strings.Index(email, "@"); at > 0 {
		name = email[:at]
	}
	profile := &model.UserProfile{
		ID:        userID,
		Email:     email,
		FullName:  name,
		Role:      model.RoleFree,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.save(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// CreditStatus reports the profile's remaining daily credits.
type CreditStatus struct {
	Unlimited bool  `json:"unlimited"`
	Remaining int64 `json:"remaining"`
}

// Credits returns the profile's current quota state.
func (s *ProfileService) Credits(ctx context.Context, profile *model.UserProfile) (CreditStatus, error) {
	remaining, unlimited, err := s.ledger.Remaining(ctx, profile)
	if err != nil {
		return CreditStatus{}, err
	}
	return CreditStatus{Unlimited: unlimited, Remaining: remaining}, nil
}

func (s *ProfileService) save(ctx context.Context, profile *model.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	return s.kv.Set(ctx, profileKey(profile.ID), data)
}

func profileKey(userID string) string {
	return "profile:" + userID
}
