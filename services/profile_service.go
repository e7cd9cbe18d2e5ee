package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"tokenTapAPI/internal/store"
	"tokenTapAPI/internal/types/user"
)

type ProfileService struct {
	store store.Store
}

func NewProfileService(st store.Store) *ProfileService {
	return &ProfileService{store: st}
}

// EnsureProfile creates the zeroed profile for a freshly authenticated
// identity. Safe to call on every sign-in: an existing profile is read back
// untouched, never reset.
func (s *ProfileService) EnsureProfile(ctx context.Context, uid, displayName, photoURL string) (*user.UserProfile, error) {
	err := s.store.CreateDocument(ctx, user.Collection, uid, user.NewProfileFields(displayName, photoURL))
	if err == nil {
		log.Printf("Created profile for %s", uid)
		return s.GetProfile(ctx, uid)
	}
	if errors.Is(err, store.ErrAlreadyExists) {
		return s.GetProfile(ctx, uid)
	}
	return nil, fmt.Errorf("failed to create profile for %s: %w", uid, err)
}

func (s *ProfileService) GetProfile(ctx context.Context, uid string) (*user.UserProfile, error) {
	doc, err := s.store.GetDocument(ctx, user.Collection, uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("profile not found for %s: %w", uid, err)
		}
		return nil, fmt.Errorf("failed to get profile for %s: %w", uid, err)
	}
	return user.ProfileFromFields(doc.ID, doc.Fields), nil
}
