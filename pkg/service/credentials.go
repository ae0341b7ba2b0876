package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/coneno/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/osit-platform/osit-backend/pkg/db"
	"github.com/osit-platform/osit-backend/pkg/types"
)

const bcryptCost = 12

type CredentialService struct {
	store CredentialStore
	now   func() time.Time
	cost  int
}

func NewCredentialService(store CredentialStore) *CredentialService {
	return &CredentialService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		cost:  bcryptCost,
	}
}

func (s *CredentialService) RegisterParticipant(ctx context.Context, req types.ParticipantRegistration) (primitive.ObjectID, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return primitive.NilObjectID, err
	}

	_, err := s.store.FindParticipantByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return primitive.NilObjectID, NewConflictError("an account with this email already exists")
	case !errors.Is(err, db.ErrNotFound):
		return primitive.NilObjectID, NewPersistenceError("failed to look up participant", err)
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return primitive.NilObjectID, err
	}

	now := s.now()
	id, err := s.store.AddParticipant(ctx, types.Participant{
		Email:              req.Email,
		Password:           hash,
		ParticipantProfile: req.ParticipantProfile,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	if errors.Is(err, db.ErrDuplicateKey) {
		return primitive.NilObjectID, NewConflictError("an account with this email already exists")
	}
	if err != nil {
		return primitive.NilObjectID, NewPersistenceError("failed to create participant", err)
	}
	logger.Info.Printf("participant %s registered", id.Hex())
	return id, nil
}

func (s *CredentialService) RegisterTherapist(ctx context.Context, req types.TherapistRegistration) (primitive.ObjectID, error) {
	req.Email = normalizeEmail(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := validateStruct(req); err != nil {
		return primitive.NilObjectID, err
	}

	_, err := s.store.FindTherapistByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return primitive.NilObjectID, NewConflictError("an account with this email already exists")
	case !errors.Is(err, db.ErrNotFound):
		return primitive.NilObjectID, NewPersistenceError("failed to look up therapist", err)
	}
	_, err = s.store.FindTherapistByPhone(ctx, req.Phone)
	switch {
	case err == nil:
		return primitive.NilObjectID, NewConflictError("an account with this phone number already exists")
	case !errors.Is(err, db.ErrNotFound):
		return primitive.NilObjectID, NewPersistenceError("failed to look up therapist", err)
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return primitive.NilObjectID, err
	}

	id, err := s.store.AddTherapist(ctx, types.Therapist{
		FName:     req.FName,
		LName:     req.LName,
		Gender:    req.Gender,
		Phone:     req.Phone,
		Email:     req.Email,
		Password:  hash,
		Role:      types.ROLE_THERAPIST,
		CreatedAt: s.now(),
	})
	if errors.Is(err, db.ErrDuplicateKey) {
		return primitive.NilObjectID, NewConflictError("an account with this email or phone number already exists")
	}
	if err != nil {
		return primitive.NilObjectID, NewPersistenceError("failed to create therapist", err)
	}
	logger.Info.Printf("therapist %s registered", id.Hex())
	return id, nil
}

// Authenticate looks the email up among participants and therapists, since the
// caller's role is not known in advance. The first record whose password
// matches wins.
func (s *CredentialService) Authenticate(ctx context.Context, email string, password string) (types.Principal, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return types.Principal{}, NewValidationError("email and password are required")
	}

	found := false

	participant, err := s.store.FindParticipantByEmail(ctx, email)
	switch {
	case err == nil:
		found = true
		if checkPassword(participant.Password, password) {
			return participantPrincipal(participant), nil
		}
	case !errors.Is(err, db.ErrNotFound):
		return types.Principal{}, NewPersistenceError("failed to look up account", err)
	}

	therapist, err := s.store.FindTherapistByEmail(ctx, email)
	switch {
	case err == nil:
		found = true
		if checkPassword(therapist.Password, password) {
			return therapistPrincipal(therapist), nil
		}
	case !errors.Is(err, db.ErrNotFound):
		return types.Principal{}, NewPersistenceError("failed to look up account", err)
	}

	if !found {
		return types.Principal{}, NewNotFoundError("no account with this email")
	}
	return types.Principal{}, NewAuthError("invalid email or password")
}

// GetPrincipal loads the principal a verified token refers to
func (s *CredentialService) GetPrincipal(ctx context.Context, id primitive.ObjectID, role types.Role) (types.Principal, error) {
	switch role {
	case types.ROLE_PARTICIPANT:
		p, err := s.store.FindParticipantByID(ctx, id)
		if errors.Is(err, db.ErrNotFound) {
			return types.Principal{}, NewNotFoundError("participant not found")
		}
		if err != nil {
			return types.Principal{}, NewPersistenceError("failed to load participant", err)
		}
		return participantPrincipal(p), nil
	case types.ROLE_THERAPIST:
		t, err := s.store.FindTherapistByID(ctx, id)
		if errors.Is(err, db.ErrNotFound) {
			return types.Principal{}, NewNotFoundError("therapist not found")
		}
		if err != nil {
			return types.Principal{}, NewPersistenceError("failed to load therapist", err)
		}
		return therapistPrincipal(t), nil
	}
	return types.Principal{}, NewAuthError("unknown role")
}

func (s *CredentialService) UpdateParticipantProfile(ctx context.Context, id primitive.ObjectID, profile types.ParticipantProfile) (types.Participant, error) {
	profile.Phone = strings.TrimSpace(profile.Phone)
	if err := validateStruct(profile); err != nil {
		return types.Participant{}, err
	}
	p, err := s.store.UpdateParticipantProfile(ctx, id, profile)
	if errors.Is(err, db.ErrNotFound) {
		return types.Participant{}, NewNotFoundError("participant not found")
	}
	if err != nil {
		return types.Participant{}, NewPersistenceError("failed to update participant profile", err)
	}
	p.Password = ""
	return p, nil
}

func (s *CredentialService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", NewPersistenceError("failed to hash password", err)
	}
	return string(hash), nil
}

func checkPassword(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func participantPrincipal(p types.Participant) types.Principal {
	p.Password = ""
	return types.Principal{ID: p.ID, Role: types.ROLE_PARTICIPANT, Email: p.Email, Participant: &p}
}

func therapistPrincipal(t types.Therapist) types.Principal {
	t.Password = ""
	return types.Principal{ID: t.ID, Role: types.ROLE_THERAPIST, Email: t.Email, Therapist: &t}
}
