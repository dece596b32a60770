package app

import (
	"context"
	"errors"

	"brainspark-quiz-service/internal/domain"
)

// RegistrationService handles participant sign-up.
type RegistrationService struct {
	participants ParticipantRepository
}

func NewRegistrationService(participants ParticipantRepository) *RegistrationService {
	return &RegistrationService{participants: participants}
}

// Register creates a participant after checking email and application-number
// uniqueness. Returns the stored participant with its assigned ID.
func (s *RegistrationService) Register(ctx context.Context, p domain.Participant) (domain.Participant, error) {
	if _, err := s.participants.ByEmail(ctx, p.Email); err == nil {
		return domain.Participant{}, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrParticipantNotFound) {
		return domain.Participant{}, err
	}

	if p.ApplicationNumber != "" {
		if _, err := s.participants.ByApplicationNumber(ctx, p.ApplicationNumber); err == nil {
			return domain.Participant{}, domain.ErrApplicationNumberTaken
		} else if !errors.Is(err, domain.ErrParticipantNotFound) {
			return domain.Participant{}, err
		}
	}

	if err := s.participants.Create(ctx, &p); err != nil {
		return domain.Participant{}, err
	}
	return p, nil
}
