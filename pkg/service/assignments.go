package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coneno/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/osit-platform/osit-backend/pkg/db"
	"github.com/osit-platform/osit-backend/pkg/types"
)

// AssignmentService orchestrates the composite OSIT assignment: the root
// record and the child profile, assignment detail and intervention plan it owns.
type AssignmentService struct {
	store             AssignmentStore
	requireFixedWeeks bool
	now               func() time.Time
}

func NewAssignmentService(store AssignmentStore, requireFixedWeeks bool) *AssignmentService {
	return &AssignmentService{
		store:             store,
		requireFixedWeeks: requireFixedWeeks,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

func (s *AssignmentService) validateSubmission(sub types.AssignmentSubmission) error {
	if err := validateStruct(sub); err != nil {
		return err
	}
	return ValidateInterventionPlan(*sub.InterventionPlan, s.requireFixedWeeks)
}

// CreateAssignment validates the whole submission before touching the store,
// then inserts the three owned documents and the root in one transaction.
// Identical submissions create distinct assignments.
func (s *AssignmentService) CreateAssignment(ctx context.Context, participantID primitive.ObjectID, sub types.AssignmentSubmission) (primitive.ObjectID, error) {
	if err := s.validateSubmission(sub); err != nil {
		return primitive.NilObjectID, err
	}

	var eventID *primitive.ObjectID
	if sub.EventID != "" {
		id, err := ParseObjectID(sub.EventID, "event")
		if err != nil {
			return primitive.NilObjectID, err
		}
		eventID = &id
	}

	if _, err := s.store.FindParticipantByID(ctx, participantID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return primitive.NilObjectID, NewNotFoundError("participant not found")
		}
		return primitive.NilObjectID, NewPersistenceError("failed to load participant", err)
	}

	now := s.now()
	if eventID != nil {
		event, err := s.store.FindEventByID(ctx, *eventID)
		if errors.Is(err, db.ErrNotFound) {
			return primitive.NilObjectID, NewNotFoundError("event not found")
		}
		if err != nil {
			return primitive.NilObjectID, NewPersistenceError("failed to load event", err)
		}
		if now.After(event.SubmissionDeadline()) {
			return primitive.NilObjectID, NewValidationError("submission window for this event has closed")
		}
	}

	var assignmentID primitive.ObjectID
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		childID, err := s.store.InsertChildProfile(ctx, *sub.ChildProfile)
		if err != nil {
			return fmt.Errorf("child profile: %w", err)
		}
		detailID, err := s.store.InsertAssignmentDetail(ctx, *sub.AssignmentDetail)
		if err != nil {
			return fmt.Errorf("assignment detail: %w", err)
		}
		planID, err := s.store.InsertInterventionPlan(ctx, *sub.InterventionPlan)
		if err != nil {
			return fmt.Errorf("intervention plan: %w", err)
		}
		assignmentID, err = s.store.InsertAssignment(ctx, types.OSITAssignment{
			ParticipantID:      participantID,
			ChildProfileID:     childID,
			AssignmentDetailID: detailID,
			InterventionPlanID: planID,
			EventID:            eventID,
			CreatedAt:          now,
			UpdatedAt:          now,
		})
		if err != nil {
			return fmt.Errorf("assignment: %w", err)
		}
		return nil
	})
	if err != nil {
		logger.Error.Printf("create assignment for participant %s rolled back: %v", participantID.Hex(), err)
		return primitive.NilObjectID, NewPersistenceError("failed to create assignment, rolled back", err)
	}

	logger.Info.Printf("assignment %s created by participant %s", assignmentID.Hex(), participantID.Hex())
	return assignmentID, nil
}

func (s *AssignmentService) GetAssignment(ctx context.Context, idHex string) (types.AssignmentView, error) {
	id, err := ParseObjectID(idHex, "assignment")
	if err != nil {
		return types.AssignmentView{}, err
	}
	views, err := s.store.QueryAssignments(ctx, types.AssignmentQuery{ID: &id})
	if err != nil {
		return types.AssignmentView{}, NewPersistenceError("failed to fetch assignment", err)
	}
	if len(views) == 0 {
		return types.AssignmentView{}, NewNotFoundError("assignment not found")
	}
	view := views[0]
	finalizeView(&view)
	return view, nil
}

func ParseScoringStatus(status string) (types.ScoringStatus, error) {
	switch types.ScoringStatus(status) {
	case "", types.SCORING_STATUS_ALL:
		return types.SCORING_STATUS_ALL, nil
	case types.SCORING_STATUS_SCORED:
		return types.SCORING_STATUS_SCORED, nil
	case types.SCORING_STATUS_UNSCORED:
		return types.SCORING_STATUS_UNSCORED, nil
	}
	return "", NewValidationError(fmt.Sprintf("invalid status %q: expected all, scored or unscored", status))
}

// ListAssignments returns every assignment matching the scoring status, newest first
func (s *AssignmentService) ListAssignments(ctx context.Context, status string) ([]types.AssignmentView, error) {
	st, err := ParseScoringStatus(status)
	if err != nil {
		return nil, err
	}
	views, err := s.store.QueryAssignments(ctx, types.AssignmentQuery{Status: st})
	if err != nil {
		return nil, NewPersistenceError("failed to fetch assignments", err)
	}
	for i := range views {
		finalizeView(&views[i])
	}
	return views, nil
}

func (s *AssignmentService) ListAssignmentsForParticipant(ctx context.Context, email string) ([]types.AssignmentSummary, error) {
	participant, err := s.store.FindParticipantByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, db.ErrNotFound) {
		return nil, NewNotFoundError("participant not found")
	}
	if err != nil {
		return nil, NewPersistenceError("failed to load participant", err)
	}

	views, err := s.store.QueryAssignments(ctx, types.AssignmentQuery{ParticipantID: &participant.ID})
	if err != nil {
		return nil, NewPersistenceError("failed to fetch assignments", err)
	}

	summaries := make([]types.AssignmentSummary, 0, len(views))
	for i := range views {
		v := views[i]
		finalizeView(&v)
		summary := types.AssignmentSummary{
			ID:            v.ID,
			Scored:        v.Scoring != nil,
			Scoring:       v.Scoring,
			TotalObtained: v.TotalObtained,
			TotalPossible: v.TotalPossible,
			CreatedAt:     v.CreatedAt,
		}
		if v.ChildProfile != nil {
			summary.ChildName = v.ChildProfile.Name
		}
		if v.Event != nil {
			eventID := v.Event.ID
			summary.EventID = &eventID
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// UpdateAssignment replaces whichever owned documents are present. An unknown
// id is reported before the body is checked. Every part is validated before
// the first write; the writes themselves are applied one after the other, so
// a store failure leaves earlier replacements in place.
func (s *AssignmentService) UpdateAssignment(ctx context.Context, idHex string, upd types.AssignmentUpdate) error {
	id, err := ParseObjectID(idHex, "assignment")
	if err != nil {
		return err
	}
	root, err := s.store.FindAssignmentByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return NewNotFoundError("assignment not found")
	}
	if err != nil {
		return NewPersistenceError("failed to load assignment", err)
	}

	if upd.ChildProfile != nil {
		if err := validateStruct(*upd.ChildProfile); err != nil {
			return err
		}
	}
	if upd.AssignmentDetail != nil {
		if err := validateStruct(*upd.AssignmentDetail); err != nil {
			return err
		}
	}
	if upd.InterventionPlan != nil {
		if err := ValidateInterventionPlan(*upd.InterventionPlan, s.requireFixedWeeks); err != nil {
			return err
		}
	}
	if upd.IsEmpty() {
		return nil
	}

	if upd.ChildProfile != nil {
		if err := s.store.ReplaceChildProfile(ctx, root.ChildProfileID, *upd.ChildProfile); err != nil {
			return NewPersistenceError("failed to update child profile", err)
		}
	}
	if upd.AssignmentDetail != nil {
		if err := s.store.ReplaceAssignmentDetail(ctx, root.AssignmentDetailID, *upd.AssignmentDetail); err != nil {
			return NewPersistenceError("failed to update assignment detail", err)
		}
	}
	if upd.InterventionPlan != nil {
		if err := s.store.ReplaceInterventionPlan(ctx, root.InterventionPlanID, *upd.InterventionPlan); err != nil {
			return NewPersistenceError("failed to update intervention plan", err)
		}
	}
	if err := s.store.TouchAssignment(ctx, id); err != nil {
		return NewPersistenceError("failed to update assignment", err)
	}
	return nil
}

// DeleteAssignment removes the root first and its owned documents after it.
// A failure part way through can only leave orphans behind, which the orphan
// sweep removes later; it never leaves a root with dangling references.
func (s *AssignmentService) DeleteAssignment(ctx context.Context, idHex string) error {
	id, err := ParseObjectID(idHex, "assignment")
	if err != nil {
		return err
	}
	root, err := s.store.FindAssignmentByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return NewNotFoundError("assignment not found")
	}
	if err != nil {
		return NewPersistenceError("failed to load assignment", err)
	}

	if err := s.store.DeleteAssignment(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return NewNotFoundError("assignment not found")
		}
		return NewPersistenceError("failed to delete assignment", err)
	}

	steps := []struct {
		what string
		del  func(context.Context, primitive.ObjectID) error
		id   primitive.ObjectID
	}{
		{"child profile", s.store.DeleteChildProfile, root.ChildProfileID},
		{"assignment detail", s.store.DeleteAssignmentDetail, root.AssignmentDetailID},
		{"intervention plan", s.store.DeleteInterventionPlan, root.InterventionPlanID},
		{"scoring", s.store.DeleteScoringByAssignment, id},
	}
	for _, step := range steps {
		if err := step.del(ctx, step.id); err != nil && !errors.Is(err, db.ErrNotFound) {
			logger.Error.Printf("assignment %s deleted but its %s was not: %v", id.Hex(), step.what, err)
			return NewPersistenceError("failed to delete "+step.what, err)
		}
	}
	logger.Info.Printf("assignment %s deleted", id.Hex())
	return nil
}

type scoringInput struct {
	CriteriaList []types.Criterion `json:"criteriaList" validate:"min=1,dive"`
}

// UpsertScoring creates the assignment's scoring or replaces its criteria and
// therapist. Concurrent writers race; the last one wins. The returned flag
// reports whether a new scoring was created.
func (s *AssignmentService) UpsertScoring(ctx context.Context, assignmentIDHex string, therapistID primitive.ObjectID, criteria []types.Criterion) (types.ScoringView, bool, error) {
	if err := validateStruct(scoringInput{CriteriaList: criteria}); err != nil {
		return types.ScoringView{}, false, err
	}
	assignmentID, err := ParseObjectID(assignmentIDHex, "assignment")
	if err != nil {
		return types.ScoringView{}, false, err
	}

	if _, err := s.store.FindAssignmentByID(ctx, assignmentID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return types.ScoringView{}, false, NewNotFoundError("assignment not found")
		}
		return types.ScoringView{}, false, NewPersistenceError("failed to load assignment", err)
	}
	therapist, err := s.store.FindTherapistByID(ctx, therapistID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return types.ScoringView{}, false, NewNotFoundError("therapist not found")
		}
		return types.ScoringView{}, false, NewPersistenceError("failed to load therapist", err)
	}

	saved, created, err := s.store.SaveScoring(ctx, types.Scoring{
		AssignmentID: assignmentID,
		TherapistID:  therapistID,
		CriteriaList: criteria,
	})
	if err != nil {
		return types.ScoringView{}, false, NewPersistenceError("failed to save scoring", err)
	}

	therapist.Password = ""
	view := types.ScoringView{
		ID:           saved.ID,
		AssignmentID: saved.AssignmentID,
		Therapist:    &therapist,
		CriteriaList: saved.CriteriaList,
		CreatedAt:    saved.CreatedAt,
		UpdatedAt:    saved.UpdatedAt,
	}
	view.ComputeTotals()
	logger.Info.Printf("assignment %s scored by therapist %s", assignmentID.Hex(), therapistID.Hex())
	return view, created, nil
}

func finalizeView(v *types.AssignmentView) {
	if v.Participant != nil {
		v.Participant.Password = ""
	}
	if v.Scoring == nil {
		v.TotalObtained, v.TotalPossible = nil, nil
		return
	}
	if v.Scoring.Therapist != nil {
		v.Scoring.Therapist.Password = ""
	}
	v.Scoring.ComputeTotals()
	obtained, possible := v.Scoring.TotalObtained, v.Scoring.TotalPossible
	v.TotalObtained, v.TotalPossible = &obtained, &possible
}
