// Package memstore is an in-memory implementation of the credential, event
// and assignment stores. It follows the error contract of the MongoDB store
// (db.ErrNotFound, db.ErrDuplicateKey) and supports snapshot transactions and
// injected failures, which makes it suitable for service and handler tests.
package memstore

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/osit-platform/osit-backend/pkg/db"
	"github.com/osit-platform/osit-backend/pkg/types"
)

type state struct {
	participants      map[primitive.ObjectID]types.Participant
	therapists        map[primitive.ObjectID]types.Therapist
	events            map[primitive.ObjectID]types.Event
	childProfiles     map[primitive.ObjectID]types.ChildProfile
	assignmentDetails map[primitive.ObjectID]types.AssignmentDetail
	interventionPlans map[primitive.ObjectID]types.InterventionPlan
	assignments       map[primitive.ObjectID]types.OSITAssignment
	// keyed by assignment id
	scorings map[primitive.ObjectID]types.Scoring
}

func newState() state {
	return state{
		participants:      map[primitive.ObjectID]types.Participant{},
		therapists:        map[primitive.ObjectID]types.Therapist{},
		events:            map[primitive.ObjectID]types.Event{},
		childProfiles:     map[primitive.ObjectID]types.ChildProfile{},
		assignmentDetails: map[primitive.ObjectID]types.AssignmentDetail{},
		interventionPlans: map[primitive.ObjectID]types.InterventionPlan{},
		assignments:       map[primitive.ObjectID]types.OSITAssignment{},
		scorings:          map[primitive.ObjectID]types.Scoring{},
	}
}

// copy is shallow: stored values are cloned on the way in and never mutated afterwards
func (st state) copy() state {
	c := newState()
	for k, v := range st.participants {
		c.participants[k] = v
	}
	for k, v := range st.therapists {
		c.therapists[k] = v
	}
	for k, v := range st.events {
		c.events[k] = v
	}
	for k, v := range st.childProfiles {
		c.childProfiles[k] = v
	}
	for k, v := range st.assignmentDetails {
		c.assignmentDetails[k] = v
	}
	for k, v := range st.interventionPlans {
		c.interventionPlans[k] = v
	}
	for k, v := range st.assignments {
		c.assignments[k] = v
	}
	for k, v := range st.scorings {
		c.scorings[k] = v
	}
	return c
}

type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data state

	failMu   sync.Mutex
	failures map[string]error
}

func New() *Store {
	return &Store{
		data:     newState(),
		failures: map[string]error{},
	}
}

// FailOn makes every later call of the named store method return err
func (s *Store) FailOn(method string, err error) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.failures[method] = err
}

func (s *Store) ClearFailures() {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.failures = map[string]error{}
}

func (s *Store) injected(method string) error {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	return s.failures[method]
}

// Counts reports the number of stored documents per collection
type Counts struct {
	Participants      int
	Therapists        int
	Events            int
	ChildProfiles     int
	AssignmentDetails int
	InterventionPlans int
	Assignments       int
	Scorings          int
}

func (s *Store) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Counts{
		Participants:      len(s.data.participants),
		Therapists:        len(s.data.therapists),
		Events:            len(s.data.events),
		ChildProfiles:     len(s.data.childProfiles),
		AssignmentDetails: len(s.data.assignmentDetails),
		InterventionPlans: len(s.data.interventionPlans),
		Assignments:       len(s.data.assignments),
		Scorings:          len(s.data.scorings),
	}
}

type txKey struct{}

// WithTransaction restores the state seen before fn whenever fn fails. Writes
// made outside the transaction wait until it ends, so a rollback only undoes
// writes made through the ctx passed to fn.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := s.injected("WithTransaction"); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.copy()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// lockWrite takes the write lock. Outside a transaction it also waits for
// any running transaction to finish.
func (s *Store) lockWrite(ctx context.Context) (unlock func()) {
	if ctx.Value(txKey{}) == s {
		s.mu.Lock()
		return s.mu.Unlock
	}
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

// Participants

func (s *Store) AddParticipant(ctx context.Context, p types.Participant) (primitive.ObjectID, error) {
	if err := s.injected("AddParticipant"); err != nil {
		return primitive.NilObjectID, err
	}
	defer s.lockWrite(ctx)()

	for _, existing := range s.data.participants {
		if existing.Email == p.Email {
			return primitive.NilObjectID, fmt.Errorf("%w: participants.email %s", db.ErrDuplicateKey, p.Email)
		}
	}
	p.ID = primitive.NewObjectID()
	s.data.participants[p.ID] = p
	return p.ID, nil
}

func (s *Store) FindParticipantByID(ctx context.Context, id primitive.ObjectID) (types.Participant, error) {
	if err := s.injected("FindParticipantByID"); err != nil {
		return types.Participant{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.data.participants[id]
	if !ok {
		return types.Participant{}, db.ErrNotFound
	}
	return p, nil
}

func (s *Store) FindParticipantByEmail(ctx context.Context, email string) (types.Participant, error) {
	if err := s.injected("FindParticipantByEmail"); err != nil {
		return types.Participant{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.data.participants {
		if p.Email == email {
			return p, nil
		}
	}
	return types.Participant{}, db.ErrNotFound
}

func (s *Store) UpdateParticipantProfile(ctx context.Context, id primitive.ObjectID, profile types.ParticipantProfile) (types.Participant, error) {
	if err := s.injected("UpdateParticipantProfile"); err != nil {
		return types.Participant{}, err
	}
	defer s.lockWrite(ctx)()

	p, ok := s.data.participants[id]
	if !ok {
		return types.Participant{}, db.ErrNotFound
	}
	p.ParticipantProfile = profile
	p.UpdatedAt = time.Now().UTC()
	s.data.participants[id] = p
	return p, nil
}

// Therapists

func (s *Store) AddTherapist(ctx context.Context, t types.Therapist) (primitive.ObjectID, error) {
	if err := s.injected("AddTherapist"); err != nil {
		return primitive.NilObjectID, err
	}
	defer s.lockWrite(ctx)()

	for _, existing := range s.data.therapists {
		if existing.Email == t.Email {
			return primitive.NilObjectID, fmt.Errorf("%w: therapists.email %s", db.ErrDuplicateKey, t.Email)
		}
		if existing.Phone == t.Phone {
			return primitive.NilObjectID, fmt.Errorf("%w: therapists.phone %s", db.ErrDuplicateKey, t.Phone)
		}
	}
	t.ID = primitive.NewObjectID()
	s.data.therapists[t.ID] = t
	return t.ID, nil
}

func (s *Store) FindTherapistByID(ctx context.Context, id primitive.ObjectID) (types.Therapist, error) {
	if err := s.injected("FindTherapistByID"); err != nil {
		return types.Therapist{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.data.therapists[id]
	if !ok {
		return types.Therapist{}, db.ErrNotFound
	}
	return t, nil
}

func (s *Store) FindTherapistByEmail(ctx context.Context, email string) (types.Therapist, error) {
	if err := s.injected("FindTherapistByEmail"); err != nil {
		return types.Therapist{}, err
	}
	return s.findTherapist(func(t types.Therapist) bool { return t.Email == email })
}

func (s *Store) FindTherapistByPhone(ctx context.Context, phone string) (types.Therapist, error) {
	if err := s.injected("FindTherapistByPhone"); err != nil {
		return types.Therapist{}, err
	}
	return s.findTherapist(func(t types.Therapist) bool { return t.Phone == phone })
}

func (s *Store) findTherapist(match func(types.Therapist) bool) (types.Therapist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.data.therapists {
		if match(t) {
			return t, nil
		}
	}
	return types.Therapist{}, db.ErrNotFound
}

// Events

func (s *Store) AddEvent(ctx context.Context, event types.Event) (types.Event, error) {
	if err := s.injected("AddEvent"); err != nil {
		return types.Event{}, err
	}
	defer s.lockWrite(ctx)()

	now := time.Now().UTC()
	event.ID = primitive.NewObjectID()
	event.CreatedAt = now
	event.UpdatedAt = now
	s.data.events[event.ID] = event
	return event, nil
}

func (s *Store) FindAllEvents(ctx context.Context) ([]types.Event, error) {
	if err := s.injected("FindAllEvents"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]types.Event, 0, len(s.data.events))
	for _, e := range s.data.events {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool {
		return newerFirst(events[i].CreatedAt, events[i].ID, events[j].CreatedAt, events[j].ID)
	})
	return events, nil
}

func (s *Store) FindEventByID(ctx context.Context, id primitive.ObjectID) (types.Event, error) {
	if err := s.injected("FindEventByID"); err != nil {
		return types.Event{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data.events[id]
	if !ok {
		return types.Event{}, db.ErrNotFound
	}
	return e, nil
}

func (s *Store) UpdateEvent(ctx context.Context, event types.Event) (types.Event, error) {
	if err := s.injected("UpdateEvent"); err != nil {
		return types.Event{}, err
	}
	defer s.lockWrite(ctx)()

	existing, ok := s.data.events[event.ID]
	if !ok {
		return types.Event{}, db.ErrNotFound
	}
	event.CreatedAt = existing.CreatedAt
	event.UpdatedAt = time.Now().UTC()
	s.data.events[event.ID] = event
	return event, nil
}

func (s *Store) DeleteEvent(ctx context.Context, id primitive.ObjectID) error {
	if err := s.injected("DeleteEvent"); err != nil {
		return err
	}
	defer s.lockWrite(ctx)()

	if _, ok := s.data.events[id]; !ok {
		return db.ErrNotFound
	}
	delete(s.data.events, id)
	return nil
}

// Assignments

func (s *Store) InsertChildProfile(ctx context.Context, cp types.ChildProfile) (primitive.ObjectID, error) {
	if err := s.injected("InsertChildProfile"); err != nil {
		return primitive.NilObjectID, err
	}
	defer s.lockWrite(ctx)()

	cp.ID = primitive.NewObjectID()
	s.data.childProfiles[cp.ID] = cp
	return cp.ID, nil
}

func (s *Store) InsertAssignmentDetail(ctx context.Context, ad types.AssignmentDetail) (primitive.ObjectID, error) {
	if err := s.injected("InsertAssignmentDetail"); err != nil {
		return primitive.NilObjectID, err
	}
	defer s.lockWrite(ctx)()

	ad.ID = primitive.NewObjectID()
	s.data.assignmentDetails[ad.ID] = ad
	return ad.ID, nil
}

func (s *Store) InsertInterventionPlan(ctx context.Context, plan types.InterventionPlan) (primitive.ObjectID, error) {
	if err := s.injected("InsertInterventionPlan"); err != nil {
		return primitive.NilObjectID, err
	}
	defer s.lockWrite(ctx)()

	plan = clonePlan(plan)
	plan.ID = primitive.NewObjectID()
	s.data.interventionPlans[plan.ID] = plan
	return plan.ID, nil
}

func (s *Store) InsertAssignment(ctx context.Context, a types.OSITAssignment) (primitive.ObjectID, error) {
	if err := s.injected("InsertAssignment"); err != nil {
		return primitive.NilObjectID, err
	}
	defer s.lockWrite(ctx)()

	a = cloneAssignment(a)
	a.ID = primitive.NewObjectID()
	s.data.assignments[a.ID] = a
	return a.ID, nil
}

func (s *Store) FindAssignmentByID(ctx context.Context, id primitive.ObjectID) (types.OSITAssignment, error) {
	if err := s.injected("FindAssignmentByID"); err != nil {
		return types.OSITAssignment{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.data.assignments[id]
	if !ok {
		return types.OSITAssignment{}, db.ErrNotFound
	}
	return cloneAssignment(a), nil
}

// QueryAssignments joins in memory what the MongoDB store resolves with $lookup
func (s *Store) QueryAssignments(ctx context.Context, q types.AssignmentQuery) ([]types.AssignmentView, error) {
	if err := s.injected("QueryAssignments"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := []types.AssignmentView{}
	for _, a := range s.data.assignments {
		if q.ID != nil && a.ID != *q.ID {
			continue
		}
		if q.ParticipantID != nil && a.ParticipantID != *q.ParticipantID {
			continue
		}
		scoring, scored := s.data.scorings[a.ID]
		if q.Status == types.SCORING_STATUS_SCORED && !scored {
			continue
		}
		if q.Status == types.SCORING_STATUS_UNSCORED && scored {
			continue
		}

		view := types.AssignmentView{
			ID:        a.ID,
			CreatedAt: a.CreatedAt,
			UpdatedAt: a.UpdatedAt,
		}
		if p, ok := s.data.participants[a.ParticipantID]; ok {
			p.Password = ""
			view.Participant = &p
		}
		if cp, ok := s.data.childProfiles[a.ChildProfileID]; ok {
			view.ChildProfile = &cp
		}
		if ad, ok := s.data.assignmentDetails[a.AssignmentDetailID]; ok {
			view.AssignmentDetail = &ad
		}
		if plan, ok := s.data.interventionPlans[a.InterventionPlanID]; ok {
			plan = clonePlan(plan)
			view.InterventionPlan = &plan
		}
		if a.EventID != nil {
			if e, ok := s.data.events[*a.EventID]; ok {
				view.Event = &e
			}
		}
		if scored {
			sv := types.ScoringView{
				ID:           scoring.ID,
				AssignmentID: scoring.AssignmentID,
				CriteriaList: cloneCriteria(scoring.CriteriaList),
				CreatedAt:    scoring.CreatedAt,
				UpdatedAt:    scoring.UpdatedAt,
			}
			if t, ok := s.data.therapists[scoring.TherapistID]; ok {
				t.Password = ""
				sv.Therapist = &t
			}
			view.Scoring = &sv
		}
		views = append(views, view)
	}

	sort.Slice(views, func(i, j int) bool {
		return newerFirst(views[i].CreatedAt, views[i].ID, views[j].CreatedAt, views[j].ID)
	})
	return views, nil
}

func (s *Store) ReplaceChildProfile(ctx context.Context, id primitive.ObjectID, cp types.ChildProfile) error {
	if err := s.injected("ReplaceChildProfile"); err != nil {
		return err
	}
	defer s.lockWrite(ctx)()

	if _, ok := s.data.childProfiles[id]; !ok {
		return db.ErrNotFound
	}
	cp.ID = id
	s.data.childProfiles[id] = cp
	return nil
}

func (s *Store) ReplaceAssignmentDetail(ctx context.Context, id primitive.ObjectID, ad types.AssignmentDetail) error {
	if err := s.injected("ReplaceAssignmentDetail"); err != nil {
		return err
	}
	defer s.lockWrite(ctx)()

	if _, ok := s.data.assignmentDetails[id]; !ok {
		return db.ErrNotFound
	}
	ad.ID = id
	s.data.assignmentDetails[id] = ad
	return nil
}

func (s *Store) ReplaceInterventionPlan(ctx context.Context, id primitive.ObjectID, plan types.InterventionPlan) error {
	if err := s.injected("ReplaceInterventionPlan"); err != nil {
		return err
	}
	defer s.lockWrite(ctx)()

	if _, ok := s.data.interventionPlans[id]; !ok {
		return db.ErrNotFound
	}
	plan = clonePlan(plan)
	plan.ID = id
	s.data.interventionPlans[id] = plan
	return nil
}

func (s *Store) TouchAssignment(ctx context.Context, id primitive.ObjectID) error {
	if err := s.injected("TouchAssignment"); err != nil {
		return err
	}
	defer s.lockWrite(ctx)()

	a, ok := s.data.assignments[id]
	if !ok {
		return nil
	}
	a.UpdatedAt = time.Now().UTC()
	s.data.assignments[id] = a
	return nil
}

func (s *Store) DeleteAssignment(ctx context.Context, id primitive.ObjectID) error {
	if err := s.injected("DeleteAssignment"); err != nil {
		return err
	}
	defer s.lockWrite(ctx)()
	return deleteKey(s.data.assignments, id)
}

func (s *Store) DeleteChildProfile(ctx context.Context, id primitive.ObjectID) error {
	if err := s.injected("DeleteChildProfile"); err != nil {
		return err
	}
	defer s.lockWrite(ctx)()
	return deleteKey(s.data.childProfiles, id)
}

func (s *Store) DeleteAssignmentDetail(ctx context.Context, id primitive.ObjectID) error {
	if err := s.injected("DeleteAssignmentDetail"); err != nil {
		return err
	}
	defer s.lockWrite(ctx)()
	return deleteKey(s.data.assignmentDetails, id)
}

func (s *Store) DeleteInterventionPlan(ctx context.Context, id primitive.ObjectID) error {
	if err := s.injected("DeleteInterventionPlan"); err != nil {
		return err
	}
	defer s.lockWrite(ctx)()
	return deleteKey(s.data.interventionPlans, id)
}

// Scorings

func (s *Store) SaveScoring(ctx context.Context, scoring types.Scoring) (types.Scoring, bool, error) {
	if err := s.injected("SaveScoring"); err != nil {
		return types.Scoring{}, false, err
	}
	defer s.lockWrite(ctx)()

	now := time.Now().UTC()
	existing, found := s.data.scorings[scoring.AssignmentID]
	if found {
		existing.TherapistID = scoring.TherapistID
		existing.CriteriaList = cloneCriteria(scoring.CriteriaList)
		existing.UpdatedAt = now
	} else {
		existing = types.Scoring{
			ID:           primitive.NewObjectID(),
			AssignmentID: scoring.AssignmentID,
			TherapistID:  scoring.TherapistID,
			CriteriaList: cloneCriteria(scoring.CriteriaList),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}
	s.data.scorings[scoring.AssignmentID] = existing

	saved := existing
	saved.CriteriaList = cloneCriteria(existing.CriteriaList)
	return saved, !found, nil
}

func (s *Store) DeleteScoringByAssignment(ctx context.Context, assignmentID primitive.ObjectID) error {
	if err := s.injected("DeleteScoringByAssignment"); err != nil {
		return err
	}
	defer s.lockWrite(ctx)()
	return deleteKey(s.data.scorings, assignmentID)
}

// DeleteOrphanedSubDocuments removes owned documents no assignment references
func (s *Store) DeleteOrphanedSubDocuments(ctx context.Context) (types.OrphanSweepReport, error) {
	if err := s.injected("DeleteOrphanedSubDocuments"); err != nil {
		return types.OrphanSweepReport{}, err
	}
	defer s.lockWrite(ctx)()

	children := map[primitive.ObjectID]bool{}
	details := map[primitive.ObjectID]bool{}
	plans := map[primitive.ObjectID]bool{}
	for _, a := range s.data.assignments {
		children[a.ChildProfileID] = true
		details[a.AssignmentDetailID] = true
		plans[a.InterventionPlanID] = true
	}

	report := types.OrphanSweepReport{}
	for id := range s.data.childProfiles {
		if !children[id] {
			delete(s.data.childProfiles, id)
			report.ChildProfiles++
		}
	}
	for id := range s.data.assignmentDetails {
		if !details[id] {
			delete(s.data.assignmentDetails, id)
			report.AssignmentDetails++
		}
	}
	for id := range s.data.interventionPlans {
		if !plans[id] {
			delete(s.data.interventionPlans, id)
			report.InterventionPlans++
		}
	}
	return report, nil
}

func deleteKey[V any](m map[primitive.ObjectID]V, id primitive.ObjectID) error {
	if _, ok := m[id]; !ok {
		return db.ErrNotFound
	}
	delete(m, id)
	return nil
}

func newerFirst(ti time.Time, idi primitive.ObjectID, tj time.Time, idj primitive.ObjectID) bool {
	if !ti.Equal(tj) {
		return ti.After(tj)
	}
	return bytes.Compare(idi[:], idj[:]) > 0
}

func cloneCriteria(in []types.Criterion) []types.Criterion {
	if in == nil {
		return nil
	}
	out := make([]types.Criterion, len(in))
	copy(out, in)
	return out
}

func cloneAssignment(a types.OSITAssignment) types.OSITAssignment {
	if a.EventID != nil {
		id := *a.EventID
		a.EventID = &id
	}
	return a
}

func clonePlan(plan types.InterventionPlan) types.InterventionPlan {
	if plan.Weeks == nil {
		return plan
	}
	weeks := make(map[string]types.Week, len(plan.Weeks))
	for label, week := range plan.Weeks {
		sessions := make([]types.Session, len(week.Sessions))
		for i, session := range week.Sessions {
			if session.SessionNo != nil {
				n := *session.SessionNo
				session.SessionNo = &n
			}
			session.Goal = append([]string(nil), session.Goal...)
			session.Activity = append([]string(nil), session.Activity...)
			sessions[i] = session
		}
		weeks[label] = types.Week{Sessions: sessions}
	}
	plan.Weeks = weeks
	return plan
}
