package v1

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osit-platform/osit-backend/pkg/db/memstore"
	mw "github.com/osit-platform/osit-backend/pkg/http/middlewares"
	"github.com/osit-platform/osit-backend/pkg/jwt"
	"github.com/osit-platform/osit-backend/pkg/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	store  *memstore.Store
	router *gin.Engine
}

func newTestServer(t *testing.T, exposeDetail bool) testServer {
	t.Helper()
	store := memstore.New()
	issuer := jwt.NewTokenIssuer([]byte(strings.Repeat("t", 32)), time.Hour)

	h := NewHTTPHandler(
		service.NewCredentialService(store),
		service.NewAssignmentService(store, false),
		service.NewEventService(store),
		issuer,
		exposeDetail,
	)

	router := gin.New()
	router.Use(mw.RequestLogger())
	root := router.Group("")
	h.AddHealthAPI(root)
	h.AddParticipantAPI(root)
	h.AddTherapistAPI(root)
	h.AddAssignmentsAPI(root)
	h.AddEventsAPI(root)

	return testServer{store: store, router: router}
}

func (s testServer) do(t *testing.T, method string, path string, token string, body interface{}) (int, map[string]interface{}, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	return w.Code, decoded, w.Body.Bytes()
}

func (s testServer) registerParticipant(t *testing.T, email string) string {
	t.Helper()
	code, body, _ := s.do(t, http.MethodPost, "/participant", "", gin.H{
		"email": email, "password": "Secret123", "fName": "Asha",
	})
	require.Equal(t, http.StatusCreated, code, body)
	return body["token"].(string)
}

func (s testServer) registerTherapist(t *testing.T, email string, phone string) string {
	t.Helper()
	code, body, _ := s.do(t, http.MethodPost, "/therapist", "", gin.H{
		"fName": "Meera", "lName": "Iyer", "phone": phone, "email": email, "password": "Therapy123",
	})
	require.Equal(t, http.StatusCreated, code, body)
	return body["token"].(string)
}

func assignmentPayload(childName string, weeks int) gin.H {
	plan := gin.H{}
	for i := 1; i <= weeks; i++ {
		plan["week"+string(rune('0'+i))] = gin.H{"sessions": []gin.H{{
			"sessionNo": i,
			"goal":      []string{"eye contact"},
			"activity":  []string{"ball play"},
		}}}
	}
	return gin.H{
		"childProfile": gin.H{
			"name": childName, "dob": "2017-03-04", "gender": "male", "diagnosis": "ASD",
			"presentComplaint": "limited speech", "medicalHistory": "none",
		},
		"assignmentDetail": gin.H{
			"problemStatement": "p", "identificationAndObjectiveSetting": "i",
			"planningAndToolSection": "t", "toolStrategiesApproaches": "s",
		},
		"interventionPlan": gin.H{"weeks": plan, "mentionToolUsedForRespectiveGoal": "mirror"},
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, false)
	code, body, _ := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestParticipantRegistrationAndLogin(t *testing.T) {
	s := newTestServer(t, false)
	token := s.registerParticipant(t, "asha@example.com")
	assert.NotEmpty(t, token)

	code, body, _ := s.do(t, http.MethodPost, "/participant", "", gin.H{"email": "asha@example.com", "password": "Secret123"})
	assert.Equal(t, http.StatusConflict, code)
	assert.NotEmpty(t, body["error"])

	code, _, _ = s.do(t, http.MethodPost, "/participant", "", gin.H{"email": "bad", "password": "Secret123"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _, _ = s.do(t, http.MethodPost, "/participant", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body, raw := s.do(t, http.MethodPost, "/participant/login", "", gin.H{"email": "ASHA@example.com", "password": "Secret123"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "PARTICIPANT", body["role"])
	assert.NotEmpty(t, body["token"])
	assert.NotContains(t, string(raw), "password")

	code, _, _ = s.do(t, http.MethodPost, "/participant/login", "", gin.H{"email": "asha@example.com", "password": "Wrong1234"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _, _ = s.do(t, http.MethodPost, "/participant/login", "", gin.H{"email": "nobody@example.com", "password": "Wrong1234"})
	assert.Equal(t, http.StatusNotFound, code)

	code, body, _ = s.do(t, http.MethodGet, "/participant/me", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "asha@example.com", body["email"])

	code, body, _ = s.do(t, http.MethodPut, "/participant/profile", token, gin.H{"city": "Pune", "phone": "9123456780"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Pune", body["city"])

	code, _, _ = s.do(t, http.MethodPut, "/participant/profile", token, gin.H{"phone": "12"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestTherapistLoginAndRoleGates(t *testing.T) {
	s := newTestServer(t, false)
	participantToken := s.registerParticipant(t, "asha@example.com")
	therapistToken := s.registerTherapist(t, "meera@example.com", "9876543210")

	code, body, _ := s.do(t, http.MethodPost, "/therapist/login", "", gin.H{"email": "meera@example.com", "password": "Therapy123"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "THERAPIST", body["role"])

	code, _, _ = s.do(t, http.MethodPost, "/therapist", "", gin.H{
		"fName": "X", "lName": "Y", "phone": "9876543210", "email": "x@example.com", "password": "Therapy123",
	})
	assert.Equal(t, http.StatusConflict, code)

	code, _, _ = s.do(t, http.MethodGet, "/therapist/me", therapistToken, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _, _ = s.do(t, http.MethodGet, "/therapist/me", participantToken, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _, _ = s.do(t, http.MethodGet, "/participant/me", therapistToken, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _, _ = s.do(t, http.MethodGet, "/participant/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _, _ = s.do(t, http.MethodGet, "/participant/me", "forged.token.value", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAssignmentFlow(t *testing.T) {
	s := newTestServer(t, false)
	participantToken := s.registerParticipant(t, "asha@example.com")
	otherToken := s.registerParticipant(t, "other@example.com")
	therapistToken := s.registerTherapist(t, "meera@example.com", "9876543210")

	code, body, _ := s.do(t, http.MethodPost, "/osit-assignments", participantToken, assignmentPayload("Ravi", 2))
	require.Equal(t, http.StatusCreated, code, body)
	id := body["ositAssignmentId"].(string)
	assert.NotEmpty(t, body["participantId"])

	code, _, _ = s.do(t, http.MethodPost, "/osit-assignments", therapistToken, assignmentPayload("Ravi", 2))
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body, _ = s.do(t, http.MethodPost, "/osit-assignments", participantToken, assignmentPayload("Isha", 1))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "weeks")
	assert.Equal(t, 1, s.store.Counts().ChildProfiles)

	code, body, _ = s.do(t, http.MethodGet, "/osit-assignments/"+id, otherToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Ravi", body["childProfile"].(map[string]interface{})["name"])

	code, _, _ = s.do(t, http.MethodGet, "/osit-assignments/"+id, "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _, _ = s.do(t, http.MethodGet, "/osit-assignments", participantToken, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	score := gin.H{"ositAssignmentId": id, "criteriaList": []gin.H{{"criteria": "goal setting", "maxMarks": 10, "obtainedMarks": 8}}}
	code, body, _ = s.do(t, http.MethodPost, "/osit-assignments/score", therapistToken, score)
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, 8.0, body["totalObtained"])

	code, _, _ = s.do(t, http.MethodPost, "/osit-assignments/score", therapistToken, score)
	assert.Equal(t, http.StatusOK, code)

	code, _, _ = s.do(t, http.MethodPost, "/osit-assignments/score", therapistToken, gin.H{
		"ositAssignmentId": id, "criteriaList": []gin.H{{"criteria": "goal setting", "maxMarks": 10, "obtainedMarks": 12}},
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _, _ = s.do(t, http.MethodPost, "/osit-assignments/score", participantToken, score)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _, raw := s.do(t, http.MethodGet, "/osit-assignments?status=scored", therapistToken, nil)
	require.Equal(t, http.StatusOK, code)
	var scored []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &scored))
	assert.Len(t, scored, 1)

	code, _, raw = s.do(t, http.MethodGet, "/osit-assignments?status=unscored", therapistToken, nil)
	require.Equal(t, http.StatusOK, code)
	var unscored []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &unscored))
	assert.Empty(t, unscored)

	code, _, _ = s.do(t, http.MethodGet, "/osit-assignments?status=later", therapistToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _, raw = s.do(t, http.MethodGet, "/osit-assignments/participant/asha@example.com", participantToken, nil)
	require.Equal(t, http.StatusOK, code)
	var summaries []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, true, summaries[0]["scored"])

	code, _, _ = s.do(t, http.MethodGet, "/osit-assignments/participant/asha@example.com", otherToken, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	update := gin.H{"childProfile": assignmentPayload("Ravi K", 2)["childProfile"]}
	code, _, _ = s.do(t, http.MethodPut, "/osit-assignments/"+id, participantToken, update)
	assert.Equal(t, http.StatusOK, code)
	_, body, _ = s.do(t, http.MethodGet, "/osit-assignments/"+id, participantToken, nil)
	assert.Equal(t, "Ravi K", body["childProfile"].(map[string]interface{})["name"])

	code, _, _ = s.do(t, http.MethodDelete, "/osit-assignments/"+id, therapistToken, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _, _ = s.do(t, http.MethodDelete, "/osit-assignments/"+id, therapistToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _, _ = s.do(t, http.MethodGet, "/osit-assignments/not-an-id", therapistToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	counts := s.store.Counts()
	assert.Zero(t, counts.Assignments)
	assert.Zero(t, counts.ChildProfiles)
	assert.Zero(t, counts.Scorings)
}

func TestEventsAPI(t *testing.T) {
	s := newTestServer(t, false)

	event := gin.H{"name": "Camp", "startDate": "2024-06-01", "endDate": "2024-06-03", "submissionExpiry": 7, "location": "Pune"}
	code, body, _ := s.do(t, http.MethodPost, "/events", "", event)
	require.Equal(t, http.StatusCreated, code, body)
	id := body["id"].(string)
	assert.Equal(t, "2024-06-01T00:00:00Z", body["startDate"])

	code, body, _ = s.do(t, http.MethodGet, "/events/"+id, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Camp", body["name"])

	event["location"] = "Goa"
	code, body, _ = s.do(t, http.MethodPut, "/events/"+id, "", event)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Goa", body["location"])

	code, _, _ = s.do(t, http.MethodPost, "/events", "", gin.H{"name": "Bad", "startDate": "2024-06-05", "endDate": "2024-06-01", "submissionExpiry": 1, "location": "x"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _, _ = s.do(t, http.MethodPost, "/events", "", gin.H{"name": "Bad", "startDate": "June"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _, raw := s.do(t, http.MethodGet, "/events", "", nil)
	require.Equal(t, http.StatusOK, code)
	var events []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &events))
	assert.Len(t, events, 1)

	code, _, _ = s.do(t, http.MethodDelete, "/events/"+id, "", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _, _ = s.do(t, http.MethodGet, "/events/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestErrorDetailExposure(t *testing.T) {
	for _, expose := range []bool{false, true} {
		s := newTestServer(t, expose)
		token := s.registerParticipant(t, "asha@example.com")
		s.store.FailOn("InsertAssignment", errors.New("write conflict"))

		code, body, _ := s.do(t, http.MethodPost, "/osit-assignments", token, assignmentPayload("Ravi", 2))
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, "failed to create assignment, rolled back", body["error"])
		if expose {
			assert.Contains(t, body["detail"], "write conflict")
		} else {
			assert.NotContains(t, body, "detail")
		}
	}
}
