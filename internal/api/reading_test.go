package api_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glucolog/backend/internal/service"
)

func decodeBody(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestCreateReadingRequiresFields(t *testing.T) {
	env := SetupTestEnv(t)
	_, token := env.CreateTestUser(t, "create@example.com")

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing date", map[string]interface{}{"time": "08:00", "bloodSugar": 120, "age": "30"}},
		{"missing time", map[string]interface{}{"date": "2024-01-01", "bloodSugar": 120, "age": "30"}},
		{"missing bloodSugar", map[string]interface{}{"date": "2024-01-01", "time": "08:00", "age": "30"}},
		{"missing age", map[string]interface{}{"date": "2024-01-01", "time": "08:00", "bloodSugar": 120}},
		{"zero bloodSugar treated as missing", map[string]interface{}{"date": "2024-01-01", "time": "08:00", "bloodSugar": 0, "age": "30"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.PerformRequest("POST", "/api/v1/readings", tt.body, token)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCreateReadingAppliesDefaultsAndCoercion(t *testing.T) {
	env := SetupTestEnv(t)
	_, token := env.CreateTestUser(t, "defaults@example.com")

	w := env.PerformRequest("POST", "/api/v1/readings", map[string]interface{}{
		"date":       "2024-01-01",
		"time":       "08:00",
		"bloodSugar": "120.5",
		"age":        30,
	}, token)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody(t, w.Body.Bytes())
	assert.Equal(t, true, resp["success"])

	data := resp["data"].(map[string]interface{})
	assert.Equal(t, 120.5, data["bloodSugar"])
	assert.Equal(t, "30", data["age"])
	assert.Equal(t, "food", data["type"])
	assert.Equal(t, "normal", data["condition"])
	assert.Equal(t, "", data["description"])
	assert.NotEmpty(t, data["id"])
}

func TestListReadingsIsScopedToOwner(t *testing.T) {
	env := SetupTestEnv(t)
	aliceID, aliceToken := env.CreateTestUser(t, "alice@example.com")
	bobID, bobToken := env.CreateTestUser(t, "bob@example.com")

	env.CreateTestReading(t, aliceID, service.ReadingInput{
		Date: "2024-01-01", Time: "08:00", BloodSugar: 110, Age: "30",
	})
	env.CreateTestReading(t, bobID, service.ReadingInput{
		Date: "2024-01-01", Time: "09:00", BloodSugar: 140, Age: "45",
	})

	w := env.PerformRequest("GET", "/api/v1/readings", nil, aliceToken)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w.Body.Bytes())
	assert.Len(t, resp["data"], 1)

	w = env.PerformRequest("GET", "/api/v1/readings", nil, bobToken)
	resp = decodeBody(t, w.Body.Bytes())
	records := resp["data"].([]interface{})
	require.Len(t, records, 1)
	assert.Equal(t, 140.0, records[0].(map[string]interface{})["bloodSugar"])
}

func TestListReadingsUnauthenticated(t *testing.T) {
	env := SetupTestEnv(t)
	w := env.PerformRequest("GET", "/api/v1/readings", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListReadingsFilters(t *testing.T) {
	env := SetupTestEnv(t)
	userID, token := env.CreateTestUser(t, "filters@example.com")

	env.CreateTestReading(t, userID, service.ReadingInput{
		Date: "2024-01-01", Time: "08:00", BloodSugar: 95, Age: "30",
		Description: "Before breakfast", Condition: "fasting",
	})
	env.CreateTestReading(t, userID, service.ReadingInput{
		Date: "2024-01-02", Time: "13:00", BloodSugar: 150, Age: "30",
		Description: "Lunch with rice", Condition: "after-meal",
	})

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"search matches description", "?search=breakfast", 1},
		{"search matches condition", "?search=fasting", 1},
		{"search is case-insensitive", "?search=LUNCH", 1},
		{"date filter", "?date=2024-01-02", 1},
		{"condition filter", "?condition=after-meal", 1},
		{"unassigned condition means no filter", "?condition=unassigned", 2},
		{"no filter returns all", "", 2},
		{"no match", "?search=dinner", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.PerformRequest("GET", "/api/v1/readings"+tt.query, nil, token)
			require.Equal(t, http.StatusOK, w.Code)
			resp := decodeBody(t, w.Body.Bytes())
			assert.Len(t, resp["data"], tt.want)
		})
	}
}

func TestLatestReading(t *testing.T) {
	env := SetupTestEnv(t)
	userID, _ := env.CreateTestUser(t, "latest@example.com")

	w := env.PerformRequest("GET", "/api/v1/readings/latest", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// No readings yet: the body is a JSON null.
	w = env.PerformRequest("GET", fmt.Sprintf("/api/v1/readings/latest?userId=%s", userID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())

	env.CreateTestReading(t, userID, service.ReadingInput{
		Date: "2024-01-01", Time: "08:00", BloodSugar: 110, Age: "30",
	})
	latest := env.CreateTestReading(t, userID, service.ReadingInput{
		Date: "2024-01-02", Time: "08:00", BloodSugar: 125, Age: "30",
	})

	w = env.PerformRequest("GET", fmt.Sprintf("/api/v1/readings/latest?userId=%s", userID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w.Body.Bytes())
	assert.Equal(t, latest.ID.String(), resp["id"])
}

func TestUpdateReading(t *testing.T) {
	env := SetupTestEnv(t)
	userID, token := env.CreateTestUser(t, "update@example.com")
	reading := env.CreateTestReading(t, userID, service.ReadingInput{
		Date: "2024-01-01", Time: "08:00", BloodSugar: 110, Age: "30",
	})

	w := env.PerformRequest("PUT", "/api/v1/readings", map[string]interface{}{
		"id":         reading.ID.String(),
		"date":       "2024-01-01",
		"time":       "09:00",
		"bloodSugar": "180",
		"age":        "30",
		"type":       "drink",
		"condition":  "after-meal",
	}, token)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody(t, w.Body.Bytes())
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, 180.0, data["bloodSugar"])
	assert.Equal(t, "09:00", data["time"])
	assert.Equal(t, "drink", data["type"])
}

func TestUpdateReadingKeepsOmittedFields(t *testing.T) {
	env := SetupTestEnv(t)
	userID, token := env.CreateTestUser(t, "partial@example.com")
	reading := env.CreateTestReading(t, userID, service.ReadingInput{
		Date: "2024-01-01", Time: "08:00", BloodSugar: 180, Age: "30",
		Type: "drink", Description: "after soda", Condition: "after-meal",
	})

	w := env.PerformRequest("PUT", "/api/v1/readings", map[string]interface{}{
		"id":         reading.ID.String(),
		"date":       "2024-01-02",
		"time":       "10:00",
		"bloodSugar": 150,
		"age":        "30",
	}, token)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody(t, w.Body.Bytes())
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, 150.0, data["bloodSugar"])
	assert.Equal(t, "drink", data["type"])
	assert.Equal(t, "after soda", data["description"])
	assert.Equal(t, "after-meal", data["condition"])
}

func TestUpdateReadingMissingID(t *testing.T) {
	env := SetupTestEnv(t)
	_, token := env.CreateTestUser(t, "noid@example.com")

	w := env.PerformRequest("PUT", "/api/v1/readings", map[string]interface{}{
		"date": "2024-01-01", "time": "08:00", "bloodSugar": 120, "age": "30",
	}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateReadingOwnedByOtherUserIs404(t *testing.T) {
	env := SetupTestEnv(t)
	aliceID, _ := env.CreateTestUser(t, "alice2@example.com")
	_, bobToken := env.CreateTestUser(t, "bob2@example.com")

	reading := env.CreateTestReading(t, aliceID, service.ReadingInput{
		Date: "2024-01-01", Time: "08:00", BloodSugar: 110, Age: "30",
	})

	w := env.PerformRequest("PUT", "/api/v1/readings", map[string]interface{}{
		"id":         reading.ID.String(),
		"date":       "2024-01-01",
		"time":       "08:00",
		"bloodSugar": 999,
		"age":        "30",
	}, bobToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// The record must be untouched.
	w = env.PerformRequest("GET", fmt.Sprintf("/api/v1/readings/latest?userId=%s", aliceID), nil, "")
	resp := decodeBody(t, w.Body.Bytes())
	assert.Equal(t, 110.0, resp["bloodSugar"])
}

func TestDeleteReading(t *testing.T) {
	env := SetupTestEnv(t)
	userID, token := env.CreateTestUser(t, "delete@example.com")
	reading := env.CreateTestReading(t, userID, service.ReadingInput{
		Date: "2024-01-01", Time: "08:00", BloodSugar: 110, Age: "30",
	})

	w := env.PerformRequest("DELETE", "/api/v1/readings", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.PerformRequest("DELETE", fmt.Sprintf("/api/v1/readings?id=%s", reading.ID), nil, token)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.PerformRequest("GET", "/api/v1/readings", nil, token)
	resp := decodeBody(t, w.Body.Bytes())
	assert.Len(t, resp["data"], 0)
}

func TestDeleteReadingOwnedByOtherUserIs404(t *testing.T) {
	env := SetupTestEnv(t)
	aliceID, aliceToken := env.CreateTestUser(t, "alice3@example.com")
	_, bobToken := env.CreateTestUser(t, "bob3@example.com")

	reading := env.CreateTestReading(t, aliceID, service.ReadingInput{
		Date: "2024-01-01", Time: "08:00", BloodSugar: 110, Age: "30",
	})

	w := env.PerformRequest("DELETE", fmt.Sprintf("/api/v1/readings?id=%s", reading.ID), nil, bobToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.PerformRequest("GET", "/api/v1/readings", nil, aliceToken)
	resp := decodeBody(t, w.Body.Bytes())
	assert.Len(t, resp["data"], 1)
}

func TestMalformedIDReadsAsAbsent(t *testing.T) {
	env := SetupTestEnv(t)
	_, token := env.CreateTestUser(t, "badid@example.com")

	w := env.PerformRequest("PUT", "/api/v1/readings", map[string]interface{}{
		"id":         "not-a-uuid",
		"date":       "2024-01-01",
		"time":       "08:00",
		"bloodSugar": 120,
		"age":        "30",
	}, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.PerformRequest("DELETE", "/api/v1/readings?id=not-a-uuid", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusEndpoint(t *testing.T) {
	env := SetupTestEnv(t)
	_, token := env.CreateTestUser(t, "status@example.com")

	w := env.PerformRequest("GET", "/api/v1/readings/status?value=131&age=30", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w.Body.Bytes())
	assert.Equal(t, "High", resp["status"])

	w = env.PerformRequest("GET", "/api/v1/readings/status?value=120", nil, token)
	resp = decodeBody(t, w.Body.Bytes())
	assert.Equal(t, "Undetermined", resp["status"])

	w = env.PerformRequest("GET", "/api/v1/readings/status?age=30", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalysisEndpoint(t *testing.T) {
	env := SetupTestEnv(t)
	userID, token := env.CreateTestUser(t, "analysis@example.com")

	for i, v := range []float64{80, 90, 100} {
		env.CreateTestReading(t, userID, service.ReadingInput{
			Date: "2024-01-01", Time: fmt.Sprintf("0%d:00", i+6), BloodSugar: v, Age: "30",
		})
	}

	w := env.PerformRequest("GET", "/api/v1/readings/analysis", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w.Body.Bytes())
	assert.Equal(t, "rising", resp["trend"])
	assert.Equal(t, "low risk", resp["risk"])
	assert.NotEmpty(t, resp["recommendation"])
}
